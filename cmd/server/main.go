package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/cart"
	"storefront-api/internal/catalog"
	"storefront-api/internal/config"
	"storefront-api/internal/handlers"
	"storefront-api/internal/middleware"
	"storefront-api/internal/server"
	"storefront-api/internal/services"
	"storefront-api/internal/storage"
	"storefront-api/pkg/cache"
	logx "storefront-api/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Env()})
	if cfg.Env().IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		if cat, err = catalog.LoadFile(cfg.CatalogPath); err != nil {
			logx.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("failed to load catalog")
		}
	}
	logx.Info().Int("products", cat.Total()).Msg("catalog loaded")

	var (
		slots      storage.Store = storage.NewMemoryStore()
		queryCache *cache.RedisCache
	)
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			logx.Warn().Err(err).Msg("redis unavailable, falling back to in-memory storage")
		} else {
			defer rdb.Close()
			slots = storage.NewRedisStore(rdb, "")
			queryCache = cache.NewRedisCache(rdb, cfg.CacheTTLDuration())
			logx.Info().Msg("connected to redis")
		}
	}

	carts := cart.NewStore(slots, cfg.Session.TTL, cat.Product, cart.WithStockLimit(cfg.Cart.ClampToStock))
	auth := services.NewAuthService(slots, cfg.Session.TTL, cfg.Auth.LoginDelay, cfg.Auth.UpdateDelay)

	h := &handlers.Handler{
		Catalog:  cat,
		Query:    services.NewQueryService(cat, queryCache),
		Carts:    carts,
		Checkout: services.NewCheckoutService(services.PricingFromConfig(cfg.Checkout), cfg.Checkout.ProcessingDelay, carts, auth),
		Auth:     auth,
		Cache:    queryCache,
		Limiter:  middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Version:  version,
	}
	router := server.NewRouter(h, server.Options{
		Origins:  cfg.Origins(),
		Sessions: middleware.NewSessions(cfg.Session.Secret, cfg.Session.TTL, cfg.Env().IsProduction()),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logx.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logx.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logx.Info().Str("port", cfg.Port).Str("environment", cfg.Env().String()).Msg("starting storefront server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logx.Fatal().Err(err).Msg("failed to start server")
	}
}
