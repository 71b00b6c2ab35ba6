package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/core/errx"
	"storefront-api/pkg/cache"
)

const serviceName = "storefront-api"

func (h *Handler) Health(c *gin.Context) {
	health := gin.H{
		"status":   "healthy",
		"service":  serviceName,
		"version":  h.Version,
		"products": h.Catalog.Total(),
	}
	if h.Cache.IsAvailable() {
		health["cache"] = "redis connected"
	} else {
		health["cache"] = "redis unavailable"
	}
	c.JSON(http.StatusOK, health)
}

func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "Storefront API",
		"version":     h.Version,
		"description": "Catalog, cart, checkout and account backend for the storefront",
		"features":    []string{"Catalog search", "Filtering", "Sorting", "Pagination", "Session carts", "Checkout", "Mock accounts", "Redis caching"},
		"endpoints": map[string]string{
			"GET /products":          "Query the catalog",
			"GET /products/:id":      "Product with related items",
			"GET /categories":        "Category tree",
			"GET /cart":              "Current cart",
			"POST /cart/items":       "Add a product to the cart",
			"GET /checkout/summary":  "Order totals",
			"POST /checkout/orders":  "Place an order",
			"POST /auth/login":       "Sign in",
			"GET /profile":           "Signed-in profile",
			"GET /health":            "Health check",
			"GET /cache/stats":       "Cache statistics",
			"GET /rate-limit/status": "Caller's rate limit",
			"GET /api/info":          "API information",
		},
	})
}

func (h *Handler) RateLimitStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.Limiter.Status(c.ClientIP()))
}

func (h *Handler) cacheUnavailable(c *gin.Context) bool {
	if h.Cache.IsAvailable() {
		return false
	}
	respondError(c, errx.New(cache.ErrUnavailable, http.StatusServiceUnavailable, "cache not available"))
	return true
}

func (h *Handler) CacheStats(c *gin.Context) {
	if h.cacheUnavailable(c) {
		return
	}
	c.JSON(http.StatusOK, h.Cache.GetStats(c.Request.Context()))
}

func (h *Handler) CacheDebug(c *gin.Context) {
	if h.cacheUnavailable(c) {
		return
	}
	ctx := c.Request.Context()
	keys := h.Cache.GetAllKeys(ctx)

	keyDetails := make([]gin.H, 0, len(keys))
	for _, key := range keys {
		ttl := h.Cache.GetKeyTTL(ctx, key)
		keyDetails = append(keyDetails, gin.H{
			"key":         key,
			"ttl_seconds": int(ttl.Seconds()),
			"expires_in":  ttl.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total_keys":  len(keys),
		"cache_keys":  keyDetails,
		"cache_stats": h.Cache.GetStats(ctx),
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) FlushCache(c *gin.Context) {
	if h.cacheUnavailable(c) {
		return
	}
	n, err := h.Cache.FlushCache(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "cache flushed successfully",
		"removed":   n,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
