package server

import (
	"github.com/gin-gonic/gin"

	"storefront-api/internal/handlers"
	"storefront-api/internal/middleware"
)

type Options struct {
	Origins  []string
	Sessions *middleware.Sessions
}

// NewRouter wires every route of the storefront API onto a gin engine.
func NewRouter(h *handlers.Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(opts.Origins))
	r.Use(h.Limiter.Middleware())

	r.GET("/health", h.Health)
	r.GET("/api/info", h.Info)
	r.GET("/rate-limit/status", h.RateLimitStatus)

	cacheGroup := r.Group("/cache")
	{
		cacheGroup.GET("/stats", h.CacheStats)
		cacheGroup.GET("/debug", h.CacheDebug)
		cacheGroup.DELETE("/flush", h.FlushCache)
	}

	r.GET("/products", h.ListProducts)
	r.GET("/products/featured", h.FeaturedProducts)
	r.GET("/products/sale", h.SaleProducts)
	r.GET("/products/facets", h.Facets)
	r.GET("/products/:id", h.ProductDetail)
	r.GET("/categories", h.Categories)

	session := r.Group("/", opts.Sessions.Middleware())
	{
		session.GET("/cart", h.GetCart)
		session.DELETE("/cart", h.ClearCart)
		session.POST("/cart/items", h.AddCartItem)
		session.PATCH("/cart/items/:lineId", h.UpdateCartItem)
		session.DELETE("/cart/items/:lineId", h.RemoveCartItem)

		session.GET("/checkout/summary", h.CheckoutSummary)
		session.POST("/checkout/validate/:step", h.ValidateCheckoutStep)
		session.POST("/checkout/orders", h.PlaceOrder)

		session.POST("/auth/login", h.Login)
		session.POST("/auth/register", h.Register)
		session.POST("/auth/logout", h.Logout)
		session.GET("/auth/me", h.Me)

		session.GET("/profile", h.Profile)
		session.PATCH("/profile", h.UpdateProfile)
		session.GET("/profile/orders", h.Orders)
		session.POST("/profile/wishlist/:productId", h.AddToWishlist)
		session.DELETE("/profile/wishlist/:productId", h.RemoveFromWishlist)
	}

	return r
}
