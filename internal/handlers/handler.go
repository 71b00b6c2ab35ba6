package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/cart"
	"storefront-api/internal/catalog"
	"storefront-api/internal/core/errx"
	"storefront-api/internal/middleware"
	"storefront-api/internal/models"
	"storefront-api/internal/services"
	"storefront-api/pkg/cache"
	logx "storefront-api/pkg/logger"
)

// Handler serves the storefront's JSON API.
type Handler struct {
	Catalog  *catalog.Catalog
	Query    *services.QueryService
	Carts    *cart.Store
	Checkout *services.CheckoutService
	Auth     *services.AuthService
	Cache    *cache.RedisCache
	Limiter  *middleware.RateLimiter
	Version  string
}

func errorCode(status int) string {
	return strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
}

// respondError renders err as an ErrorResponse using the status it carries.
func respondError(c *gin.Context, err error) {
	status := errx.StatusOf(err)
	resp := models.ErrorResponse{
		Error:   errorCode(status),
		Code:    status,
		Message: errx.MessageOf(err),
	}

	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		resp.Fields = appErr.Fields
		if appErr.Err != nil && status < http.StatusInternalServerError {
			resp.Details = appErr.Err.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, resp)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, errx.New(err, http.StatusBadRequest, "invalid request body"))
		return false
	}
	return true
}
