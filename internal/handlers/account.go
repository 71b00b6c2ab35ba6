package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/core/errx"
	"storefront-api/internal/middleware"
	"storefront-api/internal/models"
	"storefront-api/internal/services"
)

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Auth.Login(c.Request.Context(), middleware.SessionID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AuthState{Authenticated: true, User: user})
}

func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Auth.Register(c.Request.Context(), middleware.SessionID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.AuthState{Authenticated: true, User: user})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), middleware.SessionID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AuthState{})
}

func (h *Handler) Me(c *gin.Context) {
	state, err := h.Auth.State(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) Profile(c *gin.Context) {
	user, err := h.Auth.Current(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		respondError(c, errx.Unauthorized(services.ErrNotSignedIn, "sign in required"))
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var patch models.ProfilePatch
	if !bindJSON(c, &patch) {
		return
	}
	user, err := h.Auth.UpdateProfile(c.Request.Context(), middleware.SessionID(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) Orders(c *gin.Context) {
	orders, err := h.Auth.Orders(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) AddToWishlist(c *gin.Context) {
	productID := c.Param("productId")
	if _, ok := h.Catalog.Product(productID); !ok {
		respondError(c, errx.NotFound("product not found"))
		return
	}
	user, err := h.Auth.AddToWishlist(c.Request.Context(), middleware.SessionID(c), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wishlist": user.Wishlist})
}

func (h *Handler) RemoveFromWishlist(c *gin.Context) {
	user, err := h.Auth.RemoveFromWishlist(c.Request.Context(), middleware.SessionID(c), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wishlist": user.Wishlist})
}
