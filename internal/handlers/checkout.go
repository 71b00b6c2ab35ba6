package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/middleware"
	"storefront-api/internal/models"
)

func (h *Handler) CheckoutSummary(c *gin.Context) {
	ledger, err := h.Carts.Load(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Checkout.Summary(ledger.Subtotal(), ledger.ItemCount()))
}

// ValidateCheckoutStep reports the field errors of one form step.
func (h *Handler) ValidateCheckoutStep(c *gin.Context) {
	var req models.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	fields, err := h.Checkout.ValidateStep(c.Param("step"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"step":   c.Param("step"),
		"valid":  len(fields) == 0,
		"errors": fields,
	})
}

func (h *Handler) PlaceOrder(c *gin.Context) {
	var req models.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.Checkout.PlaceOrder(c.Request.Context(), middleware.SessionID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}
