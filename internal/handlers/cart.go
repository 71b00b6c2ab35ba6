package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/cart"
	"storefront-api/internal/core/errx"
	"storefront-api/internal/middleware"
	"storefront-api/internal/models"
)

func (h *Handler) GetCart(c *gin.Context) {
	ledger, err := h.Carts.Load(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledger.Snapshot())
}

func (h *Handler) ClearCart(c *gin.Context) {
	h.mutateCart(c, func(l *cart.Ledger) error {
		l.Clear()
		return nil
	})
}

func (h *Handler) AddCartItem(c *gin.Context) {
	var req models.AddItemRequest
	if !bindJSON(c, &req) {
		return
	}
	product, ok := h.Catalog.Product(req.ProductID)
	if !ok {
		respondError(c, errx.NotFound("product not found"))
		return
	}
	if err := cart.CheckSelection(product, req.SelectedVariants); err != nil {
		respondError(c, cartError(err))
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	h.mutateCart(c, func(l *cart.Ledger) error {
		_, err := l.AddItem(product, quantity, req.SelectedVariants)
		return cartError(err)
	})
}

// UpdateCartItem sets a line's quantity; zero or less removes the line.
// Unknown line ids leave the cart unchanged.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req models.UpdateQuantityRequest
	if !bindJSON(c, &req) {
		return
	}
	lineID := c.Param("lineId")
	h.mutateCart(c, func(l *cart.Ledger) error {
		l.UpdateQuantity(lineID, *req.Quantity)
		return nil
	})
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	lineID := c.Param("lineId")
	h.mutateCart(c, func(l *cart.Ledger) error {
		l.RemoveItem(lineID)
		return nil
	})
}

// mutateCart applies fn to the session's cart under its lock, persists it and
// responds with the resulting snapshot.
func (h *Handler) mutateCart(c *gin.Context, fn func(*cart.Ledger) error) {
	ctx := c.Request.Context()
	sessionID := middleware.SessionID(c)

	ledger, err := h.Carts.Update(ctx, sessionID, fn)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledger.Snapshot())
}

func cartError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, cart.ErrNilProduct),
		errors.Is(err, cart.ErrUnknownVariant):
		return errx.New(err, http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrOutOfStock), errors.Is(err, cart.ErrVariantUnavailable):
		return errx.New(err, http.StatusConflict, err.Error())
	default:
		return err
	}
}
