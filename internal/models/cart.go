package models

import (
	"time"
)

// CartLine is one row of a cart: a product, the chosen options and a quantity.
type CartLine struct {
	ID               string            `json:"id"`
	Product          *Product          `json:"product"`
	Quantity         int               `json:"quantity"`
	SelectedVariants map[string]string `json:"selectedVariants,omitempty"`
	AddedAt          time.Time         `json:"addedAt"`
	UnitPrice        float64           `json:"unitPrice"`
	LineTotal        float64           `json:"lineTotal"`
}

type CartSnapshot struct {
	Lines     []CartLine `json:"items"`
	ItemCount int        `json:"itemCount"`
	Subtotal  float64    `json:"subtotal"`
}

// StoredLine is the persisted form of a CartLine; the product is kept by id.
type StoredLine struct {
	ID               string            `json:"id"`
	ProductID        string            `json:"productId"`
	Quantity         int               `json:"quantity"`
	SelectedVariants map[string]string `json:"selectedVariants,omitempty"`
	AddedAt          time.Time         `json:"addedAt"`
}

// AddItemRequest adds Quantity units of a product; an omitted quantity means 1.
type AddItemRequest struct {
	ProductID        string            `json:"productId" binding:"required"`
	Quantity         *int              `json:"quantity"`
	SelectedVariants map[string]string `json:"selectedVariants"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}
