package models

import (
	"time"
)

type Product struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          float64           `json:"price"`
	OriginalPrice  *float64          `json:"originalPrice,omitempty"`
	Images         []string          `json:"images"`
	Category       string            `json:"category"`
	Subcategory    string            `json:"subcategory,omitempty"`
	Brand          string            `json:"brand"`
	Rating         float64           `json:"rating"`
	ReviewCount    int               `json:"reviewCount"`
	InStock        bool              `json:"inStock"`
	StockQuantity  int               `json:"stockQuantity"`
	Tags           []string          `json:"tags"`
	Specifications map[string]string `json:"specifications"`
	Variants       []Variant         `json:"variants,omitempty"`
	Featured       bool              `json:"featured,omitempty"`
	OnSale         bool              `json:"onSale,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Variant is one selectable option of a product. Variants sharing Name form
// a group ("Color", "Storage").
type Variant struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Value   string   `json:"value"`
	Price   *float64 `json:"price,omitempty"`
	Image   string   `json:"image,omitempty"`
	InStock bool     `json:"inStock"`
}

type Category struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description,omitempty"`
	Image        string     `json:"image,omitempty"`
	ParentID     string     `json:"parentId,omitempty"`
	Children     []Category `json:"children,omitempty"`
	ProductCount int        `json:"productCount"`
}

// ProductDetail is a product page: the product plus related items.
type ProductDetail struct {
	Product  *Product   `json:"product"`
	Related  []*Product `json:"related"`
	Discount int        `json:"discountPercent,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
