package models

import (
	"time"
)

const (
	StepShipping = "shipping"
	StepBilling  = "billing"
	StepPayment  = "payment"

	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
)

type OrderSummary struct {
	Subtotal              float64 `json:"subtotal"`
	Shipping              float64 `json:"shipping"`
	Tax                   float64 `json:"tax"`
	Total                 float64 `json:"total"`
	FreeShippingRemaining float64 `json:"freeShippingRemaining"`
	ItemCount             int     `json:"itemCount"`
}

type PaymentDetails struct {
	CardNumber string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
	CardName   string `json:"cardName"`
}

type CheckoutRequest struct {
	Shipping       Address        `json:"shipping"`
	Billing        Address        `json:"billing"`
	SameAsShipping bool           `json:"sameAsShipping"`
	Payment        PaymentDetails `json:"payment"`
}

type OrderItem struct {
	ProductID        string            `json:"productId"`
	Name             string            `json:"name"`
	Quantity         int               `json:"quantity"`
	SelectedVariants map[string]string `json:"selectedVariants,omitempty"`
	UnitPrice        float64           `json:"unitPrice"`
	LineTotal        float64           `json:"lineTotal"`
}

type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId,omitempty"`
	Items           []OrderItem `json:"items"`
	Subtotal        float64     `json:"subtotal"`
	Tax             float64     `json:"tax"`
	Shipping        float64     `json:"shipping"`
	Total           float64     `json:"total"`
	Status          string      `json:"status"`
	ShippingAddress Address     `json:"shippingAddress"`
	BillingAddress  Address     `json:"billingAddress"`
	PaymentMethod   string      `json:"paymentMethod"`
	TrackingNumber  string      `json:"trackingNumber,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}
