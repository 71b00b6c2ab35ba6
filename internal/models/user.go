package models

import (
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Avatar    string    `json:"avatar,omitempty"`
	Addresses []Address `json:"addresses"`
	Orders    []Order   `json:"orders"`
	Wishlist  []string  `json:"wishlist"`
	CreatedAt time.Time `json:"createdAt"`
}

type Address struct {
	ID        string `json:"id,omitempty"`
	Type      string `json:"type,omitempty"` // billing, shipping
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
	IsDefault bool   `json:"isDefault"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ProfilePatch carries the fields a profile update may change. Empty fields
// are left untouched.
type ProfilePatch struct {
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	Addresses []Address `json:"addresses"`
}

type AuthState struct {
	Authenticated bool  `json:"isAuthenticated"`
	User          *User `json:"user"`
}
