package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the identity domain.
// Accounts are created by OTP verification; the refresh token column holds the
// single active session for the user and is overwritten on every login.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Verified     bool
	RefreshToken string
	AvatarURL    string
	Addresses    []Address
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Address is an entry in a user's address book.
type Address struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Street      string       `json:"street"`
	City        string       `json:"city"`
	State       string       `json:"state"`
	PostalCode  string       `json:"postal_code"`
	Country     string       `json:"country"`
	AddressType string       `json:"address_type"`
	IsDefault   bool         `json:"is_default"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Snapshot copies the address into an order shipping address.
func (a Address) Snapshot(fullName string) ShippingAddress {
	return ShippingAddress{
		FullName:   fullName,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}
