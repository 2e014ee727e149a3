package checkout

import (
	"time"

	"github.com/imrishuroy/go-storefront/internal/cart"
)

// State is where a cart is in the checkout flow.
type State string

const (
	StateNeedsAddress    State = "NEEDS_ADDRESS"
	StateAddressCaptured State = "ADDRESS_CAPTURED"
	StateReviewed        State = "REVIEWED"
	StatePlaced          State = "PLACED"
)

// ShippingAddress belongs to exactly one cart. ReviewedAt is cleared whenever the address changes.
type ShippingAddress struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CartID     uint       `gorm:"not null;uniqueIndex" json:"cart_id"`
	Cart       *cart.Cart `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	FullName   string     `gorm:"size:255;not null" json:"full_name"`
	Phone      string     `gorm:"size:32;not null" json:"phone"`
	Country    string     `gorm:"size:100;not null" json:"country"`
	City       string     `gorm:"size:100;not null" json:"city"`
	Area       string     `gorm:"size:100" json:"area,omitempty"`
	Street     string     `gorm:"size:255;not null" json:"street"`
	Building   string     `gorm:"size:100" json:"building,omitempty"`
	Apartment  string     `gorm:"size:100" json:"apartment,omitempty"`
	PostalCode string     `gorm:"size:20" json:"postal_code,omitempty"`
	Notes      string     `gorm:"type:text" json:"notes,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// AddressInput is a validated address as captured from the shopper.
type AddressInput struct {
	FullName   string
	Phone      string
	Country    string
	City       string
	Area       string
	Street     string
	Building   string
	Apartment  string
	PostalCode string
	Notes      string
}

// Review is what the shopper confirms before placing the order.
type Review struct {
	Summary cart.Summary
	Address ShippingAddress
}
