package cart

import (
	"time"

	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

// Status is the cart lifecycle state. A cart moves OPENED -> FROZEN once, at order placement.
type Status string

const (
	StatusOpened Status = "OPENED"
	StatusFrozen Status = "FROZEN"
)

// Cart is a user's collection of lines. At most one OPENED cart exists per user.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Status    Status     `gorm:"size:16;not null;index" json:"status"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Editable reports whether lines and address may still change.
func (c *Cart) Editable() bool {
	return c != nil && c.Status == StatusOpened
}

// CartItem is one (product, quantity) line. Quantity is always >= 1; a line
// that would drop below 1 is deleted instead.
type CartItem struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CartID    uint             `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"cart_id"`
	ProductID uint             `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"product_id"`
	Product   *catalog.Product `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity  int              `gorm:"not null" json:"quantity"`
}

// Line is a cart item priced at the product's current unit price.
type Line struct {
	ItemID    uint
	Product   catalog.Product
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Summary is the derived view of a cart. It is recomputed on every call.
type Summary struct {
	CartID     uint
	Status     Status
	Lines      []Line
	TotalItems int
	Subtotal   decimal.Decimal
}
