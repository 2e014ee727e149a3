package orders

import (
	"time"

	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

// PaymentStatus values match the single-letter codes stored in orders.payment_status.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "p"
	PaymentComplete PaymentStatus = "c"
	PaymentFailed   PaymentStatus = "f"
)

// String returns the human label for the status.
func (s PaymentStatus) String() string {
	switch s {
	case PaymentPending:
		return "pending"
	case PaymentComplete:
		return "complete"
	case PaymentFailed:
		return "failed"
	default:
		return string(s)
	}
}

// Customer is the purchasing party. UserID links it to a storefront account.
type Customer struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	FirstName string     `gorm:"size:255;not null;index:idx_customers_name,priority:2" json:"first_name"`
	LastName  string     `gorm:"size:255;not null;index:idx_customers_name,priority:1" json:"last_name"`
	Email     string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Phone     string     `gorm:"size:255" json:"phone"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	UserID    *uint      `gorm:"uniqueIndex" json:"user_id,omitempty"`
}

// Order is created once per checkout and is immutable apart from payment
// status and the inventory bookkeeping flag.
type Order struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	PaymentStatus    PaymentStatus `gorm:"size:1;not null" json:"payment_status"`
	PlacedAt         time.Time     `gorm:"not null" json:"placed_at"`
	CustomerID       uint          `gorm:"not null;index" json:"customer_id"`
	Customer         *Customer     `gorm:"constraint:OnDelete:RESTRICT" json:"customer,omitempty"`
	UserID           uint          `gorm:"not null;index" json:"user_id"`
	CartID           uint          `gorm:"not null;uniqueIndex" json:"cart_id"`
	InventoryApplied bool          `gorm:"not null" json:"inventory_applied"`
	Items            []OrderItem   `gorm:"constraint:OnDelete:RESTRICT" json:"items,omitempty"`
}

// OrderItem holds the unit price copied from the product when the order was placed.
type OrderItem struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	OrderID   uint             `gorm:"not null;index" json:"order_id"`
	ProductID uint             `gorm:"not null;index" json:"product_id"`
	Product   *catalog.Product `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity  int              `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal  `gorm:"type:numeric(8,2);not null" json:"unit_price"`
}

// LineTotal is quantity times the snapshot price.
func (it OrderItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Total sums the snapshot line totals.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// CustomerDefaults seeds a new Customer at checkout.
type CustomerDefaults struct {
	UserID    uint
	FirstName string
	LastName  string
	Email     string
	Phone     string
}
