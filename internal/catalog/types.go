package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Promotion is a discount that can be attached to many products.
type Promotion struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Description string  `gorm:"size:255;not null" json:"description"`
	Discount    float64 `gorm:"not null" json:"discount"`
}

// Collection groups products; FeaturedProductID is nulled when the product goes away.
type Collection struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	Title             string `gorm:"size:255;not null" json:"title"`
	FeaturedProductID *uint  `json:"featured_product_id,omitempty"`
}

// Brand is an optional manufacturer reference on a product.
type Brand struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null;uniqueIndex" json:"name"`
}

// Product is a sellable catalog entry. UnitPrice is fixed-point with two decimals.
// Inventory is informational and may go negative.
type Product struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Title        string          `gorm:"size:255;not null" json:"title"`
	Slug         string          `gorm:"size:255;index" json:"slug"`
	Description  string          `gorm:"type:text" json:"description"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(8,2);not null" json:"unit_price"`
	Inventory    int             `gorm:"not null" json:"inventory"`
	CollectionID uint            `gorm:"not null;index" json:"collection_id"`
	Collection   *Collection     `gorm:"constraint:OnDelete:RESTRICT" json:"collection,omitempty"`
	BrandID      *uint           `gorm:"index" json:"brand_id,omitempty"`
	Brand        *Brand          `json:"brand,omitempty"`
	Promotions   []Promotion     `gorm:"many2many:product_promotions" json:"promotions,omitempty"`
	LastUpdate   time.Time       `gorm:"autoUpdateTime" json:"last_update"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Query        string
	CollectionID uint
	BrandID      uint
}

// ProductPatch carries the staff-editable fields. Nil fields are left unchanged.
type ProductPatch struct {
	Title       *string
	Description *string
	UnitPrice   *decimal.Decimal
	Inventory   *int
}
