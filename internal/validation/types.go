package validation

import "github.com/shopspring/decimal"

// AddressRequest is the shipping address form for POST /checkout/address.
type AddressRequest struct {
	FullName   string `json:"full_name" form:"full_name" validate:"required,max=255"`
	Phone      string `json:"phone" form:"phone" validate:"required,phone,max=32"`
	Country    string `json:"country" form:"country" validate:"required,max=100"`
	City       string `json:"city" form:"city" validate:"required,max=100"`
	Area       string `json:"area" form:"area" validate:"max=100"`
	Street     string `json:"street" form:"street" validate:"required,max=255"`
	Building   string `json:"building" form:"building" validate:"max=100"`
	Apartment  string `json:"apartment" form:"apartment" validate:"max=50"`
	PostalCode string `json:"postal_code" form:"postal_code" validate:"max=20"`
	Notes      string `json:"notes" form:"notes" validate:"max=1000"`
}

// ProductUpdateRequest is the staff product edit form.
type ProductUpdateRequest struct {
	Title       *string          `json:"title" form:"title" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description" form:"description"`
	UnitPrice   *decimal.Decimal `json:"unit_price" form:"unit_price" validate:"omitempty,nonnegative_money"`
	Inventory   *int             `json:"inventory" form:"inventory"`
}
