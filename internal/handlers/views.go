package handlers

import (
	"time"

	"github.com/imrishuroy/go-storefront/internal/cart"
	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/checkout"
	"github.com/imrishuroy/go-storefront/internal/guestcart"
	"github.com/imrishuroy/go-storefront/internal/orders"
	"github.com/shopspring/decimal"
)

type productView struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	Slug         string `json:"slug,omitempty"`
	Description  string `json:"description,omitempty"`
	UnitPrice    string `json:"unit_price"`
	Inventory    int    `json:"inventory"`
	CollectionID uint   `json:"collection_id"`
	Collection   string `json:"collection,omitempty"`
	BrandID      *uint  `json:"brand_id,omitempty"`
	Brand        string `json:"brand,omitempty"`
}

func toProductView(p catalog.Product) productView {
	v := productView{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		Description:  p.Description,
		UnitPrice:    p.UnitPrice.StringFixed(2),
		Inventory:    p.Inventory,
		CollectionID: p.CollectionID,
		BrandID:      p.BrandID,
	}
	if p.Collection != nil {
		v.Collection = p.Collection.Title
	}
	if p.Brand != nil {
		v.Brand = p.Brand.Name
	}
	return v
}

type lineView struct {
	ProductID uint   `json:"product_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type cartView struct {
	CartID     uint       `json:"cart_id"`
	Status     string     `json:"status"`
	Lines      []lineView `json:"lines"`
	TotalItems int        `json:"total_items"`
	Subtotal   string     `json:"subtotal"`
}

func toCartView(s *cart.Summary) cartView {
	v := cartView{
		CartID:     s.CartID,
		Status:     string(s.Status),
		Lines:      make([]lineView, 0, len(s.Lines)),
		TotalItems: s.TotalItems,
		Subtotal:   s.Subtotal.StringFixed(2),
	}
	for _, l := range s.Lines {
		v.Lines = append(v.Lines, lineView{
			ProductID: l.Product.ID,
			Title:     l.Product.Title,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			LineTotal: l.LineTotal.StringFixed(2),
		})
	}
	return v
}

type guestCartView struct {
	SessionID  string     `json:"session_id"`
	Version    int64      `json:"version"`
	Lines      []lineView `json:"lines"`
	TotalItems int        `json:"total_items"`
	Subtotal   string     `json:"subtotal"`
}

// toGuestCartView prices a snapshot at current catalog prices. Lines for deleted products are dropped.
func toGuestCartView(s *guestcart.Snapshot, products map[uint]catalog.Product) guestCartView {
	v := guestCartView{
		SessionID: s.SessionID,
		Version:   s.Version,
		Lines:     make([]lineView, 0, len(s.Lines)),
	}
	subtotal := decimal.Zero
	for _, l := range s.Lines {
		p, ok := products[l.ProductID]
		if !ok {
			continue
		}
		total := p.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		v.Lines = append(v.Lines, lineView{
			ProductID: p.ID,
			Title:     p.Title,
			Quantity:  l.Quantity,
			UnitPrice: p.UnitPrice.StringFixed(2),
			LineTotal: total.StringFixed(2),
		})
		v.TotalItems += l.Quantity
		subtotal = subtotal.Add(total)
	}
	v.Subtotal = subtotal.StringFixed(2)
	return v
}

type addressView struct {
	FullName   string     `json:"full_name"`
	Phone      string     `json:"phone"`
	Country    string     `json:"country"`
	City       string     `json:"city"`
	Area       string     `json:"area,omitempty"`
	Street     string     `json:"street"`
	Building   string     `json:"building,omitempty"`
	Apartment  string     `json:"apartment,omitempty"`
	PostalCode string     `json:"postal_code,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

func toAddressView(a *checkout.ShippingAddress) *addressView {
	if a == nil {
		return nil
	}
	return &addressView{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Country:    a.Country,
		City:       a.City,
		Area:       a.Area,
		Street:     a.Street,
		Building:   a.Building,
		Apartment:  a.Apartment,
		PostalCode: a.PostalCode,
		Notes:      a.Notes,
		ReviewedAt: a.ReviewedAt,
	}
}

type orderView struct {
	ID            uint       `json:"id"`
	PaymentStatus string     `json:"payment_status"`
	PlacedAt      time.Time  `json:"placed_at"`
	CustomerID    uint       `json:"customer_id"`
	CartID        uint       `json:"cart_id"`
	Items         []lineView `json:"items"`
	Total         string     `json:"total"`
}

func toOrderView(o *orders.Order) orderView {
	v := orderView{
		ID:            o.ID,
		PaymentStatus: o.PaymentStatus.String(),
		PlacedAt:      o.PlacedAt.UTC(),
		CustomerID:    o.CustomerID,
		CartID:        o.CartID,
		Items:         make([]lineView, 0, len(o.Items)),
		Total:         o.Total().StringFixed(2),
	}
	for _, it := range o.Items {
		lv := lineView{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
			LineTotal: it.LineTotal().StringFixed(2),
		}
		if it.Product != nil {
			lv.Title = it.Product.Title
		}
		v.Items = append(v.Items, lv)
	}
	return v
}
