package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/cart"
	"github.com/imrishuroy/go-storefront/internal/orders"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrAddressRequired means the cart has no saved shipping address yet.
	ErrAddressRequired = errors.New("shipping address required")
	// ErrEmptyCart means there is nothing to place.
	ErrEmptyCart = errors.New("cart is empty")
)

// Migrate creates shipping_addresses. Cart tables must exist.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&ShippingAddress{})
}

// Service runs the checkout flow over the cart, orders and address tables.
type Service struct {
	db        *gorm.DB
	publisher *aws.Publisher
	metrics   *aws.Metrics
	nowFunc   func() time.Time
}

// NewService wires a checkout Service. publisher and metrics may be nil.
func NewService(db *gorm.DB, publisher *aws.Publisher, metrics *aws.Metrics) *Service {
	return &Service{db: db, publisher: publisher, metrics: metrics, nowFunc: time.Now}
}

// SaveAddress upserts the address of an OPENED cart.
func (s *Service) SaveAddress(ctx context.Context, id auth.Identity, c *cart.Cart, in AddressInput) (*ShippingAddress, error) {
	if c == nil {
		return nil, cart.ErrNotEditable
	}
	var addr ShippingAddress
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := cart.LockOpened(tx, c.ID); err != nil {
			return err
		}
		err := tx.Where("cart_id = ?", c.ID).Take(&addr).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load address: %w", err)
		}
		addr.CartID = c.ID
		addr.UserID = id.UserID
		addr.FullName = in.FullName
		addr.Phone = in.Phone
		addr.Country = in.Country
		addr.City = in.City
		addr.Area = in.Area
		addr.Street = in.Street
		addr.Building = in.Building
		addr.Apartment = in.Apartment
		addr.PostalCode = in.PostalCode
		addr.Notes = in.Notes
		addr.ReviewedAt = nil
		if err := tx.Save(&addr).Error; err != nil {
			return fmt.Errorf("save address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// Address returns the saved address for a cart.
func (s *Service) Address(ctx context.Context, c *cart.Cart) (*ShippingAddress, error) {
	return findAddress(s.db.WithContext(ctx), c.ID)
}

// Preview returns the saved address with the freshly priced cart without changing state.
func (s *Service) Preview(ctx context.Context, c *cart.Cart) (*Review, error) {
	db := s.db.WithContext(ctx)
	addr, err := findAddress(db, c.ID)
	if err != nil {
		return nil, err
	}
	items, err := cart.Lines(db, c.ID)
	if err != nil {
		return nil, err
	}
	return &Review{Summary: cart.Summarize(c, items), Address: *addr}, nil
}

// Review marks the address as reviewed and returns it with the freshly priced cart.
func (s *Service) Review(ctx context.Context, c *cart.Cart) (*Review, error) {
	var out Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := cart.LockOpened(tx, c.ID); err != nil {
			return err
		}
		addr, err := findAddress(tx, c.ID)
		if err != nil {
			return err
		}
		items, err := cart.Lines(tx, c.ID)
		if err != nil {
			return err
		}
		now := s.nowFunc()
		if err := tx.Model(addr).UpdateColumn("reviewed_at", now).Error; err != nil {
			return fmt.Errorf("mark reviewed: %w", err)
		}
		addr.ReviewedAt = &now
		out = Review{Summary: cart.Summarize(c, items), Address: *addr}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// State reports where c is in the checkout flow.
func (s *Service) State(ctx context.Context, c *cart.Cart) (State, error) {
	if c.Status == cart.StatusFrozen {
		return StatePlaced, nil
	}
	addr, err := s.Address(ctx, c)
	if errors.Is(err, ErrAddressRequired) {
		return StateNeedsAddress, nil
	}
	if err != nil {
		return "", err
	}
	if addr.ReviewedAt != nil {
		return StateReviewed, nil
	}
	return StateAddressCaptured, nil
}

// PlaceOrder turns the OPENED cart into an order in one transaction and freezes the cart.
// Unit prices are copied from the product rows read inside the transaction.
func (s *Service) PlaceOrder(ctx context.Context, id auth.Identity, c *cart.Cart) (*orders.Order, error) {
	if c == nil {
		return nil, cart.ErrNotEditable
	}
	var order orders.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := cart.LockOpened(tx, c.ID); err != nil {
			return err
		}
		addr, err := findAddress(tx, c.ID)
		if err != nil {
			return err
		}
		items, err := lockedLines(tx, c.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		customer, err := orders.FindOrCreateCustomer(tx, orders.CustomerDefaults{
			UserID:    id.UserID,
			FirstName: id.FirstName,
			LastName:  id.LastName,
			Email:     id.Email,
			Phone:     addr.Phone,
		})
		if err != nil {
			return err
		}

		order = orders.Order{
			PaymentStatus: orders.PaymentPending,
			PlacedAt:      s.nowFunc(),
			CustomerID:    customer.ID,
			UserID:        id.UserID,
			CartID:        c.ID,
		}
		for _, it := range items {
			order.Items = append(order.Items, orders.OrderItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.Product.UnitPrice,
			})
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for i := range order.Items {
			order.Items[i].Product = items[i].Product
		}
		order.Customer = customer

		return cart.Freeze(tx, c.ID)
	})
	if err != nil {
		s.countFailure(ctx, err)
		return nil, err
	}

	c.Status = cart.StatusFrozen
	log.Printf("[checkout] placed order=%d cart=%d user=%d total=%s", order.ID, c.ID, id.UserID, order.Total().StringFixed(2))
	s.afterCommit(ctx, &order)
	return &order, nil
}

// afterCommit publishes the order event and metrics. Failures are logged only.
func (s *Service) afterCommit(ctx context.Context, o *orders.Order) {
	evt := aws.OrderEvent{
		Type:          aws.EventOrderPlaced,
		OrderID:       o.ID,
		CartID:        o.CartID,
		CustomerID:    o.CustomerID,
		UserID:        o.UserID,
		Total:         o.Total().StringFixed(2),
		PlacedAt:      o.PlacedAt,
		CorrelationID: uuid.NewString(),
	}
	if err := s.publisher.PublishOrderEvent(ctx, evt); err != nil {
		log.Printf("[checkout] publish order=%d failed: %v", o.ID, err)
	}

	units := 0
	for _, it := range o.Items {
		units += it.Quantity
	}
	total, _ := o.Total().Float64()
	err := s.metrics.Put(ctx,
		aws.Count(aws.MetricOrdersPlaced, 1),
		aws.Datum{Name: aws.MetricOrderValue, Value: total},
		aws.Count(aws.MetricOrderItems, float64(units)),
	)
	if err != nil {
		log.Printf("[checkout] metrics order=%d failed: %v", o.ID, err)
	}
}

func (s *Service) countFailure(ctx context.Context, cause error) {
	if errors.Is(cause, ErrEmptyCart) || errors.Is(cause, ErrAddressRequired) || errors.Is(cause, cart.ErrNotEditable) {
		return
	}
	log.Printf("[checkout] place order failed: %v", cause)
	if err := s.metrics.Put(ctx, aws.Count(aws.MetricCheckoutFailed, 1)); err != nil {
		log.Printf("[checkout] metrics failed: %v", err)
	}
}

func findAddress(db *gorm.DB, cartID uint) (*ShippingAddress, error) {
	var addr ShippingAddress
	err := db.Where("cart_id = ?", cartID).Take(&addr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAddressRequired
	}
	if err != nil {
		return nil, fmt.Errorf("load address for cart %d: %w", cartID, err)
	}
	return &addr, nil
}

// lockedLines loads the cart lines with their product rows locked so prices cannot move mid-placement.
func lockedLines(tx *gorm.DB, cartID uint) ([]cart.CartItem, error) {
	var items []cart.CartItem
	err := tx.Preload("Product", func(db *gorm.DB) *gorm.DB {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}).Where("cart_id = ?", cartID).Order("id").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("load lines for cart %d: %w", cartID, err)
	}
	for _, it := range items {
		if it.Product == nil {
			return nil, fmt.Errorf("cart %d line %d: product %d missing", cartID, it.ID, it.ProductID)
		}
	}
	return items, nil
}
