package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imrishuroy/go-storefront/internal/catalog"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrStatusMismatch means the conditional payment transition did not match the current status.
	ErrStatusMismatch = errors.New("status mismatch/conditional failed")
	// ErrCustomerConflict means the email already belongs to a customer linked to another user.
	ErrCustomerConflict = errors.New("customer email belongs to another user")
)

// Store encapsulates operations on orders and customers.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new orders Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates customers, orders and order_items. Catalog tables must exist.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Customer{}, &Order{}, &OrderItem{})
}

// Get fetches an order with its items and customer.
func (s *Store) Get(ctx context.Context, orderID uint) (*Order, error) {
	return s.get(s.db.WithContext(ctx), orderID)
}

// GetForUser fetches an order only if it was placed by userID.
func (s *Store) GetForUser(ctx context.Context, userID, orderID uint) (*Order, error) {
	return s.get(s.db.WithContext(ctx).Where("user_id = ?", userID), orderID)
}

// ListForUser returns the user's orders, most recent first.
func (s *Store) ListForUser(ctx context.Context, userID uint) ([]Order, error) {
	var out []Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("placed_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list orders for user %d: %w", userID, err)
	}
	return out, nil
}

func (s *Store) get(q *gorm.DB, orderID uint) (*Order, error) {
	var o Order
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Product").
		Preload("Customer").
		First(&o, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	return &o, nil
}

// UpdatePaymentStatus conditionally moves the payment status from expected to next.
// Returns ErrStatusMismatch if the order is not currently in expected.
func (s *Store) UpdatePaymentStatus(ctx context.Context, orderID uint, expected, next PaymentStatus) error {
	res := s.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND payment_status = ?", orderID, expected).
		UpdateColumn("payment_status", next)
	if res.Error != nil {
		return fmt.Errorf("update payment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return s.missingOr(ctx, orderID, ErrStatusMismatch)
	}
	return nil
}

// ApplyInventory decrements product inventory for every item of the order,
// exactly once. It returns false when the order was already applied.
// Inventory is not checked and may go negative.
func (s *Store) ApplyInventory(ctx context.Context, orderID uint) (bool, error) {
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Order{}).
			Where("id = ? AND inventory_applied = ?", orderID, false).
			UpdateColumn("inventory_applied", true)
		if res.Error != nil {
			return fmt.Errorf("flag inventory applied: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&Order{}).Where("id = ?", orderID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrOrderNotFound
			}
			return nil
		}

		var items []OrderItem
		if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
			return fmt.Errorf("load order items: %w", err)
		}
		for _, it := range items {
			err := tx.Model(&catalog.Product{}).
				Where("id = ?", it.ProductID).
				UpdateColumn("inventory", gorm.Expr("inventory - ?", it.Quantity)).Error
			if err != nil {
				return fmt.Errorf("decrement inventory for product %d: %w", it.ProductID, err)
			}
		}
		applied = true
		return nil
	})
	return applied, err
}

func (s *Store) missingOr(ctx context.Context, orderID uint, otherwise error) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Order{}).Where("id = ?", orderID).Count(&n).Error; err != nil {
		return fmt.Errorf("check order %d: %w", orderID, err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return otherwise
}

// FindOrCreateCustomer resolves the customer for d.UserID inside tx: first by
// linked user, then by email (linking it), otherwise a new row from d.
func FindOrCreateCustomer(tx *gorm.DB, d CustomerDefaults) (*Customer, error) {
	var c Customer
	err := tx.Where("user_id = ?", d.UserID).Take(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find customer by user: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(d.Email))
	if email == "" {
		email = fmt.Sprintf("user-%d@customers.invalid", d.UserID)
	}

	err = tx.Where("email = ?", email).Take(&c).Error
	switch {
	case err == nil:
		if c.UserID != nil && *c.UserID != d.UserID {
			return nil, ErrCustomerConflict
		}
		uid := d.UserID
		if err := tx.Model(&c).UpdateColumn("user_id", uid).Error; err != nil {
			return nil, fmt.Errorf("link customer %d: %w", c.ID, err)
		}
		c.UserID = &uid
		return &c, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("find customer by email: %w", err)
	}

	uid := d.UserID
	c = Customer{
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     email,
		Phone:     d.Phone,
		UserID:    &uid,
	}
	if err := tx.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return &c, nil
}
