package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotEditable is returned when a cart is missing or no longer OPENED.
var ErrNotEditable = errors.New("cart is not editable")

// openedCartIndex keeps a single OPENED cart per user. Frozen carts are not constrained.
const openedCartIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_one_opened_per_user ON carts (user_id) WHERE status = 'OPENED'`

// Store encapsulates cart persistence.
type Store struct {
	db      *gorm.DB
	nowFunc func() time.Time
}

// NewStore returns a cart Store bound to db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, nowFunc: time.Now}
}

// Migrate creates the cart tables and the partial unique index. The catalog
// tables must already exist.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Cart{}, &CartItem{}); err != nil {
		return err
	}
	return db.Exec(openedCartIndex).Error
}

// Resolve returns the user's OPENED cart, creating it on first use.
func (s *Store) Resolve(ctx context.Context, userID uint) (*Cart, error) {
	db := s.db.WithContext(ctx)

	c, err := findOpened(db, userID)
	if err != nil || c != nil {
		return c, err
	}

	c = &Cart{UserID: userID, Status: StatusOpened}
	if err := db.Create(c).Error; err != nil {
		// a concurrent first request won the unique index; use its cart
		existing, ferr := findOpened(db, userID)
		if ferr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create cart for user %d: %w", userID, err)
	}
	return c, nil
}

// Add puts qty of product on the cart, merging into an existing line. qty is clamped to >= 1.
func (s *Store) Add(ctx context.Context, c *Cart, productID uint, qty int) error {
	if qty < 1 {
		qty = 1
	}
	return s.mutate(ctx, c, func(tx *gorm.DB) error {
		if err := requireProduct(tx, productID); err != nil {
			return err
		}
		return addQuantity(tx, c.ID, productID, qty)
	})
}

// LineInput is one product quantity applied by AddLines.
type LineInput struct {
	ProductID uint
	Quantity  int
}

// AddLines adds every line to the cart in one transaction and returns how many were applied.
// Lines for products that no longer exist are skipped. claim, when set, runs last inside the
// transaction and an error from it rolls every line back.
func (s *Store) AddLines(ctx context.Context, c *Cart, lines []LineInput, claim func() error) (int, error) {
	if c == nil {
		return 0, ErrNotEditable
	}
	applied := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied = 0
		if _, err := LockOpened(tx, c.ID); err != nil {
			return err
		}
		for _, l := range lines {
			qty := l.Quantity
			if qty < 1 {
				qty = 1
			}
			err := requireProduct(tx, l.ProductID)
			if errors.Is(err, catalog.ErrProductNotFound) {
				log.Printf("[cart] skip missing product=%d cart=%d", l.ProductID, c.ID)
				continue
			}
			if err != nil {
				return err
			}
			if err := addQuantity(tx, c.ID, l.ProductID, qty); err != nil {
				return fmt.Errorf("add product %d: %w", l.ProductID, err)
			}
			applied++
		}
		if err := tx.Model(&Cart{}).Where("id = ?", c.ID).UpdateColumn("updated_at", s.nowFunc()).Error; err != nil {
			return err
		}
		if claim != nil {
			return claim()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

// Increment raises a line by one. A missing line is created at quantity 1.
func (s *Store) Increment(ctx context.Context, c *Cart, productID uint) error {
	return s.mutate(ctx, c, func(tx *gorm.DB) error {
		if err := requireProduct(tx, productID); err != nil {
			return err
		}
		return addQuantity(tx, c.ID, productID, 1)
	})
}

// Decrement lowers a line by one and deletes it when it reaches zero. A missing line is a no-op.
func (s *Store) Decrement(ctx context.Context, c *Cart, productID uint) error {
	return s.mutate(ctx, c, func(tx *gorm.DB) error {
		item, err := lockLine(tx, c.ID, productID)
		if err != nil || item == nil {
			return err
		}
		if item.Quantity <= 1 {
			return tx.Delete(&CartItem{}, item.ID).Error
		}
		return tx.Model(&CartItem{}).
			Where("id = ?", item.ID).
			Update("quantity", gorm.Expr("quantity - ?", 1)).Error
	})
}

// Remove deletes the product's line if present.
func (s *Store) Remove(ctx context.Context, c *Cart, productID uint) error {
	return s.mutate(ctx, c, func(tx *gorm.DB) error {
		return tx.Where("cart_id = ? AND product_id = ?", c.ID, productID).Delete(&CartItem{}).Error
	})
}

// Clear deletes every line on the cart.
func (s *Store) Clear(ctx context.Context, c *Cart) error {
	return s.mutate(ctx, c, func(tx *gorm.DB) error {
		return tx.Where("cart_id = ?", c.ID).Delete(&CartItem{}).Error
	})
}

// Summary prices the cart against the current catalog.
func (s *Store) Summary(ctx context.Context, c *Cart) (*Summary, error) {
	items, err := Lines(s.db.WithContext(ctx), c.ID)
	if err != nil {
		return nil, err
	}
	sum := Summarize(c, items)
	return &sum, nil
}

// ItemCount is the sum of quantities across the cart's lines.
func (s *Store) ItemCount(ctx context.Context, c *Cart) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&CartItem{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("cart_id = ?", c.ID).
		Row().Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count cart %d: %w", c.ID, err)
	}
	return int(n), nil
}

// LockOpened loads and row-locks an OPENED cart inside tx.
func LockOpened(tx *gorm.DB, cartID uint) (*Cart, error) {
	var c Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND status = ?", cartID, StatusOpened).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotEditable
	}
	if err != nil {
		return nil, fmt.Errorf("lock cart %d: %w", cartID, err)
	}
	return &c, nil
}

// Lines loads a cart's items with their products, in insertion order.
func Lines(db *gorm.DB, cartID uint) ([]CartItem, error) {
	var items []CartItem
	if err := db.Preload("Product").Where("cart_id = ?", cartID).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load lines for cart %d: %w", cartID, err)
	}
	return items, nil
}

// Freeze flips an OPENED cart to FROZEN, writing only the status column.
func Freeze(tx *gorm.DB, cartID uint) error {
	res := tx.Model(&Cart{}).
		Where("id = ? AND status = ?", cartID, StatusOpened).
		UpdateColumn("status", StatusFrozen)
	if res.Error != nil {
		return fmt.Errorf("freeze cart %d: %w", cartID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotEditable
	}
	return nil
}

// Summarize prices items at each product's current unit price.
func Summarize(c *Cart, items []CartItem) Summary {
	sum := Summary{CartID: c.ID, Status: c.Status, Subtotal: decimal.Zero}
	for _, it := range items {
		var p catalog.Product
		if it.Product != nil {
			p = *it.Product
		}
		total := p.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		sum.Lines = append(sum.Lines, Line{
			ItemID:    it.ID,
			Product:   p,
			Quantity:  it.Quantity,
			UnitPrice: p.UnitPrice,
			LineTotal: total,
		})
		sum.TotalItems += it.Quantity
		sum.Subtotal = sum.Subtotal.Add(total)
	}
	return sum
}

// mutate runs fn in a transaction holding the row lock on the OPENED cart.
func (s *Store) mutate(ctx context.Context, c *Cart, fn func(tx *gorm.DB) error) error {
	if c == nil {
		return ErrNotEditable
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := LockOpened(tx, c.ID); err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			return err
		}
		return tx.Model(&Cart{}).Where("id = ?", c.ID).UpdateColumn("updated_at", s.nowFunc()).Error
	})
}

func findOpened(db *gorm.DB, userID uint) (*Cart, error) {
	var c Cart
	err := db.Where("user_id = ? AND status = ?", userID, StatusOpened).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find opened cart for user %d: %w", userID, err)
	}
	return &c, nil
}

func requireProduct(tx *gorm.DB, productID uint) error {
	var n int64
	if err := tx.Model(&catalog.Product{}).Where("id = ?", productID).Count(&n).Error; err != nil {
		return fmt.Errorf("check product %d: %w", productID, err)
	}
	if n == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// lockLine row-locks the line for (cart, product). Returns nil when absent.
func lockLine(tx *gorm.DB, cartID, productID uint) (*CartItem, error) {
	var item CartItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock line: %w", err)
	}
	return &item, nil
}

func addQuantity(tx *gorm.DB, cartID, productID uint, qty int) error {
	item, err := lockLine(tx, cartID, productID)
	if err != nil {
		return err
	}
	if item != nil {
		return tx.Model(&CartItem{}).
			Where("id = ?", item.ID).
			Update("quantity", gorm.Expr("quantity + ?", qty)).Error
	}
	return tx.Create(&CartItem{CartID: cartID, ProductID: productID, Quantity: qty}).Error
}
