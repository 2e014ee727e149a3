package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrForbidden       = errors.New("staff only")
	ErrInvalidPrice    = errors.New("unit price must not be negative")
)

// likeEscaper makes a search term match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Store reads and edits catalog records.
type Store struct {
	db *gorm.DB
}

// NewStore returns a catalog Store bound to db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the catalog tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Promotion{}, &Collection{}, &Brand{}, &Product{})
}

// List returns products matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Product, error) {
	q := s.db.WithContext(ctx).Model(&Product{}).Order("id DESC")
	if term := strings.TrimSpace(f.Query); term != "" {
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(term))+"%")
	}
	if f.CollectionID != 0 {
		q = q.Where("collection_id = ?", f.CollectionID)
	}
	if f.BrandID != 0 {
		q = q.Where("brand_id = ?", f.BrandID)
	}

	var products []Product
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Get fetches one product with its collection, brand and promotions.
func (s *Store) Get(ctx context.Context, id uint) (*Product, error) {
	var p Product
	err := s.db.WithContext(ctx).
		Preload("Collection").
		Preload("Brand").
		Preload("Promotions").
		First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

// Update applies patch to product id. Only staff may edit.
func (s *Store) Update(ctx context.Context, staff bool, id uint, patch ProductPatch) (*Product, error) {
	if !staff {
		return nil, ErrForbidden
	}

	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.UnitPrice != nil {
		if patch.UnitPrice.IsNegative() {
			return nil, ErrInvalidPrice
		}
		updates["unit_price"] = patch.UnitPrice.Round(2)
	}
	if patch.Inventory != nil {
		updates["inventory"] = *patch.Inventory
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&Product{ID: id}).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("update product %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrProductNotFound
		}
	}
	return s.Get(ctx, id)
}

// Collections returns all collections ordered by title.
func (s *Store) Collections(ctx context.Context) ([]Collection, error) {
	var out []Collection
	if err := s.db.WithContext(ctx).Order("title").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return out, nil
}

// ByIDs loads the products in ids keyed by id. Unknown ids are absent from the map.
func (s *Store) ByIDs(ctx context.Context, ids []uint) (map[uint]Product, error) {
	out := make(map[uint]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}
