package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seed(t *testing.T, db *gorm.DB) (Collection, []Product) {
	t.Helper()
	col := Collection{Title: "Shoes"}
	if err := db.Create(&col).Error; err != nil {
		t.Fatalf("create collection: %v", err)
	}
	other := Collection{Title: "Hats"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("create collection: %v", err)
	}
	products := []Product{
		{Title: "Trail Runner", UnitPrice: decimal.RequireFromString("89.90"), Inventory: 3, CollectionID: col.ID},
		{Title: "Road Runner", UnitPrice: decimal.RequireFromString("79.00"), Inventory: 5, CollectionID: col.ID},
		{Title: "Sun Hat", UnitPrice: decimal.RequireFromString("15.50"), Inventory: 1, CollectionID: other.ID},
	}
	if err := db.Create(&products).Error; err != nil {
		t.Fatalf("create products: %v", err)
	}
	return col, products
}

func TestList_FilterAndOrder(t *testing.T) {
	db := newTestDB(t)
	col, products := seed(t, db)
	s := NewStore(db)
	ctx := context.Background()

	all, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != products[2].ID {
		t.Fatalf("expected newest first, got %+v", all)
	}

	runners, err := s.List(ctx, Filter{Query: "  RUNNER "})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runners) != 2 {
		t.Fatalf("expected 2 runners, got %d", len(runners))
	}

	inCol, err := s.List(ctx, Filter{CollectionID: col.ID, Query: "trail"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(inCol) != 1 || inCol[0].Title != "Trail Runner" {
		t.Fatalf("unexpected result %+v", inCol)
	}
}

func TestList_QueryWildcardsMatchLiterally(t *testing.T) {
	db := newTestDB(t)
	col, _ := seed(t, db)
	s := NewStore(db)
	ctx := context.Background()
	for _, title := range []string{"50% Off Cap", "Bucket_Hat"} {
		p := Product{Title: title, UnitPrice: decimal.RequireFromString("9.00"), CollectionID: col.ID}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("create product: %v", err)
		}
	}

	cases := []struct {
		query string
		want  int
	}{
		{"_", 1},
		{"%", 1},
		{"t_h", 1},
		{"t h", 0},
		{`\`, 0},
	}
	for _, tc := range cases {
		got, err := s.List(ctx, Filter{Query: tc.query})
		if err != nil {
			t.Fatalf("list %q: %v", tc.query, err)
		}
		if len(got) != tc.want {
			t.Fatalf("query %q: expected %d products, got %d", tc.query, tc.want, len(got))
		}
	}
}

func TestGet(t *testing.T) {
	db := newTestDB(t)
	_, products := seed(t, db)
	s := NewStore(db)

	p, err := s.Get(context.Background(), products[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !p.UnitPrice.Equal(decimal.RequireFromString("89.90")) {
		t.Fatalf("price mismatch: %s", p.UnitPrice)
	}
	if p.Collection == nil || p.Collection.Title != "Shoes" {
		t.Fatalf("collection not preloaded: %+v", p.Collection)
	}

	if _, err := s.Get(context.Background(), 999); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestUpdate_StaffOnly(t *testing.T) {
	db := newTestDB(t)
	_, products := seed(t, db)
	s := NewStore(db)
	ctx := context.Background()

	price := decimal.RequireFromString("99.99")
	title := "Trail Runner II"
	if _, err := s.Update(ctx, false, products[0].ID, ProductPatch{UnitPrice: &price}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	p, err := s.Update(ctx, true, products[0].ID, ProductPatch{UnitPrice: &price, Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.Title != title || !p.UnitPrice.Equal(price) {
		t.Fatalf("update not applied: %+v", p)
	}

	neg := decimal.RequireFromString("-1")
	if _, err := s.Update(ctx, true, products[0].ID, ProductPatch{UnitPrice: &neg}); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := s.Update(ctx, true, 999, ProductPatch{Title: &title}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCollections(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	cols, err := NewStore(db).Collections(context.Background())
	if err != nil {
		t.Fatalf("collections: %v", err)
	}
	if len(cols) != 2 || cols[0].Title != "Hats" {
		t.Fatalf("unexpected collections %+v", cols)
	}
}

func TestByIDs(t *testing.T) {
	db := newTestDB(t)
	_, products := seed(t, db)
	s := NewStore(db)

	got, err := s.ByIDs(context.Background(), []uint{products[0].ID, products[2].ID, 9999})
	if err != nil {
		t.Fatalf("ByIDs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}
	if got[products[2].ID].Title != "Sun Hat" {
		t.Fatalf("unexpected product: %+v", got[products[2].ID])
	}

	empty, err := s.ByIDs(context.Background(), nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty map, got %v %v", empty, err)
	}
}
