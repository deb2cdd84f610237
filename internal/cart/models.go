package cart

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("cart: line not found")
	ErrInvalidQty = errors.New("cart: qty must be >= 1")
)

// Line: satu baris cart milik tepat satu owner key (user atau guest, tidak dua-duanya).
// UnitPriceCents di-snapshot saat add.
type Line struct {
	ID             string
	OwnerKey       string
	SKU            string
	RecipeID       string   // kosong utk custom pack
	FlavorIDs      []string // terisi utk custom pack
	PackName       string   // nama custom pack, opsional
	Qty            int
	UnitPriceCents int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (l Line) SubtotalCents() int { return l.Qty * l.UnitPriceCents }

// SKUForRecipe / SKUForPack: natural key per (product, komposisi). Flavor id
// diurutkan supaya dua request dgn urutan beda tetap merge ke line yg sama.
func SKUForRecipe(recipeID string) string { return "RCP-" + recipeID }

func SKUForPack(flavorIDs []string) string {
	ids := append([]string(nil), flavorIDs...)
	sort.Strings(ids)
	return "PACK-" + strings.Join(ids, "+")
}

type Store interface {
	Lines(ctx context.Context, ownerKey string) ([]Line, error)
	Line(ctx context.Context, ownerKey, lineID string) (Line, error)
	BySKU(ctx context.Context, ownerKey, sku string) (Line, error)
	Insert(ctx context.Context, l Line) error
	UpdateQty(ctx context.Context, ownerKey, lineID string, qty int) error
	Delete(ctx context.Context, ownerKey, lineID string) error
	DeleteAll(ctx context.Context, ownerKey string) error
}
