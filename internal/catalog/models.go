package catalog

import (
	"errors"
	"time"
)

// PackSize: tiap pack selalu berisi 3 unit flavor (recipe maupun custom).
const PackSize = 3

var ErrNotFound = errors.New("catalog: not found")

type Flavor struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecipeItem: komposisi per 1 pack.
type RecipeItem struct {
	FlavorID string
	Qty      int
}

type Recipe struct {
	ID         string
	Name       string
	Active     bool
	PriceCents int
	Items      []RecipeItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UnitTotal: jumlah unit flavor per pack; harus = PackSize utk recipe valid.
func (r Recipe) UnitTotal() int {
	n := 0
	for _, it := range r.Items {
		n += it.Qty
	}
	return n
}
