package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-pack-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-pack-storefront.git/internal/stock"
)

var ErrInvalidIntent = errors.New("reservation: invalid intent")

// Intent: isi salah satu — RecipeID (komposisi baku) atau FlavorIDs (custom pack,
// tepat 3 flavor berbeda). Qty = jumlah pack.
type Intent struct {
	RecipeID  string
	FlavorIDs []string
	Qty       int
}

type Engine struct {
	Catalog catalog.Store
	Ledger  stock.Ledger
}

// Requirements: validasi aturan bisnis lalu expand intent ke kebutuhan unit per flavor.
// Dipakai jalur reserve; jalur release pakai expand longgar (lihat expandLoose).
func (e *Engine) Requirements(ctx context.Context, in Intent) ([]stock.Requirement, error) {
	if in.Qty < 1 {
		return nil, fmt.Errorf("%w: qty must be >= 1", ErrInvalidIntent)
	}
	switch {
	case in.RecipeID != "" && len(in.FlavorIDs) > 0:
		return nil, fmt.Errorf("%w: recipe and flavor set are mutually exclusive", ErrInvalidIntent)

	case in.RecipeID != "":
		r, err := e.Catalog.Recipe(ctx, in.RecipeID)
		if err != nil {
			return nil, err
		}
		if !r.Active {
			return nil, fmt.Errorf("%w: recipe %s inactive", ErrInvalidIntent, r.ID)
		}
		if r.UnitTotal() != catalog.PackSize {
			return nil, fmt.Errorf("%w: recipe %s totals %d units, want %d", ErrInvalidIntent, r.ID, r.UnitTotal(), catalog.PackSize)
		}
		reqs := make([]stock.Requirement, 0, len(r.Items))
		for _, it := range r.Items {
			reqs = append(reqs, stock.Requirement{FlavorID: it.FlavorID, Qty: it.Qty * in.Qty})
		}
		return stock.Merge(reqs), nil

	case len(in.FlavorIDs) > 0:
		if len(in.FlavorIDs) != catalog.PackSize {
			return nil, fmt.Errorf("%w: custom pack needs exactly %d flavors, got %d", ErrInvalidIntent, catalog.PackSize, len(in.FlavorIDs))
		}
		seen := map[string]bool{}
		for _, id := range in.FlavorIDs {
			if seen[id] {
				return nil, fmt.Errorf("%w: duplicate flavor %s", ErrInvalidIntent, id)
			}
			seen[id] = true
		}
		flavors, err := e.Catalog.Flavors(ctx, in.FlavorIDs)
		if err != nil {
			return nil, err
		}
		reqs := make([]stock.Requirement, 0, catalog.PackSize)
		for _, id := range in.FlavorIDs {
			f, ok := flavors[id]
			if !ok {
				return nil, fmt.Errorf("flavor %s: %w", id, catalog.ErrNotFound)
			}
			if !f.Active {
				return nil, fmt.Errorf("%w: flavor %s inactive", ErrInvalidIntent, id)
			}
			reqs = append(reqs, stock.Requirement{FlavorID: id, Qty: in.Qty})
		}
		return stock.Merge(reqs), nil

	default:
		return nil, fmt.Errorf("%w: need recipe or flavor set", ErrInvalidIntent)
	}
}

// Reserve: pre-check dulu semua flavor (jalur tolak umum tanpa mutasi sama sekali),
// baru ReserveAll yg atomik. ReserveAll tetap re-check di dalam lock; pre-check
// cuma biar penolakan murah & detailnya lengkap.
func (e *Engine) Reserve(ctx context.Context, in Intent) error {
	reqs, err := e.Requirements(ctx, in)
	if err != nil {
		return err
	}
	var shortages []stock.Shortage
	for _, r := range reqs {
		avail, err := e.Ledger.Available(ctx, r.FlavorID)
		if err != nil {
			return err
		}
		if avail < r.Qty {
			shortages = append(shortages, stock.Shortage{FlavorID: r.FlavorID, Required: r.Qty, Available: avail})
		}
	}
	if len(shortages) > 0 {
		return &stock.InsufficientError{Shortages: shortages}
	}
	return e.Ledger.ReserveAll(ctx, reqs)
}

// Release: cermin Reserve, tanpa validasi active (line lama harus tetap bisa
// di-release walau flavor/recipe-nya sudah dimatikan).
func (e *Engine) Release(ctx context.Context, in Intent) error {
	reqs, err := e.expandLoose(ctx, in)
	if err != nil {
		return err
	}
	return e.Ledger.ReleaseAll(ctx, reqs)
}

// AdjustQuantity: delta > 0 berlaku seperti Reserve parsial, delta < 0 Release parsial.
func (e *Engine) AdjustQuantity(ctx context.Context, in Intent, oldQty, newQty int) error {
	if newQty < 1 {
		return fmt.Errorf("%w: qty must be >= 1", ErrInvalidIntent)
	}
	delta := newQty - oldQty
	switch {
	case delta > 0:
		in.Qty = delta
		return e.Reserve(ctx, in)
	case delta < 0:
		in.Qty = -delta
		return e.Release(ctx, in)
	default:
		return nil
	}
}

func (e *Engine) expandLoose(ctx context.Context, in Intent) ([]stock.Requirement, error) {
	if in.Qty < 1 {
		return nil, fmt.Errorf("%w: qty must be >= 1", ErrInvalidIntent)
	}
	if in.RecipeID != "" {
		r, err := e.Catalog.Recipe(ctx, in.RecipeID)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, nil // recipe hilang = tidak ada yg bisa di-release
		}
		if err != nil {
			return nil, err
		}
		reqs := make([]stock.Requirement, 0, len(r.Items))
		for _, it := range r.Items {
			reqs = append(reqs, stock.Requirement{FlavorID: it.FlavorID, Qty: it.Qty * in.Qty})
		}
		return stock.Merge(reqs), nil
	}
	reqs := make([]stock.Requirement, 0, len(in.FlavorIDs))
	for _, id := range in.FlavorIDs {
		reqs = append(reqs, stock.Requirement{FlavorID: id, Qty: in.Qty})
	}
	return stock.Merge(reqs), nil
}
