package reservation

import (
	"context"
	"errors"
	"testing"

	"github.com/ariefcatur/go-pack-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-pack-storefront.git/internal/stock"
)

func newTestEngine(t *testing.T) (*Engine, *stock.Memory) {
	t.Helper()
	ctx := context.Background()
	cat := catalog.NewMemory()
	for _, id := range []string{"vanilla", "choco", "matcha", "ube"} {
		if err := cat.CreateFlavor(ctx, catalog.Flavor{ID: id, Name: id, Active: true}); err != nil {
			t.Fatal(err)
		}
	}
	if err := cat.CreateFlavor(ctx, catalog.Flavor{ID: "durian", Name: "durian", Active: false}); err != nil {
		t.Fatal(err)
	}
	if err := cat.CreateRecipe(ctx, catalog.Recipe{
		ID: "classic", Name: "Classic Trio", Active: true, PriceCents: 2500,
		Items: []catalog.RecipeItem{{FlavorID: "vanilla", Qty: 2}, {FlavorID: "choco", Qty: 1}},
	}); err != nil {
		t.Fatal(err)
	}
	if err := cat.CreateRecipe(ctx, catalog.Recipe{
		ID: "retired", Name: "Retired", Active: false, PriceCents: 2500,
		Items: []catalog.RecipeItem{{FlavorID: "vanilla", Qty: 3}},
	}); err != nil {
		t.Fatal(err)
	}
	if err := cat.CreateRecipe(ctx, catalog.Recipe{
		ID: "lopsided", Name: "Lopsided", Active: true, PriceCents: 2500,
		Items: []catalog.RecipeItem{{FlavorID: "vanilla", Qty: 2}, {FlavorID: "choco", Qty: 2}},
	}); err != nil {
		t.Fatal(err)
	}

	ledger := stock.NewMemory()
	ledger.Put("vanilla", 20, 0, 0)
	ledger.Put("choco", 20, 0, 0)
	ledger.Put("matcha", 20, 0, 0)
	ledger.Put("ube", 20, 0, 0)
	return &Engine{Catalog: cat, Ledger: ledger}, ledger
}

func reservedOf(t *testing.T, ledger *stock.Memory, flavorID string) int {
	t.Helper()
	_, reserved, _, ok := ledger.Counter(flavorID)
	if !ok {
		t.Fatalf("counter %s missing", flavorID)
	}
	return reserved
}

func TestRequirements_Validation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		in      Intent
		wantErr error
	}{
		{"qty zero", Intent{FlavorIDs: []string{"vanilla", "choco", "matcha"}, Qty: 0}, ErrInvalidIntent},
		{"recipe and flavors both set", Intent{RecipeID: "classic", FlavorIDs: []string{"vanilla", "choco", "matcha"}, Qty: 1}, ErrInvalidIntent},
		{"neither recipe nor flavors", Intent{Qty: 1}, ErrInvalidIntent},
		{"two flavors", Intent{FlavorIDs: []string{"vanilla", "choco"}, Qty: 1}, ErrInvalidIntent},
		{"four flavors", Intent{FlavorIDs: []string{"vanilla", "choco", "matcha", "ube"}, Qty: 1}, ErrInvalidIntent},
		{"duplicate flavor", Intent{FlavorIDs: []string{"vanilla", "vanilla", "choco"}, Qty: 1}, ErrInvalidIntent},
		{"inactive flavor", Intent{FlavorIDs: []string{"vanilla", "choco", "durian"}, Qty: 1}, ErrInvalidIntent},
		{"unknown flavor", Intent{FlavorIDs: []string{"vanilla", "choco", "ghost"}, Qty: 1}, catalog.ErrNotFound},
		{"inactive recipe", Intent{RecipeID: "retired", Qty: 1}, ErrInvalidIntent},
		{"recipe not totalling a pack", Intent{RecipeID: "lopsided", Qty: 1}, ErrInvalidIntent},
		{"unknown recipe", Intent{RecipeID: "ghost", Qty: 1}, catalog.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Requirements(ctx, tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestRequirements_Expansion(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	t.Run("recipe expands per unit times qty", func(t *testing.T) {
		reqs, err := e.Requirements(ctx, Intent{RecipeID: "classic", Qty: 2})
		if err != nil {
			t.Fatal(err)
		}
		want := map[string]int{"vanilla": 4, "choco": 2}
		if len(reqs) != len(want) {
			t.Fatalf("got %d requirements, want %d", len(reqs), len(want))
		}
		for _, r := range reqs {
			if want[r.FlavorID] != r.Qty {
				t.Errorf("%s: got %d, want %d", r.FlavorID, r.Qty, want[r.FlavorID])
			}
		}
	})

	t.Run("custom pack expands one unit per flavor", func(t *testing.T) {
		reqs, err := e.Requirements(ctx, Intent{FlavorIDs: []string{"matcha", "vanilla", "choco"}, Qty: 3})
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range reqs {
			if r.Qty != 3 {
				t.Errorf("%s: got qty %d, want 3", r.FlavorID, r.Qty)
			}
		}
	})
}

func TestReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves all flavors of a recipe", func(t *testing.T) {
		e, ledger := newTestEngine(t)
		if err := e.Reserve(ctx, Intent{RecipeID: "classic", Qty: 2}); err != nil {
			t.Fatal(err)
		}
		if got := reservedOf(t, ledger, "vanilla"); got != 4 {
			t.Errorf("vanilla reserved = %d, want 4", got)
		}
		if got := reservedOf(t, ledger, "choco"); got != 2 {
			t.Errorf("choco reserved = %d, want 2", got)
		}
	})

	t.Run("insufficiency reports every short flavor and mutates nothing", func(t *testing.T) {
		e, ledger := newTestEngine(t)
		ledger.Put("vanilla", 2, 0, 0)
		ledger.Put("choco", 1, 0, 0)

		err := e.Reserve(ctx, Intent{FlavorIDs: []string{"vanilla", "choco", "matcha"}, Qty: 3})
		var insuff *stock.InsufficientError
		if !errors.As(err, &insuff) {
			t.Fatalf("got %v, want InsufficientError", err)
		}
		if len(insuff.Shortages) != 2 {
			t.Fatalf("shortages = %+v, want vanilla and choco", insuff.Shortages)
		}
		for _, id := range []string{"vanilla", "choco", "matcha"} {
			if got := reservedOf(t, ledger, id); got != 0 {
				t.Errorf("%s reserved = %d, want 0", id, got)
			}
		}
	})

	t.Run("invalid intent mutates nothing", func(t *testing.T) {
		e, ledger := newTestEngine(t)
		err := e.Reserve(ctx, Intent{FlavorIDs: []string{"vanilla", "choco", "durian"}, Qty: 1})
		if !errors.Is(err, ErrInvalidIntent) {
			t.Fatalf("got %v, want ErrInvalidIntent", err)
		}
		for _, id := range []string{"vanilla", "choco"} {
			if got := reservedOf(t, ledger, id); got != 0 {
				t.Errorf("%s reserved = %d, want 0", id, got)
			}
		}
	})
}

func TestRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("reserve then release restores the ledger", func(t *testing.T) {
		e, ledger := newTestEngine(t)
		in := Intent{FlavorIDs: []string{"vanilla", "choco", "matcha"}, Qty: 2}
		if err := e.Reserve(ctx, in); err != nil {
			t.Fatal(err)
		}
		if err := e.Release(ctx, in); err != nil {
			t.Fatal(err)
		}
		for _, id := range []string{"vanilla", "choco", "matcha"} {
			if got := reservedOf(t, ledger, id); got != 0 {
				t.Errorf("%s reserved = %d, want 0", id, got)
			}
		}
	})

	t.Run("releases lines whose flavor was deactivated", func(t *testing.T) {
		e, ledger := newTestEngine(t)
		in := Intent{FlavorIDs: []string{"vanilla", "choco", "matcha"}, Qty: 1}
		if err := e.Reserve(ctx, in); err != nil {
			t.Fatal(err)
		}
		if err := e.Catalog.DeactivateFlavor(ctx, "matcha"); err != nil {
			t.Fatal(err)
		}
		if err := e.Release(ctx, in); err != nil {
			t.Fatal(err)
		}
		if got := reservedOf(t, ledger, "matcha"); got != 0 {
			t.Errorf("matcha reserved = %d, want 0", got)
		}
	})

	t.Run("missing recipe is a no-op", func(t *testing.T) {
		e, _ := newTestEngine(t)
		if err := e.Release(ctx, Intent{RecipeID: "ghost", Qty: 1}); err != nil {
			t.Fatalf("got %v, want nil", err)
		}
	})
}

func TestAdjustQuantity(t *testing.T) {
	ctx := context.Background()
	e, ledger := newTestEngine(t)
	in := Intent{RecipeID: "classic", Qty: 1}
	if err := e.Reserve(ctx, in); err != nil {
		t.Fatal(err)
	}

	t.Run("raising qty reserves the delta", func(t *testing.T) {
		if err := e.AdjustQuantity(ctx, in, 1, 3); err != nil {
			t.Fatal(err)
		}
		if got := reservedOf(t, ledger, "vanilla"); got != 6 {
			t.Errorf("vanilla reserved = %d, want 6", got)
		}
	})

	t.Run("lowering qty releases the delta", func(t *testing.T) {
		if err := e.AdjustQuantity(ctx, in, 3, 1); err != nil {
			t.Fatal(err)
		}
		if got := reservedOf(t, ledger, "vanilla"); got != 2 {
			t.Errorf("vanilla reserved = %d, want 2", got)
		}
	})

	t.Run("zero qty is rejected", func(t *testing.T) {
		if err := e.AdjustQuantity(ctx, in, 1, 0); !errors.Is(err, ErrInvalidIntent) {
			t.Fatalf("got %v, want ErrInvalidIntent", err)
		}
	})
}
