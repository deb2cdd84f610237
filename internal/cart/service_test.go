package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ariefcatur/go-pack-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-pack-storefront.git/internal/reservation"
	"github.com/ariefcatur/go-pack-storefront.git/internal/stock"
)

const owner = "guest:11111111-1111-1111-1111-111111111111"

func newTestService(t *testing.T) (*Service, *stock.Memory) {
	t.Helper()
	ctx := context.Background()
	cat := catalog.NewMemory()
	for _, id := range []string{"vanilla", "choco", "matcha"} {
		if err := cat.CreateFlavor(ctx, catalog.Flavor{ID: id, Name: id, Active: true}); err != nil {
			t.Fatal(err)
		}
	}
	if err := cat.CreateRecipe(ctx, catalog.Recipe{
		ID: "classic", Name: "Classic Trio", Active: true, PriceCents: 2500,
		Items: []catalog.RecipeItem{{FlavorID: "vanilla", Qty: 2}, {FlavorID: "choco", Qty: 1}},
	}); err != nil {
		t.Fatal(err)
	}

	ledger := stock.NewMemory()
	ledger.Put("vanilla", 50, 0, 0)
	ledger.Put("choco", 50, 0, 0)
	ledger.Put("matcha", 50, 0, 0)

	svc := &Service{
		Store:                NewMemory(),
		Engine:               &reservation.Engine{Catalog: cat, Ledger: ledger},
		Catalog:              cat,
		CustomPackPriceCents: 2700,
	}
	return svc, ledger
}

func reservedOf(t *testing.T, ledger *stock.Memory, flavorID string) int {
	t.Helper()
	_, reserved, _, ok := ledger.Counter(flavorID)
	if !ok {
		t.Fatalf("counter %s missing", flavorID)
	}
	return reserved
}

func TestAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a line and reserves stock", func(t *testing.T) {
		svc, ledger := newTestService(t)
		l, err := svc.Add(ctx, owner, reservation.Intent{RecipeID: "classic", Qty: 2}, "")
		if err != nil {
			t.Fatal(err)
		}
		if l.SKU != "RCP-classic" || l.Qty != 2 || l.UnitPriceCents != 2500 {
			t.Fatalf("line = %+v", l)
		}
		if got := reservedOf(t, ledger, "vanilla"); got != 4 {
			t.Errorf("vanilla reserved = %d, want 4", got)
		}
	})

	t.Run("same composition merges into one line", func(t *testing.T) {
		svc, ledger := newTestService(t)
		in := reservation.Intent{FlavorIDs: []string{"vanilla", "choco", "matcha"}, Qty: 1}
		if _, err := svc.Add(ctx, owner, in, "My Pack"); err != nil {
			t.Fatal(err)
		}
		// urutan flavor beda, komposisi sama
		in2 := reservation.Intent{FlavorIDs: []string{"matcha", "vanilla", "choco"}, Qty: 2}
		l, err := svc.Add(ctx, owner, in2, "My Pack")
		if err != nil {
			t.Fatal(err)
		}
		if l.Qty != 3 {
			t.Fatalf("merged qty = %d, want 3", l.Qty)
		}
		lines, _ := svc.Lines(ctx, owner)
		if len(lines) != 1 {
			t.Fatalf("lines = %d, want 1", len(lines))
		}
		if got := reservedOf(t, ledger, "vanilla"); got != 3 {
			t.Errorf("vanilla reserved = %d, want 3", got)
		}
	})

	t.Run("custom pack uses the flat price", func(t *testing.T) {
		svc, _ := newTestService(t)
		l, err := svc.Add(ctx, owner, reservation.Intent{FlavorIDs: []string{"vanilla", "choco", "matcha"}, Qty: 1}, "Trio")
		if err != nil {
			t.Fatal(err)
		}
		if l.UnitPriceCents != 2700 {
			t.Fatalf("unit price = %d, want 2700", l.UnitPriceCents)
		}
	})

	t.Run("insufficient stock adds nothing", func(t *testing.T) {
		svc, ledger := newTestService(t)
		ledger.Put("choco", 1, 0, 0)
		_, err := svc.Add(ctx, owner, reservation.Intent{RecipeID: "classic", Qty: 2}, "")
		var insuff *stock.InsufficientError
		if !errors.As(err, &insuff) {
			t.Fatalf("got %v, want InsufficientError", err)
		}
		if lines, _ := svc.Lines(ctx, owner); len(lines) != 0 {
			t.Fatalf("lines = %d, want 0", len(lines))
		}
		if got := reservedOf(t, ledger, "vanilla"); got != 0 {
			t.Errorf("vanilla reserved = %d, want 0", got)
		}
	})
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("adjusts reservation by the delta", func(t *testing.T) {
		svc, ledger := newTestService(t)
		l, err := svc.Add(ctx, owner, reservation.Intent{RecipeID: "classic", Qty: 1}, "")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := svc.UpdateQuantity(ctx, owner, l.ID, 3); err != nil {
			t.Fatal(err)
		}
		if got := reservedOf(t, ledger, "vanilla"); got != 6 {
			t.Errorf("vanilla reserved after raise = %d, want 6", got)
		}
		if _, err := svc.UpdateQuantity(ctx, owner, l.ID, 2); err != nil {
			t.Fatal(err)
		}
		if got := reservedOf(t, ledger, "vanilla"); got != 4 {
			t.Errorf("vanilla reserved after lower = %d, want 4", got)
		}
	})

	t.Run("qty below one is rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		l, err := svc.Add(ctx, owner, reservation.Intent{RecipeID: "classic", Qty: 1}, "")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := svc.UpdateQuantity(ctx, owner, l.ID, 0); !errors.Is(err, ErrInvalidQty) {
			t.Fatalf("got %v, want ErrInvalidQty", err)
		}
	})

	t.Run("failed store write rolls the reservation back", func(t *testing.T) {
		svc, ledger := newTestService(t)
		l, err := svc.Add(ctx, owner, reservation.Intent{RecipeID: "classic", Qty: 1}, "")
		if err != nil {
			t.Fatal(err)
		}
		svc.Store = &failingUpdateStore{Store: svc.Store}

		if _, err := svc.UpdateQuantity(ctx, owner, l.ID, 5); err == nil {
			t.Fatal("want error from store")
		}
		// reserved balik ke nilai sebelum adjust, tetap = qty line yg tersimpan
		if got := reservedOf(t, ledger, "vanilla"); got != 2 {
			t.Errorf("vanilla reserved = %d, want 2", got)
		}
		lines, _ := svc.Lines(ctx, owner)
		if len(lines) != 1 || lines[0].Qty != 1 {
			t.Fatalf("lines = %+v, want one line with qty 1", lines)
		}
	})

	t.Run("line of another owner is not found", func(t *testing.T) {
		svc, _ := newTestService(t)
		l, err := svc.Add(ctx, owner, reservation.Intent{RecipeID: "classic", Qty: 1}, "")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := svc.UpdateQuantity(ctx, "user:someone-else", l.ID, 2); !errors.Is(err, ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newTestService(t)
	l, err := svc.Add(ctx, owner, reservation.Intent{FlavorIDs: []string{"vanilla", "choco", "matcha"}, Qty: 2}, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Remove(ctx, owner, l.ID); err != nil {
		t.Fatal(err)
	}
	if lines, _ := svc.Lines(ctx, owner); len(lines) != 0 {
		t.Fatalf("lines = %d, want 0", len(lines))
	}
	for _, id := range []string{"vanilla", "choco", "matcha"} {
		if got := reservedOf(t, ledger, id); got != 0 {
			t.Errorf("%s reserved = %d, want 0", id, got)
		}
	}

	if err := svc.Remove(ctx, owner, l.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second remove: got %v, want ErrNotFound", err)
	}
}

// failingUpdateStore: UpdateQty selalu gagal, operasi lain diteruskan.
type failingUpdateStore struct {
	Store
}

func (f *failingUpdateStore) UpdateQty(ctx context.Context, ownerKey, lineID string, qty int) error {
	return fmt.Errorf("update qty: connection reset")
}

// failingLedger: gagal release utk satu flavor tertentu, sisanya diteruskan.
type failingLedger struct {
	*stock.Memory
	failFlavor string
}

func (f *failingLedger) ReleaseAll(ctx context.Context, reqs []stock.Requirement) error {
	for _, r := range reqs {
		if r.FlavorID == f.failFlavor {
			return fmt.Errorf("flavor %s unavailable", r.FlavorID)
		}
	}
	return f.Memory.ReleaseAll(ctx, reqs)
}

func TestClear(t *testing.T) {
	ctx := context.Background()

	t.Run("releases every line and empties the cart", func(t *testing.T) {
		svc, ledger := newTestService(t)
		if _, err := svc.Add(ctx, owner, reservation.Intent{RecipeID: "classic", Qty: 1}, ""); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Add(ctx, owner, reservation.Intent{FlavorIDs: []string{"vanilla", "choco", "matcha"}, Qty: 1}, ""); err != nil {
			t.Fatal(err)
		}
		if warnings := svc.Clear(ctx, owner); len(warnings) != 0 {
			t.Fatalf("warnings = %v", warnings)
		}
		if lines, _ := svc.Lines(ctx, owner); len(lines) != 0 {
			t.Fatalf("lines = %d, want 0", len(lines))
		}
		for _, id := range []string{"vanilla", "choco", "matcha"} {
			if got := reservedOf(t, ledger, id); got != 0 {
				t.Errorf("%s reserved = %d, want 0", id, got)
			}
		}
	})

	t.Run("a failing release does not stop the rest", func(t *testing.T) {
		svc, ledger := newTestService(t)
		if _, err := svc.Add(ctx, owner, reservation.Intent{RecipeID: "classic", Qty: 1}, ""); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Add(ctx, owner, reservation.Intent{FlavorIDs: []string{"vanilla", "choco", "matcha"}, Qty: 1}, ""); err != nil {
			t.Fatal(err)
		}
		// line custom pack (mengandung matcha) gagal release, line recipe tetap lewat
		svc.Engine.Ledger = &failingLedger{Memory: ledger, failFlavor: "matcha"}

		warnings := svc.Clear(ctx, owner)
		if len(warnings) != 1 {
			t.Fatalf("warnings = %v, want exactly one", warnings)
		}
		if lines, _ := svc.Lines(ctx, owner); len(lines) != 0 {
			t.Fatalf("lines = %d, want 0 even with a failed release", len(lines))
		}
		// line recipe (vanilla 2, choco 1) sempat ter-release; sisa reserved
		// milik line yg gagal
		if got := reservedOf(t, ledger, "vanilla"); got != 1 {
			t.Errorf("vanilla reserved = %d, want 1", got)
		}
	})
}

func TestConsume(t *testing.T) {
	ctx := context.Background()

	t.Run("frozen lines are removed without release", func(t *testing.T) {
		svc, ledger := newTestService(t)
		if _, err := svc.Add(ctx, owner, reservation.Intent{RecipeID: "classic", Qty: 2}, ""); err != nil {
			t.Fatal(err)
		}
		if err := svc.Consume(ctx, owner, map[string]int{SKUForRecipe("classic"): 2}); err != nil {
			t.Fatal(err)
		}
		if lines, _ := svc.Lines(ctx, owner); len(lines) != 0 {
			t.Fatalf("lines = %d, want 0", len(lines))
		}
		// reservation TIDAK dilepas: kepemilikannya pindah ke order
		if got := reservedOf(t, ledger, "vanilla"); got != 4 {
			t.Errorf("vanilla reserved = %d, want 4", got)
		}
	})

	t.Run("line added after the freeze stays with its reservation", func(t *testing.T) {
		svc, ledger := newTestService(t)
		if _, err := svc.Add(ctx, owner, reservation.Intent{FlavorIDs: []string{"vanilla", "choco", "matcha"}, Qty: 1}, ""); err != nil {
			t.Fatal(err)
		}
		frozen := map[string]int{SKUForPack([]string{"vanilla", "choco", "matcha"}): 1}
		// line kedua ditambah SETELAH checkout; bukan bagian order
		if _, err := svc.Add(ctx, owner, reservation.Intent{RecipeID: "classic", Qty: 1}, ""); err != nil {
			t.Fatal(err)
		}

		if err := svc.Consume(ctx, owner, frozen); err != nil {
			t.Fatal(err)
		}
		lines, _ := svc.Lines(ctx, owner)
		if len(lines) != 1 || lines[0].SKU != SKUForRecipe("classic") {
			t.Fatalf("lines = %+v, want only the later classic line", lines)
		}
		// reserved = pack beku (1) + line classic yg masih hidup (2)
		if got := reservedOf(t, ledger, "vanilla"); got != 3 {
			t.Errorf("vanilla reserved = %d, want 3", got)
		}
		if got := reservedOf(t, ledger, "matcha"); got != 1 {
			t.Errorf("matcha reserved = %d, want 1", got)
		}
	})

	t.Run("qty raised after the freeze releases the surplus", func(t *testing.T) {
		svc, ledger := newTestService(t)
		l, err := svc.Add(ctx, owner, reservation.Intent{FlavorIDs: []string{"vanilla", "choco", "matcha"}, Qty: 1}, "")
		if err != nil {
			t.Fatal(err)
		}
		frozen := map[string]int{l.SKU: 1}
		if _, err := svc.UpdateQuantity(ctx, owner, l.ID, 3); err != nil {
			t.Fatal(err)
		}

		if err := svc.Consume(ctx, owner, frozen); err != nil {
			t.Fatal(err)
		}
		if lines, _ := svc.Lines(ctx, owner); len(lines) != 0 {
			t.Fatalf("lines = %d, want 0", len(lines))
		}
		// 2 unit surplus dilepas, 1 unit beku tetap di-reserve utk order
		if got := reservedOf(t, ledger, "vanilla"); got != 1 {
			t.Errorf("vanilla reserved = %d, want 1", got)
		}
	})

	t.Run("frozen line already removed is skipped", func(t *testing.T) {
		svc, _ := newTestService(t)
		if err := svc.Consume(ctx, owner, map[string]int{SKUForRecipe("classic"): 1}); err != nil {
			t.Fatal(err)
		}
	})
}
