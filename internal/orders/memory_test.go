package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/ariefcatur/go-pack-storefront.git/internal/stock"
)

func seedOrder() Order {
	return Order{
		ID:         "ord-1",
		GuestID:    "g-1",
		TotalCents: 2700,
		Items: []Item{{
			ID: "item-1", OrderID: "ord-1",
			FlavorIDs: []string{"vanilla", "choco", "matcha"},
			Qty:       2, PriceCents: 2700,
			Requirements: []stock.Requirement{
				{FlavorID: "vanilla", Qty: 2},
				{FlavorID: "choco", Qty: 2},
				{FlavorID: "matcha", Qty: 2},
			},
		}},
	}
}

func TestMarkPaidAndCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("commits stock exactly once", func(t *testing.T) {
		ledger := stock.NewMemory()
		ledger.Put("vanilla", 10, 2, 0)
		ledger.Put("choco", 10, 2, 0)
		ledger.Put("matcha", 10, 2, 0)
		m := NewMemory(ledger)
		if err := m.CreateAwaitingPayment(ctx, seedOrder()); err != nil {
			t.Fatal(err)
		}

		if err := m.MarkPaidAndCommit(ctx, "ord-1", "payer@example.com"); err != nil {
			t.Fatal(err)
		}
		o, _ := m.Get(ctx, "ord-1")
		if o.PaymentStatus != PaymentPaid || o.Status != StatusConfirmed {
			t.Fatalf("status = %s/%s, want confirmed/paid", o.Status, o.PaymentStatus)
		}
		if o.GuestEmail != "payer@example.com" {
			t.Errorf("guest email = %q", o.GuestEmail)
		}
		onHand, reserved, _, _ := ledger.Counter("vanilla")
		if onHand != 8 || reserved != 0 {
			t.Fatalf("vanilla on_hand=%d reserved=%d, want 8, 0", onHand, reserved)
		}

		// pengiriman webhook ganda: commit kedua harus ditolak dan ledger tidak bergerak
		if err := m.MarkPaidAndCommit(ctx, "ord-1", "payer@example.com"); !errors.Is(err, ErrAlreadyCommitted) {
			t.Fatalf("second commit: got %v, want ErrAlreadyCommitted", err)
		}
		onHand, reserved, _, _ = ledger.Counter("vanilla")
		if onHand != 8 || reserved != 0 {
			t.Fatalf("vanilla after duplicate: on_hand=%d reserved=%d, want 8, 0", onHand, reserved)
		}
	})

	t.Run("failed payment can still be paid", func(t *testing.T) {
		ledger := stock.NewMemory()
		ledger.Put("vanilla", 10, 2, 0)
		ledger.Put("choco", 10, 2, 0)
		ledger.Put("matcha", 10, 2, 0)
		m := NewMemory(ledger)
		if err := m.CreateAwaitingPayment(ctx, seedOrder()); err != nil {
			t.Fatal(err)
		}
		if err := m.MarkPaymentFailed(ctx, "ord-1"); err != nil {
			t.Fatal(err)
		}
		if err := m.MarkPaidAndCommit(ctx, "ord-1", ""); err != nil {
			t.Fatal(err)
		}
		o, _ := m.Get(ctx, "ord-1")
		if o.PaymentStatus != PaymentPaid {
			t.Fatalf("payment status = %s, want paid", o.PaymentStatus)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		m := NewMemory(stock.NewMemory())
		if err := m.MarkPaidAndCommit(ctx, "ghost", ""); !errors.Is(err, ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(stock.NewMemory())
	if err := m.CreateAwaitingPayment(ctx, seedOrder()); err != nil {
		t.Fatal(err)
	}

	if err := m.UpdateStatus(ctx, "ord-1", StatusShipped); !errors.Is(err, ErrConflict) {
		t.Fatalf("pending->shipped: got %v, want ErrConflict", err)
	}
	if err := m.UpdateStatus(ctx, "ord-1", StatusConfirmed); err != nil {
		t.Fatal(err)
	}
	if err := m.UpdateStatus(ctx, "ord-1", StatusShipped); err != nil {
		t.Fatal(err)
	}
	o, _ := m.Get(ctx, "ord-1")
	if o.Status != StatusShipped {
		t.Fatalf("status = %s, want shipped", o.Status)
	}
}

func TestOrderRequirements(t *testing.T) {
	o := Order{Items: []Item{
		{Requirements: []stock.Requirement{{FlavorID: "vanilla", Qty: 2}, {FlavorID: "choco", Qty: 1}}},
		{Requirements: []stock.Requirement{{FlavorID: "vanilla", Qty: 1}}},
	}}
	reqs := o.Requirements()
	want := map[string]int{"vanilla": 3, "choco": 1}
	if len(reqs) != len(want) {
		t.Fatalf("got %d requirements, want %d", len(reqs), len(want))
	}
	for _, r := range reqs {
		if want[r.FlavorID] != r.Qty {
			t.Errorf("%s: got %d, want %d", r.FlavorID, r.Qty, want[r.FlavorID])
		}
	}
}
