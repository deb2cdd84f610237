package checkout

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ariefcatur/go-pack-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-pack-storefront.git/internal/stock"
)

// Snapshot: daftar item beku + total yg dititipkan ke gateway sebagai metadata.
// Jembatan antara cart (mutable, pre-payment) dan Order (immutable, post-payment).
// Baru jadi Order saat webhook paid datang; attempt yg gagal/abandoned tidak
// pernah meninggalkan row order.
type Snapshot struct {
	SnapshotID    string         `json:"snapshot_id"`
	OwnerKey      string         `json:"owner_key"`
	Guest         bool           `json:"guest"`
	GuestEmail    string         `json:"guest_email,omitempty"`
	Items         []SnapshotItem `json:"items"`
	ShippingCents int            `json:"shipping_cents,omitempty"`
	TotalCents    int            `json:"total_cents"`
	RateID        string         `json:"rate_id,omitempty"`
	CapturedAt    time.Time      `json:"captured_at"`
}

type SnapshotItem struct {
	Name         string              `json:"name"`
	RecipeID     string              `json:"recipe_id,omitempty"`
	PackName     string              `json:"pack_name,omitempty"`
	FlavorIDs    []string            `json:"flavor_ids,omitempty"`
	Qty          int                 `json:"qty"`
	PriceCents   int                 `json:"price_cents"`
	Requirements []stock.Requirement `json:"requirements"`
}

// Validate dipanggil saat deserialize: payload dari metadata gateway tidak
// dipercaya bentuknya begitu saja.
func (s Snapshot) Validate() error {
	if s.SnapshotID == "" {
		return fmt.Errorf("snapshot: missing snapshot_id")
	}
	if s.OwnerKey == "" {
		return fmt.Errorf("snapshot: missing owner_key")
	}
	if len(s.Items) == 0 {
		return fmt.Errorf("snapshot: no items")
	}
	subtotal := 0
	for i, it := range s.Items {
		if it.Qty < 1 {
			return fmt.Errorf("snapshot: item %d qty < 1", i)
		}
		if it.PriceCents < 0 {
			return fmt.Errorf("snapshot: item %d negative price", i)
		}
		if it.RecipeID == "" && len(it.FlavorIDs) != catalog.PackSize {
			return fmt.Errorf("snapshot: item %d needs recipe or %d flavors", i, catalog.PackSize)
		}
		if it.RecipeID != "" && len(it.FlavorIDs) > 0 {
			return fmt.Errorf("snapshot: item %d has both recipe and flavors", i)
		}
		if len(it.Requirements) == 0 {
			return fmt.Errorf("snapshot: item %d missing requirements", i)
		}
		for _, r := range it.Requirements {
			if r.FlavorID == "" || r.Qty < 1 {
				return fmt.Errorf("snapshot: item %d bad requirement", i)
			}
		}
		subtotal += it.Qty * it.PriceCents
	}
	if s.TotalCents != subtotal+s.ShippingCents {
		return fmt.Errorf("snapshot: total %d != subtotal %d + shipping %d", s.TotalCents, subtotal, s.ShippingCents)
	}
	return nil
}

func (s Snapshot) Marshal() string {
	b, _ := json.Marshal(s)
	return string(b)
}

func ParseSnapshot(raw string) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
