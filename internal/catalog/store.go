package catalog

import "context"

type Store interface {
	Flavor(ctx context.Context, id string) (Flavor, error)
	// Flavors: ambil sekaligus; id yg tidak ada tidak muncul di map (bukan error).
	Flavors(ctx context.Context, ids []string) (map[string]Flavor, error)
	Recipe(ctx context.Context, id string) (Recipe, error)

	// CreateFlavor sekaligus inisialisasi counter stok nol (on_hand/reserved/safety_stock).
	CreateFlavor(ctx context.Context, f Flavor) error
	CreateRecipe(ctx context.Context, r Recipe) error
	// DeactivateFlavor: flavor tidak pernah dihapus selama masih direferensikan;
	// cukup dimatikan supaya tidak bisa dipesan lagi.
	DeactivateFlavor(ctx context.Context, id string) error
}
