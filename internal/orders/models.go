package orders

import (
	"time"

	"github.com/ariefcatur/go-pack-storefront.git/internal/stock"
)

// Order: identitas immutable setelah dibuat. Owner = UserID ATAU GuestID+GuestEmail,
// tidak pernah dua-duanya.
type Order struct {
	ID         string
	UserID     string
	GuestID    string
	GuestEmail string

	Status        Status        // lifecycle fulfillment, dikelola admin
	PaymentStatus PaymentStatus // lifecycle pembayaran, dikelola gateway

	TotalCents     int
	GatewayRef     string // correlation id sesi/event gateway
	ShippingRateID string
	TrackingNumber string
	TrackingURL    string
	LabelCostCents int

	CreatedAt time.Time
	UpdatedAt time.Time
	Items     []Item
}

type Item struct {
	ID         string
	OrderID    string
	RecipeID   string   // kosong utk custom pack
	PackName   string   // nama custom pack, opsional
	FlavorIDs  []string // daftar flavor (custom pack)
	Qty        int
	PriceCents int

	// Requirements: kebutuhan unit per flavor, di-expand saat order dibuat.
	// Commit stok membaca dari sini, tidak perlu lookup recipe lagi.
	Requirements []stock.Requirement
}

// Requirements: gabungan kebutuhan seluruh item; inilah yg di-commit saat paid.
func (o Order) Requirements() []stock.Requirement {
	var reqs []stock.Requirement
	for _, it := range o.Items {
		reqs = append(reqs, it.Requirements...)
	}
	return stock.Merge(reqs)
}
