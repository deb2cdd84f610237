package orders

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("orders: not found")

	// ErrAlreadyCommitted: guard idempotency kena — stok order ini sudah pernah
	// di-commit. Bukan error user; jalur no-op yg diharapkan saat webhook dikirim ulang.
	ErrAlreadyCommitted = errors.New("orders: stock already committed")

	// ErrConflict: transisi status ilegal, atau ada yg coba nulis payment status
	// dari luar gateway.
	ErrConflict = errors.New("orders: illegal status transition")
)

type Store interface {
	Get(ctx context.Context, id string) (Order, error)

	// CreateAwaitingPayment: order sinkron dari cart (pending/pending);
	// reservation cart-nya ikut pindah ke order.
	CreateAwaitingPayment(ctx context.Context, o Order) error

	// CreatePaidFromSnapshot: materialisasi order dari metadata gateway —
	// langsung lahir paid/confirmed DAN commit stok dalam satu transaksi.
	// Order tidak pernah dibuat lewat jalur ini dgn status lain.
	CreatePaidFromSnapshot(ctx context.Context, o Order) error

	// MarkPaidAndCommit: satu transaksi: guard payment_status belum paid,
	// decrement on_hand+reserved per flavor, flip paid + confirmed.
	// Duplikat delivery webhook mengembalikan ErrAlreadyCommitted tanpa mutasi.
	MarkPaidAndCommit(ctx context.Context, orderID, payerEmail string) error

	// MarkPaymentFailed: payment_status=failed, TANPA mutasi stok apa pun.
	MarkPaymentFailed(ctx context.Context, orderID string) error

	// UpdateStatus: jalur admin, fulfillment chain saja; payment status tidak
	// tersentuh dari sini.
	UpdateStatus(ctx context.Context, orderID string, to Status) error

	SetShipment(ctx context.Context, orderID, trackingNumber, trackingURL string, labelCostCents int) error
}
