package orders

import (
	"context"
	"sync"
	"time"

	"github.com/ariefcatur/go-pack-storefront.git/internal/stock"
)

// Memory: store in-memory utk test. Commit stok lewat ledger memory di bawah
// mutex store ini, meniru transaksi tunggal versi postgres.
type Memory struct {
	mu     sync.Mutex
	orders map[string]Order
	ledger *stock.Memory
}

func NewMemory(ledger *stock.Memory) *Memory {
	return &Memory{orders: map[string]Order{}, ledger: ledger}
}

func (m *Memory) Get(_ context.Context, id string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (m *Memory) CreateAwaitingPayment(_ context.Context, o Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.Status = StatusPending
	o.PaymentStatus = PaymentPending
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = o
	return nil
}

func (m *Memory) CreatePaidFromSnapshot(_ context.Context, o Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.Status = StatusConfirmed
	o.PaymentStatus = PaymentPaid
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = o
	m.ledger.CommitAll(o.Requirements())
	return nil
}

func (m *Memory) MarkPaidAndCommit(_ context.Context, orderID, payerEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	if o.PaymentStatus == PaymentPaid {
		return ErrAlreadyCommitted
	}
	if !CanTransitionPayment(o.PaymentStatus, PaymentPaid) {
		return ErrConflict
	}
	m.ledger.CommitAll(o.Requirements())
	o.PaymentStatus = PaymentPaid
	if o.Status == StatusPending {
		o.Status = StatusConfirmed
	}
	if o.GuestID != "" && o.GuestEmail == "" {
		o.GuestEmail = payerEmail
	}
	o.UpdatedAt = time.Now().UTC()
	m.orders[orderID] = o
	return nil
}

func (m *Memory) MarkPaymentFailed(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	if !CanTransitionPayment(o.PaymentStatus, PaymentFailed) {
		return ErrConflict
	}
	o.PaymentStatus = PaymentFailed
	o.UpdatedAt = time.Now().UTC()
	m.orders[orderID] = o
	return nil
}

func (m *Memory) UpdateStatus(_ context.Context, orderID string, to Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	if !CanTransition(o.Status, to) {
		return ErrConflict
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	m.orders[orderID] = o
	return nil
}

func (m *Memory) SetShipment(_ context.Context, orderID, trackingNumber, trackingURL string, labelCostCents int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.TrackingNumber = trackingNumber
	o.TrackingURL = trackingURL
	o.LabelCostCents = labelCostCents
	o.UpdatedAt = time.Now().UTC()
	m.orders[orderID] = o
	return nil
}
