package stock

import (
	"context"
	"sync"
)

type counter struct {
	onHand      int
	reserved    int
	safetyStock int
}

// Memory: ledger in-memory utk test & demo lokal. Satu mutex utk semua counter,
// jadi ReserveAll/ReleaseAll/CommitAll otomatis serial (linearizable).
type Memory struct {
	mu       sync.Mutex
	counters map[string]*counter
}

func NewMemory() *Memory {
	return &Memory{counters: map[string]*counter{}}
}

func (m *Memory) Put(flavorID string, onHand, reserved, safetyStock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[flavorID] = &counter{onHand: onHand, reserved: reserved, safetyStock: safetyStock}
}

// Counter: baca snapshot counter, dipakai test buat assert.
func (m *Memory) Counter(flavorID string) (onHand, reserved, safetyStock int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, found := m.counters[flavorID]
	if !found {
		return 0, 0, 0, false
	}
	return c.onHand, c.reserved, c.safetyStock, true
}

func (m *Memory) Available(_ context.Context, flavorID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counters[flavorID]
	if !ok {
		return 0, ErrNotFound
	}
	return c.onHand - c.reserved - c.safetyStock, nil
}

func (m *Memory) ReserveAll(_ context.Context, reqs []Requirement) error {
	reqs = Merge(reqs)
	m.mu.Lock()
	defer m.mu.Unlock()

	var shortages []Shortage
	for _, r := range reqs {
		c, ok := m.counters[r.FlavorID]
		if !ok {
			return ErrNotFound
		}
		avail := c.onHand - c.reserved - c.safetyStock
		if avail < r.Qty {
			shortages = append(shortages, Shortage{FlavorID: r.FlavorID, Required: r.Qty, Available: avail})
		}
	}
	if len(shortages) > 0 {
		return &InsufficientError{Shortages: shortages}
	}
	for _, r := range reqs {
		m.counters[r.FlavorID].reserved += r.Qty
	}
	return nil
}

func (m *Memory) ReleaseAll(_ context.Context, reqs []Requirement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range Merge(reqs) {
		c, ok := m.counters[r.FlavorID]
		if !ok {
			continue // sudah dihapus = sudah ter-release
		}
		c.reserved -= r.Qty
		if c.reserved < 0 {
			c.reserved = 0
		}
	}
	return nil
}

// CommitAll: padanan CommitTx utk store in-memory; dipanggil store orders
// in-memory di dalam "transaksi"-nya sendiri.
func (m *Memory) CommitAll(reqs []Requirement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range Merge(reqs) {
		c, ok := m.counters[r.FlavorID]
		if !ok {
			continue
		}
		c.onHand -= r.Qty
		if c.onHand < 0 {
			c.onHand = 0
		}
		c.reserved -= r.Qty
		if c.reserved < 0 {
			c.reserved = 0
		}
	}
}
