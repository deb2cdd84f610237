package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrNotFound = errors.New("stock: flavor not found")

// Requirement: kebutuhan unit per flavor utk satu intent (qty pack × unit per pack).
type Requirement struct {
	FlavorID string `json:"flavor_id"`
	Qty      int    `json:"qty"`
}

type Shortage struct {
	FlavorID  string `json:"flavor_id"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

// InsufficientError: pre-check stok gagal; detail dibawa supaya caller bisa render pesan.
type InsufficientError struct {
	Shortages []Shortage
}

func (e *InsufficientError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s required=%d available=%d", s.FlavorID, s.Required, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// Ledger: counter stok per flavor. Semua mutasi harus atomik per flavor
// (tidak ada lost update saat cart concurrent di flavor yg sama).
type Ledger interface {
	// Available = on_hand - reserved - safety_stock.
	Available(ctx context.Context, flavorID string) (int, error)

	// ReserveAll: seluruh requirement dalam SATU transaksi; kalau ada yg kurang,
	// tidak ada perubahan sama sekali dan kembalikan *InsufficientError lengkap.
	ReserveAll(ctx context.Context, reqs []Requirement) error

	// ReleaseAll: kebalikan ReserveAll. Clamp di 0 (double-release tidak boleh
	// bikin reserved negatif) dan flavor yg sudah hilang dianggap sudah ter-release.
	ReleaseAll(ctx context.Context, reqs []Requirement) error
}

// Merge menggabungkan requirement utk flavor yg sama dan mengurutkan by id.
// Urutan terurut dipakai sebagai urutan lock supaya tidak deadlock antar transaksi.
func Merge(reqs []Requirement) []Requirement {
	byID := map[string]int{}
	for _, r := range reqs {
		byID[r.FlavorID] += r.Qty
	}
	out := make([]Requirement, 0, len(byID))
	for id, q := range byID {
		out = append(out, Requirement{FlavorID: id, Qty: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FlavorID < out[j].FlavorID })
	return out
}
