package stock

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PG struct{ DB *pgxpool.Pool }

func (l *PG) Available(ctx context.Context, flavorID string) (int, error) {
	var avail int
	err := l.DB.QueryRow(ctx, `SELECT on_hand - reserved - safety_stock
	                           FROM flavors WHERE id=$1`, flavorID).Scan(&avail)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return avail, err
}

// ReserveAll: lock tiap flavor (FOR UPDATE, urut by id) -> cek available -> naikkan reserved.
// Kalau ada kekurangan di salah satu flavor, tidak ada perubahan yg di-commit (rollback).
func (l *PG) ReserveAll(ctx context.Context, reqs []Requirement) error {
	reqs = Merge(reqs)

	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var shortages []Shortage
	for _, r := range reqs {
		var avail int
		err := tx.QueryRow(ctx, `SELECT on_hand - reserved - safety_stock
		                         FROM flavors WHERE id=$1 FOR UPDATE`, r.FlavorID).Scan(&avail)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if avail < r.Qty {
			shortages = append(shortages, Shortage{FlavorID: r.FlavorID, Required: r.Qty, Available: avail})
			continue
		}
		if _, err := tx.Exec(ctx, `UPDATE flavors SET reserved = reserved + $2, updated_at = now()
		                           WHERE id=$1`, r.FlavorID, r.Qty); err != nil {
			return err
		}
	}

	if len(shortages) > 0 {
		return &InsufficientError{Shortages: shortages} // rollback via defer
	}
	return tx.Commit(ctx)
}

// ReleaseAll: reserved turun dgn clamp di 0. Row yg tidak ada di-skip diam-diam
// (flavor sudah dihapus berarti reservation-nya sudah tidak relevan).
func (l *PG) ReleaseAll(ctx context.Context, reqs []Requirement) error {
	reqs = Merge(reqs)

	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, r := range reqs {
		if _, err := tx.Exec(ctx, `UPDATE flavors SET reserved = GREATEST(reserved - $2, 0), updated_at = now()
		                           WHERE id=$1`, r.FlavorID, r.Qty); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// CommitTx: penurunan on_hand + reserved sekaligus ("sale completed", satu arah).
// Sengaja menerima tx milik caller: flip payment_status order dan decrement stok
// harus satu transaksi supaya at-most-once (lihat internal/orders).
func CommitTx(ctx context.Context, tx pgx.Tx, reqs []Requirement) error {
	for _, r := range Merge(reqs) {
		if _, err := tx.Exec(ctx, `
			UPDATE flavors
			SET on_hand = GREATEST(on_hand - $2, 0),
			    reserved = GREATEST(reserved - $2, 0),
			    updated_at = now()
			WHERE id=$1`, r.FlavorID, r.Qty); err != nil {
			return err
		}
	}
	return nil
}
