package orders

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-pack-storefront.git/internal/stock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PG struct{ DB *pgxpool.Pool }

func (s *PG) Get(ctx context.Context, id string) (Order, error) {
	var o Order
	err := s.DB.QueryRow(ctx, `
		SELECT id, user_id, guest_id, guest_email, status, payment_status, total_cents,
		       gateway_ref, shipping_rate_id, tracking_number, tracking_url, label_cost_cents,
		       created_at, updated_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.UserID, &o.GuestID, &o.GuestEmail, &o.Status, &o.PaymentStatus, &o.TotalCents,
			&o.GatewayRef, &o.ShippingRateID, &o.TrackingNumber, &o.TrackingURL, &o.LabelCostCents,
			&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}

	rows, err := s.DB.Query(ctx, `
		SELECT id, order_id, recipe_id, pack_name, flavor_ids, qty, price_cents
		FROM order_items WHERE order_id=$1 ORDER BY id`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.RecipeID, &it.PackName, &it.FlavorIDs, &it.Qty, &it.PriceCents); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Order{}, err
	}

	for i := range o.Items {
		reqs, err := s.itemRequirements(ctx, s.DB, o.Items[i].ID)
		if err != nil {
			return Order{}, err
		}
		o.Items[i].Requirements = reqs
	}
	return o, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *PG) itemRequirements(ctx context.Context, q querier, itemID string) ([]stock.Requirement, error) {
	rows, err := q.Query(ctx, `SELECT flavor_id, units FROM order_item_flavors WHERE order_item_id=$1 ORDER BY flavor_id`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reqs []stock.Requirement
	for rows.Next() {
		var r stock.Requirement
		if err := rows.Scan(&r.FlavorID, &r.Qty); err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

func (s *PG) CreateAwaitingPayment(ctx context.Context, o Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertOrder(ctx, tx, o, StatusPending, PaymentPending); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CreatePaidFromSnapshot: insert paid/confirmed + commit stok, SATU transaksi.
func (s *PG) CreatePaidFromSnapshot(ctx context.Context, o Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertOrder(ctx, tx, o, StatusConfirmed, PaymentPaid); err != nil {
		return err
	}
	if err := stock.CommitTx(ctx, tx, o.Requirements()); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertOrder(ctx context.Context, tx pgx.Tx, o Order, st Status, ps PaymentStatus) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, guest_id, guest_email, status, payment_status,
		                   total_cents, gateway_ref, shipping_rate_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		o.ID, o.UserID, o.GuestID, o.GuestEmail, st, ps, o.TotalCents, o.GatewayRef, o.ShippingRateID); err != nil {
		return err
	}
	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, recipe_id, pack_name, flavor_ids, qty, price_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			it.ID, o.ID, it.RecipeID, it.PackName, it.FlavorIDs, it.Qty, it.PriceCents); err != nil {
			return err
		}
		for _, r := range it.Requirements {
			if _, err := tx.Exec(ctx, `
				INSERT INTO order_item_flavors(order_item_id, flavor_id, units)
				VALUES ($1,$2,$3)`, it.ID, r.FlavorID, r.Qty); err != nil {
				return err
			}
		}
	}
	return nil
}

// MarkPaidAndCommit: guard idempotency + commit stok + flip status dalam satu
// transaksi. Lock row order dulu; event webhook yg sama datang dua kali akan
// membaca payment_status=paid dan berhenti di guard tanpa mutasi apa pun.
func (s *PG) MarkPaidAndCommit(ctx context.Context, orderID, payerEmail string) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var ps PaymentStatus
	err = tx.QueryRow(ctx, `SELECT payment_status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&ps)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if ps == PaymentPaid {
		return ErrAlreadyCommitted
	}
	if !CanTransitionPayment(ps, PaymentPaid) {
		return ErrConflict
	}

	rows, err := tx.Query(ctx, `
		SELECT oif.flavor_id, oif.units
		FROM order_item_flavors oif
		JOIN order_items oi ON oi.id = oif.order_item_id
		WHERE oi.order_id=$1`, orderID)
	if err != nil {
		return err
	}
	var reqs []stock.Requirement
	for rows.Next() {
		var r stock.Requirement
		if err := rows.Scan(&r.FlavorID, &r.Qty); err != nil {
			rows.Close()
			return err
		}
		reqs = append(reqs, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if err := stock.CommitTx(ctx, tx, reqs); err != nil {
		return err
	}

	// status fulfillment cuma boleh maju pending -> confirmed dari jalur ini
	if _, err := tx.Exec(ctx, `
		UPDATE orders
		SET payment_status = 'paid',
		    status = CASE WHEN status = 'pending' THEN 'confirmed' ELSE status END,
		    guest_email = CASE WHEN guest_id <> '' AND guest_email = '' THEN $2 ELSE guest_email END,
		    updated_at = now()
		WHERE id=$1`, orderID, payerEmail); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PG) MarkPaymentFailed(ctx context.Context, orderID string) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var ps PaymentStatus
	err = tx.QueryRow(ctx, `SELECT payment_status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&ps)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !CanTransitionPayment(ps, PaymentFailed) {
		return ErrConflict
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET payment_status='failed', updated_at=now() WHERE id=$1`, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PG) UpdateStatus(ctx context.Context, orderID string, to Status) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !CanTransition(cur, to) {
		return ErrConflict
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, to); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PG) SetShipment(ctx context.Context, orderID, trackingNumber, trackingURL string, labelCostCents int) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE orders SET tracking_number=$2, tracking_url=$3, label_cost_cents=$4, updated_at=now()
		WHERE id=$1`, orderID, trackingNumber, trackingURL, labelCostCents)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
