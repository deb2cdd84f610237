package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PG struct{ DB *pgxpool.Pool }

const lineCols = `id, owner_key, sku, recipe_id, flavor_ids, pack_name, qty, unit_price_cents, created_at, updated_at`

func scanLine(row pgx.Row) (Line, error) {
	var l Line
	err := row.Scan(&l.ID, &l.OwnerKey, &l.SKU, &l.RecipeID, &l.FlavorIDs, &l.PackName,
		&l.Qty, &l.UnitPriceCents, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Line{}, ErrNotFound
	}
	return l, err
}

func (s *PG) Lines(ctx context.Context, ownerKey string) ([]Line, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+lineCols+` FROM cart_lines WHERE owner_key=$1 ORDER BY created_at`, ownerKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PG) Line(ctx context.Context, ownerKey, lineID string) (Line, error) {
	return scanLine(s.DB.QueryRow(ctx,
		`SELECT `+lineCols+` FROM cart_lines WHERE owner_key=$1 AND id=$2`, ownerKey, lineID))
}

func (s *PG) BySKU(ctx context.Context, ownerKey, sku string) (Line, error) {
	return scanLine(s.DB.QueryRow(ctx,
		`SELECT `+lineCols+` FROM cart_lines WHERE owner_key=$1 AND sku=$2`, ownerKey, sku))
}

func (s *PG) Insert(ctx context.Context, l Line) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO cart_lines(id, owner_key, sku, recipe_id, flavor_ids, pack_name, qty, unit_price_cents)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		l.ID, l.OwnerKey, l.SKU, l.RecipeID, l.FlavorIDs, l.PackName, l.Qty, l.UnitPriceCents)
	return err
}

func (s *PG) UpdateQty(ctx context.Context, ownerKey, lineID string, qty int) error {
	ct, err := s.DB.Exec(ctx, `UPDATE cart_lines SET qty=$3, updated_at=now()
	                           WHERE owner_key=$1 AND id=$2`, ownerKey, lineID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PG) Delete(ctx context.Context, ownerKey, lineID string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM cart_lines WHERE owner_key=$1 AND id=$2`, ownerKey, lineID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PG) DeleteAll(ctx context.Context, ownerKey string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM cart_lines WHERE owner_key=$1`, ownerKey)
	return err
}
