package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PG struct{ DB *pgxpool.Pool }

func (s *PG) Flavor(ctx context.Context, id string) (Flavor, error) {
	var f Flavor
	err := s.DB.QueryRow(ctx, `SELECT id, name, active, created_at, updated_at
	                           FROM flavors WHERE id=$1`, id).
		Scan(&f.ID, &f.Name, &f.Active, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Flavor{}, ErrNotFound
	}
	return f, err
}

func (s *PG) Flavors(ctx context.Context, ids []string) (map[string]Flavor, error) {
	if len(ids) == 0 {
		return map[string]Flavor{}, nil
	}
	args := make([]any, 0, len(ids))
	params := ""
	for i, id := range ids {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	rows, err := s.DB.Query(ctx, `SELECT id, name, active, created_at, updated_at
	                              FROM flavors WHERE id IN (`+params+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]Flavor{}
	for rows.Next() {
		var f Flavor
		if err := rows.Scan(&f.ID, &f.Name, &f.Active, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out[f.ID] = f
	}
	return out, rows.Err()
}

func (s *PG) Recipe(ctx context.Context, id string) (Recipe, error) {
	var r Recipe
	err := s.DB.QueryRow(ctx, `SELECT id, name, active, price_cents, created_at, updated_at
	                           FROM recipes WHERE id=$1`, id).
		Scan(&r.ID, &r.Name, &r.Active, &r.PriceCents, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Recipe{}, ErrNotFound
	}
	if err != nil {
		return Recipe{}, err
	}

	rows, err := s.DB.Query(ctx, `SELECT flavor_id, qty FROM recipe_items WHERE recipe_id=$1 ORDER BY flavor_id`, id)
	if err != nil {
		return Recipe{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it RecipeItem
		if err := rows.Scan(&it.FlavorID, &it.Qty); err != nil {
			return Recipe{}, err
		}
		r.Items = append(r.Items, it)
	}
	return r, rows.Err()
}

func (s *PG) CreateFlavor(ctx context.Context, f Flavor) error {
	// counter stok lahir bareng flavor, mulai dari nol
	_, err := s.DB.Exec(ctx, `
		INSERT INTO flavors(id, name, active, on_hand, reserved, safety_stock)
		VALUES ($1, $2, $3, 0, 0, 0)`, f.ID, f.Name, f.Active)
	return err
}

func (s *PG) CreateRecipe(ctx context.Context, r Recipe) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO recipes(id, name, active, price_cents)
		VALUES ($1, $2, $3, $4)`, r.ID, r.Name, r.Active, r.PriceCents); err != nil {
		return err
	}
	for _, it := range r.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO recipe_items(recipe_id, flavor_id, qty)
			VALUES ($1, $2, $3)`, r.ID, it.FlavorID, it.Qty); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PG) DeactivateFlavor(ctx context.Context, id string) error {
	ct, err := s.DB.Exec(ctx, `UPDATE flavors SET active=false, updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
