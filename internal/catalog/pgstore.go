package catalog

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xGLETONAx/billares-chapinlandia/internal/common"
)

// PGStore implements Store on Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

func (s PGStore) ListProducts(ctx context.Context, activeOnly bool) ([]Product, error) {
	const q = `
		SELECT id, name, category, price_cents, active, created_at, updated_at
		FROM products
		WHERE NOT $1 OR active
		ORDER BY name`
	rows, err := s.Pool.Query(ctx, q, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.PriceCents, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s PGStore) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	const q = `
		SELECT id, name, category, price_cents, active, created_at, updated_at
		FROM products WHERE id = $1`
	var p Product
	err := s.Pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.Category, &p.PriceCents, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s PGStore) InsertProduct(ctx context.Context, p Product) (Product, error) {
	const q = `
		INSERT INTO products (id, name, category, price_cents, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at`
	if err := s.Pool.QueryRow(ctx, q, p.ID, p.Name, p.Category, p.PriceCents, p.Active).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s PGStore) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	const q = `
		UPDATE products
		SET name = $2, category = $3, price_cents = $4, active = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	err := s.Pool.QueryRow(ctx, q, p.ID, p.Name, p.Category, p.PriceCents, p.Active).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}
