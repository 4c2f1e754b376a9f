package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/shakwa/internal/domain"
)

type EntityRepo struct {
	pool *pgxpool.Pool
}

func NewEntityRepo(pool *pgxpool.Pool) *EntityRepo {
	return &EntityRepo{pool: pool}
}

func (r *EntityRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Entity, error) {
	var e domain.Entity
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM entities WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("entityRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("entityRepo.GetByID: %w", err)
	}

	return &e, nil
}

func (r *EntityRepo) List(ctx context.Context) ([]*domain.Entity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at FROM entities ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("entityRepo.List: %w", err)
	}
	defer rows.Close()

	var entities []*domain.Entity
	for rows.Next() {
		var e domain.Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("entityRepo.List: scan: %w", err)
		}
		entities = append(entities, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("entityRepo.List: rows: %w", err)
	}

	return entities, nil
}
