package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/shakwa/internal/domain"
)

type NoteRepo struct {
	pool *pgxpool.Pool
}

func NewNoteRepo(pool *pgxpool.Pool) *NoteRepo {
	return &NoteRepo{pool: pool}
}

func (r *NoteRepo) Create(ctx context.Context, n *domain.Note) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO complaint_notes (id, complaint_id, user_id, note, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.ComplaintID, n.UserID, n.Note, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("noteRepo.Create: %w", err)
	}

	return nil
}

func (r *NoteRepo) ListByComplaint(ctx context.Context, complaintID uuid.UUID) ([]*domain.Note, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, complaint_id, user_id, note, created_at
		 FROM complaint_notes
		 WHERE complaint_id = $1
		 ORDER BY created_at ASC`,
		complaintID,
	)
	if err != nil {
		return nil, fmt.Errorf("noteRepo.ListByComplaint: %w", err)
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.ComplaintID, &n.UserID, &n.Note, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("noteRepo.ListByComplaint: scan: %w", err)
		}
		notes = append(notes, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("noteRepo.ListByComplaint: rows: %w", err)
	}

	return notes, nil
}
