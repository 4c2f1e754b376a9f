package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/shakwa/internal/domain"
)

type AttachmentRepo struct {
	pool *pgxpool.Pool
}

func NewAttachmentRepo(pool *pgxpool.Pool) *AttachmentRepo {
	return &AttachmentRepo{pool: pool}
}

func (r *AttachmentRepo) ListByComplaint(ctx context.Context, complaintID uuid.UUID) ([]*domain.Attachment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, complaint_id, storage_path, file_name, file_type, file_size, mime_type, created_at
		 FROM attachments
		 WHERE complaint_id = $1
		 ORDER BY created_at ASC`,
		complaintID,
	)
	if err != nil {
		return nil, fmt.Errorf("attachmentRepo.ListByComplaint: %w", err)
	}
	defer rows.Close()

	var atts []*domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(
			&a.ID, &a.ComplaintID, &a.StoragePath, &a.FileName, &a.FileType,
			&a.FileSize, &a.MimeType, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("attachmentRepo.ListByComplaint: scan: %w", err)
		}
		atts = append(atts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("attachmentRepo.ListByComplaint: rows: %w", err)
	}

	return atts, nil
}

func (r *AttachmentRepo) CountByComplaint(ctx context.Context, complaintID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM attachments WHERE complaint_id = $1`, complaintID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("attachmentRepo.CountByComplaint: %w", err)
	}

	return count, nil
}

// insertAttachment runs inside a complaint transaction so attachment rows
// commit together with the mutation that added them.
func insertAttachment(ctx context.Context, tx pgx.Tx, a *domain.Attachment) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO attachments (id, complaint_id, storage_path, file_name, file_type, file_size, mime_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.ComplaintID, a.StoragePath, a.FileName, a.FileType, a.FileSize, a.MimeType, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}

	return nil
}
