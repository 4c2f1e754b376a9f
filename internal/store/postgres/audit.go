package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/shakwa/internal/domain"
)

// AuditRecordRepo reads the append-only audit trail. Inserts go through
// insertAuditRecord inside complaint transactions; there is no standalone
// write path, and no update or delete path at all.
type AuditRecordRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRecordRepo(pool *pgxpool.Pool) *AuditRecordRepo {
	return &AuditRecordRepo{pool: pool}
}

// ListByComplaint returns the complaint's audit trail in insertion order.
func (r *AuditRecordRepo) ListByComplaint(ctx context.Context, complaintID uuid.UUID) ([]*domain.AuditRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, complaint_id, event, old_values, new_values, actor_id, ip_address, user_agent, created_at
		 FROM audit_records
		 WHERE complaint_id = $1
		 ORDER BY created_at ASC`,
		complaintID,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRecordRepo.ListByComplaint: %w", err)
	}
	defer rows.Close()

	var records []*domain.AuditRecord
	for rows.Next() {
		var rec domain.AuditRecord
		if err := rows.Scan(
			&rec.ID, &rec.ComplaintID, &rec.Event, &rec.OldValues, &rec.NewValues,
			&rec.ActorID, &rec.IP, &rec.UserAgent, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("auditRecordRepo.ListByComplaint: scan: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auditRecordRepo.ListByComplaint: rows: %w", err)
	}

	return records, nil
}

func (r *AuditRecordRepo) LatestByEvent(ctx context.Context, complaintID uuid.UUID, event string) (*domain.AuditRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, complaint_id, event, old_values, new_values, actor_id, ip_address, user_agent, created_at
		 FROM audit_records
		 WHERE complaint_id = $1 AND event = $2
		 ORDER BY created_at DESC
		 LIMIT 1`,
		complaintID, event,
	)

	var rec domain.AuditRecord
	err := row.Scan(
		&rec.ID, &rec.ComplaintID, &rec.Event, &rec.OldValues, &rec.NewValues,
		&rec.ActorID, &rec.IP, &rec.UserAgent, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("auditRecordRepo.LatestByEvent: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("auditRecordRepo.LatestByEvent: %w", err)
	}

	return &rec, nil
}

// insertAuditRecord appends one audit record inside the caller's transaction
// so the record commits or rolls back with the mutation it describes.
func insertAuditRecord(ctx context.Context, tx pgx.Tx, rec *domain.AuditRecord) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO audit_records (id, complaint_id, event, old_values, new_values, actor_id, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.ComplaintID, rec.Event, rec.OldValues, rec.NewValues,
		rec.ActorID, rec.IP, rec.UserAgent, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}

	return nil
}

type ActionLogRepo struct {
	pool *pgxpool.Pool
}

func NewActionLogRepo(pool *pgxpool.Pool) *ActionLogRepo {
	return &ActionLogRepo{pool: pool}
}

func (r *ActionLogRepo) Insert(ctx context.Context, entry *domain.ActionLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO action_logs (id, user_id, action, details, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.UserID, entry.Action, entry.Details, entry.IP, entry.UserAgent, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("actionLogRepo.Insert: %w", err)
	}

	return nil
}

func (r *ActionLogRepo) List(ctx context.Context, filter domain.ActionLogFilter) ([]*domain.ActionLog, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT id, user_id, action, details, ip_address, user_agent, created_at FROM action_logs`)

	var conds []string
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	sb.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	args = append(args, limit)
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("actionLogRepo.List: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ActionLog
	for rows.Next() {
		var e domain.ActionLog
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Details, &e.IP, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("actionLogRepo.List: scan: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("actionLogRepo.List: rows: %w", err)
	}

	return entries, nil
}
