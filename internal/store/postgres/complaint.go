package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/shakwa/internal/domain"
)

const complaintColumns = `id, reference_number, user_id, entity_id, type, location, description,
        status, locked_by, locked_at, assigned_to, created_at, updated_at`

type ComplaintRepo struct {
	pool *pgxpool.Pool
}

func NewComplaintRepo(pool *pgxpool.Pool) *ComplaintRepo {
	return &ComplaintRepo{pool: pool}
}

// Create inserts the complaint, its attachments and the creation audit
// record in one transaction.
func (r *ComplaintRepo) Create(ctx context.Context, c *domain.Complaint, atts []*domain.Attachment, rec *domain.AuditRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("complaintRepo.Create: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO complaints (id, reference_number, user_id, entity_id, type, location, description,
		        status, locked_by, locked_at, assigned_to, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.Reference, c.UserID, c.EntityID, c.Type, c.Location, c.Description,
		c.Status, c.LockedBy, c.LockedAt, c.AssignedTo, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("complaintRepo.Create: %w", err)
	}

	for _, a := range atts {
		if err := insertAttachment(ctx, tx, a); err != nil {
			return fmt.Errorf("complaintRepo.Create: %w", err)
		}
	}

	if rec != nil {
		if err := insertAuditRecord(ctx, tx, rec); err != nil {
			return fmt.Errorf("complaintRepo.Create: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("complaintRepo.Create: commit: %w", err)
	}

	return nil
}

func (r *ComplaintRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Complaint, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id)

	c, err := scanComplaint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("complaintRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("complaintRepo.GetByID: %w", err)
	}

	return c, nil
}

func (r *ComplaintRepo) GetByReference(ctx context.Context, ref string) (*domain.Complaint, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE reference_number = $1`, ref)

	c, err := scanComplaint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("complaintRepo.GetByReference: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("complaintRepo.GetByReference: %w", err)
	}

	return c, nil
}

func (r *ComplaintRepo) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM complaints WHERE reference_number = $1)`, ref,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("complaintRepo.ReferenceExists: %w", err)
	}

	return exists, nil
}

// Mutate loads the complaint under a row-level lock, applies fn, and writes
// the resulting field state, new attachments and audit record atomically.
// SELECT ... FOR UPDATE serializes concurrent mutations on the same
// complaint, closing the check-and-set race on lock acquisition.
func (r *ComplaintRepo) Mutate(ctx context.Context, id uuid.UUID, fn func(c *domain.Complaint) (*domain.Mutation, error)) (*domain.Complaint, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("complaintRepo.Mutate: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE id = $1 FOR UPDATE`, id)

	c, err := scanComplaint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("complaintRepo.Mutate: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("complaintRepo.Mutate: %w", err)
	}

	mut, err := fn(c)
	if err != nil {
		return nil, fmt.Errorf("complaintRepo.Mutate: %w", err)
	}
	if mut == nil {
		// No-op: nothing to write.
		return c, nil
	}

	if len(mut.Attachments) > 0 {
		var count int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM attachments WHERE complaint_id = $1`, id,
		).Scan(&count); err != nil {
			return nil, fmt.Errorf("complaintRepo.Mutate: count attachments: %w", err)
		}
		if count+len(mut.Attachments) > domain.MaxAttachments {
			return nil, fmt.Errorf("complaintRepo.Mutate: %w", domain.ErrAttachmentLimit)
		}

		for _, a := range mut.Attachments {
			if err := insertAttachment(ctx, tx, a); err != nil {
				return nil, fmt.Errorf("complaintRepo.Mutate: %w", err)
			}
		}
	}

	c.UpdatedAt = time.Now()
	_, err = tx.Exec(ctx,
		`UPDATE complaints SET status = $1, locked_by = $2, locked_at = $3, assigned_to = $4, updated_at = $5
		 WHERE id = $6`,
		c.Status, c.LockedBy, c.LockedAt, c.AssignedTo, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("complaintRepo.Mutate: update: %w", err)
	}

	if mut.Audit != nil {
		if err := insertAuditRecord(ctx, tx, mut.Audit); err != nil {
			return nil, fmt.Errorf("complaintRepo.Mutate: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("complaintRepo.Mutate: commit: %w", err)
	}

	return c, nil
}

func (r *ComplaintRepo) ListForCitizen(ctx context.Context, userID uuid.UUID) ([]*domain.Complaint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+complaintColumns+` FROM complaints
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1000`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("complaintRepo.ListForCitizen: %w", err)
	}
	defer rows.Close()

	return scanComplaints(rows, "complaintRepo.ListForCitizen")
}

func (r *ComplaintRepo) ListForEmployee(ctx context.Context, userID uuid.UUID, entityID *uuid.UUID) ([]*domain.Complaint, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if entityID != nil {
		rows, err = r.pool.Query(ctx,
			`SELECT `+complaintColumns+` FROM complaints
			 WHERE assigned_to = $1 OR entity_id = $2
			 ORDER BY created_at DESC
			 LIMIT 1000`,
			userID, *entityID,
		)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT `+complaintColumns+` FROM complaints
			 WHERE assigned_to = $1
			 ORDER BY created_at DESC
			 LIMIT 1000`,
			userID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("complaintRepo.ListForEmployee: %w", err)
	}
	defer rows.Close()

	return scanComplaints(rows, "complaintRepo.ListForEmployee")
}

func (r *ComplaintRepo) ListAll(ctx context.Context, filter domain.ComplaintFilter) ([]*domain.Complaint, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + complaintColumns + ` FROM complaints`)

	var conds []string
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
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
		return nil, fmt.Errorf("complaintRepo.ListAll: %w", err)
	}
	defer rows.Close()

	return scanComplaints(rows, "complaintRepo.ListAll")
}

func (r *ComplaintRepo) ListNewForEmployee(ctx context.Context, userID uuid.UUID, entityID *uuid.UUID) ([]*domain.Complaint, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if entityID != nil {
		rows, err = r.pool.Query(ctx,
			`SELECT `+complaintColumns+` FROM complaints
			 WHERE status = $1 AND (assigned_to = $2 OR locked_by = $2 OR entity_id = $3)
			 ORDER BY created_at DESC
			 LIMIT 1000`,
			domain.StatusNew, userID, *entityID,
		)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT `+complaintColumns+` FROM complaints
			 WHERE status = $1 AND (assigned_to = $2 OR locked_by = $2)
			 ORDER BY created_at DESC
			 LIMIT 1000`,
			domain.StatusNew, userID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("complaintRepo.ListNewForEmployee: %w", err)
	}
	defer rows.Close()

	return scanComplaints(rows, "complaintRepo.ListNewForEmployee")
}

func (r *ComplaintRepo) ListAssignedOrLocked(ctx context.Context, userID uuid.UUID) ([]*domain.Complaint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+complaintColumns+` FROM complaints
		 WHERE assigned_to = $1 OR locked_by = $1
		 ORDER BY created_at DESC
		 LIMIT 1000`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("complaintRepo.ListAssignedOrLocked: %w", err)
	}
	defer rows.Close()

	return scanComplaints(rows, "complaintRepo.ListAssignedOrLocked")
}

func scanComplaint(row pgx.Row) (*domain.Complaint, error) {
	var c domain.Complaint
	err := row.Scan(
		&c.ID, &c.Reference, &c.UserID, &c.EntityID, &c.Type, &c.Location, &c.Description,
		&c.Status, &c.LockedBy, &c.LockedAt, &c.AssignedTo, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanComplaints(rows pgx.Rows, caller string) ([]*domain.Complaint, error) {
	var complaints []*domain.Complaint
	for rows.Next() {
		var c domain.Complaint
		if err := rows.Scan(
			&c.ID, &c.Reference, &c.UserID, &c.EntityID, &c.Type, &c.Location, &c.Description,
			&c.Status, &c.LockedBy, &c.LockedAt, &c.AssignedTo, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		complaints = append(complaints, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return complaints, nil
}
