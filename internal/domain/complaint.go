package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ComplaintStatus string

const (
	StatusNew         ComplaintStatus = "new"
	StatusProcessing  ComplaintStatus = "processing"
	StatusUnderReview ComplaintStatus = "under_review"
	StatusDone        ComplaintStatus = "done"
	StatusRejected    ComplaintStatus = "rejected"
)

// ValidTransition checks if a complaint status transition is allowed.
// Allowed: new->processing, processing<->under_review,
// processing->done/rejected, under_review->done/rejected.
// Done and rejected are terminal.
func (s ComplaintStatus) ValidTransition(to ComplaintStatus) bool {
	switch s {
	case StatusNew:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusUnderReview || to == StatusDone || to == StatusRejected
	case StatusUnderReview:
		return to == StatusProcessing || to == StatusDone || to == StatusRejected
	default:
		return false
	}
}

// Terminal reports whether the status ends the complaint lifecycle.
func (s ComplaintStatus) Terminal() bool {
	return s == StatusDone || s == StatusRejected
}

// Label returns the citizen-facing name of the status.
func (s ComplaintStatus) Label() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusProcessing:
		return "Processing"
	case StatusUnderReview:
		return "Under review - awaiting your response"
	case StatusDone:
		return "Done"
	case StatusRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// MaxAttachments is the ceiling on attachments per complaint, enforced
// inside the citizen-response transaction.
const MaxAttachments = 10

// Complaint is a citizen-filed grievance tracked through a fixed status
// lifecycle. LockedBy/LockedAt are set together or not at all.
type Complaint struct {
	ID          uuid.UUID
	Reference   string // unique, "REF-" + 10 hex chars
	UserID      uuid.UUID
	EntityID    uuid.UUID
	Type        string
	Location    string
	Description string
	Status      ComplaintStatus
	LockedBy    *uuid.UUID
	LockedAt    *time.Time
	AssignedTo  *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Locked reports whether the advisory lock is currently held.
func (c *Complaint) Locked() bool {
	return c.LockedBy != nil
}

// HeldBy reports whether userID holds the advisory lock.
func (c *Complaint) HeldBy(userID uuid.UUID) bool {
	return c.LockedBy != nil && *c.LockedBy == userID
}

// ComplaintFilter narrows admin listings.
type ComplaintFilter struct {
	Status    ComplaintStatus
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// Mutation describes the writes applied atomically together with a
// complaint update: the mandatory audit record and any new attachments.
type Mutation struct {
	Audit       *AuditRecord
	Attachments []*Attachment
}

// ComplaintRepository persists complaints. Mutate runs fn under a row-level
// lock in a single transaction: fn validates against the current row state,
// updates the complaint in place and returns the mutation to apply. If fn
// returns an error the transaction rolls back and nothing is written; a nil
// mutation commits nothing (no-op read). The audit record and the field
// updates commit or roll back together; attachment inserts respect
// MaxAttachments inside the same transaction.
type ComplaintRepository interface {
	Create(ctx context.Context, c *Complaint, atts []*Attachment, rec *AuditRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*Complaint, error)
	GetByReference(ctx context.Context, ref string) (*Complaint, error)
	ReferenceExists(ctx context.Context, ref string) (bool, error)
	Mutate(ctx context.Context, id uuid.UUID, fn func(c *Complaint) (*Mutation, error)) (*Complaint, error)

	ListForCitizen(ctx context.Context, userID uuid.UUID) ([]*Complaint, error)
	ListForEmployee(ctx context.Context, userID uuid.UUID, entityID *uuid.UUID) ([]*Complaint, error)
	ListAll(ctx context.Context, filter ComplaintFilter) ([]*Complaint, error)
	ListNewForEmployee(ctx context.Context, userID uuid.UUID, entityID *uuid.UUID) ([]*Complaint, error)
	ListAssignedOrLocked(ctx context.Context, userID uuid.UUID) ([]*Complaint, error)
}
