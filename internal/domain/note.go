package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Note is a free-text staff annotation on a complaint. Append-only.
type Note struct {
	ID          uuid.UUID
	ComplaintID uuid.UUID
	UserID      uuid.UUID
	Note        string
	CreatedAt   time.Time
}

type NoteRepository interface {
	Create(ctx context.Context, n *Note) error
	ListByComplaint(ctx context.Context, complaintID uuid.UUID) ([]*Note, error)
}
