package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AllowedMimeTypes is the attachment allow-list applied on the strict
// validating path (citizen response).
var AllowedMimeTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"application/pdf": {},
}

// MimeAllowed reports whether mime passes the attachment allow-list.
func MimeAllowed(mime string) bool {
	_, ok := AllowedMimeTypes[mime]
	return ok
}

// Attachment is a file stored against exactly one complaint. Created during
// submission or citizen response, never mutated afterwards.
type Attachment struct {
	ID          uuid.UUID
	ComplaintID uuid.UUID
	StoragePath string
	FileName    string
	FileType    string // extension without the dot
	FileSize    int64
	MimeType    string
	CreatedAt   time.Time
}

type AttachmentRepository interface {
	ListByComplaint(ctx context.Context, complaintID uuid.UUID) ([]*Attachment, error)
	CountByComplaint(ctx context.Context, complaintID uuid.UUID) (int, error)
}
