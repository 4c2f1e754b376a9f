package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Audit event kinds. Lock, unlock, status and assignment changes share the
// generic "updated" event; the timeline builder recovers the action from the
// old/new value deltas.
const (
	EventCreated          = "created"
	EventUpdated          = "updated"
	EventRequestMoreInfo  = "request_more_info"
	EventCitizenResponded = "citizen_responded"
)

// RequestMeta carries client metadata captured at the transport boundary and
// threaded explicitly through every core operation.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuditRecord is an immutable, append-only log entry capturing a field-level
// state change on a complaint. ActorID is nil for system actions. Records are
// never updated or deleted.
type AuditRecord struct {
	ID          uuid.UUID
	ComplaintID uuid.UUID
	Event       string
	OldValues   map[string]any
	NewValues   map[string]any
	ActorID     *uuid.UUID
	IP          string
	UserAgent   string
	CreatedAt   time.Time
}

// NewAuditRecord builds a record for a complaint event. old and new hold
// sparse field deltas, not full snapshots.
func NewAuditRecord(complaintID uuid.UUID, event string, actorID *uuid.UUID, old, new map[string]any, meta RequestMeta) *AuditRecord {
	return &AuditRecord{
		ID:          uuid.New(),
		ComplaintID: complaintID,
		Event:       event,
		OldValues:   old,
		NewValues:   new,
		ActorID:     actorID,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		CreatedAt:   time.Now(),
	}
}

// AuditRecordRepository reads the append-only trail. Writes happen inside
// complaint mutations (ComplaintRepository.Create / Mutate) so that a
// mutation and its audit record commit or roll back together.
type AuditRecordRepository interface {
	ListByComplaint(ctx context.Context, complaintID uuid.UUID) ([]*AuditRecord, error)
	LatestByEvent(ctx context.Context, complaintID uuid.UUID, event string) (*AuditRecord, error)
}

// ActionLog is the request-scoped action trail (logins, security events,
// complaint actions) written asynchronously off the request path.
type ActionLog struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	Action    string
	Details   map[string]any
	IP        string
	UserAgent string
	CreatedAt time.Time
}

type ActionLogFilter struct {
	UserID *uuid.UUID
	Action string
	Limit  int
	Offset int
}

type ActionLogRepository interface {
	Insert(ctx context.Context, entry *ActionLog) error
	List(ctx context.Context, filter ActionLogFilter) ([]*ActionLog, error)
}
