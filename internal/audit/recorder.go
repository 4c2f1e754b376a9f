package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/shakwa/internal/domain"
)

// Action names written to the action log.
const (
	ActionLogin             = "login"
	ActionLoginFailed       = "login_failed"
	ActionAccountLocked     = "account_locked"
	ActionRegister          = "register"
	ActionComplaintSubmit   = "complaint_submitted"
	ActionComplaintLocked   = "complaint_locked"
	ActionComplaintUnlocked = "complaint_unlocked"
	ActionStatusUpdated     = "complaint_status_updated"
	ActionComplaintAssigned = "complaint_assigned"
	ActionNoteAdded         = "complaint_note_added"
	ActionInfoRequested     = "complaint_info_requested"
	ActionInfoResponded     = "complaint_info_responded"
	ActionEmployeeCreated   = "employee_created"
	ActionEmployeeUpdated   = "employee_updated"
	ActionEmployeeDeleted   = "employee_deleted"
)

// Recorder writes action-log entries off the request path. Log never blocks:
// entries go onto a buffered channel consumed by a single worker, and are
// dropped with a log line if the buffer is full.
type Recorder struct {
	repo  domain.ActionLogRepository
	queue chan *domain.ActionLog

	closeOnce sync.Once
	done      chan struct{}
}

func NewRecorder(repo domain.ActionLogRepository, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 1024
	}

	r := &Recorder{
		repo:  repo,
		queue: make(chan *domain.ActionLog, bufferSize),
		done:  make(chan struct{}),
	}
	go r.run()

	return r
}

func (r *Recorder) Log(userID *uuid.UUID, action string, details map[string]any, meta domain.RequestMeta) {
	entry := &domain.ActionLog{
		ID:        uuid.New(),
		UserID:    userID,
		Action:    action,
		Details:   details,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		CreatedAt: time.Now(),
	}

	select {
	case r.queue <- entry:
	default:
		log.Warn().Str("action", action).Msg("audit: recorder queue full, dropping entry")
	}
}

// Close stops accepting entries and drains the queue before returning.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.queue)
		<-r.done
	})
}

func (r *Recorder) run() {
	defer close(r.done)

	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.repo.Insert(ctx, entry); err != nil {
			log.Error().Err(err).Str("action", entry.Action).Msg("audit: failed to persist action log entry")
		}
		cancel()
	}
}
