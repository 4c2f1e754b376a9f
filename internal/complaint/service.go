// Package complaint implements the complaint lifecycle: submission, the
// advisory locking discipline, the status state machine, info-request round
// trips, and the audit-backed timeline projection.
package complaint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/shakwa/internal/audit"
	"github.com/gosuda/shakwa/internal/domain"
	"github.com/gosuda/shakwa/internal/mailer"
	"github.com/gosuda/shakwa/internal/policy"
)

// DataStore abstracts the repository accessor pattern for service testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Complaints() domain.ComplaintRepository
	Attachments() domain.AttachmentRepository
	AuditRecords() domain.AuditRecordRepository
	Notes() domain.NoteRepository
	Users() domain.UserRepository
	Entities() domain.EntityRepository
}

// Publisher abstracts the Redis pub/sub publish operation.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Cache is the injected TTL cache used only for the read-only timeline
// projection, never for authoritative state. Get returns (nil, nil) on miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// BlobStore abstracts attachment storage. Put stores the file under the
// given prefix and returns the storage path; URL resolves a storage path to
// a public URL.
type BlobStore interface {
	Put(ctx context.Context, pathPrefix, fileName string, r io.Reader) (string, error)
	URL(storagePath string) string
}

// MailQueue enqueues outbound mail. Fire-and-forget: implementations log
// delivery failures and never propagate them.
type MailQueue interface {
	Queue(m mailer.Message)
}

// ActionLogger records user actions off the request path.
type ActionLogger interface {
	Log(userID *uuid.UUID, action string, details map[string]any, meta domain.RequestMeta)
}

// File is an uploaded file handed in by the transport layer.
type File struct {
	Name    string
	Mime    string
	Size    int64
	Content io.Reader
}

// SubmitInput carries a new complaint submission.
type SubmitInput struct {
	EntityID    uuid.UUID
	Type        string
	Location    string
	Description string
	Files       []File
}

// Service coordinates complaint operations: policy gate, transactional
// mutation with its audit record, then best-effort notification side effects.
type Service struct {
	store       DataStore
	blobs       BlobStore
	mail        MailQueue
	pubsub      Publisher
	cache       Cache
	actions     ActionLogger
	timelineTTL time.Duration
}

func NewService(store DataStore, blobs BlobStore, mail MailQueue, pubsub Publisher, cache Cache, actions ActionLogger, timelineTTL time.Duration) *Service {
	return &Service{
		store:       store,
		blobs:       blobs,
		mail:        mail,
		pubsub:      pubsub,
		cache:       cache,
		actions:     actions,
		timelineTTL: timelineTTL,
	}
}

// Submit creates a complaint in "new" status with a unique reference and
// stores any valid attachments. The complaint, its attachments and the
// "created" audit record commit in one transaction. Files failing the MIME
// allow-list are skipped with a warning on this lenient path.
func (s *Service) Submit(ctx context.Context, actor *domain.User, in SubmitInput, meta domain.RequestMeta) (*domain.Complaint, error) {
	if _, err := s.store.Entities().GetByID(ctx, in.EntityID); err != nil {
		return nil, fmt.Errorf("complaint.Submit: entity: %w", err)
	}

	ref, err := s.uniqueReference(ctx)
	if err != nil {
		return nil, fmt.Errorf("complaint.Submit: %w", err)
	}

	now := time.Now()
	c := &domain.Complaint{
		ID:          uuid.New(),
		Reference:   ref,
		UserID:      actor.ID,
		EntityID:    in.EntityID,
		Type:        in.Type,
		Location:    in.Location,
		Description: in.Description,
		Status:      domain.StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	atts, err := s.storeFiles(ctx, c, in.Files, false)
	if err != nil {
		return nil, fmt.Errorf("complaint.Submit: %w", err)
	}

	rec := domain.NewAuditRecord(c.ID, domain.EventCreated, &actor.ID, nil, map[string]any{
		"reference_number": ref,
		"status":           string(domain.StatusNew),
	}, meta)

	if err := s.store.Complaints().Create(ctx, c, atts, rec); err != nil {
		return nil, fmt.Errorf("complaint.Submit: %w", err)
	}

	s.actions.Log(&actor.ID, audit.ActionComplaintSubmit, map[string]any{
		"ref":         ref,
		"entity_id":   in.EntityID.String(),
		"attachments": len(atts),
	}, meta)

	return c, nil
}

// Lock acquires the advisory lock for actor. Re-locking by the current
// holder is an idempotent no-op; a lock held by anyone else fails with
// ErrAlreadyLocked. The check-and-set and the audit record run in one
// transaction under a row lock, so concurrent attempts serialize and at
// most one wins.
func (s *Service) Lock(ctx context.Context, actor *domain.User, id uuid.UUID, meta domain.RequestMeta) (*domain.Complaint, error) {
	c, err := s.store.Complaints().Mutate(ctx, id, func(c *domain.Complaint) (*domain.Mutation, error) {
		if !policy.Can(actor, policy.ActionLock, c) {
			return nil, domain.ErrForbidden
		}
		if c.HeldBy(actor.ID) {
			return nil, nil // already ours
		}
		if c.Locked() {
			return nil, domain.ErrAlreadyLocked
		}

		now := time.Now()
		c.LockedBy = &actor.ID
		c.LockedAt = &now

		rec := domain.NewAuditRecord(c.ID, domain.EventUpdated, &actor.ID,
			map[string]any{"locked_by": nil},
			map[string]any{"locked_by": actor.ID.String()},
			meta,
		)
		return &domain.Mutation{Audit: rec}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("complaint.Lock: %w", err)
	}

	s.publishCitizen(c, "complaint-locked", nil)
	s.actions.Log(&actor.ID, audit.ActionComplaintLocked, map[string]any{"complaint_id": id.String()}, meta)

	return c, nil
}

// Unlock releases the advisory lock. Releasing an unlocked complaint is a
// no-op success. Only an admin, or the holding employee of the complaint's
// entity, may release.
func (s *Service) Unlock(ctx context.Context, actor *domain.User, id uuid.UUID, meta domain.RequestMeta) (*domain.Complaint, error) {
	c, err := s.store.Complaints().Mutate(ctx, id, func(c *domain.Complaint) (*domain.Mutation, error) {
		if !c.Locked() {
			return nil, nil
		}
		if !policy.Can(actor, policy.ActionUnlock, c) {
			return nil, domain.ErrForbidden
		}

		holder := c.LockedBy.String()
		c.LockedBy = nil
		c.LockedAt = nil

		rec := domain.NewAuditRecord(c.ID, domain.EventUpdated, &actor.ID,
			map[string]any{"locked_by": holder},
			map[string]any{"locked_by": nil},
			meta,
		)
		return &domain.Mutation{Audit: rec}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("complaint.Unlock: %w", err)
	}

	s.actions.Log(&actor.ID, audit.ActionComplaintUnlocked, map[string]any{"complaint_id": id.String()}, meta)

	return c, nil
}

// UpdateStatus moves the complaint through the state machine. Requires the
// lock to be held by actor (admins bypass the lock discipline). Terminal
// target statuses clear the lock in the same transaction. After commit the
// citizen is notified by queued mail and a realtime event, both best-effort.
func (s *Service) UpdateStatus(ctx context.Context, actor *domain.User, id uuid.UUID, newStatus domain.ComplaintStatus, notes string, meta domain.RequestMeta) (*domain.Complaint, error) {
	c, err := s.store.Complaints().Mutate(ctx, id, func(c *domain.Complaint) (*domain.Mutation, error) {
		if !policy.Can(actor, policy.ActionUpdate, c) {
			return nil, domain.ErrForbidden
		}
		if !actor.HasRole(domain.RoleAdmin) {
			if !c.Locked() {
				return nil, domain.ErrLockRequired
			}
			if !c.HeldBy(actor.ID) {
				return nil, domain.ErrLockedByOther
			}
		}
		if !c.Status.ValidTransition(newStatus) {
			return nil, domain.ErrInvalidTransition
		}

		old := map[string]any{"status": string(c.Status)}
		new := map[string]any{"status": string(newStatus)}
		if notes != "" {
			new["notes"] = notes
		}

		c.Status = newStatus
		if newStatus.Terminal() && c.Locked() {
			old["locked_by"] = c.LockedBy.String()
			new["locked_by"] = nil
			c.LockedBy = nil
			c.LockedAt = nil
		}

		rec := domain.NewAuditRecord(c.ID, domain.EventUpdated, &actor.ID, old, new, meta)
		return &domain.Mutation{Audit: rec}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("complaint.UpdateStatus: %w", err)
	}

	s.notifyStatusChange(ctx, c)
	s.publishCitizen(c, "status-updated", nil)
	s.actions.Log(&actor.ID, audit.ActionStatusUpdated, map[string]any{
		"complaint_id": id.String(),
		"new_status":   string(newStatus),
	}, meta)

	return c, nil
}

// Assign sets the handling employee. Admin only. Does not alter status or
// lock state.
func (s *Service) Assign(ctx context.Context, actor *domain.User, id, employeeID uuid.UUID, meta domain.RequestMeta) (*domain.Complaint, error) {
	employee, err := s.store.Users().GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("complaint.Assign: employee: %w", err)
	}
	if !employee.HasRole(domain.RoleEmployee) {
		return nil, fmt.Errorf("complaint.Assign: assignee is not an employee: %w", domain.ErrConflict)
	}

	c, err := s.store.Complaints().Mutate(ctx, id, func(c *domain.Complaint) (*domain.Mutation, error) {
		if !policy.Can(actor, policy.ActionAssign, c) {
			return nil, domain.ErrForbidden
		}

		var old any
		if c.AssignedTo != nil {
			old = c.AssignedTo.String()
		}
		c.AssignedTo = &employeeID

		rec := domain.NewAuditRecord(c.ID, domain.EventUpdated, &actor.ID,
			map[string]any{"assigned_to": old},
			map[string]any{"assigned_to": employeeID.String()},
			meta,
		)
		return &domain.Mutation{Audit: rec}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("complaint.Assign: %w", err)
	}

	s.publishCitizen(c, "complaint-assigned", nil)
	s.actions.Log(&actor.ID, audit.ActionComplaintAssigned, map[string]any{
		"complaint_id": id.String(),
		"employee_id":  employeeID.String(),
	}, meta)

	return c, nil
}

// AddNote appends an internal staff annotation. Notes are staff-facing and
// do not appear in the citizen timeline.
func (s *Service) AddNote(ctx context.Context, actor *domain.User, id uuid.UUID, text string, meta domain.RequestMeta) (*domain.Note, error) {
	c, err := s.store.Complaints().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("complaint.AddNote: %w", err)
	}
	if !policy.Can(actor, policy.ActionAddNote, c) {
		return nil, fmt.Errorf("complaint.AddNote: %w", domain.ErrForbidden)
	}

	n := &domain.Note{
		ID:          uuid.New(),
		ComplaintID: c.ID,
		UserID:      actor.ID,
		Note:        text,
		CreatedAt:   time.Now(),
	}
	if err := s.store.Notes().Create(ctx, n); err != nil {
		return nil, fmt.Errorf("complaint.AddNote: %w", err)
	}

	s.actions.Log(&actor.ID, audit.ActionNoteAdded, map[string]any{"complaint_id": id.String()}, meta)

	return n, nil
}

// RequestMoreInfo forces the complaint into under_review and records the
// message for the citizen, who is notified over their realtime channel.
func (s *Service) RequestMoreInfo(ctx context.Context, actor *domain.User, id uuid.UUID, message string, meta domain.RequestMeta) (*domain.Complaint, error) {
	c, err := s.store.Complaints().Mutate(ctx, id, func(c *domain.Complaint) (*domain.Mutation, error) {
		if !policy.Can(actor, policy.ActionRequestInfo, c) {
			return nil, domain.ErrForbidden
		}
		if c.Status.Terminal() {
			return nil, domain.ErrInvalidTransition
		}

		old := string(c.Status)
		c.Status = domain.StatusUnderReview

		rec := domain.NewAuditRecord(c.ID, domain.EventRequestMoreInfo, &actor.ID,
			map[string]any{"status": old},
			map[string]any{"status": string(domain.StatusUnderReview), "message": message},
			meta,
		)
		return &domain.Mutation{Audit: rec}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("complaint.RequestMoreInfo: %w", err)
	}

	s.publishCitizen(c, "request-more-info", map[string]string{"message": message})
	s.actions.Log(&actor.ID, audit.ActionInfoRequested, map[string]any{"complaint_id": id.String()}, meta)

	return c, nil
}

// CitizenRespond handles the citizen's answer to an info request: appends
// attachments (strict MIME validation, capped at domain.MaxAttachments per
// complaint) and moves the status back to processing. Ownership and the
// under_review precondition are re-checked inside the transaction.
func (s *Service) CitizenRespond(ctx context.Context, actor *domain.User, id uuid.UUID, notes string, files []File, meta domain.RequestMeta) (*domain.Complaint, error) {
	existing, err := s.store.Complaints().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("complaint.CitizenRespond: %w", err)
	}
	if !policy.Can(actor, policy.ActionRespondInfo, existing) {
		return nil, fmt.Errorf("complaint.CitizenRespond: %w", domain.ErrForbidden)
	}

	atts, err := s.storeFiles(ctx, existing, files, true)
	if err != nil {
		return nil, fmt.Errorf("complaint.CitizenRespond: %w", err)
	}

	c, err := s.store.Complaints().Mutate(ctx, id, func(c *domain.Complaint) (*domain.Mutation, error) {
		if !policy.Can(actor, policy.ActionRespondInfo, c) {
			return nil, domain.ErrForbidden
		}

		old := string(c.Status)
		c.Status = domain.StatusProcessing

		rec := domain.NewAuditRecord(c.ID, domain.EventCitizenResponded, &actor.ID,
			map[string]any{"status": old},
			map[string]any{
				"status":            string(domain.StatusProcessing),
				"notes":             notes,
				"attachments_added": len(atts),
			},
			meta,
		)
		return &domain.Mutation{Audit: rec, Attachments: atts}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("complaint.CitizenRespond: %w", err)
	}

	s.publishCitizen(c, "citizen-responded", nil)
	s.actions.Log(&actor.ID, audit.ActionInfoResponded, map[string]any{
		"complaint_id":      id.String(),
		"attachments_count": len(atts),
	}, meta)

	return c, nil
}

// LatestInfoRequestMessage returns the message of the most recent
// request_more_info audit record, or "" when none exists.
func (s *Service) LatestInfoRequestMessage(ctx context.Context, complaintID uuid.UUID) (string, error) {
	rec, err := s.store.AuditRecords().LatestByEvent(ctx, complaintID, domain.EventRequestMoreInfo)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("complaint.LatestInfoRequestMessage: %w", err)
	}

	return stringValue(rec.NewValues["message"]), nil
}

// GetByReference loads a complaint for a viewer, applying the view policy.
func (s *Service) GetByReference(ctx context.Context, actor *domain.User, ref string) (*domain.Complaint, error) {
	c, err := s.store.Complaints().GetByReference(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("complaint.GetByReference: %w", err)
	}
	if !policy.Can(actor, policy.ActionView, c) {
		return nil, fmt.Errorf("complaint.GetByReference: %w", domain.ErrForbidden)
	}

	return c, nil
}

// Attachments lists a complaint's attachments with resolved URLs.
func (s *Service) Attachments(ctx context.Context, complaintID uuid.UUID) ([]*domain.Attachment, error) {
	atts, err := s.store.Attachments().ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, fmt.Errorf("complaint.Attachments: %w", err)
	}
	return atts, nil
}

// AttachmentURL resolves a stored attachment path to a public URL.
func (s *Service) AttachmentURL(storagePath string) string {
	return s.blobs.URL(storagePath)
}

// Notes lists staff notes for a complaint, gated by the note policy.
func (s *Service) Notes(ctx context.Context, actor *domain.User, complaintID uuid.UUID) ([]*domain.Note, error) {
	c, err := s.store.Complaints().GetByID(ctx, complaintID)
	if err != nil {
		return nil, fmt.Errorf("complaint.Notes: %w", err)
	}
	if !policy.Can(actor, policy.ActionAddNote, c) {
		return nil, fmt.Errorf("complaint.Notes: %w", domain.ErrForbidden)
	}

	notes, err := s.store.Notes().ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, fmt.Errorf("complaint.Notes: %w", err)
	}
	return notes, nil
}

// Dashboard returns the role-scoped complaint listing.
func (s *Service) Dashboard(ctx context.Context, actor *domain.User) ([]*domain.Complaint, error) {
	var (
		list []*domain.Complaint
		err  error
	)

	switch actor.Role {
	case domain.RoleCitizen:
		list, err = s.store.Complaints().ListForCitizen(ctx, actor.ID)
	case domain.RoleEmployee:
		list, err = s.store.Complaints().ListForEmployee(ctx, actor.ID, actor.EntityID)
	case domain.RoleAdmin:
		list, err = s.store.Complaints().ListAll(ctx, domain.ComplaintFilter{})
	default:
		return nil, fmt.Errorf("complaint.Dashboard: %w", domain.ErrForbidden)
	}
	if err != nil {
		return nil, fmt.Errorf("complaint.Dashboard: %w", err)
	}

	return list, nil
}

// ListAll returns every complaint matching the filter. Admin or blanket
// view-any grant only.
func (s *Service) ListAll(ctx context.Context, actor *domain.User, filter domain.ComplaintFilter) ([]*domain.Complaint, error) {
	if !policy.CanViewAll(actor) {
		return nil, fmt.Errorf("complaint.ListAll: %w", domain.ErrForbidden)
	}

	list, err := s.store.Complaints().ListAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("complaint.ListAll: %w", err)
	}
	return list, nil
}

// ListNew returns incoming new complaints for the employee's scope.
func (s *Service) ListNew(ctx context.Context, actor *domain.User) ([]*domain.Complaint, error) {
	if !policy.CanViewNew(actor) {
		return nil, fmt.Errorf("complaint.ListNew: %w", domain.ErrForbidden)
	}

	list, err := s.store.Complaints().ListNewForEmployee(ctx, actor.ID, actor.EntityID)
	if err != nil {
		return nil, fmt.Errorf("complaint.ListNew: %w", err)
	}
	return list, nil
}

// ListMine returns complaints assigned to or locked by the actor.
func (s *Service) ListMine(ctx context.Context, actor *domain.User) ([]*domain.Complaint, error) {
	if !policy.CanViewMine(actor) {
		return nil, fmt.Errorf("complaint.ListMine: %w", domain.ErrForbidden)
	}

	list, err := s.store.Complaints().ListAssignedOrLocked(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("complaint.ListMine: %w", err)
	}
	return list, nil
}

// Entities lists the entity directory (submission dropdown source).
func (s *Service) Entities(ctx context.Context) ([]*domain.Entity, error) {
	entities, err := s.store.Entities().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("complaint.Entities: %w", err)
	}
	return entities, nil
}

// storeFiles validates and persists uploads to the blob store, returning
// attachment rows to be committed with the owning transaction. On the strict
// path a disallowed MIME type aborts with ErrUnsupportedFile; otherwise the
// file is skipped with a warning.
func (s *Service) storeFiles(ctx context.Context, c *domain.Complaint, files []File, strict bool) ([]*domain.Attachment, error) {
	var atts []*domain.Attachment

	for _, f := range files {
		if !domain.MimeAllowed(f.Mime) {
			if strict {
				return nil, fmt.Errorf("storeFiles: %q: %w", f.Mime, domain.ErrUnsupportedFile)
			}
			log.Warn().Str("file", f.Name).Str("mime", f.Mime).Msg("complaint: skipping attachment with disallowed mime type")
			continue
		}

		path, err := s.blobs.Put(ctx, "complaints/"+c.Reference, f.Name, f.Content)
		if err != nil {
			return nil, fmt.Errorf("storeFiles: put %q: %w", f.Name, err)
		}

		atts = append(atts, &domain.Attachment{
			ID:          uuid.New(),
			ComplaintID: c.ID,
			StoragePath: path,
			FileName:    f.Name,
			FileType:    fileExt(f.Name),
			FileSize:    f.Size,
			MimeType:    f.Mime,
			CreatedAt:   time.Now(),
		})
	}

	return atts, nil
}

func fileExt(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return ""
}

// notifyStatusChange queues the status-update mail to the citizen.
// Best-effort: lookup or queue failures are logged, never propagated.
func (s *Service) notifyStatusChange(ctx context.Context, c *domain.Complaint) {
	owner, err := s.store.Users().GetByID(ctx, c.UserID)
	if err != nil {
		log.Error().Err(err).Str("complaint_id", c.ID.String()).Msg("complaint: status mail: owner lookup failed")
		return
	}

	s.mail.Queue(mailer.Message{
		To:      owner.Email,
		Subject: "Update on complaint " + c.Reference,
		Body: fmt.Sprintf(
			"Hello %s,\n\nThe status of your complaint %s has changed to: %s.\n\nYou can follow the details in the application.",
			owner.Name, c.Reference, c.Status.Label(),
		),
	})
}

// publishCitizen pushes a realtime event onto the owner's channel.
// Best-effort: publish failures are logged, never propagated.
func (s *Service) publishCitizen(c *domain.Complaint, event string, extra map[string]string) {
	evt := map[string]string{
		"event":     event,
		"reference": c.Reference,
		"status":    string(c.Status),
	}
	for k, v := range extra {
		evt[k] = v
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}

	channel := "citizen:" + c.UserID.String()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if pubErr := s.pubsub.Publish(ctx, channel, payload); pubErr != nil {
		log.Error().Err(pubErr).Str("channel", channel).Msg("complaint: failed to publish event")
	}
}
