package complaint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/shakwa/internal/domain"
)

// TrackAttachment is an attachment in the citizen tracking view.
type TrackAttachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TrackView is the citizen-facing progress snapshot for one complaint.
type TrackView struct {
	Reference            string                 `json:"reference_number"`
	Type                 string                 `json:"type"`
	Status               domain.ComplaintStatus `json:"status"`
	StatusLabel          string                 `json:"status_label"`
	EntityName           string                 `json:"entity_name"`
	Location             string                 `json:"location"`
	Description          string                 `json:"description"`
	SubmittedAt          time.Time              `json:"submitted_at"`
	BeingProcessed       bool                   `json:"is_being_processed"`
	AwaitingResponse     bool                   `json:"awaiting_your_response"`
	LatestRequestMessage string                 `json:"latest_request_message,omitempty"`
	Attachments          []TrackAttachment      `json:"attachments"`
	Timeline             []TimelineEntry        `json:"timeline"`
}

// Track builds the tracking view for the owning citizen: complaint summary
// plus the replayed timeline. The projection reflects only committed audit
// state, so it is cached for a short window keyed by (reference, viewer).
// Non-owners get ErrNotFound rather than ErrForbidden to avoid confirming
// that the reference exists.
func (s *Service) Track(ctx context.Context, actor *domain.User, ref string) (*TrackView, error) {
	cacheKey := fmt.Sprintf("complaint_timeline:%s:%s", ref, actor.ID)

	if cached, err := s.cache.Get(ctx, cacheKey); err != nil {
		log.Warn().Err(err).Str("key", cacheKey).Msg("complaint: timeline cache read failed")
	} else if cached != nil {
		var view TrackView
		if err := json.Unmarshal(cached, &view); err == nil {
			return &view, nil
		}
	}

	view, err := s.buildTrackView(ctx, actor, ref)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(view); err == nil {
		if err := s.cache.Set(ctx, cacheKey, payload, s.timelineTTL); err != nil {
			log.Warn().Err(err).Str("key", cacheKey).Msg("complaint: timeline cache write failed")
		}
	}

	return view, nil
}

func (s *Service) buildTrackView(ctx context.Context, actor *domain.User, ref string) (*TrackView, error) {
	c, err := s.store.Complaints().GetByReference(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("complaint.Track: %w", err)
	}
	if c.UserID != actor.ID {
		return nil, fmt.Errorf("complaint.Track: %w", domain.ErrNotFound)
	}

	entity, err := s.store.Entities().GetByID(ctx, c.EntityID)
	if err != nil {
		return nil, fmt.Errorf("complaint.Track: entity: %w", err)
	}

	atts, err := s.store.Attachments().ListByComplaint(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("complaint.Track: attachments: %w", err)
	}

	records, err := s.store.AuditRecords().ListByComplaint(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("complaint.Track: audits: %w", err)
	}

	latestMsg, err := s.LatestInfoRequestMessage(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("complaint.Track: %w", err)
	}

	timeline := BuildTimeline(c, records, actor, s.actorNameResolver(ctx))

	trackAtts := make([]TrackAttachment, 0, len(atts))
	for _, a := range atts {
		name := a.FileName
		if name == "" {
			name = "attachment"
		}
		trackAtts = append(trackAtts, TrackAttachment{Name: name, URL: s.blobs.URL(a.StoragePath)})
	}

	return &TrackView{
		Reference:            c.Reference,
		Type:                 c.Type,
		Status:               c.Status,
		StatusLabel:          c.Status.Label(),
		EntityName:           entity.Name,
		Location:             c.Location,
		Description:          c.Description,
		SubmittedAt:          c.CreatedAt,
		BeingProcessed:       c.Locked(),
		AwaitingResponse:     c.Status == domain.StatusUnderReview,
		LatestRequestMessage: latestMsg,
		Attachments:          trackAtts,
		Timeline:             timeline,
	}, nil
}

// actorNameResolver memoizes user name lookups across one timeline build.
func (s *Service) actorNameResolver(ctx context.Context) func(uuid.UUID) string {
	names := make(map[uuid.UUID]string)

	return func(id uuid.UUID) string {
		if name, ok := names[id]; ok {
			return name
		}

		var name string
		if u, err := s.store.Users().GetByID(ctx, id); err == nil {
			name = u.Name
		}
		names[id] = name
		return name
	}
}
