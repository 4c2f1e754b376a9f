package complaint

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/shakwa/internal/domain"
)

// TimelineEntry is one step of the citizen-facing progress narrative.
type TimelineEntry struct {
	Date        time.Time `json:"date"`
	Actor       string    `json:"actor"`
	ActorRole   string    `json:"actor_role"` // "citizen", "employee" or "system"
	Action      string    `json:"action"`
	Description string    `json:"description"`
}

// BuildTimeline replays the complaint's audit records in chronological order
// into a human-readable narrative. The first entry is always the synthetic
// submission event. Records whose new_values repeat the previously seen state
// are collapsed; records matching no known delta pattern are skipped. Pure,
// side-effect-free projection: safe to cache and idempotent on unchanged
// audit data.
func BuildTimeline(c *domain.Complaint, records []*domain.AuditRecord, viewer *domain.User, actorName func(uuid.UUID) string) []TimelineEntry {
	timeline := []TimelineEntry{{
		Date:        c.CreatedAt,
		Actor:       "You",
		ActorRole:   "citizen",
		Action:      "Complaint submitted",
		Description: "Your complaint was submitted and forwarded to the responsible entity.",
	}}

	var previousState map[string]any

	for _, rec := range records {
		if rec.Event == domain.EventCreated {
			continue
		}
		if previousState != nil && reflect.DeepEqual(rec.NewValues, previousState) {
			continue
		}

		name, role := describeActor(rec, viewer, actorName)

		action, description := parseAuditEvent(rec, name)
		if action == "" {
			continue
		}
		// Dedup compares against the last state that actually produced an
		// entry; skipped records must not shadow a later real one.
		previousState = rec.NewValues

		timeline = append(timeline, TimelineEntry{
			Date:        rec.CreatedAt,
			Actor:       name,
			ActorRole:   role,
			Action:      action,
			Description: description,
		})
	}

	return timeline
}

func describeActor(rec *domain.AuditRecord, viewer *domain.User, actorName func(uuid.UUID) string) (name, role string) {
	if rec.ActorID == nil {
		return "System", "system"
	}
	if viewer != nil && *rec.ActorID == viewer.ID {
		return "You", "citizen"
	}

	name = actorName(*rec.ActorID)
	if name == "" {
		name = "System"
	}
	return name, "employee"
}

// parseAuditEvent matches a record's old/new deltas against the known
// patterns. Returns an empty action for records with no recognised delta.
func parseAuditEvent(rec *domain.AuditRecord, actorName string) (action, description string) {
	old := rec.OldValues
	new := rec.NewValues

	switch rec.Event {
	case domain.EventRequestMoreInfo:
		return "More information requested",
			"Additional information was requested from you: " + stringValue(new["message"])
	case domain.EventCitizenResponded:
		desc := "You responded to the information request"
		if notes := stringValue(new["notes"]); notes != "" {
			desc += " with the note: " + notes
		}
		return "Responded to information request", desc
	}

	// Status first: a terminal status update carries a lock-release delta in
	// the same record, and the citizen must see the resolution, not the lock.
	if newStatus, ok := new["status"]; ok && !reflect.DeepEqual(newStatus, old["status"]) {
		from := statusLabel(old["status"])
		to := statusLabel(newStatus)
		return "Status updated",
			fmt.Sprintf("Complaint status changed from %q to %q by %s", from, to, actorName)
	}

	newLock, newHasLock := new["locked_by"]
	oldLock := old["locked_by"]

	if newHasLock && newLock != nil && oldLock == nil {
		return "Complaint locked",
			fmt.Sprintf("%s locked the complaint to begin processing it", actorName)
	}

	if newHasLock && newLock == nil && oldLock != nil {
		return "Complaint unlocked",
			fmt.Sprintf("%s released the complaint lock", actorName)
	}

	return "", ""
}

// statusLabel renders an audit status value, which after a JSON round trip
// through the store arrives as an untyped string (or nil when the field was
// absent from the delta).
func statusLabel(v any) string {
	s := stringValue(v)
	if s == "" {
		return "Unspecified"
	}

	label := domain.ComplaintStatus(s).Label()
	if label == "Unknown" {
		return "Unspecified"
	}
	return label
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
