package v1

import (
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/shakwa/internal/domain"
)

// UserView is the public shape of a user account. The password hash and
// lockout bookkeeping never leave the server.
type UserView struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	EntityID    *uuid.UUID `json:"entity_id,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func userView(u *domain.User) *UserView {
	return &UserView{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		EntityID:    u.EntityID,
		Permissions: u.Permissions,
		CreatedAt:   u.CreatedAt,
	}
}

func userViews(users []*domain.User) []*UserView {
	out := make([]*UserView, 0, len(users))
	for _, u := range users {
		out = append(out, userView(u))
	}
	return out
}

type ComplaintView struct {
	ID          uuid.UUID              `json:"id"`
	Reference   string                 `json:"reference_number"`
	UserID      uuid.UUID              `json:"user_id"`
	EntityID    uuid.UUID              `json:"entity_id"`
	Type        string                 `json:"type"`
	Location    string                 `json:"location"`
	Description string                 `json:"description"`
	Status      domain.ComplaintStatus `json:"status"`
	StatusLabel string                 `json:"status_label"`
	LockedBy    *uuid.UUID             `json:"locked_by,omitempty"`
	LockedAt    *time.Time             `json:"locked_at,omitempty"`
	AssignedTo  *uuid.UUID             `json:"assigned_to,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

func complaintView(c *domain.Complaint) *ComplaintView {
	return &ComplaintView{
		ID:          c.ID,
		Reference:   c.Reference,
		UserID:      c.UserID,
		EntityID:    c.EntityID,
		Type:        c.Type,
		Location:    c.Location,
		Description: c.Description,
		Status:      c.Status,
		StatusLabel: c.Status.Label(),
		LockedBy:    c.LockedBy,
		LockedAt:    c.LockedAt,
		AssignedTo:  c.AssignedTo,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func complaintViews(complaints []*domain.Complaint) []*ComplaintView {
	out := make([]*ComplaintView, 0, len(complaints))
	for _, c := range complaints {
		out = append(out, complaintView(c))
	}
	return out
}

type NoteView struct {
	ID          uuid.UUID `json:"id"`
	ComplaintID uuid.UUID `json:"complaint_id"`
	UserID      uuid.UUID `json:"user_id"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
}

func noteView(n *domain.Note) *NoteView {
	return &NoteView{
		ID:          n.ID,
		ComplaintID: n.ComplaintID,
		UserID:      n.UserID,
		Note:        n.Note,
		CreatedAt:   n.CreatedAt,
	}
}

type AttachmentView struct {
	ID        uuid.UUID `json:"id"`
	FileName  string    `json:"file_name"`
	FileType  string    `json:"file_type"`
	FileSize  int64     `json:"file_size"`
	MimeType  string    `json:"mime_type"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type EntityView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ActionLogView struct {
	ID        uuid.UUID      `json:"id"`
	UserID    *uuid.UUID     `json:"user_id,omitempty"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	IP        string         `json:"ip_address"`
	UserAgent string         `json:"user_agent"`
	CreatedAt time.Time      `json:"created_at"`
}
