package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/shakwa/internal/auth"
	"github.com/gosuda/shakwa/internal/complaint"
	"github.com/gosuda/shakwa/internal/domain"
)

// ComplaintService abstracts the complaint workflow operations for handler
// testing. *complaint.Service satisfies this interface.
type ComplaintService interface {
	Submit(ctx context.Context, actor *domain.User, in complaint.SubmitInput, meta domain.RequestMeta) (*domain.Complaint, error)
	GetByReference(ctx context.Context, actor *domain.User, ref string) (*domain.Complaint, error)
	Track(ctx context.Context, actor *domain.User, ref string) (*complaint.TrackView, error)

	Lock(ctx context.Context, actor *domain.User, id uuid.UUID, meta domain.RequestMeta) (*domain.Complaint, error)
	Unlock(ctx context.Context, actor *domain.User, id uuid.UUID, meta domain.RequestMeta) (*domain.Complaint, error)
	UpdateStatus(ctx context.Context, actor *domain.User, id uuid.UUID, newStatus domain.ComplaintStatus, notes string, meta domain.RequestMeta) (*domain.Complaint, error)
	Assign(ctx context.Context, actor *domain.User, id, employeeID uuid.UUID, meta domain.RequestMeta) (*domain.Complaint, error)
	RequestMoreInfo(ctx context.Context, actor *domain.User, id uuid.UUID, message string, meta domain.RequestMeta) (*domain.Complaint, error)
	CitizenRespond(ctx context.Context, actor *domain.User, id uuid.UUID, notes string, files []complaint.File, meta domain.RequestMeta) (*domain.Complaint, error)
	LatestInfoRequestMessage(ctx context.Context, complaintID uuid.UUID) (string, error)

	AddNote(ctx context.Context, actor *domain.User, id uuid.UUID, text string, meta domain.RequestMeta) (*domain.Note, error)
	Notes(ctx context.Context, actor *domain.User, complaintID uuid.UUID) ([]*domain.Note, error)
	Attachments(ctx context.Context, complaintID uuid.UUID) ([]*domain.Attachment, error)
	AttachmentURL(storagePath string) string

	Dashboard(ctx context.Context, actor *domain.User) ([]*domain.Complaint, error)
	ListAll(ctx context.Context, actor *domain.User, filter domain.ComplaintFilter) ([]*domain.Complaint, error)
	ListNew(ctx context.Context, actor *domain.User) ([]*domain.Complaint, error)
	ListMine(ctx context.Context, actor *domain.User) ([]*domain.Complaint, error)
	Entities(ctx context.Context) ([]*domain.Entity, error)
}

// AuthService abstracts authentication and account management for handler
// testing. *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, name, email, password string, meta domain.RequestMeta) (*domain.User, error)
	Login(ctx context.Context, email, password string, meta domain.RequestMeta) (accessToken, refreshToken string, user *domain.User, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)

	CreateEmployee(ctx context.Context, actor *domain.User, in auth.EmployeeInput, meta domain.RequestMeta) (*domain.User, error)
	UpdateEmployee(ctx context.Context, actor *domain.User, employeeID uuid.UUID, in auth.EmployeeInput, meta domain.RequestMeta) (*domain.User, error)
	DeleteEmployee(ctx context.Context, actor *domain.User, employeeID uuid.UUID, meta domain.RequestMeta) error
	ListEmployees(ctx context.Context, actor *domain.User) ([]*domain.User, error)
}

// ActionLogStore abstracts action-log reads for the admin log endpoint.
type ActionLogStore interface {
	List(ctx context.Context, filter domain.ActionLogFilter) ([]*domain.ActionLog, error)
}
