package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/shakwa/internal/auth"
	"github.com/gosuda/shakwa/internal/complaint"
	"github.com/gosuda/shakwa/internal/domain"
	"github.com/gosuda/shakwa/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject the authenticated user the way the Auth
// middleware does, so handlers can be exercised via DoCtx
// ---------------------------------------------------------------------------

func userCtx(u *domain.User) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyUser, u)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, string(u.Role))
	ctx = context.WithValue(ctx, middleware.ContextKeyRequestMeta, domain.RequestMeta{
		IP:        "203.0.113.9",
		UserAgent: "test-agent",
	})
	return ctx
}

func citizenFixture() *domain.User {
	return &domain.User{ID: uuid.New(), Name: "Amina", Email: "amina@example.com", Role: domain.RoleCitizen}
}

func employeeFixture(entityID uuid.UUID) *domain.User {
	return &domain.User{
		ID:          uuid.New(),
		Name:        "Omar",
		Email:       "omar@agency.gov",
		Role:        domain.RoleEmployee,
		EntityID:    &entityID,
		Permissions: []string{domain.PermHandleComplaints},
	}
}

func adminFixture() *domain.User {
	return &domain.User{ID: uuid.New(), Name: "Root", Email: "admin@agency.gov", Role: domain.RoleAdmin}
}

// ---------------------------------------------------------------------------
// Mock ComplaintService
// ---------------------------------------------------------------------------

type mockComplaintService struct {
	submitFunc          func(ctx context.Context, actor *domain.User, in complaint.SubmitInput, meta domain.RequestMeta) (*domain.Complaint, error)
	getByReferenceFunc  func(ctx context.Context, actor *domain.User, ref string) (*domain.Complaint, error)
	trackFunc           func(ctx context.Context, actor *domain.User, ref string) (*complaint.TrackView, error)
	lockFunc            func(ctx context.Context, actor *domain.User, id uuid.UUID, meta domain.RequestMeta) (*domain.Complaint, error)
	unlockFunc          func(ctx context.Context, actor *domain.User, id uuid.UUID, meta domain.RequestMeta) (*domain.Complaint, error)
	updateStatusFunc    func(ctx context.Context, actor *domain.User, id uuid.UUID, newStatus domain.ComplaintStatus, notes string, meta domain.RequestMeta) (*domain.Complaint, error)
	assignFunc          func(ctx context.Context, actor *domain.User, id, employeeID uuid.UUID, meta domain.RequestMeta) (*domain.Complaint, error)
	requestMoreInfoFunc func(ctx context.Context, actor *domain.User, id uuid.UUID, message string, meta domain.RequestMeta) (*domain.Complaint, error)
	citizenRespondFunc  func(ctx context.Context, actor *domain.User, id uuid.UUID, notes string, files []complaint.File, meta domain.RequestMeta) (*domain.Complaint, error)
	latestInfoFunc      func(ctx context.Context, complaintID uuid.UUID) (string, error)
	addNoteFunc         func(ctx context.Context, actor *domain.User, id uuid.UUID, text string, meta domain.RequestMeta) (*domain.Note, error)
	notesFunc           func(ctx context.Context, actor *domain.User, complaintID uuid.UUID) ([]*domain.Note, error)
	attachmentsFunc     func(ctx context.Context, complaintID uuid.UUID) ([]*domain.Attachment, error)
	attachmentURLFunc   func(storagePath string) string
	dashboardFunc       func(ctx context.Context, actor *domain.User) ([]*domain.Complaint, error)
	listAllFunc         func(ctx context.Context, actor *domain.User, filter domain.ComplaintFilter) ([]*domain.Complaint, error)
	listNewFunc         func(ctx context.Context, actor *domain.User) ([]*domain.Complaint, error)
	listMineFunc        func(ctx context.Context, actor *domain.User) ([]*domain.Complaint, error)
	entitiesFunc        func(ctx context.Context) ([]*domain.Entity, error)
}

func (m *mockComplaintService) Submit(ctx context.Context, actor *domain.User, in complaint.SubmitInput, meta domain.RequestMeta) (*domain.Complaint, error) {
	return m.submitFunc(ctx, actor, in, meta)
}

func (m *mockComplaintService) GetByReference(ctx context.Context, actor *domain.User, ref string) (*domain.Complaint, error) {
	return m.getByReferenceFunc(ctx, actor, ref)
}

func (m *mockComplaintService) Track(ctx context.Context, actor *domain.User, ref string) (*complaint.TrackView, error) {
	return m.trackFunc(ctx, actor, ref)
}

func (m *mockComplaintService) Lock(ctx context.Context, actor *domain.User, id uuid.UUID, meta domain.RequestMeta) (*domain.Complaint, error) {
	return m.lockFunc(ctx, actor, id, meta)
}

func (m *mockComplaintService) Unlock(ctx context.Context, actor *domain.User, id uuid.UUID, meta domain.RequestMeta) (*domain.Complaint, error) {
	return m.unlockFunc(ctx, actor, id, meta)
}

func (m *mockComplaintService) UpdateStatus(ctx context.Context, actor *domain.User, id uuid.UUID, newStatus domain.ComplaintStatus, notes string, meta domain.RequestMeta) (*domain.Complaint, error) {
	return m.updateStatusFunc(ctx, actor, id, newStatus, notes, meta)
}

func (m *mockComplaintService) Assign(ctx context.Context, actor *domain.User, id, employeeID uuid.UUID, meta domain.RequestMeta) (*domain.Complaint, error) {
	return m.assignFunc(ctx, actor, id, employeeID, meta)
}

func (m *mockComplaintService) RequestMoreInfo(ctx context.Context, actor *domain.User, id uuid.UUID, message string, meta domain.RequestMeta) (*domain.Complaint, error) {
	return m.requestMoreInfoFunc(ctx, actor, id, message, meta)
}

func (m *mockComplaintService) CitizenRespond(ctx context.Context, actor *domain.User, id uuid.UUID, notes string, files []complaint.File, meta domain.RequestMeta) (*domain.Complaint, error) {
	return m.citizenRespondFunc(ctx, actor, id, notes, files, meta)
}

func (m *mockComplaintService) LatestInfoRequestMessage(ctx context.Context, complaintID uuid.UUID) (string, error) {
	return m.latestInfoFunc(ctx, complaintID)
}

func (m *mockComplaintService) AddNote(ctx context.Context, actor *domain.User, id uuid.UUID, text string, meta domain.RequestMeta) (*domain.Note, error) {
	return m.addNoteFunc(ctx, actor, id, text, meta)
}

func (m *mockComplaintService) Notes(ctx context.Context, actor *domain.User, complaintID uuid.UUID) ([]*domain.Note, error) {
	return m.notesFunc(ctx, actor, complaintID)
}

func (m *mockComplaintService) Attachments(ctx context.Context, complaintID uuid.UUID) ([]*domain.Attachment, error) {
	return m.attachmentsFunc(ctx, complaintID)
}

func (m *mockComplaintService) AttachmentURL(storagePath string) string {
	if m.attachmentURLFunc == nil {
		return "http://files.local/" + storagePath
	}
	return m.attachmentURLFunc(storagePath)
}

func (m *mockComplaintService) Dashboard(ctx context.Context, actor *domain.User) ([]*domain.Complaint, error) {
	return m.dashboardFunc(ctx, actor)
}

func (m *mockComplaintService) ListAll(ctx context.Context, actor *domain.User, filter domain.ComplaintFilter) ([]*domain.Complaint, error) {
	return m.listAllFunc(ctx, actor, filter)
}

func (m *mockComplaintService) ListNew(ctx context.Context, actor *domain.User) ([]*domain.Complaint, error) {
	return m.listNewFunc(ctx, actor)
}

func (m *mockComplaintService) ListMine(ctx context.Context, actor *domain.User) ([]*domain.Complaint, error) {
	return m.listMineFunc(ctx, actor)
}

func (m *mockComplaintService) Entities(ctx context.Context) ([]*domain.Entity, error) {
	return m.entitiesFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc       func(ctx context.Context, name, email, password string, meta domain.RequestMeta) (*domain.User, error)
	loginFunc          func(ctx context.Context, email, password string, meta domain.RequestMeta) (string, string, *domain.User, error)
	refreshTokenFunc   func(ctx context.Context, refreshToken string) (string, error)
	createEmployeeFunc func(ctx context.Context, actor *domain.User, in auth.EmployeeInput, meta domain.RequestMeta) (*domain.User, error)
	updateEmployeeFunc func(ctx context.Context, actor *domain.User, employeeID uuid.UUID, in auth.EmployeeInput, meta domain.RequestMeta) (*domain.User, error)
	deleteEmployeeFunc func(ctx context.Context, actor *domain.User, employeeID uuid.UUID, meta domain.RequestMeta) error
	listEmployeesFunc  func(ctx context.Context, actor *domain.User) ([]*domain.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, name, email, password string, meta domain.RequestMeta) (*domain.User, error) {
	return m.registerFunc(ctx, name, email, password, meta)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string, meta domain.RequestMeta) (string, string, *domain.User, error) {
	return m.loginFunc(ctx, email, password, meta)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

func (m *mockAuthService) CreateEmployee(ctx context.Context, actor *domain.User, in auth.EmployeeInput, meta domain.RequestMeta) (*domain.User, error) {
	return m.createEmployeeFunc(ctx, actor, in, meta)
}

func (m *mockAuthService) UpdateEmployee(ctx context.Context, actor *domain.User, employeeID uuid.UUID, in auth.EmployeeInput, meta domain.RequestMeta) (*domain.User, error) {
	return m.updateEmployeeFunc(ctx, actor, employeeID, in, meta)
}

func (m *mockAuthService) DeleteEmployee(ctx context.Context, actor *domain.User, employeeID uuid.UUID, meta domain.RequestMeta) error {
	return m.deleteEmployeeFunc(ctx, actor, employeeID, meta)
}

func (m *mockAuthService) ListEmployees(ctx context.Context, actor *domain.User) ([]*domain.User, error) {
	return m.listEmployeesFunc(ctx, actor)
}

// ---------------------------------------------------------------------------
// Mock ActionLogStore
// ---------------------------------------------------------------------------

type mockActionLogStore struct {
	listFunc func(ctx context.Context, filter domain.ActionLogFilter) ([]*domain.ActionLog, error)
}

func (m *mockActionLogStore) List(ctx context.Context, filter domain.ActionLogFilter) ([]*domain.ActionLog, error) {
	return m.listFunc(ctx, filter)
}
