package complaint_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/shakwa/internal/complaint"
	"github.com/gosuda/shakwa/internal/domain"
	"github.com/gosuda/shakwa/internal/mailer"
)

// ---------------------------------------------------------------------------
// In-memory DataStore — honors the transactional Mutate contract: fn runs
// under the store lock against a copy, errors roll everything back, the
// attachment ceiling is enforced before commit
// ---------------------------------------------------------------------------

type memStore struct {
	mu sync.Mutex

	complaints  map[uuid.UUID]*domain.Complaint
	refs        map[string]uuid.UUID
	attachments map[uuid.UUID][]*domain.Attachment
	audits      map[uuid.UUID][]*domain.AuditRecord
	notes       map[uuid.UUID][]*domain.Note
	users       map[uuid.UUID]*domain.User
	entities    map[uuid.UUID]*domain.Entity

	refExistsResponses []bool // consumed front-to-back when set
	commitErr          error  // returned by Mutate at commit time, after fn succeeds
}

func newMemStore() *memStore {
	return &memStore{
		complaints:  make(map[uuid.UUID]*domain.Complaint),
		refs:        make(map[string]uuid.UUID),
		attachments: make(map[uuid.UUID][]*domain.Attachment),
		audits:      make(map[uuid.UUID][]*domain.AuditRecord),
		notes:       make(map[uuid.UUID][]*domain.Note),
		users:       make(map[uuid.UUID]*domain.User),
		entities:    make(map[uuid.UUID]*domain.Entity),
	}
}

func (m *memStore) Complaints() domain.ComplaintRepository     { return (*memComplaintRepo)(m) }
func (m *memStore) Attachments() domain.AttachmentRepository   { return (*memAttachmentRepo)(m) }
func (m *memStore) AuditRecords() domain.AuditRecordRepository { return (*memAuditRepo)(m) }
func (m *memStore) Notes() domain.NoteRepository               { return (*memNoteRepo)(m) }
func (m *memStore) Users() domain.UserRepository               { return (*memUserRepo)(m) }
func (m *memStore) Entities() domain.EntityRepository          { return (*memEntityRepo)(m) }

func copyComplaint(c *domain.Complaint) *domain.Complaint {
	cp := *c
	return &cp
}

type memComplaintRepo memStore

func (m *memComplaintRepo) Create(_ context.Context, c *domain.Complaint, atts []*domain.Attachment, rec *domain.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.complaints[c.ID] = copyComplaint(c)
	m.refs[c.Reference] = c.ID
	m.attachments[c.ID] = append(m.attachments[c.ID], atts...)
	m.audits[c.ID] = append(m.audits[c.ID], rec)
	return nil
}

func (m *memComplaintRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.complaints[id]
	if !ok {
		return nil, fmt.Errorf("memComplaintRepo.GetByID: %w", domain.ErrNotFound)
	}
	return copyComplaint(c), nil
}

func (m *memComplaintRepo) GetByReference(_ context.Context, ref string) (*domain.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.refs[ref]
	if !ok {
		return nil, fmt.Errorf("memComplaintRepo.GetByReference: %w", domain.ErrNotFound)
	}
	return copyComplaint(m.complaints[id]), nil
}

func (m *memComplaintRepo) ReferenceExists(_ context.Context, ref string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.refExistsResponses) > 0 {
		exists := m.refExistsResponses[0]
		m.refExistsResponses = m.refExistsResponses[1:]
		return exists, nil
	}

	_, ok := m.refs[ref]
	return ok, nil
}

func (m *memComplaintRepo) Mutate(_ context.Context, id uuid.UUID, fn func(c *domain.Complaint) (*domain.Mutation, error)) (*domain.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.complaints[id]
	if !ok {
		return nil, fmt.Errorf("memComplaintRepo.Mutate: %w", domain.ErrNotFound)
	}

	working := copyComplaint(current)
	mut, err := fn(working)
	if err != nil {
		return nil, err
	}
	if mut == nil {
		return working, nil
	}

	if len(mut.Attachments) > 0 && len(m.attachments[id])+len(mut.Attachments) > domain.MaxAttachments {
		return nil, fmt.Errorf("memComplaintRepo.Mutate: %w", domain.ErrAttachmentLimit)
	}

	// Simulated audit-insert failure: nothing written, the transaction rolls
	// back whole.
	if m.commitErr != nil {
		return nil, fmt.Errorf("memComplaintRepo.Mutate: %w", m.commitErr)
	}

	working.UpdatedAt = time.Now()
	m.complaints[id] = copyComplaint(working)
	m.attachments[id] = append(m.attachments[id], mut.Attachments...)
	if mut.Audit != nil {
		m.audits[id] = append(m.audits[id], mut.Audit)
	}
	return working, nil
}

func (m *memComplaintRepo) ListForCitizen(_ context.Context, userID uuid.UUID) ([]*domain.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Complaint
	for _, c := range m.complaints {
		if c.UserID == userID {
			out = append(out, copyComplaint(c))
		}
	}
	return out, nil
}

func (m *memComplaintRepo) ListForEmployee(_ context.Context, userID uuid.UUID, entityID *uuid.UUID) ([]*domain.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Complaint
	for _, c := range m.complaints {
		assigned := c.AssignedTo != nil && *c.AssignedTo == userID
		sameEntity := entityID != nil && c.EntityID == *entityID
		if assigned || sameEntity {
			out = append(out, copyComplaint(c))
		}
	}
	return out, nil
}

func (m *memComplaintRepo) ListAll(_ context.Context, filter domain.ComplaintFilter) ([]*domain.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Complaint
	for _, c := range m.complaints {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, copyComplaint(c))
	}
	return out, nil
}

func (m *memComplaintRepo) ListNewForEmployee(_ context.Context, _ uuid.UUID, entityID *uuid.UUID) ([]*domain.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Complaint
	for _, c := range m.complaints {
		if c.Status != domain.StatusNew {
			continue
		}
		if entityID != nil && c.EntityID != *entityID {
			continue
		}
		out = append(out, copyComplaint(c))
	}
	return out, nil
}

func (m *memComplaintRepo) ListAssignedOrLocked(_ context.Context, userID uuid.UUID) ([]*domain.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Complaint
	for _, c := range m.complaints {
		assigned := c.AssignedTo != nil && *c.AssignedTo == userID
		locked := c.LockedBy != nil && *c.LockedBy == userID
		if assigned || locked {
			out = append(out, copyComplaint(c))
		}
	}
	return out, nil
}

type memAttachmentRepo memStore

func (m *memAttachmentRepo) ListByComplaint(_ context.Context, complaintID uuid.UUID) ([]*domain.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Attachment(nil), m.attachments[complaintID]...), nil
}

func (m *memAttachmentRepo) CountByComplaint(_ context.Context, complaintID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attachments[complaintID]), nil
}

type memAuditRepo memStore

func (m *memAuditRepo) ListByComplaint(_ context.Context, complaintID uuid.UUID) ([]*domain.AuditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuditRecord(nil), m.audits[complaintID]...), nil
}

func (m *memAuditRepo) LatestByEvent(_ context.Context, complaintID uuid.UUID, event string) (*domain.AuditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.audits[complaintID]
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].Event == event {
			return recs[i], nil
		}
	}
	return nil, fmt.Errorf("memAuditRepo.LatestByEvent: %w", domain.ErrNotFound)
}

type memNoteRepo memStore

func (m *memNoteRepo) Create(_ context.Context, n *domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[n.ComplaintID] = append(m.notes[n.ComplaintID], n)
	return nil
}

func (m *memNoteRepo) ListByComplaint(_ context.Context, complaintID uuid.UUID) ([]*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Note(nil), m.notes[complaintID]...), nil
}

type memUserRepo memStore

func (m *memUserRepo) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("memUserRepo.GetByID: %w", domain.ErrNotFound)
	}
	return u, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("memUserRepo.GetByEmail: %w", domain.ErrNotFound)
}

func (m *memUserRepo) Update(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *memUserRepo) UpdateLoginState(_ context.Context, id uuid.UUID, failedLogins int, lockedUntil *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[id]; ok {
		u.FailedLogins = failedLogins
		u.LockedUntil = lockedUntil
	}
	return nil
}

func (m *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *memUserRepo) ListByRole(_ context.Context, role domain.Role) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

type memEntityRepo memStore

func (m *memEntityRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entities[id]
	if !ok {
		return nil, fmt.Errorf("memEntityRepo.GetByID: %w", domain.ErrNotFound)
	}
	return e, nil
}

func (m *memEntityRepo) List(_ context.Context) ([]*domain.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Entity
	for _, e := range m.entities {
		out = append(out, e)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Side-effect doubles
// ---------------------------------------------------------------------------

type fakeBlobs struct{}

func (fakeBlobs) Put(_ context.Context, pathPrefix, fileName string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	return pathPrefix + "/" + fileName, nil
}

func (fakeBlobs) URL(storagePath string) string { return "http://files.local/" + storagePath }

type captureMail struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (c *captureMail) Queue(m mailer.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, m)
}

func (c *captureMail) messages() []mailer.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]mailer.Message(nil), c.sent...)
}

type capturePublisher struct {
	mu     sync.Mutex
	events map[string][][]byte
}

func (c *capturePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.events == nil {
		c.events = make(map[string][][]byte)
	}
	c.events[channel] = append(c.events[channel], payload)
	return nil
}

func (c *capturePublisher) published(channel string) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.events[channel]...)
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key], nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string][]byte)
	}
	c.entries[key] = value
	c.sets++
	return nil
}

type captureActions struct {
	mu      sync.Mutex
	actions []string
}

func (c *captureActions) Log(_ *uuid.UUID, action string, _ map[string]any, _ domain.RequestMeta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, action)
}

func (c *captureActions) logged() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.actions...)
}

// ---------------------------------------------------------------------------
// Test environment
// ---------------------------------------------------------------------------

type testEnv struct {
	store   *memStore
	mail    *captureMail
	pubsub  *capturePublisher
	cache   *memCache
	actions *captureActions
	svc     *complaint.Service

	entity   *domain.Entity
	citizen  *domain.User
	employee *domain.User
	admin    *domain.User
}

func newTestEnv() *testEnv {
	store := newMemStore()
	mail := &captureMail{}
	pubsub := &capturePublisher{}
	cache := &memCache{}
	actions := &captureActions{}

	entity := &domain.Entity{ID: uuid.New(), Name: "Roads Authority", CreatedAt: time.Now()}
	store.entities[entity.ID] = entity

	citizen := &domain.User{ID: uuid.New(), Name: "Amina", Email: "amina@example.com", Role: domain.RoleCitizen}
	employee := &domain.User{
		ID:          uuid.New(),
		Name:        "Omar",
		Email:       "omar@agency.gov",
		Role:        domain.RoleEmployee,
		EntityID:    &entity.ID,
		Permissions: []string{domain.PermHandleComplaints},
	}
	admin := &domain.User{ID: uuid.New(), Name: "Root", Email: "admin@agency.gov", Role: domain.RoleAdmin}
	for _, u := range []*domain.User{citizen, employee, admin} {
		store.users[u.ID] = u
	}

	return &testEnv{
		store:    store,
		mail:     mail,
		pubsub:   pubsub,
		cache:    cache,
		actions:  actions,
		svc:      complaint.NewService(store, fakeBlobs{}, mail, pubsub, cache, actions, 10*time.Minute),
		entity:   entity,
		citizen:  citizen,
		employee: employee,
		admin:    admin,
	}
}

func (e *testEnv) meta() domain.RequestMeta {
	return domain.RequestMeta{IP: "203.0.113.9", UserAgent: "test-agent"}
}

// submit files a baseline complaint as the env citizen.
func (e *testEnv) submit(t interface {
	Helper()
	Fatalf(format string, args ...any)
}) *domain.Complaint {
	t.Helper()

	c, err := e.svc.Submit(context.Background(), e.citizen, complaint.SubmitInput{
		EntityID:    e.entity.ID,
		Type:        "roads",
		Location:    "5th district",
		Description: "Pothole on the main street",
	}, e.meta())
	if err != nil {
		t.Fatalf("submit fixture: %v", err)
	}
	return c
}
