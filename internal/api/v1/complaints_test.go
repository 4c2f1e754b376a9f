package v1_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/shakwa/internal/api/v1"
	"github.com/gosuda/shakwa/internal/complaint"
	"github.com/gosuda/shakwa/internal/domain"
)

func complaintFixture(userID uuid.UUID) *domain.Complaint {
	now := time.Now()
	return &domain.Complaint{
		ID:          uuid.New(),
		Reference:   "REF-1234567890",
		UserID:      userID,
		EntityID:    uuid.New(),
		Type:        "roads",
		Location:    "5th district",
		Description: "Pothole on the main street",
		Status:      domain.StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ---------------------------------------------------------------------------
// POST /complaints
// ---------------------------------------------------------------------------

func TestSubmitComplaint(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		citizen := citizenFixture()
		fixture := complaintFixture(citizen.ID)

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			submitFunc: func(_ context.Context, actor *domain.User, in complaint.SubmitInput, meta domain.RequestMeta) (*domain.Complaint, error) {
				assert.Equal(t, citizen.ID, actor.ID)
				assert.Equal(t, fixture.EntityID, in.EntityID)
				assert.Equal(t, "roads", in.Type)
				assert.Equal(t, "203.0.113.9", meta.IP)
				require.Len(t, in.Files, 1)
				assert.Equal(t, "photo.jpg", in.Files[0].Name)
				assert.Equal(t, "image/jpeg", in.Files[0].Mime)
				content, err := io.ReadAll(in.Files[0].Content)
				require.NoError(t, err)
				assert.Equal(t, []byte("jpeg-bytes"), content)
				assert.Equal(t, int64(len("jpeg-bytes")), in.Files[0].Size)
				return fixture, nil
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.PostCtx(userCtx(citizen), "/complaints", map[string]any{
			"entity_id":   fixture.EntityID.String(),
			"type":        "roads",
			"location":    "5th district",
			"description": "Pothole on the main street",
			"attachments": []map[string]any{{
				"name": "photo.jpg",
				"mime": "image/jpeg",
				"data": base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")),
			}},
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body v1.ComplaintView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, fixture.Reference, body.Reference)
		assert.Equal(t, domain.StatusNew, body.Status)
		assert.Equal(t, domain.StatusNew.Label(), body.StatusLabel)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterComplaintRoutes(api, &mockComplaintService{})

		resp := api.Post("/complaints", map[string]any{
			"entity_id":   uuid.New().String(),
			"type":        "roads",
			"location":    "somewhere",
			"description": "something broke",
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("unsupported_attachment", func(t *testing.T) {
		t.Parallel()

		citizen := citizenFixture()

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			submitFunc: func(_ context.Context, _ *domain.User, _ complaint.SubmitInput, _ domain.RequestMeta) (*domain.Complaint, error) {
				return nil, fmt.Errorf("complaint.Submit: %w", domain.ErrUnsupportedFile)
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.PostCtx(userCtx(citizen), "/complaints", map[string]any{
			"entity_id":   uuid.New().String(),
			"type":        "roads",
			"location":    "somewhere",
			"description": "something broke",
			"attachments": []map[string]any{{
				"name": "malware.exe",
				"mime": "application/octet-stream",
				"data": base64.StdEncoding.EncodeToString([]byte("MZ")),
			}},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// GET /complaints/{reference} and /track
// ---------------------------------------------------------------------------

func TestGetComplaint(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		citizen := citizenFixture()
		fixture := complaintFixture(citizen.ID)

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, actor *domain.User, ref string) (*domain.Complaint, error) {
				assert.Equal(t, citizen.ID, actor.ID)
				assert.Equal(t, fixture.Reference, ref)
				return fixture, nil
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.GetCtx(userCtx(citizen), "/complaints/"+fixture.Reference)

		require.Equal(t, http.StatusOK, resp.Code)

		var body v1.ComplaintView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, fixture.ID, body.ID)
	})

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()

		citizen := citizenFixture()

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
				return nil, fmt.Errorf("complaint.GetByReference: %w", domain.ErrNotFound)
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.GetCtx(userCtx(citizen), "/complaints/REF-DEADBEEF00")

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("other_citizen_complaint_hidden", func(t *testing.T) {
		t.Parallel()

		citizen := citizenFixture()

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
				return nil, fmt.Errorf("complaint.GetByReference: %w", domain.ErrNotFound)
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.GetCtx(userCtx(citizen), "/complaints/REF-AAAAAAAAAA")

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestTrackComplaint(t *testing.T) {
	t.Parallel()

	citizen := citizenFixture()

	_, api := humatest.New(t)
	svc := &mockComplaintService{
		trackFunc: func(_ context.Context, actor *domain.User, ref string) (*complaint.TrackView, error) {
			assert.Equal(t, citizen.ID, actor.ID)
			assert.Equal(t, "REF-1234567890", ref)
			return &complaint.TrackView{
				Reference:   "REF-1234567890",
				Status:      domain.StatusProcessing,
				StatusLabel: domain.StatusProcessing.Label(),
				EntityName:  "Roads Authority",
				Timeline: []complaint.TimelineEntry{
					{Action: "submitted", ActorRole: "citizen"},
					{Action: "status_changed", ActorRole: "employee"},
				},
			}, nil
		},
	}
	v1.RegisterComplaintRoutes(api, svc)

	resp := api.GetCtx(userCtx(citizen), "/complaints/REF-1234567890/track")

	require.Equal(t, http.StatusOK, resp.Code)

	var body complaint.TrackView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Roads Authority", body.EntityName)
	assert.Len(t, body.Timeline, 2)
}

// ---------------------------------------------------------------------------
// POST /complaints/{reference}/lock and /unlock
// ---------------------------------------------------------------------------

func TestLockComplaint(t *testing.T) {
	t.Parallel()

	entityID := uuid.New()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		employee := employeeFixture(entityID)
		fixture := complaintFixture(uuid.New())
		fixture.EntityID = entityID

		locked := *fixture
		locked.LockedBy = &employee.ID
		now := time.Now()
		locked.LockedAt = &now

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, ref string) (*domain.Complaint, error) {
				assert.Equal(t, fixture.Reference, ref)
				return fixture, nil
			},
			lockFunc: func(_ context.Context, actor *domain.User, id uuid.UUID, _ domain.RequestMeta) (*domain.Complaint, error) {
				assert.Equal(t, employee.ID, actor.ID)
				assert.Equal(t, fixture.ID, id)
				return &locked, nil
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.PostCtx(userCtx(employee), "/complaints/"+fixture.Reference+"/lock", map[string]any{})

		require.Equal(t, http.StatusOK, resp.Code)

		var body v1.ComplaintView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.NotNil(t, body.LockedBy)
		assert.Equal(t, employee.ID, *body.LockedBy)
	})

	t.Run("locked_by_another", func(t *testing.T) {
		t.Parallel()

		employee := employeeFixture(entityID)
		fixture := complaintFixture(uuid.New())

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
				return fixture, nil
			},
			lockFunc: func(_ context.Context, _ *domain.User, _ uuid.UUID, _ domain.RequestMeta) (*domain.Complaint, error) {
				return nil, fmt.Errorf("complaint.Lock: %w", domain.ErrAlreadyLocked)
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.PostCtx(userCtx(employee), "/complaints/"+fixture.Reference+"/lock", map[string]any{})

		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("citizen_forbidden", func(t *testing.T) {
		t.Parallel()

		citizen := citizenFixture()
		fixture := complaintFixture(citizen.ID)

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
				return fixture, nil
			},
			lockFunc: func(_ context.Context, _ *domain.User, _ uuid.UUID, _ domain.RequestMeta) (*domain.Complaint, error) {
				return nil, fmt.Errorf("complaint.Lock: %w", domain.ErrForbidden)
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.PostCtx(userCtx(citizen), "/complaints/"+fixture.Reference+"/lock", map[string]any{})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestUnlockComplaint(t *testing.T) {
	t.Parallel()

	entityID := uuid.New()
	employee := employeeFixture(entityID)
	fixture := complaintFixture(uuid.New())

	_, api := humatest.New(t)
	svc := &mockComplaintService{
		getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
			return fixture, nil
		},
		unlockFunc: func(_ context.Context, actor *domain.User, id uuid.UUID, _ domain.RequestMeta) (*domain.Complaint, error) {
			assert.Equal(t, employee.ID, actor.ID)
			assert.Equal(t, fixture.ID, id)
			return fixture, nil
		},
	}
	v1.RegisterComplaintRoutes(api, svc)

	resp := api.PostCtx(userCtx(employee), "/complaints/"+fixture.Reference+"/unlock", map[string]any{})

	require.Equal(t, http.StatusOK, resp.Code)

	var body v1.ComplaintView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Nil(t, body.LockedBy)
}

// ---------------------------------------------------------------------------
// POST /complaints/{reference}/status
// ---------------------------------------------------------------------------

func TestUpdateComplaintStatus(t *testing.T) {
	t.Parallel()

	entityID := uuid.New()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		employee := employeeFixture(entityID)
		fixture := complaintFixture(uuid.New())

		updated := *fixture
		updated.Status = domain.StatusProcessing

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
				return fixture, nil
			},
			updateStatusFunc: func(_ context.Context, actor *domain.User, id uuid.UUID, newStatus domain.ComplaintStatus, notes string, _ domain.RequestMeta) (*domain.Complaint, error) {
				assert.Equal(t, employee.ID, actor.ID)
				assert.Equal(t, fixture.ID, id)
				assert.Equal(t, domain.StatusProcessing, newStatus)
				assert.Equal(t, "taking this one", notes)
				return &updated, nil
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.PostCtx(userCtx(employee), "/complaints/"+fixture.Reference+"/status", map[string]any{
			"status": "processing",
			"notes":  "taking this one",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body v1.ComplaintView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, domain.StatusProcessing, body.Status)
	})

	t.Run("invalid_transition", func(t *testing.T) {
		t.Parallel()

		employee := employeeFixture(entityID)
		fixture := complaintFixture(uuid.New())

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
				return fixture, nil
			},
			updateStatusFunc: func(_ context.Context, _ *domain.User, _ uuid.UUID, _ domain.ComplaintStatus, _ string, _ domain.RequestMeta) (*domain.Complaint, error) {
				return nil, fmt.Errorf("complaint.UpdateStatus: %w", domain.ErrInvalidTransition)
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.PostCtx(userCtx(employee), "/complaints/"+fixture.Reference+"/status", map[string]any{
			"status": "done",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("lock_required", func(t *testing.T) {
		t.Parallel()

		employee := employeeFixture(entityID)
		fixture := complaintFixture(uuid.New())

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
				return fixture, nil
			},
			updateStatusFunc: func(_ context.Context, _ *domain.User, _ uuid.UUID, _ domain.ComplaintStatus, _ string, _ domain.RequestMeta) (*domain.Complaint, error) {
				return nil, fmt.Errorf("complaint.UpdateStatus: %w", domain.ErrLockRequired)
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.PostCtx(userCtx(employee), "/complaints/"+fixture.Reference+"/status", map[string]any{
			"status": "processing",
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// POST /complaints/{reference}/assign
// ---------------------------------------------------------------------------

func TestAssignComplaint(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		admin := adminFixture()
		fixture := complaintFixture(uuid.New())
		targetID := uuid.New()

		assigned := *fixture
		assigned.AssignedTo = &targetID

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
				return fixture, nil
			},
			assignFunc: func(_ context.Context, actor *domain.User, id, employeeID uuid.UUID, _ domain.RequestMeta) (*domain.Complaint, error) {
				assert.Equal(t, admin.ID, actor.ID)
				assert.Equal(t, fixture.ID, id)
				assert.Equal(t, targetID, employeeID)
				return &assigned, nil
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.PostCtx(userCtx(admin), "/complaints/"+fixture.Reference+"/assign", map[string]any{
			"employee_id": targetID.String(),
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body v1.ComplaintView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.NotNil(t, body.AssignedTo)
		assert.Equal(t, targetID, *body.AssignedTo)
	})

	t.Run("employee_forbidden", func(t *testing.T) {
		t.Parallel()

		employee := employeeFixture(uuid.New())
		fixture := complaintFixture(uuid.New())

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
				return fixture, nil
			},
			assignFunc: func(_ context.Context, _ *domain.User, _, _ uuid.UUID, _ domain.RequestMeta) (*domain.Complaint, error) {
				return nil, fmt.Errorf("complaint.Assign: %w", domain.ErrForbidden)
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.PostCtx(userCtx(employee), "/complaints/"+fixture.Reference+"/assign", map[string]any{
			"employee_id": uuid.New().String(),
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// Notes
// ---------------------------------------------------------------------------

func TestComplaintNotes(t *testing.T) {
	t.Parallel()

	entityID := uuid.New()
	employee := employeeFixture(entityID)
	fixture := complaintFixture(uuid.New())

	t.Run("add", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
				return fixture, nil
			},
			addNoteFunc: func(_ context.Context, actor *domain.User, id uuid.UUID, text string, _ domain.RequestMeta) (*domain.Note, error) {
				assert.Equal(t, employee.ID, actor.ID)
				assert.Equal(t, fixture.ID, id)
				assert.Equal(t, "called the citizen", text)
				return &domain.Note{
					ID:          uuid.New(),
					ComplaintID: id,
					UserID:      actor.ID,
					Note:        text,
					CreatedAt:   time.Now(),
				}, nil
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.PostCtx(userCtx(employee), "/complaints/"+fixture.Reference+"/notes", map[string]any{
			"note": "called the citizen",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body v1.NoteView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "called the citizen", body.Note)
	})

	t.Run("list", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
				return fixture, nil
			},
			notesFunc: func(_ context.Context, _ *domain.User, complaintID uuid.UUID) ([]*domain.Note, error) {
				assert.Equal(t, fixture.ID, complaintID)
				return []*domain.Note{
					{ID: uuid.New(), ComplaintID: complaintID, Note: "first"},
					{ID: uuid.New(), ComplaintID: complaintID, Note: "second"},
				}, nil
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.GetCtx(userCtx(employee), "/complaints/"+fixture.Reference+"/notes")

		require.Equal(t, http.StatusOK, resp.Code)

		var body []*v1.NoteView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 2)
		assert.Equal(t, "first", body[0].Note)
	})

	t.Run("citizen_forbidden", func(t *testing.T) {
		t.Parallel()

		citizen := citizenFixture()

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
				return fixture, nil
			},
			notesFunc: func(_ context.Context, _ *domain.User, _ uuid.UUID) ([]*domain.Note, error) {
				return nil, fmt.Errorf("complaint.Notes: %w", domain.ErrForbidden)
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.GetCtx(userCtx(citizen), "/complaints/"+fixture.Reference+"/notes")

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// Information request round trip
// ---------------------------------------------------------------------------

func TestInformationRequestFlow(t *testing.T) {
	t.Parallel()

	entityID := uuid.New()
	employee := employeeFixture(entityID)
	citizen := citizenFixture()
	fixture := complaintFixture(citizen.ID)

	t.Run("request_more_info", func(t *testing.T) {
		t.Parallel()

		underReview := *fixture
		underReview.Status = domain.StatusUnderReview

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
				return fixture, nil
			},
			requestMoreInfoFunc: func(_ context.Context, actor *domain.User, id uuid.UUID, message string, _ domain.RequestMeta) (*domain.Complaint, error) {
				assert.Equal(t, employee.ID, actor.ID)
				assert.Equal(t, fixture.ID, id)
				assert.Equal(t, "please send a photo of the damage", message)
				return &underReview, nil
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.PostCtx(userCtx(employee), "/complaints/"+fixture.Reference+"/request-info", map[string]any{
			"message": "please send a photo of the damage",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body v1.ComplaintView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, domain.StatusUnderReview, body.Status)
	})

	t.Run("latest_message", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
				return fixture, nil
			},
			latestInfoFunc: func(_ context.Context, complaintID uuid.UUID) (string, error) {
				assert.Equal(t, fixture.ID, complaintID)
				return "please send a photo of the damage", nil
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.GetCtx(userCtx(citizen), "/complaints/"+fixture.Reference+"/info-request")

		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "please send a photo of the damage", body.Message)
	})

	t.Run("citizen_responds", func(t *testing.T) {
		t.Parallel()

		backToProcessing := *fixture
		backToProcessing.Status = domain.StatusProcessing

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
				return fixture, nil
			},
			citizenRespondFunc: func(_ context.Context, actor *domain.User, id uuid.UUID, notes string, files []complaint.File, _ domain.RequestMeta) (*domain.Complaint, error) {
				assert.Equal(t, citizen.ID, actor.ID)
				assert.Equal(t, fixture.ID, id)
				assert.Equal(t, "photo attached", notes)
				require.Len(t, files, 1)
				assert.Equal(t, "damage.png", files[0].Name)
				return &backToProcessing, nil
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.PostCtx(userCtx(citizen), "/complaints/"+fixture.Reference+"/respond", map[string]any{
			"notes": "photo attached",
			"attachments": []map[string]any{{
				"name": "damage.png",
				"mime": "image/png",
				"data": base64.StdEncoding.EncodeToString([]byte("png-bytes")),
			}},
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body v1.ComplaintView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, domain.StatusProcessing, body.Status)
	})
}

// ---------------------------------------------------------------------------
// Attachments
// ---------------------------------------------------------------------------

func TestListComplaintAttachments(t *testing.T) {
	t.Parallel()

	citizen := citizenFixture()
	fixture := complaintFixture(citizen.ID)

	_, api := humatest.New(t)
	svc := &mockComplaintService{
		getByReferenceFunc: func(_ context.Context, _ *domain.User, _ string) (*domain.Complaint, error) {
			return fixture, nil
		},
		attachmentsFunc: func(_ context.Context, complaintID uuid.UUID) ([]*domain.Attachment, error) {
			assert.Equal(t, fixture.ID, complaintID)
			return []*domain.Attachment{{
				ID:          uuid.New(),
				ComplaintID: complaintID,
				StoragePath: "complaints/abc.jpg",
				FileName:    "photo.jpg",
				FileType:    "jpg",
				FileSize:    1234,
				MimeType:    "image/jpeg",
			}}, nil
		},
	}
	v1.RegisterComplaintRoutes(api, svc)

	resp := api.GetCtx(userCtx(citizen), "/complaints/"+fixture.Reference+"/attachments")

	require.Equal(t, http.StatusOK, resp.Code)

	var body []*v1.AttachmentView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "photo.jpg", body[0].FileName)
	assert.Equal(t, "http://files.local/complaints/abc.jpg", body[0].URL)
}

// ---------------------------------------------------------------------------
// Lists
// ---------------------------------------------------------------------------

func TestListComplaints(t *testing.T) {
	t.Parallel()

	t.Run("dashboard", func(t *testing.T) {
		t.Parallel()

		citizen := citizenFixture()

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			dashboardFunc: func(_ context.Context, actor *domain.User) ([]*domain.Complaint, error) {
				assert.Equal(t, citizen.ID, actor.ID)
				return []*domain.Complaint{complaintFixture(citizen.ID)}, nil
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.GetCtx(userCtx(citizen), "/complaints")

		require.Equal(t, http.StatusOK, resp.Code)

		var body []*v1.ComplaintView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Len(t, body, 1)
	})

	t.Run("all_with_filters", func(t *testing.T) {
		t.Parallel()

		admin := adminFixture()
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			listAllFunc: func(_ context.Context, actor *domain.User, filter domain.ComplaintFilter) ([]*domain.Complaint, error) {
				assert.Equal(t, admin.ID, actor.ID)
				assert.Equal(t, domain.StatusDone, filter.Status)
				require.NotNil(t, filter.StartDate)
				assert.True(t, filter.StartDate.Equal(start))
				assert.Equal(t, 25, filter.Limit)
				return nil, nil
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.GetCtx(userCtx(admin), "/complaints/all?status=done&start_date=2026-01-01T00:00:00Z&limit=25")

		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("all_rejects_bad_date", func(t *testing.T) {
		t.Parallel()

		admin := adminFixture()

		_, api := humatest.New(t)
		v1.RegisterComplaintRoutes(api, &mockComplaintService{})

		resp := api.GetCtx(userCtx(admin), "/complaints/all?start_date=yesterday")

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("new_queue", func(t *testing.T) {
		t.Parallel()

		employee := employeeFixture(uuid.New())

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			listNewFunc: func(_ context.Context, actor *domain.User) ([]*domain.Complaint, error) {
				assert.Equal(t, employee.ID, actor.ID)
				return []*domain.Complaint{complaintFixture(uuid.New())}, nil
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.GetCtx(userCtx(employee), "/complaints/new")

		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("mine", func(t *testing.T) {
		t.Parallel()

		employee := employeeFixture(uuid.New())

		_, api := humatest.New(t)
		svc := &mockComplaintService{
			listMineFunc: func(_ context.Context, actor *domain.User) ([]*domain.Complaint, error) {
				assert.Equal(t, employee.ID, actor.ID)
				return nil, nil
			},
		}
		v1.RegisterComplaintRoutes(api, svc)

		resp := api.GetCtx(userCtx(employee), "/complaints/mine")

		assert.Equal(t, http.StatusOK, resp.Code)
	})
}

func TestListEntities(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	svc := &mockComplaintService{
		entitiesFunc: func(_ context.Context) ([]*domain.Entity, error) {
			return []*domain.Entity{
				{ID: uuid.New(), Name: "Roads Authority"},
				{ID: uuid.New(), Name: "Water Utility"},
			}, nil
		},
	}
	v1.RegisterComplaintRoutes(api, svc)

	resp := api.Get("/entities")

	require.Equal(t, http.StatusOK, resp.Code)

	var body []*v1.EntityView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 2)
	assert.Equal(t, "Roads Authority", body[0].Name)
}
