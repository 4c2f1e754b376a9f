package v1

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/shakwa/internal/complaint"
	"github.com/gosuda/shakwa/internal/domain"
	"github.com/gosuda/shakwa/internal/server/middleware"
)

// FileUpload is a base64-encoded attachment in a JSON request body.
type FileUpload struct {
	Name string `json:"name" minLength:"1" maxLength:"255" doc:"Original file name"`
	Mime string `json:"mime" minLength:"1" maxLength:"127" doc:"MIME type"`
	Data []byte `json:"data" doc:"Base64-encoded file content"`
}

func toServiceFiles(uploads []FileUpload) []complaint.File {
	files := make([]complaint.File, 0, len(uploads))
	for _, u := range uploads {
		files = append(files, complaint.File{
			Name:    u.Name,
			Mime:    u.Mime,
			Size:    int64(len(u.Data)),
			Content: bytes.NewReader(u.Data),
		})
	}
	return files
}

type SubmitComplaintInput struct {
	Body struct {
		EntityID    uuid.UUID    `json:"entity_id" doc:"Entity the complaint is filed against"`
		Type        string       `json:"type" minLength:"1" maxLength:"100" doc:"Complaint category"`
		Location    string       `json:"location" minLength:"1" maxLength:"255" doc:"Incident location"`
		Description string       `json:"description" minLength:"1" maxLength:"5000" doc:"Complaint details"`
		Attachments []FileUpload `json:"attachments,omitempty" maxItems:"10" doc:"Optional supporting files"`
	}
}

type ComplaintOutput struct {
	Body *ComplaintView
}

type ComplaintListOutput struct {
	Body []*ComplaintView
}

type GetComplaintInput struct {
	Reference string `path:"reference" doc:"Complaint reference number"`
}

type TrackComplaintInput struct {
	Reference string `path:"reference" doc:"Complaint reference number"`
}

type TrackComplaintOutput struct {
	Body *complaint.TrackView
}

type LockComplaintInput struct {
	Reference string `path:"reference" doc:"Complaint reference number"`
}

type UpdateStatusInput struct {
	Reference string `path:"reference" doc:"Complaint reference number"`
	Body      struct {
		Status domain.ComplaintStatus `json:"status" minLength:"1" doc:"Target status"`
		Notes  string                 `json:"notes,omitempty" maxLength:"2000" doc:"Optional status note"`
	}
}

type AssignComplaintInput struct {
	Reference string `path:"reference" doc:"Complaint reference number"`
	Body      struct {
		EmployeeID uuid.UUID `json:"employee_id" doc:"Employee to assign"`
	}
}

type AddNoteInput struct {
	Reference string `path:"reference" doc:"Complaint reference number"`
	Body      struct {
		Note string `json:"note" minLength:"1" maxLength:"2000" doc:"Note text"`
	}
}

type AddNoteOutput struct {
	Body *NoteView
}

type ListNotesInput struct {
	Reference string `path:"reference" doc:"Complaint reference number"`
}

type ListNotesOutput struct {
	Body []*NoteView
}

type RequestInfoInput struct {
	Reference string `path:"reference" doc:"Complaint reference number"`
	Body      struct {
		Message string `json:"message" minLength:"1" maxLength:"2000" doc:"What is being asked of the citizen"`
	}
}

type RespondInput struct {
	Reference string `path:"reference" doc:"Complaint reference number"`
	Body      struct {
		Notes       string       `json:"notes,omitempty" maxLength:"5000" doc:"Citizen's response text"`
		Attachments []FileUpload `json:"attachments,omitempty" maxItems:"10" doc:"Supporting files"`
	}
}

type LatestInfoRequestInput struct {
	Reference string `path:"reference" doc:"Complaint reference number"`
}

type LatestInfoRequestOutput struct {
	Body struct {
		Message string `json:"message" doc:"Most recent information request, empty when none"`
	}
}

type ListAttachmentsInput struct {
	Reference string `path:"reference" doc:"Complaint reference number"`
}

type ListAttachmentsOutput struct {
	Body []*AttachmentView
}

type ListAllComplaintsInput struct {
	Status    string `query:"status" doc:"Filter by status"`
	StartDate string `query:"start_date" doc:"Filter: created on or after (RFC 3339 date)"`
	EndDate   string `query:"end_date" doc:"Filter: created on or before (RFC 3339 date)"`
	Limit     int    `query:"limit" minimum:"0" maximum:"1000" doc:"Page size (default 100)"`
	Offset    int    `query:"offset" minimum:"0" doc:"Page offset"`
}

type ListEntitiesOutput struct {
	Body []*EntityView
}

// actorFromContext pulls the authenticated user placed by the Auth
// middleware. Handlers behind the middleware treat absence as a 401.
func actorFromContext(ctx context.Context) (*domain.User, error) {
	actor, ok := middleware.UserFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication required")
	}
	return actor, nil
}

// resolveComplaint maps a reference to the complaint, applying view policy.
func resolveComplaint(ctx context.Context, svc ComplaintService, actor *domain.User, ref string) (*domain.Complaint, error) {
	c, err := svc.GetByReference(ctx, actor, ref)
	if err != nil {
		return nil, mapError(err, "failed to load complaint")
	}
	return c, nil
}

func RegisterComplaintRoutes(api huma.API, svc ComplaintService) {
	huma.Register(api, huma.Operation{
		OperationID: "submit-complaint",
		Method:      http.MethodPost,
		Path:        "/complaints",
		Summary:     "File a new complaint",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, input *SubmitComplaintInput) (*ComplaintOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		c, err := svc.Submit(ctx, actor, complaint.SubmitInput{
			EntityID:    input.Body.EntityID,
			Type:        input.Body.Type,
			Location:    input.Body.Location,
			Description: input.Body.Description,
			Files:       toServiceFiles(input.Body.Attachments),
		}, middleware.MetaFromContext(ctx))
		if err != nil {
			return nil, mapError(err, "failed to submit complaint")
		}

		return &ComplaintOutput{Body: complaintView(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-complaints",
		Method:      http.MethodGet,
		Path:        "/complaints",
		Summary:     "List complaints visible to the caller",
		Description: "Citizens see their own complaints, employees their entity's queue, admins everything.",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, _ *struct{}) (*ComplaintListOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		complaints, err := svc.Dashboard(ctx, actor)
		if err != nil {
			return nil, mapError(err, "failed to list complaints")
		}

		return &ComplaintListOutput{Body: complaintViews(complaints)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-all-complaints",
		Method:      http.MethodGet,
		Path:        "/complaints/all",
		Summary:     "List every complaint with filters (admin)",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, input *ListAllComplaintsInput) (*ComplaintListOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		filter := domain.ComplaintFilter{
			Status: domain.ComplaintStatus(input.Status),
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.StartDate != "" {
			t, parseErr := time.Parse(time.RFC3339, input.StartDate)
			if parseErr != nil {
				return nil, huma.Error422UnprocessableEntity("start_date must be RFC 3339")
			}
			filter.StartDate = &t
		}
		if input.EndDate != "" {
			t, parseErr := time.Parse(time.RFC3339, input.EndDate)
			if parseErr != nil {
				return nil, huma.Error422UnprocessableEntity("end_date must be RFC 3339")
			}
			filter.EndDate = &t
		}

		complaints, err := svc.ListAll(ctx, actor, filter)
		if err != nil {
			return nil, mapError(err, "failed to list complaints")
		}

		return &ComplaintListOutput{Body: complaintViews(complaints)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-new-complaints",
		Method:      http.MethodGet,
		Path:        "/complaints/new",
		Summary:     "List unprocessed complaints in the caller's queue",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, _ *struct{}) (*ComplaintListOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		complaints, err := svc.ListNew(ctx, actor)
		if err != nil {
			return nil, mapError(err, "failed to list complaints")
		}

		return &ComplaintListOutput{Body: complaintViews(complaints)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-my-complaints",
		Method:      http.MethodGet,
		Path:        "/complaints/mine",
		Summary:     "List complaints assigned to or locked by the caller",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, _ *struct{}) (*ComplaintListOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		complaints, err := svc.ListMine(ctx, actor)
		if err != nil {
			return nil, mapError(err, "failed to list complaints")
		}

		return &ComplaintListOutput{Body: complaintViews(complaints)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-complaint",
		Method:      http.MethodGet,
		Path:        "/complaints/{reference}",
		Summary:     "Get a complaint by reference",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, input *GetComplaintInput) (*ComplaintOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		c, err := resolveComplaint(ctx, svc, actor, input.Reference)
		if err != nil {
			return nil, err
		}

		return &ComplaintOutput{Body: complaintView(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "track-complaint",
		Method:      http.MethodGet,
		Path:        "/complaints/{reference}/track",
		Summary:     "Track a complaint's progress and timeline",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, input *TrackComplaintInput) (*TrackComplaintOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		view, err := svc.Track(ctx, actor, input.Reference)
		if err != nil {
			return nil, mapError(err, "failed to build tracking view")
		}

		return &TrackComplaintOutput{Body: view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "lock-complaint",
		Method:      http.MethodPost,
		Path:        "/complaints/{reference}/lock",
		Summary:     "Acquire the handling lock",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, input *LockComplaintInput) (*ComplaintOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		c, err := resolveComplaint(ctx, svc, actor, input.Reference)
		if err != nil {
			return nil, err
		}

		locked, err := svc.Lock(ctx, actor, c.ID, middleware.MetaFromContext(ctx))
		if err != nil {
			return nil, mapError(err, "failed to lock complaint")
		}

		return &ComplaintOutput{Body: complaintView(locked)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unlock-complaint",
		Method:      http.MethodPost,
		Path:        "/complaints/{reference}/unlock",
		Summary:     "Release the handling lock",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, input *LockComplaintInput) (*ComplaintOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		c, err := resolveComplaint(ctx, svc, actor, input.Reference)
		if err != nil {
			return nil, err
		}

		unlocked, err := svc.Unlock(ctx, actor, c.ID, middleware.MetaFromContext(ctx))
		if err != nil {
			return nil, mapError(err, "failed to unlock complaint")
		}

		return &ComplaintOutput{Body: complaintView(unlocked)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-complaint-status",
		Method:      http.MethodPost,
		Path:        "/complaints/{reference}/status",
		Summary:     "Move the complaint to a new status",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, input *UpdateStatusInput) (*ComplaintOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		c, err := resolveComplaint(ctx, svc, actor, input.Reference)
		if err != nil {
			return nil, err
		}

		updated, err := svc.UpdateStatus(ctx, actor, c.ID, input.Body.Status, input.Body.Notes, middleware.MetaFromContext(ctx))
		if err != nil {
			return nil, mapError(err, "failed to update status")
		}

		return &ComplaintOutput{Body: complaintView(updated)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-complaint",
		Method:      http.MethodPost,
		Path:        "/complaints/{reference}/assign",
		Summary:     "Assign the complaint to an employee (admin)",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, input *AssignComplaintInput) (*ComplaintOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		c, err := resolveComplaint(ctx, svc, actor, input.Reference)
		if err != nil {
			return nil, err
		}

		assigned, err := svc.Assign(ctx, actor, c.ID, input.Body.EmployeeID, middleware.MetaFromContext(ctx))
		if err != nil {
			return nil, mapError(err, "failed to assign complaint")
		}

		return &ComplaintOutput{Body: complaintView(assigned)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-complaint-note",
		Method:      http.MethodPost,
		Path:        "/complaints/{reference}/notes",
		Summary:     "Add an internal note",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, input *AddNoteInput) (*AddNoteOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		c, err := resolveComplaint(ctx, svc, actor, input.Reference)
		if err != nil {
			return nil, err
		}

		n, err := svc.AddNote(ctx, actor, c.ID, input.Body.Note, middleware.MetaFromContext(ctx))
		if err != nil {
			return nil, mapError(err, "failed to add note")
		}

		return &AddNoteOutput{Body: noteView(n)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-complaint-notes",
		Method:      http.MethodGet,
		Path:        "/complaints/{reference}/notes",
		Summary:     "List internal notes",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, input *ListNotesInput) (*ListNotesOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		c, err := resolveComplaint(ctx, svc, actor, input.Reference)
		if err != nil {
			return nil, err
		}

		notes, err := svc.Notes(ctx, actor, c.ID)
		if err != nil {
			return nil, mapError(err, "failed to list notes")
		}

		out := &ListNotesOutput{Body: make([]*NoteView, 0, len(notes))}
		for _, n := range notes {
			out.Body = append(out.Body, noteView(n))
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "request-more-info",
		Method:      http.MethodPost,
		Path:        "/complaints/{reference}/request-info",
		Summary:     "Ask the citizen for more information",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, input *RequestInfoInput) (*ComplaintOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		c, err := resolveComplaint(ctx, svc, actor, input.Reference)
		if err != nil {
			return nil, err
		}

		updated, err := svc.RequestMoreInfo(ctx, actor, c.ID, input.Body.Message, middleware.MetaFromContext(ctx))
		if err != nil {
			return nil, mapError(err, "failed to request information")
		}

		return &ComplaintOutput{Body: complaintView(updated)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "respond-to-info-request",
		Method:      http.MethodPost,
		Path:        "/complaints/{reference}/respond",
		Summary:     "Respond to an information request",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, input *RespondInput) (*ComplaintOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		c, err := resolveComplaint(ctx, svc, actor, input.Reference)
		if err != nil {
			return nil, err
		}

		updated, err := svc.CitizenRespond(ctx, actor, c.ID, input.Body.Notes, toServiceFiles(input.Body.Attachments), middleware.MetaFromContext(ctx))
		if err != nil {
			return nil, mapError(err, "failed to submit response")
		}

		return &ComplaintOutput{Body: complaintView(updated)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "latest-info-request",
		Method:      http.MethodGet,
		Path:        "/complaints/{reference}/info-request",
		Summary:     "Get the most recent information request",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, input *LatestInfoRequestInput) (*LatestInfoRequestOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		c, err := resolveComplaint(ctx, svc, actor, input.Reference)
		if err != nil {
			return nil, err
		}

		msg, err := svc.LatestInfoRequestMessage(ctx, c.ID)
		if err != nil {
			return nil, mapError(err, "failed to load information request")
		}

		out := &LatestInfoRequestOutput{}
		out.Body.Message = msg
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-complaint-attachments",
		Method:      http.MethodGet,
		Path:        "/complaints/{reference}/attachments",
		Summary:     "List complaint attachments",
		Tags:        []string{"Complaints"},
	}, func(ctx context.Context, input *ListAttachmentsInput) (*ListAttachmentsOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		c, err := resolveComplaint(ctx, svc, actor, input.Reference)
		if err != nil {
			return nil, err
		}

		atts, err := svc.Attachments(ctx, c.ID)
		if err != nil {
			return nil, mapError(err, "failed to list attachments")
		}

		out := &ListAttachmentsOutput{Body: make([]*AttachmentView, 0, len(atts))}
		for _, a := range atts {
			out.Body = append(out.Body, &AttachmentView{
				ID:        a.ID,
				FileName:  a.FileName,
				FileType:  a.FileType,
				FileSize:  a.FileSize,
				MimeType:  a.MimeType,
				URL:       svc.AttachmentURL(a.StoragePath),
				CreatedAt: a.CreatedAt,
			})
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-entities",
		Method:      http.MethodGet,
		Path:        "/entities",
		Summary:     "List entities complaints can be filed against",
		Tags:        []string{"Entities"},
	}, func(ctx context.Context, _ *struct{}) (*ListEntitiesOutput, error) {
		entities, err := svc.Entities(ctx)
		if err != nil {
			return nil, mapError(err, "failed to list entities")
		}

		out := &ListEntitiesOutput{Body: make([]*EntityView, 0, len(entities))}
		for _, e := range entities {
			out.Body = append(out.Body, &EntityView{ID: e.ID, Name: e.Name})
		}
		return out, nil
	})
}
