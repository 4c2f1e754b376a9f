package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/shakwa/internal/auth"
	"github.com/gosuda/shakwa/internal/domain"
	"github.com/gosuda/shakwa/internal/server/middleware"
)

type CreateEmployeeInput struct {
	Body struct {
		Name        string    `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Email       string    `json:"email" minLength:"3" maxLength:"255" doc:"Work email"`
		Password    string    `json:"password" minLength:"8" maxLength:"128" doc:"Initial password"` //nolint:gosec // G117: account management DTO
		EntityID    uuid.UUID `json:"entity_id" doc:"Entity the employee belongs to"`
		Permissions []string  `json:"permissions,omitempty" doc:"Granted permissions"`
	}
}

type UpdateEmployeeInput struct {
	EmployeeID uuid.UUID `path:"id" doc:"Employee ID"`
	Body       struct {
		Name        string    `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Email       string    `json:"email" minLength:"3" maxLength:"255" doc:"Work email"`
		Password    string    `json:"password,omitempty" maxLength:"128" doc:"New password, empty keeps the current one"` //nolint:gosec // G117: account management DTO
		EntityID    uuid.UUID `json:"entity_id" doc:"Entity the employee belongs to"`
		Permissions []string  `json:"permissions,omitempty" doc:"Granted permissions"`
	}
}

type EmployeeOutput struct {
	Body *UserView
}

type DeleteEmployeeInput struct {
	EmployeeID uuid.UUID `path:"id" doc:"Employee ID"`
}

type ListEmployeesOutput struct {
	Body []*UserView
}

type ListActionLogsInput struct {
	UserID string `query:"user_id" doc:"Filter by acting user ID"`
	Action string `query:"action" doc:"Filter by action name"`
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" doc:"Page size (default 100)"`
	Offset int    `query:"offset" minimum:"0" doc:"Page offset"`
}

type ListActionLogsOutput struct {
	Body []*ActionLogView
}

func employeeInput(name, email, password string, entityID uuid.UUID, permissions []string) auth.EmployeeInput {
	return auth.EmployeeInput{
		Name:        name,
		Email:       email,
		Password:    password,
		EntityID:    entityID,
		Permissions: permissions,
	}
}

func mapEmployeeError(err error, fallback string) error {
	switch {
	case errors.Is(err, auth.ErrUserAlreadyExists):
		return huma.Error409Conflict("email already in use")
	case errors.Is(err, auth.ErrUserNotFound):
		return huma.Error404NotFound("employee not found")
	default:
		return mapError(err, fallback)
	}
}

func RegisterUserRoutes(api huma.API, authSvc AuthService, logs ActionLogStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-employees",
		Method:      http.MethodGet,
		Path:        "/employees",
		Summary:     "List employee accounts (admin)",
		Tags:        []string{"Employees"},
	}, func(ctx context.Context, _ *struct{}) (*ListEmployeesOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		employees, err := authSvc.ListEmployees(ctx, actor)
		if err != nil {
			return nil, mapEmployeeError(err, "failed to list employees")
		}

		return &ListEmployeesOutput{Body: userViews(employees)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-employee",
		Method:      http.MethodPost,
		Path:        "/employees",
		Summary:     "Create an employee account (admin)",
		Tags:        []string{"Employees"},
	}, func(ctx context.Context, input *CreateEmployeeInput) (*EmployeeOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		employee, err := authSvc.CreateEmployee(ctx, actor, employeeInput(
			input.Body.Name, input.Body.Email, input.Body.Password,
			input.Body.EntityID, input.Body.Permissions,
		), middleware.MetaFromContext(ctx))
		if err != nil {
			return nil, mapEmployeeError(err, "failed to create employee")
		}

		return &EmployeeOutput{Body: userView(employee)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-employee",
		Method:      http.MethodPut,
		Path:        "/employees/{id}",
		Summary:     "Update an employee account (admin)",
		Tags:        []string{"Employees"},
	}, func(ctx context.Context, input *UpdateEmployeeInput) (*EmployeeOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		employee, err := authSvc.UpdateEmployee(ctx, actor, input.EmployeeID, employeeInput(
			input.Body.Name, input.Body.Email, input.Body.Password,
			input.Body.EntityID, input.Body.Permissions,
		), middleware.MetaFromContext(ctx))
		if err != nil {
			return nil, mapEmployeeError(err, "failed to update employee")
		}

		return &EmployeeOutput{Body: userView(employee)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-employee",
		Method:      http.MethodDelete,
		Path:        "/employees/{id}",
		Summary:     "Delete an employee account (admin)",
		Tags:        []string{"Employees"},
	}, func(ctx context.Context, input *DeleteEmployeeInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := authSvc.DeleteEmployee(ctx, actor, input.EmployeeID, middleware.MetaFromContext(ctx)); err != nil {
			return nil, mapEmployeeError(err, "failed to delete employee")
		}

		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-action-logs",
		Method:      http.MethodGet,
		Path:        "/logs",
		Summary:     "List the action log (admin)",
		Tags:        []string{"Logs"},
	}, func(ctx context.Context, input *ListActionLogsInput) (*ListActionLogsOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}
		if actor.Role != domain.RoleAdmin {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		filter := domain.ActionLogFilter{
			Action: input.Action,
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.UserID != "" {
			id, parseErr := uuid.Parse(input.UserID)
			if parseErr != nil {
				return nil, huma.Error422UnprocessableEntity("user_id must be a UUID")
			}
			filter.UserID = &id
		}

		entries, err := logs.List(ctx, filter)
		if err != nil {
			return nil, mapError(err, "failed to list action logs")
		}

		out := &ListActionLogsOutput{Body: make([]*ActionLogView, 0, len(entries))}
		for _, e := range entries {
			out.Body = append(out.Body, &ActionLogView{
				ID:        e.ID,
				UserID:    e.UserID,
				Action:    e.Action,
				Details:   e.Details,
				IP:        e.IP,
				UserAgent: e.UserAgent,
				CreatedAt: e.CreatedAt,
			})
		}
		return out, nil
	})
}
