package auth

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/shakwa/internal/audit"
	"github.com/gosuda/shakwa/internal/domain"
)

// validGrants is the closed set of permission grants an admin may assign.
var validGrants = []string{
	domain.PermHandleComplaints,
	domain.PermViewAnyComplaint,
	domain.PermViewMyComplaints,
}

// EmployeeInput carries the fields an admin sets when provisioning or
// updating an employee account.
type EmployeeInput struct {
	Name        string
	Email       string
	Password    string // empty on update keeps the current password
	EntityID    uuid.UUID
	Permissions []string
}

func (in EmployeeInput) validateGrants() error {
	for _, p := range in.Permissions {
		if !slices.Contains(validGrants, p) {
			return fmt.Errorf("auth: unknown permission %q: %w", p, domain.ErrConflict)
		}
	}
	return nil
}

// CreateEmployee provisions a staff account bound to a home entity.
// Admin only.
func (s *Service) CreateEmployee(ctx context.Context, actor *domain.User, in EmployeeInput, meta domain.RequestMeta) (*domain.User, error) {
	if !actor.HasRole(domain.RoleAdmin) {
		return nil, fmt.Errorf("auth.CreateEmployee: %w", domain.ErrForbidden)
	}

	if err := in.validateGrants(); err != nil {
		return nil, fmt.Errorf("auth.CreateEmployee: %w", err)
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("auth.CreateEmployee: %w", ErrUserAlreadyExists)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("auth.CreateEmployee: %w", err)
	}

	entityID := in.EntityID
	now := time.Now()
	employee := &domain.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.RoleEmployee,
		EntityID:     &entityID,
		Permissions:  in.Permissions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, employee); err != nil {
		return nil, fmt.Errorf("auth.CreateEmployee: %w", err)
	}

	s.actions.Log(&actor.ID, audit.ActionEmployeeCreated, map[string]any{
		"employee_id": employee.ID.String(),
		"entity_id":   entityID.String(),
	}, meta)

	return employee, nil
}

// UpdateEmployee changes a staff account's profile, entity, grants and
// optionally the password. Admin only.
func (s *Service) UpdateEmployee(ctx context.Context, actor *domain.User, employeeID uuid.UUID, in EmployeeInput, meta domain.RequestMeta) (*domain.User, error) {
	if !actor.HasRole(domain.RoleAdmin) {
		return nil, fmt.Errorf("auth.UpdateEmployee: %w", domain.ErrForbidden)
	}

	if err := in.validateGrants(); err != nil {
		return nil, fmt.Errorf("auth.UpdateEmployee: %w", err)
	}

	employee, err := s.userRepo.GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("auth.UpdateEmployee: %w", err)
	}
	if !employee.HasRole(domain.RoleEmployee) {
		return nil, fmt.Errorf("auth.UpdateEmployee: not an employee: %w", domain.ErrConflict)
	}

	employee.Name = in.Name
	employee.Email = in.Email
	entityID := in.EntityID
	employee.EntityID = &entityID
	employee.Permissions = in.Permissions

	if in.Password != "" {
		hash, err := hashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("auth.UpdateEmployee: %w", err)
		}
		employee.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, employee); err != nil {
		return nil, fmt.Errorf("auth.UpdateEmployee: %w", err)
	}

	s.actions.Log(&actor.ID, audit.ActionEmployeeUpdated, map[string]any{
		"employee_id": employee.ID.String(),
	}, meta)

	return employee, nil
}

// DeleteEmployee removes a staff account. Admin only.
func (s *Service) DeleteEmployee(ctx context.Context, actor *domain.User, employeeID uuid.UUID, meta domain.RequestMeta) error {
	if !actor.HasRole(domain.RoleAdmin) {
		return fmt.Errorf("auth.DeleteEmployee: %w", domain.ErrForbidden)
	}

	employee, err := s.userRepo.GetByID(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("auth.DeleteEmployee: %w", err)
	}
	if !employee.HasRole(domain.RoleEmployee) {
		return fmt.Errorf("auth.DeleteEmployee: not an employee: %w", domain.ErrConflict)
	}

	if err := s.userRepo.Delete(ctx, employeeID); err != nil {
		return fmt.Errorf("auth.DeleteEmployee: %w", err)
	}

	s.actions.Log(&actor.ID, audit.ActionEmployeeDeleted, map[string]any{
		"employee_id": employeeID.String(),
	}, meta)

	return nil
}

// ListEmployees returns every staff account. Admin only.
func (s *Service) ListEmployees(ctx context.Context, actor *domain.User) ([]*domain.User, error) {
	if !actor.HasRole(domain.RoleAdmin) {
		return nil, fmt.Errorf("auth.ListEmployees: %w", domain.ErrForbidden)
	}

	users, err := s.userRepo.ListByRole(ctx, domain.RoleEmployee)
	if err != nil {
		return nil, fmt.Errorf("auth.ListEmployees: %w", err)
	}

	return users, nil
}
