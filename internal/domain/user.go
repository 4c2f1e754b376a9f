package domain

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCitizen  Role = "citizen"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Fine-grained permission grants on top of the primary role.
const (
	PermHandleComplaints = "complaints.handle"
	PermViewAnyComplaint = "complaints.view-any"
	PermViewMyComplaints = "complaints.view-my"
)

// User is any authenticated principal. Employees carry a home entity;
// citizens and admins do not. FailedLogins/LockedUntil implement the
// account-lockout policy on repeated bad credentials.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string // argon2id
	Role         Role
	EntityID     *uuid.UUID
	Permissions  []string
	FailedLogins int
	LockedUntil  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) HasRole(r Role) bool {
	return u.Role == r
}

// Can reports whether the user holds a fine-grained permission grant.
// Admins implicitly hold every grant.
func (u *User) Can(perm string) bool {
	if u.Role == RoleAdmin {
		return true
	}
	return slices.Contains(u.Permissions, perm)
}

// BelongsToEntity reports whether the user's home entity is entityID.
func (u *User) BelongsToEntity(entityID uuid.UUID) bool {
	return u.EntityID != nil && *u.EntityID == entityID
}

// AccountLocked reports whether the lockout window is still open.
func (u *User) AccountLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	UpdateLoginState(ctx context.Context, id uuid.UUID, failedLogins int, lockedUntil *time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByRole(ctx context.Context, role Role) ([]*User, error)
}

// Entity is a government department that complaints are filed against and
// employees belong to.
type Entity struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type EntityRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Entity, error)
	List(ctx context.Context) ([]*Entity, error)
}
