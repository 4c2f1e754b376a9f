// Package policy is the single authorization gate for complaint operations.
// Every mutating operation calls Can before touching state; callers never do
// ad-hoc role comparisons inline.
package policy

import (
	"github.com/gosuda/shakwa/internal/domain"
)

type Action string

const (
	ActionView        Action = "view"
	ActionUpdate      Action = "update" // status change
	ActionLock        Action = "lock"
	ActionUnlock      Action = "unlock"
	ActionAssign      Action = "assign"
	ActionAddNote     Action = "add_note"
	ActionRequestInfo Action = "request_more_info"
	ActionRespondInfo Action = "respond_to_info_request"
)

// Can evaluates whether actor may perform action on the complaint. Pure
// function, no side effects. Denials carry no reason to avoid leaking
// complaint existence or state.
func Can(actor *domain.User, action Action, c *domain.Complaint) bool {
	if actor == nil || c == nil {
		return false
	}

	switch action {
	case ActionView:
		if actor.HasRole(domain.RoleAdmin) || actor.Can(domain.PermViewAnyComplaint) {
			return true
		}
		if actor.HasRole(domain.RoleEmployee) && actor.BelongsToEntity(c.EntityID) {
			return true
		}
		return actor.ID == c.UserID

	case ActionUpdate, ActionLock:
		if actor.HasRole(domain.RoleAdmin) {
			return true
		}
		return actor.Can(domain.PermHandleComplaints) &&
			((c.AssignedTo != nil && *c.AssignedTo == actor.ID) || actor.BelongsToEntity(c.EntityID))

	case ActionUnlock:
		if actor.HasRole(domain.RoleAdmin) {
			return true
		}
		// Self-release only: an employee of the entity may release a lock
		// they themselves hold.
		return actor.HasRole(domain.RoleEmployee) &&
			actor.BelongsToEntity(c.EntityID) &&
			c.HeldBy(actor.ID)

	case ActionAssign:
		return actor.HasRole(domain.RoleAdmin)

	case ActionAddNote, ActionRequestInfo:
		return actor.BelongsToEntity(c.EntityID)

	case ActionRespondInfo:
		return actor.ID == c.UserID && c.Status == domain.StatusUnderReview

	default:
		return false
	}
}

// CanViewAll reports whether actor may list every complaint in the system.
func CanViewAll(actor *domain.User) bool {
	if actor == nil {
		return false
	}
	return actor.HasRole(domain.RoleAdmin) || actor.Can(domain.PermViewAnyComplaint)
}

// CanViewNew reports whether actor may list incoming new complaints.
func CanViewNew(actor *domain.User) bool {
	if actor == nil {
		return false
	}
	return actor.HasRole(domain.RoleEmployee) || actor.Can(domain.PermViewMyComplaints)
}

// CanViewMine reports whether actor may list complaints assigned to or
// locked by them.
func CanViewMine(actor *domain.User) bool {
	if actor == nil {
		return false
	}
	return actor.HasRole(domain.RoleEmployee) || actor.HasRole(domain.RoleAdmin) ||
		actor.Can(domain.PermViewMyComplaints)
}
