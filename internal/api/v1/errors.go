package v1

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/shakwa/internal/domain"
)

// mapError translates domain sentinels into HTTP problem responses.
// Authorization failures map to 404 for citizen-facing lookups upstream
// (the service already converts those); what reaches here as ErrForbidden
// is a genuine 403.
func mapError(err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("not found")
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden("insufficient permissions")
	case errors.Is(err, domain.ErrAlreadyLocked):
		return huma.Error409Conflict("complaint is locked by another employee")
	case errors.Is(err, domain.ErrLockedByOther):
		return huma.Error409Conflict("complaint is locked by another employee")
	case errors.Is(err, domain.ErrLockRequired):
		return huma.Error409Conflict("complaint must be locked before updating")
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict("conflicting request")
	case errors.Is(err, domain.ErrInvalidTransition):
		return huma.Error422UnprocessableEntity("status transition not allowed")
	case errors.Is(err, domain.ErrUnsupportedFile):
		return huma.Error422UnprocessableEntity("attachment type not allowed")
	case errors.Is(err, domain.ErrAttachmentLimit):
		return huma.Error422UnprocessableEntity("attachment limit exceeded")
	default:
		return huma.Error500InternalServerError(fallback, err)
	}
}
