package domain

import "errors"

// Sentinel errors for the domain layer. The API boundary maps these to
// transport status codes; the core never deals in HTTP.
var (
	ErrNotFound           = errors.New("domain: not found")
	ErrConflict           = errors.New("domain: conflict")
	ErrForbidden          = errors.New("domain: forbidden")
	ErrAlreadyLocked      = errors.New("domain: complaint is locked by another employee")
	ErrLockRequired       = errors.New("domain: complaint must be locked before this operation")
	ErrLockedByOther      = errors.New("domain: complaint lock is held by another employee")
	ErrInvalidTransition  = errors.New("domain: invalid status transition")
	ErrUnsupportedFile    = errors.New("domain: unsupported file type")
	ErrAttachmentLimit    = errors.New("domain: attachment limit exceeded")
	ErrDuplicateReference = errors.New("domain: duplicate reference number")
)
