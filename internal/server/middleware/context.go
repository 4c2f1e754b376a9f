package middleware

import (
	"context"

	"github.com/gosuda/shakwa/internal/domain"
)

type contextKey string

const (
	ContextKeyUser        contextKey = "user"
	ContextKeyUserRole    contextKey = "role"
	ContextKeyRequestMeta contextKey = "request_meta"
)

// UserFromContext returns the authenticated user loaded by the Auth
// middleware.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	v, ok := ctx.Value(ContextKeyUser).(*domain.User)
	return v, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyUserRole).(string)
	return v, ok
}

// MetaFromContext returns the client IP and user agent captured at the
// transport boundary. Zero value when the middleware did not run.
func MetaFromContext(ctx context.Context) domain.RequestMeta {
	v, _ := ctx.Value(ContextKeyRequestMeta).(domain.RequestMeta)
	return v
}
