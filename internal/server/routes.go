package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/shakwa/internal/api/v1"
	"github.com/gosuda/shakwa/internal/api/ws"
	"github.com/gosuda/shakwa/internal/auth"
	"github.com/gosuda/shakwa/internal/complaint"
	"github.com/gosuda/shakwa/internal/server/middleware"
	"github.com/gosuda/shakwa/internal/store/postgres"
)

func registerAuthRoutes(api huma.API, authSvc *auth.Service) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, authSvc *auth.Service, complaintSvc *complaint.Service) {
	v1.RegisterComplaintRoutes(api, complaintSvc)
	v1.RegisterUserRoutes(api, authSvc, store.ActionLogs())
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	// The citizen event stream is scoped to the authenticated citizen's own
	// channel; staff have no business subscribing to it.
	r.With(middleware.RequireRole(middleware.RoleCitizen)).Get("/citizen", hub.ServeCitizen)
}
