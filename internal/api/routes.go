package api

import (
	"github.com/dennisdiepolder/dropboard/internal/auth"
	"github.com/go-chi/chi/v5"
)

// Handlers groups the handlers served under /api
type Handlers struct {
	Snapshot *SnapshotHandler
	Views    *ViewsHandler
	Admin    *AdminHandler
}

// Routes registers every /api route on r. Authentication must already run
// on r; admin routes add their own role check.
func (h Handlers) Routes(r chi.Router) {
	r.Get("/me", h.Snapshot.Me)
	r.Get("/dashboard", h.Snapshot.Dashboard)
	r.With(auth.RequireAdmin).Get("/performance", h.Snapshot.Performance)

	r.Route("/views", func(r chi.Router) {
		r.Post("/", h.Views.Create)
		r.Get("/{id}", h.Views.Get)
		r.Patch("/{id}", h.Views.Update)
		r.Delete("/{id}", h.Views.Delete)
		r.Post("/{id}/refresh", h.Views.Refresh)
		r.Get("/{id}/export.xlsx", h.Views.Export)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/roles", h.Admin.GetRoles)
		r.Put("/roles", h.Admin.PutRoles)
		r.Post("/roles/reset", h.Admin.ResetRoles)
		r.Post("/roles/{role}/{email}", h.Admin.AddRole)
		r.Delete("/roles/{role}/{email}", h.Admin.RemoveRole)
		r.Post("/refresh", h.Admin.Refresh)
	})
}
