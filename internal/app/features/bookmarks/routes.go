package bookmarks

import (
	"github.com/dalemusser/noorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts at /api/bookmarks.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/check", h.Check)
	r.Delete("/{id}", h.Delete)
	return r
}
