package hadith

import (
	"github.com/dalemusser/noorhub/internal/app/system/auth"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts at /api/hadith.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireRole(models.RoleAdmin))
		ar.Post("/", h.Create)
		ar.Put("/{id}", h.Update)
		ar.Delete("/{id}", h.Delete)
	})
	return r
}
