package questions

import (
	"github.com/dalemusser/noorhub/internal/app/system/auth"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts at /api/questions.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/", h.Create)
		pr.Put("/{id}", h.Update)
		pr.Delete("/{id}", h.Delete)
	})
	r.With(sm.RequireRole(models.RoleAdmin)).Post("/{id}/answer", h.Answer)
	return r
}
