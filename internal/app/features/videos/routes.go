package videos

import (
	"github.com/dalemusser/noorhub/internal/app/system/auth"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts at /api/videos.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/{id}/like", h.Like)
		pr.Post("/{id}/dislike", h.Dislike)
		pr.Post("/{id}/bookmark", h.Bookmark)
		pr.Post("/{id}/comments", h.AddComment)
		pr.Delete("/{id}/comments/{commentId}", h.DeleteComment)
		pr.Post("/{id}/comments/{commentId}/replies", h.AddReply)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireRole(models.RoleAdmin))
		ar.Post("/", h.Create)
		ar.Put("/{id}", h.Update)
		ar.Delete("/{id}", h.Delete)
	})
	return r
}
