package admin

import (
	"github.com/dalemusser/noorhub/internal/app/system/auth"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin endpoints. Every route requires the admin role.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Get("/audit", h.AuditLog)
	r.Get("/stats", h.Stats)
	r.Get("/tasks", h.Tasks)
	r.Post("/tasks/{name}/run", h.RunTask)
	return r
}
