package authapi

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts at /api/auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)
	r.Get("/csrf", h.CSRF)
	return r
}
