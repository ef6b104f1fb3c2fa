package payments

import (
	"github.com/dalemusser/noorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the bKash endpoints. The callback is reached by a browser
// redirect from bKash and carries no CSRF token.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/callback", h.Callback)
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/create", h.Create)
		pr.Post("/execute", h.Execute)
	})
	return r
}
