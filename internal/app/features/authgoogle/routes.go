package authgoogle

import "github.com/go-chi/chi/v5"

// Routes returns a chi.Router with Google OAuth routes mounted.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Start)
	r.Get("/callback", h.Callback)
	return r
}
