// Package errors answers the requests no API route handles, in the same
// JSON error shape the handlers use.
package errors

import (
	"net/http"

	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

type Handler struct {
	log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{log: logger}
}

// NotFound is the router's 404 handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	jsonutil.Fail(w, r, h.log, apperr.NotFound("Route"))
}

// MethodNotAllowed is the router's 405 handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonutil.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// CSRFFailure is the csrf.ErrorHandler. The reason is logged, not returned.
func (h *Handler) CSRFFailure(w http.ResponseWriter, r *http.Request) {
	h.log.Info("csrf check failed",
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.NamedError("reason", csrf.FailureReason(r)))
	jsonutil.Fail(w, r, h.log, apperr.Forbidden("Invalid or missing CSRF token"))
}
