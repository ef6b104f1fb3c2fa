// Package admin serves /api/admin: the audit trail, site counters and the
// background task controls.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/noorhub/internal/app/store/audit"
	orderstore "github.com/dalemusser/noorhub/internal/app/store/orders"
	"github.com/dalemusser/noorhub/internal/app/store/sessions"
	userstore "github.com/dalemusser/noorhub/internal/app/store/users"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/app/system/tasks"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/app/system/urlparam"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const auditPageSize = 50

type Handler struct {
	audit    *audit.Store
	users    *userstore.Store
	orders   *orderstore.Store
	sessions *sessions.Store
	runner   *tasks.Runner
	log      *zap.Logger
}

// NewHandler builds the handler. runner may be nil when background tasks
// are disabled.
func NewHandler(db *mongo.Database, runner *tasks.Runner, logger *zap.Logger) *Handler {
	return &Handler{
		audit:    audit.New(db),
		users:    userstore.New(db),
		orders:   orderstore.New(db),
		sessions: sessions.New(db),
		runner:   runner,
		log:      logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	jsonutil.Fail(w, r, h.log, err)
}

func optionalID(r *http.Request, name string) (*primitive.ObjectID, error) {
	raw := urlparam.String(r, name)
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, apperr.Invalid("Invalid "+name, name)
	}
	return &id, nil
}

// parseSince accepts RFC 3339 or a bare date.
func parseSince(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.Invalid("since must be a date (YYYY-MM-DD) or RFC 3339 time", "since")
}

// AuditLog handles GET /api/admin/audit.
func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	f := audit.QueryFilter{
		Category:  urlparam.String(r, "category"),
		EventType: urlparam.String(r, "eventType"),
	}
	var err error
	if f.UserID, err = optionalID(r, "userId"); err != nil {
		h.fail(w, r, err)
		return
	}
	if f.ActorID, err = optionalID(r, "actorId"); err != nil {
		h.fail(w, r, err)
		return
	}
	if f.Since, err = parseSince(urlparam.String(r, "since")); err != nil {
		h.fail(w, r, err)
		return
	}
	p := pagination.FromRequest(r, auditPageSize)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	events, total, err := h.audit.List(ctx, f, p)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	jsonutil.List(w, "events", events, pagination.NewMeta(p, total), false)
}

// Stats handles GET /api/admin/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	users, err := h.users.CountByRole(ctx, models.RoleUser)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	admins, err := h.users.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	active, err := h.sessions.CountActive(ctx)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	orders, err := h.orders.CountByStatus(ctx)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	jsonutil.OK(w, map[string]any{
		"users":          users,
		"admins":         admins,
		"activeSessions": active,
		"orders":         orders,
	})
}

// Tasks handles GET /api/admin/tasks.
func (h *Handler) Tasks(w http.ResponseWriter, r *http.Request) {
	list := []tasks.Status{}
	if h.runner != nil {
		list = h.runner.Snapshot()
	}
	jsonutil.OK(w, map[string]any{"tasks": list})
}

// RunTask handles POST /api/admin/tasks/{name}/run. The run is synchronous;
// a failing job still answers 200 with the error in its status.
func (h *Handler) RunTask(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		h.fail(w, r, apperr.NotConfigured("Background tasks are disabled", nil))
		return
	}
	name := chi.URLParam(r, "name")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.runner.RunOnce(ctx, name); err != nil {
		if errors.Is(err, tasks.ErrUnknownJob) {
			h.fail(w, r, apperr.NotFound("Task"))
			return
		}
		h.log.Warn("manual task run failed", zap.String("task", name), zap.Error(err))
	}
	for _, st := range h.runner.Snapshot() {
		if st.Name == name {
			jsonutil.OK(w, map[string]any{"task": st})
			return
		}
	}
	h.fail(w, r, apperr.NotFound("Task"))
}
