// Package users serves account management at /api/users.
package users

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/noorhub/internal/app/store/audit"
	bookingstore "github.com/dalemusser/noorhub/internal/app/store/bookings"
	bookmarkstore "github.com/dalemusser/noorhub/internal/app/store/bookmarks"
	"github.com/dalemusser/noorhub/internal/app/store/sessions"
	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	userstore "github.com/dalemusser/noorhub/internal/app/store/users"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/auditlog"
	"github.com/dalemusser/noorhub/internal/app/system/authutil"
	"github.com/dalemusser/noorhub/internal/app/system/authz"
	"github.com/dalemusser/noorhub/internal/app/system/inputval"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/normalize"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/app/system/urlparam"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const defaultLimit = 20

type Handler struct {
	users     *userstore.Store
	sessions  *sessions.Store
	bookmarks *bookmarkstore.Store
	bookings  *bookingstore.Store
	audit     *auditlog.Logger
	log       *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		users:     userstore.New(db),
		sessions:  sessions.New(db),
		bookmarks: bookmarkstore.New(db),
		bookings:  bookingstore.New(db),
		audit:     audit,
		log:       logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if storeutil.IsNotFound(err) {
		err = apperr.NotFound("User")
	}
	jsonutil.Fail(w, r, h.log, err)
}

// List handles GET /api/users?search=&role= (admin).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.RequireAdmin(r); err != nil {
		h.fail(w, r, err)
		return
	}
	p := pagination.FromRequest(r, defaultLimit)
	f := userstore.ListFilter{Search: urlparam.String(r, "search")}
	if raw := urlparam.String(r, "role"); raw != "" {
		role, ok := models.ParseRole(raw)
		if !ok {
			h.fail(w, r, apperr.Invalid("Role must be user or admin.", "role"))
			return
		}
		f.Role = role
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, total, err := h.users.List(ctx, f, p)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	jsonutil.List(w, "users", items, pagination.NewMeta(p, total), false)
}

// target resolves {id} for a caller who must be that user or an admin.
// Other users get 404, as if the account did not exist.
func (h *Handler) target(r *http.Request) (primitive.ObjectID, error) {
	id, err := urlparam.ObjectID(r, "id")
	if err != nil {
		return id, err
	}
	if _, err := authz.RequireUser(r); err != nil {
		return id, err
	}
	if !authz.CanModify(r, id) {
		return id, apperr.NotFound("User")
	}
	return id, nil
}

// Get handles GET /api/users/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.target(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.users.GetByID(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Item(w, "user", u, false)
}

type updateInput struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

// Update handles PUT /api/users/{id}. A user may change their own name and
// avatar; admins may also change role and status of other accounts.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := h.target(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	caller, _ := authz.Identity(r)
	self := caller.UserID() == id

	var in updateInput
	if err := jsonutil.DecodeBody(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	var upd userstore.UpdateInput
	if in.Name != nil {
		n := normalize.Name(*in.Name)
		if err := inputval.Length("name", "Name", n, 1, authutil.MaxNameLength); err != nil {
			h.fail(w, r, err)
			return
		}
		upd.Name = &n
	}
	if in.Avatar != nil {
		a := strings.TrimSpace(*in.Avatar)
		if err := inputval.URL("avatar", "Avatar", a); err != nil {
			h.fail(w, r, err)
			return
		}
		upd.Avatar = &a
	}
	if in.Role != nil || in.Status != nil {
		if !caller.IsAdmin() {
			h.fail(w, r, apperr.Forbidden("Only admins can change role or status"))
			return
		}
		if self {
			h.fail(w, r, apperr.BadRequest("You cannot change your own role or status"))
			return
		}
	}
	if in.Role != nil {
		role, ok := models.ParseRole(*in.Role)
		if !ok {
			h.fail(w, r, apperr.Invalid("Role must be user or admin.", "role"))
			return
		}
		upd.Role = &role
	}
	if in.Status != nil {
		st := normalize.Status(*in.Status)
		if st != models.StatusActive && st != models.StatusDisabled {
			h.fail(w, r, apperr.Invalid("Status must be active or disabled.", "status"))
			return
		}
		upd.Status = &st
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	prev, err := h.users.GetByID(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.users.Update(ctx, id, upd)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}

	if upd.Role != nil && prev.Role != u.Role {
		h.audit.UserChanged(r, audit.EventUserRoleChanged, id, map[string]string{"from": string(prev.Role), "to": string(u.Role)})
	}
	if upd.Status != nil && prev.Status != u.Status {
		h.audit.UserChanged(r, audit.EventUserStatusChanged, id, map[string]string{"from": prev.Status, "to": u.Status})
		if u.Status == models.StatusDisabled {
			h.revoke(ctx, id)
		}
	}
	jsonutil.Item(w, "user", u, false)
}

func (h *Handler) revoke(ctx context.Context, id primitive.ObjectID) {
	if _, err := h.sessions.CloseByUser(ctx, id, sessions.EndRevoked); err != nil {
		h.log.Warn("failed to close sessions", zap.String("user_id", id.Hex()), zap.Error(err))
	}
}

// Delete handles DELETE /api/users/{id} (admin). Admins cannot delete
// their own account. The user's bookmarks and bookings go with it; orders
// and questions stay.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.RequireAdmin(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := urlparam.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if caller.UserID() == id {
		h.fail(w, r, apperr.BadRequest("You cannot delete your own account"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.users.Delete(ctx, id)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	if n == 0 {
		h.fail(w, r, apperr.NotFound("User"))
		return
	}
	h.revoke(ctx, id)
	_, err1 := h.bookmarks.DeleteByUser(ctx, id)
	_, err2 := h.bookings.DeleteByUser(ctx, id)
	if err := errors.Join(err1, err2); err != nil {
		h.log.Warn("failed to remove data of deleted user", zap.String("user_id", id.Hex()), zap.Error(err))
	}
	h.audit.UserChanged(r, audit.EventUserDeleted, id, nil)
	jsonutil.Message(w, "User deleted")
}
