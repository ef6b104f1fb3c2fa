// Package authapi serves /api/auth: password registration and sign-in,
// sign-out, the current identity and CSRF tokens.
package authapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/noorhub/internal/app/store/ratelimit"
	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	userstore "github.com/dalemusser/noorhub/internal/app/store/users"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/auditlog"
	"github.com/dalemusser/noorhub/internal/app/system/auth"
	"github.com/dalemusser/noorhub/internal/app/system/authutil"
	"github.com/dalemusser/noorhub/internal/app/system/authz"
	"github.com/dalemusser/noorhub/internal/app/system/inputval"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/mailer"
	"github.com/dalemusser/noorhub/internal/app/system/normalize"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const invalidCredentials = "Invalid email or password"

type Handler struct {
	users   *userstore.Store
	sm      *auth.SessionManager
	limiter *ratelimit.Store // nil disables lockout
	audit   *auditlog.Logger
	mail    mailer.Sender
	site    mailer.Site
	log     *zap.Logger
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, limiter *ratelimit.Store, audit *auditlog.Logger, mail mailer.Sender, site mailer.Site, logger *zap.Logger) *Handler {
	return &Handler{
		users:   userstore.New(db),
		sm:      sm,
		limiter: limiter,
		audit:   audit,
		mail:    mail,
		site:    site,
		log:     logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	jsonutil.Fail(w, r, h.log, err)
}

type registerInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register. The new account has role user
// and is signed in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := jsonutil.DecodeBody(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := inputval.RequireAll(
		inputval.Need("name", normalize.Name(in.Name) != ""),
		inputval.Need("email", normalize.Email(in.Email) != ""),
		inputval.Need("password", in.Password != ""),
	); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := authutil.Resolve(authutil.Registration{Name: in.Name, Email: in.Email, Password: in.Password})
	if err != nil {
		if authutil.IsPolicyError(err) {
			h.fail(w, r, apperr.BadRequest(err.Error()))
			return
		}
		h.fail(w, r, apperr.Internal(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err = h.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			h.fail(w, r, apperr.Invalid("An account with this email already exists", "email"))
			return
		}
		h.fail(w, r, apperr.Internal(err))
		return
	}
	if err := h.sm.SignIn(w, r, &u, models.AuthPassword); err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	h.audit.Registered(r, u.ID, models.AuthPassword)
	h.welcome(&u)
	jsonutil.CreatedItem(w, "user", u)
}

func (h *Handler) welcome(u *models.User) {
	text, html := mailer.WelcomeEmail(mailer.WelcomeEmailData{
		AppName:  h.site.Name,
		UserName: u.Name,
		SiteURL:  h.site.Link("/"),
	})
	mailer.SendAsync(h.mail, h.log, mailer.Email{
		To:       u.Email,
		Subject:  "Welcome to " + h.site.Name,
		TextBody: text,
		HTMLBody: html,
	})
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func lockedMessage(until *time.Time) string {
	if until == nil {
		return "Too many failed sign-in attempts. Please try again later."
	}
	remaining := time.Until(*until)
	if remaining > time.Minute {
		return fmt.Sprintf("Too many failed sign-in attempts. Please try again in %d minute(s).", int(remaining.Minutes())+1)
	}
	return fmt.Sprintf("Too many failed sign-in attempts. Please try again in %d second(s).", int(remaining.Seconds())+1)
}

// recordFailure counts a failed attempt and reports the lockout expiry
// when this attempt triggered one.
func (h *Handler) recordFailure(ctx context.Context, email string) *time.Time {
	if h.limiter == nil {
		return nil
	}
	until, err := h.limiter.RecordFailure(ctx, email)
	if err != nil {
		h.log.Warn("failed to record sign-in failure", zap.Error(err))
	}
	return until
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := jsonutil.DecodeBody(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	email := normalize.Email(in.Email)
	if err := inputval.RequireAll(
		inputval.Need("email", email != ""),
		inputval.Need("password", in.Password != ""),
	); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if h.limiter != nil {
		if d := h.limiter.CheckAllowed(ctx, email); !d.Allowed {
			h.audit.LoginLockedOut(r, email)
			h.fail(w, r, apperr.TooMany(lockedMessage(d.LockedUntil)))
			return
		}
	}

	u, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		if !storeutil.IsNotFound(err) {
			h.fail(w, r, apperr.Internal(err))
			return
		}
		authutil.BurnCompare(in.Password)
		h.recordFailure(ctx, email)
		h.audit.LoginFailed(r, nil, email, "unknown email")
		h.fail(w, r, apperr.Unauthorized(invalidCredentials))
		return
	}

	if u.PasswordHash == nil || !authutil.CheckPassword(in.Password, *u.PasswordHash) {
		reason := "wrong password"
		if u.PasswordHash == nil {
			reason = "no password set"
		}
		if until := h.recordFailure(ctx, email); until != nil {
			h.audit.LoginLockedOut(r, email)
			h.fail(w, r, apperr.TooMany(lockedMessage(until)))
			return
		}
		h.audit.LoginFailed(r, &u.ID, email, reason)
		h.fail(w, r, apperr.Unauthorized(invalidCredentials))
		return
	}
	if !u.IsActive() {
		h.audit.LoginFailed(r, &u.ID, email, "account disabled")
		h.fail(w, r, apperr.Forbidden("This account is disabled"))
		return
	}

	if h.limiter != nil {
		if err := h.limiter.ClearOnSuccess(ctx, email); err != nil {
			h.log.Warn("failed to clear sign-in failures", zap.Error(err))
		}
	}
	if err := h.sm.SignIn(w, r, u, models.AuthPassword); err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	h.audit.LoginSuccess(r, u.ID, models.AuthPassword)
	jsonutil.Item(w, "user", u, false)
}

// Logout handles POST /api/auth/logout. It succeeds for anonymous callers.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if authz.IsLoggedIn(r) {
		h.audit.Logout(r)
	}
	h.sm.SignOut(w, r)
	jsonutil.Message(w, "Signed out")
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	su, err := authz.RequireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.users.GetByID(ctx, su.UserID())
	if err != nil {
		if storeutil.IsNotFound(err) {
			h.fail(w, r, apperr.Unauthorized(""))
			return
		}
		h.fail(w, r, apperr.Internal(err))
		return
	}
	jsonutil.Item(w, "user", u, false)
}

// CSRF handles GET /api/auth/csrf. Clients echo the token in the
// X-CSRF-Token header on mutating requests.
func (h *Handler) CSRF(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]string{"csrfToken": csrf.Token(r)})
}
