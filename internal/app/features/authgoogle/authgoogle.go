// Package authgoogle signs users in with their Google account.
//
// The flow is redirect based: /api/auth/google sends the browser to Google
// and /api/auth/google/callback lands it back on the frontend with the
// session cookie set. Unknown verified emails get a new account.
package authgoogle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dalemusser/noorhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/noorhub/internal/app/store/users"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/auditlog"
	"github.com/dalemusser/noorhub/internal/app/system/auth"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Config holds the OAuth client settings. Endpoint and UserInfoURL default
// to Google's.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string // public URL of this API
	FrontendURL  string // where the browser lands after the callback

	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// Configured reports whether a client id and secret are set.
func (c Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Handler provides Google OAuth handlers.
type Handler struct {
	users       *userstore.Store
	states      *oauthstate.Store
	sm          *auth.SessionManager
	audit       *auditlog.Logger
	oauth       *oauth2.Config
	userInfoURL string
	frontend    string
	enabled     bool
	log         *zap.Logger
}

// NewHandler creates a new Google OAuth Handler.
func NewHandler(db *mongo.Database, sm *auth.SessionManager, audit *auditlog.Logger, cfg Config, logger *zap.Logger) *Handler {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	infoURL := cfg.UserInfoURL
	if infoURL == "" {
		infoURL = defaultUserInfoURL
	}
	return &Handler{
		users:  userstore.New(db),
		states: oauthstate.New(db),
		sm:     sm,
		audit:  audit,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.BaseURL + "/api/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoint,
		},
		userInfoURL: infoURL,
		frontend:    cfg.FrontendURL,
		enabled:     cfg.Configured(),
		log:         logger,
	}
}

// Start handles GET /api/auth/google. The optional returnTo query names the
// frontend path to land on after sign-in.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	if !h.enabled {
		jsonutil.Fail(w, r, h.log, apperr.NotConfigured("Google sign-in is not configured", nil))
		return
	}
	state, err := oauthstate.NewToken()
	if err != nil {
		jsonutil.Fail(w, r, h.log, apperr.Internal(err))
		return
	}
	returnTo := urlutil.SafeReturn(query.Get(r, "returnTo"), "", "/")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.states.Create(ctx, state, returnTo); err != nil {
		jsonutil.Fail(w, r, h.log, apperr.Internal(err))
		return
	}
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback handles GET /api/auth/google/callback. Every outcome is a
// redirect to the frontend; failures carry an error code.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if !h.enabled {
		h.failRedirect(w, r, "not_configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	returnTo, ok := h.states.Consume(ctx, query.Get(r, "state"))
	if !ok {
		h.failRedirect(w, r, "invalid_state")
		return
	}
	if query.Get(r, "error") != "" {
		h.failRedirect(w, r, "access_denied")
		return
	}

	token, err := h.oauth.Exchange(ctx, query.Get(r, "code"))
	if err != nil {
		h.log.Warn("google code exchange failed", zap.Error(err))
		h.failRedirect(w, r, "token_exchange_failed")
		return
	}
	info, err := h.userInfo(ctx, token)
	if err != nil {
		h.log.Warn("google userinfo failed", zap.Error(err))
		h.failRedirect(w, r, "userinfo_failed")
		return
	}
	if info.Email == "" || !info.VerifiedEmail {
		h.failRedirect(w, r, "email_not_verified")
		return
	}

	u, err := h.findOrCreate(ctx, r, info)
	if err != nil {
		h.log.Error("google sign-in user lookup failed", zap.Error(err))
		h.failRedirect(w, r, "database_error")
		return
	}
	if !u.IsActive() {
		h.failRedirect(w, r, "account_disabled")
		return
	}
	if err := h.sm.SignIn(w, r, u, models.AuthGoogle); err != nil {
		h.log.Error("google sign-in session failed", zap.Error(err))
		h.failRedirect(w, r, "session_error")
		return
	}
	h.audit.LoginSuccess(r, u.ID, models.AuthGoogle)
	http.Redirect(w, r, h.frontend+returnTo, http.StatusSeeOther)
}

func (h *Handler) failRedirect(w http.ResponseWriter, r *http.Request, code string) {
	h.audit.GoogleLoginFailed(r, code)
	http.Redirect(w, r, h.frontend+"/login?error="+url.QueryEscape(code), http.StatusSeeOther)
}

// findOrCreate returns the account for info.Email, linking the Google id on
// first use or registering a new Google account.
func (h *Handler) findOrCreate(ctx context.Context, r *http.Request, info *UserInfo) (*models.User, error) {
	u, err := h.users.GetByEmail(ctx, info.Email)
	if err == nil {
		if u.GoogleID == "" {
			if err := h.users.LinkGoogle(ctx, u.ID, info.ID); err != nil {
				return nil, err
			}
			u.GoogleID = info.ID
			h.audit.GoogleLinked(r, u.ID)
		}
		return u, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}
	created, err := h.users.Create(ctx, models.User{
		Name:       name,
		Email:      info.Email,
		AuthMethod: models.AuthGoogle,
		GoogleID:   info.ID,
		Avatar:     info.Picture,
		Role:       models.RoleUser,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		// Lost a race with a concurrent callback for the same account.
		return h.users.GetByEmail(ctx, info.Email)
	}
	if err != nil {
		return nil, err
	}
	h.audit.Registered(r, created.ID, models.AuthGoogle)
	return &created, nil
}

// UserInfo is the subset of Google's userinfo response we use.
type UserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (h *Handler) userInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo: status %d", resp.StatusCode)
	}
	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}
