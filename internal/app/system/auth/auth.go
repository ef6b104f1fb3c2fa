// Package auth keeps the signed identity cookie and the middleware that
// turns it into a SessionUser on the request context.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	sessionstore "github.com/dalemusser/noorhub/internal/app/store/sessions"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultSessionName is the cookie name used when none is configured.
const DefaultSessionName = "noorhub-session"

// Cookie value keys.
const (
	keyAuthenticated = "is_authenticated"
	keyUserID        = "user_id"
	keyName          = "user_name"
	keyEmail         = "user_email"
	keyRole          = "user_role"
	keyToken         = "session_token"
)

var (
	ErrEmptyKey = errors.New("session key is empty; provide at least 32 random characters")
	ErrWeakKey  = errors.New("session key is too weak for production; provide at least 32 random characters")
)

// SessionManager signs and reads the identity cookie.
type SessionManager struct {
	store       *sessions.CookieStore
	logger      *zap.Logger
	name        string
	maxAge      time.Duration
	userFetcher UserFetcher
	tracker     *sessionstore.Store
}

// NewSessionManager builds a manager. A weak or placeholder key is an error
// when secure is set and a warning otherwise. An empty name uses
// DefaultSessionName.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, ErrEmptyKey
	}
	if weak := len(sessionKey) < 32 || isDefaultKey(sessionKey); weak {
		if secure {
			return nil, ErrWeakKey
		}
		logger.Warn("session key is weak; 32+ random chars required in production",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("session manager initialized",
		zap.Bool("secure", secure),
		zap.String("name", name),
		zap.String("domain", domain))

	return &SessionManager{store: store, logger: logger, name: name, maxAge: maxAge}, nil
}

// SessionName returns the cookie name.
func (sm *SessionManager) SessionName() string {
	return sm.name
}

// GetSession returns the cookie session for r.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// SetUserFetcher makes LoadSessionUser resolve the user from the database
// on every request instead of trusting the cookie values.
func (sm *SessionManager) SetUserFetcher(uf UserFetcher) {
	sm.userFetcher = uf
}

// UserFetcher resolves the user behind a session cookie.
type UserFetcher interface {
	// FetchUser returns nil when the user is missing or disabled, or when
	// the session token is no longer open.
	FetchUser(ctx context.Context, userID, token string) *SessionUser
}

// SessionUser is the signed-in caller.
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  models.Role
	Token string
}

// IsAdmin reports whether the user holds the admin role.
func (u *SessionUser) IsAdmin() bool {
	return u != nil && u.Role == models.RoleAdmin
}

// Author returns the {id, name} snapshot embedded in content the user creates.
func (u *SessionUser) Author() models.Author {
	return models.Author{ID: u.UserID(), Name: u.Name}
}

// UserID parses ID; an invalid id gives the zero ObjectID.
func (u *SessionUser) UserID() primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// SessionToken returns the token of the current session.
func (u *SessionUser) SessionToken() string {
	return u.Token
}

type ctxKey struct{}

// CurrentUser returns the signed-in user, if any.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(ctxKey{}).(*SessionUser)
	return u, ok
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKey{}, u))
}

// WithTestUser injects u into the request context.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// LoadSessionUser puts the cookie's user on the request context. A cookie
// whose user is gone, disabled or signed out is cleared and the request
// continues anonymously.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			level, category := sessionErrorLevel(err)
			sm.logger.Check(level, "unreadable session cookie, starting fresh").Write(
				zap.String("category", category),
				zap.String("path", r.URL.Path),
				zap.Error(err))
		}

		if ok, _ := sess.Values[keyAuthenticated].(bool); ok {
			userID := getString(sess, keyUserID)
			token := getString(sess, keyToken)
			switch {
			case userID == "":
			case sm.userFetcher != nil:
				if u := sm.userFetcher.FetchUser(r.Context(), userID, token); u != nil {
					u.Token = token
					r = withUser(r, u)
				} else {
					sm.logger.Info("session invalidated: user gone, disabled or signed out",
						zap.String("user_id", userID),
						zap.String("path", r.URL.Path))
					sess.Values[keyAuthenticated] = false
					delete(sess.Values, keyUserID)
					_ = sess.Save(r, w)
				}
			default:
				r = withUser(r, &SessionUser{
					ID:    userID,
					Name:  getString(sess, keyName),
					Email: getString(sess, keyEmail),
					Role:  models.RoleOrUser(getString(sess, keyRole)),
					Token: token,
				})
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn answers 401 JSON for anonymous callers.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		jsonutil.Fail(w, r, sm.logger, apperr.Unauthorized(""))
	})
}

// RequireRole answers 401 for anonymous callers and 403 when the user holds
// none of the allowed roles.
func (sm *SessionManager) RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	set := make(map[models.Role]bool, len(allowed))
	for _, role := range allowed {
		set[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				jsonutil.Fail(w, r, sm.logger, apperr.Unauthorized(""))
				return
			}
			if !set[u.Role] {
				sm.logger.Info("role check denied",
					zap.String("user_id", u.ID),
					zap.String("role", u.Role.String()),
					zap.String("path", r.URL.Path))
				jsonutil.Fail(w, r, sm.logger, apperr.Forbidden(""))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CreateSession writes the cookie for u. An empty token gets a fresh one.
func (sm *SessionManager) CreateSession(w http.ResponseWriter, r *http.Request, u *models.User, token string) error {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		sess, _ = sm.store.New(r, sm.name)
	}
	if token == "" {
		if token, err = GenerateSessionToken(); err != nil {
			return err
		}
	}

	sess.Values[keyAuthenticated] = true
	sess.Values[keyUserID] = u.ID.Hex()
	sess.Values[keyName] = u.Name
	sess.Values[keyEmail] = u.Email
	sess.Values[keyRole] = u.Role.String()
	sess.Values[keyToken] = token
	return sess.Save(r, w)
}

// GetSessionToken returns the token stored in r's cookie.
func (sm *SessionManager) GetSessionToken(r *http.Request) string {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		return ""
	}
	return getString(sess, keyToken)
}

// DestroySession expires the cookie.
func (sm *SessionManager) DestroySession(w http.ResponseWriter, r *http.Request) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		return
	}
	for _, k := range []string{keyUserID, keyName, keyEmail, keyRole, keyToken} {
		delete(sess.Values, k)
	}
	sess.Values[keyAuthenticated] = false
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
}

// GenerateSessionToken returns 32 random bytes, URL-safe encoded.
func GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func getString(s *sessions.Session, key string) string {
	v, _ := s.Values[key].(string)
	return v
}

var placeholderKeyWords = []string{
	"dev-only", "change-me", "placeholder", "default", "example",
	"insecure", "test-key", "secret123", "password",
}

// isDefaultKey reports whether key looks like a placeholder.
func isDefaultKey(key string) bool {
	lower := strings.ToLower(key)
	for _, w := range placeholderKeyWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// sessionErrorLevel picks a log level for a cookie that failed to decode.
// Expired cookies are routine; a bad MAC may be tampering.
func sessionErrorLevel(err error) (zapcore.Level, string) {
	var scErr securecookie.Error
	if !errors.As(err, &scErr) || !scErr.IsDecode() {
		return zapcore.ErrorLevel, "backend"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "expired timestamp"):
		return zapcore.DebugLevel, "expired"
	case strings.Contains(msg, "mac") || strings.Contains(msg, "hash"):
		return zapcore.WarnLevel, "mac_invalid"
	case strings.Contains(msg, "decrypt"):
		return zapcore.InfoLevel, "decrypt_failed"
	default:
		return zapcore.InfoLevel, "decode_failed"
	}
}
