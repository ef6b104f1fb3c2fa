package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const testKey = "this-is-a-32-character-long-key!"

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	sm, err := NewSessionManager(testKey, "", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	return sm
}

func TestNewSessionManager(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		sessionKey string
		secure     bool
		wantErr    bool
	}{
		{
			name:       "valid key dev mode",
			sessionKey: "this-is-a-32-character-long-key!",
			secure:     false,
			wantErr:    false,
		},
		{
			name:       "valid key prod mode",
			sessionKey: "this-is-a-32-character-long-key!",
			secure:     true,
			wantErr:    false,
		},
		{
			name:       "empty key",
			sessionKey: "",
			secure:     false,
			wantErr:    true,
		},
		{
			name:       "weak key dev mode",
			sessionKey: "short",
			secure:     false,
			wantErr:    false, // Warning but allowed in dev
		},
		{
			name:       "weak key prod mode",
			sessionKey: "short",
			secure:     true,
			wantErr:    true, // Error in prod
		},
		{
			name:       "default key prod mode",
			sessionKey: "dev-only-session-key-not-for-production",
			secure:     true,
			wantErr:    true, // Default keys not allowed in prod
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm, err := NewSessionManager(tt.sessionKey, "test-session", "", time.Hour, tt.secure, logger)
			if err != nil && !errors.Is(err, ErrEmptyKey) && !errors.Is(err, ErrWeakKey) {
				t.Fatalf("NewSessionManager() unexpected error type %v", err)
			}

			if tt.wantErr {
				if err == nil {
					t.Error("NewSessionManager() expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("NewSessionManager() error = %v", err)
				}
				if sm == nil {
					t.Error("NewSessionManager() returned nil")
				}
			}
		})
	}
}

func TestSessionManager_DefaultName(t *testing.T) {
	sm := newTestManager(t)
	if sm.SessionName() != "noorhub-session" {
		t.Errorf("SessionName() = %q, want %q", sm.SessionName(), "noorhub-session")
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	msg, _ := body["error"].(string)
	return msg
}

func TestRequireSignedIn(t *testing.T) {
	sm := newTestManager(t)
	called := false
	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("anonymous gets JSON 401", func(t *testing.T) {
		called = false
		req := httptest.NewRequest("GET", "/api/auth/me", nil)
		req.Header.Set("Accept", "text/html")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if msg := decodeError(t, rec); msg != "Authentication required" {
			t.Errorf("error = %q", msg)
		}
		if called {
			t.Error("handler should not run")
		}
	})

	t.Run("signed in passes", func(t *testing.T) {
		called = false
		req := WithTestUser(httptest.NewRequest("GET", "/api/auth/me", nil), &SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleUser})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || !called {
			t.Errorf("status = %d called = %v, want 200/true", rec.Code, called)
		}
	})
}

func TestRequireRole(t *testing.T) {
	sm := newTestManager(t)
	handler := sm.RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		user       *SessionUser
		wantStatus int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"user role", &SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleUser}, http.StatusForbidden},
		{"unknown role", &SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.Role("moderator")}, http.StatusForbidden},
		{"admin", &SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/news", nil)
			if tt.user != nil {
				req = WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusForbidden {
				if msg := decodeError(t, rec); msg != "You do not have permission to perform this action" {
					t.Errorf("error = %q", msg)
				}
			}
		})
	}
}

type stubFetcher struct {
	users   map[string]*SessionUser
	revoked map[string]bool
}

func (f stubFetcher) FetchUser(_ context.Context, id, token string) *SessionUser {
	u, ok := f.users[id]
	if !ok || f.revoked[token] {
		return nil
	}
	cp := *u
	return &cp
}

// sessionCookie signs in u and returns the cookie the browser would send back.
func sessionCookie(t *testing.T, sm *SessionManager, u *models.User) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := sm.CreateSession(rec, httptest.NewRequest("POST", "/api/auth/login", nil), u, ""); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("CreateSession() set no cookie")
	}
	return cookies[0]
}

func TestLoadSessionUser(t *testing.T) {
	sm := newTestManager(t)
	u := &models.User{ID: primitive.NewObjectID(), Name: "Aisha", Email: "aisha@example.com", Role: models.RoleAdmin}
	sm.SetUserFetcher(stubFetcher{users: map[string]*SessionUser{
		u.ID.Hex(): {ID: u.ID.Hex(), Name: u.Name, Email: u.Email, Role: u.Role},
	}})

	var got *SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid cookie resolves identity", func(t *testing.T) {
		got = nil
		req := httptest.NewRequest("GET", "/api/auth/me", nil)
		req.AddCookie(sessionCookie(t, sm, u))
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if got == nil {
			t.Fatal("expected a user in context")
		}
		if got.ID != u.ID.Hex() || !got.IsAdmin() || got.Token == "" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("malformed cookie is anonymous", func(t *testing.T) {
		got = nil
		req := httptest.NewRequest("GET", "/api/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: sm.SessionName(), Value: "not-a-signed-value"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if got != nil {
			t.Errorf("expected anonymous, got %+v", got)
		}
	})

	t.Run("deleted user is anonymous", func(t *testing.T) {
		got = nil
		ghost := &models.User{ID: primitive.NewObjectID(), Name: "Ghost", Role: models.RoleUser}
		req := httptest.NewRequest("GET", "/api/auth/me", nil)
		req.AddCookie(sessionCookie(t, sm, ghost))
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if got != nil {
			t.Errorf("expected anonymous, got %+v", got)
		}
	})
}

func TestLoadSessionUser_NoFetcherUsesCookieValues(t *testing.T) {
	sm := newTestManager(t)
	u := &models.User{ID: primitive.NewObjectID(), Name: "Yusuf", Email: "yusuf@example.com", Role: models.RoleUser}

	var got *SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(sessionCookie(t, sm, u))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.Email != "yusuf@example.com" || got.Role != models.RoleUser {
		t.Errorf("got %+v", got)
	}
}

func TestSessionUser_Helpers(t *testing.T) {
	oid := primitive.NewObjectID()
	u := &SessionUser{ID: oid.Hex(), Name: "Bilal", Role: models.RoleUser}
	if u.UserID() != oid {
		t.Errorf("UserID() = %v, want %v", u.UserID(), oid)
	}
	if a := u.Author(); a.ID != oid || a.Name != "Bilal" {
		t.Errorf("Author() = %+v", a)
	}
	if u.IsAdmin() {
		t.Error("user role should not be admin")
	}
	var nilUser *SessionUser
	if nilUser.IsAdmin() {
		t.Error("nil user should not be admin")
	}
	if !(&SessionUser{ID: "bad"}).UserID().IsZero() {
		t.Error("invalid id should give zero ObjectID")
	}
}

func TestGenerateSessionToken(t *testing.T) {
	a, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken() error = %v", err)
	}
	b, _ := GenerateSessionToken()
	if a == "" || a == b {
		t.Errorf("tokens should be non-empty and unique: %q %q", a, b)
	}
}

func TestIsDefaultKey(t *testing.T) {
	for key, want := range map[string]bool{
		"dev-only-change-me-please-0123456789ABCDEF": true,
		"Default-Session-Key":                        true,
		"my-example-key":                             true,
		"password123":                                true,
		"xK8nP2mQ9rT5vW7yB3cF6hJ0lN4sU1wZ":           false,
		"noorhub-prod-4f1c9e2a7b3d8e6f0a5c":          false,
	} {
		if got := isDefaultKey(key); got != want {
			t.Errorf("isDefaultKey(%q) = %v, want %v", key, got, want)
		}
	}
}

// cookieErr satisfies securecookie.Error.
type cookieErr struct {
	msg    string
	decode bool
}

func (e cookieErr) Error() string    { return e.msg }
func (e cookieErr) IsDecode() bool   { return e.decode }
func (e cookieErr) IsUsage() bool    { return false }
func (e cookieErr) IsInternal() bool { return !e.decode }
func (e cookieErr) Cause() error     { return nil }

func TestSessionErrorLevel(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel zapcore.Level
		wantCat   string
	}{
		{"expired", cookieErr{"securecookie: expired timestamp", true}, zapcore.DebugLevel, "expired"},
		{"bad mac", cookieErr{"securecookie: the value is not valid (mac)", true}, zapcore.WarnLevel, "mac_invalid"},
		{"decrypt", cookieErr{"securecookie: the value could not be decrypted", true}, zapcore.InfoLevel, "decrypt_failed"},
		{"base64", cookieErr{"illegal base64 data", true}, zapcore.InfoLevel, "decode_failed"},
		{"internal", cookieErr{"hash key is not set", false}, zapcore.ErrorLevel, "backend"},
		{"plain error", errors.New("boom"), zapcore.ErrorLevel, "backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, cat := sessionErrorLevel(tt.err)
			if level != tt.wantLevel || cat != tt.wantCat {
				t.Errorf("sessionErrorLevel() = %v %q, want %v %q", level, cat, tt.wantLevel, tt.wantCat)
			}
		})
	}
}
