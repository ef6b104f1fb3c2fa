package errors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

func TestRouterFallbacks(t *testing.T) {
	h := NewHandler(zap.NewNop())
	r := chi.NewRouter()
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)
	r.Get("/api/news", func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		method, path string
		code         int
		want         string
	}{
		{http.MethodGet, "/api/nothing", http.StatusNotFound, `{"error":"Route not found"}`},
		{http.MethodDelete, "/api/news", http.StatusMethodNotAllowed, `{"error":"Method not allowed"}`},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.code {
			t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, rec.Code, tt.code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s %s content type = %q", tt.method, tt.path, ct)
		}
		if got := rec.Body.String(); got != tt.want+"\n" && got != tt.want {
			t.Errorf("%s %s body = %q, want %q", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestCSRFFailure(t *testing.T) {
	h := NewHandler(zap.NewNop())
	protect := csrf.Protect([]byte("0123456789abcdef0123456789abcdef"),
		csrf.Secure(false),
		csrf.ErrorHandler(http.HandlerFunc(h.CSRFFailure)))
	next := protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without a token")
	}))

	rec := httptest.NewRecorder()
	next.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/news", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
