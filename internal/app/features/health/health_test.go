package health

import (
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dalemusser/noorhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func check(t *testing.T, h *Handler) (*testutil.ResponseRecorder, Response) {
	t.Helper()
	rec := testutil.NewRecorder()
	h.Check(rec, testutil.NewRequest(http.MethodGet, "/health"))
	var resp Response
	rec.DecodeJSON(t, &resp)
	return rec, resp
}

func TestCheck(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rec, resp := check(t, NewHandler(db.Client(), rdb, false, zap.NewNop()))
	rec.AssertStatus(t, http.StatusOK)
	if resp.Status != "ok" || resp.Services["mongodb"] != "ok" || resp.Services["redis"] != "ok" {
		t.Errorf("resp = %+v", resp)
	}

	mr.Close()
	rec, resp = check(t, NewHandler(db.Client(), rdb, false, zap.NewNop()))
	rec.AssertStatus(t, http.StatusOK)
	if resp.Status != "degraded" || resp.Services["redis"] != "unavailable" {
		t.Errorf("resp with redis down = %+v", resp)
	}
}

func TestCheck_MongoDown(t *testing.T) {
	db := testutil.UnreachableDB(t)

	rec, resp := check(t, NewHandler(db.Client(), nil, false, zap.NewNop()))
	rec.AssertStatus(t, http.StatusServiceUnavailable)
	if resp.Services["mongodb"] != "unavailable" || resp.DemoMode {
		t.Errorf("resp = %+v", resp)
	}

	rec, resp = check(t, NewHandler(db.Client(), nil, true, zap.NewNop()))
	rec.AssertStatus(t, http.StatusOK)
	if resp.Status != "degraded" || !resp.DemoMode {
		t.Errorf("demo resp = %+v", resp)
	}
}

func TestProbes(t *testing.T) {
	up := NewHandler(testutil.SetupTestDB(t).Client(), nil, false, zap.NewNop())
	down := NewHandler(testutil.UnreachableDB(t).Client(), nil, false, zap.NewNop())
	demo := NewHandler(testutil.UnreachableDB(t).Client(), nil, true, zap.NewNop())

	tests := []struct {
		name string
		h    *Handler
		path string
		code int
		want string
	}{
		{"ready", up, "/ready", http.StatusOK, `"ready"`},
		{"not ready", down, "/ready", http.StatusServiceUnavailable, "not ready"},
		{"ready in demo mode", demo, "/readyz", http.StatusOK, `"ready"`},
		{"live without db", NewHandler(nil, nil, false, zap.NewNop()), "/livez", http.StatusOK, "alive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			MountRootEndpoints(r, tt.h)
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, tt.path))
			rec.AssertStatus(t, tt.code)
			rec.AssertContains(t, tt.want)
		})
	}
}
