package auditlog

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/noorhub/internal/app/store/audit"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilIsNoop(t *testing.T) {
	var l *Logger
	r := httptest.NewRequest("POST", "/api/auth/login", nil)
	l.LoginFailed(r, nil, "x@example.com", "unknown email")
}

func TestLogger_Modes(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		wantDB  int64
		wantLog int
	}{
		{"all", ModeAll, 1, 1},
		{"db", ModeDB, 1, 0},
		{"log", ModeLog, 0, 1},
		{"off", ModeOff, 0, 0},
		{"unset defaults to all", "", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := audit.New(testutil.SetupTestDB(t))
			core, logs := observer.New(zap.InfoLevel)
			l := New(store, zap.New(core), Config{Auth: tt.mode, Admin: ModeOff})

			r := httptest.NewRequest("POST", "/api/auth/login", nil)
			r.RemoteAddr = "203.0.113.7:5000"
			l.LoginSuccess(r, primitive.NewObjectID(), "password")

			ctx, cancel := testutil.TestContext()
			defer cancel()
			events, total, err := store.List(ctx, audit.QueryFilter{}, pagination.Params{Page: 1, Limit: 10})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != tt.wantDB {
				t.Errorf("stored %d events, want %d", total, tt.wantDB)
			}
			if total > 0 && events[0].IP != "203.0.113.7" {
				t.Errorf("IP = %q", events[0].IP)
			}
			if got := logs.FilterMessage("audit event").Len(); got != tt.wantLog {
				t.Errorf("logged %d events, want %d", got, tt.wantLog)
			}
		})
	}
}

func TestLogger_ContentUsesCurrentUserAsActor(t *testing.T) {
	store := audit.New(testutil.SetupTestDB(t))
	l := New(store, zap.NewNop(), Config{Admin: ModeDB})

	admin := testutil.AdminUser()
	r := testutil.NewAuthenticatedRequest("DELETE", "/api/news/abc", admin)
	l.Content(r, audit.EventContentDeleted, "news", "abc")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	events, _, err := store.List(ctx, audit.QueryFilter{Category: audit.CategoryAdmin}, pagination.Params{Page: 1, Limit: 10})
	if err != nil || len(events) != 1 {
		t.Fatalf("List() = %v, %v", events, err)
	}
	e := events[0]
	if e.ActorID == nil || *e.ActorID != admin.OID() {
		t.Errorf("ActorID = %v, want %s", e.ActorID, admin.ID)
	}
	if e.Resource != "news" || e.ResourceID != "abc" || e.EventType != audit.EventContentDeleted {
		t.Errorf("event = %+v", e)
	}
}
