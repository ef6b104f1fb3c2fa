package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSignInAndOut_Untracked(t *testing.T) {
	sm := newTestManager(t)
	u := &models.User{ID: primitive.NewObjectID(), Name: "Maryam", Email: "maryam@example.com", Role: models.RoleUser}

	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil), u, models.AuthPassword); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("SignIn() set no cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookies[0])
	if tok := sm.GetSessionToken(req); tok == "" {
		t.Error("cookie carries no session token")
	}

	out := httptest.NewRecorder()
	sm.SignOut(out, req)
	cleared := out.Result().Cookies()
	if len(cleared) == 0 || cleared[0].MaxAge >= 0 {
		t.Errorf("SignOut() cookies = %+v, want an expired cookie", cleared)
	}
}
