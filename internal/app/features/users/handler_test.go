package users

import (
	"net/http"
	"strings"
	"testing"
	"time"

	bookmarkstore "github.com/dalemusser/noorhub/internal/app/store/bookmarks"
	"github.com/dalemusser/noorhub/internal/app/store/sessions"
	userstore "github.com/dalemusser/noorhub/internal/app/store/users"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/dalemusser/noorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type userBody struct {
	User models.User `json:"user"`
}

type listBody struct {
	Users      []models.User   `json:"users"`
	Pagination pagination.Meta `json:"pagination"`
}

type fixture struct {
	db    *mongo.Database
	h     *Handler
	admin testutil.TestUser
	fatma testutil.TestUser
	omar  testutil.TestUser
}

func as(u models.User) testutil.TestUser {
	return testutil.TestUser{ID: u.ID.Hex(), Name: u.Name, Email: u.Email, Role: u.Role}
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mk := func(name, email string, role models.Role) testutil.TestUser {
		u, err := store.Create(ctx, models.User{Name: name, Email: email, Role: role})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		return as(u)
	}
	return fixture{
		db:    db,
		h:     NewHandler(db, nil, zap.NewNop()),
		admin: mk("Admin", "admin@example.com", models.RoleAdmin),
		fatma: mk("Fatma Yilmaz", "fatma@example.com", models.RoleUser),
		omar:  mk("Omar Farouk", "omar@example.com", models.RoleUser),
	}
}

func (f fixture) call(t *testing.T, fn http.HandlerFunc, method, id string, body any, caller testutil.TestUser) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.WithUser(testutil.JSONRequest(t, method, "/", body), caller)
	if id != "" {
		req = testutil.WithParams(req, "id", id)
	}
	rec := testutil.NewRecorder()
	fn(rec, req)
	return rec
}

func TestList(t *testing.T) {
	f := setup(t)

	rec := testutil.NewRecorder()
	f.h.List(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/users?role=user&limit=1", f.admin))
	rec.AssertStatus(t, http.StatusOK)
	var out listBody
	rec.DecodeJSON(t, &out)
	if out.Pagination.Total != 2 || out.Pagination.Pages != 2 || len(out.Users) != 1 {
		t.Errorf("pagination = %+v, users = %d", out.Pagination, len(out.Users))
	}
	rec.AssertContains(t, `"email"`)
	if got := rec.Body.String(); strings.Contains(got, "passwordHash") {
		t.Errorf("password leaked: %s", got)
	}

	rec = testutil.NewRecorder()
	f.h.List(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/users?search=fatma", f.admin))
	out = listBody{}
	rec.DecodeJSON(t, &out)
	if len(out.Users) != 1 || out.Users[0].Email != "fatma@example.com" {
		t.Errorf("search = %+v", out.Users)
	}

	rec = testutil.NewRecorder()
	f.h.List(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/users?role=owner", f.admin))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	f.h.List(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/users", f.fatma))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestGet_SelfOrAdmin(t *testing.T) {
	f := setup(t)

	f.call(t, f.h.Get, http.MethodGet, f.fatma.ID, nil, f.fatma).AssertStatus(t, http.StatusOK)
	f.call(t, f.h.Get, http.MethodGet, f.fatma.ID, nil, f.admin).AssertStatus(t, http.StatusOK)
	f.call(t, f.h.Get, http.MethodGet, f.fatma.ID, nil, f.omar).AssertStatus(t, http.StatusNotFound)

	rec := testutil.NewRecorder()
	f.h.Get(rec, testutil.WithParams(testutil.NewRequest(http.MethodGet, "/"), "id", f.fatma.ID))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestUpdate_Self(t *testing.T) {
	f := setup(t)

	rec := f.call(t, f.h.Update, http.MethodPut, f.fatma.ID, map[string]any{"name": "  Fatma   Y. "}, f.fatma)
	rec.AssertStatus(t, http.StatusOK)
	var out userBody
	rec.DecodeJSON(t, &out)
	if out.User.Name != "Fatma Y." {
		t.Errorf("Name = %q", out.User.Name)
	}

	rec = f.call(t, f.h.Update, http.MethodPut, f.fatma.ID, map[string]any{"role": "admin"}, f.fatma)
	rec.AssertStatus(t, http.StatusForbidden)

	rec = f.call(t, f.h.Update, http.MethodPut, f.fatma.ID, map[string]any{"name": ""}, f.fatma)
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = f.call(t, f.h.Update, http.MethodPut, f.omar.ID, map[string]any{"name": "x"}, f.fatma)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestUpdate_Admin(t *testing.T) {
	f := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess := sessions.New(f.db)
	if err := sess.Create(ctx, sessions.Session{Token: "omar-1", UserID: f.omar.OID(), ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("session: %v", err)
	}

	rec := f.call(t, f.h.Update, http.MethodPut, f.fatma.ID, map[string]any{"role": "ADMIN"}, f.admin)
	rec.AssertStatus(t, http.StatusOK)
	var out userBody
	rec.DecodeJSON(t, &out)
	if out.User.Role != models.RoleAdmin {
		t.Errorf("Role = %q", out.User.Role)
	}

	rec = f.call(t, f.h.Update, http.MethodPut, f.omar.ID, map[string]any{"status": "disabled"}, f.admin)
	rec.AssertStatus(t, http.StatusOK)
	if _, err := sess.GetByToken(ctx, "omar-1"); err == nil {
		t.Error("disabling a user should close their sessions")
	}

	f.call(t, f.h.Update, http.MethodPut, f.omar.ID, map[string]any{"status": "banned"}, f.admin).AssertStatus(t, http.StatusBadRequest)
	f.call(t, f.h.Update, http.MethodPut, f.omar.ID, map[string]any{"role": "owner"}, f.admin).AssertStatus(t, http.StatusBadRequest)

	rec = f.call(t, f.h.Update, http.MethodPut, f.admin.ID, map[string]any{"role": "user"}, f.admin)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "your own role")
}

func TestDelete(t *testing.T) {
	f := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	bm := bookmarkstore.New(f.db)
	if _, err := bm.Create(ctx, models.Bookmark{
		UserID:      f.omar.OID(),
		ContentType: models.ContentQuran,
		ContentID:   "1",
		Snapshot:    models.ContentSnapshot{Title: "Al-Fatihah", URL: "/quran/1"},
	}); err != nil {
		t.Fatalf("bookmark: %v", err)
	}

	f.call(t, f.h.Delete, http.MethodDelete, f.admin.ID, nil, f.admin).AssertStatus(t, http.StatusBadRequest)
	f.call(t, f.h.Delete, http.MethodDelete, f.omar.ID, nil, f.fatma).AssertStatus(t, http.StatusForbidden)

	rec := f.call(t, f.h.Delete, http.MethodDelete, f.omar.ID, nil, f.admin)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "User deleted")

	if ok, _ := bm.Exists(ctx, f.omar.OID(), models.ContentQuran, "1"); ok {
		t.Error("bookmarks of deleted user should be removed")
	}

	f.call(t, f.h.Delete, http.MethodDelete, f.omar.ID, nil, f.admin).AssertStatus(t, http.StatusNotFound)
}
