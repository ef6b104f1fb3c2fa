package userstore

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/noorhub/internal/app/store/sessions"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/dalemusser/noorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Name:  "  Aisha Rahman ",
		Email: " Aisha@Example.COM ",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID.IsZero() {
		t.Error("Create() did not assign ID")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
	if created.Name != "Aisha Rahman" {
		t.Errorf("Name = %q", created.Name)
	}
	if created.Email != "aisha@example.com" {
		t.Errorf("Email = %q, want lowercase", created.Email)
	}
	if created.NameCI != "aisha rahman" {
		t.Errorf("NameCI = %q", created.NameCI)
	}
	if created.Role != models.RoleUser {
		t.Errorf("Role = %q, want user", created.Role)
	}
	if created.Status != models.StatusActive {
		t.Errorf("Status = %q, want active", created.Status)
	}
	if created.AuthMethod != models.AuthPassword {
		t.Errorf("AuthMethod = %q, want password", created.AuthMethod)
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{Name: "X", Email: "x@example.com", Role: "moderator"})
	if err == nil {
		t.Fatal("Create() with invalid role should fail")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Name: "One", Email: "dup@example.com"}); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	_, err := store.Create(ctx, models.User{Name: "Two", Email: "DUP@example.com"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("second Create() error = %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Name: "Yusuf", Email: "yusuf@example.com"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.GetByEmail(ctx, "  YUSUF@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail() ID = %v, want %v", got.ID, created.ID)
	}

	if _, err := store.GetByEmail(ctx, "nobody@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("GetByEmail(missing) error = %v, want ErrNoDocuments", err)
	}
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("GetByID(missing) error = %v, want ErrNoDocuments", err)
	}
}

func TestStore_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, u := range []models.User{
		{Name: "Zainab", Email: "zainab@example.com"},
		{Name: "Bilal", Email: "bilal@example.com", Role: models.RoleAdmin},
		{Name: "Maryam", Email: "maryam@example.com"},
	} {
		if _, err := store.Create(ctx, u); err != nil {
			t.Fatalf("Create(%s) error = %v", u.Name, err)
		}
	}

	all, total, err := store.List(ctx, ListFilter{}, pagination.Params{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 3 || len(all) != 2 {
		t.Fatalf("List() = %d items, total %d; want 2, 3", len(all), total)
	}
	if all[0].Name != "Bilal" || all[1].Name != "Maryam" {
		t.Errorf("List() order = %s, %s", all[0].Name, all[1].Name)
	}

	admins, total, err := store.List(ctx, ListFilter{Role: models.RoleAdmin}, pagination.Params{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("List(role) error = %v", err)
	}
	if total != 1 || admins[0].Name != "Bilal" {
		t.Errorf("List(role=admin) = %+v", admins)
	}

	found, _, err := store.List(ctx, ListFilter{Search: "MARY"}, pagination.Params{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("List(search) error = %v", err)
	}
	if len(found) != 1 || found[0].Name != "Maryam" {
		t.Errorf("List(search=MARY) = %+v", found)
	}

	n, err := store.CountByRole(ctx, models.RoleAdmin)
	if err != nil || n != 1 {
		t.Errorf("CountByRole(admin) = %d, %v", n, err)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Name: "Old", Email: "upd@example.com"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	name := "New Name"
	got, err := store.Update(ctx, created.ID, UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Name != "New Name" || got.NameCI != "new name" {
		t.Errorf("Update() name = %q / %q", got.Name, got.NameCI)
	}

	got, err = store.SetRole(ctx, created.ID, models.RoleAdmin)
	if err != nil || got.Role != models.RoleAdmin {
		t.Fatalf("SetRole() = %+v, %v", got, err)
	}
	if _, err := store.SetRole(ctx, created.ID, "owner"); err == nil {
		t.Error("SetRole(owner) should fail")
	}

	got, err = store.SetStatus(ctx, created.ID, "Disabled")
	if err != nil || got.Status != models.StatusDisabled {
		t.Fatalf("SetStatus() = %+v, %v", got, err)
	}
	if _, err := store.SetStatus(ctx, created.ID, "archived"); err == nil {
		t.Error("SetStatus(archived) should fail")
	}

	if _, err := store.Update(ctx, primitive.NewObjectID(), UpdateInput{Name: &name}); err != mongo.ErrNoDocuments {
		t.Errorf("Update(missing) error = %v, want ErrNoDocuments", err)
	}
}

func TestStore_SetPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Name: "G", Email: "g@example.com", AuthMethod: models.AuthGoogle})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.SetPassword(ctx, created.ID, "$2a$10$hash"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.PasswordHash == nil || *got.PasswordHash != "$2a$10$hash" {
		t.Errorf("PasswordHash = %v", got.PasswordHash)
	}
	if got.AuthMethod != models.AuthPassword {
		t.Errorf("AuthMethod = %q", got.AuthMethod)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Name: "Del", Email: "del@example.com"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	n, err := store.Delete(ctx, created.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete() = %d, %v; want 1", n, err)
	}
	n, err = store.Delete(ctx, created.ID)
	if err != nil || n != 0 {
		t.Errorf("Delete() again = %d, %v; want 0", n, err)
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	active, err := store.Create(ctx, models.User{Name: "Active", Email: "active@example.com", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	disabled, err := store.Create(ctx, models.User{Name: "Off", Email: "off@example.com", Status: models.StatusDisabled})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	sess := sessions.New(db)
	exp := time.Now().Add(time.Hour)
	for tok, id := range map[string]primitive.ObjectID{"tok-active": active.ID, "tok-off": disabled.ID} {
		if err := sess.Create(ctx, sessions.Session{Token: tok, UserID: id, ExpiresAt: exp}); err != nil {
			t.Fatalf("session: %v", err)
		}
	}

	f := NewFetcher(db, zap.NewNop())

	u := f.FetchUser(ctx, active.ID.Hex(), "tok-active")
	if u == nil {
		t.Fatal("FetchUser(active) = nil")
	}
	if u.Name != "Active" || u.Email != "active@example.com" || u.Role != models.RoleAdmin {
		t.Errorf("FetchUser(active) = %+v", u)
	}

	if u := f.FetchUser(ctx, disabled.ID.Hex(), "tok-off"); u != nil {
		t.Errorf("FetchUser(disabled) = %+v, want nil", u)
	}
	if u := f.FetchUser(ctx, primitive.NewObjectID().Hex(), "tok-active"); u != nil {
		t.Errorf("FetchUser(token of another user) = %+v, want nil", u)
	}
	if u := f.FetchUser(ctx, "not-an-id", "tok-active"); u != nil {
		t.Errorf("FetchUser(bad id) = %+v, want nil", u)
	}
	if u := f.FetchUser(ctx, active.ID.Hex(), "unknown"); u != nil {
		t.Errorf("FetchUser(unknown token) = %+v, want nil", u)
	}

	if err := sess.Close(ctx, "tok-active", sessions.EndLogout); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if u := f.FetchUser(ctx, active.ID.Hex(), "tok-active"); u != nil {
		t.Errorf("FetchUser(after logout) = %+v, want nil", u)
	}
}
