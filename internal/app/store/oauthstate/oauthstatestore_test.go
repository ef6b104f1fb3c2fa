package oauthstate

import (
	"testing"
	"time"

	"github.com/dalemusser/noorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateAndConsume(t *testing.T) {
	store := New(testutil.SetupTestDB(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Create(ctx, "state-1", "/orders"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	ret, ok := store.Consume(ctx, "state-1")
	if !ok || ret != "/orders" {
		t.Fatalf("Consume() = %q, %v", ret, ok)
	}
	if _, ok := store.Consume(ctx, "state-1"); ok {
		t.Error("Consume() should be single use")
	}
	if _, ok := store.Consume(ctx, "never-created"); ok {
		t.Error("Consume(unknown) = true")
	}
	if _, ok := store.Consume(ctx, ""); ok {
		t.Error("Consume(empty) = true")
	}
}

func TestStore_Create_UniqueConstraint(t *testing.T) {
	store := New(testutil.SetupTestDB(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Create(ctx, "dup", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Create(ctx, "dup", ""); !mongo.IsDuplicateKeyError(err) {
		t.Errorf("Create() duplicate error = %v, want duplicate key", err)
	}
}

func TestStore_Expiry(t *testing.T) {
	store := New(testutil.SetupTestDB(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now()
	store.now = func() time.Time { return now }

	if err := store.Create(ctx, "old", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Create(ctx, "old-2", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	now = now.Add(Lifetime + time.Second)
	if err := store.Create(ctx, "fresh", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, ok := store.Consume(ctx, "old"); ok {
		t.Error("expired state accepted")
	}
	n, err := store.DeleteExpired(ctx)
	if err != nil || n != 1 {
		t.Errorf("DeleteExpired() = %d, %v; want 1", n, err)
	}
	if _, ok := store.Consume(ctx, "fresh"); !ok {
		t.Error("fresh state rejected")
	}
}

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}
	b, _ := NewToken()
	if a == b || len(a) < 40 {
		t.Errorf("NewToken() = %q, %q", a, b)
	}
}
