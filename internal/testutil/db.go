// Package testutil holds shared helpers for noorhub's package tests: a
// per-test MongoDB database, request builders and a recording mailer.
package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"

	"github.com/dalemusser/noorhub/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Tests expect a MongoDB listening here.
const (
	TestDBURI  = "mongodb://localhost:27017"
	TestDBName = "noorhub_test"
)

// maxDBName is MongoDB's database name limit.
const maxDBName = 63

var shared = struct {
	once   sync.Once
	client *mongo.Client
	err    error
}{}

func sharedClient() (*mongo.Client, error) {
	shared.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		opts := options.Client().
			ApplyURI(TestDBURI).
			SetMaxPoolSize(200).
			SetMaxConnIdleTime(30 * time.Second).
			SetServerSelectionTimeout(10 * time.Second)
		shared.client, shared.err = mongo.Connect(ctx, opts)
		if shared.err == nil {
			shared.err = shared.client.Ping(ctx, nil)
		}
	})
	return shared.client, shared.err
}

// SetupTestDB hands t an empty database named after the test, with the
// production indexes in place. It is dropped again on cleanup.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	c, err := sharedClient()
	if err != nil {
		t.Fatalf("test MongoDB unavailable at %s: %v", TestDBURI, err)
	}
	db := c.Database(dbNameFor(t.Name()))

	ctx, cancel := TestContext()
	defer cancel()
	if err := db.Drop(ctx); err != nil {
		t.Fatalf("drop %s: %v", db.Name(), err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("cleanup drop %s: %v", db.Name(), err)
		}
	})
	return db
}

// dbNameFor maps a test name onto a legal, length-capped database name.
func dbNameFor(testName string) string {
	suffix := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return '_'
	}, testName)
	name := TestDBName + "_" + suffix
	if len(name) > maxDBName {
		name = name[:maxDBName]
	}
	return name
}

// TestContext bounds a test's database work.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// UnreachableDB returns a database whose every operation fails fast, for
// exercising the demo-data fallback and write errors.
func UnreachableDB(t *testing.T) *mongo.Database {
	t.Helper()

	opts := options.Client().
		ApplyURI("mongodb://127.0.0.1:1/?directConnection=true").
		SetServerSelectionTimeout(200 * time.Millisecond).
		SetConnectTimeout(200 * time.Millisecond)
	c, err := mongo.Connect(context.Background(), opts)
	if err != nil {
		t.Fatalf("build unreachable client: %v", err)
	}
	t.Cleanup(func() { _ = c.Disconnect(context.Background()) })
	return c.Database("noorhub_unreachable")
}
