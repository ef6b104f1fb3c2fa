package storeutil

import (
	"errors"
	"testing"

	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestPaginate(t *testing.T) {
	opts := Paginate(pagination.Params{Page: 3, Limit: 10}, NewestFirst)
	if *opts.Limit != 10 || *opts.Skip != 20 {
		t.Errorf("limit=%d skip=%d, want 10/20", *opts.Limit, *opts.Skip)
	}
	if opts.Sort == nil {
		t.Error("sort should be set")
	}

	opts = Paginate(pagination.Params{}, nil)
	if *opts.Limit != pagination.DefaultLimit || *opts.Skip != 0 {
		t.Errorf("zero params: limit=%d skip=%d", *opts.Limit, *opts.Skip)
	}
	if opts.Sort != nil {
		t.Error("sort should be unset for empty sort")
	}
}

func TestParseID(t *testing.T) {
	if _, err := ParseID("65a1b2c3d4e5f60718293a4b"); err != nil {
		t.Errorf("valid hex: %v", err)
	}
	for _, bad := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		if _, err := ParseID(bad); !errors.Is(err, ErrInvalidID) {
			t.Errorf("ParseID(%q) error = %v, want ErrInvalidID", bad, err)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(mongo.ErrNoDocuments) {
		t.Error("ErrNoDocuments should be not found")
	}
	if IsNotFound(errors.New("boom")) {
		t.Error("generic error should not be not found")
	}
}

func TestExistingIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := db.Collection("things")
	a, b, missing := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	if _, err := c.InsertMany(ctx, []any{bson.M{"_id": a}, bson.M{"_id": b}}); err != nil {
		t.Fatalf("InsertMany() error = %v", err)
	}

	got, err := ExistingIDs(ctx, c, []primitive.ObjectID{a, missing, b})
	if err != nil {
		t.Fatalf("ExistingIDs() error = %v", err)
	}
	if len(got) != 2 || !got[a] || !got[b] || got[missing] {
		t.Errorf("ExistingIDs() = %v", got)
	}

	empty, err := ExistingIDs(ctx, c, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("ExistingIDs(nil) = %v, %v", empty, err)
	}
}
