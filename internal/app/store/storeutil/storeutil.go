// internal/app/store/storeutil/storeutil.go
package storeutil

import (
	"context"
	"errors"

	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInvalidID is returned for ids that are not 24-char hex ObjectIDs.
var ErrInvalidID = errors.New("invalid id")

// Paginate returns *options.FindOptions with skip/limit for p.
func Paginate(p pagination.Params, sort bson.D) *options.FindOptions {
	if p.Limit <= 0 {
		p.Limit = pagination.DefaultLimit
	}
	opts := options.Find().SetLimit(p.Limit).SetSkip(p.Skip())
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	return opts
}

// NewestFirst sorts by created_at descending with _id as a tiebreaker.
var NewestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// ParseID converts a hex string into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

// IsNotFound reports whether err means no document matched.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// IsDup reports a duplicate-key violation from an insert or an update.
func IsDup(err error) bool {
	return wafflemongo.IsDup(err) || mongo.IsDuplicateKeyError(err)
}

// FindPage runs a counted, paginated find and decodes into []T.
func FindPage[T any](ctx context.Context, c *mongo.Collection, filter bson.M, p pagination.Params, sort bson.D) ([]T, int64, error) {
	total, err := c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := c.Find(ctx, filter, Paginate(p, sort))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ExistingIDs returns the subset of ids that have a document in c.
func ExistingIDs(ctx context.Context, c *mongo.Collection, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	found := make(map[primitive.ObjectID]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	vals, err := c.Distinct(ctx, "_id", bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		if oid, ok := v.(primitive.ObjectID); ok {
			found[oid] = true
		}
	}
	return found, nil
}
