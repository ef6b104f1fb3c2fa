// internal/app/store/oauthstate/oauthstatestore.go
package oauthstate

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Lifetime is how long a state token stays valid.
const Lifetime = 10 * time.Minute

// State is a pending Google sign-in. ReturnTo is the frontend path to
// land on after the callback.
type State struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	State     string             `bson:"state"`
	ReturnTo  string             `bson:"return_to,omitempty"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states"), now: time.Now}
}

// NewToken returns a random URL-safe state value.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Create stores a state token.
func (s *Store) Create(ctx context.Context, state, returnTo string) error {
	now := s.now()
	_, err := s.c.InsertOne(ctx, State{
		ID:        primitive.NewObjectID(),
		State:     state,
		ReturnTo:  returnTo,
		ExpiresAt: now.Add(Lifetime),
		CreatedAt: now,
	})
	return err
}

// Consume validates and deletes a state token (single use). It returns the
// stored return path and whether the token was valid.
func (s *Store) Consume(ctx context.Context, state string) (string, bool) {
	if state == "" {
		return "", false
	}
	var st State
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": s.now()},
	}).Decode(&st)
	if err != nil {
		return "", false
	}
	return st.ReturnTo, true
}

// DeleteExpired removes stale tokens. The TTL index does the same lazily;
// the cleanup job calls this so short-lived deployments stay tidy too.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": s.now()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
