// internal/app/store/ratelimit/store.go
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/noorhub/internal/app/system/normalize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Attempt is the failure counter for one key (a normalized email).
type Attempt struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Key          string             `bson:"key"`
	AttemptCount int                `bson:"attempt_count"`
	WindowStart  time.Time          `bson:"window_start"`
	LockedUntil  *time.Time         `bson:"locked_until,omitempty"`
	LastAttempt  time.Time          `bson:"last_attempt"` // TTL field
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

// Store limits failed sign-in attempts per email.
type Store struct {
	c               *mongo.Collection
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
	now             func() time.Time
}

// New creates a Store that locks a key for lockout after max failures
// inside window.
func New(db *mongo.Database, maxAttempts int, window, lockout time.Duration) *Store {
	return &Store{
		c:               db.Collection("rate_limits"),
		maxAttempts:     maxAttempts,
		windowDuration:  window,
		lockoutDuration: lockout,
		now:             time.Now,
	}
}

// Decision is the outcome of CheckAllowed.
type Decision struct {
	Allowed     bool
	Remaining   int
	LockedUntil *time.Time
}

// CheckAllowed reports whether key may attempt to sign in. Lookup errors
// allow the attempt.
func (s *Store) CheckAllowed(ctx context.Context, key string) Decision {
	full := Decision{Allowed: true, Remaining: s.maxAttempts}

	a, err := s.get(ctx, normalize.Email(key))
	if err != nil || a == nil {
		return full
	}
	now := s.now()
	if a.LockedUntil != nil && now.Before(*a.LockedUntil) {
		return Decision{Allowed: false, Remaining: 0, LockedUntil: a.LockedUntil}
	}
	if !now.Before(a.WindowStart.Add(s.windowDuration)) {
		return full
	}
	remaining := s.maxAttempts - a.AttemptCount
	if remaining <= 0 {
		return Decision{Allowed: false}
	}
	return Decision{Allowed: true, Remaining: remaining}
}

// RecordFailure counts a failed attempt and locks the key once the limit
// is reached. It returns the lockout expiry when the key is now locked.
func (s *Store) RecordFailure(ctx context.Context, key string) (*time.Time, error) {
	key = normalize.Email(key)
	now := s.now()
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	// Count within the open window.
	var a Attempt
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"key": key, "window_start": bson.M{"$gt": now.Add(-s.windowDuration)}},
		bson.M{
			"$inc": bson.M{"attempt_count": 1},
			"$set": bson.M{"last_attempt": now, "updated_at": now},
		},
		after,
	).Decode(&a)

	if errors.Is(err, mongo.ErrNoDocuments) {
		// No record or the window closed: start a new one.
		err = s.c.FindOneAndUpdate(ctx,
			bson.M{"key": key},
			bson.M{
				"$set": bson.M{
					"attempt_count": 1,
					"window_start":  now,
					"last_attempt":  now,
					"updated_at":    now,
				},
				"$unset":       bson.M{"locked_until": ""},
				"$setOnInsert": bson.M{"created_at": now},
			},
			after.SetUpsert(true),
		).Decode(&a)
	}
	if err != nil {
		return nil, err
	}

	if a.AttemptCount < s.maxAttempts {
		return nil, nil
	}
	until := now.Add(s.lockoutDuration)
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": a.ID}, bson.M{"$set": bson.M{"locked_until": until}}); err != nil {
		return nil, err
	}
	return &until, nil
}

// ClearOnSuccess removes the counter after a successful sign-in.
func (s *Store) ClearOnSuccess(ctx context.Context, key string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"key": normalize.Email(key)})
	return err
}

func (s *Store) get(ctx context.Context, key string) (*Attempt, error) {
	var a Attempt
	err := s.c.FindOne(ctx, bson.M{"key": key}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
