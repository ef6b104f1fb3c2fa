// internal/app/store/sessions/store.go
package sessions

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Session end reasons
const (
	EndLogout  = "logout"
	EndRevoked = "revoked" // account deleted or disabled by an admin
)

// Session is the server-side record of a signed-in cookie. The cookie
// carries Token; a session only authenticates while its record is open
// and unexpired.
type Session struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Token     string             `bson:"token"`
	UserID    primitive.ObjectID `bson:"user_id"`
	IPAddress string             `bson:"ip_address,omitempty"`
	UserAgent string             `bson:"user_agent,omitempty"`
	Method    string             `bson:"method,omitempty"` // password, google

	LoginAt   time.Time  `bson:"login_at"`
	LogoutAt  *time.Time `bson:"logout_at,omitempty"`
	EndReason string     `bson:"end_reason,omitempty"`

	// TTL expiration
	ExpiresAt time.Time `bson:"expires_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sessions")}
}

// Create records a new session. LoginAt defaults to now.
func (s *Store) Create(ctx context.Context, session Session) error {
	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	if session.LoginAt.IsZero() {
		session.LoginAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, session)
	return err
}

func openFilter(extra bson.M) bson.M {
	q := bson.M{
		"logout_at":  nil,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}
	for k, v := range extra {
		q[k] = v
	}
	return q
}

// GetByToken returns the open session for token, or mongo.ErrNoDocuments
// when it was closed or has expired.
func (s *Store) GetByToken(ctx context.Context, token string) (*Session, error) {
	var session Session
	if err := s.c.FindOne(ctx, openFilter(bson.M{"token": token})).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Store) close(ctx context.Context, filter bson.M, reason string) (int64, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateMany(ctx, openFilter(filter), bson.M{"$set": bson.M{
		"logout_at":  now,
		"end_reason": reason,
	}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Close ends the session for token.
func (s *Store) Close(ctx context.Context, token, reason string) error {
	_, err := s.close(ctx, bson.M{"token": token}, reason)
	return err
}

// CloseByUser ends every open session of userID and returns how many were
// closed.
func (s *Store) CloseByUser(ctx context.Context, userID primitive.ObjectID, reason string) (int64, error) {
	return s.close(ctx, bson.M{"user_id": userID}, reason)
}

// ListByUser returns the open sessions of userID, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "login_at", Value: -1}})
	cur, err := s.c.Find(ctx, openFilter(bson.M{"user_id": userID}), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []Session{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountActive counts open sessions across all users.
func (s *Store) CountActive(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, openFilter(nil))
}
