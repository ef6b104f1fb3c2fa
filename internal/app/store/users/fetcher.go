// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/dalemusser/noorhub/internal/app/store/sessions"
	"github.com/dalemusser/noorhub/internal/app/system/auth"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
type Fetcher struct {
	users    *mongo.Collection
	sessions *sessions.Store
	logger   *zap.Logger
}

// NewFetcher creates a UserFetcher that queries the given database. Every
// cookie must match an open record in the sessions collection.
func NewFetcher(db *mongo.Database, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		users:    db.Collection("users"),
		sessions: sessions.New(db),
		logger:   logger,
	}
}

// FetchUser retrieves a user by ID and returns nil if the user is not found,
// disabled, signed out, or if any error occurs. Unknown stored roles are
// demoted to user.
func (f *Fetcher) FetchUser(ctx context.Context, userID, token string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil || token == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	sess, err := f.sessions.GetByToken(ctx, token)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			f.logger.Warn("session lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	if sess.UserID != oid {
		return nil
	}

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":    1,
		"name":   1,
		"email":  1,
		"role":   1,
		"status": 1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		if err != mongo.ErrNoDocuments {
			f.logger.Warn("session user lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	if !u.IsActive() {
		return nil
	}

	return &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Role:  models.RoleOrUser(string(u.Role)),
	}
}
