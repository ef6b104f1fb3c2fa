// internal/app/store/bookmarks/bookmarkstore.go
package bookmarkstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateBookmark is returned when the user already bookmarked the content.
var ErrDuplicateBookmark = errors.New("content already bookmarked")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("bookmarks")}
}

// List returns one page of a user's bookmarks, newest first, optionally
// limited to one content type.
func (s *Store) List(ctx context.Context, userID primitive.ObjectID, ct models.ContentType, p pagination.Params) ([]models.Bookmark, int64, error) {
	q := bson.M{"user_id": userID}
	if ct != "" {
		q["content_type"] = ct
	}
	return storeutil.FindPage[models.Bookmark](ctx, s.c, q, p, storeutil.NewestFirst)
}

// GetByID loads a bookmark by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Bookmark, error) {
	var b models.Bookmark
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Find returns the user's bookmark of the content, or mongo.ErrNoDocuments.
func (s *Store) Find(ctx context.Context, userID primitive.ObjectID, ct models.ContentType, contentID string) (*models.Bookmark, error) {
	var b models.Bookmark
	filter := bson.M{"user_id": userID, "content_type": ct, "content_id": contentID}
	if err := s.c.FindOne(ctx, filter).Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Exists reports whether the user bookmarked the content.
func (s *Store) Exists(ctx context.Context, userID primitive.ObjectID, ct models.ContentType, contentID string) (bool, error) {
	_, err := s.Find(ctx, userID, ct, contentID)
	if err == nil {
		return true, nil
	}
	if storeutil.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Create inserts a bookmark. Returns ErrDuplicateBookmark when the
// (user, contentType, contentId) triple exists.
func (s *Store) Create(ctx context.Context, b models.Bookmark) (models.Bookmark, error) {
	b.ID = primitive.NewObjectID()
	b.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, b); err != nil {
		if storeutil.IsDup(err) {
			return models.Bookmark{}, ErrDuplicateBookmark
		}
		return models.Bookmark{}, err
	}
	return b, nil
}

// Delete removes a bookmark. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByUser removes every bookmark of userID.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByContent removes every bookmark of one piece of content.
func (s *Store) DeleteByContent(ctx context.Context, ct models.ContentType, contentID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"content_type": ct, "content_id": contentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ContentIDs returns the distinct content ids bookmarked for a type.
func (s *Store) ContentIDs(ctx context.Context, ct models.ContentType) ([]string, error) {
	raw, err := s.c.Distinct(ctx, "content_id", bson.M{"content_type": ct})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// DeleteByContentIDs removes bookmarks of a type pointing at any of ids.
func (s *Store) DeleteByContentIDs(ctx context.Context, ct models.ContentType, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"content_type": ct, "content_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
