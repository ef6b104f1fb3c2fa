// internal/app/store/news/newsstore.go
package newsstore

import (
	"context"
	"regexp"
	"time"

	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("news")}
}

// ListFilter narrows a news listing. Published nil means "any".
type ListFilter struct {
	Category  string
	Search    string
	Featured  *bool
	Published *bool
}

func (f ListFilter) query() bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Featured != nil {
		q["featured"] = *f.Featured
	}
	if f.Published != nil {
		q["published"] = *f.Published
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"content": rx},
			bson.M{"excerpt": rx},
		}
	}
	return q
}

// List returns one page of news, newest first, and the total match count.
func (s *Store) List(ctx context.Context, f ListFilter, p pagination.Params) ([]models.News, int64, error) {
	return storeutil.FindPage[models.News](ctx, s.c, f.query(), p, storeutil.NewestFirst)
}

// GetByID loads an article by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.News, error) {
	var n models.News
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts an article. Views always start at zero.
func (s *Store) Create(ctx context.Context, n models.News) (models.News, error) {
	now := time.Now().UTC()
	n.ID = primitive.NewObjectID()
	n.Views = 0
	if n.Tags == nil {
		n.Tags = []string{}
	}
	n.CreatedAt = now
	n.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.News{}, err
	}
	return n, nil
}

// UpdateInput holds the fields an admin may change. Nil means unchanged.
type UpdateInput struct {
	Title     *string
	Content   *string
	Excerpt   *string
	Category  *string
	ImageURL  *string
	Tags      *[]string
	Published *bool
	Featured  *bool
}

// Update applies in and returns the updated article.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) (*models.News, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if in.Title != nil {
		set["title"] = *in.Title
	}
	if in.Content != nil {
		set["content"] = *in.Content
	}
	if in.Excerpt != nil {
		set["excerpt"] = *in.Excerpt
	}
	if in.Category != nil {
		set["category"] = *in.Category
	}
	if in.ImageURL != nil {
		set["image_url"] = *in.ImageURL
	}
	if in.Tags != nil {
		set["tags"] = *in.Tags
	}
	if in.Published != nil {
		set["published"] = *in.Published
	}
	if in.Featured != nil {
		set["featured"] = *in.Featured
	}

	var n models.News
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// IncrementViews bumps the view counter and returns the article.
func (s *Store) IncrementViews(ctx context.Context, id primitive.ObjectID) (*models.News, error) {
	var n models.News
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}}, opts).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Delete removes an article. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Exists reports whether an article with id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}
