// internal/app/store/hadith/hadithstore.go
package hadithstore

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
	return &Store{c: db.Collection("hadiths")}
}

// ListFilter narrows a hadith listing.
type ListFilter struct {
	Collection string
	Search     string
}

var byCollectionNumber = bson.D{{Key: "collection_name", Value: 1}, {Key: "hadith_number", Value: 1}}

// List returns one page of hadiths ordered by collection then number.
func (s *Store) List(ctx context.Context, f ListFilter, p pagination.Params) ([]models.Hadith, int64, error) {
	q := bson.M{}
	if f.Collection != "" {
		q["collection_name"] = f.Collection
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"translations.text": rx},
			bson.M{"narrator": rx},
			bson.M{"chapter": rx},
			bson.M{"book_name": rx},
		}
	}
	return storeutil.FindPage[models.Hadith](ctx, s.c, q, p, byCollectionNumber)
}

// GetByID loads a hadith by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Hadith, error) {
	var h models.Hadith
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Create inserts a hadith.
func (s *Store) Create(ctx context.Context, h models.Hadith) (models.Hadith, error) {
	now := time.Now().UTC()
	h.ID = primitive.NewObjectID()
	if h.Translations == nil {
		h.Translations = []models.Translation{}
	}
	h.CreatedAt = now
	h.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, h); err != nil {
		return models.Hadith{}, err
	}
	return h, nil
}

// UpdateInput holds editable hadith fields. Nil means unchanged.
type UpdateInput struct {
	CollectionName *string
	HadithNumber   *int
	BookName       *string
	Chapter        *string
	Narrator       *string
	ArabicText     *string
	Translations   *[]models.Translation
	Grade          *string
}

// Update applies in and returns the updated hadith.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) (*models.Hadith, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if in.CollectionName != nil {
		set["collection_name"] = *in.CollectionName
	}
	if in.HadithNumber != nil {
		set["hadith_number"] = *in.HadithNumber
	}
	if in.BookName != nil {
		set["book_name"] = *in.BookName
	}
	if in.Chapter != nil {
		set["chapter"] = *in.Chapter
	}
	if in.Narrator != nil {
		set["narrator"] = *in.Narrator
	}
	if in.ArabicText != nil {
		set["arabic_text"] = *in.ArabicText
	}
	if in.Translations != nil {
		set["translations"] = *in.Translations
	}
	if in.Grade != nil {
		set["grade"] = *in.Grade
	}
	var h models.Hadith
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Delete removes a hadith. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
