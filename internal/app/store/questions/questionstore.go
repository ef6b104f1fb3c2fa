// internal/app/store/questions/questionstore.go
package questionstore

import (
	"context"
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
	return &Store{c: db.Collection("questions")}
}

// ListFilter narrows a question listing.
//
// Without All, only public answered questions are visible, plus the
// viewer's own questions when ViewerID is set.
type ListFilter struct {
	Status   models.QuestionStatus
	Category string
	ViewerID primitive.ObjectID
	All      bool
}

func (f ListFilter) query() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.All {
		return q
	}
	public := bson.M{"is_public": true, "status": models.QuestionAnswered}
	if f.ViewerID.IsZero() {
		q["$and"] = bson.A{public}
		return q
	}
	q["$or"] = bson.A{public, bson.M{"user.id": f.ViewerID}}
	return q
}

// List returns one page of questions, newest first.
func (s *Store) List(ctx context.Context, f ListFilter, p pagination.Params) ([]models.Question, int64, error) {
	return storeutil.FindPage[models.Question](ctx, s.c, f.query(), p, storeutil.NewestFirst)
}

// GetByID loads a question by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Question, error) {
	var q models.Question
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Create inserts a pending question.
func (s *Store) Create(ctx context.Context, q models.Question) (models.Question, error) {
	now := time.Now().UTC()
	q.ID = primitive.NewObjectID()
	q.Status = models.QuestionPending
	q.Answer = ""
	q.AnsweredBy = nil
	q.AnsweredAt = nil
	q.CreatedAt = now
	q.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, q); err != nil {
		return models.Question{}, err
	}
	return q, nil
}

// UpdateInput holds editable question fields. Nil means unchanged.
type UpdateInput struct {
	Text     *string
	Category *string
	IsPublic *bool
}

// Update applies in and returns the updated question.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) (*models.Question, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if in.Text != nil {
		set["text"] = *in.Text
	}
	if in.Category != nil {
		set["category"] = *in.Category
	}
	if in.IsPublic != nil {
		set["is_public"] = *in.IsPublic
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// Answer stores the answer and marks the question answered. Re-answering
// replaces the previous answer.
func (s *Store) Answer(ctx context.Context, id primitive.ObjectID, answer string, by models.Author) (*models.Question, error) {
	now := time.Now().UTC()
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"answer":      answer,
		"answered_by": by,
		"answered_at": now,
		"status":      models.QuestionAnswered,
		"updated_at":  now,
	}})
}

func (s *Store) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Question, error) {
	var q models.Question
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Delete removes a question. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
