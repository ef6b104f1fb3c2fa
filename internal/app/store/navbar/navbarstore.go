// internal/app/store/navbar/navbarstore.go
package navbarstore

import (
	"context"
	"time"

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
	return &Store{c: db.Collection("navbar_items")}
}

// List returns menu items ordered by order then title.
func (s *Store) List(ctx context.Context, activeOnly bool) ([]models.NavbarItem, error) {
	q := bson.M{}
	if activeOnly {
		q["is_active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "title", Value: 1}})
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.NavbarItem{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID loads a menu item by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.NavbarItem, error) {
	var it models.NavbarItem
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&it); err != nil {
		return nil, err
	}
	return &it, nil
}

// Create inserts a menu item.
func (s *Store) Create(ctx context.Context, it models.NavbarItem) (models.NavbarItem, error) {
	now := time.Now().UTC()
	it.ID = primitive.NewObjectID()
	it.CreatedAt = now
	it.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, it); err != nil {
		return models.NavbarItem{}, err
	}
	return it, nil
}

// UpdateInput holds editable menu fields. Nil means unchanged;
// ClearParent moves the item to the top level.
type UpdateInput struct {
	Title       *string
	Href        *string
	Type        *string
	ParentID    *primitive.ObjectID
	ClearParent bool
	Order       *int
	IsActive    *bool
}

// Update applies in and returns the updated item.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) (*models.NavbarItem, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	update := bson.M{}
	if in.Title != nil {
		set["title"] = *in.Title
	}
	if in.Href != nil {
		set["href"] = *in.Href
	}
	if in.Type != nil {
		set["type"] = *in.Type
	}
	if in.ParentID != nil {
		set["parent_id"] = *in.ParentID
	} else if in.ClearParent {
		update["$unset"] = bson.M{"parent_id": ""}
	}
	if in.Order != nil {
		set["order"] = *in.Order
	}
	if in.IsActive != nil {
		set["is_active"] = *in.IsActive
	}
	update["$set"] = set

	var it models.NavbarItem
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&it); err != nil {
		return nil, err
	}
	return &it, nil
}

// HasChildren reports whether any item points at id as its parent.
func (s *Store) HasChildren(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"parent_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// ClearParent promotes the children of parentID to the top level.
func (s *Store) ClearParent(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"parent_id": parentID},
		bson.M{
			"$unset": bson.M{"parent_id": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete removes a menu item. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
