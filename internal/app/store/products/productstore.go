// internal/app/store/products/productstore.go
package productstore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateSKU is returned when another product already uses the SKU.
	ErrDuplicateSKU = errors.New("a product with this SKU already exists")
	// ErrInsufficientStock is returned when a decrement would go below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("products")}
}

// NormalizeSKU trims and uppercases a SKU.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// ListFilter narrows a product listing.
type ListFilter struct {
	Category string
	Search   string
	Featured *bool
}

func (f ListFilter) query() bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Featured != nil {
		q["featured"] = *f.Featured
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{bson.M{"name": rx}, bson.M{"description": rx}, bson.M{"sku": rx}}
	}
	return q
}

// List returns one page of products, newest first.
func (s *Store) List(ctx context.Context, f ListFilter, p pagination.Params) ([]models.Product, int64, error) {
	return storeutil.FindPage[models.Product](ctx, s.c, f.query(), p, storeutil.NewestFirst)
}

// GetByID loads a product by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDs loads the products with the given ids keyed by id.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	out := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var p models.Product
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, cur.Err()
}

// Exists reports whether a product with id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// Create inserts a product. Returns ErrDuplicateSKU on a SKU collision.
func (s *Store) Create(ctx context.Context, p models.Product) (models.Product, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.SKU = NormalizeSKU(p.SKU)
	if p.Images == nil {
		p.Images = []string{}
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if storeutil.IsDup(err) {
			return models.Product{}, ErrDuplicateSKU
		}
		return models.Product{}, err
	}
	return p, nil
}

// UpdateInput holds the fields an admin may change. Nil means unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	SKU         *string
	Category    *string
	Images      *[]string
	Featured    *bool
}

// Update applies in and returns the updated product.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) (*models.Product, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Price != nil {
		set["price"] = *in.Price
	}
	if in.Stock != nil {
		set["stock"] = *in.Stock
	}
	if in.SKU != nil {
		set["sku"] = NormalizeSKU(*in.SKU)
	}
	if in.Category != nil {
		set["category"] = *in.Category
	}
	if in.Images != nil {
		set["images"] = *in.Images
	}
	if in.Featured != nil {
		set["featured"] = *in.Featured
	}

	var p models.Product
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p)
	if err != nil {
		if storeutil.IsDup(err) {
			return nil, ErrDuplicateSKU
		}
		return nil, err
	}
	return &p, nil
}

// Delete removes a product. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DecrementStock takes qty units if at least qty are available. The check
// and the decrement are one conditional update.
func (s *Store) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"stock": -qty},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// RestoreStock returns qty units to the product, e.g. after a cancellation.
func (s *Store) RestoreStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"stock": qty},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		})
	return err
}
