// internal/app/store/orders/orderstore.go
package orderstore

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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStatusConflict is returned when the order is not in a state that
// allows the requested transition.
var ErrStatusConflict = errors.New("order status does not allow this change")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("orders")}
}

// ListFilter narrows an order listing. A zero UserID lists every user.
type ListFilter struct {
	UserID primitive.ObjectID
	Status models.OrderStatus
}

func (f ListFilter) query() bson.M {
	q := bson.M{}
	if !f.UserID.IsZero() {
		q["user_id"] = f.UserID
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}

// List returns one page of orders, newest first.
func (s *Store) List(ctx context.Context, f ListFilter, p pagination.Params) ([]models.Order, int64, error) {
	return storeutil.FindPage[models.Order](ctx, s.c, f.query(), p, storeutil.NewestFirst)
}

// GetByID loads an order by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByPaymentID loads the order a bKash payment was created for.
func (s *Store) GetByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"payment_id": paymentID})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var o models.Order
	if err := s.c.FindOne(ctx, filter).Decode(&o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts a pending, unpaid order and computes its total.
func (s *Store) Create(ctx context.Context, o models.Order) (models.Order, error) {
	now := time.Now().UTC()
	o.ID = primitive.NewObjectID()
	o.TotalAmount = models.Total(o.Items)
	if o.Status == "" {
		o.Status = models.OrderPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = models.PaymentUnpaid
	}
	o.CreatedAt = now
	o.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, o); err != nil {
		return models.Order{}, err
	}
	return o, nil
}

// UpdateStatus moves an order to status to. When from is non-empty the
// order must currently be in one of those states. An order already in to
// is a conflict, so a cancellation can only happen once. The order as it
// was before the change is returned.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, to models.OrderStatus, from ...models.OrderStatus) (*models.Order, error) {
	cond := bson.M{"$ne": to}
	if len(from) > 0 {
		cond["$in"] = from
	}
	filter := bson.M{"_id": id, "status": cond}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}}

	var prev models.Order
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&prev)
	if err == nil {
		return &prev, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if _, gerr := s.GetByID(ctx, id); gerr != nil {
		return nil, gerr
	}
	return nil, ErrStatusConflict
}

// SetPaymentID records the bKash payment id created for an unpaid order.
func (s *Store) SetPaymentID(ctx context.Context, id primitive.ObjectID, paymentID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "payment_status": bson.M{"$ne": models.PaymentPaid}},
		bson.M{"$set": bson.M{"payment_id": paymentID, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}

// MarkPaid records a completed payment and moves a pending order to
// processing. Marking an already-paid or cancelled order is a conflict.
func (s *Store) MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID, transactionID string) (*models.Order, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"_id":            id,
		"payment_status": bson.M{"$ne": models.PaymentPaid},
		"status":         bson.M{"$ne": models.OrderCancelled},
	}
	update := bson.A{
		bson.M{"$set": bson.M{
			"payment_status": models.PaymentPaid,
			"payment_id":     paymentID,
			"transaction_id": transactionID,
			"updated_at":     now,
			"status": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.OrderPending}},
				models.OrderProcessing,
				"$status",
			}},
		}},
	}
	var o models.Order
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, gerr := s.GetByID(ctx, id); gerr != nil {
				return nil, gerr
			}
			return nil, ErrStatusConflict
		}
		return nil, err
	}
	return &o, nil
}

// MarkPaymentFailed flags an unpaid order's payment as failed.
func (s *Store) MarkPaymentFailed(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "payment_status": bson.M{"$ne": models.PaymentPaid}},
		bson.M{"$set": bson.M{"payment_status": models.PaymentFailed, "updated_at": time.Now().UTC()}})
	return err
}

// CountByStatus returns the number of orders in each fulfilment status.
// Statuses with no orders are absent.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64)
	for cur.Next(ctx) {
		var doc struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out[doc.ID] = doc.Count
	}
	return out, cur.Err()
}

// Delete removes an order. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
