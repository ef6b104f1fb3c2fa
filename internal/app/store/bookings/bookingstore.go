// internal/app/store/bookings/bookingstore.go
package bookingstore

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

// ErrDuplicateBooking is returned when the user already booked the video.
var ErrDuplicateBooking = errors.New("you have already booked this video")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("bookings")}
}

// ListFilter narrows a booking listing. A zero UserID lists every user.
type ListFilter struct {
	UserID primitive.ObjectID
	Status models.BookingStatus
}

// List returns one page of bookings, newest first.
func (s *Store) List(ctx context.Context, f ListFilter, p pagination.Params) ([]models.Booking, int64, error) {
	q := bson.M{}
	if !f.UserID.IsZero() {
		q["user_id"] = f.UserID
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return storeutil.FindPage[models.Booking](ctx, s.c, q, p, storeutil.NewestFirst)
}

// GetByID loads a booking by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var b models.Booking
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Exists reports whether userID has booked videoID.
func (s *Store) Exists(ctx context.Context, userID, videoID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"user_id": userID, "video_id": videoID}, options.Count().SetLimit(1))
	return n > 0, err
}

// Create inserts a pending booking. Returns ErrDuplicateBooking when the
// (user, video) pair is already booked.
func (s *Store) Create(ctx context.Context, b models.Booking) (models.Booking, error) {
	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	if b.Status == "" {
		b.Status = models.BookingPending
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, b); err != nil {
		if storeutil.IsDup(err) {
			return models.Booking{}, ErrDuplicateBooking
		}
		return models.Booking{}, err
	}
	return b, nil
}

// UpdateInput holds the mutable booking fields. Nil means unchanged;
// ClearSchedule removes scheduled_for.
type UpdateInput struct {
	ScheduledFor  *time.Time
	ClearSchedule bool
	Notes         *string
	Status        *models.BookingStatus
}

// Update applies in and returns the updated booking.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) (*models.Booking, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	update := bson.M{}
	if in.ScheduledFor != nil {
		set["scheduled_for"] = in.ScheduledFor.UTC()
	} else if in.ClearSchedule {
		update["$unset"] = bson.M{"scheduled_for": ""}
	}
	if in.Notes != nil {
		set["notes"] = *in.Notes
	}
	if in.Status != nil {
		set["status"] = *in.Status
	}
	update["$set"] = set

	var b models.Booking
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Delete removes a booking. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByUser removes every booking of userID.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByContent removes every booking of videoID.
func (s *Store) DeleteByContent(ctx context.Context, videoID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"video_id": videoID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// VideoIDs returns the distinct videos that have bookings.
func (s *Store) VideoIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	raw, err := s.c.Distinct(ctx, "video_id", bson.M{})
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// DeleteByVideoIDs removes bookings of any of ids.
func (s *Store) DeleteByVideoIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"video_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
