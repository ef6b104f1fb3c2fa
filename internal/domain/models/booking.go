// internal/domain/models/booking.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingStatus tracks a saved intent to watch a video.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// AllBookingStatuses lists the booking states.
func AllBookingStatuses() []string {
	return []string{
		string(BookingPending),
		string(BookingConfirmed),
		string(BookingCancelled),
		string(BookingCompleted),
	}
}

// Booking is unique per (user, video).
type Booking struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"userId"`
	VideoID      primitive.ObjectID `bson:"video_id" json:"videoId"`
	Video        VideoSnapshot      `bson:"video" json:"video"`
	ScheduledFor *time.Time         `bson:"scheduled_for,omitempty" json:"scheduledFor,omitempty"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Status       BookingStatus      `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// VideoSnapshot is the denormalized copy of the booked video.
type VideoSnapshot struct {
	Title     string `bson:"title" json:"title"`
	Thumbnail string `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	VideoURL  string `bson:"video_url" json:"videoUrl"`
}
