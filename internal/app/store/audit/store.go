// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventRegistered        = "registered"
	EventLoginSuccess      = "login_success"
	EventLoginFailed       = "login_failed"
	EventLoginLockedOut    = "login_locked_out"
	EventLogout            = "logout"
	EventGoogleLinked      = "google_linked"
	EventGoogleLoginFailed = "google_login_failed"
)

// Admin event types
const (
	EventContentCreated     = "content_created"
	EventContentUpdated     = "content_updated"
	EventContentDeleted     = "content_deleted"
	EventUserRoleChanged    = "user_role_changed"
	EventUserStatusChanged  = "user_status_changed"
	EventUserDeleted        = "user_deleted"
	EventOrderStatusChanged = "order_status_changed"
	EventQuestionAnswered   = "question_answered"
	EventPaymentCompleted   = "payment_completed"
	EventPaymentFailed      = "payment_failed"
)

// Event is one audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"eventType"`

	UserID  *primitive.ObjectID `bson:"user_id,omitempty" json:"userId,omitempty"`   // affected user
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty" json:"actorId,omitempty"` // who did it

	// Resource names the collection an admin event touched (news, videos...).
	Resource   string `bson:"resource,omitempty" json:"resource,omitempty"`
	ResourceID string `bson:"resource_id,omitempty" json:"resourceId,omitempty"`

	IP        string `bson:"ip" json:"ip"`
	UserAgent string `bson:"user_agent,omitempty" json:"userAgent,omitempty"`

	Success       bool              `bson:"success" json:"success"`
	FailureReason string            `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`
	Details       map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter narrows List.
type QueryFilter struct {
	Category  string
	EventType string
	ActorID   *primitive.ObjectID
	UserID    *primitive.ObjectID
	Since     *time.Time
}

func (f QueryFilter) query() bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.ActorID != nil {
		q["actor_id"] = *f.ActorID
	}
	if f.UserID != nil {
		q["user_id"] = *f.UserID
	}
	if f.Since != nil {
		q["created_at"] = bson.M{"$gte": *f.Since}
	}
	return q
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_logs")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// List returns one page of events, newest first.
func (s *Store) List(ctx context.Context, f QueryFilter, p pagination.Params) ([]Event, int64, error) {
	return storeutil.FindPage[Event](ctx, s.c, f.query(), p, storeutil.NewestFirst)
}
