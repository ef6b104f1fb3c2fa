// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User statuses.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User represents an account on the hub.
//
// Email is stored lowercase and is the login identifier. NameCI is the
// folded form of Name used for case/diacritic-insensitive search.
type User struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"`
	Email  string             `bson:"email" json:"email"`

	AuthMethod   string  `bson:"auth_method" json:"authMethod"`
	PasswordHash *string `bson:"password_hash,omitempty" json:"-"` // bcrypt hash (never in JSON)
	GoogleID     string  `bson:"google_id,omitempty" json:"-"`

	Role   Role   `bson:"role" json:"role"`
	Status string `bson:"status" json:"status"`
	Avatar string `bson:"avatar,omitempty" json:"avatar,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Author is the denormalized {id, name} snapshot embedded in content that
// belongs to a user (news author, question asker, commenter).
type Author struct {
	ID   primitive.ObjectID `bson:"id" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// IsActive reports whether the user may sign in.
func (u *User) IsActive() bool {
	return u.Status == "" || u.Status == StatusActive
}
