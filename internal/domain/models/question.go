// internal/domain/models/question.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Question text limits.
const (
	QuestionMinLength = 10
	QuestionMaxLength = 1000
)

// QuestionStatus is pending until an admin answers.
type QuestionStatus string

const (
	QuestionPending  QuestionStatus = "pending"
	QuestionAnswered QuestionStatus = "answered"
)

// Question is a user's question to the scholars.
type Question struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User       Author             `bson:"user" json:"user"`
	Text       string             `bson:"text" json:"text"`
	Category   string             `bson:"category,omitempty" json:"category,omitempty"`
	IsPublic   bool               `bson:"is_public" json:"isPublic"`
	Answer     string             `bson:"answer,omitempty" json:"answer,omitempty"`
	AnsweredBy *Author            `bson:"answered_by,omitempty" json:"answeredBy,omitempty"`
	AnsweredAt *time.Time         `bson:"answered_at,omitempty" json:"answeredAt,omitempty"`
	Status     QuestionStatus     `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}
