// internal/domain/models/news.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// News field limits.
const (
	NewsTitleMax   = 200
	NewsExcerptMax = 500
)

// News is an article. Content is sanitized HTML; Excerpt is derived from
// it when the author leaves it blank.
type News struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	Excerpt   string             `bson:"excerpt" json:"excerpt"`
	Category  string             `bson:"category" json:"category"`
	ImageURL  string             `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	Tags      []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Author    Author             `bson:"author" json:"author"`
	Published bool               `bson:"published" json:"published"`
	Featured  bool               `bson:"featured" json:"featured"`
	Views     int64              `bson:"views" json:"views"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
