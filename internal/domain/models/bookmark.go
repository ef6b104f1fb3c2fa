// internal/domain/models/bookmark.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContentType identifies what a bookmark points at.
type ContentType string

const (
	ContentNews    ContentType = "news"
	ContentVideo   ContentType = "video"
	ContentProduct ContentType = "product"
	ContentQuran   ContentType = "quran"
	ContentHadith  ContentType = "hadith"
)

// AllContentTypes lists bookmarkable content types.
func AllContentTypes() []string {
	return []string{
		string(ContentNews),
		string(ContentVideo),
		string(ContentProduct),
		string(ContentQuran),
		string(ContentHadith),
	}
}

// Bookmark is unique per (user, contentType, contentId). ContentID is a
// string because surahs are addressed by number rather than ObjectID.
type Bookmark struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`
	ContentType ContentType        `bson:"content_type" json:"contentType"`
	ContentID   string             `bson:"content_id" json:"contentId"`
	Snapshot    ContentSnapshot    `bson:"snapshot" json:"content"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}

// ContentSnapshot is the denormalized summary shown in bookmark lists.
type ContentSnapshot struct {
	Title    string `bson:"title" json:"title"`
	Excerpt  string `bson:"excerpt,omitempty" json:"excerpt,omitempty"`
	ImageURL string `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	URL      string `bson:"url" json:"url"`
}
