// internal/domain/models/video.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Embedded discussion caps. Comments live inside the video document, so
// growth is bounded here rather than by document size.
const (
	MaxCommentsPerVideo  = 500
	MaxRepliesPerComment = 100
	MaxCommentLength     = 1000
)

// Video is a lecture or recitation. Likes, Dislikes and Bookmarks are sets
// of user ids maintained with $addToSet/$pull.
type Video struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	VideoURL    string               `bson:"video_url" json:"videoUrl"`
	Thumbnail   string               `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	Category    string               `bson:"category" json:"category"`
	Duration    string               `bson:"duration,omitempty" json:"duration,omitempty"`
	Author      Author               `bson:"author" json:"author"`
	Likes       []primitive.ObjectID `bson:"likes" json:"likes"`
	Dislikes    []primitive.ObjectID `bson:"dislikes" json:"dislikes"`
	Bookmarks   []primitive.ObjectID `bson:"bookmarks" json:"bookmarks"`
	Comments    []Comment            `bson:"comments" json:"comments"`
	Views       int64                `bson:"views" json:"views"`
	Published   bool                 `bson:"published" json:"published"`
	CreatedAt   time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updatedAt"`
}

// Comment is a top-level comment on a video.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	User      Author             `bson:"user" json:"user"`
	Text      string             `bson:"text" json:"text"`
	Replies   []Reply            `bson:"replies" json:"replies"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// Reply is a response to a Comment.
type Reply struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	User      Author             `bson:"user" json:"user"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// Reactions is the like/dislike state returned after a toggle.
type Reactions struct {
	Likes    int  `json:"likes"`
	Dislikes int  `json:"dislikes"`
	Liked    bool `json:"liked"`
	Disliked bool `json:"disliked"`
}

// ReactionsFor summarizes v from the point of view of uid.
func (v *Video) ReactionsFor(uid primitive.ObjectID) Reactions {
	return Reactions{
		Likes:    len(v.Likes),
		Dislikes: len(v.Dislikes),
		Liked:    containsID(v.Likes, uid),
		Disliked: containsID(v.Dislikes, uid),
	}
}

// IsBookmarkedBy reports whether uid has bookmarked v.
func (v *Video) IsBookmarkedBy(uid primitive.ObjectID) bool {
	return containsID(v.Bookmarks, uid)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
