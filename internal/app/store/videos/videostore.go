// internal/app/store/videos/videostore.go
package videostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
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
	// ErrCommentLimit is returned when a video already holds the maximum comments.
	ErrCommentLimit = fmt.Errorf("a video can hold at most %d comments", models.MaxCommentsPerVideo)
	// ErrReplyLimit is returned when a comment already holds the maximum replies.
	ErrReplyLimit = fmt.Errorf("a comment can hold at most %d replies", models.MaxRepliesPerComment)
	// ErrCommentNotFound is returned when the comment id does not exist on the video.
	ErrCommentNotFound = errors.New("comment not found")
)

// toggleAttempts bounds the retry when a concurrent toggle flips the state
// between the add and remove phases.
const toggleAttempts = 3

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("videos")}
}

// ListFilter narrows a video listing.
type ListFilter struct {
	Category  string
	Search    string
	Published *bool
}

func (f ListFilter) query() bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Published != nil {
		q["published"] = *f.Published
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{bson.M{"title": rx}, bson.M{"description": rx}}
	}
	return q
}

// List returns one page of videos, newest first. Comments are omitted.
func (s *Store) List(ctx context.Context, f ListFilter, p pagination.Params) ([]models.Video, int64, error) {
	q := f.query()
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	opts := storeutil.Paginate(p, storeutil.NewestFirst).SetProjection(bson.M{"comments": 0})
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	out := []models.Video{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID loads a video with its comments.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error) {
	var v models.Video
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Exists reports whether a video with id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// Create inserts a video with empty reaction sets and comments.
func (s *Store) Create(ctx context.Context, v models.Video) (models.Video, error) {
	now := time.Now().UTC()
	v.ID = primitive.NewObjectID()
	v.Likes = []primitive.ObjectID{}
	v.Dislikes = []primitive.ObjectID{}
	v.Bookmarks = []primitive.ObjectID{}
	v.Comments = []models.Comment{}
	v.Views = 0
	v.CreatedAt = now
	v.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, v); err != nil {
		return models.Video{}, err
	}
	return v, nil
}

// UpdateInput holds the fields an admin may change. Nil means unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	VideoURL    *string
	Thumbnail   *string
	Category    *string
	Duration    *string
	Published   *bool
}

// Update applies in and returns the updated video.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) (*models.Video, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if in.Title != nil {
		set["title"] = *in.Title
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.VideoURL != nil {
		set["video_url"] = *in.VideoURL
	}
	if in.Thumbnail != nil {
		set["thumbnail"] = *in.Thumbnail
	}
	if in.Category != nil {
		set["category"] = *in.Category
	}
	if in.Duration != nil {
		set["duration"] = *in.Duration
	}
	if in.Published != nil {
		set["published"] = *in.Published
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// Delete removes a video. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// IncrementViews bumps the view counter and returns the video.
func (s *Store) IncrementViews(ctx context.Context, id primitive.ObjectID) (*models.Video, error) {
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
}

func (s *Store) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Video, error) {
	var v models.Video
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

/* ---------------------------- reactions ---------------------------- */

// toggle flips uid's membership in field. Adding also pulls uid from
// opposite (when set). Each phase is a single conditional update, so two
// concurrent toggles never lose each other's writes.
func (s *Store) toggle(ctx context.Context, id, uid primitive.ObjectID, field, opposite string) (*models.Video, error) {
	for i := 0; i < toggleAttempts; i++ {
		stamp := bson.M{"updated_at": time.Now().UTC()}
		add := bson.M{"$addToSet": bson.M{field: uid}, "$set": stamp}
		if opposite != "" {
			add["$pull"] = bson.M{opposite: uid}
		}
		v, err := s.findOneAndUpdate(ctx, bson.M{"_id": id, field: bson.M{"$ne": uid}}, add)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}

		v, err = s.findOneAndUpdate(ctx, bson.M{"_id": id, field: uid}, bson.M{"$pull": bson.M{field: uid}, "$set": stamp})
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}

		// Neither phase matched: either the video is gone or another
		// request flipped the state in between.
		ok, err := s.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, mongo.ErrNoDocuments
		}
	}
	return nil, fmt.Errorf("toggle %s: state kept changing", field)
}

// ToggleLike likes or un-likes the video for uid. Liking clears a dislike.
func (s *Store) ToggleLike(ctx context.Context, id, uid primitive.ObjectID) (models.Reactions, error) {
	v, err := s.toggle(ctx, id, uid, "likes", "dislikes")
	if err != nil {
		return models.Reactions{}, err
	}
	return v.ReactionsFor(uid), nil
}

// ToggleDislike dislikes or un-dislikes the video for uid. Disliking clears a like.
func (s *Store) ToggleDislike(ctx context.Context, id, uid primitive.ObjectID) (models.Reactions, error) {
	v, err := s.toggle(ctx, id, uid, "dislikes", "likes")
	if err != nil {
		return models.Reactions{}, err
	}
	return v.ReactionsFor(uid), nil
}

// ToggleBookmark flips uid in the video's bookmark set and reports the new
// state together with the set size.
func (s *Store) ToggleBookmark(ctx context.Context, id, uid primitive.ObjectID) (bool, int, error) {
	v, err := s.toggle(ctx, id, uid, "bookmarks", "")
	if err != nil {
		return false, 0, err
	}
	return v.IsBookmarkedBy(uid), len(v.Bookmarks), nil
}

/* ----------------------------- comments ----------------------------- */

// AddComment appends a comment unless the video is at the cap.
func (s *Store) AddComment(ctx context.Context, id primitive.ObjectID, user models.Author, text string) (models.Comment, error) {
	c := models.Comment{
		ID:        primitive.NewObjectID(),
		User:      user,
		Text:      text,
		Replies:   []models.Reply{},
		CreatedAt: time.Now().UTC(),
	}
	capKey := fmt.Sprintf("comments.%d", models.MaxCommentsPerVideo-1)
	filter := bson.M{"_id": id, capKey: bson.M{"$exists": false}}
	update := bson.M{
		"$push": bson.M{"comments": c},
		"$set":  bson.M{"updated_at": c.CreatedAt},
	}
	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return models.Comment{}, err
	}
	if res.MatchedCount == 0 {
		ok, err := s.Exists(ctx, id)
		if err != nil {
			return models.Comment{}, err
		}
		if !ok {
			return models.Comment{}, mongo.ErrNoDocuments
		}
		return models.Comment{}, ErrCommentLimit
	}
	return c, nil
}

// AddReply appends a reply to a comment unless the comment is at the cap.
func (s *Store) AddReply(ctx context.Context, id, commentID primitive.ObjectID, user models.Author, text string) (models.Reply, error) {
	r := models.Reply{
		ID:        primitive.NewObjectID(),
		User:      user,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	capKey := fmt.Sprintf("replies.%d", models.MaxRepliesPerComment-1)
	filter := bson.M{
		"_id": id,
		"comments": bson.M{"$elemMatch": bson.M{
			"_id":  commentID,
			capKey: bson.M{"$exists": false},
		}},
	}
	update := bson.M{
		"$push": bson.M{"comments.$.replies": r},
		"$set":  bson.M{"updated_at": r.CreatedAt},
	}
	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return models.Reply{}, err
	}
	if res.MatchedCount > 0 {
		return r, nil
	}

	v, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Reply{}, err
	}
	if _, ok := FindComment(v, commentID); !ok {
		return models.Reply{}, ErrCommentNotFound
	}
	return models.Reply{}, ErrReplyLimit
}

// DeleteComment removes a comment and its replies.
func (s *Store) DeleteComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "comments._id": commentID},
		bson.M{
			"$pull": bson.M{"comments": bson.M{"_id": commentID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// FindComment returns the comment with commentID on v.
func FindComment(v *models.Video, commentID primitive.ObjectID) (models.Comment, bool) {
	for _, c := range v.Comments {
		if c.ID == commentID {
			return c, true
		}
	}
	return models.Comment{}, false
}
