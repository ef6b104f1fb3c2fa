package videos

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/noorhub/internal/app/fallback"
	bookingstore "github.com/dalemusser/noorhub/internal/app/store/bookings"
	bookmarkstore "github.com/dalemusser/noorhub/internal/app/store/bookmarks"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/dalemusser/noorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewHandler(db, fallback.New(), nil, zap.NewNop()), db
}

func createVideo(t *testing.T, h *Handler, body map[string]any) models.Video {
	t.Helper()
	if body == nil {
		body = map[string]any{
			"title":    "Tafsir of Al-Fatiha",
			"videoUrl": "https://videos.example.com/fatiha.mp4",
			"category": "Tafsir",
		}
	}
	rec := testutil.NewRecorder()
	h.Create(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/api/videos", body), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusCreated)
	var out struct {
		Video models.Video `json:"video"`
	}
	rec.DecodeJSON(t, &out)
	return out.Video
}

func withID(r *http.Request, v models.Video, kv ...string) *http.Request {
	return testutil.WithParams(r, append([]string{"id", v.ID.Hex()}, kv...)...)
}

func TestCreate(t *testing.T) {
	h, _ := setup(t)
	v := createVideo(t, h, nil)

	if !v.Published {
		t.Error("videos should default to published")
	}
	if v.Category != "tafsir" {
		t.Errorf("Category = %q", v.Category)
	}
	if len(v.Likes) != 0 || len(v.Comments) != 0 || v.Views != 0 {
		t.Errorf("new video carries state: %+v", v)
	}

	rec := testutil.NewRecorder()
	h.Create(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/api/videos", map[string]any{
		"title": "t", "videoUrl": "ftp://x", "category": "c",
	}), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Video URL must be a valid URL")

	rec = testutil.NewRecorder()
	h.Create(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/api/videos", map[string]any{"title": "t"}), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Missing required fields: videoUrl, category")

	rec = testutil.NewRecorder()
	h.Create(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/api/videos", map[string]any{
		"title": "t", "videoUrl": "https://x.test/v", "category": "c",
	}), testutil.RegularUser()))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestReactions_LikeAfterDislike(t *testing.T) {
	h, _ := setup(t)
	v := createVideo(t, h, nil)
	user := testutil.RegularUser()

	rec := testutil.NewRecorder()
	h.Dislike(rec, withID(testutil.NewAuthenticatedRequest(http.MethodPost, "/", user), v))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	h.Like(rec, withID(testutil.NewAuthenticatedRequest(http.MethodPost, "/", user), v))
	rec.AssertStatus(t, http.StatusOK)

	var got models.Reactions
	rec.DecodeJSON(t, &got)
	want := models.Reactions{Likes: 1, Dislikes: 0, Liked: true, Disliked: false}
	if got != want {
		t.Errorf("reactions = %+v, want %+v", got, want)
	}

	// A second like undoes the first.
	rec = testutil.NewRecorder()
	h.Like(rec, withID(testutil.NewAuthenticatedRequest(http.MethodPost, "/", user), v))
	rec.DecodeJSON(t, &got)
	if got.Likes != 0 || got.Liked {
		t.Errorf("after unlike = %+v", got)
	}

	rec = testutil.NewRecorder()
	h.Like(rec, withID(testutil.NewRequest(http.MethodPost, "/"), v))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestBookmarkToggle(t *testing.T) {
	h, _ := setup(t)
	v := createVideo(t, h, nil)
	user := testutil.RegularUser()

	var out struct {
		Bookmarked bool `json:"bookmarked"`
		Bookmarks  int  `json:"bookmarks"`
	}
	rec := testutil.NewRecorder()
	h.Bookmark(rec, withID(testutil.NewAuthenticatedRequest(http.MethodPost, "/", user), v))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &out)
	if !out.Bookmarked || out.Bookmarks != 1 {
		t.Errorf("first toggle = %+v", out)
	}

	rec = testutil.NewRecorder()
	h.Bookmark(rec, withID(testutil.NewAuthenticatedRequest(http.MethodPost, "/", user), v))
	rec.DecodeJSON(t, &out)
	if out.Bookmarked || out.Bookmarks != 0 {
		t.Errorf("second toggle = %+v", out)
	}
}

func TestComments(t *testing.T) {
	h, _ := setup(t)
	v := createVideo(t, h, nil)
	author := testutil.RegularUser()
	other := testutil.RegularUser()

	rec := testutil.NewRecorder()
	h.AddComment(rec, withID(testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/", map[string]any{"text": " <b>JazakAllah khair</b> "}), author), v))
	rec.AssertStatus(t, http.StatusCreated)
	var cout struct {
		Comment models.Comment `json:"comment"`
	}
	rec.DecodeJSON(t, &cout)
	c := cout.Comment
	if c.Text != "JazakAllah khair" || c.User.Name != author.Name {
		t.Errorf("comment = %+v", c)
	}

	rec = testutil.NewRecorder()
	h.AddComment(rec, withID(testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/", map[string]any{"text": strings.Repeat("a", models.MaxCommentLength+1)}), author), v))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Comment must be at most 1000 characters.")

	rec = testutil.NewRecorder()
	h.AddComment(rec, withID(testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/", map[string]any{"text": "   "}), author), v))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Missing required fields: text")

	rec = testutil.NewRecorder()
	h.AddReply(rec, withID(testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/", map[string]any{"text": "Ameen"}), other), v, "commentId", c.ID.Hex()))
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"reply"`)

	rec = testutil.NewRecorder()
	h.AddReply(rec, withID(testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/", map[string]any{"text": "Ameen"}), other), v, "commentId", v.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "Comment not found")

	// Only the author or an admin may delete.
	rec = testutil.NewRecorder()
	h.DeleteComment(rec, withID(testutil.NewAuthenticatedRequest(http.MethodDelete, "/", other), v, "commentId", c.ID.Hex()))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	h.DeleteComment(rec, withID(testutil.NewAuthenticatedRequest(http.MethodDelete, "/", author), v, "commentId", c.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	h.Get(rec, withID(testutil.NewRequest(http.MethodGet, "/"), v))
	var gout struct {
		Video models.Video `json:"video"`
	}
	rec.DecodeJSON(t, &gout)
	if len(gout.Video.Comments) != 0 {
		t.Errorf("comments left = %d", len(gout.Video.Comments))
	}
}

func TestDelete_Cascades(t *testing.T) {
	h, db := setup(t)
	v := createVideo(t, h, nil)
	user := testutil.RegularUser()

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := bookingstore.New(db).Create(ctx, models.Booking{UserID: user.OID(), VideoID: v.ID, Video: models.VideoSnapshot{Title: v.Title}}); err != nil {
		t.Fatalf("booking: %v", err)
	}
	if _, err := bookmarkstore.New(db).Create(ctx, models.Bookmark{UserID: user.OID(), ContentType: models.ContentVideo, ContentID: v.ID.Hex()}); err != nil {
		t.Fatalf("bookmark: %v", err)
	}

	rec := testutil.NewRecorder()
	h.Delete(rec, withID(testutil.NewAuthenticatedRequest(http.MethodDelete, "/", testutil.AdminUser()), v))
	rec.AssertStatus(t, http.StatusOK)

	for _, coll := range []string{"videos", "bookings", "bookmarks"} {
		n, err := db.Collection(coll).CountDocuments(ctx, bson.M{})
		if err != nil {
			t.Fatalf("count %s: %v", coll, err)
		}
		if n != 0 {
			t.Errorf("%s left = %d", coll, n)
		}
	}
}

func TestList_HidesDrafts(t *testing.T) {
	h, _ := setup(t)
	createVideo(t, h, nil)
	createVideo(t, h, map[string]any{"title": "Draft", "videoUrl": "https://x.test/d", "category": "tafsir", "published": false})

	rec := testutil.NewRecorder()
	h.List(rec, testutil.NewRequest(http.MethodGet, "/api/videos?category=tafsir"))
	rec.AssertStatus(t, http.StatusOK)
	var out struct {
		Videos []models.Video `json:"videos"`
	}
	rec.DecodeJSON(t, &out)
	if len(out.Videos) != 1 || out.Videos[0].Title == "Draft" {
		t.Errorf("videos = %+v", out.Videos)
	}
}

func TestFallback(t *testing.T) {
	h := NewHandler(testutil.UnreachableDB(t), fallback.New(), nil, zap.NewNop())

	rec := testutil.NewRecorder()
	h.List(rec, testutil.NewRequest(http.MethodGet, "/api/videos"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"demoMode":true`)

	// Writes never fall back.
	rec = testutil.NewRecorder()
	h.Like(rec, testutil.WithParams(testutil.NewAuthenticatedRequest(http.MethodPost, "/", testutil.RegularUser()), "id", "64b7f0c2a1b2c3d4e5f60718"))
	rec.AssertStatus(t, http.StatusInternalServerError)
}
