package bookmarks

import (
	"net/http"
	"strings"
	"testing"

	hadithstore "github.com/dalemusser/noorhub/internal/app/store/hadith"
	newsstore "github.com/dalemusser/noorhub/internal/app/store/news"
	quranstore "github.com/dalemusser/noorhub/internal/app/store/quran"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/dalemusser/noorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewHandler(db, zap.NewNop()), db
}

func seedNews(t *testing.T, db *mongo.Database, published bool) models.News {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := newsstore.New(db).Create(ctx, models.News{
		Title:     "Laylat al-Qadr",
		Content:   "<p>Seek it in the last ten nights.</p>",
		Excerpt:   "Seek it in the last ten nights.",
		ImageURL:  "https://cdn.example.com/qadr.jpg",
		Category:  "ramadan",
		Published: published,
	})
	if err != nil {
		t.Fatalf("seed news: %v", err)
	}
	return n
}

func create(t *testing.T, h *Handler, user testutil.TestUser, ct, id string) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	h.Create(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/api/bookmarks", map[string]any{"contentType": ct, "contentId": id}), user))
	return rec
}

func TestCreate_NewsSnapshot(t *testing.T) {
	h, db := setup(t)
	n := seedNews(t, db, true)
	user := testutil.RegularUser()

	rec := create(t, h, user, "news", n.ID.Hex())
	rec.AssertStatus(t, http.StatusCreated)
	var out struct {
		Bookmark models.Bookmark `json:"bookmark"`
	}
	rec.DecodeJSON(t, &out)
	want := models.ContentSnapshot{Title: n.Title, Excerpt: n.Excerpt, ImageURL: n.ImageURL, URL: "/news/" + n.ID.Hex()}
	if out.Bookmark.Snapshot != want {
		t.Errorf("snapshot = %+v, want %+v", out.Bookmark.Snapshot, want)
	}

	rec = create(t, h, user, "news", n.ID.Hex())
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Content already bookmarked")
}

func TestCreate_QuranAndHadith(t *testing.T) {
	h, db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := quranstore.New(db).Create(ctx, models.Surah{SurahNumber: 112, Name: "الإخلاص", EnglishName: "Al-Ikhlas", EnglishNameTranslation: "Sincerity", NumberOfAyahs: 4}); err != nil {
		t.Fatalf("seed surah: %v", err)
	}
	hd, err := hadithstore.New(db).Create(ctx, models.Hadith{
		CollectionName: models.CollectionBukhari,
		HadithNumber:   1,
		Translations:   []models.Translation{{Language: "en", Text: "Actions are judged by intentions."}},
	})
	if err != nil {
		t.Fatalf("seed hadith: %v", err)
	}
	user := testutil.RegularUser()

	rec := create(t, h, user, "quran", " 112 ")
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"contentId":"112"`)
	rec.AssertContains(t, "Al-Ikhlas")

	rec = create(t, h, user, "hadith", hd.ID.Hex())
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, "Sahih al-Bukhari 1")

	create(t, h, user, "quran", "115").AssertStatus(t, http.StatusBadRequest)
	create(t, h, user, "quran", "113").AssertStatus(t, http.StatusNotFound)
}

func TestCreate_Invalid(t *testing.T) {
	h, db := setup(t)
	draft := seedNews(t, db, false)
	user := testutil.RegularUser()

	rec := create(t, h, user, "", "")
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Missing required fields: contentType, contentId")

	rec = create(t, h, user, "podcast", primitive.NewObjectID().Hex())
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Content type must be one of")

	create(t, h, user, "video", "nope").AssertStatus(t, http.StatusBadRequest)
	create(t, h, user, "video", primitive.NewObjectID().Hex()).AssertStatus(t, http.StatusNotFound)
	create(t, h, user, "news", draft.ID.Hex()).AssertStatus(t, http.StatusNotFound)
}

func TestCheckListDelete(t *testing.T) {
	h, db := setup(t)
	n := seedNews(t, db, true)
	owner, other := testutil.RegularUser(), testutil.RegularUser()

	rec := create(t, h, owner, "news", n.ID.Hex())
	var out struct {
		Bookmark models.Bookmark `json:"bookmark"`
	}
	rec.DecodeJSON(t, &out)
	id := out.Bookmark.ID.Hex()

	check := func(user testutil.TestUser) string {
		rec := testutil.NewRecorder()
		h.Check(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/bookmarks/check?contentType=news&contentId="+n.ID.Hex(), user))
		rec.AssertStatus(t, http.StatusOK)
		return rec.Body.String()
	}
	if body := check(owner); !strings.Contains(body, `"bookmarked":true`) || !strings.Contains(body, id) {
		t.Errorf("owner check = %s", body)
	}
	if body := check(other); !strings.Contains(body, `"bookmarked":false`) || !strings.Contains(body, `"bookmarkId":null`) {
		t.Errorf("other check = %s", body)
	}

	rec = testutil.NewRecorder()
	h.List(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/bookmarks?contentType=news", owner))
	rec.AssertContains(t, `"total":1`)

	rec = testutil.NewRecorder()
	h.List(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/bookmarks?contentType=video", owner))
	rec.AssertContains(t, `"total":0`)

	rec = testutil.NewRecorder()
	h.Delete(rec, testutil.WithParams(testutil.NewAuthenticatedRequest(http.MethodDelete, "/", other), "id", id))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	h.Delete(rec, testutil.WithParams(testutil.NewAuthenticatedRequest(http.MethodDelete, "/", owner), "id", id))
	rec.AssertStatus(t, http.StatusOK)

	if body := check(owner); !strings.Contains(body, `"bookmarked":false`) {
		t.Errorf("after delete = %s", body)
	}
}
