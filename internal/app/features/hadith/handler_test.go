package hadith

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/dalemusser/noorhub/internal/app/fallback"
	bookmarkstore "github.com/dalemusser/noorhub/internal/app/store/bookmarks"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/dalemusser/noorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type hadithBody struct {
	Hadith   models.Hadith `json:"hadith"`
	DemoMode bool          `json:"demoMode"`
}

type listBody struct {
	Hadiths    []models.Hadith `json:"hadiths"`
	Pagination pagination.Meta `json:"pagination"`
	DemoMode   bool            `json:"demoMode"`
}

func body(collection string, n int) map[string]any {
	return map[string]any{
		"collectionName": collection,
		"hadithNumber":   n,
		"bookName":       "Revelation",
		"narrator":       "Umar ibn al-Khattab",
		"arabicText":     "إنما الأعمال بالنيات",
		"translations":   []map[string]any{{"language": "EN", "text": fmt.Sprintf("Actions are judged by intentions (%d)", n)}},
		"grade":          "Sahih",
	}
}

func create(t *testing.T, h *Handler, b map[string]any) models.Hadith {
	t.Helper()
	rec := testutil.NewRecorder()
	h.Create(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/api/hadith", b), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusCreated)
	var out hadithBody
	rec.DecodeJSON(t, &out)
	return out.Hadith
}

func TestCreate(t *testing.T) {
	h := NewHandler(testutil.SetupTestDB(t), nil, nil, zap.NewNop())
	hd := create(t, h, body("Bukhari", 1))
	if hd.CollectionName != models.CollectionBukhari {
		t.Errorf("CollectionName = %q", hd.CollectionName)
	}
	if hd.TranslationIn("en") == "" {
		t.Errorf("translations = %+v, want lower-cased language", hd.Translations)
	}
}

func TestCreate_Invalid(t *testing.T) {
	h := NewHandler(testutil.SetupTestDB(t), nil, nil, zap.NewNop())

	tests := []struct {
		name   string
		mutate func(m map[string]any)
		want   string
	}{
		{"missing", func(m map[string]any) { delete(m, "bookName"); delete(m, "arabicText") }, "Missing required fields: bookName, arabicText"},
		{"unknown collection", func(m map[string]any) { m["collectionName"] = "unknown" }, ""},
		{"negative number", func(m map[string]any) { m["hadithNumber"] = -4 }, "must be positive"},
		{"duplicate language", func(m map[string]any) {
			m["translations"] = []map[string]any{{"language": "en", "text": "a"}, {"language": "EN", "text": "b"}}
		}, "Duplicate translation language: en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := body("muslim", 1)
			tt.mutate(b)
			rec := testutil.NewRecorder()
			h.Create(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/api/hadith", b), testutil.AdminUser()))
			rec.AssertStatus(t, http.StatusBadRequest)
			if tt.want != "" {
				rec.AssertContains(t, tt.want)
			}
		})
	}

	rec := testutil.NewRecorder()
	h.Create(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/api/hadith", body("muslim", 1)), testutil.RegularUser()))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestList_Filters(t *testing.T) {
	h := NewHandler(testutil.SetupTestDB(t), nil, nil, zap.NewNop())
	for i := 1; i <= 3; i++ {
		create(t, h, body("bukhari", i))
	}
	create(t, h, body("muslim", 1))

	rec := testutil.NewRecorder()
	h.List(rec, testutil.NewRequest(http.MethodGet, "/api/hadith?collection=bukhari&limit=2"))
	rec.AssertStatus(t, http.StatusOK)
	var out listBody
	rec.DecodeJSON(t, &out)
	if out.Pagination.Total != 3 || out.Pagination.Pages != 2 || len(out.Hadiths) != 2 {
		t.Errorf("pagination = %+v, items = %d", out.Pagination, len(out.Hadiths))
	}
	if out.Hadiths[0].HadithNumber != 1 || out.Hadiths[1].HadithNumber != 2 {
		t.Errorf("order = %d, %d", out.Hadiths[0].HadithNumber, out.Hadiths[1].HadithNumber)
	}

	rec = testutil.NewRecorder()
	h.List(rec, testutil.NewRequest(http.MethodGet, "/api/hadith?search=(3)"))
	out = listBody{}
	rec.DecodeJSON(t, &out)
	if out.Pagination.Total != 1 {
		t.Errorf("search total = %d, want 1", out.Pagination.Total)
	}

	rec = testutil.NewRecorder()
	h.List(rec, testutil.NewRequest(http.MethodGet, "/api/hadith?collection=nope"))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestUpdateAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db, nil, nil, zap.NewNop())
	hd := create(t, h, body("tirmidhi", 7))

	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.JSONRequest(t, http.MethodPut, "/", map[string]any{"grade": " Hasan ", "hadithNumber": 8}), testutil.AdminUser())
	h.Update(rec, testutil.WithParams(req, "id", hd.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	var out hadithBody
	rec.DecodeJSON(t, &out)
	if out.Hadith.Grade != "Hasan" || out.Hadith.HadithNumber != 8 || out.Hadith.BookName != "Revelation" {
		t.Errorf("hadith = %+v", out.Hadith)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := bookmarkstore.New(db).Create(ctx, models.Bookmark{
		UserID:      testutil.RegularUser().OID(),
		ContentType: models.ContentHadith,
		ContentID:   hd.ID.Hex(),
		Snapshot:    models.ContentSnapshot{Title: "Jami at-Tirmidhi 8", URL: "/hadith/" + hd.ID.Hex()},
	}); err != nil {
		t.Fatalf("bookmark: %v", err)
	}

	rec = testutil.NewRecorder()
	h.Delete(rec, testutil.WithParams(testutil.NewAuthenticatedRequest(http.MethodDelete, "/", testutil.AdminUser()), "id", hd.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	if n, _ := db.Collection("bookmarks").CountDocuments(ctx, bson.M{}); n != 0 {
		t.Errorf("bookmarks left = %d", n)
	}

	rec = testutil.NewRecorder()
	h.Get(rec, testutil.WithParams(testutil.NewRequest(http.MethodGet, "/"), "id", hd.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestFallback(t *testing.T) {
	h := NewHandler(testutil.UnreachableDB(t), fallback.New(), nil, zap.NewNop())

	rec := testutil.NewRecorder()
	h.List(rec, testutil.NewRequest(http.MethodGet, "/api/hadith?collection=bukhari"))
	rec.AssertStatus(t, http.StatusOK)
	var out listBody
	rec.DecodeJSON(t, &out)
	if !out.DemoMode || len(out.Hadiths) == 0 {
		t.Fatalf("list = %+v", out)
	}
	for _, hd := range out.Hadiths {
		if hd.CollectionName != models.CollectionBukhari {
			t.Errorf("collection filter not applied: %q", hd.CollectionName)
		}
	}

	rec = testutil.NewRecorder()
	h.Get(rec, testutil.WithParams(testutil.NewRequest(http.MethodGet, "/"), "id", out.Hadiths[0].ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"demoMode":true`)
}
