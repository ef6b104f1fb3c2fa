package quran

import (
	"net/http"
	"testing"

	"github.com/dalemusser/noorhub/internal/app/fallback"
	bookmarkstore "github.com/dalemusser/noorhub/internal/app/store/bookmarks"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/dalemusser/noorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type surahBody struct {
	Surah    models.Surah `json:"surah"`
	DemoMode bool         `json:"demoMode"`
}

type listBody struct {
	Surahs   []models.Surah `json:"surahs"`
	DemoMode bool           `json:"demoMode"`
}

type searchBody struct {
	Query    string             `json:"query"`
	Results  []models.AyahMatch `json:"results"`
	Count    int                `json:"count"`
	DemoMode bool               `json:"demoMode"`
}

func fatihah() map[string]any {
	return map[string]any{
		"surahNumber":            1,
		"name":                   "الفاتحة",
		"englishName":            "Al-Fatihah",
		"englishNameTranslation": "The Opening",
		"revelationType":         "meccan",
		"ayahs": []map[string]any{
			{"number": 1, "text": "بِسْمِ اللَّهِ", "translation": "In the name of Allah, the Entirely Merciful"},
			{"number": 2, "text": "الْحَمْدُ لِلَّهِ", "translation": "All praise is due to Allah, Lord of the worlds"},
		},
	}
}

func create(t *testing.T, h *Handler, body map[string]any) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	h.Create(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/api/quran", body), testutil.AdminUser()))
	return rec
}

func TestCreateAndGet(t *testing.T) {
	h := NewHandler(testutil.SetupTestDB(t), nil, nil, zap.NewNop())

	rec := create(t, h, fatihah())
	rec.AssertStatus(t, http.StatusCreated)
	var out surahBody
	rec.DecodeJSON(t, &out)
	if out.Surah.RevelationType != models.RevelationMeccan {
		t.Errorf("RevelationType = %q", out.Surah.RevelationType)
	}
	if out.Surah.NumberOfAyahs != 2 {
		t.Errorf("NumberOfAyahs = %d, want 2", out.Surah.NumberOfAyahs)
	}

	rec = create(t, h, fatihah())
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "already exists")

	rec = testutil.NewRecorder()
	h.Get(rec, testutil.WithParams(testutil.NewRequest(http.MethodGet, "/"), "number", "1"))
	rec.AssertStatus(t, http.StatusOK)
	out = surahBody{}
	rec.DecodeJSON(t, &out)
	if len(out.Surah.Ayahs) != 2 || out.DemoMode {
		t.Errorf("surah = %+v", out)
	}

	rec = testutil.NewRecorder()
	h.List(rec, testutil.NewRequest(http.MethodGet, "/api/quran"))
	rec.AssertStatus(t, http.StatusOK)
	var list listBody
	rec.DecodeJSON(t, &list)
	if len(list.Surahs) != 1 || len(list.Surahs[0].Ayahs) != 0 {
		t.Errorf("list = %+v, want one surah without ayahs", list.Surahs)
	}
}

func TestCreate_Invalid(t *testing.T) {
	h := NewHandler(testutil.SetupTestDB(t), nil, nil, zap.NewNop())

	tests := []struct {
		name   string
		mutate func(m map[string]any)
		want   string
	}{
		{"missing name", func(m map[string]any) { delete(m, "name") }, "Missing required fields: name"},
		{"number too high", func(m map[string]any) { m["surahNumber"] = 115 }, "between 1 and 114"},
		{"bad revelation", func(m map[string]any) { m["revelationType"] = "other" }, "Meccan or Medinan"},
		{"duplicate ayah", func(m map[string]any) {
			m["ayahs"] = []map[string]any{{"number": 1, "text": "a"}, {"number": 1, "text": "b"}}
		}, "unique"},
		{"empty ayah", func(m map[string]any) {
			m["ayahs"] = []map[string]any{{"number": 3, "text": " "}}
		}, "Ayah 3 has no text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := fatihah()
			tt.mutate(body)
			rec := create(t, h, body)
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertContains(t, tt.want)
		})
	}
}

func TestGet_BadNumber(t *testing.T) {
	h := NewHandler(testutil.SetupTestDB(t), nil, nil, zap.NewNop())
	for _, n := range []string{"0", "115", "abc"} {
		rec := testutil.NewRecorder()
		h.Get(rec, testutil.WithParams(testutil.NewRequest(http.MethodGet, "/"), "number", n))
		rec.AssertStatus(t, http.StatusBadRequest)
	}

	rec := testutil.NewRecorder()
	h.Get(rec, testutil.WithParams(testutil.NewRequest(http.MethodGet, "/"), "number", "2"))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "Surah not found")
}

func TestSearch(t *testing.T) {
	h := NewHandler(testutil.SetupTestDB(t), nil, nil, zap.NewNop())
	create(t, h, fatihah()).AssertStatus(t, http.StatusCreated)

	rec := testutil.NewRecorder()
	h.Search(rec, testutil.NewRequest(http.MethodGet, "/api/quran/search?q=a"))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "at least 2 characters")

	rec = testutil.NewRecorder()
	h.Search(rec, testutil.NewRequest(http.MethodGet, "/api/quran/search?q=lord"))
	rec.AssertStatus(t, http.StatusOK)
	var out searchBody
	rec.DecodeJSON(t, &out)
	if out.Count != 1 || out.Results[0].Ayah.Number != 2 || out.Results[0].SurahNumber != 1 {
		t.Errorf("results = %+v", out)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db, nil, nil, zap.NewNop())
	create(t, h, fatihah()).AssertStatus(t, http.StatusCreated)

	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.JSONRequest(t, http.MethodPut, "/", map[string]any{"englishNameTranslation": "The Opener"}), testutil.AdminUser())
	h.Update(rec, testutil.WithParams(req, "number", "1"))
	rec.AssertStatus(t, http.StatusOK)
	var out surahBody
	rec.DecodeJSON(t, &out)
	if out.Surah.EnglishNameTranslation != "The Opener" || out.Surah.EnglishName != "Al-Fatihah" {
		t.Errorf("surah = %+v", out.Surah)
	}

	rec = testutil.NewRecorder()
	req = testutil.WithUser(testutil.JSONRequest(t, http.MethodPut, "/", map[string]any{"englishNameTranslation": "x"}), testutil.RegularUser())
	h.Update(rec, testutil.WithParams(req, "number", "1"))
	rec.AssertStatus(t, http.StatusForbidden)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := bookmarkstore.New(db).Create(ctx, models.Bookmark{
		UserID:      testutil.RegularUser().OID(),
		ContentType: models.ContentQuran,
		ContentID:   "1",
		Snapshot:    models.ContentSnapshot{Title: "Al-Fatihah", URL: "/quran/1"},
	}); err != nil {
		t.Fatalf("bookmark: %v", err)
	}

	rec = testutil.NewRecorder()
	h.Delete(rec, testutil.WithParams(testutil.NewAuthenticatedRequest(http.MethodDelete, "/", testutil.AdminUser()), "number", "1"))
	rec.AssertStatus(t, http.StatusOK)
	if n, _ := db.Collection("bookmarks").CountDocuments(ctx, bson.M{}); n != 0 {
		t.Errorf("bookmarks left = %d", n)
	}

	rec = testutil.NewRecorder()
	h.Delete(rec, testutil.WithParams(testutil.NewAuthenticatedRequest(http.MethodDelete, "/", testutil.AdminUser()), "number", "1"))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestFallback(t *testing.T) {
	h := NewHandler(testutil.UnreachableDB(t), fallback.New(), nil, zap.NewNop())

	rec := testutil.NewRecorder()
	h.List(rec, testutil.NewRequest(http.MethodGet, "/api/quran"))
	rec.AssertStatus(t, http.StatusOK)
	var list listBody
	rec.DecodeJSON(t, &list)
	if !list.DemoMode || len(list.Surahs) == 0 {
		t.Fatalf("list = %+v", list)
	}

	rec = testutil.NewRecorder()
	h.Get(rec, testutil.WithParams(testutil.NewRequest(http.MethodGet, "/"), "number", "1"))
	rec.AssertStatus(t, http.StatusOK)
	var s surahBody
	rec.DecodeJSON(t, &s)
	if !s.DemoMode || len(s.Surah.Ayahs) == 0 {
		t.Errorf("surah = %+v", s)
	}

	rec = testutil.NewRecorder()
	h.Get(rec, testutil.WithParams(testutil.NewRequest(http.MethodGet, "/"), "number", "50"))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	h.Search(rec, testutil.NewRequest(http.MethodGet, "/api/quran/search?q=merciful"))
	rec.AssertStatus(t, http.StatusOK)
	var found searchBody
	rec.DecodeJSON(t, &found)
	if !found.DemoMode || found.Count == 0 {
		t.Errorf("search = %+v", found)
	}
}
