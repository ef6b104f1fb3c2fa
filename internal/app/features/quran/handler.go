// Package quran serves /api/quran: surahs addressed by number, and ayah
// search over translations.
package quran

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/noorhub/internal/app/fallback"
	"github.com/dalemusser/noorhub/internal/app/store/audit"
	bookmarkstore "github.com/dalemusser/noorhub/internal/app/store/bookmarks"
	quranstore "github.com/dalemusser/noorhub/internal/app/store/quran"
	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/auditlog"
	"github.com/dalemusser/noorhub/internal/app/system/authz"
	"github.com/dalemusser/noorhub/internal/app/system/inputval"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/app/system/urlparam"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	searchMinLength = 2
	searchLimit     = 20
)

type Handler struct {
	store     *quranstore.Store
	bookmarks *bookmarkstore.Store
	fb        *fallback.Provider
	audit     *auditlog.Logger
	log       *zap.Logger
}

func NewHandler(db *mongo.Database, fb *fallback.Provider, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		store:     quranstore.New(db),
		bookmarks: bookmarkstore.New(db),
		fb:        fb,
		audit:     audit,
		log:       logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case storeutil.IsNotFound(err):
		err = apperr.NotFound("Surah")
	case errors.Is(err, quranstore.ErrDuplicateNumber):
		err = apperr.Invalid("A surah with this number already exists", "surahNumber")
	}
	jsonutil.Fail(w, r, h.log, err)
}

func errNumber() error {
	return apperr.BadRequest(fmt.Sprintf("Surah number must be between %d and %d", models.FirstSurah, models.LastSurah))
}

func surahNumber(r *http.Request) (int, error) {
	n, err := urlparam.Int(r, "number")
	if err != nil || n < models.FirstSurah || n > models.LastSurah {
		return 0, errNumber()
	}
	return n, nil
}

// List handles GET /api/quran. All surahs come back on one page, without
// their ayahs.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.Params{Page: 1, Limit: models.LastSurah}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	all, err := h.store.List(ctx)
	demo := false
	if err != nil {
		if !h.fb.Use(r, h.log, err) {
			h.fail(w, r, apperr.Internal(err))
			return
		}
		all = h.fb.Surahs()
		demo = true
	}
	page, total := pagination.Slice(all, p)
	jsonutil.List(w, "surahs", page, pagination.NewMeta(p, total), demo)
}

// Get handles GET /api/quran/{number}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := surahNumber(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	s, err := h.store.GetByNumber(ctx, n)
	if err != nil {
		if h.fb.Use(r, h.log, err) {
			if fs, ok := h.fb.SurahByNumber(n); ok {
				jsonutil.Item(w, "surah", fs, true)
				return
			}
			h.fail(w, r, apperr.NotFound("Surah"))
			return
		}
		h.fail(w, r, err)
		return
	}
	jsonutil.Item(w, "surah", s, false)
}

// Search handles GET /api/quran/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := urlparam.String(r, "q")
	if utf8.RuneCountInString(q) < searchMinLength {
		h.fail(w, r, apperr.Invalid(fmt.Sprintf("Search query must be at least %d characters", searchMinLength), "q"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	results, err := h.store.Search(ctx, q, searchLimit)
	body := map[string]any{"query": q}
	if err != nil {
		if !h.fb.Use(r, h.log, err) {
			h.fail(w, r, apperr.Internal(err))
			return
		}
		results = h.fb.SearchAyahs(q, searchLimit)
		body["demoMode"] = true
	}
	body["results"] = results
	body["count"] = len(results)
	jsonutil.OK(w, body)
}

type ayahInput struct {
	Number          int    `json:"number"`
	Text            string `json:"text"`
	Translation     string `json:"translation"`
	Transliteration string `json:"transliteration"`
}

// ayahs checks that every ayah has a positive, unique number and text.
// The result is in the order given.
func ayahs(in []ayahInput) ([]models.Ayah, error) {
	out := make([]models.Ayah, 0, len(in))
	seen := map[int]bool{}
	for _, a := range in {
		if a.Number < 1 || seen[a.Number] {
			return nil, apperr.Invalid("Ayah numbers must be positive and unique", "ayahs")
		}
		seen[a.Number] = true
		text := strings.TrimSpace(a.Text)
		if text == "" {
			return nil, apperr.Invalid("Ayah "+strconv.Itoa(a.Number)+" has no text", "ayahs")
		}
		out = append(out, models.Ayah{
			Number:          a.Number,
			Text:            text,
			Translation:     strings.TrimSpace(a.Translation),
			Transliteration: strings.TrimSpace(a.Transliteration),
		})
	}
	return out, nil
}

func revelationType(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "meccan":
		return models.RevelationMeccan, nil
	case "medinan":
		return models.RevelationMedinan, nil
	}
	return "", apperr.Invalid("Revelation type must be Meccan or Medinan.", "revelationType")
}

type createInput struct {
	SurahNumber            int         `json:"surahNumber"`
	Name                   string      `json:"name" validate:"max=100" label:"Name"`
	EnglishName            string      `json:"englishName" validate:"max=100" label:"English name"`
	EnglishNameTranslation string      `json:"englishNameTranslation" validate:"max=200" label:"English name translation"`
	RevelationType         string      `json:"revelationType"`
	Ayahs                  []ayahInput `json:"ayahs"`
}

// Create handles POST /api/quran (admin).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.RequireAdmin(r); err != nil {
		h.fail(w, r, err)
		return
	}

	var in createInput
	if err := jsonutil.DecodeBody(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.EnglishName = strings.TrimSpace(in.EnglishName)
	if err := inputval.RequireAll(
		inputval.Need("surahNumber", in.SurahNumber != 0),
		inputval.Need("name", in.Name != ""),
		inputval.Need("englishName", in.EnglishName != ""),
	); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.SurahNumber < models.FirstSurah || in.SurahNumber > models.LastSurah {
		h.fail(w, r, errNumber())
		return
	}
	if err := inputval.Validate(in).Err(); err != nil {
		h.fail(w, r, err)
		return
	}
	rev, err := revelationType(in.RevelationType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := ayahs(in.Ayahs)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	s, err := h.store.Create(ctx, models.Surah{
		SurahNumber:            in.SurahNumber,
		Name:                   in.Name,
		EnglishName:            in.EnglishName,
		EnglishNameTranslation: strings.TrimSpace(in.EnglishNameTranslation),
		RevelationType:         rev,
		Ayahs:                  list,
	})
	if err != nil {
		if !errors.Is(err, quranstore.ErrDuplicateNumber) {
			err = apperr.Internal(err)
		}
		h.fail(w, r, err)
		return
	}
	h.audit.Content(r, audit.EventContentCreated, "surah", strconv.Itoa(s.SurahNumber))
	jsonutil.CreatedItem(w, "surah", s)
}

type updateInput struct {
	Name                   *string      `json:"name"`
	EnglishName            *string      `json:"englishName"`
	EnglishNameTranslation *string      `json:"englishNameTranslation"`
	RevelationType         *string      `json:"revelationType"`
	Ayahs                  *[]ayahInput `json:"ayahs"`
}

func (in *updateInput) resolve() (quranstore.UpdateInput, error) {
	var out quranstore.UpdateInput
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		if err := inputval.Length("name", "Name", n, 1, 100); err != nil {
			return out, err
		}
		out.Name = &n
	}
	if in.EnglishName != nil {
		n := strings.TrimSpace(*in.EnglishName)
		if err := inputval.Length("englishName", "English name", n, 1, 100); err != nil {
			return out, err
		}
		out.EnglishName = &n
	}
	if in.EnglishNameTranslation != nil {
		t := strings.TrimSpace(*in.EnglishNameTranslation)
		out.EnglishNameTranslation = &t
	}
	if in.RevelationType != nil {
		rev, err := revelationType(*in.RevelationType)
		if err != nil {
			return out, err
		}
		out.RevelationType = &rev
	}
	if in.Ayahs != nil {
		list, err := ayahs(*in.Ayahs)
		if err != nil {
			return out, err
		}
		out.Ayahs = &list
	}
	return out, nil
}

// Update handles PUT /api/quran/{number} (admin).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.RequireAdmin(r); err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := surahNumber(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var in updateInput
	if err := jsonutil.DecodeBody(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	upd, err := in.resolve()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	s, err := h.store.Update(ctx, n, upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.audit.Content(r, audit.EventContentUpdated, "surah", strconv.Itoa(n))
	jsonutil.Item(w, "surah", s, false)
}

// Delete handles DELETE /api/quran/{number} (admin) and removes bookmarks
// of the surah.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.RequireAdmin(r); err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := surahNumber(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	deleted, err := h.store.Delete(ctx, n)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	if deleted == 0 {
		h.fail(w, r, apperr.NotFound("Surah"))
		return
	}
	key := strconv.Itoa(n)
	if _, err := h.bookmarks.DeleteByContent(ctx, models.ContentQuran, key); err != nil {
		h.log.Warn("failed to remove bookmarks of deleted surah", zap.Int("number", n), zap.Error(err))
	}
	h.audit.Content(r, audit.EventContentDeleted, "surah", key)
	jsonutil.Message(w, "Surah deleted")
}
