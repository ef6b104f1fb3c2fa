// Package hadith serves /api/hadith.
package hadith

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/noorhub/internal/app/fallback"
	"github.com/dalemusser/noorhub/internal/app/store/audit"
	bookmarkstore "github.com/dalemusser/noorhub/internal/app/store/bookmarks"
	hadithstore "github.com/dalemusser/noorhub/internal/app/store/hadith"
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

const defaultLimit = 20

type Handler struct {
	store     *hadithstore.Store
	bookmarks *bookmarkstore.Store
	fb        *fallback.Provider
	audit     *auditlog.Logger
	log       *zap.Logger
}

func NewHandler(db *mongo.Database, fb *fallback.Provider, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		store:     hadithstore.New(db),
		bookmarks: bookmarkstore.New(db),
		fb:        fb,
		audit:     audit,
		log:       logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if storeutil.IsNotFound(err) {
		err = apperr.NotFound("Hadith")
	}
	jsonutil.Fail(w, r, h.log, err)
}

func errCollection() error {
	return apperr.Invalid("Unknown hadith collection", "collectionName")
}

// List handles GET /api/hadith?collection=&search=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r, defaultLimit)
	f := hadithstore.ListFilter{
		Collection: strings.ToLower(urlparam.String(r, "collection")),
		Search:     urlparam.String(r, "search"),
	}
	if f.Collection != "" && !inputval.IsValidCollection(f.Collection) {
		h.fail(w, r, errCollection())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, total, err := h.store.List(ctx, f, p)
	demo := false
	if err != nil {
		if !h.fb.Use(r, h.log, err) {
			h.fail(w, r, apperr.Internal(err))
			return
		}
		items, total = h.fb.Hadiths(f, p)
		demo = true
	}
	jsonutil.List(w, "hadiths", items, pagination.NewMeta(p, total), demo)
}

// Get handles GET /api/hadith/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hd, err := h.store.GetByID(ctx, id)
	if err != nil {
		if h.fb.Use(r, h.log, err) {
			if fh, ok := h.fb.HadithByID(id); ok {
				jsonutil.Item(w, "hadith", fh, true)
				return
			}
			h.fail(w, r, apperr.NotFound("Hadith"))
			return
		}
		h.fail(w, r, err)
		return
	}
	jsonutil.Item(w, "hadith", hd, false)
}

type translationInput struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// translations lower-cases languages and rejects blanks and repeats.
func translations(in []translationInput) ([]models.Translation, error) {
	out := make([]models.Translation, 0, len(in))
	seen := map[string]bool{}
	for _, t := range in {
		lang := strings.ToLower(strings.TrimSpace(t.Language))
		text := strings.TrimSpace(t.Text)
		if lang == "" || text == "" {
			return nil, apperr.Invalid("Each translation needs a language and text", "translations")
		}
		if seen[lang] {
			return nil, apperr.Invalid("Duplicate translation language: "+lang, "translations")
		}
		seen[lang] = true
		out = append(out, models.Translation{Language: lang, Text: text})
	}
	return out, nil
}

type createInput struct {
	CollectionName string             `json:"collectionName" validate:"collection" label:"Collection"`
	HadithNumber   int                `json:"hadithNumber"`
	BookName       string             `json:"bookName" validate:"max=200" label:"Book name"`
	Chapter        string             `json:"chapter" validate:"max=200" label:"Chapter"`
	Narrator       string             `json:"narrator" validate:"max=200" label:"Narrator"`
	ArabicText     string             `json:"arabicText" validate:"max=20000" label:"Arabic text"`
	Translations   []translationInput `json:"translations"`
	Grade          string             `json:"grade" validate:"max=50" label:"Grade"`
}

// Create handles POST /api/hadith (admin).
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
	in.CollectionName = strings.ToLower(strings.TrimSpace(in.CollectionName))
	in.BookName = strings.TrimSpace(in.BookName)
	in.ArabicText = strings.TrimSpace(in.ArabicText)
	if err := inputval.RequireAll(
		inputval.Need("collectionName", in.CollectionName != ""),
		inputval.Need("hadithNumber", in.HadithNumber != 0),
		inputval.Need("bookName", in.BookName != ""),
		inputval.Need("arabicText", in.ArabicText != ""),
	); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.HadithNumber < 1 {
		h.fail(w, r, apperr.Invalid("Hadith number must be positive", "hadithNumber"))
		return
	}
	if err := inputval.Validate(in).Err(); err != nil {
		h.fail(w, r, err)
		return
	}
	tr, err := translations(in.Translations)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hd, err := h.store.Create(ctx, models.Hadith{
		CollectionName: in.CollectionName,
		HadithNumber:   in.HadithNumber,
		BookName:       in.BookName,
		Chapter:        strings.TrimSpace(in.Chapter),
		Narrator:       strings.TrimSpace(in.Narrator),
		ArabicText:     in.ArabicText,
		Translations:   tr,
		Grade:          strings.TrimSpace(in.Grade),
	})
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	h.audit.Content(r, audit.EventContentCreated, "hadith", hd.ID.Hex())
	jsonutil.CreatedItem(w, "hadith", hd)
}

type updateInput struct {
	CollectionName *string             `json:"collectionName"`
	HadithNumber   *int                `json:"hadithNumber"`
	BookName       *string             `json:"bookName"`
	Chapter        *string             `json:"chapter"`
	Narrator       *string             `json:"narrator"`
	ArabicText     *string             `json:"arabicText"`
	Translations   *[]translationInput `json:"translations"`
	Grade          *string             `json:"grade"`
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	return &s
}

func (in *updateInput) resolve() (hadithstore.UpdateInput, error) {
	out := hadithstore.UpdateInput{
		HadithNumber: in.HadithNumber,
		Chapter:      trimmed(in.Chapter),
		Narrator:     trimmed(in.Narrator),
		Grade:        trimmed(in.Grade),
	}
	if in.CollectionName != nil {
		c := strings.ToLower(strings.TrimSpace(*in.CollectionName))
		if !inputval.IsValidCollection(c) {
			return out, errCollection()
		}
		out.CollectionName = &c
	}
	if in.HadithNumber != nil && *in.HadithNumber < 1 {
		return out, apperr.Invalid("Hadith number must be positive", "hadithNumber")
	}
	if in.BookName != nil {
		b := strings.TrimSpace(*in.BookName)
		if err := inputval.Length("bookName", "Book name", b, 1, 200); err != nil {
			return out, err
		}
		out.BookName = &b
	}
	if in.ArabicText != nil {
		a := strings.TrimSpace(*in.ArabicText)
		if err := inputval.Length("arabicText", "Arabic text", a, 1, 20000); err != nil {
			return out, err
		}
		out.ArabicText = &a
	}
	if in.Translations != nil {
		tr, err := translations(*in.Translations)
		if err != nil {
			return out, err
		}
		out.Translations = &tr
	}
	return out, nil
}

// Update handles PUT /api/hadith/{id} (admin).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.RequireAdmin(r); err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := urlparam.ObjectID(r, "id")
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

	hd, err := h.store.Update(ctx, id, upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.audit.Content(r, audit.EventContentUpdated, "hadith", id.Hex())
	jsonutil.Item(w, "hadith", hd, false)
}

// Delete handles DELETE /api/hadith/{id} (admin).
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.RequireAdmin(r); err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := urlparam.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.store.Delete(ctx, id)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	if n == 0 {
		h.fail(w, r, apperr.NotFound("Hadith"))
		return
	}
	if _, err := h.bookmarks.DeleteByContent(ctx, models.ContentHadith, id.Hex()); err != nil {
		h.log.Warn("failed to remove bookmarks of deleted hadith", zap.String("id", id.Hex()), zap.Error(err))
	}
	h.audit.Content(r, audit.EventContentDeleted, "hadith", id.Hex())
	jsonutil.Message(w, "Hadith deleted")
}
