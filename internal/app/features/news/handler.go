// Package news serves the article endpoints under /api/news.
package news

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/noorhub/internal/app/fallback"
	"github.com/dalemusser/noorhub/internal/app/store/audit"
	bookmarkstore "github.com/dalemusser/noorhub/internal/app/store/bookmarks"
	newsstore "github.com/dalemusser/noorhub/internal/app/store/news"
	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/auditlog"
	"github.com/dalemusser/noorhub/internal/app/system/authz"
	"github.com/dalemusser/noorhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/noorhub/internal/app/system/inputval"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/normalize"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/app/system/urlparam"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const defaultLimit = 10

type Handler struct {
	store     *newsstore.Store
	bookmarks *bookmarkstore.Store
	fb        *fallback.Provider
	audit     *auditlog.Logger
	log       *zap.Logger
}

// NewHandler wires the handler. fb may be nil to disable fallback reads.
func NewHandler(db *mongo.Database, fb *fallback.Provider, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		store:     newsstore.New(db),
		bookmarks: bookmarkstore.New(db),
		fb:        fb,
		audit:     audit,
		log:       logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if storeutil.IsNotFound(err) {
		err = apperr.NotFound("News")
	}
	jsonutil.Fail(w, r, h.log, err)
}

// List handles GET /api/news. Non-admins only ever see published articles.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r, defaultLimit)
	f := newsstore.ListFilter{
		Category: urlparam.String(r, "category"),
		Search:   urlparam.String(r, "search"),
		Featured: urlparam.Bool(r, "featured"),
	}
	if authz.IsAdmin(r) {
		f.Published = urlparam.Bool(r, "published")
	} else {
		published := true
		f.Published = &published
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
		items, total = h.fb.News(f, p)
		demo = true
	}
	jsonutil.List(w, "news", items, pagination.NewMeta(p, total), demo)
}

// Get handles GET /api/news/{id} and counts the view.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.store.GetByID(ctx, id)
	if err != nil {
		if h.fb.Use(r, h.log, err) {
			if fbn, ok := h.fb.NewsByID(id); ok {
				jsonutil.Item(w, "news", fbn, true)
				return
			}
			h.fail(w, r, apperr.NotFound("News"))
			return
		}
		h.fail(w, r, err)
		return
	}
	if !n.Published && !authz.IsAdmin(r) {
		h.fail(w, r, apperr.NotFound("News"))
		return
	}

	if updated, err := h.store.IncrementViews(ctx, id); err != nil {
		h.log.Warn("failed to count news view", zap.String("id", id.Hex()), zap.Error(err))
	} else {
		n = updated
	}
	jsonutil.Item(w, "news", n, false)
}

type createInput struct {
	Title     string   `json:"title" validate:"max=200" label:"Title"`
	Content   string   `json:"content"`
	Excerpt   string   `json:"excerpt"`
	Category  string   `json:"category" validate:"max=50" label:"Category"`
	ImageURL  string   `json:"imageUrl" validate:"httpurl" label:"Image URL"`
	Tags      []string `json:"tags"`
	Published *bool    `json:"published"`
	Featured  *bool    `json:"featured"`
}

// excerptFor returns the plain-text excerpt, derived from content when the
// author left it blank.
func excerptFor(excerpt, content string) (string, error) {
	if strings.TrimSpace(excerpt) == "" {
		return htmlsanitize.Excerpt(content, models.NewsExcerptMax), nil
	}
	excerpt = htmlsanitize.PlainText(excerpt)
	if err := inputval.Length("excerpt", "Excerpt", excerpt, 0, models.NewsExcerptMax); err != nil {
		return "", err
	}
	return excerpt, nil
}

// Create handles POST /api/news (admin).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, err := authz.RequireAdmin(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var in createInput
	if err := jsonutil.DecodeBody(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Category = normalize.Category(in.Category)
	if err := inputval.RequireAll(
		inputval.Need("title", in.Title != ""),
		inputval.Need("content", strings.TrimSpace(in.Content) != ""),
		inputval.Need("category", in.Category != ""),
	); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := inputval.Validate(in).Err(); err != nil {
		h.fail(w, r, err)
		return
	}

	content := htmlsanitize.Prepare(in.Content)
	excerpt, err := excerptFor(in.Excerpt, content)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	n := models.News{
		Title:     in.Title,
		Content:   content,
		Excerpt:   excerpt,
		Category:  in.Category,
		ImageURL:  strings.TrimSpace(in.ImageURL),
		Tags:      normalize.Tags(in.Tags),
		Author:    u.Author(),
		Published: in.Published != nil && *in.Published,
		Featured:  in.Featured != nil && *in.Featured,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.store.Create(ctx, n)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	h.audit.Content(r, audit.EventContentCreated, "news", created.ID.Hex())
	jsonutil.CreatedItem(w, "news", created)
}

type updateInput struct {
	Title     *string   `json:"title"`
	Content   *string   `json:"content"`
	Excerpt   *string   `json:"excerpt"`
	Category  *string   `json:"category"`
	ImageURL  *string   `json:"imageUrl"`
	Tags      *[]string `json:"tags"`
	Published *bool     `json:"published"`
	Featured  *bool     `json:"featured"`
}

func (in *updateInput) resolve() (newsstore.UpdateInput, error) {
	out := newsstore.UpdateInput{Published: in.Published, Featured: in.Featured}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if err := inputval.Length("title", "Title", t, 1, models.NewsTitleMax); err != nil {
			return out, err
		}
		out.Title = &t
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return out, apperr.Invalid("Content is required.", "content")
		}
		c := htmlsanitize.Prepare(*in.Content)
		out.Content = &c
		if in.Excerpt == nil {
			e := htmlsanitize.Excerpt(c, models.NewsExcerptMax)
			out.Excerpt = &e
		}
	}
	if in.Excerpt != nil {
		source := ""
		if out.Content != nil {
			source = *out.Content
		}
		e, err := excerptFor(*in.Excerpt, source)
		if err != nil {
			return out, err
		}
		out.Excerpt = &e
	}
	if in.Category != nil {
		c := normalize.Category(*in.Category)
		if c == "" {
			return out, apperr.Invalid("Category is required.", "category")
		}
		out.Category = &c
	}
	if in.ImageURL != nil {
		if err := inputval.URL("imageUrl", "Image URL", *in.ImageURL); err != nil {
			return out, err
		}
		u := strings.TrimSpace(*in.ImageURL)
		out.ImageURL = &u
	}
	if in.Tags != nil {
		tags := normalize.Tags(*in.Tags)
		out.Tags = &tags
	}
	return out, nil
}

// Update handles PUT /api/news/{id} (admin).
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

	n, err := h.store.Update(ctx, id, upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.audit.Content(r, audit.EventContentUpdated, "news", id.Hex())
	jsonutil.Item(w, "news", n, false)
}

// Delete handles DELETE /api/news/{id} (admin) and removes bookmarks of it.
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
		h.fail(w, r, apperr.NotFound("News"))
		return
	}
	if _, err := h.bookmarks.DeleteByContent(ctx, models.ContentNews, id.Hex()); err != nil {
		// orphan-sweep removes whatever this misses
		h.log.Warn("failed to remove bookmarks of deleted news", zap.String("id", id.Hex()), zap.Error(err))
	}
	h.audit.Content(r, audit.EventContentDeleted, "news", id.Hex())
	jsonutil.Message(w, "News deleted")
}
