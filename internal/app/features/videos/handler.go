// Package videos serves /api/videos: the catalogue, reactions and the
// embedded comment threads.
package videos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/noorhub/internal/app/fallback"
	"github.com/dalemusser/noorhub/internal/app/store/audit"
	bookingstore "github.com/dalemusser/noorhub/internal/app/store/bookings"
	bookmarkstore "github.com/dalemusser/noorhub/internal/app/store/bookmarks"
	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	videostore "github.com/dalemusser/noorhub/internal/app/store/videos"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/auditlog"
	"github.com/dalemusser/noorhub/internal/app/system/authz"
	"github.com/dalemusser/noorhub/internal/app/system/inputval"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/normalize"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/app/system/txn"
	"github.com/dalemusser/noorhub/internal/app/system/urlparam"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const defaultLimit = 12

type Handler struct {
	db        *mongo.Database
	store     *videostore.Store
	bookings  *bookingstore.Store
	bookmarks *bookmarkstore.Store
	fb        *fallback.Provider
	audit     *auditlog.Logger
	log       *zap.Logger
}

func NewHandler(db *mongo.Database, fb *fallback.Provider, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		db:        db,
		store:     videostore.New(db),
		bookings:  bookingstore.New(db),
		bookmarks: bookmarkstore.New(db),
		fb:        fb,
		audit:     audit,
		log:       logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case storeutil.IsNotFound(err):
		err = apperr.NotFound("Video")
	case errors.Is(err, videostore.ErrCommentNotFound):
		err = apperr.NotFound("Comment")
	case errors.Is(err, videostore.ErrCommentLimit):
		err = apperr.BadRequest(fmt.Sprintf("This video has reached the limit of %d comments", models.MaxCommentsPerVideo))
	case errors.Is(err, videostore.ErrReplyLimit):
		err = apperr.BadRequest(fmt.Sprintf("This comment has reached the limit of %d replies", models.MaxRepliesPerComment))
	}
	jsonutil.Fail(w, r, h.log, err)
}

// List handles GET /api/videos.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r, defaultLimit)
	f := videostore.ListFilter{
		Category: urlparam.String(r, "category"),
		Search:   urlparam.String(r, "search"),
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
		items, total = h.fb.Videos(f, p)
		demo = true
	}
	jsonutil.List(w, "videos", items, pagination.NewMeta(p, total), demo)
}

// Get handles GET /api/videos/{id}, with comments, and counts the view.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.store.GetByID(ctx, id)
	if err != nil {
		if h.fb.Use(r, h.log, err) {
			if fv, ok := h.fb.VideoByID(id); ok {
				jsonutil.Item(w, "video", fv, true)
				return
			}
			h.fail(w, r, apperr.NotFound("Video"))
			return
		}
		h.fail(w, r, err)
		return
	}
	if !v.Published && !authz.IsAdmin(r) {
		h.fail(w, r, apperr.NotFound("Video"))
		return
	}

	if updated, err := h.store.IncrementViews(ctx, id); err != nil {
		h.log.Warn("failed to count video view", zap.String("id", id.Hex()), zap.Error(err))
	} else {
		v = updated
	}
	jsonutil.Item(w, "video", v, false)
}

type createInput struct {
	Title       string `json:"title" validate:"max=200" label:"Title"`
	Description string `json:"description" validate:"max=5000" label:"Description"`
	VideoURL    string `json:"videoUrl" validate:"httpurl" label:"Video URL"`
	Thumbnail   string `json:"thumbnail" validate:"httpurl" label:"Thumbnail"`
	Category    string `json:"category" validate:"max=50" label:"Category"`
	Duration    string `json:"duration" validate:"max=20" label:"Duration"`
	Published   *bool  `json:"published"`
}

// Create handles POST /api/videos (admin). Videos are published unless
// the request says otherwise.
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
	in.VideoURL = strings.TrimSpace(in.VideoURL)
	in.Category = normalize.Category(in.Category)
	if err := inputval.RequireAll(
		inputval.Need("title", in.Title != ""),
		inputval.Need("videoUrl", in.VideoURL != ""),
		inputval.Need("category", in.Category != ""),
	); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := inputval.Validate(in).Err(); err != nil {
		h.fail(w, r, err)
		return
	}

	v := models.Video{
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		VideoURL:    in.VideoURL,
		Thumbnail:   strings.TrimSpace(in.Thumbnail),
		Category:    in.Category,
		Duration:    strings.TrimSpace(in.Duration),
		Author:      u.Author(),
		Published:   in.Published == nil || *in.Published,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.store.Create(ctx, v)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	h.audit.Content(r, audit.EventContentCreated, "video", created.ID.Hex())
	jsonutil.CreatedItem(w, "video", created)
}

type updateInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	VideoURL    *string `json:"videoUrl"`
	Thumbnail   *string `json:"thumbnail"`
	Category    *string `json:"category"`
	Duration    *string `json:"duration"`
	Published   *bool   `json:"published"`
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	return &s
}

func (in *updateInput) resolve() (videostore.UpdateInput, error) {
	out := videostore.UpdateInput{
		Title:       trimmed(in.Title),
		Description: trimmed(in.Description),
		VideoURL:    trimmed(in.VideoURL),
		Thumbnail:   trimmed(in.Thumbnail),
		Duration:    trimmed(in.Duration),
		Published:   in.Published,
	}
	if out.Title != nil {
		if err := inputval.Length("title", "Title", *out.Title, 1, 200); err != nil {
			return out, err
		}
	}
	if out.Description != nil {
		if err := inputval.Length("description", "Description", *out.Description, 0, 5000); err != nil {
			return out, err
		}
	}
	if out.VideoURL != nil {
		if *out.VideoURL == "" {
			return out, apperr.Invalid("Video URL is required.", "videoUrl")
		}
		if err := inputval.URL("videoUrl", "Video URL", *out.VideoURL); err != nil {
			return out, err
		}
	}
	if out.Thumbnail != nil {
		if err := inputval.URL("thumbnail", "Thumbnail", *out.Thumbnail); err != nil {
			return out, err
		}
	}
	if in.Category != nil {
		c := normalize.Category(*in.Category)
		if c == "" {
			return out, apperr.Invalid("Category is required.", "category")
		}
		out.Category = &c
	}
	return out, nil
}

// Update handles PUT /api/videos/{id} (admin).
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

	v, err := h.store.Update(ctx, id, upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.audit.Content(r, audit.EventContentUpdated, "video", id.Hex())
	jsonutil.Item(w, "video", v, false)
}

// Delete handles DELETE /api/videos/{id} (admin). Bookings and bookmarks
// of the video go with it.
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

	// The video and everything pointing at it go together.
	var n int64
	err = txn.Run(ctx, h.db, h.log, func(ctx context.Context) error {
		var err error
		if n, err = h.store.Delete(ctx, id); err != nil || n == 0 {
			return err
		}
		if _, err := h.bookings.DeleteByContent(ctx, id); err != nil {
			return fmt.Errorf("remove bookings: %w", err)
		}
		if _, err := h.bookmarks.DeleteByContent(ctx, models.ContentVideo, id.Hex()); err != nil {
			return fmt.Errorf("remove bookmarks: %w", err)
		}
		return nil
	})
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	if n == 0 {
		h.fail(w, r, apperr.NotFound("Video"))
		return
	}
	h.audit.Content(r, audit.EventContentDeleted, "video", id.Hex())
	jsonutil.Message(w, "Video deleted")
}
