// Package bookmarks serves /api/bookmarks across every content type.
package bookmarks

import (
	"context"
	"errors"
	"net/http"

	bookmarkstore "github.com/dalemusser/noorhub/internal/app/store/bookmarks"
	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/authz"
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

const defaultLimit = 20

type Handler struct {
	store   *bookmarkstore.Store
	content *resolver
	log     *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		store:   bookmarkstore.New(db),
		content: newResolver(db),
		log:     logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case storeutil.IsNotFound(err):
		err = apperr.NotFound("Bookmark")
	case errors.Is(err, bookmarkstore.ErrDuplicateBookmark):
		err = apperr.BadRequest("Content already bookmarked")
	}
	jsonutil.Fail(w, r, h.log, err)
}

func contentType(s string, required bool) (models.ContentType, error) {
	s = normalize.Status(s)
	if s == "" && !required {
		return "", nil
	}
	if !inputval.IsValidContentType(s) {
		return "", apperr.Invalid("Content type must be one of: news, video, product, quran, hadith.", "contentType")
	}
	return models.ContentType(s), nil
}

// List handles GET /api/bookmarks: the caller's bookmarks, optionally of
// one contentType.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, err := authz.RequireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ct, err := contentType(urlparam.String(r, "contentType"), false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p := pagination.FromRequest(r, defaultLimit)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, total, err := h.store.List(ctx, u.UserID(), ct, p)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	jsonutil.List(w, "bookmarks", items, pagination.NewMeta(p, total), false)
}

type createInput struct {
	ContentType string `json:"contentType"`
	ContentID   string `json:"contentId"`
}

// Create handles POST /api/bookmarks.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, err := authz.RequireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var in createInput
	if err := jsonutil.DecodeBody(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := inputval.RequireAll(
		inputval.Need("contentType", normalize.Status(in.ContentType) != ""),
		inputval.Need("contentId", normalize.Status(in.ContentID) != ""),
	); err != nil {
		h.fail(w, r, err)
		return
	}
	ct, err := contentType(in.ContentType, true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cid, err := canonicalID(ct, in.ContentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	snap, err := h.content.snapshot(ctx, ct, cid)
	if err != nil {
		jsonutil.Fail(w, r, h.log, err)
		return
	}

	b, err := h.store.Create(ctx, models.Bookmark{
		UserID:      u.UserID(),
		ContentType: ct,
		ContentID:   cid,
		Snapshot:    snap,
	})
	if err != nil {
		if !errors.Is(err, bookmarkstore.ErrDuplicateBookmark) {
			err = apperr.Internal(err)
		}
		h.fail(w, r, err)
		return
	}
	jsonutil.CreatedItem(w, "bookmark", b)
}

// Check handles GET /api/bookmarks/check?contentType=&contentId=.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	u, err := authz.RequireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rawType, rawID := urlparam.String(r, "contentType"), urlparam.String(r, "contentId")
	if err := inputval.RequireAll(
		inputval.Need("contentType", rawType != ""),
		inputval.Need("contentId", rawID != ""),
	); err != nil {
		h.fail(w, r, err)
		return
	}
	ct, err := contentType(rawType, true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cid, err := canonicalID(ct, rawID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.store.Find(ctx, u.UserID(), ct, cid)
	switch {
	case err == nil:
		jsonutil.OK(w, map[string]any{"bookmarked": true, "bookmarkId": b.ID.Hex()})
	case storeutil.IsNotFound(err):
		jsonutil.OK(w, map[string]any{"bookmarked": false, "bookmarkId": nil})
	default:
		h.fail(w, r, apperr.Internal(err))
	}
}

// Delete handles DELETE /api/bookmarks/{id} for the owner or an admin.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.RequireUser(r); err != nil {
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

	b, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !authz.CanModify(r, b.UserID) {
		h.fail(w, r, apperr.NotFound("Bookmark"))
		return
	}
	if _, err := h.store.Delete(ctx, id); err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	jsonutil.Message(w, "Bookmark removed")
}
