package videos

import (
	"context"
	"net/http"
	"strings"

	videostore "github.com/dalemusser/noorhub/internal/app/store/videos"
	"github.com/dalemusser/noorhub/internal/app/system/authz"
	"github.com/dalemusser/noorhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/noorhub/internal/app/system/inputval"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/app/system/urlparam"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type reactionFunc func(ctx context.Context, id, uid primitive.ObjectID) (models.Reactions, error)

func (h *Handler) react(toggle reactionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := authz.RequireUser(r)
		if err != nil {
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

		res, err := toggle(ctx, id, u.UserID())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		jsonutil.OK(w, res)
	}
}

// Like handles POST /api/videos/{id}/like.
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	h.react(h.store.ToggleLike)(w, r)
}

// Dislike handles POST /api/videos/{id}/dislike.
func (h *Handler) Dislike(w http.ResponseWriter, r *http.Request) {
	h.react(h.store.ToggleDislike)(w, r)
}

// Bookmark handles POST /api/videos/{id}/bookmark.
func (h *Handler) Bookmark(w http.ResponseWriter, r *http.Request) {
	u, err := authz.RequireUser(r)
	if err != nil {
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

	on, count, err := h.store.ToggleBookmark(ctx, id, u.UserID())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{"bookmarked": on, "bookmarks": count})
}

type commentInput struct {
	Text string `json:"text"`
}

// commentText strips markup and checks the length bounds.
func commentText(w http.ResponseWriter, r *http.Request) (string, error) {
	var in commentInput
	if err := jsonutil.DecodeBody(w, r, &in); err != nil {
		return "", err
	}
	text := htmlsanitize.PlainText(strings.TrimSpace(in.Text))
	if err := inputval.RequireAll(inputval.Need("text", text != "")); err != nil {
		return "", err
	}
	if err := inputval.Length("text", "Comment", text, 1, models.MaxCommentLength); err != nil {
		return "", err
	}
	return text, nil
}

// AddComment handles POST /api/videos/{id}/comments.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	u, err := authz.RequireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := urlparam.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	text, err := commentText(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.store.AddComment(ctx, id, u.Author(), text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.CreatedItem(w, "comment", c)
}

// AddReply handles POST /api/videos/{id}/comments/{commentId}/replies.
func (h *Handler) AddReply(w http.ResponseWriter, r *http.Request) {
	u, err := authz.RequireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := urlparam.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	commentID, err := urlparam.ObjectID(r, "commentId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	text, err := commentText(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	reply, err := h.store.AddReply(ctx, id, commentID, u.Author(), text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.CreatedItem(w, "reply", reply)
}

// DeleteComment handles DELETE /api/videos/{id}/comments/{commentId}.
// The comment's author or an admin may delete it.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.RequireUser(r); err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := urlparam.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	commentID, err := urlparam.ObjectID(r, "commentId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, ok := videostore.FindComment(v, commentID)
	if !ok {
		h.fail(w, r, videostore.ErrCommentNotFound)
		return
	}
	if _, err := authz.RequireOwnerOrAdmin(r, c.User.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.DeleteComment(ctx, id, commentID); err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Message(w, "Comment deleted")
}
