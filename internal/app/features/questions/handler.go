// Package questions serves /api/questions: users ask, admins answer, and
// answered public questions form a browsable archive.
package questions

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/noorhub/internal/app/fallback"
	"github.com/dalemusser/noorhub/internal/app/store/audit"
	questionstore "github.com/dalemusser/noorhub/internal/app/store/questions"
	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	userstore "github.com/dalemusser/noorhub/internal/app/store/users"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/auditlog"
	"github.com/dalemusser/noorhub/internal/app/system/authz"
	"github.com/dalemusser/noorhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/noorhub/internal/app/system/inputval"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/mailer"
	"github.com/dalemusser/noorhub/internal/app/system/normalize"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/app/system/urlparam"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	defaultLimit = 20
	maxAnswer    = 20000
)

type Handler struct {
	store *questionstore.Store
	users *userstore.Store
	fb    *fallback.Provider
	mail  mailer.Sender
	site  mailer.Site
	audit *auditlog.Logger
	log   *zap.Logger
}

func NewHandler(db *mongo.Database, fb *fallback.Provider, mail mailer.Sender, site mailer.Site, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		store: questionstore.New(db),
		users: userstore.New(db),
		fb:    fb,
		mail:  mail,
		site:  site,
		audit: audit,
		log:   logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if storeutil.IsNotFound(err) {
		err = apperr.NotFound("Question")
	}
	jsonutil.Fail(w, r, h.log, err)
}

// questionText trims and checks the length bounds.
func questionText(s string) (string, error) {
	s = strings.TrimSpace(s)
	switch n := utf8.RuneCountInString(s); {
	case n < models.QuestionMinLength:
		return "", apperr.Invalid("Question is too short", "text")
	case n > models.QuestionMaxLength:
		return "", apperr.Invalid("Question is too long", "text")
	}
	return s, nil
}

// visible reports whether the caller may read q.
func visible(r *http.Request, q *models.Question) bool {
	if q.IsPublic && q.Status == models.QuestionAnswered {
		return true
	}
	return authz.CanModify(r, q.User.ID)
}

// List handles GET /api/questions. Anonymous callers see the public
// archive, signed-in users also their own questions, admins everything.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f := questionstore.ListFilter{Category: normalize.Category(urlparam.String(r, "category"))}
	switch s := models.QuestionStatus(normalize.Status(urlparam.String(r, "status"))); s {
	case "":
	case models.QuestionPending, models.QuestionAnswered:
		f.Status = s
	default:
		h.fail(w, r, apperr.Invalid("Status must be one of: pending, answered.", "status"))
		return
	}
	if u, ok := authz.Identity(r); ok {
		f.ViewerID = u.UserID()
		f.All = u.IsAdmin()
	}
	p := pagination.FromRequest(r, defaultLimit)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, total, err := h.store.List(ctx, f, p)
	demo := false
	if err != nil {
		if !h.fb.Use(r, h.log, err) {
			h.fail(w, r, apperr.Internal(err))
			return
		}
		items, total = h.fb.Questions(f, p)
		demo = true
	}
	jsonutil.List(w, "questions", items, pagination.NewMeta(p, total), demo)
}

// Get handles GET /api/questions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	q, err := h.store.GetByID(ctx, id)
	if err != nil {
		if h.fb.Use(r, h.log, err) {
			if fq, ok := h.fb.QuestionByID(id); ok {
				jsonutil.Item(w, "question", fq, true)
				return
			}
			h.fail(w, r, apperr.NotFound("Question"))
			return
		}
		h.fail(w, r, err)
		return
	}
	if !visible(r, q) {
		h.fail(w, r, apperr.NotFound("Question"))
		return
	}
	jsonutil.Item(w, "question", q, false)
}

type createInput struct {
	Text     string `json:"text"`
	Category string `json:"category" validate:"max=50" label:"Category"`
	IsPublic *bool  `json:"isPublic"`
}

// Create handles POST /api/questions. Questions are public unless the
// asker opts out.
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
	if err := inputval.RequireAll(inputval.Need("text", strings.TrimSpace(in.Text) != "")); err != nil {
		h.fail(w, r, err)
		return
	}
	text, err := questionText(in.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := inputval.Validate(in).Err(); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	q, err := h.store.Create(ctx, models.Question{
		User:     u.Author(),
		Text:     text,
		Category: normalize.Category(in.Category),
		IsPublic: in.IsPublic == nil || *in.IsPublic,
	})
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	jsonutil.CreatedItem(w, "question", q)
}

type updateInput struct {
	Text     *string `json:"text"`
	Category *string `json:"category"`
	IsPublic *bool   `json:"isPublic"`
}

// Update handles PUT /api/questions/{id}. The asker may edit while the
// question is pending; admins at any time.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
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

	var in updateInput
	if err := jsonutil.DecodeBody(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	var upd questionstore.UpdateInput
	if in.Text != nil {
		text, err := questionText(*in.Text)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		upd.Text = &text
	}
	if in.Category != nil {
		c := normalize.Category(*in.Category)
		if err := inputval.Length("category", "Category", c, 0, 50); err != nil {
			h.fail(w, r, err)
			return
		}
		upd.Category = &c
	}
	upd.IsPublic = in.IsPublic

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	q, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !u.IsAdmin() {
		if q.User.ID != u.UserID() {
			h.fail(w, r, apperr.NotFound("Question"))
			return
		}
		if q.Status != models.QuestionPending {
			h.fail(w, r, apperr.Forbidden("Answered questions cannot be edited"))
			return
		}
	}

	updated, err := h.store.Update(ctx, id, upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Item(w, "question", updated, false)
}

type answerInput struct {
	Answer string `json:"answer"`
}

// Answer handles POST /api/questions/{id}/answer (admin) and emails the
// asker.
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	u, err := authz.RequireAdmin(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := urlparam.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var in answerInput
	if err := jsonutil.DecodeBody(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := inputval.RequireAll(inputval.Need("answer", strings.TrimSpace(in.Answer) != "")); err != nil {
		h.fail(w, r, err)
		return
	}
	answer := htmlsanitize.Prepare(strings.TrimSpace(in.Answer))
	if err := inputval.Length("answer", "Answer", answer, 1, maxAnswer); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	q, err := h.store.Answer(ctx, id, answer, u.Author())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.audit.Content(r, audit.EventQuestionAnswered, "question", id.Hex())
	h.notifyAsker(ctx, q)
	jsonutil.Item(w, "question", q, false)
}

func (h *Handler) notifyAsker(ctx context.Context, q *models.Question) {
	if h.mail == nil {
		return
	}
	asker, err := h.users.GetByID(ctx, q.User.ID)
	if err != nil {
		h.log.Warn("cannot email asker", zap.String("question_id", q.ID.Hex()), zap.Error(err))
		return
	}
	if asker.Email == "" {
		return
	}
	text, html := mailer.QuestionAnsweredEmail(mailer.QuestionAnsweredData{
		AppName:     h.site.Name,
		UserName:    asker.Name,
		Question:    q.Text,
		Answer:      htmlsanitize.SanitizeToHTML(q.Answer),
		AnswerText:  htmlsanitize.PlainText(q.Answer),
		QuestionURL: h.site.Link("/questions/" + q.ID.Hex()),
	})
	mailer.SendAsync(h.mail, h.log, mailer.Email{
		To:       asker.Email,
		Subject:  "Your question has been answered",
		TextBody: text,
		HTMLBody: html,
	})
}

// Delete handles DELETE /api/questions/{id} for the asker or an admin.
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

	q, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !authz.CanModify(r, q.User.ID) {
		h.fail(w, r, apperr.NotFound("Question"))
		return
	}
	if _, err := h.store.Delete(ctx, id); err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	jsonutil.Message(w, "Question deleted")
}
