// Package bookings serves /api/bookings: a user's saved intent to watch a
// video, with an optional scheduled time.
package bookings

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	bookingstore "github.com/dalemusser/noorhub/internal/app/store/bookings"
	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	videostore "github.com/dalemusser/noorhub/internal/app/store/videos"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/authz"
	"github.com/dalemusser/noorhub/internal/app/system/inputval"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/normalize"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/app/system/urlparam"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	defaultLimit = 20
	maxNotes     = 500
)

type Handler struct {
	store  *bookingstore.Store
	videos *videostore.Store
	log    *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		store:  bookingstore.New(db),
		videos: videostore.New(db),
		log:    logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case storeutil.IsNotFound(err):
		err = apperr.NotFound("Booking")
	case errors.Is(err, bookingstore.ErrDuplicateBooking):
		err = apperr.BadRequest("You have already booked this video")
	}
	jsonutil.Fail(w, r, h.log, err)
}

func parseStatus(s string) (models.BookingStatus, error) {
	st := models.BookingStatus(normalize.Status(s))
	for _, v := range models.AllBookingStatuses() {
		if string(st) == v {
			return st, nil
		}
	}
	return "", apperr.Invalid("Status must be one of: "+strings.Join(models.AllBookingStatuses(), ", ")+".", "status")
}

// parseSchedule reads an RFC 3339 time that must not be in the past.
func parseSchedule(s string, now time.Time) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.Invalid("Scheduled time must be an RFC 3339 timestamp.", "scheduledFor")
	}
	if t.Before(now.Add(-time.Minute)) {
		return time.Time{}, apperr.Invalid("Scheduled time must be in the future.", "scheduledFor")
	}
	return t.UTC(), nil
}

// List handles GET /api/bookings: the caller's bookings, or all for admins.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, err := authz.RequireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var f bookingstore.ListFilter
	if s := urlparam.String(r, "status"); s != "" {
		if f.Status, err = parseStatus(s); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	if !u.IsAdmin() {
		f.UserID = u.UserID()
	}
	p := pagination.FromRequest(r, defaultLimit)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, total, err := h.store.List(ctx, f, p)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	jsonutil.List(w, "bookings", items, pagination.NewMeta(p, total), false)
}

type createInput struct {
	VideoID      string `json:"videoId" validate:"objectid" label:"Video"`
	ScheduledFor string `json:"scheduledFor"`
	Notes        string `json:"notes"`
}

// Create handles POST /api/bookings. The video's title, thumbnail and URL
// are copied onto the booking.
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
	in.VideoID = strings.TrimSpace(in.VideoID)
	if err := inputval.RequireAll(inputval.Need("videoId", in.VideoID != "")); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := inputval.Validate(in).Err(); err != nil {
		h.fail(w, r, err)
		return
	}
	notes := strings.TrimSpace(in.Notes)
	if err := inputval.Length("notes", "Notes", notes, 0, maxNotes); err != nil {
		h.fail(w, r, err)
		return
	}
	b := models.Booking{UserID: u.UserID(), Notes: notes}
	if strings.TrimSpace(in.ScheduledFor) != "" {
		t, err := parseSchedule(in.ScheduledFor, time.Now())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		b.ScheduledFor = &t
	}
	videoID, _ := primitive.ObjectIDFromHex(in.VideoID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.videos.GetByID(ctx, videoID)
	if err != nil {
		if storeutil.IsNotFound(err) {
			err = apperr.NotFound("Video")
		}
		h.fail(w, r, err)
		return
	}
	if !v.Published {
		h.fail(w, r, apperr.NotFound("Video"))
		return
	}
	b.VideoID = v.ID
	b.Video = models.VideoSnapshot{Title: v.Title, Thumbnail: v.Thumbnail, VideoURL: v.VideoURL}

	created, err := h.store.Create(ctx, b)
	if err != nil {
		if !errors.Is(err, bookingstore.ErrDuplicateBooking) {
			err = apperr.Internal(err)
		}
		h.fail(w, r, err)
		return
	}
	jsonutil.CreatedItem(w, "booking", created)
}

// load returns the booking at {id} when the caller owns it or is an admin.
// Anyone else gets a 404.
func (h *Handler) load(ctx context.Context, r *http.Request) (*models.Booking, error) {
	if _, err := authz.RequireUser(r); err != nil {
		return nil, err
	}
	id, err := urlparam.ObjectID(r, "id")
	if err != nil {
		return nil, err
	}
	b, err := h.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanModify(r, b.UserID) {
		return nil, apperr.NotFound("Booking")
	}
	return b, nil
}

// Get handles GET /api/bookings/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.load(ctx, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Item(w, "booking", b, false)
}

type updateInput struct {
	ScheduledFor *string `json:"scheduledFor"`
	Notes        *string `json:"notes"`
	Status       *string `json:"status"`
}

// Update handles PATCH /api/bookings/{id}. An empty scheduledFor clears
// the schedule. Owners may cancel; other status changes are admin-only.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.load(ctx, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var in updateInput
	if err := jsonutil.DecodeBody(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	var upd bookingstore.UpdateInput
	if in.ScheduledFor != nil {
		if strings.TrimSpace(*in.ScheduledFor) == "" {
			upd.ClearSchedule = true
		} else {
			t, err := parseSchedule(*in.ScheduledFor, time.Now())
			if err != nil {
				h.fail(w, r, err)
				return
			}
			upd.ScheduledFor = &t
		}
	}
	if in.Notes != nil {
		n := strings.TrimSpace(*in.Notes)
		if err := inputval.Length("notes", "Notes", n, 0, maxNotes); err != nil {
			h.fail(w, r, err)
			return
		}
		upd.Notes = &n
	}
	if in.Status != nil {
		st, err := parseStatus(*in.Status)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if st != models.BookingCancelled && st != b.Status && !authz.IsAdmin(r) {
			h.fail(w, r, apperr.Forbidden("You can only cancel your booking"))
			return
		}
		upd.Status = &st
	}

	updated, err := h.store.Update(ctx, b.ID, upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Item(w, "booking", updated, false)
}

// Delete handles DELETE /api/bookings/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.load(ctx, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.store.Delete(ctx, b.ID); err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	jsonutil.Message(w, "Booking deleted")
}
