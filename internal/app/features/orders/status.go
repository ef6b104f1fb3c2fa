package orders

import (
	"context"
	"net/http"

	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/authz"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/normalize"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/app/system/urlparam"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.uber.org/zap"
)

// open lists the states an order can still move out of. Cancelled is
// terminal: its stock has already been given back.
var open = []models.OrderStatus{
	models.OrderPending,
	models.OrderProcessing,
	models.OrderShipped,
	models.OrderDelivered,
}

type statusInput struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/orders/{id}. Admins may move an open
// order to any state; the owner may only cancel while it is pending.
// Cancelling restores stock.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

	var in statusInput
	if err := jsonutil.DecodeBody(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	to := models.OrderStatus(normalize.Status(in.Status))
	if to == "" {
		h.fail(w, r, apperr.MissingFields("status"))
		return
	}
	if !validStatus(to) {
		h.fail(w, r, errBadStatus())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	from := open
	if !u.IsAdmin() {
		o, err := h.store.GetByID(ctx, id)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if o.UserID != u.UserID() {
			h.fail(w, r, apperr.NotFound("Order"))
			return
		}
		if to != models.OrderCancelled {
			h.fail(w, r, apperr.Forbidden("You can only cancel your order"))
			return
		}
		from = []models.OrderStatus{models.OrderPending}
	}

	prev, err := h.store.UpdateStatus(ctx, id, to, from...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if to == models.OrderCancelled {
		h.release(prev.Items)
	}
	h.audit.OrderStatusChanged(r, id, string(prev.Status), string(to))
	h.log.Info("order status changed",
		zap.String("order_id", id.Hex()),
		zap.String("from", string(prev.Status)),
		zap.String("to", string(to)))

	o, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Item(w, "order", o, false)
}
