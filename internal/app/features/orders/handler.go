// Package orders serves /api/orders: checkout with stock reservation,
// order history and the fulfilment status workflow.
package orders

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/noorhub/internal/app/store/audit"
	orderstore "github.com/dalemusser/noorhub/internal/app/store/orders"
	productstore "github.com/dalemusser/noorhub/internal/app/store/products"
	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/auditlog"
	"github.com/dalemusser/noorhub/internal/app/system/authz"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/mailer"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/app/system/urlparam"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const defaultLimit = 20

// maxQuantity bounds a single order line.
const maxQuantity = 100

type Handler struct {
	store    *orderstore.Store
	products *productstore.Store
	mail     mailer.Sender
	site     mailer.Site
	audit    *auditlog.Logger
	log      *zap.Logger
}

func NewHandler(db *mongo.Database, mail mailer.Sender, site mailer.Site, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		store:    orderstore.New(db),
		products: productstore.New(db),
		mail:     mail,
		site:     site,
		audit:    audit,
		log:      logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case storeutil.IsNotFound(err):
		err = apperr.NotFound("Order")
	case errors.Is(err, orderstore.ErrStatusConflict):
		err = apperr.BadRequest("Order status does not allow this change")
	}
	jsonutil.Fail(w, r, h.log, err)
}

// List handles GET /api/orders. Users see their own orders, admins all.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, err := authz.RequireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	f := orderstore.ListFilter{Status: models.OrderStatus(urlparam.String(r, "status"))}
	if f.Status != "" && !validStatus(f.Status) {
		h.fail(w, r, errBadStatus())
		return
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
	jsonutil.List(w, "orders", items, pagination.NewMeta(p, total), false)
}

// Get handles GET /api/orders/{id} for the owner or an admin.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
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

	o, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// Other users' orders are reported as missing.
	if !authz.CanModify(r, o.UserID) {
		h.fail(w, r, apperr.NotFound("Order"))
		return
	}
	jsonutil.Item(w, "order", o, false)
}

func errBadStatus() error {
	return apperr.Invalid("Status must be one of: "+strings.Join(models.AllOrderStatuses(), ", ")+".", "status")
}

func validStatus(s models.OrderStatus) bool {
	for _, v := range models.AllOrderStatuses() {
		if string(s) == v {
			return true
		}
	}
	return false
}

// Delete handles DELETE /api/orders/{id} (admin).
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
		h.fail(w, r, apperr.NotFound("Order"))
		return
	}
	h.audit.Content(r, audit.EventContentDeleted, "order", id.Hex())
	jsonutil.Message(w, "Order deleted")
}
