// Package payments serves /api/payments/bkash: starting a bKash checkout
// for an order and settling it when the customer returns.
package payments

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"

	orderstore "github.com/dalemusser/noorhub/internal/app/store/orders"
	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/auditlog"
	"github.com/dalemusser/noorhub/internal/app/system/authz"
	"github.com/dalemusser/noorhub/internal/app/system/bkash"
	"github.com/dalemusser/noorhub/internal/app/system/inputval"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Callback status values sent by bKash.
const (
	callbackSuccess = "success"
	callbackFailure = "failure"
	callbackCancel  = "cancel"
)

var (
	errNotCompleted   = errors.New("payment not completed")
	errOrderCancelled = errors.New("order cancelled")
)

type Handler struct {
	orders   *orderstore.Store
	gateway  *bkash.Client
	audit    *auditlog.Logger
	frontend string
	log      *zap.Logger
}

// NewHandler builds the handler. gateway may be unconfigured; every
// endpoint then answers 503.
func NewHandler(db *mongo.Database, gateway *bkash.Client, audit *auditlog.Logger, frontendURL string, logger *zap.Logger) *Handler {
	return &Handler{
		orders:   orderstore.New(db),
		gateway:  gateway,
		audit:    audit,
		frontend: frontendURL,
		log:      logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ext *bkash.ExternalError
	switch {
	case storeutil.IsNotFound(err):
		err = apperr.NotFound("Order")
	case errors.Is(err, bkash.ErrNotConfigured):
		err = apperr.NotConfigured("bKash payments are not configured", err)
	case errors.As(err, &ext):
		err = apperr.External("Payment gateway error", err)
	case errors.Is(err, orderstore.ErrStatusConflict):
		err = apperr.BadRequest("This order is already paid")
	}
	jsonutil.Fail(w, r, h.log, err)
}

type createInput struct {
	OrderID string `json:"orderId"`
}

// Create handles POST /api/payments/bkash/create. The caller must own the
// order, which must be an unpaid bKash order that is not cancelled.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.RequireUser(r); err != nil {
		h.fail(w, r, err)
		return
	}
	if !h.gateway.Configured() {
		h.fail(w, r, bkash.ErrNotConfigured)
		return
	}
	var in createInput
	if err := jsonutil.DecodeBody(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := inputval.RequireAll(inputval.Need("orderId", in.OrderID != "")); err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := primitive.ObjectIDFromHex(in.OrderID)
	if err != nil {
		h.fail(w, r, apperr.Invalid("Invalid order id", "orderId"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	o, err := h.orders.GetByID(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := authz.RequireOwnerOrAdmin(r, o.UserID); err != nil {
		h.fail(w, r, err)
		return
	}
	switch {
	case o.PaymentMethod != models.PaymentBkash:
		h.fail(w, r, apperr.BadRequest("This order is not paid with bKash"))
		return
	case o.PaymentStatus == models.PaymentPaid:
		h.fail(w, r, apperr.BadRequest("This order is already paid"))
		return
	case o.Status == models.OrderCancelled:
		h.fail(w, r, apperr.BadRequest("Cancelled orders cannot be paid"))
		return
	}

	p, err := h.gateway.CreatePayment(ctx, o.TotalAmount, o.ID.Hex())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.orders.SetPaymentID(ctx, o.ID, p.PaymentID); err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{
		"paymentID": p.PaymentID,
		"bkashURL":  p.BkashURL,
		"orderId":   o.ID,
	})
}

type executeInput struct {
	PaymentID string `json:"paymentID"`
}

// Execute handles POST /api/payments/bkash/execute.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.RequireUser(r); err != nil {
		h.fail(w, r, err)
		return
	}
	if !h.gateway.Configured() {
		h.fail(w, r, bkash.ErrNotConfigured)
		return
	}
	var in executeInput
	if err := jsonutil.DecodeBody(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := inputval.RequireAll(inputval.Need("paymentID", in.PaymentID != "")); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	o, err := h.orders.GetByPaymentID(ctx, in.PaymentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := authz.RequireOwnerOrAdmin(r, o.UserID); err != nil {
		h.fail(w, r, err)
		return
	}
	paid, err := h.settle(ctx, r, o, in.PaymentID)
	if errors.Is(err, errNotCompleted) {
		h.fail(w, r, apperr.BadRequest("Payment was not completed"))
		return
	}
	if errors.Is(err, errOrderCancelled) {
		h.fail(w, r, apperr.BadRequest("Cancelled orders cannot be paid"))
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Item(w, "order", paid, false)
}

// Callback handles GET /api/payments/bkash/callback, where bKash sends the
// browser after checkout. It always redirects to the frontend order page.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	paymentID := query.Get(r, "paymentID")
	status := query.Get(r, "status")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if paymentID == "" || !h.gateway.Configured() {
		h.redirect(w, r, nil, "error")
		return
	}
	o, err := h.orders.GetByPaymentID(ctx, paymentID)
	if err != nil {
		if !storeutil.IsNotFound(err) {
			h.log.Error("bkash callback order lookup failed", zap.Error(err))
		}
		h.redirect(w, r, nil, "error")
		return
	}

	switch status {
	case callbackSuccess:
		if _, err := h.settle(ctx, r, o, paymentID); err != nil {
			if !errors.Is(err, errNotCompleted) && !errors.Is(err, errOrderCancelled) {
				h.log.Warn("bkash execute failed", zap.String("payment_id", paymentID), zap.Error(err))
			}
			h.redirect(w, r, o, "failed")
			return
		}
		h.redirect(w, r, o, "success")
	case callbackFailure, callbackCancel:
		h.markFailed(ctx, r, o, paymentID, status)
		if status == callbackCancel {
			h.redirect(w, r, o, "cancelled")
			return
		}
		h.redirect(w, r, o, "failed")
	default:
		h.redirect(w, r, o, "error")
	}
}

// settle executes paymentID and marks o paid. An order that is already
// paid by the same payment is returned unchanged; a cancelled order is
// never executed.
func (h *Handler) settle(ctx context.Context, r *http.Request, o *models.Order, paymentID string) (*models.Order, error) {
	if o.PaymentStatus == models.PaymentPaid && o.PaymentID == paymentID {
		return o, nil
	}
	if o.Status == models.OrderCancelled {
		h.markFailed(ctx, r, o, paymentID, "order cancelled")
		return nil, errOrderCancelled
	}
	ex, err := h.gateway.ExecutePayment(ctx, paymentID)
	if err != nil {
		h.audit.Payment(r, o.ID, paymentID, false, err.Error())
		return nil, err
	}
	if !ex.Completed() {
		h.markFailed(ctx, r, o, paymentID, "transaction status "+ex.TransactionStatus)
		return nil, errNotCompleted
	}
	if !amountMatches(ex.Amount, o.TotalAmount) {
		h.markFailed(ctx, r, o, paymentID, "amount mismatch: "+ex.Amount)
		return nil, errNotCompleted
	}
	paid, err := h.orders.MarkPaid(ctx, o.ID, paymentID, ex.TrxID)
	if errors.Is(err, orderstore.ErrStatusConflict) {
		// Cancelled between the lookup and the execute.
		if cur, gerr := h.orders.GetByID(ctx, o.ID); gerr == nil && cur.Status == models.OrderCancelled {
			h.audit.Payment(r, o.ID, paymentID, false, "order cancelled")
			return nil, errOrderCancelled
		}
	}
	if err != nil {
		return nil, err
	}
	h.audit.Payment(r, o.ID, paymentID, true, "")
	return paid, nil
}

func (h *Handler) markFailed(ctx context.Context, r *http.Request, o *models.Order, paymentID, reason string) {
	if err := h.orders.MarkPaymentFailed(ctx, o.ID); err != nil {
		h.log.Error("failed to mark payment failed", zap.String("order_id", o.ID.Hex()), zap.Error(err))
	}
	h.audit.Payment(r, o.ID, paymentID, false, reason)
}

// amountMatches compares the executed amount with the order total to the
// paisa. An empty amount is accepted.
func amountMatches(raw string, total float64) bool {
	if raw == "" {
		return true
	}
	got, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return false
	}
	return math.Abs(got-total) < 0.005
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, o *models.Order, result string) {
	target := h.frontend + "/orders"
	if o != nil {
		target += "/" + o.ID.Hex()
	}
	http.Redirect(w, r, target+"?payment="+url.QueryEscape(result), http.StatusSeeOther)
}
