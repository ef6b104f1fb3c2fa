package orders

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	productstore "github.com/dalemusser/noorhub/internal/app/store/products"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/auth"
	"github.com/dalemusser/noorhub/internal/app/system/authz"
	"github.com/dalemusser/noorhub/internal/app/system/inputval"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/mailer"
	"github.com/dalemusser/noorhub/internal/app/system/normalize"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type itemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type createInput struct {
	Items           []itemInput `json:"items"`
	PaymentMethod   string      `json:"paymentMethod"`
	ShippingAddress string      `json:"shippingAddress" validate:"max=500" label:"Shipping address"`
	Phone           string      `json:"phone"`
}

type line struct {
	id  primitive.ObjectID
	qty int
}

// lines validates the requested items and merges repeats of a product,
// keeping first-seen order.
func lines(items []itemInput) ([]line, error) {
	var out []line
	index := map[primitive.ObjectID]int{}
	for _, it := range items {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(it.ProductID))
		if err != nil {
			return nil, apperr.Invalid("Invalid product id: "+it.ProductID, "items")
		}
		if it.Quantity < 1 {
			return nil, apperr.Invalid("Quantity must be at least 1.", "items")
		}
		if i, ok := index[id]; ok {
			out[i].qty += it.Quantity
		} else {
			index[id] = len(out)
			out = append(out, line{id: id, qty: it.Quantity})
		}
		if out[index[id]].qty > maxQuantity {
			return nil, apperr.Invalid(fmt.Sprintf("Quantity must be at most %d.", maxQuantity), "items")
		}
	}
	return out, nil
}

func paymentMethod(s string) (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(s)); m {
	case "":
		return models.PaymentCashOnDelivery, nil
	case models.PaymentCashOnDelivery, models.PaymentBkash:
		return m, nil
	}
	return "", apperr.Invalid("Payment method must be one of: "+models.PaymentCashOnDelivery+", "+models.PaymentBkash+".", "paymentMethod")
}

// Create handles POST /api/orders. Stock for every line is taken before
// the order is written; any failure gives back what was taken.
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
	in.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
	in.Phone = normalize.Phone(in.Phone)
	if err := inputval.RequireAll(
		inputval.Need("items", len(in.Items) > 0),
		inputval.Need("shippingAddress", in.ShippingAddress != ""),
		inputval.Need("phone", in.Phone != ""),
	); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := inputval.Validate(in).Err(); err != nil {
		h.fail(w, r, err)
		return
	}
	if n := len(strings.TrimPrefix(in.Phone, "+")); n < 6 || n > 15 {
		h.fail(w, r, apperr.Invalid("Phone must be a valid phone number.", "phone"))
		return
	}
	method, err := paymentMethod(in.PaymentMethod)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	want, err := lines(in.Items)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	ids := make([]primitive.ObjectID, len(want))
	for i, l := range want {
		ids[i] = l.id
	}
	found, err := h.products.GetByIDs(ctx, ids)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}

	items := make([]models.OrderItem, 0, len(want))
	for _, l := range want {
		p, ok := found[l.id]
		if !ok {
			h.fail(w, r, apperr.Invalid("Product not found: "+l.id.Hex(), "items"))
			return
		}
		items = append(items, models.OrderItem{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: l.qty})
	}

	taken, err := h.reserve(ctx, items)
	if err != nil {
		h.release(taken)
		h.fail(w, r, err)
		return
	}

	o, err := h.store.Create(ctx, models.Order{
		UserID:          u.UserID(),
		Items:           items,
		PaymentMethod:   method,
		ShippingAddress: in.ShippingAddress,
		Phone:           in.Phone,
	})
	if err != nil {
		h.release(taken)
		h.fail(w, r, apperr.Internal(err))
		return
	}

	h.log.Info("order placed",
		zap.String("order_id", o.ID.Hex()),
		zap.String("user_id", u.ID),
		zap.Float64("total", o.TotalAmount),
		zap.String("payment_method", o.PaymentMethod))
	h.sendConfirmation(u, o)
	jsonutil.CreatedItem(w, "order", o)
}

// reserve decrements stock line by line and returns the lines it took.
func (h *Handler) reserve(ctx context.Context, items []models.OrderItem) ([]models.OrderItem, error) {
	taken := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		if err := h.products.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			if errors.Is(err, productstore.ErrInsufficientStock) {
				return taken, apperr.Invalid("Insufficient stock for "+it.Name, "items")
			}
			return taken, apperr.Internal(err)
		}
		taken = append(taken, it)
	}
	return taken, nil
}

// release gives stock back. It uses its own context so a cancelled
// request still restores what it took.
func (h *Handler) release(items []models.OrderItem) {
	if len(items) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()
	for _, it := range items {
		if err := h.products.RestoreStock(ctx, it.ProductID, it.Quantity); err != nil {
			h.log.Error("failed to restore stock",
				zap.String("product_id", it.ProductID.Hex()),
				zap.Int("quantity", it.Quantity),
				zap.Error(err))
		}
	}
}

func (h *Handler) sendConfirmation(u *auth.SessionUser, o models.Order) {
	if h.mail == nil || u.Email == "" {
		return
	}
	data := mailer.OrderConfirmationData{
		AppName:       h.site.Name,
		UserName:      u.Name,
		OrderID:       o.ID.Hex(),
		Total:         o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		OrderURL:      h.site.Link("/orders/" + o.ID.Hex()),
	}
	for _, it := range o.Items {
		data.Lines = append(data.Lines, mailer.OrderLine{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	text, html := mailer.OrderConfirmationEmail(data)
	mailer.SendAsync(h.mail, h.log, mailer.Email{
		To:       u.Email,
		Subject:  "Your order #" + o.ID.Hex(),
		TextBody: text,
		HTMLBody: html,
	})
}
