// Package products serves the shop catalogue under /api/products.
package products

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/noorhub/internal/app/fallback"
	"github.com/dalemusser/noorhub/internal/app/store/audit"
	bookmarkstore "github.com/dalemusser/noorhub/internal/app/store/bookmarks"
	productstore "github.com/dalemusser/noorhub/internal/app/store/products"
	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/auditlog"
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
	store     *productstore.Store
	bookmarks *bookmarkstore.Store
	fb        *fallback.Provider
	audit     *auditlog.Logger
	log       *zap.Logger
}

func NewHandler(db *mongo.Database, fb *fallback.Provider, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		store:     productstore.New(db),
		bookmarks: bookmarkstore.New(db),
		fb:        fb,
		audit:     audit,
		log:       logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case storeutil.IsNotFound(err):
		err = apperr.NotFound("Product")
	case errors.Is(err, productstore.ErrDuplicateSKU):
		err = apperr.Invalid("A product with this SKU already exists", "sku")
	}
	jsonutil.Fail(w, r, h.log, err)
}

// List handles GET /api/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r, defaultLimit)
	f := productstore.ListFilter{
		Category: normalize.Category(urlparam.String(r, "category")),
		Search:   urlparam.String(r, "search"),
		Featured: urlparam.Bool(r, "featured"),
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
		items, total = h.fb.Products(f, p)
		demo = true
	}
	jsonutil.List(w, "products", items, pagination.NewMeta(p, total), demo)
}

// Get handles GET /api/products/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.store.GetByID(ctx, id)
	if err != nil {
		if h.fb.Use(r, h.log, err) {
			if fp, ok := h.fb.ProductByID(id); ok {
				jsonutil.Item(w, "product", fp, true)
				return
			}
			h.fail(w, r, apperr.NotFound("Product"))
			return
		}
		h.fail(w, r, err)
		return
	}
	jsonutil.Item(w, "product", p, false)
}

type createInput struct {
	Name        string   `json:"name" validate:"max=200" label:"Name"`
	Description string   `json:"description" validate:"max=5000" label:"Description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	SKU         string   `json:"sku" validate:"max=64" label:"SKU"`
	Category    string   `json:"category" validate:"max=50" label:"Category"`
	Images      []string `json:"images"`
	Featured    bool     `json:"featured"`
}

func checkNumbers(price *float64, stock *int) error {
	if price != nil && *price < 0 {
		return apperr.Invalid("Price must be zero or more.", "price")
	}
	if stock != nil && *stock < 0 {
		return apperr.Invalid("Stock must be zero or more.", "stock")
	}
	return nil
}

// cleanImages trims and drops blanks, and requires http(s) URLs.
func cleanImages(images []string) ([]string, error) {
	out := make([]string, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		if !inputval.IsValidHTTPURL(img) {
			return nil, apperr.Invalid("Images must be valid URLs starting with http:// or https://.", "images")
		}
		out = append(out, img)
	}
	return out, nil
}

// Create handles POST /api/products (admin).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.RequireAdmin(r); err != nil {
		h.fail(w, r, err)
		return
	}

	var in createInput
	if err := jsonutil.DecodeBody(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = productstore.NormalizeSKU(in.SKU)
	in.Category = normalize.Category(in.Category)
	if err := inputval.RequireAll(
		inputval.Need("name", in.Name != ""),
		inputval.Need("price", in.Price != nil),
		inputval.Need("sku", in.SKU != ""),
		inputval.Need("category", in.Category != ""),
	); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := inputval.Validate(in).Err(); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := checkNumbers(in.Price, in.Stock); err != nil {
		h.fail(w, r, err)
		return
	}
	images, err := cleanImages(in.Images)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	p := models.Product{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Price:       *in.Price,
		SKU:         in.SKU,
		Category:    in.Category,
		Images:      images,
		Featured:    in.Featured,
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.store.Create(ctx, p)
	if err != nil {
		if !errors.Is(err, productstore.ErrDuplicateSKU) {
			err = apperr.Internal(err)
		}
		h.fail(w, r, err)
		return
	}
	h.audit.Content(r, audit.EventContentCreated, "product", created.ID.Hex())
	jsonutil.CreatedItem(w, "product", created)
}

type updateInput struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Stock       *int      `json:"stock"`
	SKU         *string   `json:"sku"`
	Category    *string   `json:"category"`
	Images      *[]string `json:"images"`
	Featured    *bool     `json:"featured"`
}

func (in *updateInput) resolve() (productstore.UpdateInput, error) {
	out := productstore.UpdateInput{Price: in.Price, Stock: in.Stock, Featured: in.Featured}
	if err := checkNumbers(in.Price, in.Stock); err != nil {
		return out, err
	}
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		if err := inputval.Length("name", "Name", n, 1, 200); err != nil {
			return out, err
		}
		out.Name = &n
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if err := inputval.Length("description", "Description", d, 0, 5000); err != nil {
			return out, err
		}
		out.Description = &d
	}
	if in.SKU != nil {
		s := productstore.NormalizeSKU(*in.SKU)
		if s == "" {
			return out, apperr.Invalid("SKU is required.", "sku")
		}
		out.SKU = &s
	}
	if in.Category != nil {
		c := normalize.Category(*in.Category)
		if c == "" {
			return out, apperr.Invalid("Category is required.", "category")
		}
		out.Category = &c
	}
	if in.Images != nil {
		images, err := cleanImages(*in.Images)
		if err != nil {
			return out, err
		}
		out.Images = &images
	}
	return out, nil
}

// Update handles PUT /api/products/{id} (admin).
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

	p, err := h.store.Update(ctx, id, upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.audit.Content(r, audit.EventContentUpdated, "product", id.Hex())
	jsonutil.Item(w, "product", p, false)
}

// Delete handles DELETE /api/products/{id} (admin). Orders keep their
// own item snapshots; bookmarks of the product are removed.
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
		h.fail(w, r, apperr.NotFound("Product"))
		return
	}
	if _, err := h.bookmarks.DeleteByContent(ctx, models.ContentProduct, id.Hex()); err != nil {
		h.log.Warn("failed to remove bookmarks of deleted product", zap.String("id", id.Hex()), zap.Error(err))
	}
	h.audit.Content(r, audit.EventContentDeleted, "product", id.Hex())
	jsonutil.Message(w, "Product deleted")
}
