// Package navbar serves the site menu at /api/navbar.
package navbar

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/noorhub/internal/app/fallback"
	"github.com/dalemusser/noorhub/internal/app/store/audit"
	navbarstore "github.com/dalemusser/noorhub/internal/app/store/navbar"
	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/auditlog"
	"github.com/dalemusser/noorhub/internal/app/system/authz"
	"github.com/dalemusser/noorhub/internal/app/system/inputval"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/noorhub/internal/app/system/urlparam"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	store *navbarstore.Store
	fb    *fallback.Provider
	audit *auditlog.Logger
	log   *zap.Logger
}

func NewHandler(db *mongo.Database, fb *fallback.Provider, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{store: navbarstore.New(db), fb: fb, audit: audit, log: logger}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if storeutil.IsNotFound(err) {
		err = apperr.NotFound("Navbar item")
	}
	jsonutil.Fail(w, r, h.log, err)
}

// List handles GET /api/navbar. Inactive items are included only for
// admins asking with all=true.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	all := false
	if b := urlparam.Bool(r, "all"); b != nil && *b && authz.IsAdmin(r) {
		all = true
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, err := h.store.List(ctx, !all)
	if err != nil {
		if !h.fb.Use(r, h.log, err) {
			h.fail(w, r, apperr.Internal(err))
			return
		}
		jsonutil.Item(w, "navbar", h.fb.Navbar(), true)
		return
	}
	jsonutil.Item(w, "navbar", models.BuildNavTree(items), false)
}

// Get handles GET /api/navbar/{id}. Inactive items are visible only to
// admins.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	it, err := h.store.GetByID(ctx, id)
	if err != nil {
		if h.fb.Use(r, h.log, err) {
			if fbi, ok := h.fb.NavbarItemByID(id); ok && fbi.IsActive {
				jsonutil.Item(w, "item", fbi, true)
				return
			}
			h.fail(w, r, apperr.NotFound("Navbar item"))
			return
		}
		h.fail(w, r, err)
		return
	}
	if !it.IsActive && !authz.IsAdmin(r) {
		h.fail(w, r, apperr.NotFound("Navbar item"))
		return
	}
	jsonutil.Item(w, "item", it, false)
}

// href accepts a site path ("/news") or an http(s) URL. A dropdown may
// leave it blank and gets "#".
func href(s, typ string) (string, error) {
	s = strings.TrimSpace(s)
	switch {
	case (s == "" || s == "#") && typ == models.NavDropdown:
		return "#", nil
	case strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//"):
		return s, nil
	case inputval.IsValidHTTPURL(s):
		return s, nil
	}
	return "", apperr.Invalid("Link must be a path starting with / or an http(s) URL", "href")
}

// checkParent requires parentID to be an existing dropdown that is not
// id itself and not one of id's children.
func (h *Handler) checkParent(ctx context.Context, id *primitive.ObjectID, parentID primitive.ObjectID) error {
	if id != nil && *id == parentID {
		return apperr.Invalid("An item cannot be its own parent", "parentId")
	}
	p, err := h.store.GetByID(ctx, parentID)
	if err != nil {
		if storeutil.IsNotFound(err) {
			return apperr.Invalid("Parent item not found", "parentId")
		}
		return apperr.Internal(err)
	}
	if p.Type != models.NavDropdown {
		return apperr.Invalid("Parent item must be a dropdown", "parentId")
	}
	if id != nil && p.ParentID != nil && *p.ParentID == *id {
		return apperr.Invalid("An item cannot be nested under its own child", "parentId")
	}
	return nil
}

type createInput struct {
	Title    string `json:"title" validate:"max=100" label:"Title"`
	Href     string `json:"href"`
	Type     string `json:"type" validate:"navtype" label:"Type"`
	ParentID string `json:"parentId" validate:"objectid" label:"Parent"`
	Order    int    `json:"order"`
	IsActive *bool  `json:"isActive"`
}

// Create handles POST /api/navbar (admin).
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
	in.Title = strings.TrimSpace(in.Title)
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	if in.Type == "" {
		in.Type = models.NavMain
	}
	if err := inputval.RequireAll(inputval.Need("title", in.Title != "")); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := inputval.Validate(in).Err(); err != nil {
		h.fail(w, r, err)
		return
	}
	link, err := href(in.Href, in.Type)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	it := models.NavbarItem{
		Title:    in.Title,
		Href:     link,
		Type:     in.Type,
		Order:    in.Order,
		IsActive: in.IsActive == nil || *in.IsActive,
	}
	if in.ParentID != "" {
		pid, _ := primitive.ObjectIDFromHex(in.ParentID)
		if err := h.checkParent(ctx, nil, pid); err != nil {
			h.fail(w, r, err)
			return
		}
		it.ParentID = &pid
	}

	it, err = h.store.Create(ctx, it)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	h.audit.Content(r, audit.EventContentCreated, "navbar", it.ID.Hex())
	jsonutil.CreatedItem(w, "item", it)
}

// updateInput keeps parentId raw: absent leaves the parent alone, null or
// "" moves the item to the top level.
type updateInput struct {
	Title    *string         `json:"title"`
	Href     *string         `json:"href"`
	Type     *string         `json:"type"`
	ParentID json.RawMessage `json:"parentId"`
	Order    *int            `json:"order"`
	IsActive *bool           `json:"isActive"`
}

func (in *updateInput) parent() (pid *primitive.ObjectID, clear bool, err error) {
	if len(in.ParentID) == 0 {
		return nil, false, nil
	}
	if string(in.ParentID) == "null" {
		return nil, true, nil
	}
	var s string
	if err := json.Unmarshal(in.ParentID, &s); err != nil {
		return nil, false, apperr.Invalid("Invalid parent id", "parentId")
	}
	if s == "" {
		return nil, true, nil
	}
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, false, apperr.Invalid("Invalid parent id", "parentId")
	}
	return &oid, false, nil
}

// Update handles PUT /api/navbar/{id} (admin).
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
	pid, clearParent, err := in.parent()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	cur, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	upd := navbarstore.UpdateInput{Order: in.Order, IsActive: in.IsActive, ParentID: pid, ClearParent: clearParent}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if err := inputval.Length("title", "Title", t, 1, 100); err != nil {
			h.fail(w, r, err)
			return
		}
		upd.Title = &t
	}
	typ := cur.Type
	if in.Type != nil {
		typ = strings.ToLower(strings.TrimSpace(*in.Type))
		if !inputval.IsValidNavType(typ) {
			h.fail(w, r, apperr.Invalid("Type must be main, location or dropdown.", "type"))
			return
		}
		if cur.Type == models.NavDropdown && typ != models.NavDropdown {
			hasKids, err := h.store.HasChildren(ctx, id)
			if err != nil {
				h.fail(w, r, apperr.Internal(err))
				return
			}
			if hasKids {
				h.fail(w, r, apperr.Invalid("This item has children and must stay a dropdown", "type"))
				return
			}
		}
		upd.Type = &typ
	}
	if in.Href != nil || in.Type != nil {
		raw := cur.Href
		if in.Href != nil {
			raw = *in.Href
		}
		link, err := href(raw, typ)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		upd.Href = &link
	}
	if pid != nil {
		if err := h.checkParent(ctx, &id, *pid); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	it, err := h.store.Update(ctx, id, upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.audit.Content(r, audit.EventContentUpdated, "navbar", id.Hex())
	jsonutil.Item(w, "item", it, false)
}

// Delete handles DELETE /api/navbar/{id} (admin). Children move to the
// top level.
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
		h.fail(w, r, apperr.NotFound("Navbar item"))
		return
	}
	promoted, err := h.store.ClearParent(ctx, id)
	if err != nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	h.audit.Content(r, audit.EventContentDeleted, "navbar", id.Hex())
	jsonutil.OK(w, map[string]any{"message": "Navbar item deleted", "promoted": promoted})
}
