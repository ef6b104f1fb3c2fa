// Package uploads serves POST /api/uploads, where admins upload the images
// used by news, videos and products.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dalemusser/noorhub/internal/app/store/audit"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/auditlog"
	"github.com/dalemusser/noorhub/internal/app/system/authz"
	"github.com/dalemusser/noorhub/internal/app/system/jsonutil"
	"github.com/dalemusser/noorhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 5 << 20

// formOverhead leaves room for multipart headers around the file part.
const formOverhead = 64 << 10

// imageTypes maps the sniffed content types we accept to file extensions.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Handler struct {
	files storage.Store
	audit *auditlog.Logger
	log   *zap.Logger
	now   func() time.Time
}

func NewHandler(files storage.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{files: files, audit: audit, log: logger, now: time.Now}
}

// Upload handles POST /api/uploads (multipart field "file").
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, err := authz.RequireAdmin(r); err != nil {
		jsonutil.Fail(w, r, h.log, err)
		return
	}
	if h.files == nil {
		jsonutil.Fail(w, r, h.log, apperr.NotConfigured("File storage is not configured", nil))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxImageSize+formOverhead)
	if err := r.ParseMultipartForm(MaxImageSize + formOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonutil.Fail(w, r, h.log, apperr.BadRequest("Image must be 5 MB or smaller"))
			return
		}
		jsonutil.Fail(w, r, h.log, apperr.BadRequest("Invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonutil.Fail(w, r, h.log, apperr.MissingFields("file"))
		return
	}
	defer file.Close()
	if header.Size > MaxImageSize {
		jsonutil.Fail(w, r, h.log, apperr.BadRequest("Image must be 5 MB or smaller"))
		return
	}

	// The declared Content-Type is not trusted; sniff the bytes.
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		jsonutil.Fail(w, r, h.log, apperr.Internal(err))
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	ext, ok := imageTypes[contentType]
	if !ok {
		jsonutil.Fail(w, r, h.log, apperr.BadRequest("Only JPEG, PNG, GIF and WebP images are allowed"))
		return
	}

	now := h.now().UTC()
	path := fmt.Sprintf("uploads/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	body := io.MultiReader(bytes.NewReader(head), file)
	if err := h.files.Put(ctx, path, body, &storage.PutOptions{ContentType: contentType}); err != nil {
		jsonutil.Fail(w, r, h.log, apperr.Internal(err))
		return
	}

	h.audit.Content(r, audit.EventContentCreated, "uploads", path)
	jsonutil.Created(w, map[string]any{
		"url":         h.files.URL(path),
		"path":        path,
		"contentType": contentType,
		"size":        header.Size,
	})
}
