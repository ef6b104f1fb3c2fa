// Package urlparam reads route and query parameters for the JSON API,
// turning malformed values into 400s.
package urlparam

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectID parses the chi route parameter name as an ObjectID.
func ObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.BadRequest("Invalid id")
	}
	return id, nil
}

// Int parses the chi route parameter name as a decimal integer.
func Int(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, apperr.BadRequest("Invalid " + name)
	}
	return n, nil
}

// String returns the trimmed query value for key.
func String(r *http.Request, key string) string {
	return strings.TrimSpace(query.Get(r, key))
}

// Bool returns a pointer to the query value for key when it is "true" or
// "false", and nil when absent or anything else.
func Bool(r *http.Request, key string) *bool {
	switch strings.ToLower(String(r, key)) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	default:
		return nil
	}
}
