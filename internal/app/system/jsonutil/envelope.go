package jsonutil

import (
	"net/http"

	"github.com/dalemusser/noorhub/internal/app/system/pagination"
)

// List writes {key: items, "pagination": meta} and adds "demoMode": true
// when the items came from fallback data.
func List(w http.ResponseWriter, key string, items any, meta pagination.Meta, demo bool) {
	body := map[string]any{key: items, "pagination": meta}
	if demo {
		body["demoMode"] = true
	}
	OK(w, body)
}

// Item writes {key: item} with the same demoMode annotation.
func Item(w http.ResponseWriter, key string, item any, demo bool) {
	body := map[string]any{key: item}
	if demo {
		body["demoMode"] = true
	}
	OK(w, body)
}

// CreatedItem writes {key: item} with 201.
func CreatedItem(w http.ResponseWriter, key string, item any) {
	Created(w, map[string]any{key: item})
}

// Message writes {"message": msg} with 200.
func Message(w http.ResponseWriter, msg string) {
	OK(w, map[string]string{"message": msg})
}
