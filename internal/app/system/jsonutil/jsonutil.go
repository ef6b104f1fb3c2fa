// Package jsonutil provides helper functions for JSON API responses.
//
// Every handler in the API writes through these helpers so that status
// codes, Content-Type and the {"error": ...} body shape stay uniform.
package jsonutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"go.uber.org/zap"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// OK writes a 200 OK JSON response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created JSON response.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// NoContent writes a 204 No Content response (no body).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes {"error": message} with the given status code.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Fail writes err as an API error. Unclassified errors become a generic
// 500; their cause, like any 5xx cause, is logged and never returned.
func Fail(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	ae := apperr.As(err)
	status := ae.Status()

	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("kind", string(ae.Kind)),
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Int("status", status),
			zap.Error(ae.Cause),
		)
	}

	body := map[string]any{"error": ae.Message}
	if len(ae.Fields) > 0 {
		body["fields"] = ae.Fields
	}
	JSON(w, status, body)
}

// Decode reads and decodes JSON from the request body into v.
func Decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// DecodeBody decodes a size-limited JSON body into v and reports failures
// as a 400.
func DecodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.BadRequest("Request body is required")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.BadRequest("Request body too large")
		}
		return apperr.BadRequest("Invalid JSON payload")
	}
	return nil
}
