// Package response renders the envelope every HTTP endpoint returns (§6.2):
// {success, data?, error?, meta}. The split between a success.go and
// error.go half mirrors the teacher's own response package; the envelope
// shape itself is new.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Meta carries response metadata required by every envelope.
type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestID,omitempty"`
}

// Envelope is the top-level shape of every HTTP response body.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

// Pagination describes a page of results, nested inside Data for list
// endpoints that support it (§6.2's GET /api/jobs).
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalCount int `json:"totalCount"`
}

// PagedData wraps a slice of items with its pagination envelope.
type PagedData struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

func meta(r *http.Request) Meta {
	m := Meta{Timestamp: time.Now().UTC().Format(time.RFC3339)}
	if r != nil {
		m.RequestID = middleware.GetReqID(r.Context())
	}
	return m
}

func write(w http.ResponseWriter, r *http.Request, statusCode int, env Envelope) {
	env.Meta = meta(r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("response: failed to encode envelope", "error", err)
	}
}

// OK sends a 200 with data as the success payload.
func OK(w http.ResponseWriter, r *http.Request, data interface{}) {
	write(w, r, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created sends a 201 with data as the success payload.
func Created(w http.ResponseWriter, r *http.Request, data interface{}) {
	write(w, r, http.StatusCreated, Envelope{Success: true, Data: data})
}

// NoContent sends a 204 with an empty success envelope.
func NoContent(w http.ResponseWriter, r *http.Request) {
	write(w, r, http.StatusNoContent, Envelope{Success: true})
}
