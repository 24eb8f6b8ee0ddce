package common

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of every API response: data (plus pagination for
// lists) on success, error otherwise. Clients decode it with a concrete T.
type Envelope[T any] struct {
	Data       T           `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody is the error half of Envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v as the response body.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data renders {"data": v}.
func Data(w http.ResponseWriter, status int, v any) {
	JSON(w, status, Envelope[any]{Data: v})
}

// List renders a 200 page of items with its pagination block.
func List(w http.ResponseWriter, items any, page Pagination) {
	JSON(w, http.StatusOK, Envelope[any]{Data: items, Pagination: &page})
}

// JSONError renders {"error": {...}}.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, Envelope[any]{Error: &ErrorBody{Code: code, Message: message, Details: details}})
}
