package common

import (
	"errors"
	"net/http"
)

// AppError carries the API error code and status a handler should render.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// NotFound reports a missing product, category or order as 404 NOT_FOUND.
func NotFound(what string, err error) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: what + " not found", HTTPStatus: http.StatusNotFound, Err: err}
}

// WriteAppError renders err when it carries an AppError and reports whether it did.
func WriteAppError(w http.ResponseWriter, err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
	return true
}

// WriteError renders an AppError, or a 500 INTERNAL carrying message for
// anything else. Internal causes never reach the client.
func WriteError(w http.ResponseWriter, err error, message string) {
	if WriteAppError(w, err) {
		return
	}
	JSONError(w, http.StatusInternalServerError, "INTERNAL", message, nil)
}
