package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// DecodeJSON reads exactly one JSON value from the request body into dst.
// Malformed or empty bodies and trailing data yield a 400 BAD_REQUEST
// AppError; bodies cut off by BodyLimit yield 413.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return NewAppError("PAYLOAD_TOO_LARGE", "request entity too large", http.StatusRequestEntityTooLarge, err)
		case errors.Is(err, io.EOF):
			return NewAppError("BAD_REQUEST", "request body is empty", http.StatusBadRequest, err)
		default:
			return NewAppError("BAD_REQUEST", "invalid payload", http.StatusBadRequest, err)
		}
	}
	if dec.More() {
		return NewAppError("BAD_REQUEST", "unexpected data after JSON payload", http.StatusBadRequest, nil)
	}
	return nil
}
