package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

var (
	// ErrEmptyInput is returned when user_info is missing or blank.
	ErrEmptyInput = errors.New("user_info is required")
	// ErrInputTooLong is returned when user_info exceeds the configured bound.
	ErrInputTooLong = errors.New("user_info is too long")
	// ErrMalformedRequest wraps body decoding failures.
	ErrMalformedRequest = errors.New("malformed request body")
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps an error to the HTTP status returned to the client.
func statusFor(err error) int {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, ErrEmptyInput),
		errors.Is(err, ErrInputTooLong),
		errors.Is(err, ErrMalformedRequest),
		errors.Is(err, io.EOF),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// safeMessage returns text that is safe to show a client for err.
func safeMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyInput):
		return ErrEmptyInput.Error()
	case errors.Is(err, ErrInputTooLong):
		return ErrInputTooLong.Error()
	case statusFor(err) == http.StatusBadRequest:
		return "Invalid request body"
	default:
		return "An unexpected error occurred"
	}
}
