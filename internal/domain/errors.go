package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidURL   = errors.New("invalid URL")
	ErrTransport    = errors.New("transport error")
	ErrServer       = errors.New("server error")
	ErrDecoding     = errors.New("decoding error")
	ErrFileNotFound = errors.New("file not found")
	ErrParseFailure = errors.New("parse failure")
)

// ServerError carries the status code of a non-2xx response.
type ServerError struct {
	Code int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d)", e.Code)
}

func (e *ServerError) Is(target error) bool {
	return target == ErrServer
}

// Kind names the taxonomy member of err, or "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidURL):
		return "invalid_url"
	case errors.Is(err, ErrServer):
		return "server_error"
	case errors.Is(err, ErrDecoding):
		return "decoding_error"
	case errors.Is(err, ErrFileNotFound):
		return "file_not_found"
	case errors.Is(err, ErrParseFailure):
		return "parse_failure"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, ErrTransport):
		return "transport_error"
	default:
		return "unknown"
	}
}
