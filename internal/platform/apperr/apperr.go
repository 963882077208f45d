// Package apperr defines the error taxonomy shared by all domain services
// and the echo error handler that renders it. Services return *Error values;
// handlers pass them through unchanged and the central handler maps each kind
// to its HTTP status and the stable {"error": "..."} body.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Kind classifies an error for HTTP mapping and client retry semantics.
type Kind int

const (
	// KindValidation is a missing or malformed required field. Terminal.
	KindValidation Kind = iota
	// KindNotFound means a referenced entity id did not resolve. Terminal.
	KindNotFound
	// KindUnavailable means a capacity precondition failed (no beds left).
	// Terminal for this request but retryable against another resource.
	KindUnavailable
	// KindConflict is a concurrent-modification race or lock timeout.
	// Client-retryable as-is.
	KindConflict
	// KindStateMismatch is a lifecycle precondition failure, e.g. discharging
	// a patient who is not admitted.
	KindStateMismatch
	// KindInternal is an unexpected persistence or infrastructure failure.
	KindInternal
)

// Error carries a kind and a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func Unavailable(format string, args ...interface{}) *Error {
	return New(KindUnavailable, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

func StateMismatch(format string, args ...interface{}) *Error {
	return New(KindStateMismatch, format, args...)
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf extracts the kind from an error chain. Unclassified errors are
// internal; pgx.ErrNoRows anywhere in the chain is a not-found.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return KindNotFound
	}
	return KindInternal
}

// IsNotFound reports whether err resolves to a not-found kind.
func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

// StatusOf maps a kind to its HTTP status code.
func StatusOf(kind Kind) int {
	switch kind {
	case KindValidation, KindUnavailable, KindStateMismatch:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler returns an echo error handler rendering the taxonomy as
// {"error": "<message>"}. Internal errors are logged with their cause and the
// cause is never echoed to the client.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		var ae *Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = StatusOf(ae.Kind)
			message = ae.Message
			if ae.Kind == KindInternal {
				message = "internal server error"
			}
		case errors.As(err, &he):
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(he.Code)
			}
		case errors.Is(err, pgx.ErrNoRows):
			status = http.StatusNotFound
			message = "not found"
		}

		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, map[string]string{"error": message})
	}
}
