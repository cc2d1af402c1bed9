// internal/app/system/apperr/apperr.go
// Package apperr defines the closed set of denial kinds raised by
// validators, resolvers and policies, and maps them to HTTP status
// codes exactly once, at the transport edge.
//
// Kinds:
//   - Unauthenticated: missing/invalid/expired token; rejected before
//     any permission or tenant logic runs.
//   - Forbidden: entity exists but belongs to another matrix, or the
//     requester lacks the authority for the operation.
//   - NotFound: the referenced entity does not exist at all
//     (distinguished from Forbidden so callers can tell "doesn't
//     exist" from "exists but not yours").
//   - PreconditionFailed: a domain guard rejected the operation
//     (célula with attached members, rank at or above the assigner's).
//   - Invalid: malformed input.
//   - RateLimited: too many attempts from one client in a window.
//
// Anything else propagates as a generic internal failure.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Kind classifies a denial.
type Kind int

const (
	Internal Kind = iota
	Unauthenticated
	Forbidden
	NotFound
	PreconditionFailed
	Invalid
	RateLimited
)

// Error is a denial with a kind and a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a denial of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a denial.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Unauthenticatedf and friends are printf-style shorthands for the
// common kinds.
func Unauthenticatedf(format string, args ...any) *Error {
	return New(Unauthenticated, fmt.Sprintf(format, args...))
}

func Forbiddenf(format string, args ...any) *Error {
	return New(Forbidden, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}

func Preconditionf(format string, args ...any) *Error {
	return New(PreconditionFailed, fmt.Sprintf(format, args...))
}

func Invalidf(format string, args ...any) *Error {
	return New(Invalid, fmt.Sprintf(format, args...))
}

func RateLimitedf(format string, args ...any) *Error {
	return New(RateLimited, fmt.Sprintf(format, args...))
}

// KindOf extracts the kind from an error chain. Non-apperr errors are
// Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsNotFound reports whether err is a NotFound denial.
func IsNotFound(err error) bool { return KindOf(err) == NotFound }

// IsForbidden reports whether err is a Forbidden denial.
func IsForbidden(err error) bool { return KindOf(err) == Forbidden }

// statusFor maps kinds to HTTP status codes. This is the single place
// in the repository where the mapping happens.
func statusFor(kind Kind) int {
	switch kind {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case PreconditionFailed:
		return http.StatusPreconditionFailed
	case Invalid:
		return http.StatusBadRequest
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// Render writes err as a JSON error response. Denials keep their
// message; internal errors are logged and masked with a generic body
// so persistence details never reach clients.
func Render(w http.ResponseWriter, err error, log *zap.Logger) {
	kind := KindOf(err)
	status := statusFor(kind)

	body := errorBody{Error: err.Error()}
	if kind == Internal {
		if log != nil {
			log.Error("internal error", zap.Error(err))
		}
		body.Error = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
