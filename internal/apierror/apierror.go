// Package apierror provides the error taxonomy of the service and the
// standardized response envelopes built from it. All errors returned to
// clients go through this package so internal details (DB errors, stack
// traces) never leak.
package apierror

import (
	"errors"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// FieldErrors wraps multiple field errors from request validation.
type FieldErrors struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewFieldErrors(fields map[string]string) *FieldErrors {
	return &FieldErrors{Detail: "Validation failed", Fields: fields}
}

// Kind classifies an error for the request boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateIdentity
	KindCredentialPolicy
	KindNotFound
	KindUnauthenticated
	KindForbidden
	KindStorageUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicateIdentity:
		return "duplicate_identity"
	case KindCredentialPolicy:
		return "credential_policy_violation"
	case KindNotFound:
		return "not_found"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindStorageUnavailable:
		return "storage_unavailable"
	default:
		return "internal"
	}
}

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindDuplicateIdentity, KindCredentialPolicy:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified, client-presentable error. Message is safe to show;
// Err (if any) is only for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, apierror.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation         = &Error{Kind: KindValidation, Message: "validation error"}
	ErrDuplicateIdentity  = &Error{Kind: KindDuplicateIdentity, Message: "duplicate identity"}
	ErrCredentialPolicy   = &Error{Kind: KindCredentialPolicy, Message: "credential policy violation"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "insufficient permissions"}
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable, Message: "storage unavailable"}
)

func Validation(msg string) *Error        { return &Error{Kind: KindValidation, Message: msg} }
func DuplicateIdentity(msg string) *Error { return &Error{Kind: KindDuplicateIdentity, Message: msg} }
func CredentialPolicy(msg string) *Error  { return &Error{Kind: KindCredentialPolicy, Message: msg} }
func NotFound(msg string) *Error          { return &Error{Kind: KindNotFound, Message: msg} }
func Unauthenticated(msg string) *Error   { return &Error{Kind: KindUnauthenticated, Message: msg} }
func Forbidden(msg string) *Error         { return &Error{Kind: KindForbidden, Message: msg} }

// StorageUnavailable wraps a store/driver failure.
func StorageUnavailable(err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Message: "storage unavailable", Err: err}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status returns the HTTP status for err.
func Status(err error) int {
	return KindOf(err).Status()
}

// Response builds the envelope for err. Server-side kinds get a generic
// message.
func Response(err error) *APIError {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal || e.Kind == KindStorageUnavailable {
		return New("Internal server error")
	}
	return New(e.Message)
}
