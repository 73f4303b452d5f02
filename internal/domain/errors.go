package domain

import (
	"errors"
)

// Error kinds. Every error returned to a caller is classified into one of
// these, or into KindInternal when nothing matches.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrAlreadyProcessed = errors.New("already processed")
)

// Entry errors
var (
	ErrEntryNotFound       = newKindError(ErrNotFound, "ledger entry not found")
	ErrEntryAlreadyHandled = newKindError(ErrAlreadyProcessed, "ledger entry has already been processed")
)

// Input errors
var (
	ErrInvalidDecision = newKindError(ErrValidation, "decision must be approve or reject")
	ErrInvalidStatus   = newKindError(ErrValidation, "status must be PENDING, APPROVED or REJECTED")
	ErrInvalidRole     = newKindError(ErrValidation, "role must be ADMIN or USER")
	ErrInvalidDate     = newKindError(ErrValidation, "dates must use the YYYY-MM-DD format")
)

// Actor errors
var (
	ErrActorNotFound     = newKindError(ErrNotFound, "actor not found")
	ErrDuplicateUsername = newKindError(ErrValidation, "username is already taken")
	ErrUsernameRequired  = newKindError(ErrValidation, "username is required")
	ErrGroupRequired     = newKindError(ErrValidation, "a USER actor must belong to a group")
	ErrGroupNotAllowed   = newKindError(ErrValidation, "an ADMIN actor has no group")
)

// Authorization errors
var (
	ErrMissingActor  = newKindError(ErrUnauthorized, "no authenticated actor")
	ErrAdminRequired = newKindError(ErrUnauthorized, "operation requires the ADMIN role")
	ErrUnknownRole   = newKindError(ErrUnauthorized, "actor has an unknown role")
)

// ErrorKind is the caller-facing classification of an error.
type ErrorKind string

const (
	KindUnauthorized     ErrorKind = "Unauthorized"
	KindNotFound         ErrorKind = "NotFound"
	KindValidation       ErrorKind = "ValidationError"
	KindAlreadyProcessed ErrorKind = "AlreadyProcessed"
	KindInternal         ErrorKind = "InternalError"
)

// KindOf classifies err. Store failures and anything else unrecognised are
// KindInternal and must not be shown to callers verbatim.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrAlreadyProcessed):
		return KindAlreadyProcessed
	default:
		return KindInternal
	}
}

// ValidationError builds a validation error with a caller-facing message.
func ValidationError(msg string) error {
	return newKindError(ErrValidation, msg)
}

type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }
