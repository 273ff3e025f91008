package apperror

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind classifies an error into the platform's taxonomy. Every kind
// maps to exactly one HTTP status code at the boundary.
type Kind int

const (
	Validation      Kind = iota // missing or malformed fields
	Unauthenticated             // missing or invalid token, bad credentials
	Unauthorized                // role or ownership check failed
	NotFound                    // entity absent or outside tenant scope
	Conflict                    // uniqueness violation
	Dependency                  // database unreachable
	Internal                    // unexpected
)

// Status maps the kind to its HTTP status code
func (k Kind) Status() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Unauthorized:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Dependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// String returns the taxonomy name of the kind
func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Unauthenticated:
		return "unauthenticated"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Dependency:
		return "dependency"
	default:
		return "internal"
	}
}

// Error is a classified application error. Message is safe to return to
// the caller; the wrapped cause is only ever logged server-side.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error with a caller-facing message
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies an underlying error with a caller-facing message
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// pgUniqueViolation is the SQLSTATE for unique constraint violations
const pgUniqueViolation = "23505"

// FromDB maps a database error to the nearest taxonomy kind.
// notFoundMsg is used when the row does not exist; conflictMsg when a
// uniqueness constraint fired.
func FromDB(err error, notFoundMsg, conflictMsg string) *Error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return New(NotFound, notFoundMsg)
	case isUniqueViolation(err):
		return New(Conflict, conflictMsg)
	default:
		return Wrap(Internal, "internal server error", err)
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// AsError extracts a classified error, returning nil when err is not one
func AsError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
