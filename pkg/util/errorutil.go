package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/support-accounts/internal/domain"
)

const (
	CodeValidation      = "VALIDATION_FAILED"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeInternal        = "INTERNAL_ERROR"
	pgUniqueViolation   = "23505"
	pgNotNullViolation  = "23502"
	pgForeignKeyViolate = "23503"
)

// NotFoundMessage is the single message shown for absent or hidden objects.
const NotFoundMessage = "Object not found"

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Extensions exposes the error code to GraphQL clients.
func (e *DomainError) Extensions() map[string]any {
	ext := map[string]any{"code": e.Code}
	if len(e.Details) > 0 {
		ext["details"] = e.Details
	}
	return ext
}

// FieldMessages returns Details as sorted field/message pairs.
func (e *DomainError) FieldMessages() [][2]string {
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, fmt.Sprint(e.Details[k])})
	}
	return out
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewFieldError is a validation error for a single field.
func NewFieldError(field, message string) error {
	return NewValidationError(message, map[string]any{field: message})
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsUniqueViolation reports whether err is a Postgres unique violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrForbidden):
		return &DomainError{Code: CodeNotFound, Message: NotFoundMessage, HTTPStatus: http.StatusNotFound, Err: err}
	case errors.Is(err, domain.ErrUnauthenticated):
		return &DomainError{Code: CodeUnauthorized, Message: err.Error(), HTTPStatus: http.StatusUnauthorized, Err: err}
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, pgx.ErrNoRows):
		return &DomainError{Code: CodeNotFound, Message: NotFoundMessage, HTTPStatus: http.StatusNotFound, Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			field := fieldFromConstraint(pgErr.TableName, pgErr.ConstraintName)
			return &DomainError{
				Code:       CodeConflict,
				Message:    fmt.Sprintf("%s already exists", field),
				HTTPStatus: http.StatusConflict,
				Details:    map[string]any{field: "already exists"},
				Err:        err,
			}
		case pgNotNullViolation:
			return &DomainError{
				Code:       CodeValidation,
				Message:    fmt.Sprintf("%s is required", pgErr.ColumnName),
				HTTPStatus: http.StatusBadRequest,
				Details:    map[string]any{pgErr.ColumnName: "is required"},
				Err:        err,
			}
		case pgForeignKeyViolate:
			return &DomainError{Code: CodeValidation, Message: "referenced object does not exist", HTTPStatus: http.StatusBadRequest, Err: err}
		}
	}

	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// fieldFromConstraint turns "accounts_phone_number_key" into "phone_number".
func fieldFromConstraint(table, constraint string) string {
	field := strings.TrimSuffix(constraint, "_key")
	if table != "" {
		field = strings.TrimPrefix(field, table+"_")
	} else if _, rest, ok := strings.Cut(field, "_"); ok {
		field = rest
	}
	if field == "" {
		return "value"
	}
	return field
}
