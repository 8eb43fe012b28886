package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-accounts/internal/domain"
)

func TestToDomainErrorCollapsesHiddenObjects(t *testing.T) {
	for _, err := range []error{
		domain.ErrNotFound,
		domain.ErrForbidden,
		fmt.Errorf("load ticket: %w", domain.ErrForbidden),
		pgx.ErrNoRows,
	} {
		de := ToDomainError(err)
		assert.Equal(t, CodeNotFound, de.Code, err.Error())
		assert.Equal(t, NotFoundMessage, de.Message)
		assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
	}
}

func TestToDomainErrorUnauthenticated(t *testing.T) {
	de := ToDomainError(domain.ErrUnauthenticated)
	assert.Equal(t, CodeUnauthorized, de.Code)
	assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
}

func TestToDomainErrorUniqueViolation(t *testing.T) {
	tests := []struct {
		name  string
		err   *pgconn.PgError
		field string
	}{
		{"with table", &pgconn.PgError{Code: "23505", TableName: "accounts", ConstraintName: "accounts_phone_number_key"}, "phone_number"},
		{"without table", &pgconn.PgError{Code: "23505", ConstraintName: "coupons_code_key"}, "code"},
		{"unnamed", &pgconn.PgError{Code: "23505"}, "value"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("insert: %w", tc.err)
			require.True(t, IsUniqueViolation(wrapped))

			de := ToDomainError(wrapped)
			assert.Equal(t, CodeConflict, de.Code)
			assert.Equal(t, http.StatusConflict, de.HTTPStatus)
			assert.Contains(t, de.Details, tc.field)
			assert.ErrorIs(t, de, tc.err)
		})
	}
}

func TestToDomainErrorPassesDomainErrorsThrough(t *testing.T) {
	original := NewFieldError("title", "This field is required.")
	de := ToDomainError(fmt.Errorf("wrapped: %w", original))
	assert.Same(t, original, de)
	assert.Equal(t, CodeValidation, de.Code)
}

func TestToDomainErrorDefaultsToInternal(t *testing.T) {
	cause := errors.New("connection reset")
	de := ToDomainError(cause)
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.ErrorIs(t, de, cause)
	assert.Nil(t, ToDomainError(nil))
}

func TestDomainErrorExtensionsAndFieldMessages(t *testing.T) {
	err := NewValidationError("bad input", map[string]any{
		"zipCode": "This field is required.",
		"city":    "This field is required.",
	})
	var de *DomainError
	require.ErrorAs(t, err, &de)

	ext := de.Extensions()
	assert.Equal(t, CodeValidation, ext["code"])
	assert.Len(t, ext["details"], 2)

	pairs := de.FieldMessages()
	require.Len(t, pairs, 2)
	assert.Equal(t, "city", pairs[0][0])
	assert.Equal(t, "zipCode", pairs[1][0])

	bare := NewForbidden("staff only").(*DomainError)
	assert.NotContains(t, bare.Extensions(), "details")
}
