package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-accounts/internal/domain"
)

// notFound translates pgx's empty result into the domain sentinel.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
