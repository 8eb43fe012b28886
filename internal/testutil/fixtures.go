package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-accounts/internal/auth"
	"github.com/spec-kit/support-accounts/internal/domain"
)

// DefaultPassword is the plaintext password of seeded accounts.
const DefaultPassword = "correct-horse-battery"

// SeedAccount stores a verified, active account with unique credentials.
// Options adjust it before it is saved.
func (s *Store) SeedAccount(t testing.TB, opts ...func(*domain.Account)) *domain.Account {
	t.Helper()
	s.mu.Lock()
	n := len(s.account) + 1
	s.mu.Unlock()

	hash, err := auth.HashPassword(DefaultPassword, 4)
	require.NoError(t, err)

	account := &domain.Account{
		Username:     fmt.Sprintf("user%d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: hash,
		IsActive:     true,
		Verified:     true,
		PhoneNumber:  fmt.Sprintf("+1555000%04d", n),
		State:        "CA",
		City:         "San Francisco",
		Address:      "1 Market St",
		ZipCode:      "94105",
	}
	for _, opt := range opts {
		opt(account)
	}
	require.NoError(t, s.Accounts().Create(context.Background(), account))
	return account
}

// Inactive marks a seeded account inactive.
func Inactive(a *domain.Account) { a.IsActive = false }

// Unverified marks a seeded account unverified.
func Unverified(a *domain.Account) { a.Verified = false }

// Supporter gives a seeded account the supporter role.
func Supporter(a *domain.Account) { a.IsSupporter = true }

// Staff gives a seeded account the staff role.
func Staff(a *domain.Account) { a.IsStaff = true }
