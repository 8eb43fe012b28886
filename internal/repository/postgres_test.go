package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-accounts/internal/domain"
	"github.com/spec-kit/support-accounts/internal/persistence"
	apperrors "github.com/spec-kit/support-accounts/pkg/util"
)

// testPool connects to TEST_POSTGRES_DSN, migrates, and empties every table.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
	_, err = pool.Exec(ctx, `TRUNCATE accounts, account_action_tokens, tickets, ticket_answers, coupons RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

func newAccount(n int) *domain.Account {
	return &domain.Account{
		Username:     fmt.Sprintf("user%d", n),
		Email:        fmt.Sprintf("User%d@Example.com", n),
		PasswordHash: "hash",
		IsActive:     true,
		PhoneNumber:  fmt.Sprintf("+1555000%04d", n),
		State:        "CA",
		City:         "San Francisco",
		Address:      "1 Market St",
		ZipCode:      "94105",
	}
}

func TestAccountRepositoryPostgres(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewAccountRepository(pool)

	alice := newAccount(1)
	require.NoError(t, repo.Create(ctx, alice))
	assert.NotZero(t, alice.ID)
	assert.False(t, alice.DateJoined.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "USER1@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)
	assert.Equal(t, "user1@example.com", byEmail.Email)

	t.Run("phone number is unique", func(t *testing.T) {
		dup := newAccount(2)
		dup.PhoneNumber = alice.PhoneNumber
		err := repo.Create(ctx, dup)
		require.Error(t, err)
		require.True(t, apperrors.IsUniqueViolation(err))
		assert.Contains(t, apperrors.ToDomainError(err).Details, "phone_number")
	})

	t.Run("update and secondary email", func(t *testing.T) {
		secondary := "alt@example.com"
		alice.SecondaryEmail = &secondary
		alice.Verified = true
		require.NoError(t, repo.Update(ctx, alice))

		inUse, err := repo.EmailInUse(ctx, "ALT@example.com")
		require.NoError(t, err)
		assert.True(t, inUse)

		loaded, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.True(t, loaded.Verified)
		require.NotNil(t, loaded.SecondaryEmail)
	})

	t.Run("missing rows map to ErrNotFound", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 999999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, 999999), domain.ErrNotFound)
	})
}

func TestTicketRepositoriesPostgres(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	accounts := NewAccountRepository(pool)
	tickets := NewTicketRepository(pool)
	answers := NewTicketAnswerRepository(pool)

	alice, bob := newAccount(1), newAccount(2)
	require.NoError(t, accounts.Create(ctx, alice))
	require.NoError(t, accounts.Create(ctx, bob))

	first := &domain.Ticket{OwnerID: alice.ID, Title: "Login issue", UserText: "Cannot log in"}
	second := &domain.Ticket{OwnerID: alice.ID, Title: "Billing", UserText: "Charged twice"}
	other := &domain.Ticket{OwnerID: bob.ID, Title: "Bob's", UserText: "Hi"}
	for _, ticket := range []*domain.Ticket{first, second, other} {
		require.NoError(t, tickets.Create(ctx, ticket))
	}

	list, err := tickets.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	created := first.CreatedAt
	first.Title = "Login issue (urgent)"
	first.OwnerID = bob.ID
	require.NoError(t, tickets.Update(ctx, first))
	assert.Equal(t, alice.ID, first.OwnerID)
	assert.True(t, created.Equal(first.CreatedAt))

	_, err = answers.GetLatestByTicket(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, answers.Create(ctx, &domain.TicketAnswer{TicketID: first.ID, Answer: "Try again"}))
	latest := &domain.TicketAnswer{TicketID: first.ID, Answer: "Reset your password"}
	require.NoError(t, answers.Create(ctx, latest))
	got, err := answers.GetLatestByTicket(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, got.ID)

	// Deleting the owner removes its tickets and their answers.
	require.NoError(t, accounts.Delete(ctx, alice.ID))
	_, err = tickets.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = answers.GetLatestByTicket(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = tickets.GetByID(ctx, other.ID)
	assert.NoError(t, err)
}

func TestCouponRepositoryPostgres(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewCouponRepository(pool)

	coupon := &domain.Coupon{Title: "Spring", DiscountPrice: 10, EndAt: time.Now().Add(24 * time.Hour)}
	require.NoError(t, repo.Create(ctx, coupon))
	assert.NotEqual(t, uuid.Nil, coupon.Code)
	assert.False(t, coupon.IsActive)

	dup := &domain.Coupon{Title: "Copy", Code: coupon.Code, DiscountPrice: 5, EndAt: coupon.EndAt}
	err := repo.Create(ctx, dup)
	require.True(t, apperrors.IsUniqueViolation(err))

	activated, err := repo.SetActive(ctx, coupon.ID, true)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)
	assert.True(t, activated.Redeemable(time.Now()))

	byCode, err := repo.GetByCode(ctx, coupon.Code)
	require.NoError(t, err)
	assert.Equal(t, coupon.ID, byCode.ID)

	_, err = repo.SetActive(ctx, 999999, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestActionTokenRepositoryPostgres(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	accounts := NewAccountRepository(pool)
	tokens := NewActionTokenRepository(pool)

	alice := newAccount(1)
	require.NoError(t, accounts.Create(ctx, alice))

	token := &domain.ActionToken{
		AccountID: alice.ID,
		Purpose:   domain.ActionActivation,
		Token:     "abc123",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, tokens.Create(ctx, token))

	loaded, err := tokens.GetByToken(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, loaded.Usable(domain.ActionActivation, time.Now()))
	assert.False(t, loaded.Usable(domain.ActionPasswordReset, time.Now()))

	require.NoError(t, tokens.MarkUsed(ctx, token.ID))
	assert.ErrorIs(t, tokens.MarkUsed(ctx, token.ID), domain.ErrNotFound)

	_, err = tokens.GetByToken(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransactorPostgres(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	tx := NewTransactor(pool)
	accounts := NewAccountRepository(pool)
	actions := NewActionTokenRepository(pool)

	t.Run("rolls back on error", func(t *testing.T) {
		failure := fmt.Errorf("token insert failed")
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, accounts.Create(ctx, newAccount(10)))
			return failure
		})
		require.ErrorIs(t, err, failure)
		_, err = accounts.GetByUsername(ctx, "user10")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("commits every write", func(t *testing.T) {
		account := newAccount(11)
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := accounts.Create(ctx, account); err != nil {
				return err
			}
			return actions.Create(ctx, &domain.ActionToken{
				AccountID: account.ID,
				Purpose:   domain.ActionActivation,
				Token:     "tx-token",
				ExpiresAt: time.Now().Add(time.Hour),
			})
		})
		require.NoError(t, err)
		token, err := actions.GetByToken(ctx, "tx-token")
		require.NoError(t, err)
		assert.Equal(t, account.ID, token.AccountID)
	})
}
