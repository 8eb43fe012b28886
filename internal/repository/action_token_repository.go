package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-accounts/internal/domain"
)

// ActionTokenRepository manages single-use account tokens
// (activation, password reset, secondary email).
type ActionTokenRepository interface {
	Create(ctx context.Context, token *domain.ActionToken) error
	GetByToken(ctx context.Context, token string) (*domain.ActionToken, error)
	MarkUsed(ctx context.Context, id int64) error
}

type actionTokenRepository struct {
	pool *pgxpool.Pool
}

// NewActionTokenRepository constructs repository.
func NewActionTokenRepository(pool *pgxpool.Pool) ActionTokenRepository {
	return &actionTokenRepository{pool: pool}
}

func (r *actionTokenRepository) Create(ctx context.Context, token *domain.ActionToken) error {
	const query = `
        INSERT INTO account_action_tokens (account_id, purpose, token, email, expires_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		token.AccountID,
		token.Purpose,
		token.Token,
		token.Email,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *actionTokenRepository) GetByToken(ctx context.Context, tokenStr string) (*domain.ActionToken, error) {
	const query = `
        SELECT id, account_id, purpose, token, email, expires_at, used_at, created_at
        FROM account_action_tokens WHERE token=$1`
	var token domain.ActionToken
	if err := conn(ctx, r.pool).QueryRow(ctx, query, tokenStr).Scan(
		&token.ID,
		&token.AccountID,
		&token.Purpose,
		&token.Token,
		&token.Email,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

// MarkUsed consumes the token; a second call reports ErrNotFound.
func (r *actionTokenRepository) MarkUsed(ctx context.Context, id int64) error {
	const query = `
        UPDATE account_action_tokens SET used_at=NOW()
        WHERE id=$1 AND used_at IS NULL`
	cmd, err := conn(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
