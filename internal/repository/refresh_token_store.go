package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRefreshTokenNotFound is returned for unknown, expired or revoked refresh tokens.
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// RefreshTokenStore keeps long-running refresh tokens.
type RefreshTokenStore interface {
	Issue(ctx context.Context, accountID int64, ttl time.Duration) (string, time.Time, error)
	Consume(ctx context.Context, token string) (int64, error)
	RevokeAll(ctx context.Context, accountID int64) error
}

type redisRefreshTokenStore struct {
	client *redis.Client
	prefix string
}

// NewRedisRefreshTokenStore stores tokens under prefix (e.g. "support").
func NewRedisRefreshTokenStore(client *redis.Client, prefix string) RefreshTokenStore {
	return &redisRefreshTokenStore{client: client, prefix: prefix}
}

func (s *redisRefreshTokenStore) tokenKey(token string) string {
	return fmt.Sprintf("%s:refresh_token:%s", s.prefix, token)
}

func (s *redisRefreshTokenStore) accountKey(accountID int64) string {
	return fmt.Sprintf("%s:refresh_tokens:account:%d", s.prefix, accountID)
}

func (s *redisRefreshTokenStore) Issue(ctx context.Context, accountID int64, ttl time.Duration) (string, time.Time, error) {
	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	expiresAt := time.Now().Add(ttl)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.tokenKey(token), accountID, ttl)
	pipe.SAdd(ctx, s.accountKey(accountID), token)
	pipe.Expire(ctx, s.accountKey(accountID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Consume atomically removes the token and returns its account.
func (s *redisRefreshTokenStore) Consume(ctx context.Context, token string) (int64, error) {
	val, err := s.client.GetDel(ctx, s.tokenKey(token)).Result()
	accountID, err := s.parseAccountID(val, err)
	if err != nil {
		return 0, err
	}
	if err := s.client.SRem(ctx, s.accountKey(accountID), token).Err(); err != nil {
		return 0, err
	}
	return accountID, nil
}

func (s *redisRefreshTokenStore) RevokeAll(ctx context.Context, accountID int64) error {
	tokens, err := s.client.SMembers(ctx, s.accountKey(accountID)).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, s.tokenKey(token))
	}
	keys = append(keys, s.accountKey(accountID))
	return s.client.Del(ctx, keys...).Err()
}

func (s *redisRefreshTokenStore) parseAccountID(val string, err error) (int64, error) {
	if errors.Is(err, redis.Nil) {
		return 0, ErrRefreshTokenNotFound
	}
	if err != nil {
		return 0, err
	}
	accountID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt refresh token entry: %w", err)
	}
	return accountID, nil
}
