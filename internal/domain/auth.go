package domain

import "time"

// ActionPurpose scopes a one-time account token to a single flow.
type ActionPurpose string

const (
	ActionActivation     ActionPurpose = "ACTIVATION"
	ActionPasswordReset  ActionPurpose = "PASSWORD_RESET"
	ActionSecondaryEmail ActionPurpose = "SECONDARY_EMAIL"
)

// ActionToken is a single-use token mailed to an account.
type ActionToken struct {
	ID        int64
	AccountID int64
	Purpose   ActionPurpose
	Token     string
	Email     *string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still be redeemed for purpose at now.
func (t *ActionToken) Usable(purpose ActionPurpose, now time.Time) bool {
	return t.Purpose == purpose && t.UsedAt == nil && now.Before(t.ExpiresAt)
}

// TokenPair is the credential set returned by login-like operations.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// TokenPayload describes a verified access token.
type TokenPayload struct {
	AccountID int64
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
