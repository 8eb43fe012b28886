package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-accounts/internal/domain"
	apperrors "github.com/spec-kit/support-accounts/pkg/util"
)

const viewerKey = "auth_viewer"

type viewerCtxKey struct{}

// AccountLookup loads the account a token points at.
type AccountLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
}

// AuthMiddleware resolves the request viewer from an optional JWT.
type AuthMiddleware struct {
	tokens   *TokenManager
	accounts AccountLookup
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, accounts AccountLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, accounts: accounts}
}

// Handle attaches a viewer to the request. A missing header yields an anonymous
// viewer; a present but unusable one is rejected.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	viewer := domain.Anonymous()

	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !knownScheme(parts[0]) {
			return apperrors.NewUnauthorized("invalid authorization header")
		}

		payload, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			return apperrors.NewUnauthorized("invalid token")
		}

		account, err := m.accounts.GetByID(c.UserContext(), payload.AccountID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return apperrors.NewUnauthorized("account not found")
			}
			return apperrors.MapError(err)
		}
		viewer = domain.ViewerOf(account)
	}

	c.Locals(viewerKey, viewer)
	c.SetUserContext(WithViewer(c.UserContext(), viewer))
	return c.Next()
}

func knownScheme(scheme string) bool {
	return strings.EqualFold(scheme, "JWT") || strings.EqualFold(scheme, "Bearer")
}

// WithViewer stores the viewer on a context.
func WithViewer(ctx context.Context, viewer domain.Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, viewer)
}

// ViewerFromContext returns the request viewer, anonymous when none was attached.
func ViewerFromContext(ctx context.Context) domain.Viewer {
	if viewer, ok := ctx.Value(viewerCtxKey{}).(domain.Viewer); ok {
		return viewer
	}
	return domain.Anonymous()
}

// ViewerFromFiber retrieves the viewer stored by Handle.
func ViewerFromFiber(c *fiber.Ctx) (domain.Viewer, bool) {
	viewer, ok := c.Locals(viewerKey).(domain.Viewer)
	return viewer, ok
}
