package graph

import (
	"context"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/spec-kit/support-accounts/internal/api/dto"
	"github.com/spec-kit/support-accounts/internal/auth"
	"github.com/spec-kit/support-accounts/internal/domain"
)

type registerInput struct {
	Email       string
	Username    string
	Password1   string
	Password2   string
	FirstName   *string
	LastName    *string
	PhoneNumber string
	State       string
	City        string
	Address     string
	ZipCode     string
}

func (in registerInput) toDTO() dto.RegisterInput {
	return dto.RegisterInput{
		Email:       in.Email,
		Username:    in.Username,
		Password1:   in.Password1,
		Password2:   in.Password2,
		FirstName:   deref(in.FirstName),
		LastName:    deref(in.LastName),
		PhoneNumber: in.PhoneNumber,
		State:       in.State,
		City:        in.City,
		Address:     in.Address,
		ZipCode:     in.ZipCode,
	}
}

type updateAccountInput struct {
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	State       *string
	City        *string
	Address     *string
	ZipCode     *string
}

type authPayloadResolver struct {
	payload
	pair    *domain.TokenPair
	account *domain.Account
}

func (r *authPayloadResolver) Token() *string {
	if r.pair == nil {
		return nil
	}
	return &r.pair.AccessToken
}

func (r *authPayloadResolver) TokenExpiresAt() *graphql.Time {
	if r.pair == nil {
		return nil
	}
	return &graphql.Time{Time: r.pair.AccessExpiresAt}
}

func (r *authPayloadResolver) RefreshToken() *string {
	if r.pair == nil {
		return nil
	}
	return &r.pair.RefreshToken
}

func (r *authPayloadResolver) RefreshExpiresAt() *graphql.Time {
	if r.pair == nil {
		return nil
	}
	return &graphql.Time{Time: r.pair.RefreshExpiresAt}
}

func (r *authPayloadResolver) Account() *accountResolver {
	return newAccountResolver(r.account)
}

type accountPayloadResolver struct {
	payload
	account *domain.Account
}

func (r *accountPayloadResolver) Account() *accountResolver {
	return newAccountResolver(r.account)
}

type verifyTokenPayloadResolver struct {
	payload
	token *domain.TokenPayload
}

func (r *verifyTokenPayloadResolver) Payload() *tokenPayloadResolver {
	if r.token == nil {
		return nil
	}
	return &tokenPayloadResolver{p: r.token}
}

type revokeTokenPayloadResolver struct {
	payload
	revoked time.Time
}

func (r *revokeTokenPayloadResolver) Revoked() *graphql.Time {
	if r.revoked.IsZero() {
		return nil
	}
	return &graphql.Time{Time: r.revoked}
}

// result wraps an error-only service call into a MutationPayload.
func (r *Resolver) result(err error) (*payload, error) {
	if err != nil {
		p, err := r.failure(err)
		if err != nil {
			return nil, err
		}
		return &p, nil
	}
	return &payload{}, nil
}

func (r *Resolver) authResult(account *domain.Account, pair *domain.TokenPair, err error) (*authPayloadResolver, error) {
	if err != nil {
		p, err := r.failure(err)
		if err != nil {
			return nil, err
		}
		return &authPayloadResolver{payload: p}, nil
	}
	return &authPayloadResolver{pair: pair, account: account}, nil
}

func (r *Resolver) Register(ctx context.Context, args struct{ Input registerInput }) (*authPayloadResolver, error) {
	account, pair, err := r.accounts.Register(ctx, args.Input.toDTO())
	return r.authResult(account, pair, err)
}

func (r *Resolver) VerifyAccount(ctx context.Context, args struct{ Token string }) (*payload, error) {
	return r.result(r.accounts.VerifyAccount(ctx, args.Token))
}

func (r *Resolver) ResendActivationEmail(ctx context.Context, args struct{ Email string }) (*payload, error) {
	return r.result(r.accounts.ResendActivationEmail(ctx, args.Email))
}

func (r *Resolver) SendPasswordResetEmail(ctx context.Context, args struct{ Email string }) (*payload, error) {
	return r.result(r.accounts.SendPasswordResetEmail(ctx, args.Email))
}

func (r *Resolver) PasswordReset(ctx context.Context, args struct {
	Token        string
	NewPassword1 string
	NewPassword2 string
}) (*payload, error) {
	return r.result(r.accounts.PasswordReset(ctx, dto.PasswordResetInput{
		Token:        args.Token,
		NewPassword1: args.NewPassword1,
		NewPassword2: args.NewPassword2,
	}))
}

func (r *Resolver) PasswordChange(ctx context.Context, args struct {
	OldPassword  string
	NewPassword1 string
	NewPassword2 string
}) (*authPayloadResolver, error) {
	viewer := auth.ViewerFromContext(ctx)
	pair, err := r.accounts.PasswordChange(ctx, viewer, dto.PasswordChangeInput{
		OldPassword:  args.OldPassword,
		NewPassword1: args.NewPassword1,
		NewPassword2: args.NewPassword2,
	})
	return r.authResult(viewer.Account, pair, err)
}

func (r *Resolver) ArchiveAccount(ctx context.Context, args struct{ Password string }) (*payload, error) {
	return r.result(r.accounts.ArchiveAccount(ctx, auth.ViewerFromContext(ctx), args.Password))
}

func (r *Resolver) DeleteAccount(ctx context.Context, args struct{ Password string }) (*payload, error) {
	return r.result(r.accounts.DeleteAccount(ctx, auth.ViewerFromContext(ctx), args.Password))
}

func (r *Resolver) UpdateAccount(ctx context.Context, args struct{ Input updateAccountInput }) (*accountPayloadResolver, error) {
	account, err := r.accounts.UpdateAccount(ctx, auth.ViewerFromContext(ctx), dto.UpdateAccountInput{
		FirstName:   args.Input.FirstName,
		LastName:    args.Input.LastName,
		PhoneNumber: args.Input.PhoneNumber,
		State:       args.Input.State,
		City:        args.Input.City,
		Address:     args.Input.Address,
		ZipCode:     args.Input.ZipCode,
	})
	if err != nil {
		p, err := r.failure(err)
		if err != nil {
			return nil, err
		}
		return &accountPayloadResolver{payload: p}, nil
	}
	return &accountPayloadResolver{account: account}, nil
}

func (r *Resolver) SendSecondaryEmailActivation(ctx context.Context, args struct {
	Email    string
	Password string
}) (*payload, error) {
	return r.result(r.accounts.SendSecondaryEmailActivation(ctx, auth.ViewerFromContext(ctx), dto.SecondaryEmailInput{
		Email:    args.Email,
		Password: args.Password,
	}))
}

func (r *Resolver) VerifySecondaryEmail(ctx context.Context, args struct{ Token string }) (*payload, error) {
	return r.result(r.accounts.VerifySecondaryEmail(ctx, args.Token))
}

func (r *Resolver) SwapEmails(ctx context.Context, args struct{ Password string }) (*payload, error) {
	return r.result(r.accounts.SwapEmails(ctx, auth.ViewerFromContext(ctx), args.Password))
}

func (r *Resolver) TokenAuth(ctx context.Context, args struct {
	Username *string
	Email    *string
	Password string
}) (*authPayloadResolver, error) {
	login := deref(args.Username)
	if args.Email != nil && *args.Email != "" {
		login = *args.Email
	}
	account, pair, err := r.accounts.TokenAuth(ctx, login, args.Password)
	return r.authResult(account, pair, err)
}

func (r *Resolver) VerifyToken(ctx context.Context, args struct{ Token string }) (*verifyTokenPayloadResolver, error) {
	token, err := r.accounts.VerifyToken(ctx, args.Token)
	if err != nil {
		p, err := r.failure(err)
		if err != nil {
			return nil, err
		}
		return &verifyTokenPayloadResolver{payload: p}, nil
	}
	return &verifyTokenPayloadResolver{token: token}, nil
}

func (r *Resolver) RefreshToken(ctx context.Context, args struct{ RefreshToken string }) (*authPayloadResolver, error) {
	account, pair, err := r.accounts.RefreshToken(ctx, args.RefreshToken)
	return r.authResult(account, pair, err)
}

func (r *Resolver) RevokeToken(ctx context.Context, args struct{ RefreshToken string }) (*revokeTokenPayloadResolver, error) {
	revoked, err := r.accounts.RevokeToken(ctx, args.RefreshToken)
	if err != nil {
		p, err := r.failure(err)
		if err != nil {
			return nil, err
		}
		return &revokeTokenPayloadResolver{payload: p}, nil
	}
	return &revokeTokenPayloadResolver{revoked: revoked}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
