package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-accounts/internal/api/dto"
	"github.com/spec-kit/support-accounts/internal/auth"
	"github.com/spec-kit/support-accounts/internal/config"
	"github.com/spec-kit/support-accounts/internal/domain"
	"github.com/spec-kit/support-accounts/internal/events"
	"github.com/spec-kit/support-accounts/internal/repository"
	apperrors "github.com/spec-kit/support-accounts/pkg/util"
)

// AccountService coordinates registration, verification, login and profile flows.
type AccountService struct {
	accounts   repository.AccountRepository
	actions    repository.ActionTokenRepository
	refresh    repository.RefreshTokenStore
	tx         repository.Transactor
	dispatcher events.Dispatcher
	tokenMgr   *auth.TokenManager
	cfg        config.AuthConfig
	logger     *zap.Logger
	now        func() time.Time
}

// AccountDependencies encapsulates repo requirements for the account service.
type AccountDependencies struct {
	AccountRepo     repository.AccountRepository
	ActionTokenRepo repository.ActionTokenRepository
	RefreshTokens   repository.RefreshTokenStore
	Transactor      repository.Transactor
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(cfg config.AuthConfig, deps AccountDependencies) *AccountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tx := deps.Transactor
	if tx == nil {
		tx = directTx{}
	}
	return &AccountService{
		accounts:   deps.AccountRepo,
		actions:    deps.ActionTokenRepo,
		refresh:    deps.RefreshTokens,
		tx:         tx,
		dispatcher: deps.Dispatcher,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTTL()),
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// TokenManager exposes the access token manager for the auth middleware.
func (s *AccountService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates an unverified account, mails an activation token and
// returns a token pair for the new account. The account row, its activation
// token and the refresh token stand or fall together.
func (s *AccountService) Register(ctx context.Context, in dto.RegisterInput) (*domain.Account, *domain.TokenPair, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}
	if err := s.checkRegisterConflicts(ctx, in); err != nil {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(in.Password1, s.cfg.BcryptCost)
	if err != nil {
		return nil, nil, err
	}
	account := in.ToAccount()
	account.PasswordHash = hash

	var (
		token *domain.ActionToken
		pair  *domain.TokenPair
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.accounts.Create(ctx, account); err != nil {
			return conflictFromStore(err)
		}
		var err error
		token, err = s.issueActionToken(ctx, account, domain.ActionActivation, nil, s.cfg.ActivationTTL())
		if err != nil {
			return err
		}
		// Issued last: a refresh store failure still rolls the account back.
		pair, err = s.issuePair(ctx, account)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("account registered", zap.Int64("account_id", account.ID))
	s.publishMail(ctx, events.EventAccountRegistered, account, account.Email, token.Token)
	return account, pair, nil
}

func (s *AccountService) checkRegisterConflicts(ctx context.Context, in dto.RegisterInput) error {
	details := map[string]any{}
	inUse, err := s.accounts.EmailInUse(ctx, in.Email)
	if err != nil {
		return err
	}
	if inUse {
		details["email"] = alreadyExists("email")
	}
	if _, err := s.accounts.GetByUsername(ctx, in.Username); err == nil {
		details["username"] = alreadyExists("username")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := s.accounts.GetByPhone(ctx, in.PhoneNumber); err == nil {
		details["phoneNumber"] = alreadyExists("phoneNumber")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if len(details) > 0 {
		return apperrors.NewConflict("account already exists", details)
	}
	return nil
}

// VerifyAccount redeems an activation token.
func (s *AccountService) VerifyAccount(ctx context.Context, token string) error {
	action, account, err := s.redeem(ctx, token, domain.ActionActivation)
	if err != nil {
		return err
	}
	if account.Verified {
		return flowError(CodeAlreadyVerified, nonFieldErrors, "Account already verified.")
	}
	account.Verified = true
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.claim(ctx, action); err != nil {
			return err
		}
		return s.accounts.Update(ctx, account)
	})
}

// ResendActivationEmail mails a fresh activation token. Unknown emails succeed silently.
func (s *AccountService) ResendActivationEmail(ctx context.Context, email string) error {
	account, err := s.lookupEmail(ctx, email)
	if err != nil || account == nil {
		return err
	}
	if account.Verified {
		return flowError(CodeAlreadyVerified, nonFieldErrors, "Account already verified.")
	}
	token, err := s.issueActionToken(ctx, account, domain.ActionActivation, nil, s.cfg.ActivationTTL())
	if err != nil {
		return err
	}
	s.publishMail(ctx, events.EventActivationRequested, account, account.Email, token.Token)
	return nil
}

// SendPasswordResetEmail mails a password reset token. Unverified accounts
// get a new activation email and a NOT_VERIFIED error instead.
func (s *AccountService) SendPasswordResetEmail(ctx context.Context, email string) error {
	account, err := s.lookupEmail(ctx, email)
	if err != nil || account == nil {
		return err
	}
	if !account.Verified {
		token, err := s.issueActionToken(ctx, account, domain.ActionActivation, nil, s.cfg.ActivationTTL())
		if err != nil {
			return err
		}
		s.publishMail(ctx, events.EventActivationRequested, account, account.Email, token.Token)
		return notVerified()
	}
	token, err := s.issueActionToken(ctx, account, domain.ActionPasswordReset, nil, s.cfg.PasswordResetTTL())
	if err != nil {
		return err
	}
	s.publishMail(ctx, events.EventPasswordResetRequested, account, account.Email, token.Token)
	return nil
}

// PasswordReset sets a new password from a reset token and signs out every session.
func (s *AccountService) PasswordReset(ctx context.Context, in dto.PasswordResetInput) error {
	if err := dto.Validate(&in); err != nil {
		return err
	}
	action, account, err := s.redeem(ctx, in.Token, domain.ActionPasswordReset)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(in.NewPassword1, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	account.PasswordHash = hash
	account.Verified = true
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.claim(ctx, action); err != nil {
			return err
		}
		return s.accounts.Update(ctx, account)
	})
	if err != nil {
		return err
	}
	s.revokeAll(ctx, account.ID)
	s.publishMail(ctx, events.EventPasswordChanged, account, account.Email, "")
	return nil
}

// PasswordChange replaces the viewer's password and returns a new token pair.
func (s *AccountService) PasswordChange(ctx context.Context, viewer domain.Viewer, in dto.PasswordChangeInput) (*domain.TokenPair, error) {
	account, err := s.requireVerified(ctx, viewer)
	if err != nil {
		return nil, err
	}
	if err := dto.Validate(&in); err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(account.PasswordHash, in.OldPassword); err != nil {
		return nil, invalidCredentials("oldPassword")
	}
	hash, err := auth.HashPassword(in.NewPassword1, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	account.PasswordHash = hash

	var pair *domain.TokenPair
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.accounts.Update(ctx, account); err != nil {
			return err
		}
		s.revokeAll(ctx, account.ID)
		var err error
		pair, err = s.issuePair(ctx, account)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publishMail(ctx, events.EventPasswordChanged, account, account.Email, "")
	return pair, nil
}

// ArchiveAccount hides the viewer's account until the next login.
func (s *AccountService) ArchiveAccount(ctx context.Context, viewer domain.Viewer, password string) error {
	account, err := s.requirePassword(ctx, viewer, password)
	if err != nil {
		return err
	}
	account.Archived = true
	if err := s.accounts.Update(ctx, account); err != nil {
		return err
	}
	s.revokeAll(ctx, account.ID)
	publishEvent(ctx, s.dispatcher, events.Event{Type: events.EventAccountArchived, AccountID: account.ID})
	return nil
}

// DeleteAccount removes the viewer's account, or deactivates it when hard
// deletes are disabled.
func (s *AccountService) DeleteAccount(ctx context.Context, viewer domain.Viewer, password string) error {
	account, err := s.requirePassword(ctx, viewer, password)
	if err != nil {
		return err
	}
	s.revokeAll(ctx, account.ID)
	if s.cfg.AllowDeleteAccount {
		if err := s.accounts.Delete(ctx, account.ID); err != nil {
			return err
		}
	} else {
		account.IsActive = false
		if err := s.accounts.Update(ctx, account); err != nil {
			return err
		}
	}
	s.logger.Info("account deleted",
		zap.Int64("account_id", account.ID),
		zap.Bool("hard_delete", s.cfg.AllowDeleteAccount))
	publishEvent(ctx, s.dispatcher, events.Event{Type: events.EventAccountDeleted, AccountID: account.ID})
	return nil
}

// UpdateAccount applies profile changes to the viewer's account.
func (s *AccountService) UpdateAccount(ctx context.Context, viewer domain.Viewer, in dto.UpdateAccountInput) (*domain.Account, error) {
	account, err := s.requireVerified(ctx, viewer)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.PhoneNumber != nil && *in.PhoneNumber != account.PhoneNumber {
		other, err := s.accounts.GetByPhone(ctx, *in.PhoneNumber)
		switch {
		case err == nil && other.ID != account.ID:
			return nil, apperrors.NewConflict("account already exists",
				map[string]any{"phoneNumber": alreadyExists("phoneNumber")})
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	in.ApplyTo(account)
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, conflictFromStore(err)
	}
	return account, nil
}

// SendSecondaryEmailActivation mails a verification token to a new secondary address.
func (s *AccountService) SendSecondaryEmailActivation(ctx context.Context, viewer domain.Viewer, in dto.SecondaryEmailInput) error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := dto.Validate(&in); err != nil {
		return err
	}
	account, err := s.requirePassword(ctx, viewer, in.Password)
	if err != nil {
		return err
	}
	if err := s.ensureEmailFree(ctx, in.Email); err != nil {
		return err
	}
	email := in.Email
	token, err := s.issueActionToken(ctx, account, domain.ActionSecondaryEmail, &email, s.cfg.ActivationTTL())
	if err != nil {
		return err
	}
	s.publishMail(ctx, events.EventSecondaryEmailRequested, account, email, token.Token)
	return nil
}

// VerifySecondaryEmail redeems a secondary email token.
func (s *AccountService) VerifySecondaryEmail(ctx context.Context, token string) error {
	action, account, err := s.redeem(ctx, token, domain.ActionSecondaryEmail)
	if err != nil {
		return err
	}
	if action.Email == nil {
		return invalidToken()
	}
	if err := s.ensureEmailFree(ctx, *action.Email); err != nil {
		return err
	}
	email := *action.Email
	account.SecondaryEmail = &email
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.claim(ctx, action); err != nil {
			return err
		}
		if err := s.accounts.Update(ctx, account); err != nil {
			return conflictFromStore(err)
		}
		return nil
	})
}

// SwapEmails exchanges the primary and secondary email of the viewer.
func (s *AccountService) SwapEmails(ctx context.Context, viewer domain.Viewer, password string) error {
	account, err := s.requirePassword(ctx, viewer, password)
	if err != nil {
		return err
	}
	if account.SecondaryEmail == nil {
		return flowError(CodeSecondaryRequired, nonFieldErrors, "Secondary email is required.")
	}
	primary := account.Email
	account.Email = *account.SecondaryEmail
	account.SecondaryEmail = &primary
	return s.accounts.Update(ctx, account)
}

// TokenAuth logs in with username or email. A successful login unarchives the account.
func (s *AccountService) TokenAuth(ctx context.Context, login, password string) (*domain.Account, *domain.TokenPair, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, nil, invalidCredentials(nonFieldErrors)
	}

	var (
		account *domain.Account
		err     error
	)
	if strings.Contains(login, "@") {
		account, err = s.accounts.GetByEmail(ctx, login)
	} else {
		account, err = s.accounts.GetByUsername(ctx, login)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, invalidCredentials(nonFieldErrors)
		}
		return nil, nil, err
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, nil, invalidCredentials(nonFieldErrors)
	}
	if !account.IsActive {
		return nil, nil, flowError(CodeInactiveAccount, nonFieldErrors, "This account is inactive.")
	}

	now := s.now()
	account.LastLogin = &now
	account.Archived = false

	var pair *domain.TokenPair
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.accounts.Update(ctx, account); err != nil {
			return err
		}
		var err error
		pair, err = s.issuePair(ctx, account)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return account, pair, nil
}

// VerifyToken checks an access token.
func (s *AccountService) VerifyToken(_ context.Context, token string) (*domain.TokenPayload, error) {
	payload, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, invalidToken()
	}
	return payload, nil
}

// RefreshToken rotates a refresh token into a new token pair.
func (s *AccountService) RefreshToken(ctx context.Context, refreshToken string) (*domain.Account, *domain.TokenPair, error) {
	accountID, err := s.refresh.Consume(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil, nil, invalidToken()
		}
		return nil, nil, err
	}
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, invalidToken()
		}
		return nil, nil, err
	}
	if !account.IsActive {
		return nil, nil, invalidToken()
	}
	pair, err := s.issuePair(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	return account, pair, nil
}

// RevokeToken invalidates one refresh token and returns the revocation time.
func (s *AccountService) RevokeToken(ctx context.Context, refreshToken string) (time.Time, error) {
	if _, err := s.refresh.Consume(ctx, refreshToken); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return time.Time{}, invalidToken()
		}
		return time.Time{}, err
	}
	return s.now(), nil
}

// Me returns the viewer's account, nil for anonymous viewers.
func (s *AccountService) Me(ctx context.Context, viewer domain.Viewer) (*domain.Account, error) {
	if !viewer.Authenticated() {
		return nil, nil
	}
	return s.accounts.GetByID(ctx, viewer.AccountID())
}

// Users lists accounts for staff viewers.
func (s *AccountService) Users(ctx context.Context, viewer domain.Viewer, limit, offset int) ([]domain.Account, error) {
	if !viewer.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !viewer.Active() || !viewer.IsStaff() {
		return nil, apperrors.NewForbidden("staff only")
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.accounts.List(ctx, limit, offset)
}

// requireVerified reloads the viewer's account and insists it is verified.
func (s *AccountService) requireVerified(ctx context.Context, viewer domain.Viewer) (*domain.Account, error) {
	if !viewer.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	account, err := s.accounts.GetByID(ctx, viewer.AccountID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if !account.Verified {
		return nil, notVerified()
	}
	return account, nil
}

func (s *AccountService) requirePassword(ctx context.Context, viewer domain.Viewer, password string) (*domain.Account, error) {
	account, err := s.requireVerified(ctx, viewer)
	if err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, invalidCredentials("password")
	}
	return account, nil
}

func (s *AccountService) lookupEmail(ctx context.Context, email string) (*domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := dto.Validate(&struct {
		Email string `json:"email" validate:"required,email"`
	}{Email: email}); err != nil {
		return nil, err
	}
	account, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return account, err
}

func (s *AccountService) ensureEmailFree(ctx context.Context, email string) error {
	inUse, err := s.accounts.EmailInUse(ctx, email)
	if err != nil {
		return err
	}
	if inUse {
		return flowError(CodeEmailInUse, "email", alreadyExists("email"))
	}
	return nil
}

func (s *AccountService) issueActionToken(ctx context.Context, account *domain.Account, purpose domain.ActionPurpose, email *string, ttl time.Duration) (*domain.ActionToken, error) {
	token := &domain.ActionToken{
		AccountID: account.ID,
		Purpose:   purpose,
		Token:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		Email:     email,
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.actions.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// redeem loads an unused token of the given purpose together with its account.
func (s *AccountService) redeem(ctx context.Context, raw string, purpose domain.ActionPurpose) (*domain.ActionToken, *domain.Account, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil, invalidToken()
	}
	token, err := s.actions.GetByToken(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, invalidToken()
		}
		return nil, nil, err
	}
	if token.Purpose != purpose || token.UsedAt != nil {
		return nil, nil, invalidToken()
	}
	if !token.Usable(purpose, s.now()) {
		return nil, nil, expiredToken()
	}
	account, err := s.accounts.GetByID(ctx, token.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, invalidToken()
		}
		return nil, nil, err
	}
	return token, account, nil
}

// claim marks the token used; losing a concurrent race reports an invalid token.
func (s *AccountService) claim(ctx context.Context, token *domain.ActionToken) error {
	if err := s.actions.MarkUsed(ctx, token.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return invalidToken()
		}
		return err
	}
	return nil
}

func (s *AccountService) issuePair(ctx context.Context, account *domain.Account) (*domain.TokenPair, error) {
	access, accessExp, err := s.tokenMgr.GenerateToken(account)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.refresh.Issue(ctx, account.ID, s.cfg.RefreshTTL())
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// directTx runs units of work without a transaction.
type directTx struct{}

func (directTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *AccountService) revokeAll(ctx context.Context, accountID int64) {
	if err := s.refresh.RevokeAll(ctx, accountID); err != nil {
		s.logger.Warn("revoke refresh tokens failed", zap.Int64("account_id", accountID), zap.Error(err))
	}
}

func (s *AccountService) publishMail(ctx context.Context, eventType events.EventType, account *domain.Account, to, token string) {
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      eventType,
		AccountID: account.ID,
		Payload: events.AccountMailPayload{
			Email:    to,
			Username: account.Username,
			Token:    token,
		},
	})
}
