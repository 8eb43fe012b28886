package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-accounts/internal/config"
	"github.com/spec-kit/support-accounts/internal/domain"
	"github.com/spec-kit/support-accounts/internal/events"
	"github.com/spec-kit/support-accounts/internal/testutil"
	apperrors "github.com/spec-kit/support-accounts/pkg/util"
)

var allEventTypes = []events.EventType{
	events.EventAccountRegistered,
	events.EventActivationRequested,
	events.EventPasswordResetRequested,
	events.EventPasswordChanged,
	events.EventSecondaryEmailRequested,
	events.EventAccountArchived,
	events.EventAccountDeleted,
	events.EventTicketCreated,
	events.EventTicketUpdated,
	events.EventTicketAnswered,
}

// recorder collects every published event.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func newRecorder(d events.Dispatcher) *recorder {
	r := &recorder{}
	for _, et := range allEventTypes {
		d.Subscribe(et, func(_ context.Context, e events.Event) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e)
			return nil
		})
	}
	return r
}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:               "test-secret",
		AccessTokenTTLMinutes:   5,
		RefreshTokenTTLHours:    24,
		ActivationTTLHours:      24,
		PasswordResetTTLMinutes: 30,
		BcryptCost:              4,
		AllowDeleteAccount:      true,
	}
}

type fixture struct {
	store    *testutil.Store
	accounts *AccountService
	tickets  *TicketService
	coupons  *CouponService
	events   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, testAuthConfig())
}

func newFixtureWith(t *testing.T, cfg config.AuthConfig) *fixture {
	t.Helper()
	store := testutil.NewStore()
	dispatcher := events.NewInMemoryDispatcher(nil)
	return &fixture{
		store: store,
		accounts: NewAccountService(cfg, AccountDependencies{
			AccountRepo:     store.Accounts(),
			ActionTokenRepo: store.ActionTokens(),
			RefreshTokens:   store.RefreshTokens(),
			Transactor:      store.Transactor(),
			Dispatcher:      dispatcher,
		}),
		tickets: NewTicketService(TicketDependencies{
			TicketRepo:  store.Tickets(),
			AnswerRepo:  store.Answers(),
			AccountRepo: store.Accounts(),
			Dispatcher:  dispatcher,
		}),
		coupons: NewCouponService(store.Coupons(), nil),
		events:  newRecorder(dispatcher),
	}
}

func viewerOf(a *domain.Account) domain.Viewer {
	return domain.ViewerOf(a)
}

// requireCode asserts err is a DomainError with the given code and returns it.
func requireCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, code, de.Code, de.Error())
	return de
}
