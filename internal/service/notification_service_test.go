package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-accounts/internal/api/dto"
	"github.com/spec-kit/support-accounts/internal/events"
	"github.com/spec-kit/support-accounts/internal/notify"
	"github.com/spec-kit/support-accounts/internal/testutil"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func TestNotificationServiceSendsActivationMail(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	mailer := &mockMailer{}
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg notify.Message) bool {
		return msg.To == "alice@example.com" && msg.Subject == "Activate your account"
	})).Return(nil).Once()

	ns := NewNotificationService(dispatcher, mailer, notify.Templates{BaseURL: "https://support.example.com"}, nil)
	ns.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventAccountRegistered,
		Payload: events.AccountMailPayload{Email: "alice@example.com", Username: "alice", Token: "abc123"},
	})
	require.NoError(t, err)
	mailer.AssertExpectations(t)

	msg := mailer.Calls[0].Arguments.Get(1).(notify.Message)
	assert.Contains(t, msg.Text, "https://support.example.com/activate/abc123")
}

func TestNotificationServiceTicketAnswered(t *testing.T) {
	store := testutil.NewStore()
	dispatcher := events.NewInMemoryDispatcher(nil)
	mailer := &mockMailer{}
	mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	ns := NewNotificationService(dispatcher, mailer, notify.Templates{BaseURL: "https://support.example.com"}, nil)
	ns.RegisterHandlers()

	tickets := NewTicketService(TicketDependencies{
		TicketRepo:  store.Tickets(),
		AnswerRepo:  store.Answers(),
		AccountRepo: store.Accounts(),
		Dispatcher:  dispatcher,
	})
	ctx := context.Background()
	alice := store.SeedAccount(t)
	support := store.SeedAccount(t, testutil.Supporter)

	ticket, err := tickets.SaveTicket(ctx, viewerOf(alice), dto.TicketInput{Title: "Refund", UserText: "please"})
	require.NoError(t, err)
	_, err = tickets.AnswerTicket(ctx, viewerOf(support), dto.TicketAnswerInput{TicketID: ticket.ID, Answer: "done"})
	require.NoError(t, err)

	mailer.AssertNumberOfCalls(t, "Send", 1)
	msg := mailer.Calls[0].Arguments.Get(1).(notify.Message)
	assert.Equal(t, alice.Email, msg.To)
	assert.Contains(t, msg.Subject, "Refund")
}

func TestNotificationServiceMailerFailureDoesNotFailFlow(t *testing.T) {
	f := newFixture(t)
	mailer := &mockMailer{}
	mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	dispatcher := events.NewInMemoryDispatcher(nil)
	f.accounts.dispatcher = dispatcher
	NewNotificationService(dispatcher, mailer, notify.Templates{}, nil).RegisterHandlers()

	_, _, err := f.accounts.Register(context.Background(), registerInput())
	require.NoError(t, err)
	mailer.AssertNumberOfCalls(t, "Send", 1)
}

func TestNotificationServiceRejectsWrongPayload(t *testing.T) {
	ns := NewNotificationService(nil, &mockMailer{}, notify.Templates{}, nil)
	err := ns.handleActivation(context.Background(), events.Event{Type: events.EventAccountRegistered, Payload: "oops"})
	assert.Error(t, err)
}
