package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/support-accounts/internal/events"
	"github.com/spec-kit/support-accounts/internal/notify"
)

// NotificationService turns domain events into emails.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     notify.Mailer
	templates  notify.Templates
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer notify.Mailer, templates notify.Templates, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		templates:  templates,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAccountRegistered, n.handleActivation)
	n.dispatcher.Subscribe(events.EventActivationRequested, n.handleActivation)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordReset)
	n.dispatcher.Subscribe(events.EventPasswordChanged, n.handlePasswordChanged)
	n.dispatcher.Subscribe(events.EventSecondaryEmailRequested, n.handleSecondaryEmail)
	n.dispatcher.Subscribe(events.EventTicketAnswered, n.handleTicketAnswered)
}

func (n *NotificationService) handleActivation(ctx context.Context, event events.Event) error {
	payload, err := accountPayload(event)
	if err != nil {
		return err
	}
	return n.send(ctx, event, n.templates.Activation(payload.Email, payload.Username, payload.Token))
}

func (n *NotificationService) handlePasswordReset(ctx context.Context, event events.Event) error {
	payload, err := accountPayload(event)
	if err != nil {
		return err
	}
	return n.send(ctx, event, n.templates.PasswordReset(payload.Email, payload.Username, payload.Token))
}

func (n *NotificationService) handlePasswordChanged(ctx context.Context, event events.Event) error {
	payload, err := accountPayload(event)
	if err != nil {
		return err
	}
	return n.send(ctx, event, n.templates.PasswordChanged(payload.Email, payload.Username))
}

func (n *NotificationService) handleSecondaryEmail(ctx context.Context, event events.Event) error {
	payload, err := accountPayload(event)
	if err != nil {
		return err
	}
	return n.send(ctx, event, n.templates.SecondaryEmail(payload.Email, payload.Username, payload.Token))
}

func (n *NotificationService) handleTicketAnswered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAnsweredPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	if payload.OwnerEmail == "" {
		n.logger.Debug("ticket owner has no email", zap.Int64("ticket_id", payload.TicketID))
		return nil
	}
	return n.send(ctx, event, n.templates.TicketAnswered(payload.OwnerEmail, payload.TicketID, payload.TicketTitle))
}

func (n *NotificationService) send(ctx context.Context, event events.Event, msg notify.Message) error {
	if n.mailer == nil {
		return nil
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("mail %s: %w", event.Type, err)
	}
	n.logger.Debug("notification sent",
		zap.String("event_type", string(event.Type)),
		zap.Int64("account_id", event.AccountID))
	return nil
}

func accountPayload(event events.Event) (events.AccountMailPayload, error) {
	payload, ok := event.Payload.(events.AccountMailPayload)
	if !ok {
		return events.AccountMailPayload{}, fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return payload, nil
}
