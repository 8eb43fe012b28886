package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/support-accounts/internal/api/dto"
	"github.com/spec-kit/support-accounts/internal/domain"
	"github.com/spec-kit/support-accounts/internal/events"
	"github.com/spec-kit/support-accounts/internal/repository"
	apperrors "github.com/spec-kit/support-accounts/pkg/util"
)

// TicketService coordinates ticket workflows. Every operation takes the
// requesting viewer explicitly.
type TicketService struct {
	tickets    repository.TicketRepository
	answers    repository.TicketAnswerRepository
	accounts   repository.AccountRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	AnswerRepo  repository.TicketAnswerRepository
	AccountRepo repository.AccountRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		answers:    deps.AnswerRepo,
		accounts:   deps.AccountRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// ListTickets returns the viewer's own tickets, newest first. Anonymous
// viewers get an empty list.
func (s *TicketService) ListTickets(ctx context.Context, viewer domain.Viewer) ([]domain.Ticket, error) {
	if !viewer.Authenticated() {
		return []domain.Ticket{}, nil
	}
	return s.tickets.ListByOwner(ctx, viewer.AccountID())
}

// GetTicket returns the ticket only to its active owner.
func (s *TicketService) GetTicket(ctx context.Context, viewer domain.Viewer, id int64) (*domain.Ticket, error) {
	if !viewer.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.Active() || !viewer.Owns(ticket.OwnerID) {
		return nil, domain.ErrForbidden
	}
	return ticket, nil
}

// SaveTicket creates a ticket owned by the viewer, or updates one of the
// viewer's tickets when in.ID is set.
func (s *TicketService) SaveTicket(ctx context.Context, viewer domain.Viewer, in dto.TicketInput) (*domain.Ticket, error) {
	if !viewer.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !viewer.Active() {
		return nil, domain.ErrUnauthenticated
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if !in.IsUpdate() {
		ticket := in.ToTicket(viewer.AccountID())
		if err := s.tickets.Create(ctx, ticket); err != nil {
			return nil, err
		}
		s.logger.Info("ticket created", zap.Int64("ticket_id", ticket.ID), zap.Int64("owner_id", ticket.OwnerID))
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:      events.EventTicketCreated,
			AccountID: ticket.OwnerID,
			Payload:   events.TicketPayload{TicketID: ticket.ID, Title: ticket.Title},
		})
		return ticket, nil
	}

	ticket, err := s.GetTicket(ctx, viewer, *in.ID)
	if errors.Is(err, domain.ErrForbidden) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	in.ApplyTo(ticket)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventTicketUpdated,
		AccountID: ticket.OwnerID,
		Payload:   events.TicketPayload{TicketID: ticket.ID, Title: ticket.Title},
	})
	return ticket, nil
}

// GetTicketAnswer returns the latest answer of a ticket to the ticket's active owner.
func (s *TicketService) GetTicketAnswer(ctx context.Context, viewer domain.Viewer, ticketID int64) (*domain.TicketAnswer, error) {
	if !viewer.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	answer, err := s.answers.GetLatestByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, answer.TicketID)
	if err != nil {
		return nil, err
	}
	if !viewer.Active() || !viewer.Owns(ticket.OwnerID) {
		return nil, domain.ErrForbidden
	}
	return answer, nil
}

// TicketFor loads the parent ticket of an answer the viewer already received.
func (s *TicketService) TicketFor(ctx context.Context, viewer domain.Viewer, answer *domain.TicketAnswer) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, answer.TicketID)
	if err != nil {
		return nil, err
	}
	if !viewer.Owns(ticket.OwnerID) && !(viewer.Active() && viewer.Account.CanAnswerTickets()) {
		return nil, domain.ErrForbidden
	}
	return ticket, nil
}

// AnswerTicket records a support reply. Only supporters and staff may answer.
func (s *TicketService) AnswerTicket(ctx context.Context, viewer domain.Viewer, in dto.TicketAnswerInput) (*domain.TicketAnswer, error) {
	if !viewer.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !viewer.Active() || !viewer.Account.CanAnswerTickets() {
		return nil, apperrors.NewForbidden("supporter role required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, in.TicketID)
	if err != nil {
		return nil, err
	}

	answer := &domain.TicketAnswer{TicketID: ticket.ID, Answer: in.Answer}
	if err := s.answers.Create(ctx, answer); err != nil {
		return nil, err
	}
	s.logger.Info("ticket answered",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("answer_id", answer.ID),
		zap.Int64("answered_by", viewer.AccountID()))

	payload := events.TicketAnsweredPayload{
		TicketID:    ticket.ID,
		AnswerID:    answer.ID,
		AnsweredBy:  viewer.AccountID(),
		TicketTitle: ticket.Title,
	}
	if owner, err := s.accounts.GetByID(ctx, ticket.OwnerID); err == nil {
		payload.OwnerEmail = owner.Email
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventTicketAnswered,
		AccountID: ticket.OwnerID,
		Payload:   payload,
	})
	return answer, nil
}

// Owner returns the account that filed the ticket. Owners see themselves;
// supporters and staff may look up any owner.
func (s *TicketService) Owner(ctx context.Context, viewer domain.Viewer, ticket *domain.Ticket) (*domain.Account, error) {
	if viewer.Owns(ticket.OwnerID) {
		return viewer.Account, nil
	}
	if !viewer.Active() || !viewer.Account.CanAnswerTickets() {
		return nil, domain.ErrForbidden
	}
	return s.accounts.GetByID(ctx, ticket.OwnerID)
}
