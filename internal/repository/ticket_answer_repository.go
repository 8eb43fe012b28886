package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-accounts/internal/domain"
)

// TicketAnswerRepository manages support replies.
type TicketAnswerRepository interface {
	Create(ctx context.Context, answer *domain.TicketAnswer) error
	GetLatestByTicket(ctx context.Context, ticketID int64) (*domain.TicketAnswer, error)
}

type ticketAnswerRepository struct {
	pool *pgxpool.Pool
}

// NewTicketAnswerRepository builds repository.
func NewTicketAnswerRepository(pool *pgxpool.Pool) TicketAnswerRepository {
	return &ticketAnswerRepository{pool: pool}
}

func (r *ticketAnswerRepository) Create(ctx context.Context, answer *domain.TicketAnswer) error {
	const query = `
        INSERT INTO ticket_answers (ticket_id, answer)
        VALUES ($1,$2)
        RETURNING id, created_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		answer.TicketID,
		answer.Answer,
	).Scan(&answer.ID, &answer.CreatedAt)
}

// GetLatestByTicket returns the most recent answer; nothing enforces a single answer per ticket.
func (r *ticketAnswerRepository) GetLatestByTicket(ctx context.Context, ticketID int64) (*domain.TicketAnswer, error) {
	const query = `
        SELECT id, ticket_id, answer, created_at
        FROM ticket_answers WHERE ticket_id=$1
        ORDER BY id DESC LIMIT 1`
	var answer domain.TicketAnswer
	if err := conn(ctx, r.pool).QueryRow(ctx, query, ticketID).Scan(
		&answer.ID,
		&answer.TicketID,
		&answer.Answer,
		&answer.CreatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &answer, nil
}
