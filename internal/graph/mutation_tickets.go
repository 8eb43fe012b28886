package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/spec-kit/support-accounts/internal/api/dto"
	"github.com/spec-kit/support-accounts/internal/auth"
	"github.com/spec-kit/support-accounts/internal/domain"
)

type ticketInput struct {
	ID       *graphql.ID
	Title    *string
	UserText *string
}

type ticketAnswerInput struct {
	TicketID graphql.ID
	Answer   string
}

type couponInput struct {
	Title         string
	DiscountPrice int32
	EndAt         graphql.Time
}

type ticketPayloadResolver struct {
	payload
	ticket *ticketResolver
}

func (r *ticketPayloadResolver) Ticket() *ticketResolver {
	return r.ticket
}

type ticketAnswerPayloadResolver struct {
	payload
	answer *ticketAnswerResolver
}

func (r *ticketAnswerPayloadResolver) TicketAnswer() *ticketAnswerResolver {
	return r.answer
}

type couponPayloadResolver struct {
	payload
	coupon *domain.Coupon
}

func (r *couponPayloadResolver) Coupon() *couponResolver {
	if r.coupon == nil {
		return nil
	}
	return &couponResolver{c: r.coupon}
}

// CreateAndUpdateTicket creates a ticket for the caller, or updates one of the
// caller's tickets when input.id is given.
func (r *Resolver) CreateAndUpdateTicket(ctx context.Context, args struct{ Input ticketInput }) (*ticketPayloadResolver, error) {
	viewer := auth.ViewerFromContext(ctx)
	in := dto.TicketInput{
		Title:    deref(args.Input.Title),
		UserText: deref(args.Input.UserText),
	}
	if args.Input.ID != nil {
		id, ok := parseID(*args.Input.ID)
		if !ok {
			return nil, notFoundError()
		}
		in.ID = &id
	}

	ticket, err := r.tickets.SaveTicket(ctx, viewer, in)
	if err != nil {
		p, err := r.failure(err)
		if err != nil {
			return nil, err
		}
		return &ticketPayloadResolver{payload: p}, nil
	}
	return &ticketPayloadResolver{ticket: &ticketResolver{root: r, viewer: viewer, t: ticket}}, nil
}

func (r *Resolver) AnswerTicket(ctx context.Context, args struct{ Input ticketAnswerInput }) (*ticketAnswerPayloadResolver, error) {
	viewer := auth.ViewerFromContext(ctx)
	ticketID, ok := parseID(args.Input.TicketID)
	if !ok {
		return nil, notFoundError()
	}
	answer, err := r.tickets.AnswerTicket(ctx, viewer, dto.TicketAnswerInput{TicketID: ticketID, Answer: args.Input.Answer})
	if err != nil {
		p, err := r.failure(err)
		if err != nil {
			return nil, err
		}
		return &ticketAnswerPayloadResolver{payload: p}, nil
	}
	return &ticketAnswerPayloadResolver{answer: &ticketAnswerResolver{root: r, viewer: viewer, a: answer}}, nil
}

func (r *Resolver) CreateCoupon(ctx context.Context, args struct{ Input couponInput }) (*couponPayloadResolver, error) {
	coupon, err := r.coupons.Create(ctx, auth.ViewerFromContext(ctx), dto.CouponInput{
		Title:         args.Input.Title,
		DiscountPrice: int(args.Input.DiscountPrice),
		EndAt:         args.Input.EndAt.Time,
	})
	if err != nil {
		p, err := r.failure(err)
		if err != nil {
			return nil, err
		}
		return &couponPayloadResolver{payload: p}, nil
	}
	return &couponPayloadResolver{coupon: coupon}, nil
}

func (r *Resolver) SetCouponActive(ctx context.Context, args struct {
	ID     graphql.ID
	Active bool
}) (*couponPayloadResolver, error) {
	viewer := auth.ViewerFromContext(ctx)
	id, ok := parseID(args.ID)
	if !ok {
		return nil, notFoundError()
	}
	coupon, err := r.coupons.SetActive(ctx, viewer, id, args.Active)
	if err != nil {
		p, err := r.failure(err)
		if err != nil {
			return nil, err
		}
		return &couponPayloadResolver{payload: p}, nil
	}
	return &couponPayloadResolver{coupon: coupon}, nil
}
