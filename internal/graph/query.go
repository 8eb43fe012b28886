package graph

import (
	"context"
	"errors"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/spec-kit/support-accounts/internal/auth"
	"github.com/spec-kit/support-accounts/internal/domain"
)

func (r *Resolver) AllTickets(ctx context.Context) ([]*ticketResolver, error) {
	viewer := auth.ViewerFromContext(ctx)
	tickets, err := r.tickets.ListTickets(ctx, viewer)
	if err != nil {
		return nil, r.resolverError(err)
	}
	out := make([]*ticketResolver, 0, len(tickets))
	for i := range tickets {
		out = append(out, &ticketResolver{root: r, viewer: viewer, t: &tickets[i]})
	}
	return out, nil
}

// Ticket answers with the not-found error unless the viewer is an active owner,
// anonymous viewers included.
func (r *Resolver) Ticket(ctx context.Context, args struct{ ID graphql.ID }) (*ticketResolver, error) {
	viewer := auth.ViewerFromContext(ctx)
	id, ok := parseID(args.ID)
	if !ok {
		return nil, notFoundError()
	}
	ticket, err := r.tickets.GetTicket(ctx, viewer, id)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return nil, notFoundError()
		}
		return nil, r.lookupError(err)
	}
	return &ticketResolver{root: r, viewer: viewer, t: ticket}, nil
}

func (r *Resolver) TicketAnswer(ctx context.Context, args struct{ ID graphql.ID }) (*ticketAnswerResolver, error) {
	viewer := auth.ViewerFromContext(ctx)
	ticketID, ok := parseID(args.ID)
	if !ok {
		if !viewer.Authenticated() {
			return nil, nil
		}
		return nil, notFoundError()
	}
	answer, err := r.tickets.GetTicketAnswer(ctx, viewer, ticketID)
	if err != nil {
		return nil, r.lookupError(err)
	}
	return &ticketAnswerResolver{root: r, viewer: viewer, a: answer}, nil
}

func (r *Resolver) Me(ctx context.Context) (*accountResolver, error) {
	account, err := r.accounts.Me(ctx, auth.ViewerFromContext(ctx))
	if err != nil {
		return nil, r.lookupError(err)
	}
	return newAccountResolver(account), nil
}

func (r *Resolver) Users(ctx context.Context, args struct {
	First  int32
	Offset int32
}) ([]*accountResolver, error) {
	accounts, err := r.accounts.Users(ctx, auth.ViewerFromContext(ctx), int(args.First), int(args.Offset))
	if err != nil {
		return nil, r.resolverError(err)
	}
	out := make([]*accountResolver, 0, len(accounts))
	for i := range accounts {
		out = append(out, newAccountResolver(&accounts[i]))
	}
	return out, nil
}

func (r *Resolver) Coupons(ctx context.Context) ([]*couponResolver, error) {
	coupons, err := r.coupons.List(ctx, auth.ViewerFromContext(ctx))
	if err != nil {
		return nil, r.resolverError(err)
	}
	out := make([]*couponResolver, 0, len(coupons))
	for i := range coupons {
		out = append(out, &couponResolver{c: &coupons[i]})
	}
	return out, nil
}

func (r *Resolver) Coupon(ctx context.Context, args struct{ Code string }) (*couponResolver, error) {
	coupon, err := r.coupons.ByCode(ctx, auth.ViewerFromContext(ctx), args.Code)
	if err != nil {
		return nil, r.lookupError(err)
	}
	return &couponResolver{c: coupon}, nil
}
