package graph

import (
	"context"
	"errors"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/spec-kit/support-accounts/internal/domain"
)

type accountResolver struct {
	a *domain.Account
}

func newAccountResolver(a *domain.Account) *accountResolver {
	if a == nil {
		return nil
	}
	return &accountResolver{a: a}
}

func (r *accountResolver) ID() graphql.ID          { return formatID(r.a.ID) }
func (r *accountResolver) Username() string        { return r.a.Username }
func (r *accountResolver) Email() string           { return r.a.Email }
func (r *accountResolver) SecondaryEmail() *string { return r.a.SecondaryEmail }
func (r *accountResolver) FirstName() string       { return r.a.FirstName }
func (r *accountResolver) LastName() string        { return r.a.LastName }
func (r *accountResolver) FullName() string        { return r.a.FullName() }
func (r *accountResolver) PhoneNumber() string     { return r.a.PhoneNumber }
func (r *accountResolver) State() string           { return r.a.State }
func (r *accountResolver) City() string            { return r.a.City }
func (r *accountResolver) Address() string         { return r.a.Address }
func (r *accountResolver) ZipCode() string         { return r.a.ZipCode }
func (r *accountResolver) IsActive() bool          { return r.a.IsActive }
func (r *accountResolver) Verified() bool          { return r.a.Verified }
func (r *accountResolver) Archived() bool          { return r.a.Archived }
func (r *accountResolver) IsSupporter() bool       { return r.a.IsSupporter }
func (r *accountResolver) IsStaff() bool           { return r.a.IsStaff }

func (r *accountResolver) DateJoined() graphql.Time {
	return graphql.Time{Time: r.a.DateJoined}
}

func (r *accountResolver) LastLogin() *graphql.Time {
	if r.a.LastLogin == nil {
		return nil
	}
	return &graphql.Time{Time: *r.a.LastLogin}
}

// ticketResolver keeps the viewer that loaded the ticket so nested fields
// apply the same access rules.
type ticketResolver struct {
	root   *Resolver
	viewer domain.Viewer
	t      *domain.Ticket
}

func (r *ticketResolver) ID() graphql.ID   { return formatID(r.t.ID) }
func (r *ticketResolver) Title() string    { return r.t.Title }
func (r *ticketResolver) UserText() string { return r.t.UserText }

func (r *ticketResolver) CreatedAt() graphql.Time {
	return graphql.Time{Time: r.t.CreatedAt}
}

func (r *ticketResolver) Owner(ctx context.Context) (*accountResolver, error) {
	owner, err := r.root.tickets.Owner(ctx, r.viewer, r.t)
	if err != nil {
		if hidden(err) {
			return nil, nil
		}
		return nil, r.root.resolverError(err)
	}
	return newAccountResolver(owner), nil
}

func (r *ticketResolver) Answer(ctx context.Context) (*ticketAnswerResolver, error) {
	answer, err := r.root.tickets.GetTicketAnswer(ctx, r.viewer, r.t.ID)
	if err != nil {
		if hidden(err) {
			return nil, nil
		}
		return nil, r.root.resolverError(err)
	}
	return &ticketAnswerResolver{root: r.root, viewer: r.viewer, a: answer, ticket: r.t}, nil
}

type ticketAnswerResolver struct {
	root   *Resolver
	viewer domain.Viewer
	a      *domain.TicketAnswer
	ticket *domain.Ticket
}

func (r *ticketAnswerResolver) ID() graphql.ID { return formatID(r.a.ID) }
func (r *ticketAnswerResolver) Answer() string { return r.a.Answer }

func (r *ticketAnswerResolver) CreatedAt() graphql.Time {
	return graphql.Time{Time: r.a.CreatedAt}
}

func (r *ticketAnswerResolver) Ticket(ctx context.Context) (*ticketResolver, error) {
	if r.ticket != nil {
		return &ticketResolver{root: r.root, viewer: r.viewer, t: r.ticket}, nil
	}
	ticket, err := r.root.tickets.TicketFor(ctx, r.viewer, r.a)
	if err != nil {
		if hidden(err) {
			return nil, nil
		}
		return nil, r.root.resolverError(err)
	}
	return &ticketResolver{root: r.root, viewer: r.viewer, t: ticket}, nil
}

type couponResolver struct {
	c *domain.Coupon
}

func (r *couponResolver) ID() graphql.ID       { return formatID(r.c.ID) }
func (r *couponResolver) Title() string        { return r.c.Title }
func (r *couponResolver) Code() string         { return r.c.Code.String() }
func (r *couponResolver) DiscountPrice() int32 { return int32(r.c.DiscountPrice) }
func (r *couponResolver) IsActive() bool       { return r.c.IsActive }

func (r *couponResolver) StartAt() graphql.Time {
	return graphql.Time{Time: r.c.StartAt}
}

func (r *couponResolver) EndAt() graphql.Time {
	return graphql.Time{Time: r.c.EndAt}
}

type tokenPayloadResolver struct {
	p *domain.TokenPayload
}

func (r *tokenPayloadResolver) AccountID() graphql.ID { return formatID(r.p.AccountID) }
func (r *tokenPayloadResolver) Username() string      { return r.p.Username }

func (r *tokenPayloadResolver) IssuedAt() *graphql.Time {
	if r.p.IssuedAt.IsZero() {
		return nil
	}
	return &graphql.Time{Time: r.p.IssuedAt}
}

func (r *tokenPayloadResolver) Exp() graphql.Time {
	return graphql.Time{Time: r.p.ExpiresAt}
}

// hidden reports errors that nested fields render as a plain null.
func hidden(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrUnauthenticated)
}
