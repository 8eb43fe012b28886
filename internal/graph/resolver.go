package graph

import (
	"strconv"

	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	"github.com/spec-kit/support-accounts/internal/service"
)

// Resolver is the root of both Query and Mutation. Each field reads the
// request viewer once and hands it to the service layer.
type Resolver struct {
	accounts *service.AccountService
	tickets  *service.TicketService
	coupons  *service.CouponService
	logger   *zap.Logger
}

// Dependencies bundles the services the resolvers call.
type Dependencies struct {
	Accounts *service.AccountService
	Tickets  *service.TicketService
	Coupons  *service.CouponService
	Logger   *zap.Logger
}

// NewResolver builds the root resolver.
func NewResolver(deps Dependencies) *Resolver {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		accounts: deps.Accounts,
		tickets:  deps.Tickets,
		coupons:  deps.Coupons,
		logger:   logger,
	}
}

func formatID(id int64) graphql.ID {
	return graphql.ID(strconv.FormatInt(id, 10))
}

// parseID reports false for anything that is not a positive integer id.
func parseID(id graphql.ID) (int64, bool) {
	v, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
