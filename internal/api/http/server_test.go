package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-accounts/internal/api/http/handlers"
	"github.com/spec-kit/support-accounts/internal/auth"
	"github.com/spec-kit/support-accounts/internal/config"
	"github.com/spec-kit/support-accounts/internal/domain"
	"github.com/spec-kit/support-accounts/internal/graph"
	"github.com/spec-kit/support-accounts/internal/observability"
	"github.com/spec-kit/support-accounts/internal/service"
	"github.com/spec-kit/support-accounts/internal/testutil"
)

type pingStub struct{ err error }

func (p pingStub) Ping(context.Context) error { return p.err }

type testServer struct {
	app    *fiber.App
	store  *testutil.Store
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T, deps map[string]handlers.Pinger) *testServer {
	t.Helper()
	store := testutil.NewStore()
	accounts := service.NewAccountService(config.AuthConfig{
		JWTSecret:             "http-secret",
		AccessTokenTTLMinutes: 5,
		RefreshTokenTTLHours:  1,
		ActivationTTLHours:    1,
		BcryptCost:            4,
	}, service.AccountDependencies{
		AccountRepo:     store.Accounts(),
		ActionTokenRepo: store.ActionTokens(),
		RefreshTokens:   store.RefreshTokens(),
		Transactor:      store.Transactor(),
	})
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  store.Tickets(),
		AnswerRepo:  store.Answers(),
		AccountRepo: store.Accounts(),
	})
	schema, err := graph.NewSchema(graph.NewResolver(graph.Dependencies{
		Accounts: accounts,
		Tickets:  tickets,
		Coupons:  service.NewCouponService(store.Coupons(), nil),
	}))
	require.NoError(t, err)

	metrics := observability.NewMetrics("test")
	app := NewServer(ServerConfig{
		AppName: "support-accounts-test",
		Logger:  zap.NewNop(),
		Metrics: metrics,
		Routes: RouteConfig{
			Health:         handlers.NewHealthHandler("support-accounts", "test", deps),
			GraphQL:        handlers.NewGraphQLHandler(schema, metrics),
			Metrics:        metrics,
			AuthMiddleware: auth.NewAuthMiddleware(accounts.TokenManager(), store.Accounts()),
		},
	})
	return &testServer{app: app, store: store, tokens: accounts.TokenManager()}
}

func (s *testServer) do(t *testing.T, method, target, body, authz string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if authz != "" {
		req.Header.Set(fiber.HeaderAuthorization, authz)
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (s *testServer) bearer(t *testing.T, account *domain.Account) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(account)
	require.NoError(t, err)
	return "JWT " + token
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, map[string]handlers.Pinger{"postgres": pingStub{}, "redis": pingStub{}})

	status, body := s.do(t, "GET", "/health/live", "", "")
	assert.Equal(t, 200, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do(t, "GET", "/health/ready", "", "")
	assert.Equal(t, 200, status)
	assert.Equal(t, "ready", body["status"])
}

func TestReadyReportsFailingDependency(t *testing.T) {
	s := newTestServer(t, map[string]handlers.Pinger{"postgres": pingStub{}, "redis": pingStub{err: errors.New("connection refused")}})

	status, body := s.do(t, "GET", "/health/ready", "", "")
	assert.Equal(t, 503, status)
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "ok", details["postgres"])
	assert.Equal(t, "connection refused", details["redis"])
}

func TestGraphQLOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.store.SeedAccount(t)
	authz := s.bearer(t, alice)

	status, body := s.do(t, "POST", "/graphql",
		`{"query":"mutation { createAndUpdateTicket(input: {title: \"Login issue\", userText: \"Cannot log in\"}) { success ticket { id } } }"}`,
		authz)
	require.Equal(t, 200, status)
	payload := body["data"].(map[string]any)["createAndUpdateTicket"].(map[string]any)
	assert.Equal(t, true, payload["success"])

	status, body = s.do(t, "GET", "/graphql?query="+url.QueryEscape("{ allTickets { title } }"), "", authz)
	require.Equal(t, 200, status)
	list := body["data"].(map[string]any)["allTickets"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Login issue", list[0].(map[string]any)["title"])

	status, body = s.do(t, "POST", "/graphql", `{"query":"{ allTickets { title } }"}`, "")
	require.Equal(t, 200, status)
	assert.Empty(t, body["data"].(map[string]any)["allTickets"])
}

func TestGraphQLNotFoundSentinelOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.store.SeedAccount(t)

	status, body := s.do(t, "POST", "/graphql",
		`{"query":"query($id: ID!) { ticket(id: $id) { id } }","variables":{"id":"404"}}`,
		"Bearer "+strings.TrimPrefix(s.bearer(t, alice), "JWT "))
	require.Equal(t, 200, status)
	errs := body["errors"].([]any)
	require.Len(t, errs, 1)
	first := errs[0].(map[string]any)
	assert.Equal(t, "Object not found", first["message"])
	assert.Equal(t, "NOT_FOUND", first["extensions"].(map[string]any)["code"])

	status, body = s.do(t, "POST", "/graphql",
		`{"query":"query($id: ID!) { ticket(id: $id) { id } }","variables":{"id":"404"}}`, "")
	require.Equal(t, 200, status)
	errs = body["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "NOT_FOUND", errs[0].(map[string]any)["extensions"].(map[string]any)["code"])
}

func TestGraphQLUsersDefaultsOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.store.SeedAccount(t, testutil.Staff)
	s.store.SeedAccount(t)

	status, body := s.do(t, "GET", "/graphql?query="+url.QueryEscape("{ users { username } }"), "", s.bearer(t, admin))
	require.Equal(t, 200, status)
	assert.Nil(t, body["errors"])
	assert.Len(t, body["data"].(map[string]any)["users"], 2)
}

func TestGraphQLRejectsBadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(t, "POST", "/graphql", `{"query":"{ allTickets { id } }"}`, "JWT not-a-token")
	assert.Equal(t, 401, status)
	assert.Equal(t, "UNAUTHORIZED", body["error"].(map[string]any)["code"])

	status, body = s.do(t, "POST", "/graphql", `{"query":"  "}`, "")
	assert.Equal(t, 400, status)
	assert.Equal(t, "VALIDATION_FAILED", body["error"].(map[string]any)["code"])

	status, body = s.do(t, "GET", "/graphql?query=%7Bme%7Bid%7D%7D&variables=nope", "", "")
	assert.Equal(t, 400, status)
	assert.Equal(t, "VALIDATION_FAILED", body["error"].(map[string]any)["code"])
}

func TestUnknownRouteAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(t, "GET", "/nope", "", "")
	assert.Equal(t, 404, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])

	s.do(t, "POST", "/graphql", `{"query":"{ allTickets { id } }","operationName":""}`, "")

	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(raw), "test_graphql_operations_total")
	assert.Contains(t, string(raw), "test_http_requests_total")
}

func TestToHTTPErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"fiber not found", fiber.ErrNotFound, "NOT_FOUND", 404},
		{"fiber method not allowed", fiber.ErrMethodNotAllowed, "VALIDATION_FAILED", 405},
		{"fiber body too large", fiber.ErrRequestEntityTooLarge, "VALIDATION_FAILED", 413},
		{"fiber other", fiber.ErrServiceUnavailable, "INTERNAL_ERROR", 503},
		{"hidden object", domain.ErrForbidden, "NOT_FOUND", 404},
		{"anonymous", domain.ErrUnauthenticated, "UNAUTHORIZED", 401},
		{"unknown", errors.New("boom"), "INTERNAL_ERROR", 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := toHTTPError(tt.err)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.status, de.HTTPStatus)
		})
	}
}
