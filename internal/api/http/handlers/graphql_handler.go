package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	graphql "github.com/graph-gophers/graphql-go"

	"github.com/spec-kit/support-accounts/internal/observability"
	apperrors "github.com/spec-kit/support-accounts/pkg/util"
)

// GraphQLHandler executes GraphQL requests against the schema.
type GraphQLHandler struct {
	schema  *graphql.Schema
	metrics *observability.Metrics
}

// NewGraphQLHandler constructs handler.
func NewGraphQLHandler(schema *graphql.Schema, metrics *observability.Metrics) *GraphQLHandler {
	return &GraphQLHandler{schema: schema, metrics: metrics}
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Serve handles GET /graphql?query=... and POST /graphql.
func (h *GraphQLHandler) Serve(c *fiber.Ctx) error {
	var req graphQLRequest
	if c.Method() == fiber.MethodGet {
		req.Query = c.Query("query")
		req.OperationName = c.Query("operationName")
		if raw := c.Query("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
				return apperrors.NewFieldError("variables", "variables must be a JSON object")
			}
		}
	} else if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Query) == "" {
		return apperrors.NewFieldError("query", "query is required")
	}

	resp := h.schema.Exec(c.UserContext(), req.Query, req.OperationName, req.Variables)
	h.metrics.RecordOperation(req.OperationName, len(resp.Errors) > 0)
	return c.JSON(resp)
}
