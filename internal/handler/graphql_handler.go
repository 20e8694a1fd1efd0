package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"

	"eventgraph/internal/auth"
)

// GraphQLHandler serves queries and mutations over POST and
// subscriptions over the websocket transport on the same path.
type GraphQLHandler struct {
	schema graphql.Schema
	tokens *auth.TokenManager
}

func NewGraphQLHandler(schema graphql.Schema, tokens *auth.TokenManager) *GraphQLHandler {
	return &GraphQLHandler{schema: schema, tokens: tokens}
}

func (h *GraphQLHandler) RegisterRoutes(r *gin.Engine) {
	r.POST("/graphql", h.Post)
	r.GET("/graphql", h.Websocket)
	r.GET("/health", h.Health)
}

type graphqlRequest struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

func (h *GraphQLHandler) Post(c *gin.Context) {
	var req graphqlRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        c.Request.Context(),
	})

	// Per-field errors ride in the errors array; the transport stays 200.
	c.JSON(http.StatusOK, result)
}

func (h *GraphQLHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
