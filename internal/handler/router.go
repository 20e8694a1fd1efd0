package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"

	"eventgraph/config"
	"eventgraph/internal/auth"
)

// NewRouter builds the HTTP surface: CORS, identity resolution, the
// GraphQL endpoint and the health probe.
func NewRouter(cfg *config.Config, schema graphql.Schema, tokens *auth.TokenManager) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(Identity(tokens))

	NewGraphQLHandler(schema, tokens).RegisterRoutes(r)
	return r
}
