package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eventgraph/internal/auth"
	"eventgraph/pkg/logger"
)

// Identity resolves the Authorization header into a request identity.
// Missing or invalid tokens degrade to anonymous; resolvers decide per
// operation whether authentication is required.
func Identity(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := auth.Anonymous()
		if raw := auth.BearerToken(c.GetHeader("Authorization")); raw != "" {
			if verified, err := tokens.Verify(raw); err == nil {
				identity = verified
			}
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// RequestLogger emits one structured line per request.
func RequestLogger() gin.HandlerFunc {
	log := logger.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
