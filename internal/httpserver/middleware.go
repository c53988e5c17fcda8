package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tiffinbox/internal/domain"
)

// Identity headers supplied by the session collaborator in front of this
// service. The core trusts them as-is.
const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"

	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// identityMiddleware requires the identity headers and stores them on the
// request context.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(headerUserID))
		role := strings.TrimSpace(c.GetHeader(headerUserRole))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("unauthenticated", "missing identity"))
			return
		}
		if role == "" {
			role = domain.RoleCustomer
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxUserRole, role)
		c.Next()
	}
}

// requireOwner rejects non-owner actors.
func requireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxUserRole) != domain.RoleOwner {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody("forbidden", "owner role required"))
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// requestLogger logs each request through zerolog.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
