package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"reliefboard/internal/handler"
	"reliefboard/internal/util"
	"reliefboard/pkg/metrics"
	"reliefboard/pkg/rbac"
	"reliefboard/pkg/trace"
)

// AuthMiddleware validates the bearer token and stores user_id and role.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := util.ParseJWT(token, jwtSecret)
		if err != nil {
			msg := "invalid token"
			if util.IsTokenExpired(err) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		role := claims.Role
		if !rbac.IsValidRole(role) {
			role = rbac.RoleUser
		}

		c.Set(handler.CtxUserID, claims.UserID)
		c.Set(handler.CtxRole, role)
		c.Next()
	}
}

// RequirePermission aborts with 403 unless the caller's role grants permission.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(handler.CtxUserID); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}

		if err := rbac.CheckPermission(c.GetString(handler.CtxRole), permission); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}

		c.Next()
	}
}

// TraceMiddleware reuses an incoming X-Trace-ID or assigns one.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(trace.HeaderName())
		if traceID == "" {
			traceID = trace.GenerateTraceID()
		}
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName(), traceID)
		c.Next()
	}
}

// MetricsMiddleware records request latency by route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
