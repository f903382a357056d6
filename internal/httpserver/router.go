package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"reliefboard/internal/handler"
	"reliefboard/pkg/rbac"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Auth     *handler.AuthHandler
	Requests *handler.RequestHandler
	Profile  *handler.ProfileHandler
	Classify *handler.ClassifyHandler
	Admin    *handler.AdminHandler
}

type Router struct {
	Engine *gin.Engine
}

func NewRouter(h Handlers, jwtSecret string, db Pinger, logger *zap.Logger) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), MetricsMiddleware(), accessLog(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/register", h.Auth.Register)
	r.POST("/login", h.Auth.Login)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.POST("/requests", RequirePermission(rbac.PermissionSubmitRequest), h.Requests.Submit)
		auth.GET("/requests", RequirePermission(rbac.PermissionReadFeed), h.Requests.Feed)
		auth.GET("/requests/mine", h.Requests.Mine)
		auth.DELETE("/requests/:id", RequirePermission(rbac.PermissionDeleteOwnRequest), h.Requests.Delete)

		auth.GET("/profile", h.Profile.Get)
		auth.PUT("/profile", h.Profile.Update)

		auth.POST("/classify", RequirePermission(rbac.PermissionClassify), h.Classify.Classify)

		if h.Admin != nil {
			admin := auth.Group("/admin", RequirePermission(rbac.PermissionReplayOutbox))
			admin.POST("/outbox/replay", h.Admin.ReplayOutboxEvent)
			admin.POST("/outbox/replay-failed", h.Admin.ReplayFailedEvents)
		}
	}

	return &Router{Engine: r}
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("trace_id", c.Writer.Header().Get("X-Trace-ID")),
		)
	}
}
