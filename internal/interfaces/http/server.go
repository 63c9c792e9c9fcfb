// Package http serves the read-only status API: run history and health,
// backed by the provisioning ledger.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/erp/egnyte-provisioner/internal/infrastructure/config"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/logger"
	"github.com/erp/egnyte-provisioner/internal/infrastructure/persistence"
	"github.com/erp/egnyte-provisioner/internal/interfaces/http/handler"
	"github.com/erp/egnyte-provisioner/internal/interfaces/http/router"
)

// Server is the status HTTP server.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer builds the status server with its middleware stack and routes.
// db may be nil when the ledger is disabled; health then reports the
// database as disabled and the runs API serves empty history.
func NewServer(cfg *config.Config, ledger handler.RunReader, db *persistence.Database, log *zap.Logger) *Server {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	router.NewRouter(engine).
		Register(handler.NewRunsHandler(ledger)).
		Register(handler.NewSystemHandler()).
		Setup()

	return &Server{
		srv: &http.Server{
			Addr:         ":" + cfg.Status.Port,
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: log.Named("status-server"),
	}
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Status server starting", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Status server shutting down")
	return s.srv.Shutdown(ctx)
}

// healthHandler reports process liveness and ledger database health.
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "disabled"
		if db != nil {
			if err := db.Ping(); err != nil {
				logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":   "unhealthy",
					"time":     time.Now().Format(time.RFC3339),
					"database": "error",
				})
				return
			}
			dbStatus = "ok"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": dbStatus,
		})
	}
}
