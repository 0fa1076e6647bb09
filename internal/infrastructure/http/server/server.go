// Package server provides the HTTP server for the meal planner API
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/config"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/http/handlers"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/http/middleware"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/monitoring"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/pkg/errors"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/pkg/healthcheck"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	logger  *zap.Logger
	router  *gin.Engine
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new HTTP server instance. metrics may be nil when
// metrics are disabled.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	api *handlers.APIHandlers,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: cfg,
		logger: logger.Named("server"),
	}
	s.router = s.setupRouter(api, health, metrics)

	s.handler = s.router
	if cfg.Monitoring.EnableTracing {
		s.handler = otelhttp.NewHandler(s.router, "http.server",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter(api *handlers.APIHandlers, health *healthcheck.HealthCheck, metrics *monitoring.MetricsCollector) *gin.Engine {
	mw := middleware.New(s.config, s.logger)

	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(mw.RequestID())
	r.Use(mw.Recovery())
	r.Use(mw.Logger())
	if metrics != nil {
		r.Use(metrics.HTTPMiddleware())
	}
	r.Use(mw.Security())
	r.Use(mw.CORS())

	healthPath := s.config.Monitoring.HealthCheckPath
	r.GET(healthPath, health.Handler())
	r.GET(healthPath+"/live", health.LivenessHandler())
	r.GET(healthPath+"/ready", health.ReadinessHandler())
	if metrics != nil {
		r.GET(s.config.Monitoring.MetricsPath, gin.WrapH(metrics.Handler()))
	}

	apiGroup := r.Group("")
	apiGroup.Use(mw.RateLimit())
	apiGroup.Use(mw.Timeout(s.config.Server.RequestTimeout))
	apiGroup.Use(mw.ErrorHandler())
	api.RegisterRoutes(apiGroup)

	r.NoRoute(func(c *gin.Context) {
		appErr := errors.NewNotFoundError("route")
		c.JSON(appErr.StatusCode(), errors.ToErrorResponse(appErr, c.GetString(middleware.RequestIDKey)))
	})
	r.NoMethod(func(c *gin.Context) {
		appErr := errors.NewAppError(errors.CodeBadRequest, "Method not allowed", c.Request.Method)
		c.JSON(http.StatusMethodNotAllowed, errors.ToErrorResponse(appErr, c.GetString(middleware.RequestIDKey)))
	})

	return r
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the HTTP server. It blocks until the server stops and
// returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)

	if err := http2.ConfigureServer(s.server, nil); err != nil {
		s.logger.Error("Failed to configure HTTP/2", zap.Error(err))
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
