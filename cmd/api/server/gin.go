package server

import (
	"net/http"
	"time"

	ginhandler "users-service/internal/adapter/gin/handler"
	ginrouter "users-service/internal/adapter/gin/router"
	grpcmiddleware "users-service/internal/adapter/grpc/middleware"
	"users-service/internal/config"

	"go.uber.org/zap"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	cfg *config.Config,
	handler *ginhandler.UserHandler,
	rateLimiter *grpcmiddleware.RateLimiter,
	healthChecks map[string]ginrouter.HealthCheck,
	l *zap.Logger,
) *http.Server {
	router := ginrouter.SetupRouter(ginrouter.Options{
		UserHandler:        handler,
		RateLimiter:        rateLimiter,
		CORSAllowedOrigins: cfg.App.CORSAllowedOrigins,
		SwaggerEnabled:     cfg.App.SwaggerEnabled,
		HealthChecks:       healthChecks,
		Log:                l,
	})

	return &http.Server{
		Addr:              ":" + cfg.App.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
