package router

import (
	"context"
	"net/http"
	"time"

	"users-service/api"
	"users-service/internal/adapter/gin/handler"
	"users-service/internal/adapter/gin/middleware"
	grpcmiddleware "users-service/internal/adapter/grpc/middleware"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

const (
	serviceName     = "users-service"
	swaggerSpecPath = "/users.swagger.json"
	healthTimeout   = 2 * time.Second
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Options configures SetupRouter.
type Options struct {
	UserHandler        *handler.UserHandler
	RateLimiter        *grpcmiddleware.RateLimiter // nil disables rate limiting
	CORSAllowedOrigins []string
	SwaggerEnabled     bool
	HealthChecks       map[string]HealthCheck
	Log                *zap.Logger
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(opts.Log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(opts.Log))
	router.Use(middleware.CORS(opts.CORSAllowedOrigins))
	router.Use(middleware.RateLimiter(opts.RateLimiter, opts.Log))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handler.ErrorResponse{
			Error:   "not_found",
			Message: "Not Found",
		})
	})

	router.GET("/health", health(opts.HealthChecks))

	if opts.SwaggerEnabled {
		ui := httpSwagger.Handler(httpSwagger.URL("/swagger" + swaggerSpecPath))
		router.GET("/swagger/*any", func(c *gin.Context) {
			if c.Param("any") == swaggerSpecPath {
				c.Data(http.StatusOK, "application/json", api.SwaggerJSON)
				return
			}
			ui.ServeHTTP(c.Writer, c.Request)
		})
	}

	users := router.Group("/users")
	{
		users.POST("/user", opts.UserHandler.CreateUsers)
		users.GET("/users", opts.UserHandler.ListUsers)
		users.DELETE("/user/:id", opts.UserHandler.DeleteUser)
	}

	return router
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":       state,
			"service":      serviceName,
			"dependencies": deps,
		})
	}
}
