package di

import (
	"context"
	"fmt"
	"time"

	"users-service/cmd/api/infrastructure"
	"users-service/internal/adapter/cache"
	"users-service/internal/adapter/db/postgres"
	ginhandler "users-service/internal/adapter/gin/handler"
	ginrouter "users-service/internal/adapter/gin/router"
	grpcadapter "users-service/internal/adapter/grpc"
	"users-service/internal/adapter/grpc/middleware"
	"users-service/internal/adapter/repository/cached"
	"users-service/internal/config"
	"users-service/internal/usecase/user"
	redisclient "users-service/pkg/redis"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client // nil when Redis is disabled
	UserUC      user.UserUsecase
	RateLimiter *middleware.RateLimiter // nil when Redis is disabled
	GinHandler  *ginhandler.UserHandler
	GRPCService *grpcadapter.UserServiceServer
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	var (
		userCache   cache.UserCache
		rateLimiter *middleware.RateLimiter
	)
	if rdb != nil {
		userCache = cache.NewRedisUserCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		rateLimiter = middleware.NewRateLimiter(
			rdb.Client,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
				Enabled:           cfg.RateLimit.Enabled,
			},
			l,
		)
	}

	// Store: GORM transactions, optionally behind the list cache
	store := cached.NewStore(postgres.NewStore(db, l), userCache, l)

	userUC := user.New(store, l)

	return &Container{
		Config:      cfg,
		Logger:      l,
		DB:          db,
		RedisClient: rdb,
		UserUC:      userUC,
		RateLimiter: rateLimiter,
		GinHandler:  ginhandler.NewUserHandler(userUC, l),
		GRPCService: grpcadapter.NewUserServiceServer(userUC, l),
	}, nil
}

// HealthChecks returns one probe per external dependency.
func (c *Container) HealthChecks() map[string]ginrouter.HealthCheck {
	checks := map[string]ginrouter.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := c.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if c.RedisClient != nil {
		checks["redis"] = c.RedisClient.Ping
	}
	return checks
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
