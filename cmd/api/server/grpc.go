package server

import (
	grpcadapter "users-service/internal/adapter/grpc"
	"users-service/internal/adapter/grpc/middleware"
	"users-service/pkg/logger"

	"go.uber.org/zap"
	grpc "google.golang.org/grpc"
)

// SetupGRPC creates and configures the gRPC server
func SetupGRPC(svc *grpcadapter.UserServiceServer, l *zap.Logger, rateLimiter *middleware.RateLimiter) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.RecoveryInterceptor(l),
			logger.RequestIDInterceptor(),
			middleware.LoggingInterceptor(l),
			rateLimiter.UnaryInterceptor(),
		),
	)
	grpcadapter.RegisterUsersServiceServer(grpcServer, svc)

	return grpcServer
}
