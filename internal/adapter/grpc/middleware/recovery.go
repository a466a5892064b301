package middleware

import (
	"context"
	"time"

	"users-service/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RecoveryInterceptor turns a panic in a handler into codes.Internal.
func RecoveryInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		defer func() {
			if p := recover(); p != nil {
				logger.WithContext(ctx, log).Error("panic recovered",
					zap.Any("panic", p),
					zap.String("method", info.FullMethod),
					zap.Stack("stack"),
				)
				resp, err = nil, status.Error(codes.Internal, "An internal error occurred")
			}
		}()
		return handler(ctx, req)
	}
}

// LoggingInterceptor writes one structured line per call.
func LoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}

		l := logger.WithContext(ctx, log)
		switch code {
		case codes.OK:
			l.Info("gRPC request", fields...)
		case codes.Internal, codes.Unknown, codes.Unavailable:
			l.Error("gRPC request", append(fields, zap.Error(err))...)
		default:
			l.Warn("gRPC request", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}
