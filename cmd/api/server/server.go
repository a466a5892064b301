package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"users-service/cmd/api/di"
	"users-service/internal/config"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	GRPC   *grpc.Server // nil when GRPC_ENABLED is false
	Gin    *http.Server

	ginListener  net.Listener
	grpcListener net.Listener
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, c *di.Container) *Server {
	s := &Server{
		Config: cfg,
		Logger: l,
		Gin:    SetupGinServer(cfg, c.GinHandler, c.RateLimiter, c.HealthChecks(), l),
	}
	if cfg.App.GRPCEnabled {
		s.GRPC = SetupGRPC(c.GRPCService, l, c.RateLimiter)
	}
	return s
}

// Listen binds the configured ports. Start calls it when it has not been called.
func (s *Server) Listen(ctx context.Context) error {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", s.Gin.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Gin.Addr, err)
	}
	s.ginListener = lis

	if s.GRPC != nil {
		lis, err := lc.Listen(ctx, "tcp", s.grpcAddress())
		if err != nil {
			_ = s.ginListener.Close()
			return fmt.Errorf("failed to listen on %s: %w", s.grpcAddress(), err)
		}
		s.grpcListener = lis
	}
	return nil
}

// Start serves HTTP and gRPC until both stop. If either server fails, the
// other is stopped and the first serve error is returned. Canceling ctx does
// not stop serving; call Shutdown for a graceful stop.
func (s *Server) Start(ctx context.Context) error {
	if s.ginListener == nil {
		if err := s.Listen(ctx); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))

	var serving sync.WaitGroup
	serve := func(fn func() error) {
		serving.Add(1)
		g.Go(func() error {
			defer serving.Done()
			return fn()
		})
	}

	serve(func() error {
		s.Logger.Info("Gin REST API running", zap.String("address", s.ginListener.Addr().String()))
		if err := s.Gin.Serve(s.ginListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gin server: %w", err)
		}
		return nil
	})

	if s.GRPC != nil {
		serve(func() error {
			s.Logger.Info("gRPC server running", zap.String("address", s.grpcListener.Addr().String()))
			if err := s.GRPC.Serve(s.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("gRPC server: %w", err)
			}
			return nil
		})
	}

	served := make(chan struct{})
	go func() {
		serving.Wait()
		close(served)
	}()

	g.Go(func() error {
		select {
		case <-served:
		case <-gctx.Done():
			s.Logger.Error("server failed, stopping the remaining servers")
			s.stop()
		}
		return nil
	})

	return g.Wait()
}

// stop closes both servers without waiting for in-flight requests.
func (s *Server) stop() {
	if err := s.Gin.Close(); err != nil {
		s.Logger.Warn("failed to close Gin server", zap.Error(err))
	}
	if s.GRPC != nil {
		s.GRPC.Stop()
	}
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.Gin != nil {
		s.Logger.Info("shutting down Gin server...")
		if err := s.Gin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("gin shutdown: %w", err))
		}
	}

	if s.GRPC != nil {
		s.Logger.Info("shutting down gRPC server...")
		done := make(chan struct{})
		go func() {
			s.GRPC.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			s.GRPC.Stop()
			errs = append(errs, fmt.Errorf("gRPC shutdown: %w", ctx.Err()))
		}
	}

	return errors.Join(errs...)
}

// HTTPAddr returns the bound HTTP address, or "" before Listen.
func (s *Server) HTTPAddr() string {
	if s.ginListener == nil {
		return ""
	}
	return s.ginListener.Addr().String()
}

// GRPCAddr returns the bound gRPC address, or "" before Listen.
func (s *Server) GRPCAddr() string {
	if s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// grpcAddress returns the configured gRPC server address
func (s *Server) grpcAddress() string {
	return ":" + s.Config.App.GRPCPort
}
