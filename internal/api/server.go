package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/voxcore/assistant-sdk/internal/dialogux"
	"github.com/voxcore/assistant-sdk/internal/directive"
	"github.com/voxcore/assistant-sdk/internal/focus"
	"github.com/voxcore/assistant-sdk/internal/logger"
)

// Config configures Server. Grounded on pkg/api/config.go's
// port/timeout shape.
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8732
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 30 * time.Second
	}
}

// Server wraps an http.Server serving the diagnostics API, with
// graceful shutdown grounded on pkg/api/server.go's Start/Stop shape.
type Server struct {
	server       *http.Server
	config       Config
	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer builds a Server in a stopped state. Call Start to serve.
func NewServer(config Config, fm *focus.Manager, proc *directive.Processor, agg *dialogux.Aggregator, jwtService *JWTService) *Server {
	config.applyDefaults()
	startedAt := time.Now()
	router := NewRouter(fm, proc, agg, jwtService, startedAt)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		config:    config,
		startedAt: startedAt,
	}
}

// Start serves until ctx is cancelled, then gracefully shuts down.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("diagnostics api listening", "port", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("diagnostics api failed: %w", err)
	}
}

// Stop gracefully shuts down the server. Safe to call multiple times.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("diagnostics api shutdown: %w", err)
		}
	})
	return shutdownErr
}

// Port returns the configured listen port.
func (s *Server) Port() int {
	return s.config.Port
}
