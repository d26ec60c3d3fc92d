package grpc

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/voxcore/assistant-sdk/internal/directive"
	"github.com/voxcore/assistant-sdk/internal/logger"
)

// Config configures the reference transport's listen address and
// transport security. Creds is nil by default, matching the teacher's
// insecure.NewCredentials() fallback for non-production telemetry
// dialing; set it to a credentials.TransportCredentials built from a
// real certificate pair before exposing this beyond a loopback dev
// listener.
type Config struct {
	Addr  string
	Creds credentials.TransportCredentials
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8733"
	}
	if c.Creds == nil {
		c.Creds = insecure.NewCredentials()
	}
}

// Server is a reference, out-of-core gRPC transport adapter: it accepts
// a bidi stream of directive frames from a cloud-side stub and forwards
// each one to the wired Processor. It demonstrates that a transport is
// just another directive producer calling OnDirective — it is not part
// of the core and a real deployment may replace it entirely with its
// own wire protocol.
type Server struct {
	grpcServer *grpc.Server
	processor  *directive.Processor
	config     Config
}

// NewServer builds a Server in a stopped state. Call Start to listen.
func NewServer(config Config, processor *directive.Processor) *Server {
	config.applyDefaults()

	s := &Server{processor: processor, config: config}
	s.grpcServer = grpc.NewServer(
		grpc.Creds(config.Creds),
		grpc.ForceServerCodec(jsonCodec{}),
	)
	s.grpcServer.RegisterService(&serviceDesc, s)
	return s
}

// Start listens on Config.Addr and serves until ctx is cancelled, then
// gracefully stops. Mirrors internal/api.Server.Start's errChan/select
// shape.
func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("grpc transport: listen: %w", err)
	}
	return s.Serve(ctx, lis)
}

// Serve runs the server on an already-bound listener until ctx is
// cancelled, then gracefully stops. Split out from Start so tests can
// bind an ephemeral port and learn its address before serving begins.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("grpc transport listening", "addr", lis.Addr().String())
		if err := s.grpcServer.Serve(lis); err != nil {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errChan:
		return fmt.Errorf("grpc transport failed: %w", err)
	}
}

// Stop gracefully drains in-flight streams and stops serving. Safe to
// call multiple times.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}
