package daemon

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/matheus3301/imsgwatch/internal/bus"
	"github.com/matheus3301/imsgwatch/internal/status"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the service name reported by the health endpoint.
const HealthService = "imsgwatch"

// Server exposes the watcher state as a gRPC health service on a Unix socket.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
	socketPath string
	logger     *zap.Logger
	unsub      func()
	done       chan struct{}
}

// NewServer binds the socket and mirrors machine's state into the health
// service until Stop.
func NewServer(socketPath string, machine *status.Machine, b *bus.Bus, logger *zap.Logger) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	// Clean stale socket if it exists.
	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	s := &Server{
		grpcServer: srv,
		health:     hs,
		listener:   listener,
		socketPath: socketPath,
		logger:     logger,
		done:       make(chan struct{}),
	}

	ch, unsub := b.Subscribe(bus.KindStatusChanged, 16)
	s.unsub = unsub
	s.setState(machine.Current())
	go s.follow(ch)
	return s, nil
}

func (s *Server) follow(ch <-chan bus.Event) {
	for {
		select {
		case evt := <-ch:
			if change, ok := evt.Payload.(status.StatusChange); ok {
				s.setState(change.To)
			}
		case <-s.done:
			return
		}
	}
}

func (s *Server) setState(st status.State) {
	serving := healthpb.HealthCheckResponse_NOT_SERVING
	if st == status.Watching {
		serving = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(HealthService, serving)
	s.health.SetServingStatus("", serving)
}

// SocketPath returns the socket the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins serving gRPC requests. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info("health server starting", zap.String("socket", s.socketPath))
	return s.grpcServer.Serve(s.listener)
}

// Stop performs a graceful shutdown and removes the socket file.
func (s *Server) Stop(_ context.Context) {
	s.logger.Info("health server stopping")
	s.unsub()
	close(s.done)
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	_ = os.Remove(s.socketPath)
}

// CheckHealth dials socketPath and returns the serving status of the watcher.
func CheckHealth(ctx context.Context, socketPath string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := dial(socketPath)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	defer func() { _ = conn.Close() }()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: HealthService})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("health check: %w", err)
	}
	return resp.GetStatus(), nil
}
