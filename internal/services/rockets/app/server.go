// Package app assembles the rocketwatch processes: the rockets query API, the
// messages ingress, and the queue consumer.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	platformgrpc "github.com/louisbranch/rocketwatch/internal/platform/grpc"
	"github.com/louisbranch/rocketwatch/internal/platform/timeouts"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

var errWorkStopped = errors.New("background work stopped")

// defaultMaxHTTPConns caps concurrent HTTP connections when a process does not
// configure its own limit.
const defaultMaxHTTPConns = 1024

// Server hosts one process: a gRPC listener with the health service, an
// optional HTTP API, and optional background work.
type Server struct {
	name         string
	listener     net.Listener
	grpcServer   *grpc.Server
	health       *health.Server
	httpListener net.Listener
	httpServer   *http.Server
	work         func(context.Context) error
	closers      []func() error
}

func newServer(name string, grpcPort int) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", grpcPort))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", grpcPort, err)
	}
	return &Server{
		name:       name,
		listener:   listener,
		grpcServer: grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler())),
	}, nil
}

func (s *Server) listenHTTP(addr string, maxConns int, handler http.Handler) error {
	if strings.TrimSpace(addr) == "" {
		return nil
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on http addr %s: %w", addr, err)
	}
	if maxConns <= 0 {
		maxConns = defaultMaxHTTPConns
	}
	s.httpListener = netutil.LimitListener(listener, maxConns)
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return nil
}

// onClose registers fn to run after the server stops, in reverse order.
func (s *Server) onClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Addr returns the gRPC listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// HTTPAddr returns the HTTP listener address, or "" when HTTP is disabled.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Serve runs until ctx ends, a listener fails, or the background work stops.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.close()

	group, groupCtx := errgroup.WithContext(ctx)

	log.Printf("%s server listening at %v", s.name, s.listener.Addr())
	group.Go(func() error {
		if err := s.grpcServer.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})
	if s.httpServer != nil {
		log.Printf("%s HTTP server listening at %v", s.name, s.httpListener.Addr())
		group.Go(func() error {
			if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve HTTP: %w", err)
			}
			return nil
		})
	}
	if s.work != nil {
		group.Go(func() error {
			if err := s.work(groupCtx); err != nil {
				return err
			}
			return errWorkStopped
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		s.shutdown()
		return nil
	})

	err := group.Wait()
	if errors.Is(err, errWorkStopped) {
		return nil
	}
	return err
}

func (s *Server) shutdown() {
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("%s HTTP shutdown: %v", s.name, err)
		}
	}
	s.grpcServer.GracefulStop()
}

// close releases listeners and dependencies; used after Serve or when
// construction fails part way.
func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Printf("%s close: %v", s.name, err)
		}
	}
	s.closers = nil
}

func (s *Server) abort() {
	_ = s.listener.Close()
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	s.close()
}

func (s *Server) registerHealth(services ...string) {
	s.health = platformgrpc.RegisterHealth(s.grpcServer, services...)
}
