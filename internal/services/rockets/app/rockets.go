package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	cmdentry "github.com/louisbranch/rocketwatch/internal/platform/cmd"
	rocketsgrpc "github.com/louisbranch/rocketwatch/internal/services/rockets/api/grpc/rockets"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/api/httpapi"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/query"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/storage/sqlite"
)

// RocketsConfig configures the rockets query process.
type RocketsConfig struct {
	GRPCPort int
	// HTTPAddr is the dashboard API address; empty disables HTTP.
	HTTPAddr string
	MaxConns int
	DBPath   string
	// ListPageSize is the number of rockets read per store page when listing.
	ListPageSize int
}

// NewRocketsServer opens the store and wires the query APIs.
func NewRocketsServer(ctx context.Context, cfg RocketsConfig) (*Server, error) {
	server, err := newServer(cmdentry.ServiceRockets, cfg.GRPCPort)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg.DBPath)
	if err != nil {
		server.abort()
		return nil, err
	}
	server.onClose(store.Close)

	queries, err := query.New(store, query.WithListPageSize(cfg.ListPageSize))
	if err != nil {
		server.abort()
		return nil, err
	}

	mux := http.NewServeMux()
	httpapi.NewRocketsHandler(queries, log.Printf).RegisterRoutes(mux)
	if err := server.listenHTTP(cfg.HTTPAddr, cfg.MaxConns, mux); err != nil {
		server.abort()
		return nil, err
	}

	rocketsgrpc.RegisterRocketServiceServer(server.grpcServer, rocketsgrpc.NewRocketService(queries))
	server.registerHealth(rocketsgrpc.ServiceName)
	return server, nil
}

// RunRockets serves the rockets query process until ctx ends.
func RunRockets(ctx context.Context, cfg RocketsConfig) error {
	server, err := NewRocketsServer(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

func openStore(ctx context.Context, path string) (*sqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open rockets sqlite store: %w", err)
	}
	return store, nil
}
