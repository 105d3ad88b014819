// Package rockets parses rockets query command flags and launches the service.
package rockets

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/rocketwatch/internal/platform/cmd"
	rocketsapp "github.com/louisbranch/rocketwatch/internal/services/rockets/app"
)

// Config holds rockets command configuration.
type Config struct {
	Port     int    `env:"ROCKETS_GRPC_PORT" envDefault:"8082"`
	HTTPAddr string `env:"ROCKETS_HTTP_ADDR" envDefault:":8080"`
	MaxConns int    `env:"ROCKETS_HTTP_MAX_CONNS" envDefault:"256"`
	DBPath   string `env:"DB_PATH" envDefault:"data/rockets.db"`
	// ListPageSize bounds each store read while listing rockets.
	ListPageSize int `env:"ROCKETS_LIST_PAGE_SIZE" envDefault:"1000"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The rockets gRPC server port")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The rockets HTTP API address; empty disables HTTP")
	fs.IntVar(&cfg.MaxConns, "http-max-conns", cfg.MaxConns, "Maximum concurrent HTTP connections")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The rockets SQLite database path")
	fs.IntVar(&cfg.ListPageSize, "list-page-size", cfg.ListPageSize, "Rockets read per store page when listing")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the rockets query service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRockets, func(ctx context.Context) error {
		return rocketsapp.RunRockets(ctx, rocketsapp.RocketsConfig{
			GRPCPort: cfg.Port,
			HTTPAddr: cfg.HTTPAddr,
			MaxConns: cfg.MaxConns,
			DBPath:   cfg.DBPath,

			ListPageSize: cfg.ListPageSize,
		})
	})
}
