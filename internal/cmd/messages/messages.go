// Package messages parses ingress command flags and launches the service.
package messages

import (
	"context"
	"flag"

	"github.com/louisbranch/rocketwatch/internal/cmd/queueconfig"
	entrypoint "github.com/louisbranch/rocketwatch/internal/platform/cmd"
	rocketsapp "github.com/louisbranch/rocketwatch/internal/services/rockets/app"
)

// Config holds messages command configuration.
type Config struct {
	Port     int    `env:"MESSAGES_GRPC_PORT" envDefault:"8087"`
	HTTPAddr string `env:"MESSAGES_HTTP_ADDR" envDefault:":8088"`
	MaxConns int    `env:"MESSAGES_HTTP_MAX_CONNS" envDefault:"1024"`
	Queue    queueconfig.Config
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The messages health gRPC server port")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The messages HTTP ingress address")
	fs.IntVar(&cfg.MaxConns, "http-max-conns", cfg.MaxConns, "Maximum concurrent ingress connections")
	queueconfig.RegisterFlags(fs, &cfg.Queue)
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the messages ingress service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMessages, func(ctx context.Context) error {
		return rocketsapp.RunMessages(ctx, rocketsapp.MessagesConfig{
			GRPCPort: cfg.Port,
			HTTPAddr: cfg.HTTPAddr,
			MaxConns: cfg.MaxConns,
			Queue:    cfg.Queue.App(),
		})
	})
}
