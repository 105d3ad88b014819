// Package consumer parses consumer command flags and launches the queue
// consumer.
package consumer

import (
	"context"
	"flag"

	"github.com/louisbranch/rocketwatch/internal/cmd/queueconfig"
	entrypoint "github.com/louisbranch/rocketwatch/internal/platform/cmd"
	rocketsapp "github.com/louisbranch/rocketwatch/internal/services/rockets/app"
)

// Config holds consumer command configuration.
type Config struct {
	Port        int    `env:"CONSUMER_GRPC_PORT" envDefault:"8089"`
	DBPath      string `env:"DB_PATH" envDefault:"data/rockets.db"`
	Name        string `env:"CONSUMER_NAME" envDefault:"rockets-consumer"`
	Workers     int    `env:"CONSUMER_WORKERS" envDefault:"4"`
	Incremental bool   `env:"CONSUMER_INCREMENTAL" envDefault:"false"`
	Queue       queueconfig.Config
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The consumer health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The rockets SQLite database path")
	fs.StringVar(&cfg.Name, "consumer", cfg.Name, "Consumer name recorded on attempts")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Concurrent queue workers")
	fs.BoolVar(&cfg.Incremental, "incremental", cfg.Incremental, "Apply in-order events without a full replay")
	queueconfig.RegisterFlags(fs, &cfg.Queue)
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the consumer runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceConsumer, func(ctx context.Context) error {
		return rocketsapp.RunConsumer(ctx, rocketsapp.ConsumerConfig{
			GRPCPort:    cfg.Port,
			DBPath:      cfg.DBPath,
			Name:        cfg.Name,
			Workers:     cfg.Workers,
			Incremental: cfg.Incremental,
			Queue:       cfg.Queue.App(),
		})
	})
}
