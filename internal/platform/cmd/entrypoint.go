// Package cmd holds the startup plumbing shared by rocketwatch commands:
// environment and flag parsing, log prefixes, and telemetry lifetime.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/louisbranch/rocketwatch/internal/platform/config"
	"github.com/louisbranch/rocketwatch/internal/platform/otel"
	"github.com/louisbranch/rocketwatch/internal/platform/timeouts"
)

// Service identifiers used for telemetry resources, log prefixes, and binary
// names.
const (
	ServiceConsumer = "consumer"
	ServiceMessages = "messages"
	ServiceRockets  = "rockets"
	ServiceStack    = "stack"
)

// LogPrefix returns the bracketed log prefix for a service, e.g. "[ROCKETS] ".
func LogPrefix(service string) string {
	return "[" + strings.ToUpper(strings.TrimSpace(service)) + "] "
}

// ParseConfig loads ROCKETWATCH_* environment defaults into cfg. Commands
// register flags against cfg afterwards so flags override the environment.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry installs the trace provider for service, runs the service
// loop, and flushes spans once it returns.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
