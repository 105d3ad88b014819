// Package rocketctl implements a small command line client for the rockets
// gRPC API.
package rocketctl

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/rocketwatch/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/rocketwatch/internal/platform/grpc"
	"github.com/louisbranch/rocketwatch/internal/platform/timeouts"
	rocketsv1 "github.com/louisbranch/rocketwatch/internal/services/rockets/api/grpc/rockets"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Commands accepted as the first positional argument.
const (
	CommandGet    = "get"
	CommandList   = "list"
	CommandSearch = "search"
)

// Config holds rocketctl configuration.
type Config struct {
	Addr        string        `env:"ROCKETCTL_ADDR" envDefault:"localhost:8082"`
	DialTimeout time.Duration `env:"ROCKETCTL_DIAL_TIMEOUT"`
	Timeout     time.Duration `env:"ROCKETCTL_TIMEOUT"`

	Command  string
	RocketID string
	Criteria string
	SortBy   string
	Filter   string
}

// Client is the subset of the rockets API rocketctl calls.
type Client interface {
	GetRocket(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListRockets(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
	SearchRockets(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error)
}

// ParseConfig parses environment and flags into Config. The first positional
// argument selects the command; get takes the rocket id as the second.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{DialTimeout: timeouts.GRPCDial, Timeout: timeouts.GRPCRequest}
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "rockets gRPC address")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "connect and health check timeout")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "request timeout")
	fs.StringVar(&cfg.Criteria, "criteria", "", "search criteria as a JSON object")
	fs.StringVar(&cfg.SortBy, "sort-by", "", "search sort field with optional asc/desc suffix")
	fs.StringVar(&cfg.Filter, "filter", "", "search filter expression")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return Config{}, errors.New("command is required: get, list, or search")
	}
	cfg.Command = strings.ToLower(strings.TrimSpace(rest[0]))
	switch cfg.Command {
	case CommandGet:
		if len(rest) < 2 || strings.TrimSpace(rest[1]) == "" {
			return Config{}, errors.New("get requires a rocket id")
		}
		cfg.RocketID = strings.TrimSpace(rest[1])
	case CommandList, CommandSearch:
	default:
		return Config{}, fmt.Errorf("unknown command %q", rest[0])
	}
	return cfg, nil
}

// Run dials the rockets service and executes the configured command.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	conn, err := platformgrpc.DialWithHealth(ctx, cfg.Addr, platformgrpc.DialConfig{
		Service: rocketsv1.ServiceName,
		Timeout: cfg.DialTimeout,
	})
	if err != nil {
		return err
	}
	defer conn.Close()
	return Execute(ctx, rocketsv1.NewRocketServiceClient(conn), cfg, out)
}

// Execute runs the configured command against client and writes the JSON
// response to out.
func Execute(ctx context.Context, client Client, cfg Config, out io.Writer) error {
	if client == nil {
		return errors.New("client is required")
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	var resp proto.Message
	var err error
	switch cfg.Command {
	case CommandGet:
		resp, err = client.GetRocket(ctx, wrapperspb.String(cfg.RocketID))
	case CommandList:
		resp, err = client.ListRockets(ctx, &emptypb.Empty{})
	case CommandSearch:
		var req *structpb.Struct
		req, err = searchStruct(cfg)
		if err != nil {
			return err
		}
		resp, err = client.SearchRockets(ctx, req)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.Command, err)
	}

	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func searchStruct(cfg Config) (*structpb.Struct, error) {
	fields := map[string]any{}
	if raw := strings.TrimSpace(cfg.Criteria); raw != "" {
		var criteria map[string]any
		if err := json.Unmarshal([]byte(raw), &criteria); err != nil {
			return nil, fmt.Errorf("parse criteria: %w", err)
		}
		fields["criteria"] = criteria
	}
	if cfg.SortBy != "" {
		fields["sort_by"] = cfg.SortBy
	}
	if cfg.Filter != "" {
		fields["filter"] = cfg.Filter
	}
	return structpb.NewStruct(fields)
}
