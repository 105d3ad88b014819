package rocketctl

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type fakeClient struct {
	rocketID string
	search   *structpb.Struct
	err      error
}

func (f *fakeClient) GetRocket(_ context.Context, in *wrapperspb.StringValue, _ ...grpc.CallOption) (*structpb.Struct, error) {
	f.rocketID = in.GetValue()
	if f.err != nil {
		return nil, f.err
	}
	return structpb.NewStruct(map[string]any{"rocketUuid": in.GetValue(), "speed": 1100})
}

func (f *fakeClient) ListRockets(context.Context, *emptypb.Empty, ...grpc.CallOption) (*structpb.ListValue, error) {
	return structpb.NewList([]any{map[string]any{"rocketUuid": "r-1", "mission": "MARS"}})
}

func (f *fakeClient) SearchRockets(_ context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.ListValue, error) {
	f.search = in
	return &structpb.ListValue{}, nil
}

func TestParseConfigCommands(t *testing.T) {
	fs := flag.NewFlagSet("rocketctl", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-addr", "rockets:8082", "get", "r-1"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Command != CommandGet || cfg.RocketID != "r-1" || cfg.Addr != "rockets:8082" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Timeout <= 0 || cfg.DialTimeout <= 0 {
		t.Fatalf("timeouts = %v/%v, want defaults", cfg.DialTimeout, cfg.Timeout)
	}
}

func TestParseConfigRejectsBadCommands(t *testing.T) {
	cases := [][]string{
		nil,
		{"get"},
		{"launch"},
	}
	for _, args := range cases {
		fs := flag.NewFlagSet("rocketctl", flag.ContinueOnError)
		if _, err := ParseConfig(fs, args); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestExecuteGet(t *testing.T) {
	client := &fakeClient{}
	var out bytes.Buffer
	if err := Execute(context.Background(), client, Config{Command: CommandGet, RocketID: "r-1"}, &out); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if client.rocketID != "r-1" {
		t.Fatalf("rocket id = %q, want r-1", client.rocketID)
	}
	if !strings.Contains(out.String(), `"r-1"`) {
		t.Fatalf("output = %s", out.String())
	}
}

func TestExecuteList(t *testing.T) {
	var out bytes.Buffer
	if err := Execute(context.Background(), &fakeClient{}, Config{Command: CommandList}, &out); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), `"MARS"`) {
		t.Fatalf("output = %s", out.String())
	}
}

func TestExecuteSearchBuildsRequest(t *testing.T) {
	client := &fakeClient{}
	cfg := Config{
		Command:  CommandSearch,
		Criteria: `{"channel":"r-1"}`,
		SortBy:   "messageNumber desc",
		Filter:   `type = "RocketLaunched"`,
	}
	if err := Execute(context.Background(), client, cfg, &bytes.Buffer{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	fields := client.search.GetFields()
	if got := fields["criteria"].GetStructValue().GetFields()["channel"].GetStringValue(); got != "r-1" {
		t.Fatalf("criteria channel = %q, want r-1", got)
	}
	if got := fields["sort_by"].GetStringValue(); got != "messageNumber desc" {
		t.Fatalf("sort_by = %q", got)
	}
	if got := fields["filter"].GetStringValue(); got != `type = "RocketLaunched"` {
		t.Fatalf("filter = %q", got)
	}
}

func TestExecuteErrors(t *testing.T) {
	if err := Execute(context.Background(), nil, Config{Command: CommandList}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for nil client")
	}
	if err := Execute(context.Background(), &fakeClient{}, Config{Command: CommandSearch, Criteria: "{"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for invalid criteria")
	}
	boom := errors.New("boom")
	err := Execute(context.Background(), &fakeClient{err: boom}, Config{Command: CommandGet, RocketID: "r-1"}, &bytes.Buffer{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}
