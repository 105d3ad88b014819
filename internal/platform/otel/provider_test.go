package otel

import (
	"context"
	"testing"
)

func TestSettingsActive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		settings Settings
		want     bool
	}{
		{name: "no endpoint", settings: Settings{}, want: false},
		{name: "endpoint", settings: Settings{Endpoint: "http://collector:4318"}, want: true},
		{name: "disabled", settings: Settings{Endpoint: "http://collector:4318", Enabled: "FALSE"}, want: false},
		{name: "blank endpoint", settings: Settings{Endpoint: "  ", Enabled: "true"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.settings.Active(); got != tt.want {
				t.Fatalf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{raw: "", wantOK: false},
		{raw: "not-a-number", wantOK: false},
		{raw: "0", wantOK: false},
		{raw: "1", wantOK: false},
		{raw: " 0.25 ", want: 0.25, wantOK: true},
	}
	for _, tt := range tests {
		got, ok := parseRatio(tt.raw)
		if ok != tt.wantOK || got != tt.want {
			t.Fatalf("parseRatio(%q) = %v, %v, want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSetupNoopWithoutEndpoint(t *testing.T) {
	t.Setenv("ROCKETWATCH_OTEL_ENDPOINT", "")

	shutdown, err := Setup(context.Background(), "rockets")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
}

func TestSetupNoopWhenDisabled(t *testing.T) {
	t.Setenv("ROCKETWATCH_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("ROCKETWATCH_OTEL_ENABLED", "false")

	shutdown, err := Setup(context.Background(), "consumer")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupWithEndpointFlushesCleanly(t *testing.T) {
	// Non-routable address: nothing is exported before shutdown.
	shutdown, err := SetupWith(context.Background(), "messages", Settings{
		Endpoint:    "http://192.0.2.1:4318",
		SampleRatio: "not-a-number",
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
