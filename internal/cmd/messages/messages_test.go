package messages

import (
	"flag"
	"testing"
)

func TestParseConfigDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("messages", flag.ContinueOnError)
	t.Setenv("ROCKETWATCH_MESSAGES_HTTP_ADDR", "127.0.0.1:9088")

	cfg, err := ParseConfig(fs, []string{"-queue-driver", "kafka", "-port", "9087"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9088" {
		t.Fatalf("http addr = %q, want %q", cfg.HTTPAddr, "127.0.0.1:9088")
	}
	if cfg.Port != 9087 {
		t.Fatalf("port = %d, want 9087", cfg.Port)
	}
	if cfg.Queue.Driver != "kafka" {
		t.Fatalf("queue driver = %q, want kafka", cfg.Queue.Driver)
	}
	if cfg.Queue.SQSRegion != "us-east-1" {
		t.Fatalf("sqs region = %q, want us-east-1", cfg.Queue.SQSRegion)
	}
}
