package id

import (
	"testing"

	"github.com/google/uuid"
)

func TestEventIDIsStable(t *testing.T) {
	first := EventID("r-1", 7)
	if again := EventID("r-1", 7); again != first {
		t.Fatalf("EventID = %q then %q, want stable", first, again)
	}
	parsed, err := uuid.Parse(first)
	if err != nil {
		t.Fatalf("parse %q: %v", first, err)
	}
	if parsed.Version() != 5 {
		t.Fatalf("version = %d, want 5", parsed.Version())
	}
}

func TestEventIDSeparatesRocketsAndSequences(t *testing.T) {
	ids := map[string]bool{
		EventID("r-1", 1):  true,
		EventID("r-1", 2):  true,
		EventID("r-2", 1):  true,
		EventID("r-11", 1): true,
		EventID("r-1", 11): true,
	}
	if len(ids) != 5 {
		t.Fatalf("distinct ids = %d, want 5", len(ids))
	}
}
