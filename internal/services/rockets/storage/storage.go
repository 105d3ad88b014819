// Package storage defines persistence contracts for rocket events,
// projections, and consumer attempts.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/event"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/state"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEvent indicates an event with the same rocket id and
	// sequence is already in the log.
	ErrDuplicateEvent = errors.New("event already recorded")
)

// EventStore is the append-only rocket event log.
type EventStore interface {
	// AppendEvent stores evt and returns it with ID and ReceivedAt assigned.
	AppendEvent(ctx context.Context, evt event.Event) (event.Event, error)
	// ListRocketEvents returns every event of one rocket in storage order.
	ListRocketEvents(ctx context.Context, rocketID string) ([]event.Event, error)
	HasEvent(ctx context.Context, rocketID string, seq uint64) (bool, error)
}

// EventSearcher runs criteria searches over stored event documents.
type EventSearcher interface {
	SearchEvents(ctx context.Context, query EventQuery) ([]event.Event, error)
}

// ProjectionStore keeps one projection per rocket.
type ProjectionStore interface {
	// GetProjection returns ErrNotFound when the rocket has no projection.
	GetProjection(ctx context.Context, rocketID string) (state.State, error)
	// PutProjection overwrites the rocket's projection.
	PutProjection(ctx context.Context, projection state.State) error
	// ListRocketSummaries returns one page of rockets ordered by id, starting
	// after afterKey.
	ListRocketSummaries(ctx context.Context, pageSize int, afterKey string) (SummaryPage, error)
}

// Store is the full rocket persistence surface.
type Store interface {
	EventStore
	EventSearcher
	ProjectionStore
}

// Transactor runs fn against a store bound to one transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// Criterion requires the document value at Path to equal Value.
type Criterion struct {
	Path  string
	Value any
}

// SortKey orders search results by the document value at Path.
type SortKey struct {
	Path string
	Desc bool
	// Keyword orders by the exact text of the value instead of its JSON type.
	Keyword bool
}

// EventQuery selects stored event documents.
type EventQuery struct {
	Criteria []Criterion
	// FilterClause is an optional SQL condition over the event document, with
	// positional FilterParams.
	FilterClause string
	FilterParams []any
	Sort         []SortKey
	Limit        int
}

// RocketSummary is one listing row.
type RocketSummary struct {
	RocketID string
	// Mission is empty when the projection has none.
	Mission string
}

// SummaryPage is one page of rocket summaries. AfterKey is empty on the last
// page.
type SummaryPage struct {
	Summaries []RocketSummary
	AfterKey  string
}

// Attempt outcomes recorded by the consumer.
const (
	OutcomeStored    = "stored"
	OutcomeDuplicate = "duplicate"
	OutcomeRetry     = "retry"
	OutcomeDead      = "dead"
)

// AttemptRecord is one durable consumer processing outcome.
type AttemptRecord struct {
	ID         int64
	DeliveryID string
	RocketID   string
	Seq        uint64
	EventType  string
	Consumer   string
	Outcome    string
	LastError  string
	CreatedAt  time.Time
}

// AttemptStore persists consumer processing attempts.
type AttemptStore interface {
	RecordAttempt(ctx context.Context, attempt AttemptRecord) error
	ListAttempts(ctx context.Context, limit int) ([]AttemptRecord, error)
}
