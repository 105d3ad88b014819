package reconcile

import (
	"context"
	"errors"
	"log"
	"time"

	apperrors "github.com/louisbranch/rocketwatch/internal/platform/errors"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/event"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/state"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/rocketwatch/internal/services/rockets/domain/reconcile"

// Outcome describes what an ingestion or advance did.
type Outcome string

const (
	// OutcomeApplied means the projection was recomputed and persisted.
	OutcomeApplied Outcome = "applied"
	// OutcomeDuplicate means the event was already in the log; nothing changed.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeStale means the event is at or below the projection's last
	// sequence; nothing changed.
	OutcomeStale Outcome = "stale"
)

// Store is the persistence the engine needs.
type Store interface {
	storage.EventStore
	storage.ProjectionStore
}

// Result captures one ingestion.
type Result struct {
	Outcome Outcome
	// Event is the stored event, with ID and ReceivedAt, when applied.
	Event event.Event
	// State is the persisted projection when applied.
	State state.State
}

// Engine reconciles rocket events into projections.
type Engine struct {
	store       Store
	tx          storage.Transactor
	now         func() time.Time
	logf        func(string, ...any)
	tracer      trace.Tracer
	incremental bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithTransactor runs the append and projection write of each ingestion in one
// transaction.
func WithTransactor(tx storage.Transactor) Option {
	return func(e *Engine) {
		e.tx = tx
	}
}

// WithClock overrides the clock used to stamp received and persisted times.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogf overrides the engine logger.
func WithLogf(logf func(string, ...any)) Option {
	return func(e *Engine) {
		if logf != nil {
			e.logf = logf
		}
	}
}

// WithTracer overrides the tracer used for ingestion spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithIncrementalFastPath lets Ingest fold an event directly onto the stored
// projection when its sequence is exactly LastSeq+1. Any other event still
// triggers a full replay.
func WithIncrementalFastPath(enabled bool) Option {
	return func(e *Engine) {
		e.incremental = enabled
	}
}

// New builds an engine over store. When store also implements
// storage.Transactor it is used for transactional ingestion unless another
// transactor is supplied.
func New(store Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("reconcile: store is required")
	}
	e := &Engine{
		store:  store,
		now:    time.Now,
		logf:   log.Printf,
		tracer: otel.Tracer(tracerName),
	}
	if tx, ok := store.(storage.Transactor); ok {
		e.tx = tx
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Replay recomputes a rocket's projection from its full event log. A rocket
// with no events returns a CodeNotFound error.
func (e *Engine) Replay(ctx context.Context, rocketID string) (state.State, error) {
	return e.replay(ctx, e.store, rocketID)
}

func (e *Engine) replay(ctx context.Context, store Store, rocketID string) (state.State, error) {
	events, err := store.ListRocketEvents(ctx, rocketID)
	if err != nil {
		return state.State{}, storeError("list rocket events", rocketID, err)
	}
	if len(events) == 0 {
		return state.State{}, apperrors.WithMetadata(apperrors.CodeNotFound, "rocket has no events", map[string]string{"rocket_id": rocketID})
	}
	return state.FoldAll(events), nil
}

// Advance folds one event onto the stored projection without replay. Events
// at or below the projection's last sequence are rejected as stale and leave
// it unchanged. Advance does not append the event to the log.
func (e *Engine) Advance(ctx context.Context, evt event.Event) (state.State, Outcome, error) {
	if err := evt.Validate(); err != nil {
		return state.State{}, "", apperrors.Wrap(apperrors.CodeInvalidEvent, "invalid event", err)
	}
	current, err := e.loadProjection(ctx, e.store, evt.RocketID)
	if err != nil {
		return state.State{}, "", err
	}
	if evt.Seq <= current.LastSeq {
		return current, OutcomeStale, nil
	}
	next := state.Fold(current, evt)
	next.PersistedAt = e.now().UTC()
	if err := e.store.PutProjection(ctx, next); err != nil {
		return state.State{}, "", storeError("put projection", evt.RocketID, err)
	}
	return next, OutcomeApplied, nil
}

// Ingest records one delivered event and recomputes its rocket's projection.
// Store failures are returned with CodeStoreUnavailable and are never retried
// here; the transport redelivers.
func (e *Engine) Ingest(ctx context.Context, evt event.Event) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "reconcile.Ingest", trace.WithAttributes(
		attribute.String("rocket.id", evt.RocketID),
		attribute.Int64("rocket.seq", int64(evt.Seq)),
		attribute.String("rocket.event_type", string(evt.Kind)),
	))
	defer span.End()

	result, err := e.ingest(ctx, evt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	span.SetAttributes(attribute.String("reconcile.outcome", string(result.Outcome)))
	return result, nil
}

var errDuplicate = errors.New("duplicate event")

func (e *Engine) ingest(ctx context.Context, evt event.Event) (Result, error) {
	if err := evt.Validate(); err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidEvent, "invalid event", err)
	}

	exists, err := e.store.HasEvent(ctx, evt.RocketID, evt.Seq)
	if err != nil {
		return Result{}, storeError("check event", evt.RocketID, err)
	}
	if exists {
		e.logf("Skipping duplicate: rocket %s msg #%d", evt.RocketID, evt.Seq)
		return Result{Outcome: OutcomeDuplicate}, nil
	}

	var result Result
	apply := func(ctx context.Context, store Store) error {
		stored, projection, err := e.appendAndProject(ctx, store, evt)
		if err != nil {
			return err
		}
		result = Result{Outcome: OutcomeApplied, Event: stored, State: projection}
		return nil
	}
	if e.tx != nil {
		err = e.tx.InTx(ctx, func(ctx context.Context, store storage.Store) error {
			return apply(ctx, store)
		})
	} else {
		err = apply(ctx, e.store)
	}
	if errors.Is(err, errDuplicate) {
		e.logf("Skipping duplicate: rocket %s msg #%d", evt.RocketID, evt.Seq)
		return Result{Outcome: OutcomeDuplicate}, nil
	}
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeUnknown {
			err = storeError("ingest", evt.RocketID, err)
		}
		return Result{}, err
	}
	e.logf("Stored & reconciled: rocket %s msg #%d", evt.RocketID, evt.Seq)
	return result, nil
}

func (e *Engine) appendAndProject(ctx context.Context, store Store, evt event.Event) (event.Event, state.State, error) {
	var current state.State
	if e.incremental {
		loaded, err := e.loadProjection(ctx, store, evt.RocketID)
		if err != nil {
			return event.Event{}, state.State{}, err
		}
		current = loaded
	}

	evt.ReceivedAt = e.now().UTC()
	stored, err := store.AppendEvent(ctx, evt)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEvent) {
			return event.Event{}, state.State{}, errDuplicate
		}
		return event.Event{}, state.State{}, storeError("append event", evt.RocketID, err)
	}

	var projection state.State
	if e.incremental && current.LastSeq+1 == stored.Seq {
		projection = state.Fold(current, stored)
	} else {
		projection, err = e.replay(ctx, store, stored.RocketID)
		if err != nil {
			return event.Event{}, state.State{}, err
		}
	}

	projection.PersistedAt = e.now().UTC()
	if err := store.PutProjection(ctx, projection); err != nil {
		return event.Event{}, state.State{}, storeError("put projection", stored.RocketID, err)
	}
	return stored, projection, nil
}

func (e *Engine) loadProjection(ctx context.Context, store Store, rocketID string) (state.State, error) {
	current, err := store.GetProjection(ctx, rocketID)
	if errors.Is(err, storage.ErrNotFound) {
		return state.State{}, nil
	}
	if err != nil {
		return state.State{}, storeError("get projection", rocketID, err)
	}
	return current, nil
}

func storeError(op, rocketID string, err error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeStoreUnavailable, op, map[string]string{"rocket_id": rocketID}, err)
}
