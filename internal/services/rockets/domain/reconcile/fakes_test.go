package reconcile

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/event"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/state"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/storage"
)

type eventKey struct {
	rocketID string
	seq      uint64
}

// fakeStore is an in-memory storage.Store with snapshot transactions.
type fakeStore struct {
	mu          sync.Mutex
	events      map[eventKey]event.Event
	order       []eventKey
	projections map[string]state.State
	nextID      int

	hasErr    error
	appendErr error
	putErr    error
	// hideEvents makes HasEvent miss so the unique constraint path runs.
	hideEvents bool
	puts       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:      map[eventKey]event.Event{},
		projections: map[string]state.State{},
	}
}

func (s *fakeStore) AppendEvent(_ context.Context, evt event.Event) (event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return event.Event{}, s.appendErr
	}
	key := eventKey{evt.RocketID, evt.Seq}
	if _, ok := s.events[key]; ok {
		return event.Event{}, storage.ErrDuplicateEvent
	}
	s.nextID++
	evt.ID = fmt.Sprintf("evt-%d", s.nextID)
	s.events[key] = evt
	s.order = append(s.order, key)
	return evt, nil
}

func (s *fakeStore) ListRocketEvents(_ context.Context, rocketID string) ([]event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []event.Event
	// Newest first so callers cannot rely on storage order.
	for i := len(s.order) - 1; i >= 0; i-- {
		if s.order[i].rocketID == rocketID {
			out = append(out, s.events[s.order[i]])
		}
	}
	return out, nil
}

func (s *fakeStore) HasEvent(_ context.Context, rocketID string, seq uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasErr != nil {
		return false, s.hasErr
	}
	if s.hideEvents {
		return false, nil
	}
	_, ok := s.events[eventKey{rocketID, seq}]
	return ok, nil
}

func (s *fakeStore) SearchEvents(context.Context, storage.EventQuery) ([]event.Event, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeStore) GetProjection(_ context.Context, rocketID string) (state.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	projection, ok := s.projections[rocketID]
	if !ok {
		return state.State{}, storage.ErrNotFound
	}
	return projection, nil
}

func (s *fakeStore) PutProjection(_ context.Context, projection state.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.puts++
	s.projections[projection.RocketID] = projection
	return nil
}

func (s *fakeStore) ListRocketSummaries(context.Context, int, string) (storage.SummaryPage, error) {
	return storage.SummaryPage{}, errors.New("not implemented")
}

// InTx restores the pre-transaction snapshot when fn fails.
func (s *fakeStore) InTx(ctx context.Context, fn func(context.Context, storage.Store) error) error {
	s.mu.Lock()
	events := maps.Clone(s.events)
	order := append([]eventKey(nil), s.order...)
	projections := maps.Clone(s.projections)
	s.mu.Unlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.events, s.order, s.projections = events, order, projections
		s.mu.Unlock()
		return err
	}
	return ctx.Err()
}

var (
	_ storage.Store      = (*fakeStore)(nil)
	_ storage.Transactor = (*fakeStore)(nil)
)

// plainStore hides the transactor so the engine writes without a transaction.
type plainStore struct {
	Store
}
