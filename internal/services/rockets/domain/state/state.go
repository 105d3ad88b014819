// Package state folds rocket events into the per-rocket projection.
//
// Fold is the only place that knows how an event kind changes a rocket. Full
// replay and the incremental path in the reconcile package both call it, so
// the two can never disagree about a transition.
package state

import (
	"slices"
	"time"

	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/event"
)

// State is the derived current view of one rocket.
type State struct {
	RocketID      string
	LastSeq       uint64
	LastEventAt   time.Time
	LastEventKind event.Kind
	Speed         float64
	// Mission and Model are empty when no event has set them.
	Mission         string
	Model           string
	Exploded        bool
	ExplosionReason string
	// PersistedAt is stamped when the projection is written, never by Fold.
	PersistedAt time.Time
}

// Empty reports whether no event has been folded into s.
func (s State) Empty() bool {
	return s.LastSeq == 0
}

// Fold applies one event to rocket state. Callers own ordering: the event is
// folded even when its sequence is not above s.LastSeq.
func Fold(s State, evt event.Event) State {
	switch payload := evt.Payload.(type) {
	case event.Launched:
		s.Model = payload.Model
		s.Speed = payload.Speed
		s.Mission = payload.Mission
	case event.SpeedChange:
		switch evt.Kind {
		case event.KindSpeedIncreased:
			s.Speed += payload.Delta
		case event.KindSpeedDecreased:
			s.Speed -= payload.Delta
		}
	case event.MissionChanged:
		s.Mission = payload.NewMission
	case event.Exploded:
		s.Exploded = true
		s.ExplosionReason = payload.Reason
	}
	s.RocketID = evt.RocketID
	s.LastSeq = evt.Seq
	s.LastEventAt = evt.OccurredAt
	s.LastEventKind = evt.Kind
	return s
}

// FoldAll replays events in ascending sequence order from the zero state. The
// input slice is not reordered.
func FoldAll(events []event.Event) State {
	ordered := slices.Clone(events)
	slices.SortStableFunc(ordered, func(a, b event.Event) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		default:
			return 0
		}
	})
	var s State
	for _, evt := range ordered {
		s = Fold(s, evt)
	}
	return s
}
