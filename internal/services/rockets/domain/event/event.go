package event

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Kind names the type of a rocket event.
type Kind string

const (
	// KindLaunched reports a launch with its baseline speed and mission.
	KindLaunched Kind = "RocketLaunched"
	// KindSpeedIncreased reports a positive speed delta.
	KindSpeedIncreased Kind = "RocketSpeedIncreased"
	// KindSpeedDecreased reports a negative speed delta.
	KindSpeedDecreased Kind = "RocketSpeedDecreased"
	// KindMissionChanged reports a mission reassignment.
	KindMissionChanged Kind = "RocketMissionChanged"
	// KindExploded reports a terminal explosion.
	KindExploded Kind = "RocketExploded"
)

// Kinds returns every declared event kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindLaunched,
		KindSpeedIncreased,
		KindSpeedDecreased,
		KindMissionChanged,
		KindExploded,
	}
}

// Valid reports whether k is a declared kind.
func (k Kind) Valid() bool {
	switch k {
	case KindLaunched, KindSpeedIncreased, KindSpeedDecreased, KindMissionChanged, KindExploded:
		return true
	default:
		return false
	}
}

// ParseKind validates a raw message type.
func ParseKind(raw string) (Kind, error) {
	kind := Kind(strings.TrimSpace(raw))
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
	return kind, nil
}

var (
	// ErrUnknownKind indicates a message type outside the declared kinds.
	ErrUnknownKind = errors.New("unknown event kind")
	// ErrRocketIDRequired indicates an event without a rocket id.
	ErrRocketIDRequired = errors.New("rocket id is required")
	// ErrSequenceRequired indicates an event with sequence zero.
	ErrSequenceRequired = errors.New("sequence must be at least 1")
	// ErrSequenceOutOfRange reports a sequence the event log cannot store.
	ErrSequenceOutOfRange = errors.New("sequence exceeds the maximum stored value")
	// ErrPayloadMismatch indicates a payload that does not belong to the kind.
	ErrPayloadMismatch = errors.New("payload does not match event kind")
)

// Payload is the closed set of event payloads. Only the types in this package
// implement it.
type Payload interface {
	isPayload()
}

// Launched is the payload of KindLaunched.
type Launched struct {
	Model   string
	Speed   float64
	Mission string
}

// SpeedChange is the payload of KindSpeedIncreased and KindSpeedDecreased.
// Delta is applied with the sign implied by the kind.
type SpeedChange struct {
	Delta float64
}

// MissionChanged is the payload of KindMissionChanged.
type MissionChanged struct {
	NewMission string
}

// Exploded is the payload of KindExploded.
type Exploded struct {
	Reason string
}

func (Launched) isPayload()       {}
func (SpeedChange) isPayload()    {}
func (MissionChanged) isPayload() {}
func (Exploded) isPayload()       {}

// Event is one rocket telemetry fact.
type Event struct {
	// ID is the storage document id, assigned on append.
	ID string
	// RocketID is the rocket's radio channel id.
	RocketID string
	// Seq is the origin-assigned sequence number, unique per rocket.
	Seq uint64
	// OccurredAt is the origin timestamp.
	OccurredAt time.Time
	Kind       Kind
	Payload    Payload
	// ReceivedAt is stamped when the event is appended to the log.
	ReceivedAt time.Time
}

// Validate checks identity fields and that the payload variant belongs to the
// kind.
func (e Event) Validate() error {
	if strings.TrimSpace(e.RocketID) == "" {
		return ErrRocketIDRequired
	}
	if e.Seq == 0 {
		return ErrSequenceRequired
	}
	if e.Seq > math.MaxInt64 {
		return fmt.Errorf("%w: %d", ErrSequenceOutOfRange, e.Seq)
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	if !payloadMatches(e.Kind, e.Payload) {
		return fmt.Errorf("%w: %s with %T", ErrPayloadMismatch, e.Kind, e.Payload)
	}
	return nil
}

func payloadMatches(kind Kind, payload Payload) bool {
	switch payload.(type) {
	case Launched:
		return kind == KindLaunched
	case SpeedChange:
		return kind == KindSpeedIncreased || kind == KindSpeedDecreased
	case MissionChanged:
		return kind == KindMissionChanged
	case Exploded:
		return kind == KindExploded
	default:
		return false
	}
}
