package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidEnvelope indicates a wire envelope that cannot be decoded into an
// event.
var ErrInvalidEnvelope = errors.New("invalid event envelope")

// Metadata is the routing header of a wire envelope.
type Metadata struct {
	Channel       string `json:"channel"`
	MessageNumber uint64 `json:"messageNumber"`
	MessageTime   string `json:"messageTime"`
	MessageType   string `json:"messageType"`
}

// Envelope is the JSON shape delivered by rockets and carried on the queue.
type Envelope struct {
	Metadata Metadata        `json:"metadata"`
	Message  json.RawMessage `json:"message"`
}

// DocumentMetadata is the header of a stored event document.
type DocumentMetadata struct {
	RocketID      string `json:"rocketUuid"`
	MessageNumber uint64 `json:"messageNumber"`
	MessageTime   string `json:"messageTime"`
	MessageType   Kind   `json:"messageType"`
}

// Document is the JSON shape of an event in the event log. Search criteria and
// sort fields are dotted paths into this shape, e.g. "metadata.messageType" or
// "message.mission".
type Document struct {
	Metadata   DocumentMetadata `json:"metadata"`
	Message    json.RawMessage  `json:"message"`
	ReceivedAt string           `json:"receivedAt"`
}

type launchedJSON struct {
	Type        string  `json:"type"`
	LaunchSpeed float64 `json:"launchSpeed"`
	Mission     string  `json:"mission"`
}

type speedChangeJSON struct {
	By float64 `json:"by"`
}

type missionChangedJSON struct {
	NewMission string `json:"newMission"`
}

type explodedJSON struct {
	Reason string `json:"reason"`
}

// DecodeEnvelope parses a wire envelope and discriminates its payload by
// message type.
func DecodeEnvelope(data []byte) (Event, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return envelope.Event()
}

// Event converts the envelope into a validated event.
func (e Envelope) Event() (Event, error) {
	kind, err := ParseKind(e.Metadata.MessageType)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	occurredAt, err := parseTime(e.Metadata.MessageTime)
	if err != nil {
		return Event{}, fmt.Errorf("%w: message time: %v", ErrInvalidEnvelope, err)
	}
	payload, err := decodePayload(kind, e.Message)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	evt := Event{
		RocketID:   strings.TrimSpace(e.Metadata.Channel),
		Seq:        e.Metadata.MessageNumber,
		OccurredAt: occurredAt,
		Kind:       kind,
		Payload:    payload,
	}
	if err := evt.Validate(); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return evt, nil
}

// EncodeEnvelope renders an event as a wire envelope.
func EncodeEnvelope(evt Event) ([]byte, error) {
	message, err := encodePayload(evt.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Metadata: Metadata{
			Channel:       evt.RocketID,
			MessageNumber: evt.Seq,
			MessageTime:   FormatTime(evt.OccurredAt),
			MessageType:   string(evt.Kind),
		},
		Message: message,
	})
}

// MarshalDocument renders an event as its stored document.
func MarshalDocument(evt Event) ([]byte, error) {
	message, err := encodePayload(evt.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Document{
		Metadata: DocumentMetadata{
			RocketID:      evt.RocketID,
			MessageNumber: evt.Seq,
			MessageTime:   FormatTime(evt.OccurredAt),
			MessageType:   evt.Kind,
		},
		Message:    message,
		ReceivedAt: FormatTime(evt.ReceivedAt),
	})
}

// UnmarshalDocument parses a stored document back into an event. The document
// id lives outside the document and is left empty.
func UnmarshalDocument(data []byte) (Event, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Event{}, fmt.Errorf("decode event document: %w", err)
	}
	if !doc.Metadata.MessageType.Valid() {
		return Event{}, fmt.Errorf("decode event document: %w: %q", ErrUnknownKind, doc.Metadata.MessageType)
	}
	payload, err := decodePayload(doc.Metadata.MessageType, doc.Message)
	if err != nil {
		return Event{}, fmt.Errorf("decode event document: %w", err)
	}
	occurredAt, err := parseTime(doc.Metadata.MessageTime)
	if err != nil {
		return Event{}, fmt.Errorf("decode event document: message time: %w", err)
	}
	receivedAt, err := parseTime(doc.ReceivedAt)
	if err != nil {
		return Event{}, fmt.Errorf("decode event document: received at: %w", err)
	}
	return Event{
		RocketID:   doc.Metadata.RocketID,
		Seq:        doc.Metadata.MessageNumber,
		OccurredAt: occurredAt,
		Kind:       doc.Metadata.MessageType,
		Payload:    payload,
		ReceivedAt: receivedAt,
	}, nil
}

func decodePayload(kind Kind, raw json.RawMessage) (Payload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	switch kind {
	case KindLaunched:
		var p launchedJSON
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return Launched{Model: p.Type, Speed: p.LaunchSpeed, Mission: p.Mission}, nil
	case KindSpeedIncreased, KindSpeedDecreased:
		var p speedChangeJSON
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return SpeedChange{Delta: p.By}, nil
	case KindMissionChanged:
		var p missionChangedJSON
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return MissionChanged{NewMission: p.NewMission}, nil
	case KindExploded:
		var p explodedJSON
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return Exploded{Reason: p.Reason}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func encodePayload(payload Payload) (json.RawMessage, error) {
	var value any
	switch p := payload.(type) {
	case Launched:
		value = launchedJSON{Type: p.Model, LaunchSpeed: p.Speed, Mission: p.Mission}
	case SpeedChange:
		value = speedChangeJSON{By: p.Delta}
	case MissionChanged:
		value = missionChangedJSON{NewMission: p.NewMission}
	case Exploded:
		value = explodedJSON{Reason: p.Reason}
	default:
		return nil, fmt.Errorf("encode payload: unsupported type %T", payload)
	}
	return json.Marshal(value)
}

// TimeLayout is the fixed-width UTC layout of stored timestamps. Every value
// has nine fractional digits, so text comparison in SQL follows time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders value in TimeLayout; the zero time renders empty.
func FormatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(TimeLayout)
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}
