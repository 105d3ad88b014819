package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/event"
)

// UnknownMission is reported for rockets whose projection has no mission.
const UnknownMission = "Unknown"

type documentMetadata struct {
	RocketID      string     `json:"rocketUuid"`
	MessageNumber uint64     `json:"messageNumber"`
	MessageTime   string     `json:"messageTime,omitempty"`
	MessageType   event.Kind `json:"messageType"`
}

type documentMessage struct {
	Type            string  `json:"type,omitempty"`
	LaunchSpeed     float64 `json:"launchSpeed"`
	Mission         string  `json:"mission,omitempty"`
	IsExploded      bool    `json:"isExploded"`
	ExplosionReason string  `json:"explosionReason,omitempty"`
}

type document struct {
	Metadata   documentMetadata `json:"metadata"`
	Message    documentMessage  `json:"message"`
	ReceivedAt string           `json:"receivedAt,omitempty"`
}

// MarshalDocument renders the projection document. The current speed is
// carried in message.launchSpeed and an absent mission is omitted so listing
// can report UnknownMission.
func MarshalDocument(s State) ([]byte, error) {
	return json.Marshal(document{
		Metadata: documentMetadata{
			RocketID:      s.RocketID,
			MessageNumber: s.LastSeq,
			MessageTime:   event.FormatTime(s.LastEventAt),
			MessageType:   s.LastEventKind,
		},
		Message: documentMessage{
			Type:            s.Model,
			LaunchSpeed:     s.Speed,
			Mission:         s.Mission,
			IsExploded:      s.Exploded,
			ExplosionReason: s.ExplosionReason,
		},
		ReceivedAt: event.FormatTime(s.PersistedAt),
	})
}

// UnmarshalDocument parses a projection document.
func UnmarshalDocument(data []byte) (State, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return State{}, fmt.Errorf("decode projection document: %w", err)
	}
	lastEventAt, err := parseTime(doc.Metadata.MessageTime)
	if err != nil {
		return State{}, fmt.Errorf("decode projection document: message time: %w", err)
	}
	persistedAt, err := parseTime(doc.ReceivedAt)
	if err != nil {
		return State{}, fmt.Errorf("decode projection document: received at: %w", err)
	}
	return State{
		RocketID:        doc.Metadata.RocketID,
		LastSeq:         doc.Metadata.MessageNumber,
		LastEventAt:     lastEventAt,
		LastEventKind:   doc.Metadata.MessageType,
		Speed:           doc.Message.LaunchSpeed,
		Mission:         doc.Message.Mission,
		Model:           doc.Message.Type,
		Exploded:        doc.Message.IsExploded,
		ExplosionReason: doc.Message.ExplosionReason,
		PersistedAt:     persistedAt,
	}, nil
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}
