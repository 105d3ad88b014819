package sqlite

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/louisbranch/rocketwatch/internal/platform/id"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/event"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/storage"
)

// AppendEvent stores one event. A second event with the same rocket id and
// sequence returns storage.ErrDuplicateEvent.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if err := s.ready(); err != nil {
		return event.Event{}, err
	}
	if err := evt.Validate(); err != nil {
		return event.Event{}, err
	}
	if strings.TrimSpace(evt.ID) == "" {
		evt.ID = id.EventID(evt.RocketID, evt.Seq)
	}
	if evt.ReceivedAt.IsZero() {
		evt.ReceivedAt = s.now()
	}
	evt.ReceivedAt = evt.ReceivedAt.UTC().Truncate(timeResolution)

	doc, err := event.MarshalDocument(evt)
	if err != nil {
		return event.Event{}, fmt.Errorf("encode event document: %w", err)
	}

	_, err = s.q.ExecContext(
		ctx,
		`INSERT INTO rocket_events (id, rocket_id, seq, event_type, document, received_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		evt.ID,
		evt.RocketID,
		int64(evt.Seq),
		string(evt.Kind),
		string(doc),
		toMillis(evt.ReceivedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "rocket_events") {
			return event.Event{}, storage.ErrDuplicateEvent
		}
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}
	return evt, nil
}

// ListRocketEvents returns every stored event of one rocket. Rows come back in
// insertion order; callers sort by sequence themselves.
func (s *Store) ListRocketEvents(ctx context.Context, rocketID string) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rocketID = strings.TrimSpace(rocketID)
	if rocketID == "" {
		return nil, fmt.Errorf("rocket id is required")
	}

	rows, err := s.q.QueryContext(
		ctx,
		`SELECT id, document FROM rocket_events WHERE rocket_id = ? ORDER BY rowid`,
		rocketID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rocket events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("list rocket events: %w", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rocket events: %w", err)
	}
	return events, nil
}

// HasEvent reports whether the log holds the rocket's event with seq.
func (s *Store) HasEvent(ctx context.Context, rocketID string, seq uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := s.ready(); err != nil {
		return false, err
	}
	var found int
	err := s.q.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM rocket_events WHERE rocket_id = ? AND seq = ?)`,
		strings.TrimSpace(rocketID),
		int64(seq),
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check event: %w", err)
	}
	return found == 1, nil
}

var fieldPathPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// SearchEvents returns event documents matching every criterion and the
// optional filter clause. Missing sort values order last.
func (s *Store) SearchEvents(ctx context.Context, query storage.EventQuery) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	if query.Limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	var (
		where  []string
		params []any
	)
	for _, criterion := range query.Criteria {
		if !fieldPathPattern.MatchString(criterion.Path) {
			return nil, fmt.Errorf("invalid field path %q", criterion.Path)
		}
		if criterion.Value == nil {
			where = append(where, "json_extract(document, ?) IS NULL")
			params = append(params, "$."+criterion.Path)
			continue
		}
		value, err := bindValue(criterion.Value)
		if err != nil {
			return nil, fmt.Errorf("criterion %s: %w", criterion.Path, err)
		}
		where = append(where, "json_extract(document, ?) = ?")
		params = append(params, "$."+criterion.Path, value)
	}
	if clause := strings.TrimSpace(query.FilterClause); clause != "" {
		where = append(where, "("+clause+")")
		params = append(params, query.FilterParams...)
	}

	var order []string
	for _, key := range query.Sort {
		if !fieldPathPattern.MatchString(key.Path) {
			return nil, fmt.Errorf("invalid sort path %q", key.Path)
		}
		expr := "json_extract(document, ?)"
		if key.Keyword {
			expr = "CAST(json_extract(document, ?) AS TEXT) COLLATE BINARY"
		}
		direction := "ASC"
		if key.Desc {
			direction = "DESC"
		}
		order = append(order, "json_extract(document, ?) IS NULL ASC", expr+" "+direction)
		params = append(params, "$."+key.Path, "$."+key.Path)
	}
	order = append(order, "id ASC")

	sqlText := "SELECT id, document FROM rocket_events"
	if len(where) > 0 {
		sqlText += " WHERE " + strings.Join(where, " AND ")
	}
	sqlText += " ORDER BY " + strings.Join(order, ", ") + " LIMIT ?"
	params = append(params, query.Limit)

	rows, err := s.q.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	defer rows.Close()

	events := make([]event.Event, 0)
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("search events: %w", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (event.Event, error) {
	var (
		docID string
		doc   string
	)
	if err := row.Scan(&docID, &doc); err != nil {
		return event.Event{}, err
	}
	evt, err := event.UnmarshalDocument([]byte(doc))
	if err != nil {
		return event.Event{}, err
	}
	evt.ID = docID
	return evt, nil
}

// bindValue maps decoded JSON scalars onto values json_extract compares equal
// to. Booleans come back from json_extract as 1 and 0.
func bindValue(value any) (any, error) {
	switch v := value.(type) {
	case string, float64, float32, int, int32, int64, uint32:
		return v, nil
	case uint64:
		return int64(v), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}
