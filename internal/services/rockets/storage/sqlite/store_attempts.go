package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/rocketwatch/internal/services/rockets/storage"
)

// RecordAttempt persists one consumer processing attempt.
func (s *Store) RecordAttempt(ctx context.Context, attempt storage.AttemptRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	attempt.DeliveryID = strings.TrimSpace(attempt.DeliveryID)
	attempt.RocketID = strings.TrimSpace(attempt.RocketID)
	attempt.EventType = strings.TrimSpace(attempt.EventType)
	attempt.Consumer = strings.TrimSpace(attempt.Consumer)
	attempt.Outcome = strings.TrimSpace(attempt.Outcome)
	attempt.LastError = strings.TrimSpace(attempt.LastError)
	if attempt.DeliveryID == "" {
		return fmt.Errorf("delivery id is required")
	}
	if attempt.Consumer == "" {
		return fmt.Errorf("consumer is required")
	}
	switch attempt.Outcome {
	case storage.OutcomeStored, storage.OutcomeDuplicate, storage.OutcomeRetry, storage.OutcomeDead:
	case "":
		return fmt.Errorf("outcome is required")
	default:
		return fmt.Errorf("unknown outcome %q", attempt.Outcome)
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = s.now()
	}

	_, err := s.q.ExecContext(ctx, `
INSERT INTO consumer_attempts (
	delivery_id,
	rocket_id,
	seq,
	event_type,
	consumer,
	outcome,
	last_error,
	created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		attempt.DeliveryID,
		attempt.RocketID,
		int64(attempt.Seq),
		attempt.EventType,
		attempt.Consumer,
		attempt.Outcome,
		attempt.LastError,
		toMillis(attempt.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// ListAttempts lists newest-first attempt records.
func (s *Store) ListAttempts(ctx context.Context, limit int) ([]storage.AttemptRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.q.QueryContext(ctx, `
SELECT
	id,
	delivery_id,
	rocket_id,
	seq,
	event_type,
	consumer,
	outcome,
	last_error,
	created_at
FROM consumer_attempts
ORDER BY created_at DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	records := make([]storage.AttemptRecord, 0, limit)
	for rows.Next() {
		var (
			record    storage.AttemptRecord
			seq       int64
			createdAt int64
		)
		if err := rows.Scan(
			&record.ID,
			&record.DeliveryID,
			&record.RocketID,
			&seq,
			&record.EventType,
			&record.Consumer,
			&record.Outcome,
			&record.LastError,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		record.Seq = uint64(seq)
		record.CreatedAt = fromMillis(createdAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return records, nil
}
