package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/state"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/storage"
)

// GetProjection returns the rocket's projection.
func (s *Store) GetProjection(ctx context.Context, rocketID string) (state.State, error) {
	if err := ctx.Err(); err != nil {
		return state.State{}, err
	}
	if err := s.ready(); err != nil {
		return state.State{}, err
	}
	rocketID = strings.TrimSpace(rocketID)
	if rocketID == "" {
		return state.State{}, fmt.Errorf("rocket id is required")
	}

	var doc string
	err := s.q.QueryRowContext(
		ctx,
		`SELECT document FROM rocket_projections WHERE rocket_id = ?`,
		rocketID,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return state.State{}, storage.ErrNotFound
		}
		return state.State{}, fmt.Errorf("get projection: %w", err)
	}
	projection, err := state.UnmarshalDocument([]byte(doc))
	if err != nil {
		return state.State{}, fmt.Errorf("get projection: %w", err)
	}
	return projection, nil
}

// PutProjection overwrites the rocket's projection.
func (s *Store) PutProjection(ctx context.Context, projection state.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(projection.RocketID) == "" {
		return fmt.Errorf("rocket id is required")
	}
	if projection.PersistedAt.IsZero() {
		projection.PersistedAt = s.now()
	}
	projection.PersistedAt = projection.PersistedAt.UTC().Truncate(timeResolution)

	doc, err := state.MarshalDocument(projection)
	if err != nil {
		return fmt.Errorf("encode projection document: %w", err)
	}
	_, err = s.q.ExecContext(
		ctx,
		`INSERT INTO rocket_projections (rocket_id, last_seq, document, persisted_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (rocket_id) DO UPDATE SET
		   last_seq = excluded.last_seq,
		   document = excluded.document,
		   persisted_at = excluded.persisted_at`,
		projection.RocketID,
		int64(projection.LastSeq),
		string(doc),
		toMillis(projection.PersistedAt),
	)
	if err != nil {
		return fmt.Errorf("put projection: %w", err)
	}
	return nil
}

// ListRocketSummaries groups projections by rocket id and returns one page of
// groups after afterKey. One extra group is read to decide whether another
// page exists.
func (s *Store) ListRocketSummaries(ctx context.Context, pageSize int, afterKey string) (storage.SummaryPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.SummaryPage{}, err
	}
	if err := s.ready(); err != nil {
		return storage.SummaryPage{}, err
	}
	if pageSize <= 0 {
		return storage.SummaryPage{}, fmt.Errorf("page size must be greater than zero")
	}

	rows, err := s.q.QueryContext(
		ctx,
		`SELECT rocket_id, MAX(json_extract(document, '$.message.mission'))
		   FROM rocket_projections
		  WHERE rocket_id > ?
		  GROUP BY rocket_id
		  ORDER BY rocket_id ASC
		  LIMIT ?`,
		strings.TrimSpace(afterKey),
		pageSize+1,
	)
	if err != nil {
		return storage.SummaryPage{}, fmt.Errorf("list rocket summaries: %w", err)
	}
	defer rows.Close()

	page := storage.SummaryPage{
		Summaries: make([]storage.RocketSummary, 0, pageSize),
	}
	for rows.Next() {
		var (
			summary storage.RocketSummary
			mission sql.NullString
		)
		if err := rows.Scan(&summary.RocketID, &mission); err != nil {
			return storage.SummaryPage{}, fmt.Errorf("list rocket summaries: %w", err)
		}
		summary.Mission = mission.String
		page.Summaries = append(page.Summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return storage.SummaryPage{}, fmt.Errorf("list rocket summaries: %w", err)
	}
	if len(page.Summaries) > pageSize {
		page.AfterKey = page.Summaries[pageSize-1].RocketID
		page.Summaries = page.Summaries[:pageSize]
	}
	return page, nil
}
