// Package query answers rocket lookups, event searches, and listings.
package query

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	apperrors "github.com/louisbranch/rocketwatch/internal/platform/errors"
	"github.com/louisbranch/rocketwatch/internal/platform/grpc/pagination"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/event"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/state"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/filter"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/storage"
)

const (
	// MaxSearchResults caps the number of events one search returns.
	MaxSearchResults = 1000
	// ListPageSize is the default and largest number of rockets read per
	// listing page.
	ListPageSize = 1000
)

var fieldPathPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Store is the persistence the query service reads.
type Store interface {
	storage.EventSearcher
	storage.ProjectionStore
}

// SearchRequest selects raw events. Criteria maps dotted document paths to the
// exact value they must hold.
type SearchRequest struct {
	Criteria map[string]any
	// SortBy is a document path, optionally followed by " asc" or " desc".
	SortBy string
	// Filter is an optional AIP-160 expression.
	Filter string
}

// Summary is one rocket in the listing.
type Summary struct {
	RocketID string
	Mission  string
}

// Service serves rocket read models.
type Service struct {
	store    Store
	pageSize int
}

// Option configures a query service.
type Option func(*Service)

// WithListPageSize sets how many rockets ListRockets reads per store page.
// Values outside 1..ListPageSize fall back to ListPageSize or are capped.
func WithListPageSize(size int) Option {
	return func(s *Service) {
		s.pageSize = pagination.ClampPageSize(size, pagination.PageSizeConfig{Default: ListPageSize, Max: ListPageSize})
	}
}

// New builds a query service over store.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("query: store is required")
	}
	svc := &Service{store: store, pageSize: ListPageSize}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// GetRocket returns the rocket's projection or a CodeNotFound error.
func (s *Service) GetRocket(ctx context.Context, rocketID string) (state.State, error) {
	rocketID = strings.TrimSpace(rocketID)
	if rocketID == "" {
		return state.State{}, apperrors.New(apperrors.CodeInvalidQuery, "rocket id is required")
	}
	projection, err := s.store.GetProjection(ctx, rocketID)
	if errors.Is(err, storage.ErrNotFound) {
		return state.State{}, apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("Rocket with rocketUuid %s not found", rocketID),
			map[string]string{"rocket_id": rocketID})
	}
	if err != nil {
		return state.State{}, apperrors.Wrap(apperrors.CodeStoreUnavailable, "get rocket", err)
	}
	return projection, nil
}

// Search returns stored events matching every criterion, at most
// MaxSearchResults of them. Results are ordered by SortBy when given, then by
// sequence descending and rocket id ascending.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]event.Event, error) {
	query, err := BuildEventQuery(req)
	if err != nil {
		return nil, err
	}
	events, err := s.store.SearchEvents(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, "search events", err)
	}
	if events == nil {
		events = []event.Event{}
	}
	return events, nil
}

// BuildEventQuery validates a search request and resolves it into a store
// query.
func BuildEventQuery(req SearchRequest) (storage.EventQuery, error) {
	query := storage.EventQuery{Limit: MaxSearchResults}

	paths := make([]string, 0, len(req.Criteria))
	for path := range req.Criteria {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	for _, path := range paths {
		if !fieldPathPattern.MatchString(path) {
			return storage.EventQuery{}, invalidQuery("invalid criteria field", path)
		}
		value := req.Criteria[path]
		switch value.(type) {
		case nil, string, bool, float64, float32, int, int32, int64, uint32, uint64:
		default:
			return storage.EventQuery{}, invalidQuery("criteria values must be scalars", path)
		}
		query.Criteria = append(query.Criteria, storage.Criterion{Path: path, Value: value})
	}

	if strings.TrimSpace(req.Filter) != "" {
		cond, err := filter.ParseEventFilter(req.Filter)
		if err != nil {
			return storage.EventQuery{}, apperrors.Wrap(apperrors.CodeInvalidQuery, "invalid filter", err)
		}
		query.FilterClause = cond.Clause
		query.FilterParams = cond.Params
	}

	if sortBy := strings.TrimSpace(req.SortBy); sortBy != "" {
		key, err := ResolveSortKey(sortBy)
		if err != nil {
			return storage.EventQuery{}, err
		}
		query.Sort = append(query.Sort, key)
	}
	query.Sort = append(query.Sort,
		storage.SortKey{Path: "metadata.messageNumber", Desc: true},
		storage.SortKey{Path: "metadata.rocketUuid", Keyword: true},
	)
	return query, nil
}

// ResolveSortKey turns "path [asc|desc]" into a sort key. Paths naming the
// rocket model (message.type) or a mission segment sort by exact text.
func ResolveSortKey(sortBy string) (storage.SortKey, error) {
	fields := strings.Fields(sortBy)
	if len(fields) == 0 || len(fields) > 2 {
		return storage.SortKey{}, invalidQuery("invalid sortBy", sortBy)
	}
	key := storage.SortKey{Path: fields[0]}
	if len(fields) == 2 {
		switch strings.ToLower(fields[1]) {
		case "asc":
		case "desc":
			key.Desc = true
		default:
			return storage.SortKey{}, invalidQuery("invalid sort direction", sortBy)
		}
	}
	if !fieldPathPattern.MatchString(key.Path) {
		return storage.SortKey{}, invalidQuery("invalid sortBy", sortBy)
	}
	key.Keyword = isKeywordPath(key.Path)
	return key, nil
}

func isKeywordPath(path string) bool {
	if strings.Contains(path, "message.type") {
		return true
	}
	return slices.Contains(strings.Split(path, "."), "mission")
}

// ListRockets returns one summary per rocket with a projection, reading the
// store page by page until no after key is returned. Rockets without a
// mission report state.UnknownMission.
func (s *Service) ListRockets(ctx context.Context) ([]Summary, error) {
	summaries := make([]Summary, 0)
	afterKey := ""
	for {
		page, err := s.store.ListRocketSummaries(ctx, s.pageSize, afterKey)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, "list rockets", err)
		}
		for _, row := range page.Summaries {
			mission := row.Mission
			if mission == "" {
				mission = state.UnknownMission
			}
			summaries = append(summaries, Summary{RocketID: row.RocketID, Mission: mission})
		}
		if page.AfterKey == "" || page.AfterKey == afterKey {
			return summaries, nil
		}
		afterKey = page.AfterKey
	}
}

func invalidQuery(message, field string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidQuery, message+": "+field, map[string]string{"field": field})
}
