// Package rockets implements the rockets.v1.RocketService gRPC API over the
// query service.
package rockets

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/rocketwatch/internal/platform/errors"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/event"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/state"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/query"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// QueryService is the read side the gRPC API serves.
type QueryService interface {
	GetRocket(ctx context.Context, rocketID string) (state.State, error)
	Search(ctx context.Context, req query.SearchRequest) ([]event.Event, error)
	ListRockets(ctx context.Context) ([]query.Summary, error)
}

// RocketService implements RocketServiceServer.
type RocketService struct {
	queries QueryService
}

// NewRocketService builds the gRPC API.
func NewRocketService(queries QueryService) *RocketService {
	return &RocketService{queries: queries}
}

// GetRocket returns the projection document for a rocket id.
func (s *RocketService) GetRocket(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	projection, err := s.queries.GetRocket(ctx, in.GetValue())
	if err != nil {
		return nil, handleDomainError(err)
	}
	doc, err := state.MarshalDocument(projection)
	if err != nil {
		return nil, handleDomainError(err)
	}
	out, err := documentStruct(doc)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return out, nil
}

// ListRockets returns {rocketUuid, mission} for every rocket.
func (s *RocketService) ListRockets(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	summaries, err := s.queries.ListRockets(ctx)
	if err != nil {
		return nil, handleDomainError(err)
	}
	values := make([]*structpb.Value, 0, len(summaries))
	for _, summary := range summaries {
		values = append(values, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"rocketUuid": structpb.NewStringValue(summary.RocketID),
			"mission":    structpb.NewStringValue(summary.Mission),
		}}))
	}
	return &structpb.ListValue{Values: values}, nil
}

// SearchRockets returns event documents matching the request criteria.
func (s *RocketService) SearchRockets(ctx context.Context, in *structpb.Struct) (*structpb.ListValue, error) {
	req, err := searchRequest(in)
	if err != nil {
		return nil, handleDomainError(err)
	}
	events, err := s.queries.Search(ctx, req)
	if err != nil {
		return nil, handleDomainError(err)
	}
	values := make([]*structpb.Value, 0, len(events))
	for _, evt := range events {
		doc, err := event.MarshalDocument(evt)
		if err != nil {
			return nil, handleDomainError(err)
		}
		value, err := documentStruct(doc)
		if err != nil {
			return nil, handleDomainError(err)
		}
		values = append(values, structpb.NewStructValue(value))
	}
	return &structpb.ListValue{Values: values}, nil
}

func searchRequest(in *structpb.Struct) (query.SearchRequest, error) {
	req := query.SearchRequest{Criteria: map[string]any{}}
	for name, value := range in.GetFields() {
		switch name {
		case "criteria":
			criteria := value.GetStructValue()
			if criteria == nil {
				if _, isNull := value.GetKind().(*structpb.Value_NullValue); isNull {
					continue
				}
				return query.SearchRequest{}, apperrors.New(apperrors.CodeInvalidQuery, "criteria must be an object")
			}
			req.Criteria = criteria.AsMap()
		case "sort_by":
			req.SortBy = value.GetStringValue()
		case "filter":
			req.Filter = value.GetStringValue()
		default:
			return query.SearchRequest{}, apperrors.WithMetadata(apperrors.CodeInvalidQuery,
				fmt.Sprintf("unknown search field %q", name), map[string]string{"field": name})
		}
	}
	return req, nil
}

func documentStruct(doc []byte) (*structpb.Struct, error) {
	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return structpb.NewStruct(fields)
}

// handleDomainError converts domain errors to gRPC status using the structured error system.
func handleDomainError(err error) error {
	return apperrors.HandleError(err, apperrors.DefaultLocale)
}

var _ RocketServiceServer = (*RocketService)(nil)
