package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/event"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/state"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/query"
)

// QueryService is the read side served by RocketsHandler.
type QueryService interface {
	GetRocket(ctx context.Context, rocketID string) (state.State, error)
	Search(ctx context.Context, req query.SearchRequest) ([]event.Event, error)
	ListRockets(ctx context.Context) ([]query.Summary, error)
}

// RocketsHandler serves the rocket dashboard endpoints.
type RocketsHandler struct {
	service QueryService
	logf    func(string, ...any)
}

// NewRocketsHandler builds the dashboard handler.
func NewRocketsHandler(service QueryService, logf func(string, ...any)) *RocketsHandler {
	return &RocketsHandler{service: service, logf: defaultLogf(logf)}
}

// RegisterRoutes mounts the dashboard endpoints on mux.
func (h *RocketsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /rockets", h.listRockets)
	mux.HandleFunc("GET /rockets/{rocketUuid}", h.getRocket)
	mux.HandleFunc("POST /rockets/search", h.searchRockets)
	mux.HandleFunc("GET /up", up)
}

type rocketSummary struct {
	RocketID string `json:"rocketUuid"`
	Mission  string `json:"mission"`
}

func (h *RocketsHandler) listRockets(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListRockets(r.Context())
	if err != nil {
		writeError(w, h.logf, err)
		return
	}
	resp := make([]rocketSummary, 0, len(summaries))
	for _, summary := range summaries {
		resp = append(resp, rocketSummary{RocketID: summary.RocketID, Mission: summary.Mission})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RocketsHandler) getRocket(w http.ResponseWriter, r *http.Request) {
	projection, err := h.service.GetRocket(r.Context(), r.PathValue("rocketUuid"))
	if err != nil {
		writeError(w, h.logf, err)
		return
	}
	doc, err := state.MarshalDocument(projection)
	if err != nil {
		writeError(w, h.logf, err)
		return
	}
	writeRawJSON(w, http.StatusOK, doc)
}

// searchRockets takes the criteria as the JSON body; an empty body matches
// every event.
func (h *RocketsHandler) searchRockets(w http.ResponseWriter, r *http.Request) {
	criteria := map[string]any{}
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.UseNumber()
	if err := decoder.Decode(&criteria); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "search criteria must be a JSON object")
		return
	}
	for path, value := range criteria {
		if number, ok := value.(json.Number); ok {
			criteria[path] = normalizeNumber(number)
		}
	}

	events, err := h.service.Search(r.Context(), query.SearchRequest{
		Criteria: criteria,
		SortBy:   r.URL.Query().Get("sortBy"),
		Filter:   r.URL.Query().Get("filter"),
	})
	if err != nil {
		writeError(w, h.logf, err)
		return
	}
	docs := make([]json.RawMessage, 0, len(events))
	for _, evt := range events {
		doc, err := event.MarshalDocument(evt)
		if err != nil {
			writeError(w, h.logf, err)
			return
		}
		docs = append(docs, doc)
	}
	writeJSON(w, http.StatusOK, docs)
}

// normalizeNumber keeps integral criteria integral so they compare equal to
// stored message numbers.
func normalizeNumber(number json.Number) any {
	if n, err := number.Int64(); err == nil {
		return n
	}
	if f, err := number.Float64(); err == nil {
		return f
	}
	return number.String()
}
