package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/louisbranch/rocketwatch/internal/services/rockets/domain/event"
	"github.com/louisbranch/rocketwatch/internal/services/rockets/queue"
)

// MessagesHandler accepts rocket envelopes and enqueues them for the consumer.
type MessagesHandler struct {
	publisher queue.Publisher
	logf      func(string, ...any)
}

// NewMessagesHandler builds the ingress handler.
func NewMessagesHandler(publisher queue.Publisher, logf func(string, ...any)) *MessagesHandler {
	return &MessagesHandler{publisher: publisher, logf: defaultLogf(logf)}
}

// RegisterRoutes mounts the ingress endpoints on mux.
func (h *MessagesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /messages", h.postMessage)
	mux.HandleFunc("GET /up", up)
}

// postMessage decodes the envelope only to discriminate its type; the raw
// body is what gets queued.
func (h *MessagesHandler) postMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "message body too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "read message body")
		return
	}
	evt, err := event.DecodeEnvelope(body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.publisher.Publish(r.Context(), evt.RocketID, body); err != nil {
		h.logf("Failed to queue message: rocket %s msg #%d: %v", evt.RocketID, evt.Seq, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Queue unavailable"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
