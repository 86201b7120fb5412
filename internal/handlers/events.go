package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/quietgrove/intently/internal/events"
	"github.com/quietgrove/intently/internal/request"
)

// sseHeartbeatInterval keeps idle SSE connections from being closed by
// intermediaries
const sseHeartbeatInterval = 30 * time.Second

// EventHandler streams change events to the browser over SSE
type EventHandler struct {
	bus    *events.Bus
	logger *zap.Logger
}

// NewEventHandler creates a new event stream handler
func NewEventHandler(bus *events.Bus, logger *zap.Logger) *EventHandler {
	return &EventHandler{bus: bus, logger: logger}
}

// Stream subscribes the client to its own change feed. The connection stays
// open until the client disconnects or the request context is cancelled.
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Streaming not supported")
		return
	}

	ctx := r.Context()
	changes, err := h.bus.Subscribe(ctx, user.ID)
	if err != nil {
		h.logger.Error("event_subscribe_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to subscribe to events")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case change, open := <-changes:
			if !open {
				return
			}
			payload, err := json.Marshal(change)
			if err != nil {
				h.logger.Warn("event_marshal_failed", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
