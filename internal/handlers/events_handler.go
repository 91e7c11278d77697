package handlers

import (
	"github.com/anonto42/nano-feed/backend/internal/apperror"
	"github.com/anonto42/nano-feed/backend/internal/realtime"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/starfederation/datastar-go/datastar"
)

// EventsHandler streams hub events to browsers over SSE.
type EventsHandler struct {
	hub *realtime.Hub
	log zerolog.Logger
}

func NewEventsHandler(hub *realtime.Hub, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, log: log}
}

// Stream keeps the connection open and sends every hub event as a signals
// patch keyed by the event name, e.g. {"posts": {"action": "delete", ...}}.
// Only events emitted while the client is connected are delivered.
func (h *EventsHandler) Stream(c echo.Context) error {
	client, err := h.hub.Subscribe()
	if err != nil {
		return apperror.Wrap(apperror.Internal, "Real-time channel unavailable.", err)
	}
	defer h.hub.Unsubscribe(client)

	sse := datastar.NewSSE(c.Response(), c.Request())
	for {
		select {
		case <-sse.Context().Done():
			return nil
		case ev, ok := <-client.Events():
			if !ok {
				return nil
			}
			if err := sse.MarshalAndPatchSignals(map[string]any{ev.Name: ev.Payload}); err != nil {
				h.log.Debug().Err(err).Msg("event stream closed")
				return nil
			}
		}
	}
}
