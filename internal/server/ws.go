package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ayusman/lazarillo/internal/app"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// statePushInterval is how often each client receives a state snapshot.
const statePushInterval = 500 * time.Millisecond

// event is the envelope pushed over the WebSocket. Alerts carry base64 MP3
// audio the browser plays back immediately.
type event struct {
	Type  string     `json:"type"`
	State *app.State `json:"state,omitempty"`
	Alert *app.Alert `json:"alert,omitempty"`
}

// EventsHandler pushes session state and voice alerts to the browser UI.
type EventsHandler struct {
	app    *app.App
	logger zerolog.Logger
}

// NewEventsHandler creates an EventsHandler for the given application.
func NewEventsHandler(a *app.App, logger zerolog.Logger) *EventsHandler {
	return &EventsHandler{app: a, logger: logger}
}

// ServeHTTP upgrades the connection and streams events until the client
// disconnects.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	alerts, cancel := h.app.Subscribe()
	defer cancel()

	// Writes come from two sources, serialize them.
	var writeMu sync.Mutex
	send := func(ev event) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(ev)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(statePushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case al := <-alerts:
			if err := send(event{Type: "alert", Alert: &al}); err != nil {
				return
			}
		case <-ticker.C:
			state := h.app.State()
			if err := send(event{Type: "state", State: &state}); err != nil {
				return
			}
		}
	}
}
