package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"render-presets/preset"
	"render-presets/scene"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is exchanged in both directions. The server sends "current"
// after every change, "error" when a client request fails and "closed" when
// the scene is deleted. Clients send "apply" with a preset name.
type wsMessage struct {
	Type    string              `json:"type"`
	Preset  string              `json:"preset,omitempty"`
	Current string              `json:"current,omitempty"`
	Applied string              `json:"applied,omitempty"`
	Render  *preset.RenderState `json:"render,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func currentMessage(s scene.Scene) wsMessage {
	render := s.Render
	return wsMessage{
		Type:    "current",
		Current: s.Current(),
		Applied: s.Applied,
		Render:  &render,
	}
}

func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, ok := h.scenes.Get(id)
	if !ok {
		http.Error(w, "scene not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("scene_id", id), slog.Any("error", err))
		return
	}
	defer conn.Close()

	// gorilla/websocket forbids concurrent writes.
	var writeMu sync.Mutex
	writeMsg := func(msg wsMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(msg)
	}

	sub, err := h.scenes.Watch(id)
	if err != nil {
		writeMsg(wsMessage{Type: "closed"}) //nolint:errcheck
		return
	}
	defer sub.Close()
	if latest, ok := h.scenes.Get(id); ok {
		s = latest
	}

	if err := writeMsg(currentMessage(s)); err != nil {
		h.logger.Warn("websocket snapshot failed", slog.String("scene_id", id), slog.Any("error", err))
		return
	}

	// Pump scene updates to the client. Exits when sub.Close closes Updates.
	go func() {
		for update := range sub.Updates {
			if err := writeMsg(currentMessage(update)); err != nil {
				return
			}
		}
	}()

	// Close the connection on delete or displacement so ReadJSON unblocks.
	connDone := make(chan struct{})
	go func() {
		select {
		case <-sub.Done:
			writeMsg(wsMessage{Type: "closed"}) //nolint:errcheck
			conn.Close()
		case <-sub.Kicked:
			conn.Close()
		case <-connDone:
		}
	}()
	defer close(connDone)

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "apply":
			// The resulting update reaches the client through the subscription.
			if _, err := h.scenes.ApplyPreset(id, msg.Preset); err != nil {
				writeMsg(wsMessage{Type: "error", Preset: msg.Preset, Error: err.Error()}) //nolint:errcheck
			}
		}
	}
}
