package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Handler serves the websocket stream and the results endpoint.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates a handler for hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Routes returns a mux with /ws and /result.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWS)
	mux.HandleFunc("/result", h.HandleResult)
	return mux
}

// HandleWS upgrades the connection and keeps it subscribed until the
// client goes away. Client messages are ignored.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	id, err := h.hub.Subscribe(conn)
	if err != nil {
		slog.Warn("subscribe failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	slog.Info("subscriber joined", "id", id, "remote", r.RemoteAddr)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.hub.Unsubscribe(id)
			slog.Info("subscriber left", "id", id)
			return
		}
	}
}

// HandleResult serves every race result so far and the chain table.
func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.hub.Results()); err != nil {
		slog.Warn("writing results", "error", err)
	}
}
