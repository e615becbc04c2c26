// Package server streams race snapshots and results over websockets.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/bounce/game"
	"github.com/pthm-cable/bounce/telemetry"
)

// Message types sent to subscribers.
const (
	TypeSnapshot = "snapshot"
	TypeResult   = "result"
)

// Message is one websocket frame.
type Message struct {
	Type      string                    `json:"type"`
	Snapshot  *game.Snapshot            `json:"snapshot,omitempty"`
	Result    *telemetry.RaceResult     `json:"result,omitempty"`
	Standings []telemetry.ChainStanding `json:"standings,omitempty"`
}

// Results is the body served at /result.
type Results struct {
	Races     []telemetry.RaceResult    `json:"races"`
	Standings []telemetry.ChainStanding `json:"standings"`
}

// writeWait bounds how long one frame may take to reach a subscriber.
const writeWait = 10 * time.Second

// Hub owns the subscribers and the latest published state.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uint64]*subscriber
	nextID      atomic.Uint64
	writeWait   time.Duration

	latest    []byte // last snapshot frame, sent to new subscribers
	races     []telemetry.RaceResult
	standings []telemetry.ChainStanding
}

type subscriber struct {
	conn *websocket.Conn
	wait time.Duration
	mu   sync.Mutex
}

// write sends one frame. A stalled peer fails the write once the deadline
// passes instead of blocking the broadcaster.
func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.wait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[uint64]*subscriber), writeWait: writeWait}
}

// Subscribe registers a connection and sends it the latest snapshot.
func (h *Hub) Subscribe(conn *websocket.Conn) (uint64, error) {
	id := h.nextID.Add(1)
	sub := &subscriber{conn: conn, wait: h.writeWait}

	h.mu.Lock()
	h.subscribers[id] = sub
	latest := h.latest
	h.mu.Unlock()

	if latest != nil {
		if err := sub.write(latest); err != nil {
			h.Unsubscribe(id)
			return 0, fmt.Errorf("sending initial snapshot: %w", err)
		}
	}
	return id, nil
}

// Unsubscribe removes and closes a subscriber.
func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	delete(h.subscribers, id)
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// PublishSnapshot broadcasts a snapshot and keeps it for late subscribers.
func (h *Hub) PublishSnapshot(s game.Snapshot) error {
	data, err := json.Marshal(Message{Type: TypeSnapshot, Snapshot: &s})
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	h.mu.Lock()
	h.latest = data
	h.mu.Unlock()
	h.broadcast(data)
	return nil
}

// PublishResult broadcasts a race result with the chain table after it.
func (h *Hub) PublishResult(rr telemetry.RaceResult, standings []telemetry.ChainStanding) error {
	data, err := json.Marshal(Message{Type: TypeResult, Result: &rr, Standings: standings})
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	h.mu.Lock()
	h.races = append(h.races, rr)
	h.standings = append([]telemetry.ChainStanding(nil), standings...)
	h.mu.Unlock()
	h.broadcast(data)
	return nil
}

// Results returns a copy of every published result.
func (h *Hub) Results() Results {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Results{
		Races:     append([]telemetry.RaceResult{}, h.races...),
		Standings: append([]telemetry.ChainStanding{}, h.standings...),
	}
}

// broadcast writes data to every subscriber, dropping those that fail.
func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	subs := make(map[uint64]*subscriber, len(h.subscribers))
	for id, s := range h.subscribers {
		subs[id] = s
	}
	h.mu.Unlock()

	for id, s := range subs {
		if err := s.write(data); err != nil {
			slog.Debug("dropping subscriber", "id", id, "error", err)
			h.Unsubscribe(id)
		}
	}
}
