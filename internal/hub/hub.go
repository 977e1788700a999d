// Package hub tracks live device connections and delivers outbound frames.
package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const sendTimeout = 5 * time.Second

// Conn is one live device transport session. Connections are anonymous at
// this layer; the credential check happens once at accept time.
type Conn interface {
	// Write delivers one frame to the device.
	Write(ctx context.Context, payload []byte) error
	// CloseNow tears the transport down without a close handshake.
	CloseNow() error
}

// Hub is the connection registry. All methods are safe for concurrent use.
type Hub struct {
	mu     sync.Mutex
	conns  map[Conn]struct{}
	logger *slog.Logger
}

func New() *Hub {
	return &Hub{
		conns:  make(map[Conn]struct{}),
		logger: slog.With("component", "hub"),
	}
}

// Register makes conn eligible for broadcasts.
func (h *Hub) Register(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
	h.logger.Debug("Device connection registered", "connections", len(h.conns))
}

// Unregister removes conn from the registry. Removing an unknown or
// already-removed connection is a no-op.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; !ok {
		return
	}
	delete(h.conns, conn)
	h.logger.Debug("Device connection removed", "connections", len(h.conns))
}

// Len returns the number of registered connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) snapshot() []Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	return conns
}

// Broadcast delivers payload to every registered connection, best effort.
// A failed send never aborts delivery to the remaining connections; the
// failed connection is pruned from the registry.
func (h *Hub) Broadcast(ctx context.Context, payload []byte) {
	for _, conn := range h.snapshot() {
		if err := h.send(ctx, conn, payload); err != nil {
			h.logger.Warn("Broadcast send failed, pruning connection", "error", err)
			h.drop(conn)
		}
	}
}

// SendTo delivers payload to a single connection. On failure the connection
// is pruned and the error returned.
func (h *Hub) SendTo(ctx context.Context, conn Conn, payload []byte) error {
	if err := h.send(ctx, conn, payload); err != nil {
		h.logger.Warn("Send failed, pruning connection", "error", err)
		h.drop(conn)
		return err
	}
	return nil
}

func (h *Hub) send(ctx context.Context, conn Conn, payload []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return conn.Write(writeCtx, payload)
}

func (h *Hub) drop(conn Conn) {
	h.Unregister(conn)
	conn.CloseNow()
}
