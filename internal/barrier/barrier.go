// Package barrier holds the process-wide barrier configuration and issues
// open commands to connected devices.
package barrier

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"barrier-access-control/internal/protocol"
)

var ErrInvalidDuration = errors.New("barrier open duration must not be negative")

// Broadcaster delivers a frame to every connected device.
type Broadcaster interface {
	Broadcast(ctx context.Context, payload []byte)
}

// Controller owns the configured open duration. Reads and writes are
// serialized; a duration change never affects an in-flight decision.
type Controller struct {
	mu      sync.RWMutex
	openSec int

	hub    Broadcaster
	logger *slog.Logger
}

func NewController(hub Broadcaster, openSec int) *Controller {
	if openSec < 0 {
		openSec = 0
	}
	return &Controller{
		openSec: openSec,
		hub:     hub,
		logger:  slog.With("component", "barrier"),
	}
}

// OpenSeconds returns the current open duration.
func (c *Controller) OpenSeconds() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.openSec
}

// SetOpenSeconds atomically replaces the open duration. Negative values are
// rejected and leave the stored value unchanged.
func (c *Controller) SetOpenSeconds(seconds int) error {
	if seconds < 0 {
		return ErrInvalidDuration
	}

	c.mu.Lock()
	c.openSec = seconds
	c.mu.Unlock()

	c.logger.Info("Barrier open duration updated", "open_sec", seconds)
	return nil
}

// OpenNow broadcasts an open command carrying the current duration.
// No state changes.
func (c *Controller) OpenNow(ctx context.Context) error {
	payload, err := protocol.Encode(protocol.OpenBarrier{BarrierOpenSec: c.OpenSeconds()})
	if err != nil {
		return err
	}

	c.hub.Broadcast(ctx, payload)
	c.logger.Info("Barrier open command broadcast", "open_sec", c.OpenSeconds())
	return nil
}
