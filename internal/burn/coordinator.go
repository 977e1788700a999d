// Package burn coordinates card provisioning: it stages the attributes for
// the next card, commands all connected devices to write it, and commits the
// record once any device reports the physical write.
package burn

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"barrier-access-control/internal/protocol"
	"barrier-access-control/internal/storage"
)

// Status of the single provisioning slot.
type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusDuplicate Status = "duplicate"
	StatusExpired   Status = "expired"
)

var ErrBurnAlreadyPending = errors.New("a burn request is already pending")

// Attributes are stamped onto the new card once a device reports the write.
type Attributes struct {
	AuthoredAccess bool       `json:"authored_access"`
	ValidFrom      time.Time  `json:"valid_from"`
	ValidTo        *time.Time `json:"valid_to"`
}

// CardCreator is the insert the coordinator needs from the card store.
// The insert must be atomic with the duplicate-uid check.
type CardCreator interface {
	CreateCard(ctx context.Context, card storage.Card) (*storage.Card, error)
}

// Broadcaster delivers a frame to every connected device.
type Broadcaster interface {
	Broadcast(ctx context.Context, payload []byte)
}

// Coordinator owns the system-wide provisioning slot. At most one burn is
// outstanding at any time; a burn result arriving on any connection is
// correlated with the slot, never with the connection that received the
// command.
type Coordinator struct {
	mu     sync.Mutex
	status Status
	attrs  Attributes

	// gen increments per initiated burn so a stale expiry timer can never
	// clobber a newer burn.
	gen   uint64
	timer *time.Timer

	store  CardCreator
	hub    Broadcaster
	ttl    time.Duration
	logger *slog.Logger
}

func NewCoordinator(store CardCreator, hub Broadcaster, ttl time.Duration) *Coordinator {
	return &Coordinator{
		status: StatusNone,
		store:  store,
		hub:    hub,
		ttl:    ttl,
		logger: slog.With("component", "burn"),
	}
}

// Status returns the outcome of the most recent completed or in-flight burn.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Initiate stages attrs and commands every connected device to burn the next
// presented card. Rejected with ErrBurnAlreadyPending while a burn is in
// flight; an expired or otherwise terminal slot is overwritten.
func (c *Coordinator) Initiate(ctx context.Context, attrs Attributes) error {
	if attrs.ValidTo != nil && attrs.ValidTo.Before(attrs.ValidFrom) {
		return storage.ErrInvalidCardWindow
	}

	c.mu.Lock()
	if c.status == StatusPending {
		c.mu.Unlock()
		return ErrBurnAlreadyPending
	}

	c.attrs = attrs
	c.status = StatusPending
	c.gen++
	gen := c.gen

	if c.timer != nil {
		c.timer.Stop()
	}
	if c.ttl > 0 {
		c.timer = time.AfterFunc(c.ttl, func() { c.expire(gen) })
	}
	c.mu.Unlock()

	payload, err := protocol.Encode(protocol.BurnCard{})
	if err != nil {
		return err
	}
	c.hub.Broadcast(ctx, payload)

	c.logger.Info("Burn initiated", "authored_access", attrs.AuthoredAccess, "valid_from", attrs.ValidFrom)
	return nil
}

func (c *Coordinator) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.status != StatusPending {
		return
	}
	c.status = StatusExpired
	c.logger.Warn("Burn expired without a device response", "ttl", c.ttl)
}

// HandleResult consumes a burn result reported by any device. Results
// arriving while no burn is pending are logged and dropped.
//
// The card insert relies on the store's unique uid constraint as the
// duplicate check, and the slot mutex is held across it, so two devices
// reporting the same uid concurrently cannot both commit.
func (c *Coordinator) HandleResult(ctx context.Context, res protocol.BurnResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != StatusPending {
		c.logger.Warn("Ignoring burn result with no pending burn", "status", c.status, "uid", res.UID)
		return nil
	}

	if c.timer != nil {
		c.timer.Stop()
	}

	if !res.BurnSuccessful {
		c.status = StatusFailed
		c.logger.Warn("Device reported burn failure")
		return nil
	}

	card := storage.Card{
		UID:            res.UID,
		AuthoredAccess: c.attrs.AuthoredAccess,
		ValidFrom:      c.attrs.ValidFrom,
		ValidTo:        c.attrs.ValidTo,
	}

	_, err := c.store.CreateCard(ctx, card)
	switch {
	case errors.Is(err, storage.ErrDuplicateUid):
		c.status = StatusDuplicate
		c.logger.Warn("Burned card uid already exists", "uid", res.UID)
		return nil
	case err != nil:
		// The slot must never stay pending after a store failure.
		c.status = StatusFailed
		c.logger.Error("Failed to store burned card", "uid", res.UID, "error", err)
		return err
	}

	c.status = StatusSucceeded
	c.logger.Info("Card burned and stored", "uid", res.UID)
	return nil
}

// Reset returns a terminal slot to none so a new burn can be observed from a
// clean state. Refused while a burn is still pending.
func (c *Coordinator) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusPending {
		return ErrBurnAlreadyPending
	}

	c.status = StatusNone
	c.attrs = Attributes{}
	return nil
}
