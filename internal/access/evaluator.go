// Package access decides whether a presented card may pass the barrier.
package access

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"barrier-access-control/internal/barrier"
	"barrier-access-control/internal/storage"
)

// Evaluate reports whether the card admits at the given instant: the card
// must exist, have access authored, and the instant must fall inside the
// validity window. Both window boundaries are inclusive.
// Evaluation never mutates anything and is safe to repeat.
func Evaluate(card *storage.Card, now time.Time) bool {
	if card == nil {
		return false
	}
	if !card.AuthoredAccess {
		return false
	}
	if now.Before(card.ValidFrom) {
		return false
	}
	if card.ValidTo != nil && now.After(*card.ValidTo) {
		return false
	}
	return true
}

// Decision is the outcome communicated to a device. BarrierOpenSec is
// populated on deny as well; devices act on it only when admitted.
type Decision struct {
	Authorized     bool `json:"auth"`
	BarrierOpenSec int  `json:"barrierOpenSec"`
}

// CardFinder is the lookup the evaluator needs from the card store.
type CardFinder interface {
	GetCardByUID(ctx context.Context, uid string) (*storage.Card, error)
}

type Service struct {
	store   CardFinder
	barrier *barrier.Controller
	logger  *slog.Logger
}

func NewService(store CardFinder, barrier *barrier.Controller) *Service {
	return &Service{
		store:   store,
		barrier: barrier,
		logger:  slog.With("component", "access"),
	}
}

// Authorize looks up uid and evaluates it at the given instant. A missing
// record is a normal deny, not an error.
func (s *Service) Authorize(ctx context.Context, uid string, now time.Time) (Decision, error) {
	decision := Decision{BarrierOpenSec: s.barrier.OpenSeconds()}

	card, err := s.store.GetCardByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrCardNotFound) {
			s.logger.Info("Access denied for unknown card", "uid", uid)
			return decision, nil
		}
		return decision, err
	}

	decision.Authorized = Evaluate(card, now)
	if decision.Authorized {
		s.logger.Info("Access granted", "uid", uid)
	} else {
		s.logger.Info("Access denied", "uid", uid)
	}

	return decision, nil
}
