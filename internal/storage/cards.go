package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const defaultListLimit = 100
const maxListLimit = 500

// validateWindow enforces valid_from <= valid_to whenever an upper bound is set.
func validateWindow(validFrom time.Time, validTo *time.Time) error {
	if validTo != nil && validTo.Before(validFrom) {
		return ErrInvalidCardWindow
	}
	return nil
}

func (p *SQLProvider) GetCardByUID(ctx context.Context, uid string) (*Card, error) {
	var card Card
	err := p.db.GetContext(ctx, &card,
		"SELECT id, uid, authored_access, valid_from, valid_to, created_at FROM cards WHERE uid = ?", uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return &card, nil
}

// CreateCard inserts a new card. The unique constraint on uid is the
// authoritative duplicate check, so concurrent inserts for the same uid
// cannot both succeed.
func (p *SQLProvider) CreateCard(ctx context.Context, card Card) (*Card, error) {
	if err := validateWindow(card.ValidFrom, card.ValidTo); err != nil {
		return nil, err
	}

	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now().UTC()
	}

	res, err := p.db.ExecContext(ctx,
		"INSERT INTO cards (uid, authored_access, valid_from, valid_to, created_at) VALUES (?, ?, ?, ?, ?)",
		card.UID, card.AuthoredAccess, card.ValidFrom, card.ValidTo, card.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUid
		}
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	card.ID, _ = res.LastInsertId()
	p.logger.Info("Card created", "uid", card.UID)
	return &card, nil
}

// UpdateCard applies a partial update to the card with the given uid.
// The uid itself is immutable.
func (p *SQLProvider) UpdateCard(ctx context.Context, uid string, patch CardPatch) (*Card, error) {
	card, err := p.GetCardByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	if patch.AuthoredAccess != nil {
		card.AuthoredAccess = *patch.AuthoredAccess
	}
	if patch.ValidFrom != nil {
		card.ValidFrom = *patch.ValidFrom
	}
	if patch.ClearValidTo {
		card.ValidTo = nil
	} else if patch.ValidTo != nil {
		card.ValidTo = patch.ValidTo
	}

	if err := validateWindow(card.ValidFrom, card.ValidTo); err != nil {
		return nil, err
	}

	_, err = p.db.ExecContext(ctx,
		"UPDATE cards SET authored_access = ?, valid_from = ?, valid_to = ? WHERE uid = ?",
		card.AuthoredAccess, card.ValidFrom, card.ValidTo, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to update card: %w", err)
	}

	p.logger.Info("Card updated", "uid", uid)
	return card, nil
}

func (p *SQLProvider) DeleteCard(ctx context.Context, uid string) error {
	res, err := p.db.ExecContext(ctx, "DELETE FROM cards WHERE uid = ?", uid)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCardNotFound
	}

	p.logger.Info("Card deleted", "uid", uid)
	return nil
}

func (p *SQLProvider) ListCards(ctx context.Context, offset int, limit int) ([]Card, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	cards := []Card{}
	err := p.db.SelectContext(ctx, &cards,
		"SELECT id, uid, authored_access, valid_from, valid_to, created_at FROM cards ORDER BY id LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

func (p *SQLProvider) CountCards(ctx context.Context) (int64, error) {
	var count int64
	if err := p.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM cards"); err != nil {
		return 0, err
	}
	return count, nil
}
