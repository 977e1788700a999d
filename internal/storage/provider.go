package storage

import (
	"context"
	"errors"
	"log/slog"

	"barrier-access-control/internal/config"
)

var (
	ErrCardNotFound      = errors.New("card not found")
	ErrInvalidCardWindow = errors.New("valid_from must not be after valid_to")
	ErrDuplicateUid      = errors.New("card uid already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
)

type Provider interface {
	Close() error
	GetSchemaVersion(ctx context.Context) (int, error)

	// Card methods
	GetCardByUID(ctx context.Context, uid string) (*Card, error)
	CreateCard(ctx context.Context, card Card) (*Card, error)
	UpdateCard(ctx context.Context, uid string, patch CardPatch) (*Card, error)
	DeleteCard(ctx context.Context, uid string) error
	ListCards(ctx context.Context, offset int, limit int) ([]Card, error)
	CountCards(ctx context.Context) (int64, error)

	// Operator user methods
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, user User) error
}

func NewProvider(config *config.Storage) Provider {
	switch {
	case config.SQLite != nil:
		provider := NewSQLiteProvider(config)
		if provider == nil {
			return nil
		}
		if err := provider.runMigrations("sqlite3"); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			return nil
		}
		return provider

	default:
		slog.Error("Unsupported storage configuration", "config", config)
	}

	return nil
}
