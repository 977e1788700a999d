package storage

import (
	"context"
	"errors"

	"github.com/mattn/go-sqlite3"

	"barrier-access-control/internal/config"
)

type SQLiteProvider struct {
	SQLProvider
}

func NewSQLiteProvider(config *config.Storage) *SQLiteProvider {
	inner := NewSQLProvider(config, "sqlite3", config.SQLite.Path+"?_busy_timeout=5000&_fk=1")
	if inner == nil {
		return nil
	}

	// An in-memory sqlite database exists per connection; restrict the pool
	// so every query sees the same database.
	if config.SQLite.Path == ":memory:" {
		inner.db.SetMaxOpenConns(1)
	}

	return &SQLiteProvider{
		SQLProvider: *inner,
	}
}

func (p *SQLProvider) GetSchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := p.db.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
		return 0, err
	}
	return version, nil
}

// isUniqueViolation reports whether err is a sqlite unique constraint error,
// used to map constraint violations to typed duplicate errors.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
