package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (p *SQLProvider) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := p.db.GetContext(ctx, &user,
		"SELECT id, username, password, is_active, is_admin, created_at FROM users WHERE username = ?", username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (p *SQLProvider) CreateUser(ctx context.Context, user User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := p.db.ExecContext(ctx,
		"INSERT INTO users (username, password, is_active, is_admin, created_at) VALUES (?, ?, ?, ?, ?)",
		user.Username, user.Password, user.IsActive, user.IsAdmin, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	p.logger.Info("User created", "username", user.Username)
	return nil
}
