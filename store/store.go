// Package store is the bun-backed persistence layer shared by the import
// engine and the HTTP handlers.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/padraicbc/f1picks/models"
)

var ErrNotFound = errors.New("store: not found")

// Store wraps a bun database.
type Store struct {
	db *bun.DB
}

func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for ad-hoc queries.
func (s *Store) DB() *bun.DB {
	return s.db
}

func notFound(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %v", ErrNotFound, what, id)
	}
	return fmt.Errorf("load %s %v: %w", what, id, err)
}

// UserByUsername loads a user for sign-in.
func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().Model(user).Where("username = ?", username).Scan(ctx)
	if err != nil {
		return nil, notFound(err, "user", username)
	}
	return user, nil
}
