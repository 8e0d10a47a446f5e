// Package store is the local source of truth for inventory items.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erazemk/zaloga/internal/db"
)

// ErrInvalidArgument is returned when an operation's precondition is violated.
var ErrInvalidArgument = errors.New("invalid argument")

// Store owns one SQLite file. The handle is opened and migrated on first use
// and cached until Close; the next call after Close reopens it.
type Store struct {
	path string
	now  func() time.Time

	mu     sync.Mutex
	handle *sql.DB
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the clock used to stamp updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a store for the database file at path. Nothing is opened yet.
func New(path string, opts ...Option) *Store {
	s := &Store{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DB returns the open handle, opening and migrating the file if needed.
func (s *Store) DB(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		return s.handle, nil
	}

	handle, err := db.Open(s.path)
	if err != nil {
		return nil, err
	}
	if s.path == ":memory:" {
		handle.SetMaxOpenConns(1)
	}
	if err := db.Migrate(ctx, handle); err != nil {
		handle.Close()
		return nil, err
	}

	s.handle = handle
	return handle, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return nil
	}
	err := s.handle.Close()
	s.handle = nil
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}
