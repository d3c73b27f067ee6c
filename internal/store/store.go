// Package store provides pgx-backed access to the reference tables and order
// rows the financial core reads and writes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a pgx connection pool.
type Store struct {
	Pool *pgxpool.Pool
}

// New constructs a Store over the provided pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// PingDB probes database connectivity within the provided timeout.
func (s *Store) PingDB(ctx context.Context, timeout time.Duration) error {
	if s == nil || s.Pool == nil {
		return errors.New("store: pool not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.Pool.Ping(ctx)
}
