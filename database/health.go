package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Checker reports whether the database accepts connections.
type Checker struct {
	db      *sql.DB
	timeout time.Duration
}

// NewChecker creates a Checker that pings db with the given deadline.
func NewChecker(db *sql.DB, timeout time.Duration) *Checker {
	return &Checker{db: db, timeout: timeout}
}

// Ping returns an error if the database cannot be reached within the deadline.
func (c *Checker) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
