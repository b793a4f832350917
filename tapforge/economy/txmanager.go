package economy

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tapforge/server/tapforge/config"
	"github.com/uptrace/bun"
)

// TxOptions configures transaction behavior
type TxOptions struct {
	IsolationLevel sql.IsolationLevel
	Timeout        time.Duration
}

// TxRunner is the narrow view engines hold on the transaction manager.
type TxRunner interface {
	WithTransaction(ctx context.Context, opts *TxOptions, fn func(context.Context, bun.Tx) error) error
	DB() *bun.DB
}

// TxManager provides standardized transaction utilities for economy operations
type TxManager struct {
	db *bun.DB
}

// NewTxManager creates a new transaction manager
func NewTxManager(db *bun.DB) *TxManager {
	return &TxManager{db: db}
}

// StandardTxOptions returns default transaction options
func StandardTxOptions() *TxOptions {
	return &TxOptions{
		IsolationLevel: sql.LevelReadCommitted,
		Timeout:        config.DefaultTxTimeout,
	}
}

// SerializableTxOptions returns serializable isolation level options for
// critical operations such as prestige resets
func SerializableTxOptions() *TxOptions {
	return &TxOptions{
		IsolationLevel: sql.LevelSerializable,
		Timeout:        config.DefaultTxTimeout,
	}
}

// WithTransaction executes a function within a database transaction. The
// function's own error is returned unwrapped so domain error types survive
// the round trip.
func (tm *TxManager) WithTransaction(ctx context.Context, opts *TxOptions, fn func(context.Context, bun.Tx) error) error {
	if opts == nil {
		opts = StandardTxOptions()
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	tx, err := tm.db.BeginTx(timeoutCtx, &sql.TxOptions{
		Isolation: opts.IsolationLevel,
	})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(timeoutCtx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DB exposes the underlying handle for reads that do not need a transaction.
func (tm *TxManager) DB() *bun.DB {
	return tm.db
}
