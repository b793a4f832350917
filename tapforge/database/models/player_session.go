package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PlayerSession carries tick bookkeeping, separate from the Progress ledger.
// Created lazily on the first tick or session request.
type PlayerSession struct {
	bun.BaseModel `bun:"table:player_sessions,alias:ps"`

	ID     int64  `bun:"id,pk,autoincrement"`
	UserID string `bun:"user_id,notnull,unique"`

	LastTickAt time.Time `bun:"last_tick_at,nullzero"`

	// Fractional or over-cap elapsed time carried into the next tick so that
	// no accrued time is lost, only deferred.
	PendingPassiveSeconds float64 `bun:"pending_passive_seconds,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
