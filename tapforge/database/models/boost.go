package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Boost is a temporary income multiplier. Rows become inert once expired and
// are only hard-deleted by a prestige reset.
type Boost struct {
	bun.BaseModel `bun:"table:boosts,alias:b"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     string    `bun:"user_id,notnull"`
	BoostType  string    `bun:"boost_type,notnull"`
	Multiplier float64   `bun:"multiplier,notnull"`
	ExpiresAt  time.Time `bun:"expires_at,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// IsActive reports whether the boost still applies at the given instant.
func (b *Boost) IsActive(now time.Time) bool {
	return b.ExpiresAt.After(now)
}
