package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Progress is the authoritative economic ledger, one row per player. It is
// mutated exclusively through whole-row updates inside a transaction.
type Progress struct {
	bun.BaseModel `bun:"table:progress,alias:pr"`

	ID     int64  `bun:"id,pk,autoincrement"`
	UserID string `bun:"user_id,notnull,unique"`

	Level      int   `bun:"level,notnull,default:1"`
	XP         int64 `bun:"xp,notnull,default:0"`
	XPOverflow int64 `bun:"xp_overflow,notnull,default:0"`

	Energy       int64 `bun:"energy,notnull,default:0"`
	StarsBalance int64 `bun:"stars_balance,notnull,default:0"`

	// Lifetime counters, monotonic; prestige does not reset them.
	TotalEnergyProduced     int64 `bun:"total_energy_produced,notnull,default:0"`
	TotalTaps               int64 `bun:"total_taps,notnull,default:0"`
	TotalBuildingsPurchased int64 `bun:"total_buildings_purchased,notnull,default:0"`

	TapLevel int `bun:"tap_level,notnull,default:1"`

	PrestigeLevel          int       `bun:"prestige_level,notnull,default:0"`
	PrestigeMultiplier     float64   `bun:"prestige_multiplier,notnull,default:1"`
	PrestigeEnergySnapshot int64     `bun:"prestige_energy_snapshot,notnull,default:0"`
	PrestigeLastReset      time.Time `bun:"prestige_last_reset,nullzero"`

	AchievementMultiplier float64 `bun:"achievement_multiplier,notnull,default:1"`

	LastLogin  time.Time `bun:"last_login,nullzero"`
	LastLogout time.Time `bun:"last_logout,nullzero"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// EnergySinceSnapshot is the lifetime production accumulated since the last
// prestige reset; the prestige gain curve is evaluated against it.
func (p *Progress) EnergySinceSnapshot() int64 {
	since := p.TotalEnergyProduced - p.PrestigeEnergySnapshot
	if since < 0 {
		return 0
	}
	return since
}
