package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AchievementProgress tracks one player against one achievement definition.
// progress_value and highest_unlocked_tier only ever grow; current_tier is
// advanced separately by player-initiated claims.
type AchievementProgress struct {
	bun.BaseModel `bun:"table:achievement_progress,alias:ap"`

	ID            int64  `bun:"id,pk,autoincrement"`
	UserID        string `bun:"user_id,notnull"`
	AchievementID string `bun:"achievement_id,notnull"`

	ProgressValue       int64 `bun:"progress_value,notnull,default:0"`
	HighestUnlockedTier int   `bun:"highest_unlocked_tier,notnull,default:0"`
	CurrentTier         int   `bun:"current_tier,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
