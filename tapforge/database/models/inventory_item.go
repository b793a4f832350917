package models

import (
	"time"

	"github.com/uptrace/bun"
)

// InventoryItem is one row per player per building id, upserted with clamped
// deltas (count never drops below zero).
type InventoryItem struct {
	bun.BaseModel `bun:"table:inventory_items,alias:inv"`

	ID         int64  `bun:"id,pk,autoincrement"`
	UserID     string `bun:"user_id,notnull"`
	BuildingID string `bun:"building_id,notnull"`
	Count      int64  `bun:"count,notnull,default:0"`
	Level      int    `bun:"level,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
