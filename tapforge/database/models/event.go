package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

// Event is an append-only audit record. Snowflake ids keep insertion order
// recoverable without a sequence round-trip.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:ev"`

	ID        snowflake.ID           `bun:"id,pk"`
	UserID    string                 `bun:"user_id,notnull"`
	EventType string                 `bun:"event_type,notnull"`
	EventData map[string]interface{} `bun:"event_data,type:jsonb"`

	IsSuspicious bool `bun:"is_suspicious,notnull,default:false"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// NewEvent stamps a fresh snowflake id and creation time.
func NewEvent(userID, eventType string, data map[string]interface{}) *Event {
	now := time.Now()
	return &Event{
		ID:        snowflake.New(now),
		UserID:    userID,
		EventType: eventType,
		EventData: data,
		CreatedAt: now,
	}
}
