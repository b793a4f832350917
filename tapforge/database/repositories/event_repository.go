package repositories

import (
	"context"

	"github.com/tapforge/server/tapforge/database/models"
	"github.com/uptrace/bun"
)

// EventRepository appends audit events. Inserts accept a bun.IDB so they can
// ride the caller's transaction or go straight to the pool, as for rejected
// taps recorded outside any transaction.
type EventRepository interface {
	Insert(ctx context.Context, idb bun.IDB, event *models.Event) error
}

type eventRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewEventRepository(db *bun.DB) EventRepository {
	return &eventRepository{
		db:             db,
		BaseRepository: NewBaseRepository(),
	}
}

func (r *eventRepository) Insert(ctx context.Context, idb bun.IDB, event *models.Event) error {
	_, err := idb.NewInsert().Model(event).Exec(ctx)
	return r.HandleErrorWithID("insert", "event", event.UserID, err)
}
