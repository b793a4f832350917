package repositories

import (
	"context"
	"time"

	"github.com/tapforge/server/tapforge/database/models"
	"github.com/uptrace/bun"
)

// BoostRepository reads and writes temporary income multipliers. Reads accept
// a bun.IDB so they run either against the pool or inside a transaction.
type BoostRepository interface {
	GetActive(ctx context.Context, idb bun.IDB, userID string, now time.Time) ([]*models.Boost, error)
	HasActiveOfType(ctx context.Context, idb bun.IDB, userID, boostType string, now time.Time) (bool, error)
	Insert(ctx context.Context, idb bun.IDB, boost *models.Boost) error
	DeleteAllForUser(ctx context.Context, tx bun.Tx, userID string) error
}

type boostRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewBoostRepository(db *bun.DB) BoostRepository {
	return &boostRepository{
		db:             db,
		BaseRepository: NewBaseRepository(),
	}
}

func (r *boostRepository) GetActive(ctx context.Context, idb bun.IDB, userID string, now time.Time) ([]*models.Boost, error) {
	var boosts []*models.Boost
	err := idb.NewSelect().
		Model(&boosts).
		Where("user_id = ?", userID).
		Where("expires_at > ?", now).
		Order("expires_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_active", "boost", userID, err)
	}
	return boosts, nil
}

func (r *boostRepository) HasActiveOfType(ctx context.Context, idb bun.IDB, userID, boostType string, now time.Time) (bool, error) {
	exists, err := idb.NewSelect().
		Model((*models.Boost)(nil)).
		Where("user_id = ?", userID).
		Where("boost_type = ?", boostType).
		Where("expires_at > ?", now).
		Exists(ctx)
	if err != nil {
		return false, r.HandleErrorWithID("has_active", "boost", userID, err)
	}
	return exists, nil
}

func (r *boostRepository) Insert(ctx context.Context, idb bun.IDB, boost *models.Boost) error {
	if boost.CreatedAt.IsZero() {
		boost.CreatedAt = time.Now()
	}
	_, err := idb.NewInsert().Model(boost).Exec(ctx)
	return r.HandleErrorWithID("insert", "boost", boost.UserID, err)
}

func (r *boostRepository) DeleteAllForUser(ctx context.Context, tx bun.Tx, userID string) error {
	_, err := tx.NewDelete().
		Model((*models.Boost)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	return r.HandleErrorWithID("delete_all", "boost", userID, err)
}
