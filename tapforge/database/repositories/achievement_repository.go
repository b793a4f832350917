package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tapforge/server/tapforge/database/models"
	"github.com/uptrace/bun"
)

// AchievementRepository stores per-player achievement tier state.
type AchievementRepository interface {
	GetByUserAndDef(ctx context.Context, idb bun.IDB, userID, achievementID string) (*models.AchievementProgress, error)
	GetAllByUser(ctx context.Context, idb bun.IDB, userID string) ([]*models.AchievementProgress, error)
	Upsert(ctx context.Context, tx bun.Tx, ap *models.AchievementProgress) error
}

type achievementRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewAchievementRepository(db *bun.DB) AchievementRepository {
	return &achievementRepository{
		db:             db,
		BaseRepository: NewBaseRepository(),
	}
}

func (r *achievementRepository) GetByUserAndDef(ctx context.Context, idb bun.IDB, userID, achievementID string) (*models.AchievementProgress, error) {
	ap := new(models.AchievementProgress)
	err := idb.NewSelect().
		Model(ap).
		Where("user_id = ?", userID).
		Where("achievement_id = ?", achievementID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "achievement_progress", ID: achievementID}
		}
		return nil, r.HandleErrorWithID("get", "achievement_progress", userID, err)
	}
	return ap, nil
}

func (r *achievementRepository) GetAllByUser(ctx context.Context, idb bun.IDB, userID string) ([]*models.AchievementProgress, error) {
	var rows []*models.AchievementProgress
	err := idb.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("achievement_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_all", "achievement_progress", userID, err)
	}
	return rows, nil
}

func (r *achievementRepository) Upsert(ctx context.Context, tx bun.Tx, ap *models.AchievementProgress) error {
	now := time.Now()
	ap.UpdatedAt = now
	if ap.ID != 0 {
		_, err := tx.NewUpdate().
			Model(ap).
			WherePK().
			Exec(ctx)
		return r.HandleErrorWithID("update", "achievement_progress", ap.UserID, err)
	}

	ap.CreatedAt = now
	_, err := tx.NewInsert().
		Model(ap).
		On("CONFLICT (user_id, achievement_id) DO UPDATE").
		Set("progress_value = EXCLUDED.progress_value").
		Set("highest_unlocked_tier = EXCLUDED.highest_unlocked_tier").
		Set("current_tier = EXCLUDED.current_tier").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return r.HandleErrorWithID("insert", "achievement_progress", ap.UserID, err)
}
