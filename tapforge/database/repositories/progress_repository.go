package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tapforge/server/tapforge/database/models"
	"github.com/uptrace/bun"
)

// ProgressRepository owns the authoritative per-player ledger. All mutations
// go through a row lock acquired by GetOrCreateForUpdate inside the caller's
// transaction.
type ProgressRepository interface {
	Get(ctx context.Context, userID string) (*models.Progress, error)
	GetOrCreateForUpdate(ctx context.Context, tx bun.Tx, userID string) (*models.Progress, bool, error)
	Update(ctx context.Context, tx bun.Tx, progress *models.Progress) error
}

type progressRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewProgressRepository(db *bun.DB) ProgressRepository {
	return &progressRepository{
		db:             db,
		BaseRepository: NewBaseRepository(),
	}
}

func (r *progressRepository) Get(ctx context.Context, userID string) (*models.Progress, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	progress := new(models.Progress)
	err := r.db.NewSelect().
		Model(progress).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "progress", ID: userID}
		}
		return nil, r.HandleErrorWithID("get", "progress", userID, err)
	}
	return progress, nil
}

// GetOrCreateForUpdate locks the player's row for the duration of the
// transaction, inserting a default row first if the player is new. The bool
// reports whether the row was created by this call.
func (r *progressRepository) GetOrCreateForUpdate(ctx context.Context, tx bun.Tx, userID string) (*models.Progress, bool, error) {
	progress := new(models.Progress)
	err := tx.NewSelect().
		Model(progress).
		Where("user_id = ?", userID).
		For("UPDATE").
		Scan(ctx)
	if err == nil {
		return progress, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, r.HandleErrorWithID("lock", "progress", userID, err)
	}

	now := time.Now()
	progress = &models.Progress{
		UserID:                userID,
		Level:                 1,
		TapLevel:              1,
		PrestigeMultiplier:    1,
		AchievementMultiplier: 1,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if _, err := tx.NewInsert().Model(progress).Exec(ctx); err != nil {
		return nil, false, r.HandleErrorWithID("create", "progress", userID, err)
	}
	return progress, true, nil
}

func (r *progressRepository) Update(ctx context.Context, tx bun.Tx, progress *models.Progress) error {
	progress.UpdatedAt = time.Now()
	_, err := tx.NewUpdate().
		Model(progress).
		WherePK().
		Exec(ctx)
	return r.HandleErrorWithID("update", "progress", progress.UserID, err)
}
