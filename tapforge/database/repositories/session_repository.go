package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tapforge/server/tapforge/database/models"
	"github.com/uptrace/bun"
)

// SessionRepository stores tick bookkeeping per player.
type SessionRepository interface {
	GetOrCreateForUpdate(ctx context.Context, tx bun.Tx, userID string) (*models.PlayerSession, bool, error)
	Save(ctx context.Context, tx bun.Tx, session *models.PlayerSession) error
}

type sessionRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewSessionRepository(db *bun.DB) SessionRepository {
	return &sessionRepository{
		db:             db,
		BaseRepository: NewBaseRepository(),
	}
}

func (r *sessionRepository) GetOrCreateForUpdate(ctx context.Context, tx bun.Tx, userID string) (*models.PlayerSession, bool, error) {
	session := new(models.PlayerSession)
	err := tx.NewSelect().
		Model(session).
		Where("user_id = ?", userID).
		For("UPDATE").
		Scan(ctx)
	if err == nil {
		return session, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, r.HandleErrorWithID("lock", "player_session", userID, err)
	}

	now := time.Now()
	session = &models.PlayerSession{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := tx.NewInsert().Model(session).Exec(ctx); err != nil {
		return nil, false, r.HandleErrorWithID("create", "player_session", userID, err)
	}
	return session, true, nil
}

func (r *sessionRepository) Save(ctx context.Context, tx bun.Tx, session *models.PlayerSession) error {
	session.UpdatedAt = time.Now()
	_, err := tx.NewUpdate().
		Model(session).
		WherePK().
		Exec(ctx)
	return r.HandleErrorWithID("save", "player_session", session.UserID, err)
}
