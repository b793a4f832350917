package repositories

import (
	"context"
	"time"

	"github.com/tapforge/server/tapforge/database/models"
	"github.com/uptrace/bun"
)

// InventoryRepository manages per-player building ownership rows.
type InventoryRepository interface {
	GetAll(ctx context.Context, idb bun.IDB, userID string) ([]*models.InventoryItem, error)
	Get(ctx context.Context, idb bun.IDB, userID, buildingID string) (*models.InventoryItem, error)
	AddClamped(ctx context.Context, tx bun.Tx, userID, buildingID string, delta int64) error
	TotalOwned(ctx context.Context, idb bun.IDB, userID string) (int64, error)
	DeleteAllForUser(ctx context.Context, tx bun.Tx, userID string) error
}

type inventoryRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewInventoryRepository(db *bun.DB) InventoryRepository {
	return &inventoryRepository{
		db:             db,
		BaseRepository: NewBaseRepository(),
	}
}

func (r *inventoryRepository) GetAll(ctx context.Context, idb bun.IDB, userID string) ([]*models.InventoryItem, error) {
	var items []*models.InventoryItem
	err := idb.NewSelect().
		Model(&items).
		Where("user_id = ?", userID).
		Where("count > 0").
		Order("building_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_all", "inventory_item", userID, err)
	}
	return items, nil
}

func (r *inventoryRepository) Get(ctx context.Context, idb bun.IDB, userID, buildingID string) (*models.InventoryItem, error) {
	item := new(models.InventoryItem)
	err := idb.NewSelect().
		Model(item).
		Where("user_id = ?", userID).
		Where("building_id = ?", buildingID).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "inventory_item", userID, err)
	}
	return item, nil
}

// AddClamped applies a count delta with an update-then-insert upsert. The
// GREATEST guard keeps counts from going below zero under concurrent access.
func (r *inventoryRepository) AddClamped(ctx context.Context, tx bun.Tx, userID, buildingID string, delta int64) error {
	now := time.Now()
	res, err := tx.NewUpdate().
		Model((*models.InventoryItem)(nil)).
		Set("count = GREATEST(0, count + ?)", delta).
		Set("updated_at = ?", now).
		Where("user_id = ?", userID).
		Where("building_id = ?", buildingID).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("add", "inventory_item", userID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return r.HandleErrorWithID("add", "inventory_item", userID, err)
	}
	if rows > 0 {
		return nil
	}

	count := delta
	if count < 0 {
		count = 0
	}
	item := &models.InventoryItem{
		UserID:     userID,
		BuildingID: buildingID,
		Count:      count,
		Level:      1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = tx.NewInsert().
		Model(item).
		On("CONFLICT (user_id, building_id) DO UPDATE").
		Set("count = GREATEST(0, inv.count + EXCLUDED.count)").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return r.HandleErrorWithID("add", "inventory_item", userID, err)
}

func (r *inventoryRepository) TotalOwned(ctx context.Context, idb bun.IDB, userID string) (int64, error) {
	var total int64
	err := idb.NewSelect().
		Model((*models.InventoryItem)(nil)).
		ColumnExpr("COALESCE(SUM(count), 0)").
		Where("user_id = ?", userID).
		Scan(ctx, &total)
	if err != nil {
		return 0, r.HandleErrorWithID("total_owned", "inventory_item", userID, err)
	}
	return total, nil
}

func (r *inventoryRepository) DeleteAllForUser(ctx context.Context, tx bun.Tx, userID string) error {
	_, err := tx.NewDelete().
		Model((*models.InventoryItem)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	return r.HandleErrorWithID("delete_all", "inventory_item", userID, err)
}
