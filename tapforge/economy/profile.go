package economy

import (
	"context"
	"time"

	"github.com/tapforge/server/tapforge/content"
	"github.com/tapforge/server/tapforge/database/repositories"
	"github.com/tapforge/server/tapforge/economy/income"
	"github.com/uptrace/bun"
)

// ProfileService serves the cached profile read model. It only ever reads
// committed state; every engine invalidates the cache after its own commit.
type ProfileService struct {
	db           *bun.DB
	progressRepo repositories.ProgressRepository
	boostRepo    repositories.BoostRepository
	invRepo      repositories.InventoryRepository
	catalog      content.Catalog
	cache        *ProfileCache
}

func NewProfileService(
	db *bun.DB,
	progressRepo repositories.ProgressRepository,
	boostRepo repositories.BoostRepository,
	invRepo repositories.InventoryRepository,
	catalog content.Catalog,
	cache *ProfileCache,
) *ProfileService {
	return &ProfileService{
		db:           db,
		progressRepo: progressRepo,
		boostRepo:    boostRepo,
		invRepo:      invRepo,
		catalog:      catalog,
		cache:        cache,
	}
}

// GetProfile returns the player's profile snapshot, from cache when fresh.
func (ps *ProfileService) GetProfile(ctx context.Context, userID string) (*ProfileSnapshot, error) {
	if ps.cache != nil {
		if snapshot, ok := ps.cache.Get(userID); ok {
			return snapshot, nil
		}
	}

	now := time.Now()
	progress, err := ps.progressRepo.Get(ctx, userID)
	if err != nil {
		return nil, Internal(err, "load progress")
	}
	items, err := ps.invRepo.GetAll(ctx, ps.db, userID)
	if err != nil {
		return nil, Internal(err, "load inventory")
	}
	boosts, err := ps.boostRepo.GetActive(ctx, ps.db, userID, now)
	if err != nil {
		return nil, Internal(err, "load boosts")
	}

	var buildingsOwned int64
	for _, item := range items {
		buildingsOwned += item.Count
	}

	owned := income.FromInventory(items, func(buildingID string, level int) (float64, bool) {
		def, err := ps.catalog.GetBuilding(buildingID)
		if err != nil {
			return 0, false
		}
		return def.IncomePerSec(level), true
	})
	breakdown := income.Compose(owned, boosts, income.Multipliers{
		Prestige:    progress.PrestigeMultiplier,
		Achievement: progress.AchievementMultiplier,
	}, now)

	snapshot := &ProfileSnapshot{
		UserID:                userID,
		Level:                 progress.Level,
		XP:                    progress.XP,
		Energy:                progress.Energy,
		StarsBalance:          progress.StarsBalance,
		TotalEnergyProduced:   progress.TotalEnergyProduced,
		TotalTaps:             progress.TotalTaps,
		TapLevel:              progress.TapLevel,
		PrestigeLevel:         progress.PrestigeLevel,
		PrestigeMultiplier:    progress.PrestigeMultiplier,
		AchievementMultiplier: progress.AchievementMultiplier,
		EffectiveIncomePerSec: breakdown.EffectiveIncome,
		BuildingsOwned:        buildingsOwned,
		FetchedAt:             now,
	}
	if ps.cache != nil {
		ps.cache.Put(snapshot)
	}
	return snapshot, nil
}
