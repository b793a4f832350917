// Package building handles player-initiated building purchases.
package building

import (
	"context"
	"errors"

	"github.com/tapforge/server/tapforge/content"
	"github.com/tapforge/server/tapforge/database/models"
	"github.com/tapforge/server/tapforge/database/repositories"
	"github.com/tapforge/server/tapforge/economy"
	"github.com/tapforge/server/tapforge/economy/achievement"
	"github.com/tapforge/server/tapforge/economy/leveling"
	"github.com/tapforge/server/tapforge/metrics"
	"github.com/uptrace/bun"
)

// Config carries the purchase tunables resolved at startup.
type Config struct {
	MaxPerPurchase int
	LevelCap       int
}

// Result reports a completed purchase.
type Result struct {
	BuildingID string
	Count      int64
	TotalCost  int64
	XPGained   int64
	Level      int
	LeveledUp  bool
	Energy     int64
	TotalOwned int64
}

// Service processes building purchases against the catalog.
type Service struct {
	tx           economy.TxRunner
	progressRepo repositories.ProgressRepository
	invRepo      repositories.InventoryRepository
	eventRepo    repositories.EventRepository
	synchronizer *achievement.Synchronizer
	catalog      content.Catalog
	cfg          Config
	cache        economy.Invalidator
}

func NewService(
	tx economy.TxRunner,
	progressRepo repositories.ProgressRepository,
	invRepo repositories.InventoryRepository,
	eventRepo repositories.EventRepository,
	synchronizer *achievement.Synchronizer,
	catalog content.Catalog,
	cfg Config,
	cache economy.Invalidator,
) *Service {
	return &Service{
		tx:           tx,
		progressRepo: progressRepo,
		invRepo:      invRepo,
		eventRepo:    eventRepo,
		synchronizer: synchronizer,
		catalog:      catalog,
		cfg:          cfg,
		cache:        cache,
	}
}

// totalCostFor sums the geometric per-copy prices starting from the number
// already owned.
func totalCostFor(def content.BuildingDef, owned, count int64) int64 {
	var total int64
	for i := int64(0); i < count; i++ {
		total += def.CostOfNext(owned + i)
	}
	return total
}

// PurchaseBuilding buys count copies of a building, spending energy and
// awarding damped purchase xp.
func (s *Service) PurchaseBuilding(ctx context.Context, userID, buildingID string, count int64) (*Result, error) {
	if count < 1 || count > int64(s.cfg.MaxPerPurchase) {
		return nil, economy.Validation(economy.ReasonInvalidCount,
			"purchase count must be between 1 and %d, got %d", s.cfg.MaxPerPurchase, count)
	}
	def, err := s.catalog.GetBuilding(buildingID)
	if err != nil {
		return nil, economy.Validation(economy.ReasonUnknownBuilding, "unknown building %q", buildingID)
	}

	result := new(Result)
	err = s.tx.WithTransaction(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		progress, _, err := s.progressRepo.GetOrCreateForUpdate(ctx, tx, userID)
		if err != nil {
			return economy.Internal(err, "load progress")
		}
		if progress.Level < def.UnlockLevel {
			return economy.StateConflict(economy.ReasonBuildingLocked,
				"building %q unlocks at level %d", buildingID, def.UnlockLevel)
		}

		var owned int64
		item, err := s.invRepo.Get(ctx, tx, userID, buildingID)
		if err != nil {
			var notFound *repositories.NotFoundError
			if !errors.As(err, &notFound) {
				return economy.Internal(err, "load inventory")
			}
		} else {
			owned = item.Count
		}

		totalCost := totalCostFor(def, owned, count)
		if progress.Energy < totalCost {
			return economy.Resource(economy.ReasonInsufficientEnergy,
				"purchase costs %d energy, balance is %d", totalCost, progress.Energy)
		}

		if err := s.invRepo.AddClamped(ctx, tx, userID, buildingID, count); err != nil {
			return economy.Internal(err, "add to inventory")
		}

		oldLevel := progress.Level
		progress.Energy -= totalCost
		progress.TotalBuildingsPurchased += count

		award := leveling.PurchaseXP(float64(totalCost), progress.Level)
		if award.Awarded > 0 {
			xp, overflow, level := leveling.ApplyXP(progress.XP, progress.XPOverflow, award.Awarded, s.cfg.LevelCap)
			progress.XP = xp
			progress.XPOverflow = overflow
			progress.Level = level
		}

		if err := s.progressRepo.Update(ctx, tx, progress); err != nil {
			return economy.Internal(err, "update progress")
		}

		totalOwned, err := s.invRepo.TotalOwned(ctx, tx, userID)
		if err != nil {
			return economy.Internal(err, "count buildings")
		}
		if _, err := s.synchronizer.SyncMetric(ctx, tx, userID, content.MetricBuildingsOwned, totalOwned); err != nil {
			return economy.Internal(err, "sync buildings owned")
		}

		event := models.NewEvent(userID, "building_granted", map[string]interface{}{
			"building_id": buildingID,
			"count":       count,
			"cost":        totalCost,
			"source":      "purchase",
		})
		if err := s.eventRepo.Insert(ctx, tx, event); err != nil {
			return economy.Internal(err, "log purchase")
		}

		result.BuildingID = buildingID
		result.Count = count
		result.TotalCost = totalCost
		result.XPGained = award.Awarded
		result.Level = progress.Level
		result.LeveledUp = progress.Level > oldLevel
		result.Energy = progress.Energy
		result.TotalOwned = totalOwned
		return nil
	})
	if err != nil {
		metrics.EngineFailures.WithLabelValues("building", economy.ReasonOf(err)).Inc()
		return nil, err
	}

	metrics.BuildingGrants.WithLabelValues("purchase").Inc()
	if s.cache != nil {
		s.cache.Invalidate(userID)
	}
	return result, nil
}
