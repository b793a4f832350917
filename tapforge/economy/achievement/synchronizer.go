// Package achievement keeps per-player achievement tiers in sync with the
// ledger's lifetime counters and processes tier reward claims.
package achievement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tapforge/server/tapforge/content"
	"github.com/tapforge/server/tapforge/database/models"
	"github.com/tapforge/server/tapforge/database/repositories"
	"github.com/tapforge/server/tapforge/metrics"
	"github.com/uptrace/bun"
)

// TierUnlock reports one newly reached tier.
type TierUnlock struct {
	AchievementID string
	Tier          int
}

// Synchronizer advances highest_unlocked_tier rows as metrics grow. It always
// runs inside the caller's transaction so a rolled-back operation also rolls
// back its unlocks.
type Synchronizer struct {
	achievementRepo repositories.AchievementRepository
	eventRepo       repositories.EventRepository
	byMetric        map[content.Metric][]content.AchievementDef
}

func NewSynchronizer(
	achievementRepo repositories.AchievementRepository,
	eventRepo repositories.EventRepository,
	defs []content.AchievementDef,
) *Synchronizer {
	byMetric := make(map[content.Metric][]content.AchievementDef)
	for _, def := range defs {
		byMetric[def.Metric] = append(byMetric[def.Metric], def)
	}
	return &Synchronizer{
		achievementRepo: achievementRepo,
		eventRepo:       eventRepo,
		byMetric:        byMetric,
	}
}

// Definition resolves an achievement id across all metrics.
func (s *Synchronizer) Definition(achievementID string) (content.AchievementDef, bool) {
	for _, defs := range s.byMetric {
		for _, def := range defs {
			if def.ID == achievementID {
				return def, true
			}
		}
	}
	return content.AchievementDef{}, false
}

// SyncMetric compares the metric value against every achievement keyed on it
// and raises highest_unlocked_tier where thresholds are newly met. Tiers only
// move up; a lower value than previously recorded is ignored.
func (s *Synchronizer) SyncMetric(ctx context.Context, tx bun.Tx, userID string, metric content.Metric, value int64) ([]TierUnlock, error) {
	if value < 0 {
		return nil, nil
	}
	defs := s.byMetric[metric]
	if len(defs) == 0 {
		return nil, nil
	}

	var unlocks []TierUnlock
	for _, def := range defs {
		row, err := s.achievementRepo.GetByUserAndDef(ctx, tx, userID, def.ID)
		if err != nil {
			var notFound *repositories.NotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
			row = &models.AchievementProgress{
				UserID:        userID,
				AchievementID: def.ID,
			}
		}

		newValue := row.ProgressValue
		if value > newValue {
			newValue = value
		}
		computed := def.HighestTierFor(newValue)
		newHighest := row.HighestUnlockedTier
		if computed > newHighest {
			newHighest = computed
		}

		if newValue == row.ProgressValue && newHighest == row.HighestUnlockedTier {
			continue
		}

		for tier := row.HighestUnlockedTier + 1; tier <= newHighest; tier++ {
			unlocks = append(unlocks, TierUnlock{AchievementID: def.ID, Tier: tier})
			event := models.NewEvent(userID, "achievement_tier_unlocked", map[string]interface{}{
				"achievement_id": def.ID,
				"tier":           tier,
				"metric":         string(metric),
				"value":          newValue,
			})
			if err := s.eventRepo.Insert(ctx, tx, event); err != nil {
				return nil, err
			}
			slog.Info("Achievement tier unlocked",
				slog.String("type", "economy"),
				slog.String("user_id", userID),
				slog.String("achievement_id", def.ID),
				slog.Int("tier", tier),
			)
		}

		row.ProgressValue = newValue
		row.HighestUnlockedTier = newHighest
		if err := s.achievementRepo.Upsert(ctx, tx, row); err != nil {
			return nil, err
		}
	}

	metrics.AchievementUnlocks.Add(float64(len(unlocks)))
	return unlocks, nil
}
