package achievement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tapforge/server/tapforge/content"
	"github.com/tapforge/server/tapforge/database/models"
	"github.com/tapforge/server/tapforge/database/repositories"
	"github.com/tapforge/server/tapforge/economy"
	"github.com/tapforge/server/tapforge/metrics"
	"github.com/uptrace/bun"
)

// ClaimResult reports a completed tier claim.
type ClaimResult struct {
	AchievementID         string
	Tier                  int
	RewardMultiplier      float64
	AchievementMultiplier float64
	CosmeticKey           string
	CosmeticGranted       bool
}

// ClaimService processes player-initiated tier claims, one tier per call.
type ClaimService struct {
	tx           economy.TxRunner
	progressRepo repositories.ProgressRepository
	synchronizer *Synchronizer
	cosmetics    content.CosmeticGranter
	cache        economy.Invalidator
}

func NewClaimService(
	tx economy.TxRunner,
	progressRepo repositories.ProgressRepository,
	synchronizer *Synchronizer,
	cosmetics content.CosmeticGranter,
	cache economy.Invalidator,
) *ClaimService {
	return &ClaimService{
		tx:           tx,
		progressRepo: progressRepo,
		synchronizer: synchronizer,
		cosmetics:    cosmetics,
		cache:        cache,
	}
}

// ClaimTier advances current_tier by exactly one step, compounds the tier's
// reward into the achievement multiplier, and grants any attached cosmetic.
func (cs *ClaimService) ClaimTier(ctx context.Context, userID, achievementID string) (*ClaimResult, error) {
	def, ok := cs.synchronizer.Definition(achievementID)
	if !ok {
		return nil, economy.Validation(economy.ReasonUnknownAchievement, "unknown achievement %q", achievementID)
	}

	result := new(ClaimResult)
	err := cs.tx.WithTransaction(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		progress, _, err := cs.progressRepo.GetOrCreateForUpdate(ctx, tx, userID)
		if err != nil {
			return economy.Internal(err, "load progress")
		}

		row, err := cs.synchronizer.achievementRepo.GetByUserAndDef(ctx, tx, userID, achievementID)
		if err != nil {
			var notFound *repositories.NotFoundError
			if errors.As(err, &notFound) {
				return economy.StateConflict(economy.ReasonTierNotUnlocked,
					"no unlocked tiers for achievement %q", achievementID)
			}
			return economy.Internal(err, "load achievement")
		}

		next := row.CurrentTier + 1
		if next > row.HighestUnlockedTier {
			return economy.StateConflict(economy.ReasonTierNotUnlocked,
				"tier %d of %q is not unlocked yet", next, achievementID)
		}
		tier, ok := def.TierByNumber(next)
		if !ok {
			return economy.StateConflict(economy.ReasonTierNotUnlocked,
				"achievement %q has no tier %d", achievementID, next)
		}

		row.CurrentTier = next
		if err := cs.synchronizer.achievementRepo.Upsert(ctx, tx, row); err != nil {
			return economy.Internal(err, "update achievement")
		}

		progress.AchievementMultiplier *= tier.RewardMultiplier
		if err := cs.progressRepo.Update(ctx, tx, progress); err != nil {
			return economy.Internal(err, "update progress")
		}

		event := models.NewEvent(userID, "achievement_tier_claimed", map[string]interface{}{
			"achievement_id":    achievementID,
			"tier":              next,
			"reward_multiplier": tier.RewardMultiplier,
		})
		if err := cs.synchronizer.eventRepo.Insert(ctx, tx, event); err != nil {
			return economy.Internal(err, "log claim")
		}

		result.AchievementID = achievementID
		result.Tier = next
		result.RewardMultiplier = tier.RewardMultiplier
		result.AchievementMultiplier = progress.AchievementMultiplier
		result.CosmeticKey = tier.CosmeticKey
		return nil
	})
	if err != nil {
		metrics.EngineFailures.WithLabelValues("achievement", economy.ReasonOf(err)).Inc()
		return nil, err
	}

	// Cosmetics live outside the economic ledger; a failed grant is logged
	// and the claim stands.
	if result.CosmeticKey != "" && cs.cosmetics != nil {
		if err := cs.cosmetics.GrantCosmetic(ctx, userID, result.CosmeticKey); err != nil {
			slog.Warn("Cosmetic grant failed",
				slog.String("type", "economy"),
				slog.String("user_id", userID),
				slog.String("cosmetic_key", result.CosmeticKey),
				slog.Any("error", err),
			)
		} else {
			result.CosmeticGranted = true
		}
	}

	if cs.cache != nil {
		cs.cache.Invalidate(userID)
	}
	return result, nil
}
