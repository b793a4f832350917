// Package tap converts discrete tap actions into energy and xp under the
// request, per-second, and per-minute caps.
package tap

import (
	"context"
	"log/slog"
	"math"

	"github.com/tapforge/server/tapforge/database/models"
	"github.com/tapforge/server/tapforge/database/repositories"
	"github.com/tapforge/server/tapforge/economy"
	"github.com/tapforge/server/tapforge/economy/leveling"
	"github.com/tapforge/server/tapforge/metrics"
	"github.com/uptrace/bun"
)

// Config carries the tap tunables resolved at startup.
type Config struct {
	MaxPerRequest int
	LevelCap      int
}

// Result reports the outcome of an accepted tap batch.
type Result struct {
	EnergyGained int64
	XPGained     int64
	Level        int
	LeveledUp    bool
	Energy       int64
}

// Service ingests tap batches.
type Service struct {
	tx           economy.TxRunner
	progressRepo repositories.ProgressRepository
	eventRepo    repositories.EventRepository
	limiter      *RateLimiter
	cfg          Config
	cache        economy.Invalidator
}

func NewService(
	tx economy.TxRunner,
	progressRepo repositories.ProgressRepository,
	eventRepo repositories.EventRepository,
	limiter *RateLimiter,
	cfg Config,
	cache economy.Invalidator,
) *Service {
	return &Service{
		tx:           tx,
		progressRepo: progressRepo,
		eventRepo:    eventRepo,
		limiter:      limiter,
		cfg:          cfg,
		cache:        cache,
	}
}

// TapIncomePerHit is the energy yielded by a single tap at the given tap
// upgrade level.
func TapIncomePerHit(tapLevel int) float64 {
	if tapLevel < 1 {
		tapLevel = 1
	}
	return 1 + float64(tapLevel-1)*0.25
}

// Tap validates, rate-limits, and applies a batch of taps. Rejected batches
// leave the ledger untouched and are logged as suspicious events.
func (s *Service) Tap(ctx context.Context, userID string, tapCount int) (*Result, error) {
	if tapCount < 1 || tapCount > s.cfg.MaxPerRequest {
		return nil, economy.Validation(economy.ReasonInvalidTapCount,
			"tap count must be between 1 and %d, got %d", s.cfg.MaxPerRequest, tapCount)
	}

	decision := s.limiter.Check(ctx, userID, tapCount)
	if !decision.Allowed {
		s.recordRejection(ctx, userID, tapCount, decision.Window)
		reason := economy.ReasonTapRateLimitedSec
		if decision.Window == WindowPerMinute {
			reason = economy.ReasonTapRateLimitedMin
		}
		return nil, economy.RateLimited(reason, "tap cap exceeded for %s window", decision.Window)
	}

	result := new(Result)
	err := s.tx.WithTransaction(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		progress, _, err := s.progressRepo.GetOrCreateForUpdate(ctx, tx, userID)
		if err != nil {
			return economy.Internal(err, "load progress")
		}

		energyGained := int64(math.Floor(TapIncomePerHit(progress.TapLevel) * float64(tapCount)))
		xpGained := energyGained / 10

		oldLevel := progress.Level
		progress.Energy += energyGained
		progress.TotalEnergyProduced += energyGained
		progress.TotalTaps += int64(tapCount)

		xp, overflow, level := leveling.ApplyXP(progress.XP, progress.XPOverflow, xpGained, s.cfg.LevelCap)
		progress.XP = xp
		progress.XPOverflow = overflow
		progress.Level = level

		if err := s.progressRepo.Update(ctx, tx, progress); err != nil {
			return economy.Internal(err, "update progress")
		}

		result.EnergyGained = energyGained
		result.XPGained = xpGained
		result.Level = progress.Level
		result.LeveledUp = progress.Level > oldLevel
		result.Energy = progress.Energy

		event := models.NewEvent(userID, "taps_applied", map[string]interface{}{
			"tap_count":  tapCount,
			"energy":     energyGained,
			"xp":         xpGained,
			"leveled_up": result.LeveledUp,
		})
		if err := s.eventRepo.Insert(ctx, tx, event); err != nil {
			return economy.Internal(err, "log taps")
		}
		return nil
	})
	if err != nil {
		metrics.EngineFailures.WithLabelValues("tap", economy.ReasonOf(err)).Inc()
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(userID)
	}
	return result, nil
}

// recordRejection logs the over-cap attempt outside any transaction; a
// failure to record it never changes the rejection itself.
func (s *Service) recordRejection(ctx context.Context, userID string, tapCount int, window string) {
	metrics.TapRejections.WithLabelValues(window).Inc()

	event := models.NewEvent(userID, "taps_rejected", map[string]interface{}{
		"tap_count": tapCount,
		"window":    window,
	})
	event.IsSuspicious = true
	if err := s.eventRepo.Insert(ctx, s.tx.DB(), event); err != nil {
		slog.Warn("Failed to record suspicious tap event",
			slog.String("type", "economy"),
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
}

// UpgradeTapLevel spends energy to raise tap strength by one tier. Cost
// grows geometrically with the current tier.
func (s *Service) UpgradeTapLevel(ctx context.Context, userID string) (*Result, error) {
	result := new(Result)
	err := s.tx.WithTransaction(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		progress, _, err := s.progressRepo.GetOrCreateForUpdate(ctx, tx, userID)
		if err != nil {
			return economy.Internal(err, "load progress")
		}

		cost := TapUpgradeCost(progress.TapLevel)
		if progress.Energy < cost {
			return economy.Resource(economy.ReasonInsufficientEnergy,
				"tap upgrade costs %d energy, balance is %d", cost, progress.Energy)
		}

		oldLevel := progress.Level
		progress.Energy -= cost
		progress.TapLevel++

		award := leveling.UpgradeXP(float64(cost), progress.Level)
		if award.Awarded > 0 {
			xp, overflow, level := leveling.ApplyXP(progress.XP, progress.XPOverflow, award.Awarded, s.cfg.LevelCap)
			progress.XP = xp
			progress.XPOverflow = overflow
			progress.Level = level
		}

		if err := s.progressRepo.Update(ctx, tx, progress); err != nil {
			return economy.Internal(err, "update progress")
		}

		event := models.NewEvent(userID, "tap_level_upgraded", map[string]interface{}{
			"new_tap_level": progress.TapLevel,
			"cost":          cost,
			"xp":            award.Awarded,
		})
		if err := s.eventRepo.Insert(ctx, tx, event); err != nil {
			return economy.Internal(err, "log tap upgrade")
		}

		result.Level = progress.Level
		result.LeveledUp = progress.Level > oldLevel
		result.Energy = progress.Energy
		result.XPGained = award.Awarded
		return nil
	})
	if err != nil {
		metrics.EngineFailures.WithLabelValues("tap", economy.ReasonOf(err)).Inc()
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(userID)
	}
	return result, nil
}

// TapUpgradeCost is the energy price of advancing from the given tap level.
func TapUpgradeCost(tapLevel int) int64 {
	if tapLevel < 1 {
		tapLevel = 1
	}
	return int64(math.Ceil(50 * math.Pow(1.9, float64(tapLevel-1))))
}
