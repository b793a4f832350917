// Package prestige implements the reset-for-permanent-multiplier loop.
package prestige

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/tapforge/server/tapforge/content"
	"github.com/tapforge/server/tapforge/database/models"
	"github.com/tapforge/server/tapforge/database/repositories"
	"github.com/tapforge/server/tapforge/economy"
	"github.com/tapforge/server/tapforge/economy/achievement"
	"github.com/tapforge/server/tapforge/metrics"
	"github.com/uptrace/bun"
)

// gainDivisor: one prestige point per 10^12 energy produced since the last
// reset, on a cube-root curve.
const gainDivisor = 1e12

// Status is the read-only prestige eligibility report.
type Status struct {
	Eligible      bool
	Gain          int64
	Level         int
	MinLevel      int
	EnergySince   int64
	PrestigeLevel int
}

// Result reports a completed prestige reset.
type Result struct {
	Gain               int64
	PrestigeLevel      int
	PrestigeMultiplier float64
}

// Engine performs prestige checks and resets.
type Engine struct {
	tx           economy.TxRunner
	progressRepo repositories.ProgressRepository
	boostRepo    repositories.BoostRepository
	invRepo      repositories.InventoryRepository
	eventRepo    repositories.EventRepository
	synchronizer *achievement.Synchronizer
	minLevel     int
	cache        economy.Invalidator
}

func NewEngine(
	tx economy.TxRunner,
	progressRepo repositories.ProgressRepository,
	boostRepo repositories.BoostRepository,
	invRepo repositories.InventoryRepository,
	eventRepo repositories.EventRepository,
	synchronizer *achievement.Synchronizer,
	minLevel int,
	cache economy.Invalidator,
) *Engine {
	return &Engine{
		tx:           tx,
		progressRepo: progressRepo,
		boostRepo:    boostRepo,
		invRepo:      invRepo,
		eventRepo:    eventRepo,
		synchronizer: synchronizer,
		minLevel:     minLevel,
		cache:        cache,
	}
}

// ComputeGain maps energy produced since the last reset to prestige points.
// Zero below the first 10^12; the epsilon guards cube-root rounding at exact
// powers.
func ComputeGain(energySinceSnapshot int64) int64 {
	if energySinceSnapshot <= 0 {
		return 0
	}
	ratio := float64(energySinceSnapshot) / gainDivisor
	if ratio < 1 {
		return 0
	}
	return int64(math.Floor(math.Cbrt(ratio) + 1e-9))
}

// CanPrestige is the read-only eligibility check. Callers must not treat its
// answer as a reservation; PerformPrestige re-validates inside the
// transaction.
func (e *Engine) CanPrestige(ctx context.Context, userID string) (*Status, error) {
	progress, err := e.progressRepo.Get(ctx, userID)
	if err != nil {
		return nil, economy.Internal(err, "load progress")
	}
	return e.statusOf(progress), nil
}

func (e *Engine) statusOf(progress *models.Progress) *Status {
	since := progress.EnergySinceSnapshot()
	gain := ComputeGain(since)
	return &Status{
		Eligible:      gain >= 1 && progress.Level >= e.minLevel,
		Gain:          gain,
		Level:         progress.Level,
		MinLevel:      e.minLevel,
		EnergySince:   since,
		PrestigeLevel: progress.PrestigeLevel,
	}
}

// PerformPrestige executes the reset. Eligibility is re-checked against
// freshly locked state; inventory and boosts are wiped, the run-scoped
// counters reset, and the prestige multiplier grows additively by the gain.
// Lifetime counters survive.
func (e *Engine) PerformPrestige(ctx context.Context, userID string) (*Result, error) {
	result := new(Result)
	now := time.Now()

	err := e.tx.WithTransaction(ctx, economy.SerializableTxOptions(), func(ctx context.Context, tx bun.Tx) error {
		progress, _, err := e.progressRepo.GetOrCreateForUpdate(ctx, tx, userID)
		if err != nil {
			return economy.Internal(err, "load progress")
		}

		status := e.statusOf(progress)
		if !status.Eligible {
			return economy.StateConflict(economy.ReasonPrestigeUnavailable,
				"prestige requires level %d and at least one point of gain (level %d, gain %d)",
				e.minLevel, status.Level, status.Gain)
		}

		if err := e.invRepo.DeleteAllForUser(ctx, tx, userID); err != nil {
			return economy.Internal(err, "wipe inventory")
		}
		if err := e.boostRepo.DeleteAllForUser(ctx, tx, userID); err != nil {
			return economy.Internal(err, "wipe boosts")
		}

		progress.Level = 1
		progress.XP = 0
		progress.XPOverflow = 0
		progress.Energy = 0
		progress.TapLevel = 1
		progress.PrestigeLevel++
		progress.PrestigeMultiplier += float64(status.Gain)
		progress.PrestigeEnergySnapshot = progress.TotalEnergyProduced
		progress.PrestigeLastReset = now

		if err := e.progressRepo.Update(ctx, tx, progress); err != nil {
			return economy.Internal(err, "update progress")
		}

		if _, err := e.synchronizer.SyncMetric(ctx, tx, userID, content.MetricPrestigeLevel, int64(progress.PrestigeLevel)); err != nil {
			return economy.Internal(err, "sync prestige level")
		}

		event := models.NewEvent(userID, "prestige_performed", map[string]interface{}{
			"gain":            status.Gain,
			"prestige_level":  progress.PrestigeLevel,
			"multiplier":      progress.PrestigeMultiplier,
			"energy_snapshot": progress.PrestigeEnergySnapshot,
		})
		if err := e.eventRepo.Insert(ctx, tx, event); err != nil {
			return economy.Internal(err, "log prestige")
		}

		result.Gain = status.Gain
		result.PrestigeLevel = progress.PrestigeLevel
		result.PrestigeMultiplier = progress.PrestigeMultiplier
		return nil
	})
	if err != nil {
		metrics.EngineFailures.WithLabelValues("prestige", economy.ReasonOf(err)).Inc()
		return nil, err
	}

	if e.cache != nil {
		e.cache.Invalidate(userID)
	}
	slog.Info("Prestige performed",
		slog.String("type", "economy"),
		slog.String("user_id", userID),
		slog.Int64("gain", result.Gain),
		slog.Int("prestige_level", result.PrestigeLevel),
	)
	return result, nil
}
