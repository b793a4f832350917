// Package tick converts elapsed wall-clock time into energy and xp. Ticks
// are driven by client heartbeats; the server clock is authoritative.
package tick

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
	"github.com/tapforge/server/tapforge/economy/income"
	"github.com/tapforge/server/tapforge/economy/leveling"
	"github.com/tapforge/server/tapforge/metrics"
	"github.com/uptrace/bun"
)

// Caps are the accounting limits for a single tick, resolved from config at
// startup. The offline cap already folds the online session timeout in
// (it is never below it).
type Caps struct {
	OfflineSeconds int64
	LevelCap       int
}

// Result is the delta report returned to the heartbeat caller.
type Result struct {
	EnergyGained     int64
	XPGained         int64
	AccountedSeconds int64
	CarriedSeconds   float64
	Level            int
	LeveledUp        bool
	Energy           int64
	EffectiveIncome  float64
}

// Engine runs the per-heartbeat accounting inside one transaction.
type Engine struct {
	tx           economy.TxRunner
	progressRepo repositories.ProgressRepository
	sessionRepo  repositories.SessionRepository
	boostRepo    repositories.BoostRepository
	invRepo      repositories.InventoryRepository
	eventRepo    repositories.EventRepository
	synchronizer *achievement.Synchronizer
	catalog      content.Catalog
	caps         Caps
	cache        economy.Invalidator
}

func NewEngine(
	tx economy.TxRunner,
	progressRepo repositories.ProgressRepository,
	sessionRepo repositories.SessionRepository,
	boostRepo repositories.BoostRepository,
	invRepo repositories.InventoryRepository,
	eventRepo repositories.EventRepository,
	synchronizer *achievement.Synchronizer,
	catalog content.Catalog,
	caps Caps,
	cache economy.Invalidator,
) *Engine {
	return &Engine{
		tx:           tx,
		progressRepo: progressRepo,
		sessionRepo:  sessionRepo,
		boostRepo:    boostRepo,
		invRepo:      invRepo,
		eventRepo:    eventRepo,
		synchronizer: synchronizer,
		catalog:      catalog,
		caps:         caps,
		cache:        cache,
	}
}

// computeAccounting applies the carry-over rules: whole seconds are
// accounted (at least 1 whenever any time is available, at most the offline
// cap) and the fractional or over-cap remainder is carried forward.
func computeAccounting(pending float64, derivedElapsed, offlineCap int64) (accounted int64, carried float64) {
	available := pending + float64(derivedElapsed)
	if available <= 0 {
		return 0, 0
	}

	accounted = int64(math.Floor(available))
	if accounted < 1 {
		accounted = 1
	}
	if accounted > offlineCap {
		accounted = offlineCap
	}

	carried = available - float64(accounted)
	if carried < 0 {
		carried = 0
	}
	return accounted, carried
}

// sanitizeClientElapsed applies the one-time trust rule for a player's very
// first tick: NaN or infinite deltas are a validation error, negatives are
// zero, fractions are floored.
func sanitizeClientElapsed(clientElapsed float64) (int64, error) {
	if math.IsNaN(clientElapsed) || math.IsInf(clientElapsed, 0) {
		return 0, economy.Validation(economy.ReasonInvalidElapsed, "client elapsed must be a finite number")
	}
	if clientElapsed < 0 {
		return 0, nil
	}
	return int64(math.Floor(clientElapsed)), nil
}

// baselineOf walks the fallback chain for the last accounted instant.
func baselineOf(session *models.PlayerSession, progress *models.Progress) (time.Time, bool) {
	switch {
	case !session.LastTickAt.IsZero():
		return session.LastTickAt, true
	case !progress.LastLogout.IsZero():
		return progress.LastLogout, true
	case !progress.UpdatedAt.IsZero():
		return progress.UpdatedAt, true
	case !progress.CreatedAt.IsZero():
		return progress.CreatedAt, true
	}
	return time.Time{}, false
}

// ProcessTick accounts elapsed time for one player. The client-reported
// elapsed is ignored except on the first-ever tick for the player.
func (e *Engine) ProcessTick(ctx context.Context, userID string, clientElapsedSeconds float64) (*Result, error) {
	result := new(Result)
	now := time.Now()

	err := e.tx.WithTransaction(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		progress, progressCreated, err := e.progressRepo.GetOrCreateForUpdate(ctx, tx, userID)
		if err != nil {
			return economy.Internal(err, "load progress")
		}
		session, sessionCreated, err := e.sessionRepo.GetOrCreateForUpdate(ctx, tx, userID)
		if err != nil {
			return economy.Internal(err, "load session")
		}

		var derivedElapsed int64
		if progressCreated && sessionCreated {
			// First contact ever; no server-side baseline exists yet.
			derivedElapsed, err = sanitizeClientElapsed(clientElapsedSeconds)
			if err != nil {
				return err
			}
		} else if baseline, ok := baselineOf(session, progress); ok {
			derivedElapsed = int64(now.Sub(baseline).Seconds())
			if derivedElapsed < 0 {
				derivedElapsed = 0
			}
		}

		accounted, carried := computeAccounting(session.PendingPassiveSeconds, derivedElapsed, e.caps.OfflineSeconds)
		result.AccountedSeconds = accounted
		result.CarriedSeconds = carried

		items, err := e.invRepo.GetAll(ctx, tx, userID)
		if err != nil {
			return economy.Internal(err, "load inventory")
		}
		boosts, err := e.boostRepo.GetActive(ctx, tx, userID, now)
		if err != nil {
			return economy.Internal(err, "load boosts")
		}

		owned := income.FromInventory(items, func(buildingID string, level int) (float64, bool) {
			def, err := e.catalog.GetBuilding(buildingID)
			if err != nil {
				return 0, false
			}
			return def.IncomePerSec(level), true
		})
		breakdown := income.Compose(owned, boosts, income.Multipliers{
			Prestige:    progress.PrestigeMultiplier,
			Achievement: progress.AchievementMultiplier,
		}, now)
		result.EffectiveIncome = breakdown.EffectiveIncome

		energyGained := int64(math.Floor(breakdown.EffectiveIncome * float64(accounted)))
		xpGained := energyGained / 10
		result.EnergyGained = energyGained
		result.XPGained = xpGained

		oldLevel := progress.Level
		if energyGained > 0 || xpGained > 0 {
			progress.Energy += energyGained
			progress.TotalEnergyProduced += energyGained

			xp, overflow, level := leveling.ApplyXP(progress.XP, progress.XPOverflow, xpGained, e.caps.LevelCap)
			progress.XP = xp
			progress.XPOverflow = overflow
			progress.Level = level

			if err := e.progressRepo.Update(ctx, tx, progress); err != nil {
				return economy.Internal(err, "update progress")
			}

			event := models.NewEvent(userID, "tick_reward", map[string]interface{}{
				"accounted_seconds": accounted,
				"energy":            energyGained,
				"xp":                xpGained,
			})
			if err := e.eventRepo.Insert(ctx, tx, event); err != nil {
				return economy.Internal(err, "log tick")
			}
		}
		result.Level = progress.Level
		result.LeveledUp = progress.Level > oldLevel
		result.Energy = progress.Energy

		if energyGained > 0 {
			if _, err := e.synchronizer.SyncMetric(ctx, tx, userID, content.MetricTotalEnergy, progress.TotalEnergyProduced); err != nil {
				return economy.Internal(err, "sync achievements")
			}
		}

		session.LastTickAt = now
		session.PendingPassiveSeconds = carried
		if err := e.sessionRepo.Save(ctx, tx, session); err != nil {
			return economy.Internal(err, "save session")
		}
		return nil
	})
	if err != nil {
		reason := economy.ReasonOf(err)
		metrics.TickOutcomes.WithLabelValues("failure").Inc()
		metrics.TickFailures.WithLabelValues(reason).Inc()
		slog.Error("Tick failed",
			slog.String("type", "economy"),
			slog.String("user_id", userID),
			slog.String("reason", reason),
			slog.Any("error", err),
		)
		return nil, err
	}

	metrics.TickOutcomes.WithLabelValues("success").Inc()
	if e.cache != nil && result.EnergyGained > 0 {
		e.cache.Invalidate(userID)
	}
	return result, nil
}
