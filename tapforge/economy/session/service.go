// Package session handles login and logout: offline catch-up accrual, the
// one-time starter grant, and the full state snapshot returned to clients.
package session

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/tapforge/server/tapforge/config"
	"github.com/tapforge/server/tapforge/content"
	"github.com/tapforge/server/tapforge/database/models"
	"github.com/tapforge/server/tapforge/database/repositories"
	"github.com/tapforge/server/tapforge/economy"
	"github.com/tapforge/server/tapforge/economy/achievement"
	"github.com/tapforge/server/tapforge/economy/income"
	"github.com/tapforge/server/tapforge/economy/leveling"
	"github.com/tapforge/server/tapforge/metrics"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

// Config carries the session tunables resolved at startup.
type Config struct {
	OfflineCapSeconds       int64
	OfflineIncomeMultiplier float64
	StarterBuildingID       string
	StarterMaxLevel         int
	LevelCap                int
}

// Snapshot is the full state returned from OpenSession.
type Snapshot struct {
	Progress        *models.Progress
	Inventory       []*models.InventoryItem
	ActiveBoosts    []*models.Boost
	Achievements    []*models.AchievementProgress
	Construction    *content.ConstructionSnapshot
	OfflineSeconds  int64
	OfflineEnergy   int64
	OfflineXP       int64
	EffectiveIncome float64
	StarterGranted  bool
}

// Service is the session lifecycle engine.
type Service struct {
	tx              economy.TxRunner
	progressRepo    repositories.ProgressRepository
	sessionRepo     repositories.SessionRepository
	boostRepo       repositories.BoostRepository
	invRepo         repositories.InventoryRepository
	eventRepo       repositories.EventRepository
	achievementRepo repositories.AchievementRepository
	synchronizer    *achievement.Synchronizer
	catalog         content.Catalog
	construction    content.ConstructionScheduler
	cfg             Config
	cache           economy.Invalidator
}

func NewService(
	tx economy.TxRunner,
	progressRepo repositories.ProgressRepository,
	sessionRepo repositories.SessionRepository,
	boostRepo repositories.BoostRepository,
	invRepo repositories.InventoryRepository,
	eventRepo repositories.EventRepository,
	achievementRepo repositories.AchievementRepository,
	synchronizer *achievement.Synchronizer,
	catalog content.Catalog,
	construction content.ConstructionScheduler,
	cfg Config,
	cache economy.Invalidator,
) *Service {
	return &Service{
		tx:              tx,
		progressRepo:    progressRepo,
		sessionRepo:     sessionRepo,
		boostRepo:       boostRepo,
		invRepo:         invRepo,
		eventRepo:       eventRepo,
		achievementRepo: achievementRepo,
		synchronizer:    synchronizer,
		catalog:         catalog,
		construction:    construction,
		cfg:             cfg,
		cache:           cache,
	}
}

// offlineSecondsFor clamps the time away to the configured cap. Zero when the
// player has never logged out.
func offlineSecondsFor(lastLogout, now time.Time, capSeconds int64) (seconds int64, capped bool) {
	if lastLogout.IsZero() {
		return 0, false
	}
	seconds = int64(now.Sub(lastLogout).Seconds())
	if seconds < 0 {
		return 0, false
	}
	if seconds > capSeconds {
		return capSeconds, true
	}
	return seconds, false
}

// OpenSession loads the full player context, applies the offline catch-up
// grant and the one-time starter grant, and returns a state snapshot. The
// construction snapshot is fetched read-only, in parallel with the
// transaction.
func (s *Service) OpenSession(ctx context.Context, userID string) (*Snapshot, error) {
	snapshot := new(Snapshot)
	now := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if s.construction == nil {
			return nil
		}
		cons, err := s.construction.GetSnapshot(gctx, userID)
		if err != nil {
			// Builder state is decorative on the session response; a
			// collaborator outage must not block login.
			slog.Warn("Construction snapshot unavailable",
				slog.String("type", "economy"),
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
			return nil
		}
		snapshot.Construction = cons
		return nil
	})

	g.Go(func() error {
		return s.tx.WithTransaction(gctx, nil, func(ctx context.Context, tx bun.Tx) error {
			progress, _, err := s.progressRepo.GetOrCreateForUpdate(ctx, tx, userID)
			if err != nil {
				return economy.Internal(err, "load progress")
			}
			playerSession, _, err := s.sessionRepo.GetOrCreateForUpdate(ctx, tx, userID)
			if err != nil {
				return economy.Internal(err, "load session")
			}

			items, err := s.invRepo.GetAll(ctx, tx, userID)
			if err != nil {
				return economy.Internal(err, "load inventory")
			}

			if granted, err := s.grantStarterIfNeeded(ctx, tx, progress, items); err != nil {
				return err
			} else if granted {
				snapshot.StarterGranted = true
				items, err = s.invRepo.GetAll(ctx, tx, userID)
				if err != nil {
					return economy.Internal(err, "reload inventory")
				}
			}

			boosts, err := s.boostRepo.GetActive(ctx, tx, userID, now)
			if err != nil {
				return economy.Internal(err, "load boosts")
			}

			owned := income.FromInventory(items, func(buildingID string, level int) (float64, bool) {
				def, err := s.catalog.GetBuilding(buildingID)
				if err != nil {
					return 0, false
				}
				return def.IncomePerSec(level), true
			})
			breakdown := income.Compose(owned, boosts, income.Multipliers{
				Prestige:    progress.PrestigeMultiplier,
				Achievement: progress.AchievementMultiplier,
			}, now)
			snapshot.EffectiveIncome = breakdown.EffectiveIncome

			offlineSeconds, capped := offlineSecondsFor(progress.LastLogout, now, s.cfg.OfflineCapSeconds)
			offlineEnergy := int64(math.Floor(breakdown.EffectiveIncome * float64(offlineSeconds) * s.cfg.OfflineIncomeMultiplier))
			offlineXP := offlineEnergy / 10
			snapshot.OfflineSeconds = offlineSeconds
			snapshot.OfflineEnergy = offlineEnergy
			snapshot.OfflineXP = offlineXP

			if offlineEnergy > 0 {
				progress.Energy += offlineEnergy
				progress.TotalEnergyProduced += offlineEnergy

				xp, overflow, level := leveling.ApplyXP(progress.XP, progress.XPOverflow, offlineXP, s.cfg.LevelCap)
				progress.XP = xp
				progress.XPOverflow = overflow
				progress.Level = level

				label := "false"
				if capped {
					label = "true"
				}
				metrics.OfflineRewards.WithLabelValues(label).Inc()
			}

			progress.LastLogin = now
			progress.LastLogout = time.Time{}
			if err := s.progressRepo.Update(ctx, tx, progress); err != nil {
				return economy.Internal(err, "update progress")
			}

			// The next tick must not re-derive the offline span just granted.
			playerSession.LastTickAt = now
			if err := s.sessionRepo.Save(ctx, tx, playerSession); err != nil {
				return economy.Internal(err, "save session")
			}

			if _, err := s.synchronizer.SyncMetric(ctx, tx, userID, content.MetricTotalEnergy, progress.TotalEnergyProduced); err != nil {
				return economy.Internal(err, "sync total energy")
			}
			if _, err := s.synchronizer.SyncMetric(ctx, tx, userID, content.MetricPrestigeLevel, int64(progress.PrestigeLevel)); err != nil {
				return economy.Internal(err, "sync prestige level")
			}
			totalOwned, err := s.invRepo.TotalOwned(ctx, tx, userID)
			if err != nil {
				return economy.Internal(err, "count buildings")
			}
			if _, err := s.synchronizer.SyncMetric(ctx, tx, userID, content.MetricBuildingsOwned, totalOwned); err != nil {
				return economy.Internal(err, "sync buildings owned")
			}
			if _, err := s.synchronizer.SyncMetric(ctx, tx, userID, content.MetricTotalTaps, progress.TotalTaps); err != nil {
				return economy.Internal(err, "sync total taps")
			}

			achievements, err := s.achievementRepo.GetAllByUser(ctx, tx, userID)
			if err != nil {
				return economy.Internal(err, "load achievements")
			}

			event := models.NewEvent(userID, "session_opened", map[string]interface{}{
				"offline_seconds": offlineSeconds,
				"offline_energy":  offlineEnergy,
				"offline_capped":  capped,
			})
			if err := s.eventRepo.Insert(ctx, tx, event); err != nil {
				return economy.Internal(err, "log session open")
			}

			snapshot.Progress = progress
			snapshot.Inventory = items
			snapshot.ActiveBoosts = boosts
			snapshot.Achievements = achievements
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		metrics.EngineFailures.WithLabelValues("session", economy.ReasonOf(err)).Inc()
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(userID)
	}
	slog.Info("Session opened",
		slog.String("type", "economy"),
		slog.String("user_id", userID),
		slog.Int64("offline_seconds", snapshot.OfflineSeconds),
		slog.Int64("offline_energy", snapshot.OfflineEnergy),
	)
	return snapshot, nil
}

func (s *Service) grantStarterIfNeeded(ctx context.Context, tx bun.Tx, progress *models.Progress, items []*models.InventoryItem) (bool, error) {
	if s.cfg.StarterBuildingID == "" || progress.Level > s.cfg.StarterMaxLevel {
		return false, nil
	}
	for _, item := range items {
		if item.BuildingID == s.cfg.StarterBuildingID && item.Count > 0 {
			return false, nil
		}
	}

	if err := s.invRepo.AddClamped(ctx, tx, progress.UserID, s.cfg.StarterBuildingID, 1); err != nil {
		return false, economy.Internal(err, "grant starter building")
	}
	event := models.NewEvent(progress.UserID, "building_granted", map[string]interface{}{
		"building_id": s.cfg.StarterBuildingID,
		"count":       1,
		"source":      "auto_grant",
	})
	if err := s.eventRepo.Insert(ctx, tx, event); err != nil {
		return false, economy.Internal(err, "log starter grant")
	}
	metrics.BuildingGrants.WithLabelValues("auto_grant").Inc()
	return true, nil
}

// RecordLogout stamps last_logout and reports session duration telemetry.
// Durations of 24h or more are treated as stale sessions and excluded from
// the histogram, not from persistence.
func (s *Service) RecordLogout(ctx context.Context, userID string) error {
	now := time.Now()
	err := s.tx.WithTransaction(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		progress, _, err := s.progressRepo.GetOrCreateForUpdate(ctx, tx, userID)
		if err != nil {
			return economy.Internal(err, "load progress")
		}

		if !progress.LastLogin.IsZero() {
			duration := now.Sub(progress.LastLogin)
			if duration >= 0 && duration < config.StaleSessionCutoff {
				metrics.SessionDuration.Observe(duration.Seconds())
			}
		}

		progress.LastLogout = now
		if err := s.progressRepo.Update(ctx, tx, progress); err != nil {
			return economy.Internal(err, "update progress")
		}

		event := models.NewEvent(userID, "session_closed", map[string]interface{}{
			"logged_out_at": now.UTC(),
		})
		if err := s.eventRepo.Insert(ctx, tx, event); err != nil {
			return economy.Internal(err, "log logout")
		}
		return nil
	})
	if err != nil {
		metrics.EngineFailures.WithLabelValues("session", economy.ReasonOf(err)).Inc()
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(userID)
	}
	return nil
}
