// Package boost handles claiming of temporary income multipliers.
package boost

import (
	"context"
	"time"

	"github.com/tapforge/server/tapforge/content"
	"github.com/tapforge/server/tapforge/database/models"
	"github.com/tapforge/server/tapforge/database/repositories"
	"github.com/tapforge/server/tapforge/economy"
	"github.com/tapforge/server/tapforge/metrics"
	"github.com/uptrace/bun"
)

// Service claims boosts against the static boost definitions.
type Service struct {
	tx        economy.TxRunner
	boostRepo repositories.BoostRepository
	eventRepo repositories.EventRepository
	resolver  content.BoostResolver
	cache     economy.Invalidator
}

func NewService(
	tx economy.TxRunner,
	boostRepo repositories.BoostRepository,
	eventRepo repositories.EventRepository,
	resolver content.BoostResolver,
	cache economy.Invalidator,
) *Service {
	return &Service{
		tx:        tx,
		boostRepo: boostRepo,
		eventRepo: eventRepo,
		resolver:  resolver,
		cache:     cache,
	}
}

// ClaimBoost activates a boost of the given type. At most one active boost
// per type; distinct types stack.
func (s *Service) ClaimBoost(ctx context.Context, userID, boostType string) (*models.Boost, error) {
	def, err := s.resolver.Resolve(boostType)
	if err != nil {
		return nil, economy.Validation(economy.ReasonUnknownBoostType, "unknown boost type %q", boostType)
	}

	now := time.Now()
	boost := &models.Boost{
		UserID:     userID,
		BoostType:  def.Type,
		Multiplier: def.Multiplier,
		ExpiresAt:  now.Add(def.Duration),
		CreatedAt:  now,
	}

	err = s.tx.WithTransaction(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		active, err := s.boostRepo.HasActiveOfType(ctx, tx, userID, def.Type, now)
		if err != nil {
			return economy.Internal(err, "check active boosts")
		}
		if active {
			return economy.StateConflict(economy.ReasonBoostAlreadyActive,
				"boost %q is already active", def.Type)
		}

		if err := s.boostRepo.Insert(ctx, tx, boost); err != nil {
			return economy.Internal(err, "insert boost")
		}

		event := models.NewEvent(userID, "boost_claimed", map[string]interface{}{
			"boost_type": def.Type,
			"multiplier": def.Multiplier,
			"expires_at": boost.ExpiresAt.UTC(),
		})
		if err := s.eventRepo.Insert(ctx, tx, event); err != nil {
			return economy.Internal(err, "log boost claim")
		}
		return nil
	})
	if err != nil {
		metrics.EngineFailures.WithLabelValues("boost", economy.ReasonOf(err)).Inc()
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(userID)
	}
	return boost, nil
}

// GetActive returns the player's currently active boosts.
func (s *Service) GetActive(ctx context.Context, userID string) ([]*models.Boost, error) {
	boosts, err := s.boostRepo.GetActive(ctx, s.tx.DB(), userID, time.Now())
	if err != nil {
		return nil, economy.Internal(err, "load boosts")
	}
	return boosts, nil
}
