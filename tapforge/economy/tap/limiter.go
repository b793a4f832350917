package tap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tapforge/server/tapforge/config"
	"github.com/tapforge/server/tapforge/metrics"
)

// Window labels used in errors and metrics.
const (
	WindowPerSecond = "per_second"
	WindowPerMinute = "per_minute"
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed  bool
	Window   string
	Degraded bool
}

// RateLimiter enforces the per-second and per-minute tap caps with fixed
// bucket counters in Redis. The counters are non-transactional and
// eventually consistent; a missed enforcement under a race is accepted,
// a false rejection is not.
type RateLimiter struct {
	rdb          *redis.Client
	perSecondCap int
	perMinuteCap int
}

func NewRateLimiter(rdb *redis.Client, perSecondCap, perMinuteCap int) *RateLimiter {
	return &RateLimiter{
		rdb:          rdb,
		perSecondCap: perSecondCap,
		perMinuteCap: perMinuteCap,
	}
}

// Check increments both window counters by tapCount and reports whether the
// request stays under the caps. When the counter store is unreachable the
// limiter degrades open: the request proceeds and the degradation is logged.
func (rl *RateLimiter) Check(ctx context.Context, userID string, tapCount int) Decision {
	if rl.rdb == nil {
		return rl.degrade(userID, nil)
	}

	now := time.Now()
	secKey := fmt.Sprintf("taps:1s:%s:%d", userID, now.Unix())
	minKey := fmt.Sprintf("taps:60s:%s:%d", userID, now.Unix()/60)

	pipe := rl.rdb.Pipeline()
	secCount := pipe.IncrBy(ctx, secKey, int64(tapCount))
	pipe.Expire(ctx, secKey, config.TapSecondWindowTTL)
	minCount := pipe.IncrBy(ctx, minKey, int64(tapCount))
	pipe.Expire(ctx, minKey, config.TapMinuteWindowTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return rl.degrade(userID, err)
	}

	return rl.evaluate(secCount.Val(), minCount.Val())
}

// evaluate compares the post-increment window counters against the caps. A
// counter exactly at its cap still passes; the per-second window is checked
// first.
func (rl *RateLimiter) evaluate(secCount, minCount int64) Decision {
	if secCount > int64(rl.perSecondCap) {
		return Decision{Window: WindowPerSecond}
	}
	if minCount > int64(rl.perMinuteCap) {
		return Decision{Window: WindowPerMinute}
	}
	return Decision{Allowed: true}
}

func (rl *RateLimiter) degrade(userID string, err error) Decision {
	metrics.RateLimiterDegraded.Inc()
	slog.Warn("Tap rate limiter degraded open",
		slog.String("type", "economy"),
		slog.String("user_id", userID),
		slog.Any("error", err),
	)
	return Decision{Allowed: true, Degraded: true}
}
