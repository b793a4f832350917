package prestige

import (
	"context"
	"testing"
	"time"

	"github.com/tapforge/server/tapforge/database/models"
	"github.com/tapforge/server/tapforge/economy"
	"github.com/tapforge/server/tapforge/economy/achievement"
	"github.com/uptrace/bun"
)

func TestComputeGain(t *testing.T) {
	tests := []struct {
		name        string
		energySince int64
		want        int64
	}{
		{name: "zero", energySince: 0, want: 0},
		{name: "negative", energySince: -100, want: 0},
		{name: "just below divisor", energySince: 999_999_999_999, want: 0},
		{name: "exactly one divisor", energySince: 1_000_000_000_000, want: 1},
		{name: "below eight divisors", energySince: 7_999_999_999_999, want: 1},
		{name: "eight divisors cubes to two", energySince: 8_000_000_000_000, want: 2},
		{name: "twenty seven divisors", energySince: 27_000_000_000_000, want: 3},
		{name: "thousand divisors", energySince: 1_000_000_000_000_000, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeGain(tt.energySince); got != tt.want {
				t.Errorf("ComputeGain(%d) = %d, want %d", tt.energySince, got, tt.want)
			}
		})
	}
}

func TestComputeGainNonDecreasing(t *testing.T) {
	prev := int64(0)
	for since := int64(0); since <= 50_000_000_000_000; since += 777_777_777_777 {
		got := ComputeGain(since)
		if got < prev {
			t.Fatalf("ComputeGain decreased at %d: %d after %d", since, got, prev)
		}
		prev = got
	}
}

type stubTxRunner struct{}

func (stubTxRunner) WithTransaction(ctx context.Context, _ *economy.TxOptions, fn func(context.Context, bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

func (stubTxRunner) DB() *bun.DB { return nil }

type stubProgressRepo struct {
	progress *models.Progress
	updates  int
}

func (r *stubProgressRepo) Get(_ context.Context, _ string) (*models.Progress, error) {
	return r.progress, nil
}

func (r *stubProgressRepo) GetOrCreateForUpdate(_ context.Context, _ bun.Tx, _ string) (*models.Progress, bool, error) {
	return r.progress, false, nil
}

func (r *stubProgressRepo) Update(_ context.Context, _ bun.Tx, _ *models.Progress) error {
	r.updates++
	return nil
}

type stubBoostRepo struct {
	deletes int
}

func (r *stubBoostRepo) GetActive(_ context.Context, _ bun.IDB, _ string, _ time.Time) ([]*models.Boost, error) {
	return nil, nil
}

func (r *stubBoostRepo) HasActiveOfType(_ context.Context, _ bun.IDB, _, _ string, _ time.Time) (bool, error) {
	return false, nil
}

func (r *stubBoostRepo) Insert(_ context.Context, _ bun.IDB, _ *models.Boost) error {
	return nil
}

func (r *stubBoostRepo) DeleteAllForUser(_ context.Context, _ bun.Tx, _ string) error {
	r.deletes++
	return nil
}

type stubInventoryRepo struct {
	deletes int
}

func (r *stubInventoryRepo) GetAll(_ context.Context, _ bun.IDB, _ string) ([]*models.InventoryItem, error) {
	return nil, nil
}

func (r *stubInventoryRepo) Get(_ context.Context, _ bun.IDB, _, _ string) (*models.InventoryItem, error) {
	return nil, nil
}

func (r *stubInventoryRepo) AddClamped(_ context.Context, _ bun.Tx, _, _ string, _ int64) error {
	return nil
}

func (r *stubInventoryRepo) TotalOwned(_ context.Context, _ bun.IDB, _ string) (int64, error) {
	return 0, nil
}

func (r *stubInventoryRepo) DeleteAllForUser(_ context.Context, _ bun.Tx, _ string) error {
	r.deletes++
	return nil
}

type stubEventRepo struct {
	events []*models.Event
}

func (r *stubEventRepo) Insert(_ context.Context, _ bun.IDB, event *models.Event) error {
	r.events = append(r.events, event)
	return nil
}

func TestPerformPrestigeRejectsIneligibleUntouched(t *testing.T) {
	tests := []struct {
		name     string
		progress models.Progress
	}{
		{
			name: "below level floor",
			progress: models.Progress{
				UserID: "u1", Level: 10, TapLevel: 4, Energy: 500,
				TotalEnergyProduced: 8_000_000_000_000,
				PrestigeMultiplier:  1, AchievementMultiplier: 1,
			},
		},
		{
			name: "no gain banked",
			progress: models.Progress{
				UserID: "u1", Level: 80, TapLevel: 4, Energy: 500,
				TotalEnergyProduced: 999_999,
				PrestigeMultiplier:  1, AchievementMultiplier: 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress := tt.progress
			progressRepo := &stubProgressRepo{progress: &progress}
			boostRepo := &stubBoostRepo{}
			invRepo := &stubInventoryRepo{}
			eventRepo := &stubEventRepo{}
			engine := NewEngine(stubTxRunner{}, progressRepo, boostRepo, invRepo, eventRepo,
				achievement.NewSynchronizer(nil, nil, nil), 50, nil)

			_, err := engine.PerformPrestige(context.Background(), "u1")
			if err == nil {
				t.Fatal("PerformPrestige succeeded for ineligible progress")
			}
			if got := economy.ReasonOf(err); got != economy.ReasonPrestigeUnavailable {
				t.Errorf("reason = %q, want %q", got, economy.ReasonPrestigeUnavailable)
			}
			if progressRepo.updates != 0 {
				t.Errorf("progress written %d times", progressRepo.updates)
			}
			if boostRepo.deletes != 0 || invRepo.deletes != 0 {
				t.Errorf("wipes ran: boosts=%d inventory=%d", boostRepo.deletes, invRepo.deletes)
			}
			if len(eventRepo.events) != 0 {
				t.Errorf("events written: %d", len(eventRepo.events))
			}
			if progress != tt.progress {
				t.Errorf("progress mutated: %+v", progress)
			}
		})
	}
}
