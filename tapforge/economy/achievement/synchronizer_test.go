package achievement

import (
	"context"
	"testing"

	"github.com/tapforge/server/tapforge/content"
	"github.com/tapforge/server/tapforge/database/models"
	"github.com/tapforge/server/tapforge/database/repositories"
	"github.com/uptrace/bun"
)

type stubAchievementRepo struct {
	rows    map[string]*models.AchievementProgress
	upserts int
}

func newStubAchievementRepo() *stubAchievementRepo {
	return &stubAchievementRepo{rows: make(map[string]*models.AchievementProgress)}
}

func (r *stubAchievementRepo) GetByUserAndDef(_ context.Context, _ bun.IDB, _, achievementID string) (*models.AchievementProgress, error) {
	row, ok := r.rows[achievementID]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "achievement_progress", ID: achievementID}
	}
	copied := *row
	return &copied, nil
}

func (r *stubAchievementRepo) GetAllByUser(_ context.Context, _ bun.IDB, _ string) ([]*models.AchievementProgress, error) {
	out := make([]*models.AchievementProgress, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *stubAchievementRepo) Upsert(_ context.Context, _ bun.Tx, ap *models.AchievementProgress) error {
	copied := *ap
	r.rows[ap.AchievementID] = &copied
	r.upserts++
	return nil
}

type stubEventRepo struct {
	events []*models.Event
}

func (r *stubEventRepo) Insert(_ context.Context, _ bun.IDB, event *models.Event) error {
	r.events = append(r.events, event)
	return nil
}

func TestSyncMetricUnlocksTiersInOrder(t *testing.T) {
	repo := newStubAchievementRepo()
	events := &stubEventRepo{}
	sync := NewSynchronizer(repo, events, content.DefaultAchievements())

	unlocks, err := sync.SyncMetric(context.Background(), bun.Tx{}, "u1", content.MetricTotalTaps, 30_000)
	if err != nil {
		t.Fatalf("SyncMetric returned error: %v", err)
	}

	want := []TierUnlock{
		{AchievementID: "iron_finger", Tier: 1},
		{AchievementID: "iron_finger", Tier: 2},
	}
	if len(unlocks) != len(want) {
		t.Fatalf("unlocks = %+v, want %+v", unlocks, want)
	}
	for i := range want {
		if unlocks[i] != want[i] {
			t.Errorf("unlocks[%d] = %+v, want %+v", i, unlocks[i], want[i])
		}
	}

	row := repo.rows["iron_finger"]
	if row == nil {
		t.Fatal("no row persisted for iron_finger")
	}
	if row.ProgressValue != 30_000 || row.HighestUnlockedTier != 2 {
		t.Errorf("row = value %d tier %d, want value 30000 tier 2", row.ProgressValue, row.HighestUnlockedTier)
	}
	if len(events.events) != 2 {
		t.Errorf("unlock events = %d, want 2", len(events.events))
	}
}

func TestSyncMetricLowerValueIsNoOp(t *testing.T) {
	repo := newStubAchievementRepo()
	events := &stubEventRepo{}
	sync := NewSynchronizer(repo, events, content.DefaultAchievements())

	if _, err := sync.SyncMetric(context.Background(), bun.Tx{}, "u1", content.MetricTotalTaps, 250_000); err != nil {
		t.Fatalf("first sync returned error: %v", err)
	}
	upserts := repo.upserts
	unlockEvents := len(events.events)

	unlocks, err := sync.SyncMetric(context.Background(), bun.Tx{}, "u1", content.MetricTotalTaps, 1_000)
	if err != nil {
		t.Fatalf("second sync returned error: %v", err)
	}
	if len(unlocks) != 0 {
		t.Errorf("lower value produced unlocks: %+v", unlocks)
	}

	row := repo.rows["iron_finger"]
	if row.ProgressValue != 250_000 || row.HighestUnlockedTier != 3 {
		t.Errorf("row regressed to value %d tier %d", row.ProgressValue, row.HighestUnlockedTier)
	}
	if repo.upserts != upserts {
		t.Errorf("lower value wrote %d extra upserts", repo.upserts-upserts)
	}
	if len(events.events) != unlockEvents {
		t.Errorf("lower value wrote %d extra events", len(events.events)-unlockEvents)
	}
}

func TestSyncMetricNegativeValueIgnored(t *testing.T) {
	repo := newStubAchievementRepo()
	sync := NewSynchronizer(repo, &stubEventRepo{}, content.DefaultAchievements())

	unlocks, err := sync.SyncMetric(context.Background(), bun.Tx{}, "u1", content.MetricTotalTaps, -5)
	if err != nil {
		t.Fatalf("SyncMetric returned error: %v", err)
	}
	if unlocks != nil {
		t.Errorf("negative value produced unlocks: %+v", unlocks)
	}
	if repo.upserts != 0 {
		t.Errorf("negative value wrote %d upserts", repo.upserts)
	}
}
