package session

import (
	"context"
	"testing"
	"time"

	"github.com/tapforge/server/tapforge/content"
	"github.com/tapforge/server/tapforge/database/models"
	"github.com/tapforge/server/tapforge/database/repositories"
	"github.com/tapforge/server/tapforge/economy"
	"github.com/tapforge/server/tapforge/economy/achievement"
	"github.com/uptrace/bun"
)

func TestOfflineSecondsFor(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	const capSeconds = int64(43200) // 12h

	tests := []struct {
		name       string
		lastLogout time.Time
		want       int64
		wantCapped bool
	}{
		{name: "never logged out", lastLogout: time.Time{}, want: 0},
		{name: "one hour away", lastLogout: now.Add(-time.Hour), want: 3600},
		{name: "exactly at cap", lastLogout: now.Add(-12 * time.Hour), want: 43200},
		{name: "beyond cap clamps", lastLogout: now.Add(-48 * time.Hour), want: 43200, wantCapped: true},
		{name: "future logout clamps to zero", lastLogout: now.Add(time.Hour), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, capped := offlineSecondsFor(tt.lastLogout, now, capSeconds)
			if got != tt.want {
				t.Errorf("offlineSecondsFor = %d, want %d", got, tt.want)
			}
			if capped != tt.wantCapped {
				t.Errorf("capped = %v, want %v", capped, tt.wantCapped)
			}
		})
	}
}

type stubTxRunner struct{}

func (stubTxRunner) WithTransaction(ctx context.Context, _ *economy.TxOptions, fn func(context.Context, bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

func (stubTxRunner) DB() *bun.DB { return nil }

type stubProgressRepo struct {
	progress *models.Progress
}

func (r *stubProgressRepo) Get(_ context.Context, _ string) (*models.Progress, error) {
	return r.progress, nil
}

func (r *stubProgressRepo) GetOrCreateForUpdate(_ context.Context, _ bun.Tx, _ string) (*models.Progress, bool, error) {
	return r.progress, false, nil
}

func (r *stubProgressRepo) Update(_ context.Context, _ bun.Tx, _ *models.Progress) error {
	return nil
}

type stubSessionRepo struct {
	saved *models.PlayerSession
}

func (r *stubSessionRepo) GetOrCreateForUpdate(_ context.Context, _ bun.Tx, userID string) (*models.PlayerSession, bool, error) {
	return &models.PlayerSession{UserID: userID}, false, nil
}

func (r *stubSessionRepo) Save(_ context.Context, _ bun.Tx, session *models.PlayerSession) error {
	r.saved = session
	return nil
}

type stubBoostRepo struct{}

func (stubBoostRepo) GetActive(_ context.Context, _ bun.IDB, _ string, _ time.Time) ([]*models.Boost, error) {
	return nil, nil
}

func (stubBoostRepo) HasActiveOfType(_ context.Context, _ bun.IDB, _, _ string, _ time.Time) (bool, error) {
	return false, nil
}

func (stubBoostRepo) Insert(_ context.Context, _ bun.IDB, _ *models.Boost) error { return nil }

func (stubBoostRepo) DeleteAllForUser(_ context.Context, _ bun.Tx, _ string) error { return nil }

type stubInventoryRepo struct{}

func (stubInventoryRepo) GetAll(_ context.Context, _ bun.IDB, _ string) ([]*models.InventoryItem, error) {
	return nil, nil
}

func (stubInventoryRepo) Get(_ context.Context, _ bun.IDB, _, buildingID string) (*models.InventoryItem, error) {
	return nil, &repositories.NotFoundError{Entity: "inventory_item", ID: buildingID}
}

func (stubInventoryRepo) AddClamped(_ context.Context, _ bun.Tx, _, _ string, _ int64) error {
	return nil
}

func (stubInventoryRepo) TotalOwned(_ context.Context, _ bun.IDB, _ string) (int64, error) {
	return 0, nil
}

func (stubInventoryRepo) DeleteAllForUser(_ context.Context, _ bun.Tx, _ string) error { return nil }

type stubAchievementRepo struct {
	rows map[string]*models.AchievementProgress
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
	return nil
}

type stubEventRepo struct {
	events []*models.Event
}

func (r *stubEventRepo) Insert(_ context.Context, _ bun.IDB, event *models.Event) error {
	r.events = append(r.events, event)
	return nil
}

func TestOpenSessionSyncsTapTiersIntoSnapshot(t *testing.T) {
	progress := &models.Progress{
		UserID:                "u1",
		Level:                 12,
		TapLevel:              3,
		TotalTaps:             5_000,
		TotalEnergyProduced:   5_000,
		PrestigeMultiplier:    1,
		AchievementMultiplier: 1,
	}
	achRepo := newStubAchievementRepo()
	eventRepo := &stubEventRepo{}
	synchronizer := achievement.NewSynchronizer(achRepo, eventRepo, content.DefaultAchievements())

	svc := NewService(stubTxRunner{},
		&stubProgressRepo{progress: progress}, &stubSessionRepo{},
		stubBoostRepo{}, stubInventoryRepo{}, eventRepo, achRepo,
		synchronizer, content.DefaultCatalog(), nil,
		Config{
			OfflineCapSeconds:       43_200,
			OfflineIncomeMultiplier: 0.5,
			LevelCap:                2000,
		},
		nil,
	)

	snapshot, err := svc.OpenSession(context.Background(), "u1")
	if err != nil {
		t.Fatalf("OpenSession returned error: %v", err)
	}

	row := achRepo.rows["iron_finger"]
	if row == nil {
		t.Fatal("lifetime tap count was not synced into achievement progress")
	}
	if row.ProgressValue != 5_000 || row.HighestUnlockedTier != 1 {
		t.Errorf("iron_finger row = value %d tier %d, want value 5000 tier 1", row.ProgressValue, row.HighestUnlockedTier)
	}

	var found bool
	for _, ap := range snapshot.Achievements {
		if ap.AchievementID == "iron_finger" && ap.HighestUnlockedTier == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("snapshot achievements missing unlocked tap tier: %+v", snapshot.Achievements)
	}
}
