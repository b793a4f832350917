package tapforge

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/tapforge/server/tapforge/config"
	"github.com/tapforge/server/tapforge/content"
	"github.com/tapforge/server/tapforge/database"
	"github.com/tapforge/server/tapforge/database/repositories"
	"github.com/tapforge/server/tapforge/economy"
	"github.com/tapforge/server/tapforge/economy/achievement"
	"github.com/tapforge/server/tapforge/economy/boost"
	"github.com/tapforge/server/tapforge/economy/building"
	"github.com/tapforge/server/tapforge/economy/prestige"
	"github.com/tapforge/server/tapforge/economy/session"
	"github.com/tapforge/server/tapforge/economy/tap"
	"github.com/tapforge/server/tapforge/economy/tick"
)

func New(cfg Config, version string, commit string) *App {
	return &App{
		Cfg:     cfg,
		Version: version,
		Commit:  commit,
	}
}

// App owns every engine and their shared infrastructure. Wiring happens once
// at startup in SetupEngines; collaborators that live in other services
// (construction, cosmetics) may be nil.
type App struct {
	Cfg     Config
	Version string
	Commit  string

	DB    *database.DB
	Redis *redis.Client

	ProgressRepo    repositories.ProgressRepository
	SessionRepo     repositories.SessionRepository
	BoostRepo       repositories.BoostRepository
	InventoryRepo   repositories.InventoryRepository
	AchievementRepo repositories.AchievementRepository
	EventRepo       repositories.EventRepository

	Catalog       content.Catalog
	BoostResolver content.BoostResolver

	ProfileCache   *economy.ProfileCache
	ProfileService *economy.ProfileService

	TickEngine     *tick.Engine
	SessionService *session.Service
	TapService     *tap.Service
	PrestigeEngine *prestige.Engine
	Synchronizer   *achievement.Synchronizer
	ClaimService   *achievement.ClaimService
	BoostService   *boost.Service
	BuildingSvc    *building.Service
}

// SetupEngines wires repositories and engines against the connected stores.
// Must be called after DB and Redis are set.
func (a *App) SetupEngines(construction content.ConstructionScheduler, cosmetics content.CosmeticGranter) error {
	bunDB := a.DB.BunDB()

	a.ProgressRepo = repositories.NewProgressRepository(bunDB)
	a.SessionRepo = repositories.NewSessionRepository(bunDB)
	a.BoostRepo = repositories.NewBoostRepository(bunDB)
	a.InventoryRepo = repositories.NewInventoryRepository(bunDB)
	a.AchievementRepo = repositories.NewAchievementRepository(bunDB)
	a.EventRepo = repositories.NewEventRepository(bunDB)

	a.Catalog = content.DefaultCatalog()
	a.BoostResolver = content.DefaultBoostResolver()

	cache, err := economy.NewProfileCache()
	if err != nil {
		return err
	}
	a.ProfileCache = cache

	txManager := economy.NewTxManager(bunDB)
	a.Synchronizer = achievement.NewSynchronizer(a.AchievementRepo, a.EventRepo, content.DefaultAchievements())

	game := a.Cfg.Game
	a.TickEngine = tick.NewEngine(
		txManager,
		a.ProgressRepo, a.SessionRepo, a.BoostRepo, a.InventoryRepo, a.EventRepo,
		a.Synchronizer, a.Catalog,
		tick.Caps{
			OfflineSeconds: game.OfflineCapSeconds(),
			LevelCap:       config.LevelCap,
		},
		a.ProfileCache,
	)

	a.SessionService = session.NewService(
		txManager,
		a.ProgressRepo, a.SessionRepo, a.BoostRepo, a.InventoryRepo, a.EventRepo, a.AchievementRepo,
		a.Synchronizer, a.Catalog, construction,
		session.Config{
			OfflineCapSeconds:       game.OfflineCapSeconds(),
			OfflineIncomeMultiplier: game.OfflineIncomeMultiplier,
			StarterBuildingID:       game.StarterBuildingID,
			StarterMaxLevel:         game.StarterMaxLevel,
			LevelCap:                config.LevelCap,
		},
		a.ProfileCache,
	)

	limiter := tap.NewRateLimiter(a.Redis, game.TapPerSecondCap, game.TapPerMinuteCap)
	a.TapService = tap.NewService(
		txManager,
		a.ProgressRepo, a.EventRepo, limiter,
		tap.Config{
			MaxPerRequest: game.TapMaxPerRequest,
			LevelCap:      config.LevelCap,
		},
		a.ProfileCache,
	)

	a.PrestigeEngine = prestige.NewEngine(
		txManager,
		a.ProgressRepo, a.BoostRepo, a.InventoryRepo, a.EventRepo,
		a.Synchronizer, game.PrestigeMinLevel,
		a.ProfileCache,
	)

	a.ClaimService = achievement.NewClaimService(txManager, a.ProgressRepo, a.Synchronizer, cosmetics, a.ProfileCache)
	a.BoostService = boost.NewService(txManager, a.BoostRepo, a.EventRepo, a.BoostResolver, a.ProfileCache)
	a.BuildingSvc = building.NewService(
		txManager,
		a.ProgressRepo, a.InventoryRepo, a.EventRepo,
		a.Synchronizer, a.Catalog,
		building.Config{
			MaxPerPurchase: 100,
			LevelCap:       config.LevelCap,
		},
		a.ProfileCache,
	)

	a.ProfileService = economy.NewProfileService(bunDB, a.ProgressRepo, a.BoostRepo, a.InventoryRepo, a.Catalog, a.ProfileCache)

	slog.Info("Economy engines wired",
		slog.String("type", "sys"),
		slog.Int("prestige_min_level", game.PrestigeMinLevel),
		slog.Int64("offline_cap_seconds", game.OfflineCapSeconds()),
	)
	return nil
}

// Close releases the data stores.
func (a *App) Close(ctx context.Context) {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			slog.Error("Failed to close counter store", slog.Any("error", err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
	slog.Info("Shutdown complete", slog.String("type", "sys"))
}
