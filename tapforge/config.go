package tapforge

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.Game.applyDefaults()
	return &cfg, nil
}

type Config struct {
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`
	DB     DBConfig     `toml:"db"`
	Redis  RedisConfig  `toml:"redis"`
	Game   GameConfig   `toml:"game"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

// ServerConfig covers the ops listener only (/healthz, /metrics). Game
// traffic is routed by the edge service, not this process.
type ServerConfig struct {
	OpsAddr string `toml:"ops_addr"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

type RedisConfig struct {
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// GameConfig holds the balance knobs of the economy engines.
type GameConfig struct {
	SessionTimeoutSeconds   int64   `toml:"session_timeout_seconds"`
	MaxOfflineHours         int64   `toml:"max_offline_hours"`
	OfflineIncomeMultiplier float64 `toml:"offline_income_multiplier"`
	PrestigeMinLevel        int     `toml:"prestige_min_level"`
	TapMaxPerRequest        int     `toml:"tap_max_per_request"`
	TapPerSecondCap         int     `toml:"tap_per_second_cap"`
	TapPerMinuteCap         int     `toml:"tap_per_minute_cap"`
	StarterBuildingID       string  `toml:"starter_building_id"`
	StarterMaxLevel         int     `toml:"starter_max_level"`
}

func (g *GameConfig) applyDefaults() {
	if g.SessionTimeoutSeconds <= 0 {
		g.SessionTimeoutSeconds = 1800
	}
	if g.MaxOfflineHours <= 0 {
		g.MaxOfflineHours = 12
	}
	if g.OfflineIncomeMultiplier <= 0 {
		g.OfflineIncomeMultiplier = 0.5
	}
	if g.PrestigeMinLevel <= 0 {
		g.PrestigeMinLevel = 50
	}
	if g.TapMaxPerRequest <= 0 {
		g.TapMaxPerRequest = 50
	}
	if g.TapPerSecondCap <= 0 {
		g.TapPerSecondCap = 30
	}
	if g.TapPerMinuteCap <= 0 {
		g.TapPerMinuteCap = 600
	}
	if g.StarterBuildingID == "" {
		g.StarterBuildingID = "ember_forge"
	}
	if g.StarterMaxLevel <= 0 {
		g.StarterMaxLevel = 3
	}
}

// OfflineCapSeconds is the catch-up ceiling; never below the online cap.
func (g *GameConfig) OfflineCapSeconds() int64 {
	offline := g.MaxOfflineHours * int64(time.Hour/time.Second)
	if offline < g.SessionTimeoutSeconds {
		return g.SessionTimeoutSeconds
	}
	return offline
}
