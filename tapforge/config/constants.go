package config

import "time"

// Application-wide constants organized by domain

// Database and Performance Constants
const (
	DefaultQueryTimeout = 30 * time.Second
	DefaultTxTimeout    = 15 * time.Second
	NetworkDialTimeout  = 5 * time.Second

	MaxRetries = 3
)

// Cache settings
const (
	ProfileCacheSize       = 10000
	ProfileCacheExpiration = 5 * time.Minute
)

// Leveling Constants
const (
	// LevelCap is the hard ceiling of the leveling curve. XP earned past the
	// cumulative cap threshold is banked into xp_overflow.
	LevelCap = 2000
)

// Tap Rate Limiting Constants
const (
	TapSecondWindowTTL = 2 * time.Second
	TapMinuteWindowTTL = 120 * time.Second
)

// Session Constants
const (
	// Sessions longer than this are treated as stale/abandoned and excluded
	// from duration telemetry (the logout itself is still persisted).
	StaleSessionCutoff = 24 * time.Hour
)
