package content

// Metric names a tracked player statistic that achievements key on.
type Metric string

const (
	MetricTotalEnergy    Metric = "total_energy"
	MetricPrestigeLevel  Metric = "prestige_level"
	MetricBuildingsOwned Metric = "buildings_owned"
	MetricTotalTaps      Metric = "total_taps"
)

// AchievementTier is one claimable step of an achievement. RewardMultiplier
// compounds into the player's achievement multiplier on claim.
type AchievementTier struct {
	Tier             int
	Threshold        int64
	RewardMultiplier float64
	CosmeticKey      string
}

// AchievementDef is a static achievement definition. Tiers are ordered by
// ascending threshold.
type AchievementDef struct {
	ID     string
	Name   string
	Metric Metric
	Tiers  []AchievementTier
}

// HighestTierFor returns the highest tier whose threshold the value meets, or
// 0 when none do.
func (d AchievementDef) HighestTierFor(value int64) int {
	highest := 0
	for _, t := range d.Tiers {
		if value >= t.Threshold {
			highest = t.Tier
		}
	}
	return highest
}

// TierByNumber looks a tier up by its number.
func (d AchievementDef) TierByNumber(tier int) (AchievementTier, bool) {
	for _, t := range d.Tiers {
		if t.Tier == tier {
			return t, true
		}
	}
	return AchievementTier{}, false
}

// DefaultAchievements returns the built-in achievement table.
func DefaultAchievements() []AchievementDef {
	return []AchievementDef{
		{
			ID:     "energy_tycoon",
			Name:   "Energy Tycoon",
			Metric: MetricTotalEnergy,
			Tiers: []AchievementTier{
				{Tier: 1, Threshold: 10_000, RewardMultiplier: 1.02},
				{Tier: 2, Threshold: 1_000_000, RewardMultiplier: 1.03},
				{Tier: 3, Threshold: 100_000_000, RewardMultiplier: 1.05, CosmeticKey: "frame_gilded"},
				{Tier: 4, Threshold: 10_000_000_000, RewardMultiplier: 1.08},
				{Tier: 5, Threshold: 1_000_000_000_000, RewardMultiplier: 1.12, CosmeticKey: "frame_stellar"},
			},
		},
		{
			ID:     "ascendant",
			Name:   "Ascendant",
			Metric: MetricPrestigeLevel,
			Tiers: []AchievementTier{
				{Tier: 1, Threshold: 1, RewardMultiplier: 1.05, CosmeticKey: "badge_ascendant"},
				{Tier: 2, Threshold: 5, RewardMultiplier: 1.08},
				{Tier: 3, Threshold: 15, RewardMultiplier: 1.12, CosmeticKey: "badge_transcendent"},
			},
		},
		{
			ID:     "industrialist",
			Name:   "Industrialist",
			Metric: MetricBuildingsOwned,
			Tiers: []AchievementTier{
				{Tier: 1, Threshold: 10, RewardMultiplier: 1.02},
				{Tier: 2, Threshold: 100, RewardMultiplier: 1.04},
				{Tier: 3, Threshold: 500, RewardMultiplier: 1.06, CosmeticKey: "skin_foundry"},
				{Tier: 4, Threshold: 2_000, RewardMultiplier: 1.1},
			},
		},
		{
			ID:     "iron_finger",
			Name:   "Iron Finger",
			Metric: MetricTotalTaps,
			Tiers: []AchievementTier{
				{Tier: 1, Threshold: 1_000, RewardMultiplier: 1.01},
				{Tier: 2, Threshold: 25_000, RewardMultiplier: 1.03},
				{Tier: 3, Threshold: 250_000, RewardMultiplier: 1.05, CosmeticKey: "trail_sparks"},
			},
		},
	}
}
