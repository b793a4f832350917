// Package income composes effective passive income from owned buildings,
// active boosts, and the permanent multipliers. Pure; callers pass committed
// state in.
package income

import (
	"time"

	"github.com/tapforge/server/tapforge/database/models"
)

// OwnedBuilding carries the already-folded income contribution of one
// building row (per-copy income at the row's level, times count).
type OwnedBuilding struct {
	BuildingID   string
	IncomePerSec float64
}

// Multipliers are the permanent income multipliers from the ledger.
type Multipliers struct {
	Prestige    float64
	Achievement float64
}

// Breakdown exposes each stage of the composition so telemetry and session
// snapshots can report them separately.
type Breakdown struct {
	BaseIncome          float64
	BoostMultiplier     float64
	EffectiveMultiplier float64
	EffectiveIncome     float64
}

// Compose stacks building income, active boost multipliers, and the
// permanent multipliers. Boosts stack multiplicatively with each other;
// permanent multipliers are floored at 1 so a corrupted row can never reduce
// income below base.
func Compose(buildings []OwnedBuilding, boosts []*models.Boost, m Multipliers, now time.Time) Breakdown {
	var base float64
	for _, b := range buildings {
		base += b.IncomePerSec
	}

	boostMult := 1.0
	for _, b := range boosts {
		if b.IsActive(now) {
			boostMult *= b.Multiplier
		}
	}

	prestige := m.Prestige
	if prestige < 1 {
		prestige = 1
	}
	achievement := m.Achievement
	if achievement < 1 {
		achievement = 1
	}

	effectiveMult := boostMult * prestige * achievement
	return Breakdown{
		BaseIncome:          base,
		BoostMultiplier:     boostMult,
		EffectiveMultiplier: effectiveMult,
		EffectiveIncome:     base * effectiveMult,
	}
}

// FromInventory folds inventory rows against their catalog definitions into
// OwnedBuilding entries. Rows whose building id no longer resolves are
// skipped rather than failing the whole composition.
func FromInventory(items []*models.InventoryItem, perLevelIncome func(buildingID string, level int) (float64, bool)) []OwnedBuilding {
	out := make([]OwnedBuilding, 0, len(items))
	for _, item := range items {
		if item.Count <= 0 {
			continue
		}
		perSec, ok := perLevelIncome(item.BuildingID, item.Level)
		if !ok {
			continue
		}
		out = append(out, OwnedBuilding{
			BuildingID:   item.BuildingID,
			IncomePerSec: perSec * float64(item.Count),
		})
	}
	return out
}
