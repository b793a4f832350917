// Package leveling holds the pure experience curves. Nothing here touches
// storage; engines call in with committed values and write the results back
// themselves.
package leveling

import (
	"math"
	"sort"
	"sync"
)

// LevelProgress decomposes a cumulative xp total into the player's level and
// position within it.
type LevelProgress struct {
	Level          int
	XPIntoLevel    int64
	XPForNextLevel int64
	XPToNextLevel  int64
}

// requirementForLevel is the xp needed to advance FROM the given level to the
// next one.
func requirementForLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(math.Round(100 * math.Pow(float64(level), 1.5)))
}

// thresholds[i] is the cumulative xp required to reach level i+1, so
// thresholds[0] == 0 (level 1 is free). Grown on demand and shared between
// callers; the slice is append-only under the mutex.
var (
	thresholdsMu sync.Mutex
	thresholds   = []int64{0}
)

// cumulativeThreshold returns total xp required to reach the given level.
func cumulativeThreshold(level int) int64 {
	if level < 1 {
		level = 1
	}
	thresholdsMu.Lock()
	defer thresholdsMu.Unlock()
	for len(thresholds) < level {
		last := len(thresholds)
		thresholds = append(thresholds, thresholds[last-1]+requirementForLevel(last))
	}
	return thresholds[level-1]
}

// EstimateLevel is the closed-form inverse of the cumulative curve. The
// cumulative sum of 100·l^1.5 behaves like 40·L^2.5 for large L, so the
// inverse is (xp/40)^0.4. Used only to size the memo table; the exact answer
// comes from the threshold search.
func EstimateLevel(totalXP int64) int {
	if totalXP <= 0 {
		return 1
	}
	est := int(math.Pow(float64(totalXP)/40, 0.4))
	if est < 1 {
		est = 1
	}
	return est
}

// ComputeLevelProgress maps cumulative xp to level and in-level position. It
// matches the repeated-subtraction definition exactly for every input.
func ComputeLevelProgress(totalXP int64) LevelProgress {
	if totalXP < 0 {
		totalXP = 0
	}

	// Grow the memo past the estimate, then walk forward until the next
	// threshold exceeds the total. The estimate undershoots only by a few
	// levels so the walk is short.
	upper := EstimateLevel(totalXP) + 4
	for cumulativeThreshold(upper) <= totalXP {
		upper += 8
	}

	thresholdsMu.Lock()
	// Largest level whose threshold is <= totalXP.
	idx := sort.Search(upper, func(i int) bool {
		return thresholds[i] > totalXP
	})
	level := idx // thresholds[idx-1] <= totalXP < thresholds[idx]
	base := thresholds[level-1]
	thresholdsMu.Unlock()

	forNext := requirementForLevel(level)
	into := totalXP - base
	return LevelProgress{
		Level:          level,
		XPIntoLevel:    into,
		XPForNextLevel: forNext,
		XPToNextLevel:  forNext - into,
	}
}

// LevelCap handling: once a player hits the cap, further xp banks into a
// separate overflow counter instead of advancing the level.

// ApplyXP adds gained xp to a (xp, overflow) pair under the level cap and
// returns the new totals plus the recomputed level.
func ApplyXP(currentXP, currentOverflow, gained int64, levelCap int) (xp, overflow int64, level int) {
	if gained < 0 {
		gained = 0
	}
	xp = currentXP + gained
	overflow = currentOverflow

	capThreshold := cumulativeThreshold(levelCap)
	if xp >= capThreshold {
		overflow += xp - capThreshold
		xp = capThreshold
		return xp, overflow, levelCap
	}
	return xp, overflow, ComputeLevelProgress(xp).Level
}

// XPThresholdForLevel is the per-level transaction-xp budget curve. It is
// independent of the leveling curve above: soft caps kick in at level 100 and
// again at level 1000, each segment continuous with the previous one.
func XPThresholdForLevel(level int) float64 {
	l := float64(level)
	if l < 1 {
		l = 1
	}
	const (
		baseCoeff = 120.0
		knee1     = 100.0
		knee2     = 1000.0
	)
	at100 := baseCoeff * math.Pow(knee1, 1.6)
	if l <= knee1 {
		return baseCoeff * math.Pow(l, 1.6)
	}
	at1000 := at100 * math.Pow(knee2/knee1, 1.2)
	if l <= knee2 {
		return at100 * math.Pow(l/knee1, 1.2)
	}
	return at1000 * math.Pow(l/knee2, 1.05)
}
