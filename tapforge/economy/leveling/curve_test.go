package leveling

import (
	"math"
	"testing"
)

// naiveLevelProgress is the reference repeated-subtraction definition.
func naiveLevelProgress(totalXP int64) LevelProgress {
	if totalXP < 0 {
		totalXP = 0
	}
	level := 1
	remaining := totalXP
	for {
		req := requirementForLevel(level)
		if remaining < req {
			return LevelProgress{
				Level:          level,
				XPIntoLevel:    remaining,
				XPForNextLevel: req,
				XPToNextLevel:  req - remaining,
			}
		}
		remaining -= req
		level++
	}
}

func TestComputeLevelProgress(t *testing.T) {
	tests := []struct {
		name      string
		totalXP   int64
		wantLevel int
	}{
		{name: "zero xp", totalXP: 0, wantLevel: 1},
		{name: "one below first threshold", totalXP: 99, wantLevel: 1},
		{name: "exactly first threshold", totalXP: 100, wantLevel: 2},
		{name: "mid game", totalXP: 2000, wantLevel: 5},
		{name: "late game", totalXP: 150000, wantLevel: 27},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeLevelProgress(tt.totalXP)
			want := naiveLevelProgress(tt.totalXP)
			if got != want {
				t.Errorf("ComputeLevelProgress(%d) = %+v, want %+v", tt.totalXP, got, want)
			}
			if got.Level != tt.wantLevel {
				t.Errorf("ComputeLevelProgress(%d).Level = %d, want %d", tt.totalXP, got.Level, tt.wantLevel)
			}
		})
	}
}

func TestComputeLevelProgressInvariant(t *testing.T) {
	// xpIntoLevel + xpToNextLevel must always equal xpForNextLevel.
	for totalXP := int64(0); totalXP < 50000; totalXP += 137 {
		got := ComputeLevelProgress(totalXP)
		if got.XPIntoLevel+got.XPToNextLevel != got.XPForNextLevel {
			t.Fatalf("invariant broken at totalXP=%d: %+v", totalXP, got)
		}
		if got.XPIntoLevel < 0 || got.XPIntoLevel >= got.XPForNextLevel {
			t.Fatalf("xpIntoLevel out of range at totalXP=%d: %+v", totalXP, got)
		}
	}
}

func TestComputeLevelProgressMatchesLoopForLargeValues(t *testing.T) {
	// The memoized search must agree with the loop for totals well past 10^6.
	values := []int64{1_000_001, 5_555_555, 25_000_000, 123_456_789, 1_000_000_000}
	for _, totalXP := range values {
		got := ComputeLevelProgress(totalXP)
		want := naiveLevelProgress(totalXP)
		if got != want {
			t.Errorf("ComputeLevelProgress(%d) = %+v, want %+v", totalXP, got, want)
		}
	}
}

func TestComputeLevelProgressNoLevelSkips(t *testing.T) {
	// Crossing every threshold one xp at a time must advance levels by
	// exactly one.
	prev := ComputeLevelProgress(0).Level
	var xp int64
	for prev < 40 {
		xp += ComputeLevelProgress(xp).XPToNextLevel
		cur := ComputeLevelProgress(xp).Level
		if cur != prev+1 {
			t.Fatalf("level jumped from %d to %d at totalXP=%d", prev, cur, xp)
		}
		prev = cur
	}
}

func TestEstimateLevelNeverOvershootsFar(t *testing.T) {
	for _, totalXP := range []int64{0, 100, 10_000, 1_000_000, 500_000_000} {
		est := EstimateLevel(totalXP)
		exact := naiveLevelProgress(totalXP).Level
		if est > exact+1 {
			t.Errorf("EstimateLevel(%d) = %d overshoots exact level %d", totalXP, est, exact)
		}
	}
}

func TestApplyXP(t *testing.T) {
	tests := []struct {
		name         string
		currentXP    int64
		overflow     int64
		gained       int64
		levelCap     int
		wantLevel    int
		wantOverflow int64
	}{
		{name: "no gain", currentXP: 0, gained: 0, levelCap: 2000, wantLevel: 1, wantOverflow: 0},
		{name: "normal gain", currentXP: 0, gained: 100, levelCap: 2000, wantLevel: 2, wantOverflow: 0},
		{name: "negative gain ignored", currentXP: 50, gained: -10, levelCap: 2000, wantLevel: 1, wantOverflow: 0},
		{name: "cap banks overflow", currentXP: 0, gained: 1000, levelCap: 3, wantLevel: 3, wantOverflow: 1000 - 100 - 283},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xp, overflow, level := ApplyXP(tt.currentXP, tt.overflow, tt.gained, tt.levelCap)
			if level != tt.wantLevel {
				t.Errorf("ApplyXP level = %d, want %d", level, tt.wantLevel)
			}
			if overflow != tt.wantOverflow {
				t.Errorf("ApplyXP overflow = %d, want %d", overflow, tt.wantOverflow)
			}
			if level == tt.levelCap && xp != cumulativeThreshold(tt.levelCap) {
				t.Errorf("ApplyXP capped xp = %d, want threshold %d", xp, cumulativeThreshold(tt.levelCap))
			}
		})
	}
}

func TestXPThresholdForLevelContinuity(t *testing.T) {
	// The soft-cap knees must not introduce discontinuities.
	for _, knee := range []int{100, 1000} {
		below := XPThresholdForLevel(knee)
		above := XPThresholdForLevel(knee + 1)
		if above <= below {
			t.Errorf("threshold not increasing across knee %d: %f then %f", knee, below, above)
		}
		ratio := above / below
		if ratio > 1.05 {
			t.Errorf("threshold jumps %.3fx across knee %d", ratio, knee)
		}
	}
}

func TestXPThresholdForLevelMonotonic(t *testing.T) {
	prev := 0.0
	for level := 1; level <= 1500; level++ {
		cur := XPThresholdForLevel(level)
		if cur <= prev {
			t.Fatalf("XPThresholdForLevel not monotonic at level %d: %f <= %f", level, cur, prev)
		}
		if math.IsNaN(cur) || math.IsInf(cur, 0) {
			t.Fatalf("XPThresholdForLevel(%d) is not finite", level)
		}
		prev = cur
	}
}
