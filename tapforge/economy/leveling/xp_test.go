package leveling

import (
	"math"
	"testing"
)

func TestPurchaseXPDegenerate(t *testing.T) {
	tests := []struct {
		name string
		cost float64
	}{
		{name: "zero cost", cost: 0},
		{name: "negative cost", cost: -500},
		{name: "NaN cost", cost: math.NaN()},
		{name: "positive infinity", cost: math.Inf(1)},
		{name: "negative infinity", cost: math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PurchaseXP(tt.cost, 10)
			if got != (XPAward{}) {
				t.Errorf("PurchaseXP(%v, 10) = %+v, want zero award", tt.cost, got)
			}
		})
	}
}

func TestPurchaseXPDamping(t *testing.T) {
	// The same cost must award strictly less xp at much higher levels.
	low := PurchaseXP(10000, 1)
	high := PurchaseXP(10000, 500)
	if low.Awarded == 0 {
		t.Fatal("expected nonzero award at level 1")
	}
	if high.Damped >= low.Damped {
		t.Errorf("damped xp did not shrink with level: level1=%f level500=%f", low.Damped, high.Damped)
	}
	if low.Raw != high.Raw {
		t.Errorf("raw xp should not depend on level: %f vs %f", low.Raw, high.Raw)
	}
}

func TestPurchaseXPCap(t *testing.T) {
	// A huge cost at a low level must be clamped to a quarter of the
	// per-level threshold.
	got := PurchaseXP(1e15, 2)
	capXP := int64(math.Floor(XPThresholdForLevel(2) * 0.25))
	if got.Awarded != capXP {
		t.Errorf("PurchaseXP(1e15, 2).Awarded = %d, want cap %d", got.Awarded, capXP)
	}
	if got.Damped <= float64(got.Awarded) {
		t.Errorf("expected damped value %f above the cap %d", got.Damped, got.Awarded)
	}
}

func TestUpgradeXP(t *testing.T) {
	got := UpgradeXP(1000, 1)
	if got.Awarded <= 0 {
		t.Fatalf("UpgradeXP(1000, 1).Awarded = %d, want positive", got.Awarded)
	}
	wantRaw := math.Pow(1000, 0.7) * 1.13
	if math.Abs(got.Raw-wantRaw) > 1e-9 {
		t.Errorf("UpgradeXP raw = %f, want %f", got.Raw, wantRaw)
	}
}

func TestPurchaseAndUpgradeCurvesMeet(t *testing.T) {
	// Coefficients are tuned so the two curves nearly coincide at cost 1000.
	purchase := PurchaseXP(1000, 1).Raw
	upgrade := UpgradeXP(1000, 1).Raw
	diff := math.Abs(purchase-upgrade) / purchase
	if diff > 0.02 {
		t.Errorf("curves diverge %.1f%% at cost 1000: purchase=%f upgrade=%f", diff*100, purchase, upgrade)
	}
}

func TestDampingFactorBounds(t *testing.T) {
	for _, level := range []int{-5, 0, 1, 100, 250, 1000} {
		f := dampingFactor(level)
		if f <= 0 || f > 1 {
			t.Errorf("dampingFactor(%d) = %f out of (0,1]", level, f)
		}
	}
	if dampingFactor(250) != 0.5 {
		t.Errorf("dampingFactor(250) = %f, want 0.5", dampingFactor(250))
	}
}
