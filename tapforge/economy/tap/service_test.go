package tap

import "testing"

func TestTapIncomePerHit(t *testing.T) {
	tests := []struct {
		name     string
		tapLevel int
		want     float64
	}{
		{name: "level one", tapLevel: 1, want: 1},
		{name: "level two", tapLevel: 2, want: 1.25},
		{name: "level five", tapLevel: 5, want: 2},
		{name: "zero normalized", tapLevel: 0, want: 1},
		{name: "negative normalized", tapLevel: -3, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TapIncomePerHit(tt.tapLevel); got != tt.want {
				t.Errorf("TapIncomePerHit(%d) = %f, want %f", tt.tapLevel, got, tt.want)
			}
		})
	}
}

func TestTapUpgradeCost(t *testing.T) {
	tests := []struct {
		name     string
		tapLevel int
		want     int64
	}{
		{name: "first upgrade", tapLevel: 1, want: 50},
		{name: "second upgrade", tapLevel: 2, want: 95},
		{name: "third upgrade", tapLevel: 3, want: 181},
		{name: "zero normalized", tapLevel: 0, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TapUpgradeCost(tt.tapLevel); got != tt.want {
				t.Errorf("TapUpgradeCost(%d) = %d, want %d", tt.tapLevel, got, tt.want)
			}
		})
	}
}

func TestTapUpgradeCostGrows(t *testing.T) {
	prev := int64(0)
	for level := 1; level <= 30; level++ {
		cost := TapUpgradeCost(level)
		if cost <= prev {
			t.Fatalf("cost not strictly increasing at level %d: %d after %d", level, cost, prev)
		}
		prev = cost
	}
}
