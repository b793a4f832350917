package income

import (
	"math"
	"testing"
	"time"

	"github.com/tapforge/server/tapforge/database/models"
)

func TestComposeEmpty(t *testing.T) {
	got := Compose(nil, nil, Multipliers{Prestige: 1, Achievement: 1}, time.Now())
	if got.BaseIncome != 0 || got.EffectiveIncome != 0 {
		t.Errorf("Compose with no buildings = %+v, want zero income", got)
	}
	if got.BoostMultiplier != 1 || got.EffectiveMultiplier != 1 {
		t.Errorf("Compose with no boosts = %+v, want identity multipliers", got)
	}
}

func TestComposeIdentityMultipliers(t *testing.T) {
	buildings := []OwnedBuilding{
		{BuildingID: "a", IncomePerSec: 3.5},
		{BuildingID: "b", IncomePerSec: 6.5},
	}
	got := Compose(buildings, nil, Multipliers{Prestige: 1, Achievement: 1}, time.Now())
	if got.BaseIncome != 10 {
		t.Errorf("BaseIncome = %f, want 10", got.BaseIncome)
	}
	if got.EffectiveIncome != 10 {
		t.Errorf("EffectiveIncome = %f, want 10", got.EffectiveIncome)
	}
}

func TestComposeBoostStacking(t *testing.T) {
	now := time.Now()
	buildings := []OwnedBuilding{{BuildingID: "a", IncomePerSec: 10}}
	boosts := []*models.Boost{
		{BoostType: "double_income", Multiplier: 2, ExpiresAt: now.Add(time.Hour)},
		{BoostType: "overdrive", Multiplier: 5, ExpiresAt: now.Add(time.Minute)},
		{BoostType: "expired", Multiplier: 100, ExpiresAt: now.Add(-time.Second)},
	}

	got := Compose(buildings, boosts, Multipliers{Prestige: 1, Achievement: 1}, now)
	if got.BoostMultiplier != 10 {
		t.Errorf("BoostMultiplier = %f, want 10 (2x5, expired excluded)", got.BoostMultiplier)
	}
	if got.EffectiveIncome != 100 {
		t.Errorf("EffectiveIncome = %f, want 100", got.EffectiveIncome)
	}
}

func TestComposeFloorsCorruptMultipliers(t *testing.T) {
	buildings := []OwnedBuilding{{BuildingID: "a", IncomePerSec: 10}}
	got := Compose(buildings, nil, Multipliers{Prestige: 0.5, Achievement: 0}, time.Now())
	if got.EffectiveIncome != 10 {
		t.Errorf("EffectiveIncome = %f, want 10 (sub-1 multipliers floored)", got.EffectiveIncome)
	}
}

func TestComposeEndToEndScenario(t *testing.T) {
	// Level-1 player, one x2 boost, one building at 10 energy/sec, 5
	// accounted seconds: 100 energy, 10 xp.
	now := time.Now()
	buildings := []OwnedBuilding{{BuildingID: "forge", IncomePerSec: 10}}
	boosts := []*models.Boost{
		{BoostType: "double_income", Multiplier: 2, ExpiresAt: now.Add(time.Hour)},
	}

	breakdown := Compose(buildings, boosts, Multipliers{Prestige: 1, Achievement: 1}, now)
	energyGained := int64(math.Floor(breakdown.EffectiveIncome * 5))
	xpGained := energyGained / 10

	if energyGained != 100 {
		t.Errorf("energyGained = %d, want 100", energyGained)
	}
	if xpGained != 10 {
		t.Errorf("xpGained = %d, want 10", xpGained)
	}
}

func TestFromInventory(t *testing.T) {
	items := []*models.InventoryItem{
		{BuildingID: "forge", Count: 3, Level: 1},
		{BuildingID: "mill", Count: 0, Level: 1},
		{BuildingID: "ghost", Count: 2, Level: 1},
	}
	perLevel := func(buildingID string, level int) (float64, bool) {
		switch buildingID {
		case "forge":
			return 2, true
		case "mill":
			return 5, true
		}
		return 0, false
	}

	got := FromInventory(items, perLevel)
	if len(got) != 1 {
		t.Fatalf("FromInventory returned %d entries, want 1 (zero-count and unknown skipped)", len(got))
	}
	if got[0].BuildingID != "forge" || got[0].IncomePerSec != 6 {
		t.Errorf("FromInventory[0] = %+v, want forge at 6/sec", got[0])
	}
}
