package content

import (
	"fmt"
	"math"
)

// BuildingDef is the static definition of a purchasable income generator.
// Costs grow geometrically per copy owned; income grows geometrically per
// building level.
type BuildingDef struct {
	ID               string
	Name             string
	BaseCost         int64
	CostGrowth       float64
	BaseIncomePerSec float64
	IncomeGrowth     float64
	UnlockLevel      int
}

// IncomePerSec returns income per second for one copy at the given building
// level.
func (d BuildingDef) IncomePerSec(level int) float64 {
	if level < 1 {
		level = 1
	}
	return d.BaseIncomePerSec * math.Pow(d.IncomeGrowth, float64(level-1))
}

// CostOfNext returns the cost of the next copy given how many are already
// owned.
func (d BuildingDef) CostOfNext(owned int64) int64 {
	if owned < 0 {
		owned = 0
	}
	return int64(math.Ceil(float64(d.BaseCost) * math.Pow(d.CostGrowth, float64(owned))))
}

// Catalog resolves building ids against the static content tables.
type Catalog interface {
	GetBuilding(id string) (BuildingDef, error)
	AllBuildings() []BuildingDef
}

type staticCatalog struct {
	buildings map[string]BuildingDef
	order     []string
}

// DefaultCatalog returns the built-in building table.
func DefaultCatalog() Catalog {
	defs := []BuildingDef{
		{ID: "ember_forge", Name: "Ember Forge", BaseCost: 15, CostGrowth: 1.12, BaseIncomePerSec: 0.5, IncomeGrowth: 1.1, UnlockLevel: 1},
		{ID: "copper_mill", Name: "Copper Mill", BaseCost: 120, CostGrowth: 1.13, BaseIncomePerSec: 3, IncomeGrowth: 1.1, UnlockLevel: 3},
		{ID: "steam_press", Name: "Steam Press", BaseCost: 950, CostGrowth: 1.14, BaseIncomePerSec: 18, IncomeGrowth: 1.11, UnlockLevel: 8},
		{ID: "arc_smelter", Name: "Arc Smelter", BaseCost: 7800, CostGrowth: 1.14, BaseIncomePerSec: 95, IncomeGrowth: 1.11, UnlockLevel: 15},
		{ID: "plasma_foundry", Name: "Plasma Foundry", BaseCost: 64000, CostGrowth: 1.15, BaseIncomePerSec: 520, IncomeGrowth: 1.12, UnlockLevel: 25},
		{ID: "quantum_kiln", Name: "Quantum Kiln", BaseCost: 512000, CostGrowth: 1.15, BaseIncomePerSec: 2900, IncomeGrowth: 1.12, UnlockLevel: 40},
		{ID: "void_assembler", Name: "Void Assembler", BaseCost: 4200000, CostGrowth: 1.16, BaseIncomePerSec: 16500, IncomeGrowth: 1.13, UnlockLevel: 60},
		{ID: "stellar_dynamo", Name: "Stellar Dynamo", BaseCost: 34000000, CostGrowth: 1.16, BaseIncomePerSec: 92000, IncomeGrowth: 1.13, UnlockLevel: 85},
	}

	buildings := make(map[string]BuildingDef, len(defs))
	order := make([]string, 0, len(defs))
	for _, d := range defs {
		buildings[d.ID] = d
		order = append(order, d.ID)
	}
	return &staticCatalog{buildings: buildings, order: order}
}

func (c *staticCatalog) GetBuilding(id string) (BuildingDef, error) {
	def, ok := c.buildings[id]
	if !ok {
		return BuildingDef{}, fmt.Errorf("unknown building %q", id)
	}
	return def, nil
}

func (c *staticCatalog) AllBuildings() []BuildingDef {
	out := make([]BuildingDef, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.buildings[id])
	}
	return out
}
