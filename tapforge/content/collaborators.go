package content

import (
	"context"
	"fmt"
	"time"
)

// ConstructionJob is one in-flight build reported by the construction
// subsystem.
type ConstructionJob struct {
	BuildingID   string    `json:"building_id"`
	StartedAt    time.Time `json:"started_at"`
	CompletesAt  time.Time `json:"completes_at"`
	BuilderIndex int       `json:"builder_index"`
}

// ConstructionSnapshot is the builder state attached to a session response.
type ConstructionSnapshot struct {
	BuilderCount int               `json:"builder_count"`
	BusyBuilders int               `json:"busy_builders"`
	Jobs         []ConstructionJob `json:"jobs"`
}

// ConstructionScheduler is implemented by the construction subsystem; the
// session flow only reads a snapshot, never mutates builder state.
type ConstructionScheduler interface {
	GetSnapshot(ctx context.Context, userID string) (*ConstructionSnapshot, error)
}

// BoostDef is the static definition of a claimable boost type.
type BoostDef struct {
	Type       string
	Multiplier float64
	Duration   time.Duration
}

// BoostResolver resolves client-supplied boost type strings.
type BoostResolver interface {
	Resolve(boostType string) (BoostDef, error)
}

type staticBoostResolver struct {
	defs map[string]BoostDef
}

// DefaultBoostResolver returns the built-in boost table.
func DefaultBoostResolver() BoostResolver {
	defs := []BoostDef{
		{Type: "double_income", Multiplier: 2, Duration: 4 * time.Hour},
		{Type: "triple_income", Multiplier: 3, Duration: 1 * time.Hour},
		{Type: "overdrive", Multiplier: 5, Duration: 15 * time.Minute},
	}
	m := make(map[string]BoostDef, len(defs))
	for _, d := range defs {
		m[d.Type] = d
	}
	return &staticBoostResolver{defs: m}
}

func (r *staticBoostResolver) Resolve(boostType string) (BoostDef, error) {
	def, ok := r.defs[boostType]
	if !ok {
		return BoostDef{}, fmt.Errorf("unknown boost type %q", boostType)
	}
	return def, nil
}

// CosmeticGranter hands out cosmetic rewards attached to achievement tiers.
// The claim flow tolerates a nil granter and a failed grant; cosmetics are
// not part of the economic ledger.
type CosmeticGranter interface {
	GrantCosmetic(ctx context.Context, userID, cosmeticKey string) error
}
