package leveling

import "math"

// Cost-to-xp conversion for discrete economic actions. Purchases and
// upgrades use different exponents; the coefficients are tuned so the two
// curves meet at cost 1000 and neither dominates early play.
const (
	purchaseExponent    = 0.75
	purchaseCoefficient = 0.8
	upgradeExponent     = 0.7
	upgradeCoefficient  = 1.13
)

// XPAward reports each stage of the cost-to-xp pipeline. Awarded is what the
// caller applies to the ledger.
type XPAward struct {
	Raw     float64
	Damped  float64
	Awarded int64
}

// dampingFactor shrinks action xp as the player levels, keeping bulk
// purchases from outpacing level-gated content.
func dampingFactor(level int) float64 {
	l := float64(level)
	if l < 1 {
		l = 1
	}
	return 1 / (1 + math.Pow(l/250, 1.6))
}

func awardFor(cost float64, level int, exponent, coefficient float64) XPAward {
	if cost <= 0 || math.IsNaN(cost) || math.IsInf(cost, 0) {
		return XPAward{}
	}

	raw := math.Pow(cost, exponent) * coefficient
	damped := raw * dampingFactor(level)
	awarded := int64(math.Floor(damped))

	capXP := int64(math.Floor(XPThresholdForLevel(level) * 0.25))
	if awarded > capXP {
		awarded = capXP
	}
	return XPAward{Raw: raw, Damped: damped, Awarded: awarded}
}

// PurchaseXP converts a building purchase cost into an xp award.
func PurchaseXP(cost float64, level int) XPAward {
	return awardFor(cost, level, purchaseExponent, purchaseCoefficient)
}

// UpgradeXP converts an upgrade cost into an xp award.
func UpgradeXP(cost float64, level int) XPAward {
	return awardFor(cost, level, upgradeExponent, upgradeCoefficient)
}
