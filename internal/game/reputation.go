package game

import "math"

const (
	MinReputation = 0
	MaxReputation = 100

	highReputation = 80
	lowReputation  = 20
)

// PriceMultiplier is what customers pay on top of the list price: 0.85x at the bottom of the
// scale, 1.15x at the top.
func PriceMultiplier(reputation int) float64 {
	delta := float64(reputation-50) / 200
	return clampFloat(1+delta*0.6, 0.85, 1.15)
}

// RawMaterialCost is the dollar price of one lot of raw materials.
func RawMaterialCost(reputation, discount int) int {
	cost := 5
	switch {
	case reputation >= highReputation:
		cost = 4
	case reputation <= lowReputation:
		cost = 6
	}
	return max(1, cost-discount)
}

func FactoryCost(reputation, discount int) int {
	cost := 50
	switch {
	case reputation >= highReputation:
		cost = 45
	case reputation <= lowReputation:
		cost = 60
	}
	return max(1, cost-discount)
}

// ApplyReputationDelta dampens losses by shield and leaves gains alone. A loss never rounds
// away to nothing: the smallest possible hit is -1.
func ApplyReputationDelta(reputation, amount int, shield float64) int {
	if amount < 0 {
		amount = int(math.Round(float64(amount) * (1 - shield)))
		if amount == 0 {
			amount = -1
		}
	}
	return clampInt(reputation+amount, MinReputation, MaxReputation)
}
