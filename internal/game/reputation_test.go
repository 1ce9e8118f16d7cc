package game

import (
	"math"
	"testing"
)

func TestPriceMultiplierBoundedAndMonotonic(t *testing.T) {
	prev := 0.0
	for r := MinReputation; r <= MaxReputation; r++ {
		got := PriceMultiplier(r)
		if got < 0.85 || got > 1.15 {
			t.Fatalf("rep=%d multiplier %v out of bounds", r, got)
		}
		if got < prev {
			t.Fatalf("rep=%d multiplier %v decreased from %v", r, got, prev)
		}
		prev = got
	}
	if got := PriceMultiplier(50); got != 1.0 {
		t.Fatalf("neutral reputation multiplier = %v", got)
	}
	if got := PriceMultiplier(100); math.Abs(got-1.15) > 1e-9 {
		t.Fatalf("top multiplier = %v", got)
	}
}

func TestRawMaterialCostTiers(t *testing.T) {
	for r := MinReputation; r <= MaxReputation; r++ {
		got := RawMaterialCost(r, 0)
		if got != 4 && got != 5 && got != 6 {
			t.Fatalf("rep=%d cost=%d", r, got)
		}
	}
	tests := []struct {
		rep, discount, want int
	}{
		{rep: 80, discount: 0, want: 4},
		{rep: 79, discount: 0, want: 5},
		{rep: 21, discount: 0, want: 5},
		{rep: 20, discount: 0, want: 6},
		{rep: 50, discount: 1, want: 4},
		{rep: 90, discount: 10, want: 1},
	}
	for _, tc := range tests {
		if got := RawMaterialCost(tc.rep, tc.discount); got != tc.want {
			t.Fatalf("rep=%d discount=%d got=%d want=%d", tc.rep, tc.discount, got, tc.want)
		}
	}
}

func TestFactoryCostTiers(t *testing.T) {
	tests := []struct {
		rep, discount, want int
	}{
		{rep: 85, discount: 0, want: 45},
		{rep: 50, discount: 0, want: 50},
		{rep: 10, discount: 0, want: 60},
		{rep: 50, discount: 5, want: 45},
		{rep: 50, discount: 80, want: 1},
	}
	for _, tc := range tests {
		if got := FactoryCost(tc.rep, tc.discount); got != tc.want {
			t.Fatalf("rep=%d discount=%d got=%d want=%d", tc.rep, tc.discount, got, tc.want)
		}
	}
}

func TestApplyReputationDeltaNegativeNeverAbsorbed(t *testing.T) {
	shields := []float64{0, 0.1, 0.25, 0.4, 0.5, 0.99}
	for amount := -1; amount >= -10; amount-- {
		for _, shield := range shields {
			got := ApplyReputationDelta(50, amount, shield)
			change := 50 - got
			if change < 1 || change > -amount {
				t.Fatalf("amount=%d shield=%v change=%d", amount, shield, change)
			}
		}
	}
}

func TestApplyReputationDelta(t *testing.T) {
	tests := []struct {
		name        string
		rep, amount int
		shield      float64
		want        int
	}{
		{name: "gain passes through shield", rep: 50, amount: 2, shield: 0.5, want: 52},
		{name: "half shield rounds away from zero", rep: 50, amount: -3, shield: 0.5, want: 48},
		{name: "small loss forced to one", rep: 50, amount: -1, shield: 0.5, want: 49},
		{name: "clamped at zero", rep: 0, amount: -5, shield: 0, want: 0},
		{name: "clamped at hundred", rep: 99, amount: 2, shield: 0, want: 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ApplyReputationDelta(tc.rep, tc.amount, tc.shield); got != tc.want {
				t.Fatalf("got=%d want=%d", got, tc.want)
			}
		})
	}
}
