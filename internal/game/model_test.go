package game

import "testing"

func TestDollarsToMicros(t *testing.T) {
	tests := []struct {
		dollars float64
		want    int64
	}{
		{dollars: 0, want: 0},
		{dollars: 0.25, want: 250_000},
		{dollars: 1, want: MicrosPerDollar},
		{dollars: 20, want: StartingFunds},
		{dollars: 2.5, want: OverpriceThreshold},
	}
	for _, tc := range tests {
		if got := DollarsToMicros(tc.dollars); got != tc.want {
			t.Fatalf("dollars=%v got=%d want=%d", tc.dollars, got, tc.want)
		}
		if back := MicrosToDollars(tc.want); back != tc.dollars {
			t.Fatalf("micros=%d back=%v want=%v", tc.want, back, tc.dollars)
		}
	}
}

func TestNewMarketDefaults(t *testing.T) {
	m := NewMarket()
	if m.Funds != 20*MicrosPerDollar || m.Price != MicrosPerDollar {
		t.Fatalf("unexpected money defaults: %+v", m)
	}
	if m.Inventory != 0 || m.Demand != 5.0 || m.RawMaterials != 10 || m.Factories != 0 || m.Reputation != 50 {
		t.Fatalf("unexpected defaults: %+v", m)
	}
}
