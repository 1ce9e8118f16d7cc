package game

import (
	"errors"
	"math"
)

const (
	MicrosPerDollar = int64(1_000_000)

	StartingFunds        = int64(20) * MicrosPerDollar
	StartingPrice        = MicrosPerDollar
	StartingDemand       = 5.0
	StartingRawMaterials = 10
	StartingReputation   = 50

	PriceStep          = MicrosPerDollar / 4
	MinPrice           = MicrosPerDollar / 4
	OverpriceThreshold = MicrosPerDollar * 5 / 2

	RawMaterialLot = 10
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoRawMaterials    = errors.New("no raw materials")
	ErrRefreshInFlight   = errors.New("product refresh already in flight")
	ErrSessionClosed     = errors.New("session closed")
	ErrUnknownAction     = errors.New("unknown action")
)

func DollarsToMicros(v float64) int64 {
	return int64(math.Round(v * float64(MicrosPerDollar)))
}

func MicrosToDollars(v int64) float64 {
	return float64(v) / float64(MicrosPerDollar)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
