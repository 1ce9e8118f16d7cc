package game

import "math"

// Rand is the random source behind the probabilistic tick branches. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Market is the per-session economic state. Money fields are micros.
type Market struct {
	Funds        int64   `json:"funds_micros"`
	Price        int64   `json:"price_micros"`
	Inventory    int     `json:"inventory"`
	Demand       float64 `json:"demand"`
	RawMaterials int     `json:"raw_materials"`
	Factories    int     `json:"factories"`
	Reputation   int     `json:"reputation"`
}

func NewMarket() Market {
	return Market{
		Funds:        StartingFunds,
		Price:        StartingPrice,
		Demand:       StartingDemand,
		RawMaterials: StartingRawMaterials,
		Reputation:   StartingReputation,
	}
}

type TickReport struct {
	Made             int   `json:"made"`
	BonusUnit        bool  `json:"bonus_unit"`
	Sold             int   `json:"sold"`
	RevenueMicros    int64 `json:"revenue_micros"`
	ReputationDelta  int   `json:"reputation_delta"`
	OverpricePenalty bool  `json:"overprice_penalty"`
}

// ComputeDemand has no side effects; the same inputs always give the same demand.
func ComputeDemand(m Market, attrs Attributes, product Product) float64 {
	price := MicrosToDollars(m.Price)
	pricePenalty := math.Max(0, price-1.0) * 1.2
	stockPenalty := math.Min(3.0, float64(m.Inventory)/25.0)
	demand := math.Max(0, 6.0-pricePenalty-stockPenalty+attrs.DemandBonus) * product.boost()
	switch {
	case m.Reputation >= highReputation:
		demand += 0.5
	case m.Reputation <= lowReputation:
		demand -= 0.5
	}
	return math.Max(0, demand)
}

func (m *Market) RecomputeDemand(attrs Attributes, product Product) {
	m.Demand = ComputeDemand(*m, attrs, product)
}

// Tick runs production, sales, reputation feedback and the demand recompute. The wallet is
// advanced by the caller before this runs.
func (m *Market) Tick(rng Rand, attrs Attributes, product Product) TickReport {
	next := *m
	var report TickReport

	made := min(next.Factories, next.RawMaterials)
	if rng.Float64() < attrs.ProductionBonus && made < next.RawMaterials {
		made++
		report.BonusUnit = true
	}
	next.Inventory += made
	next.RawMaterials -= made
	report.Made = made

	potential := int(math.Floor(next.Demand))
	sold := min(potential, next.Inventory)
	next.Inventory -= sold
	revenue := int64(math.Round(float64(sold) * float64(next.Price) * PriceMultiplier(next.Reputation)))
	next.Funds += revenue
	report.Sold = sold
	report.RevenueMicros = revenue

	before := next.Reputation
	if sold > 0 {
		next.Reputation = ApplyReputationDelta(next.Reputation, 1, attrs.ReputationShield)
	} else {
		next.Reputation = ApplyReputationDelta(next.Reputation, -1, attrs.ReputationShield)
	}
	if next.Price > OverpriceThreshold && rng.Float64() >= attrs.EventShield {
		next.Reputation = ApplyReputationDelta(next.Reputation, -1, attrs.ReputationShield)
		report.OverpricePenalty = true
	}
	report.ReputationDelta = next.Reputation - before

	next.RecomputeDemand(attrs, product)
	*m = next
	return report
}

func (m *Market) RaisePrice(attrs Attributes, product Product) {
	m.Price += PriceStep
	m.RecomputeDemand(attrs, product)
}

func (m *Market) LowerPrice(attrs Attributes, product Product) {
	m.Price = max(MinPrice, m.Price-PriceStep)
	m.RecomputeDemand(attrs, product)
}

func (m *Market) MakeOne(attrs Attributes) error {
	if m.RawMaterials <= 0 {
		m.Reputation = ApplyReputationDelta(m.Reputation, -1, attrs.ReputationShield)
		return ErrNoRawMaterials
	}
	m.RawMaterials--
	m.Inventory++
	return nil
}

func (m *Market) RawMaterialCostMicros(product Product) int64 {
	return int64(RawMaterialCost(m.Reputation, product.RawDiscount)) * MicrosPerDollar
}

func (m *Market) FactoryCostMicros(product Product) int64 {
	return int64(FactoryCost(m.Reputation, product.FactoryDiscount)) * MicrosPerDollar
}

// BuyRawMaterials buys one lot. Suppliers like steady buyers; a failed order costs reputation.
func (m *Market) BuyRawMaterials(attrs Attributes, product Product) (int64, error) {
	cost := m.RawMaterialCostMicros(product)
	if m.Funds < cost {
		m.Reputation = ApplyReputationDelta(m.Reputation, -1, attrs.ReputationShield)
		return cost, ErrInsufficientFunds
	}
	m.Funds -= cost
	m.RawMaterials += RawMaterialLot
	m.Reputation = ApplyReputationDelta(m.Reputation, 1, attrs.ReputationShield)
	return cost, nil
}

func (m *Market) BuyFactory(attrs Attributes, product Product) (int64, error) {
	cost := m.FactoryCostMicros(product)
	if m.Funds < cost {
		m.Reputation = ApplyReputationDelta(m.Reputation, -1, attrs.ReputationShield)
		return cost, ErrInsufficientFunds
	}
	m.Funds -= cost
	m.Factories++
	m.Reputation = ApplyReputationDelta(m.Reputation, 2, attrs.ReputationShield)
	return cost, nil
}
