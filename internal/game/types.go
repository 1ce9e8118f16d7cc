package game

import "monopoly/internal/profile"

type View struct {
	SessionID string     `json:"session_id"`
	Tick      int64      `json:"tick"`
	Market    MarketView `json:"market"`
	Product   Product    `json:"product"`
	Player    PlayerView `json:"player"`
	Wallet    WalletView `json:"wallet"`
	Message   string     `json:"message,omitempty"`
}

type MarketView struct {
	FundsMicros       int64   `json:"funds_micros"`
	PriceMicros       int64   `json:"price_micros"`
	Inventory         int     `json:"inventory"`
	Demand            float64 `json:"demand"`
	RawMaterials      int     `json:"raw_materials"`
	Factories         int     `json:"factories"`
	Reputation        int     `json:"reputation"`
	PriceMultiplier   float64 `json:"price_multiplier"`
	RawCostMicros     int64   `json:"raw_cost_micros"`
	FactoryCostMicros int64   `json:"factory_cost_micros"`
}

type PlayerView struct {
	Name       string        `json:"name"`
	Avatar     string        `json:"avatar"`
	Stats      profile.Stats `json:"stats"`
	Attributes Attributes    `json:"attributes"`
}

type WalletView struct {
	BufferedCents int64 `json:"buffered_cents"`
	RateCentsSec  int64 `json:"rate_cents_per_sec"`
}

// Event is what a Session publishes to its subscribers after every state change.
type Event struct {
	Kind    string      `json:"kind"`
	Message string      `json:"message,omitempty"`
	Report  *TickReport `json:"report,omitempty"`
	View    View        `json:"view"`
}

const (
	EventTick      = "tick"
	EventAction    = "action"
	EventProduct   = "product"
	EventMilestone = "milestone"
	EventClosed    = "closed"
)

// Action names accepted by Session.Act.
const (
	ActionPriceUp    = "price-up"
	ActionPriceDown  = "price-down"
	ActionMake       = "make"
	ActionBuyRaw     = "buy-raw"
	ActionBuyFactory = "buy-factory"
)

func viewMarket(m Market, product Product) MarketView {
	return MarketView{
		FundsMicros:       m.Funds,
		PriceMicros:       m.Price,
		Inventory:         m.Inventory,
		Demand:            m.Demand,
		RawMaterials:      m.RawMaterials,
		Factories:         m.Factories,
		Reputation:        m.Reputation,
		PriceMultiplier:   PriceMultiplier(m.Reputation),
		RawCostMicros:     m.RawMaterialCostMicros(product),
		FactoryCostMicros: m.FactoryCostMicros(product),
	}
}
