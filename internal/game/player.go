package game

import "monopoly/internal/profile"

// Attributes are the per-session multipliers derived from the selected character.
type Attributes struct {
	ProductionBonus  float64 `json:"production_bonus"`
	DemandBonus      float64 `json:"demand_bonus"`
	ReputationShield float64 `json:"reputation_shield"`
	EventShield      float64 `json:"event_shield"`
}

func AttributesFromStats(s profile.Stats) Attributes {
	return Attributes{
		ProductionBonus:  clampFloat(float64(max(1, s.Attack))/100, 0, 1.0),
		DemandBonus:      clampFloat(float64(max(1, s.Speed))/200, 0, 0.75),
		ReputationShield: clampFloat(float64(max(1, s.Defense))/200, 0, 0.5),
		EventShield:      clampFloat(float64(max(1, s.HP))/250, 0, 0.6),
	}
}
