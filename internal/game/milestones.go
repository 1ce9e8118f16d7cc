package game

type milestone struct {
	id      string
	message string
	reached func(m Market) bool
}

var milestones = []milestone{
	{"bankroll", "Nice bankroll! You're rolling!", func(m Market) bool {
		return m.Funds >= 100*MicrosPerDollar && m.Funds < 150*MicrosPerDollar
	}},
	{"beloved", "Customers love you. Prices can stretch a bit!", func(m Market) bool {
		return m.Reputation >= 80 && m.Reputation < 90
	}},
	{"factory_row", "Factory row! Production's humming.", func(m Market) bool {
		return m.Factories == 3
	}},
	{"low_funds", "You're running low on funds!", func(m Market) bool {
		return m.Funds < 5*MicrosPerDollar
	}},
	{"tanking", "Your reputation's tanking... time to fix that.", func(m Market) bool {
		return m.Reputation <= lowReputation
	}},
}

// MilestoneTracker reports a milestone once each time its condition goes from false to true.
type MilestoneTracker struct {
	active map[string]bool
}

func (t *MilestoneTracker) Observe(m Market) []string {
	if t.active == nil {
		t.active = make(map[string]bool, len(milestones))
	}
	var fired []string
	for _, ms := range milestones {
		now := ms.reached(m)
		if now && !t.active[ms.id] {
			fired = append(fired, ms.message)
		}
		t.active[ms.id] = now
	}
	return fired
}
