// Package roster ranks the characters a player can pick from and confirms a pick.
package roster

import (
	"errors"
	"slices"
	"strings"

	"monopoly/internal/profile"
)

var (
	ErrNoSelection  = errors.New("no character selected")
	ErrNameMismatch = errors.New("typed name does not match the selected character")
)

// SortByStrength orders characters strongest first. Ties keep their incoming order.
func SortByStrength(chars []profile.Character) []profile.Character {
	out := slices.Clone(chars)
	slices.SortStableFunc(out, func(a, b profile.Character) int {
		return b.Stats.Strength() - a.Stats.Strength()
	})
	return out
}

// ConfirmSelection checks the player typed the chosen character's name, ignoring case and
// surrounding spaces.
func ConfirmSelection(chosen *profile.Character, typedName string) (profile.Character, error) {
	if chosen == nil {
		return profile.Character{}, ErrNoSelection
	}
	typed := strings.TrimSpace(typedName)
	if typed == "" || !strings.EqualFold(typed, strings.TrimSpace(chosen.Name)) {
		return profile.Character{}, ErrNameMismatch
	}
	return *chosen, nil
}

// FindByName returns the first character whose name matches, case-insensitively.
func FindByName(chars []profile.Character, name string) (*profile.Character, bool) {
	name = strings.TrimSpace(name)
	for i := range chars {
		if strings.EqualFold(chars[i].Name, name) {
			return &chars[i], true
		}
	}
	return nil, false
}
