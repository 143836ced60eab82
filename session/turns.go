package session

import (
	"errors"
	"sort"
)

var ErrNoPlayers = errors.New("no players in group")

// BuildTurnOrder sorts players by join time ascending and returns their
// ids. The result is frozen for the whole session once a game starts.
func BuildTurnOrder(players []Player) ([]string, error) {
	if len(players) == 0 {
		return nil, ErrNoPlayers
	}

	sorted := make([]Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].JoinedAt.Before(sorted[j].JoinedAt)
	})

	order := make([]string, len(sorted))
	for i, p := range sorted {
		order[i] = p.ID
	}
	return order, nil
}

// NextTurn advances the round-robin cursor. Every guess consumes a turn,
// hit or miss.
func NextTurn(order []string, current int) int {
	if len(order) == 0 {
		return 0
	}
	return (current + 1) % len(order)
}
