package session

import (
	"math"
	"time"
)

// Scoring constants per guess.
const (
	HitPoints   = 10
	MissPenalty = -2
	// Completion bonus: half of the seconds left in the round.
	BonusFactor = 0.5
)

// ScoreDelta is the combined score effect of one guess. Player and group
// always move together; TimeBonus is the share already included in both
// that came from finishing the word early.
type ScoreDelta struct {
	Player    int `json:"player"`
	Group     int `json:"group"`
	TimeBonus int `json:"time_bonus"`
}

// ScoreGuess computes the deltas for one guess. completes must only be
// true when the guess revealed the last hidden letter; a round lost to
// the fail cap earns no bonus.
func ScoreGuess(hit, completes bool, roundSeconds int, elapsed time.Duration) ScoreDelta {
	var d ScoreDelta
	if hit {
		d.Player += HitPoints
		d.Group += HitPoints
	} else {
		d.Player += MissPenalty
		d.Group += MissPenalty
	}

	if completes {
		if roundSeconds <= 0 {
			roundSeconds = DefaultRoundSeconds
		}
		remaining := float64(roundSeconds) - elapsed.Seconds()
		if remaining < 0 {
			remaining = 0
		}
		bonus := int(math.Round(remaining * BonusFactor))
		d.TimeBonus = bonus
		d.Player += bonus
		d.Group += bonus
	}

	return d
}

// ClampScore floors a score at zero after a delta is applied.
func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
