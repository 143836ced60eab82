package session

import (
	"testing"
	"time"
)

func TestScoreGuess(t *testing.T) {
	tests := []struct {
		name         string
		hit          bool
		completes    bool
		roundSeconds int
		elapsed      time.Duration
		want         ScoreDelta
	}{
		{
			name: "hit",
			hit:  true, completes: false,
			roundSeconds: 90, elapsed: 10 * time.Second,
			want: ScoreDelta{Player: 10, Group: 10},
		},
		{
			name: "miss",
			hit:  false, completes: false,
			roundSeconds: 90, elapsed: 10 * time.Second,
			want: ScoreDelta{Player: -2, Group: -2},
		},
		{
			name: "completing hit halves remaining seconds",
			hit:  true, completes: true,
			roundSeconds: 90, elapsed: 30 * time.Second,
			want: ScoreDelta{Player: 40, Group: 40, TimeBonus: 30},
		},
		{
			name: "completing hit in overtime earns no bonus",
			hit:  true, completes: true,
			roundSeconds: 90, elapsed: 120 * time.Second,
			want: ScoreDelta{Player: 10, Group: 10, TimeBonus: 0},
		},
		{
			name: "bonus rounds to nearest point",
			hit:  true, completes: true,
			roundSeconds: 90, elapsed: 61 * time.Second,
			// 29 seconds left, half is 14.5, rounds to 15.
			want: ScoreDelta{Player: 25, Group: 25, TimeBonus: 15},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreGuess(tt.hit, tt.completes, tt.roundSeconds, tt.elapsed)
			if got != tt.want {
				t.Errorf("ScoreGuess() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{10, 10},
		{0, 0},
		{-1, 0},
		{-100, 0},
	}

	for _, tt := range tests {
		if got := ClampScore(tt.in); got != tt.want {
			t.Errorf("ClampScore(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
