package session

import (
	"testing"
	"time"
)

func TestBuildTurnOrderSortsByJoinTime(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	players := []Player{
		{ID: "c", Name: "Carla", JoinedAt: base.Add(2 * time.Minute)},
		{ID: "a", Name: "Ana", JoinedAt: base},
		{ID: "b", Name: "Beto", JoinedAt: base.Add(time.Minute)},
	}

	order, err := BuildTurnOrder(players)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"a", "b", "c"}
	for i, id := range want {
		if order[i] != id {
			t.Errorf("order[%d] = %q, want %q", i, order[i], id)
		}
	}
}

func TestBuildTurnOrderEmptyRoster(t *testing.T) {
	if _, err := BuildTurnOrder(nil); err != ErrNoPlayers {
		t.Fatalf("got %v, want ErrNoPlayers", err)
	}
}

func TestNextTurn(t *testing.T) {
	order := []string{"a", "b", "c"}

	tests := []struct {
		current int
		want    int
	}{
		{0, 1},
		{1, 2},
		{2, 0},
	}

	for _, tt := range tests {
		if got := NextTurn(order, tt.current); got != tt.want {
			t.Errorf("NextTurn(%d) = %d, want %d", tt.current, got, tt.want)
		}
	}

	if got := NextTurn(nil, 5); got != 0 {
		t.Errorf("NextTurn on empty order = %d, want 0", got)
	}
}
