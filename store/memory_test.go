package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"ahorcado/session"
)

func testGroup() *session.Group {
	return &session.Group{
		Code:         "ABC123",
		Name:         "Grupo A",
		State:        session.StateWaiting,
		RoundSeconds: 90,
		UsedLetters:  []string{},
		PlayerNames:  map[string]string{},
	}
}

func TestMemoryReadGroup(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	if _, err := m.ReadGroup(ctx, "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadGroup(missing) error = %v, want ErrNotFound", err)
	}

	g := testGroup()
	if err := m.CreateGroup(ctx, g); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	got, err := m.ReadGroup(ctx, "ABC123")
	if err != nil {
		t.Fatalf("ReadGroup() error = %v", err)
	}
	if got.Name != "Grupo A" {
		t.Errorf("Name = %q, want Grupo A", got.Name)
	}

	// Reads are copies: mutating one must not leak into the store.
	got.Name = "mutated"
	again, _ := m.ReadGroup(ctx, "ABC123")
	if again.Name != "Grupo A" {
		t.Error("ReadGroup returned an aliased document")
	}
}

func TestMemoryWriteGroupConditional(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	if err := m.CreateGroup(ctx, testGroup()); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	// Two writers compute transitions from the same snapshot: only the
	// first lands, the second sees a conflict.
	snap, err := m.ReadGroup(ctx, "ABC123")
	if err != nil {
		t.Fatalf("ReadGroup() error = %v", err)
	}
	expect := snap.Fingerprint()

	first := snap.Clone()
	first.UsedLetters = append(first.UsedLetters, "A")
	if err := m.WriteGroup(ctx, first, expect); err != nil {
		t.Fatalf("first WriteGroup() error = %v", err)
	}

	second := snap.Clone()
	second.UsedLetters = append(second.UsedLetters, "B")
	if err := m.WriteGroup(ctx, second, expect); !errors.Is(err, ErrConflict) {
		t.Errorf("second WriteGroup() error = %v, want ErrConflict", err)
	}

	// The winner's transition is the stored one.
	got, _ := m.ReadGroup(ctx, "ABC123")
	if len(got.UsedLetters) != 1 || got.UsedLetters[0] != "A" {
		t.Errorf("UsedLetters = %v, want [A]", got.UsedLetters)
	}

	if err := m.WriteGroup(ctx, testGroup(), session.Fingerprint{}); err == nil {
		t.Error("WriteGroup with stale fingerprint succeeded, want ErrConflict")
	}

	missing := testGroup()
	missing.Code = "NOPE"
	if err := m.WriteGroup(ctx, missing, session.Fingerprint{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("WriteGroup(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemorySubscribeGroup(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	if err := m.CreateGroup(ctx, testGroup()); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	ch, cancel, err := m.SubscribeGroup(ctx, "ABC123")
	if err != nil {
		t.Fatalf("SubscribeGroup() error = %v", err)
	}
	defer cancel()

	snap, _ := m.ReadGroup(ctx, "ABC123")
	next := snap.Clone()
	next.State = session.StatePlaying
	if err := m.WriteGroup(ctx, next, snap.Fingerprint()); err != nil {
		t.Fatalf("WriteGroup() error = %v", err)
	}

	select {
	case got := <-ch:
		if got.State != session.StatePlaying {
			t.Errorf("subscribed State = %q, want %q", got.State, session.StatePlaying)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered after write")
	}
}

func TestMemorySubscribeGroupCancel(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	if err := m.CreateGroup(ctx, testGroup()); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	ch, cancel, err := m.SubscribeGroup(ctx, "ABC123")
	if err != nil {
		t.Fatalf("SubscribeGroup() error = %v", err)
	}
	cancel()

	if _, open := <-ch; open {
		t.Error("channel still open after cancel")
	}
}

func TestMemoryPlayers(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	base := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	// Inserted out of join order on purpose.
	players := []session.Player{
		{ID: "p2", Name: "Lucía", JoinedAt: base.Add(2 * time.Second)},
		{ID: "p1", Name: "Mateo", JoinedAt: base},
		{ID: "p3", Name: "Valentina", JoinedAt: base.Add(5 * time.Second)},
	}
	for i := range players {
		if err := m.CreatePlayer(ctx, "ABC123", &players[i]); err != nil {
			t.Fatalf("CreatePlayer() error = %v", err)
		}
	}

	got, err := m.ReadPlayers(ctx, "ABC123")
	if err != nil {
		t.Fatalf("ReadPlayers() error = %v", err)
	}
	want := []string{"p1", "p2", "p3"}
	if len(got) != len(want) {
		t.Fatalf("len(players) = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("players order = %v, want join order %v", got, want)
		}
	}
}

func TestMemoryAddPlayerScore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	p := session.Player{ID: "p1", Name: "Mateo", JoinedAt: time.Now()}
	if err := m.CreatePlayer(ctx, "ABC123", &p); err != nil {
		t.Fatalf("CreatePlayer() error = %v", err)
	}

	steps := []struct {
		delta int
		want  int
	}{
		{10, 10},
		{-2, 8},
		{-20, 0}, // floored at zero
		{10, 10},
	}
	for _, step := range steps {
		if err := m.AddPlayerScore(ctx, "ABC123", "p1", step.delta); err != nil {
			t.Fatalf("AddPlayerScore(%d) error = %v", step.delta, err)
		}
		got, _ := m.ReadPlayers(ctx, "ABC123")
		if got[0].Score != step.want {
			t.Errorf("after delta %d: Score = %d, want %d", step.delta, got[0].Score, step.want)
		}
	}

	if err := m.AddPlayerScore(ctx, "ABC123", "nope", 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddPlayerScore(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestMemorySubscribePlayers(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	ch, cancel, err := m.SubscribePlayers(ctx, "ABC123")
	if err != nil {
		t.Fatalf("SubscribePlayers() error = %v", err)
	}
	defer cancel()

	p := session.Player{ID: "p1", Name: "Mateo", JoinedAt: time.Now()}
	if err := m.CreatePlayer(ctx, "ABC123", &p); err != nil {
		t.Fatalf("CreatePlayer() error = %v", err)
	}

	select {
	case roster := <-ch:
		if len(roster) != 1 || roster[0].ID != "p1" {
			t.Errorf("roster = %v, want [p1]", roster)
		}
	case <-time.After(time.Second):
		t.Fatal("no roster delivered after join")
	}
}
