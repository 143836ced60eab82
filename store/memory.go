package store

import (
	"context"
	"sort"
	"sync"

	"ahorcado/session"
)

// Memory is a map-based GroupStore for tests and single-process use.
// Snapshot channels carry deep copies, so subscribers never observe
// partial state.
type Memory struct {
	mu          sync.RWMutex
	groups      map[string]*session.Group
	players     map[string][]session.Player
	groupSubs   map[string][]chan session.Group
	playersSubs map[string][]chan []session.Player
}

func NewMemoryStore() *Memory {
	return &Memory{
		groups:      make(map[string]*session.Group),
		players:     make(map[string][]session.Player),
		groupSubs:   make(map[string][]chan session.Group),
		playersSubs: make(map[string][]chan []session.Player),
	}
}

func (m *Memory) CreateGroup(ctx context.Context, g *session.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[g.Code] = g.Clone()
	return nil
}

func (m *Memory) ReadGroup(ctx context.Context, code string) (*session.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[code]
	if !ok {
		return nil, ErrNotFound
	}
	return g.Clone(), nil
}

func (m *Memory) WriteGroup(ctx context.Context, g *session.Group, expect session.Fingerprint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.groups[g.Code]
	if !ok {
		return ErrNotFound
	}
	if current.Fingerprint() != expect {
		return ErrConflict
	}

	stored := g.Clone()
	m.groups[g.Code] = stored
	for _, ch := range m.groupSubs[g.Code] {
		select {
		case ch <- *stored.Clone():
		default:
		}
	}
	return nil
}

func (m *Memory) SubscribeGroup(ctx context.Context, code string) (<-chan session.Group, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan session.Group, 16)
	m.groupSubs[code] = append(m.groupSubs[code], ch)

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		subs := m.groupSubs[code]
		for i, sub := range subs {
			if sub == ch {
				m.groupSubs[code] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
	}
	return ch, cancel, nil
}

func (m *Memory) CreatePlayer(ctx context.Context, code string, p *session.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[code] = append(m.players[code], *p)
	m.notifyPlayersLocked(code)
	return nil
}

func (m *Memory) ReadPlayers(ctx context.Context, code string) ([]session.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.playersLocked(code), nil
}

func (m *Memory) AddPlayerScore(ctx context.Context, code, playerID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	players := m.players[code]
	for i := range players {
		if players[i].ID == playerID {
			players[i].Score = session.ClampScore(players[i].Score + delta)
			m.notifyPlayersLocked(code)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) SubscribePlayers(ctx context.Context, code string) (<-chan []session.Player, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan []session.Player, 16)
	m.playersSubs[code] = append(m.playersSubs[code], ch)

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		subs := m.playersSubs[code]
		for i, sub := range subs {
			if sub == ch {
				m.playersSubs[code] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
	}
	return ch, cancel, nil
}

// playersLocked returns a copy ordered by join time. Callers hold m.mu.
func (m *Memory) playersLocked(code string) []session.Player {
	players := append([]session.Player(nil), m.players[code]...)
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
	return players
}

func (m *Memory) notifyPlayersLocked(code string) {
	snapshot := m.playersLocked(code)
	for _, ch := range m.playersSubs[code] {
		select {
		case ch <- snapshot:
		default:
		}
	}
}
