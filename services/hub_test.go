package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"ahorcado/session"
	"ahorcado/store"
)

// flakyStore fails a configured number of group subscriptions before
// delegating to the real store.
type flakyStore struct {
	store.GroupStore
	failSubscribes int
}

func (f *flakyStore) SubscribeGroup(ctx context.Context, code string) (<-chan session.Group, func(), error) {
	if f.failSubscribes > 0 {
		f.failSubscribes--
		return nil, nil, errors.New("subscribe unavailable")
	}
	return f.GroupStore.SubscribeGroup(ctx, code)
}

func feedClients(h *Hub, code string) int {
	h.feedMutex.Lock()
	defer h.feedMutex.Unlock()
	if feed, ok := h.feeds[code]; ok {
		return feed.clients
	}
	return 0
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitUnregistered(t *testing.T, client *Client) {
	t.Helper()
	waitFor(t, "client unregistration", func() bool {
		select {
		case _, open := <-client.send:
			return !open
		default:
			return false
		}
	})
}

func testClient(h *Hub, id, groupCode string) *Client {
	return &Client{
		hub:       h,
		id:        id,
		send:      make(chan []byte, 1),
		groupCode: groupCode,
	}
}

func TestHubFeedSurvivesFailedSubscription(t *testing.T) {
	st := &flakyStore{GroupStore: store.NewMemoryStore(), failSubscribes: 1}
	hub := NewHub(NewGameService(nil, st, false), st)
	go hub.Run()

	// The first client hits the subscription failure: no feed exists and
	// the client holds no reference.
	first := testClient(hub, "c1", "ABC123")
	hub.register <- first
	second := testClient(hub, "c2", "ABC123")
	hub.register <- second

	waitFor(t, "second client's feed", func() bool { return feedClients(hub, "ABC123") == 1 })

	// The failed client disconnecting must not release the reference the
	// second client holds.
	hub.unregister <- first
	waitUnregistered(t, first)
	if got := feedClients(hub, "ABC123"); got != 1 {
		t.Errorf("feed clients after failed client left = %d, want 1", got)
	}

	hub.unregister <- second
	waitUnregistered(t, second)
	waitFor(t, "feed teardown", func() bool { return feedClients(hub, "ABC123") == 0 })
}

func TestHubFeedRefcount(t *testing.T) {
	st := store.NewMemoryStore()
	hub := NewHub(NewGameService(nil, st, false), st)
	go hub.Run()

	first := testClient(hub, "c1", "ABC123")
	second := testClient(hub, "c2", "ABC123")
	hub.register <- first
	hub.register <- second
	waitFor(t, "two feed references", func() bool { return feedClients(hub, "ABC123") == 2 })

	hub.unregister <- first
	waitUnregistered(t, first)
	if got := feedClients(hub, "ABC123"); got != 1 {
		t.Errorf("feed clients = %d, want 1 while a client is connected", got)
	}

	hub.unregister <- second
	waitUnregistered(t, second)
	waitFor(t, "feed teardown", func() bool { return feedClients(hub, "ABC123") == 0 })
}
