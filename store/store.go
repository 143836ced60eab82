// Package store is the session store adapter: the only layer that touches
// the shared live documents. Implementations may be backed by Redis
// (production) or memory (tests and development).
package store

import (
	"context"
	"errors"

	"ahorcado/session"
)

var (
	// ErrNotFound: no live document for that group code.
	ErrNotFound = errors.New("group not found")
	// ErrConflict: the document changed since the snapshot the write was
	// computed from. Re-read and retry the same logical operation.
	ErrConflict = errors.New("concurrent modification")
)

// GroupStore exposes read-snapshot, conditional-write and subscribe
// operations per group and player document. Writes within one group are
// serialized by the conditional write; different groups are independent.
type GroupStore interface {
	// CreateGroup stores the initial document for a new group.
	CreateGroup(ctx context.Context, g *session.Group) error

	// ReadGroup returns the latest snapshot or ErrNotFound.
	ReadGroup(ctx context.Context, code string) (*session.Group, error)

	// WriteGroup replaces the group document, but only if the stored
	// document's fingerprint still matches expect. Returns ErrConflict
	// otherwise, so a transition computed from a stale snapshot can never
	// silently drop a concurrent guess.
	WriteGroup(ctx context.Context, g *session.Group, expect session.Fingerprint) error

	// SubscribeGroup streams authoritative snapshots after every write.
	// The returned cancel func releases the subscription.
	SubscribeGroup(ctx context.Context, code string) (<-chan session.Group, func(), error)

	// CreatePlayer adds a participant document under a group.
	CreatePlayer(ctx context.Context, code string, p *session.Player) error

	// ReadPlayers returns the group's players ordered by join time.
	ReadPlayers(ctx context.Context, code string) ([]session.Player, error)

	// AddPlayerScore applies an atomic, zero-floored score increment to a
	// player document.
	AddPlayerScore(ctx context.Context, code, playerID string, delta int) error

	// SubscribePlayers streams the full player list after every change.
	SubscribePlayers(ctx context.Context, code string) (<-chan []session.Player, func(), error)
}
