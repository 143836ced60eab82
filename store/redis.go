package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"ahorcado/session"
)

// sessionTTL keeps live documents around long enough for a school
// session; durable results live in Postgres.
const sessionTTL = 12 * time.Hour

// casAttempts bounds the optimistic retry loop for player score updates.
const casAttempts = 5

// RedisStore keeps each group's live document as JSON under
// "group:<code>" and its players in a hash, and publishes every write on
// a per-group channel so subscribers receive authoritative snapshots.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func groupKey(code string) string       { return "group:" + code }
func playersKey(code string) string     { return "group:" + code + ":players" }
func groupChannel(code string) string   { return "group:" + code + ":events" }
func playersChannel(code string) string { return "group:" + code + ":players:events" }

func (s *RedisStore) CreateGroup(ctx context.Context, g *session.Group) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal group %s: %w", g.Code, err)
	}
	if err := s.client.Set(ctx, groupKey(g.Code), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("store group %s: %w", g.Code, err)
	}
	return nil
}

func (s *RedisStore) ReadGroup(ctx context.Context, code string) (*session.Group, error) {
	data, err := s.client.Get(ctx, groupKey(code)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read group %s: %w", code, err)
	}

	var g session.Group
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return nil, fmt.Errorf("unmarshal group %s: %w", code, err)
	}
	return &g, nil
}

// WriteGroup is the hardened read-version write: WATCH the group key,
// compare the stored fingerprint against the one the transition was
// computed from, and replace + publish inside a MULTI/EXEC. A concurrent
// writer either trips the fingerprint check or aborts the EXEC; both
// surface as ErrConflict.
func (s *RedisStore) WriteGroup(ctx context.Context, g *session.Group, expect session.Fingerprint) error {
	key := groupKey(g.Code)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var current session.Group
		if err := json.Unmarshal([]byte(data), &current); err != nil {
			return fmt.Errorf("unmarshal group %s: %w", g.Code, err)
		}
		if current.Fingerprint() != expect {
			return ErrConflict
		}

		payload, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("marshal group %s: %w", g.Code, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, sessionTTL)
			pipe.Publish(ctx, groupChannel(g.Code), string(payload))
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	return err
}

func (s *RedisStore) SubscribeGroup(ctx context.Context, code string) (<-chan session.Group, func(), error) {
	pubsub := s.client.Subscribe(ctx, groupChannel(code))
	out := make(chan session.Group, 16)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var g session.Group
			if err := json.Unmarshal([]byte(msg.Payload), &g); err != nil {
				log.Printf("Dropping malformed group event for %s: %v", code, err)
				continue
			}
			select {
			case out <- g:
			default:
				// Slow subscriber; it will catch up on the next snapshot.
			}
		}
	}()

	cancel := func() { pubsub.Close() }
	return out, cancel, nil
}

func (s *RedisStore) CreatePlayer(ctx context.Context, code string, p *session.Player) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal player %s: %w", p.ID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, playersKey(code), p.ID, data)
	pipe.Expire(ctx, playersKey(code), sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store player %s in group %s: %w", p.ID, code, err)
	}
	return s.publishPlayers(ctx, code)
}

func (s *RedisStore) ReadPlayers(ctx context.Context, code string) ([]session.Player, error) {
	entries, err := s.client.HGetAll(ctx, playersKey(code)).Result()
	if err != nil {
		return nil, fmt.Errorf("read players of group %s: %w", code, err)
	}

	players := make([]session.Player, 0, len(entries))
	for id, raw := range entries {
		var p session.Player
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			log.Printf("Skipping malformed player %s in group %s: %v", id, code, err)
			continue
		}
		players = append(players, p)
	}
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
	return players, nil
}

// AddPlayerScore applies a zero-floored increment to one player document
// under WATCH, retrying on interleaved writers.
func (s *RedisStore) AddPlayerScore(ctx context.Context, code, playerID string, delta int) error {
	key := playersKey(code)

	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, playerID).Result()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var p session.Player
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return fmt.Errorf("unmarshal player %s: %w", playerID, err)
		}
		p.Score = session.ClampScore(p.Score + delta)

		payload, err := json.Marshal(&p)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, playerID, payload)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < casAttempts; i++ {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("update score of player %s in group %s: %w", playerID, code, err)
	}
	return s.publishPlayers(ctx, code)
}

func (s *RedisStore) SubscribePlayers(ctx context.Context, code string) (<-chan []session.Player, func(), error) {
	pubsub := s.client.Subscribe(ctx, playersChannel(code))
	out := make(chan []session.Player, 16)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var players []session.Player
			if err := json.Unmarshal([]byte(msg.Payload), &players); err != nil {
				log.Printf("Dropping malformed players event for %s: %v", code, err)
				continue
			}
			select {
			case out <- players:
			default:
			}
		}
	}()

	cancel := func() { pubsub.Close() }
	return out, cancel, nil
}

func (s *RedisStore) publishPlayers(ctx context.Context, code string) error {
	players, err := s.ReadPlayers(ctx, code)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(players)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, playersChannel(code), string(payload)).Err(); err != nil {
		return fmt.Errorf("publish players of group %s: %w", code, err)
	}
	return nil
}
