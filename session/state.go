// Package session implements the shared game document for one group and
// the transition function that a guessed letter applies to it.
package session

import (
	"strings"
	"time"
)

// Group lifecycle states.
const (
	StateWaiting  = "waiting"
	StatePlaying  = "playing"
	StateFinished = "finished"
)

// MaxFails is the number of wrong guesses that loses a round.
const MaxFails = 10

// DefaultRoundSeconds is the round time budget used when an activity does
// not set one.
const DefaultRoundSeconds = 90

// Blank marks an unrevealed position in the progress string.
const Blank = '_'

// Round is one pre-sampled puzzle of a session. The word is stored
// normalized; the list is frozen at game start.
type Round struct {
	Index int    `json:"index"`
	Topic string `json:"topic"`
	Hint  string `json:"hint"`
	Word  string `json:"word"`
}

// Group is the session document shared by every participant of one group.
// All clients read it as an authoritative snapshot and every transition
// produces the next full document.
type Group struct {
	Code       string `json:"code"`
	ActivityID uint   `json:"activity_id"`
	Name       string `json:"name"`
	GroupIndex int    `json:"group_index"`

	// Configuration copied from the activity.
	MaxPlayers   int    `json:"max_players"`
	RoundSeconds int    `json:"round_seconds"`
	NumRounds    int    `json:"num_rounds"`
	BankID       string `json:"bank_id"`

	State string `json:"state"`

	// Round cursor and the frozen round list.
	RoundIndex int     `json:"round_index"`
	Rounds     []Round `json:"rounds,omitempty"`
	Topic      string  `json:"topic"`
	Hint       string  `json:"hint"`
	Answer     string  `json:"answer,omitempty"`

	// Guess state for the current round.
	Progress    string   `json:"progress"`
	UsedLetters []string `json:"used_letters"`
	Fails       int      `json:"fails"`

	// Turn state.
	TurnOrder      []string          `json:"turn_order"`
	TurnIndex      int               `json:"turn_index"`
	TurnPlayerID   string            `json:"turn_player_id"`
	TurnPlayerName string            `json:"turn_player_name"`
	PlayerNames    map[string]string `json:"player_names"`

	Score      int       `json:"score"`
	RoundStart time.Time `json:"round_start"`
}

// Player is the per-participant snapshot held next to the group document.
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// Fingerprint identifies the snapshot a transition was computed from. A
// conditional write compares it against the stored document so that two
// guesses computed from the same snapshot cannot both land.
type Fingerprint struct {
	RoundIndex  int
	TurnIndex   int
	LettersUsed int
	State       string
}

func (g *Group) Fingerprint() Fingerprint {
	return Fingerprint{
		RoundIndex:  g.RoundIndex,
		TurnIndex:   g.TurnIndex,
		LettersUsed: len(g.UsedLetters),
		State:       g.State,
	}
}

// HasUsedLetter reports whether the letter was already guessed this round.
func (g *Group) HasUsedLetter(letter string) bool {
	for _, l := range g.UsedLetters {
		if l == letter {
			return true
		}
	}
	return false
}

// SecondsRemaining estimates the round time left at now. Display only;
// whether expiry ends the round is the caller's policy.
func (g *Group) SecondsRemaining(now time.Time) int {
	if g.State != StatePlaying || g.RoundStart.IsZero() || g.RoundSeconds <= 0 {
		return 0
	}
	remaining := g.RoundSeconds - int(now.Sub(g.RoundStart).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Clone returns a deep copy so a transition never aliases the snapshot it
// read.
func (g *Group) Clone() *Group {
	c := *g
	c.Rounds = append([]Round(nil), g.Rounds...)
	c.UsedLetters = append([]string(nil), g.UsedLetters...)
	c.TurnOrder = append([]string(nil), g.TurnOrder...)
	c.PlayerNames = make(map[string]string, len(g.PlayerNames))
	for id, name := range g.PlayerNames {
		c.PlayerNames[id] = name
	}
	return &c
}

// blankProgress builds the all-blank progress for a word, one mark per
// rune so Ñ counts as a single position.
func blankProgress(word string) string {
	n := len([]rune(word))
	return strings.Repeat(string(Blank), n)
}
