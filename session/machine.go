package session

import (
	"errors"
	"strings"
	"time"

	"ahorcado/packs"
)

// Rejections with no state change. All are safe to retry after the next
// snapshot arrives.
var (
	ErrGameNotActive     = errors.New("group is not playing")
	ErrGroupNotWaiting   = errors.New("group already started")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrInvalidGuess      = errors.New("guess must be a single letter")
	ErrLetterAlreadyUsed = errors.New("letter already used")
)

// Preconditions that block a game from starting.
var (
	ErrInsufficientPlayers = errors.New("at least two players required")
	ErrNoContent           = errors.New("content bank yielded no rounds")
)

// MinPlayers is the roster size needed to start a game.
const MinPlayers = 2

// TransitionKind says what a successful guess did to the session. Every
// consumer must handle every case.
type TransitionKind int

const (
	// InPlaceUpdate: same round, board and turn updated.
	InPlaceUpdate TransitionKind = iota
	// RoundAdvance: the round ended and the next one was loaded.
	RoundAdvance
	// GameFinished: the last round ended; the group is terminal.
	GameFinished
)

func (k TransitionKind) String() string {
	switch k {
	case RoundAdvance:
		return "round_advance"
	case GameFinished:
		return "game_finished"
	default:
		return "in_place_update"
	}
}

// GuessResult is the full outcome of one accepted guess: the next group
// document plus everything the UI needs to narrate it.
type GuessResult struct {
	Kind          TransitionKind
	Group         *Group
	Letter        string
	Hit           bool
	WordCompleted bool
	RoundLost     bool
	Delta         ScoreDelta
}

// NormalizeGuess canonicalizes a raw guess and enforces the single-letter
// rule of the game alphabet (A-Z plus Ñ).
func NormalizeGuess(raw string) (string, error) {
	normalized := packs.NormalizeWord(strings.TrimSpace(raw))
	runes := []rune(normalized)
	if len(runes) != 1 || !packs.IsGameLetter(runes[0]) {
		return "", ErrInvalidGuess
	}
	return string(runes[0]), nil
}

// Start freezes the session for play: turn order from the roster, the
// pre-sampled round list, round cursor at zero, blank progress for the
// first word. The snapshot passed in is not mutated.
func Start(snapshot *Group, players []Player, rounds []Round, now time.Time) (*Group, error) {
	if snapshot.State != StateWaiting {
		return nil, ErrGroupNotWaiting
	}
	if len(players) < MinPlayers {
		return nil, ErrInsufficientPlayers
	}
	if len(rounds) == 0 {
		return nil, ErrNoContent
	}

	order, err := BuildTurnOrder(players)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}

	g := snapshot.Clone()
	g.State = StatePlaying
	g.Rounds = make([]Round, len(rounds))
	for i, r := range rounds {
		g.Rounds[i] = Round{Index: i, Topic: r.Topic, Hint: r.Hint, Word: packs.NormalizeWord(r.Word)}
	}
	g.NumRounds = len(g.Rounds)
	g.TurnOrder = order
	g.TurnIndex = 0
	g.TurnPlayerID = order[0]
	g.TurnPlayerName = names[order[0]]
	g.PlayerNames = names

	loadRound(g, 0, now)
	return g, nil
}

// ApplyGuess is the central transition: it validates the guess against
// the snapshot, reveals letters, scores, rotates the turn and decides the
// round/game transition. It is pure given the snapshot and clock; the
// caller persists the returned document conditionally on the snapshot's
// fingerprint.
func ApplyGuess(snapshot *Group, playerID, rawLetter string, now time.Time) (*GuessResult, error) {
	if snapshot.State != StatePlaying {
		return nil, ErrGameNotActive
	}
	if snapshot.TurnPlayerID != "" && snapshot.TurnPlayerID != playerID {
		return nil, ErrNotYourTurn
	}

	letter, err := NormalizeGuess(rawLetter)
	if err != nil {
		return nil, err
	}
	if snapshot.HasUsedLetter(letter) {
		return nil, ErrLetterAlreadyUsed
	}

	g := snapshot.Clone()
	g.UsedLetters = append(g.UsedLetters, letter)

	// Reveal every position whose answer rune matches the letter.
	answer := []rune(g.Answer)
	progress := []rune(g.Progress)
	guessed := []rune(letter)[0]
	hit := false
	for i, r := range answer {
		if r == guessed {
			progress[i] = r
			hit = true
		}
	}
	g.Progress = string(progress)

	if !hit {
		g.Fails++
		if g.Fails > MaxFails {
			g.Fails = MaxFails
		}
	}

	completed := g.Progress == g.Answer
	roundLost := !hit && g.Fails >= MaxFails

	delta := ScoreGuess(hit, completed, g.RoundSeconds, now.Sub(g.RoundStart))
	g.Score = ClampScore(g.Score + delta.Group)

	advanceTurn(g)

	result := &GuessResult{
		Kind:          InPlaceUpdate,
		Group:         g,
		Letter:        letter,
		Hit:           hit,
		WordCompleted: completed,
		RoundLost:     roundLost,
		Delta:         delta,
	}

	if completed || roundLost {
		result.Kind = endRound(g, now)
	}
	return result, nil
}

// ExpireRound ends the current round as a loss because its time budget
// ran out. Only used when the server-side round timer is enforced; no
// score delta, no turn consumed.
func ExpireRound(snapshot *Group, now time.Time) (*GuessResult, error) {
	if snapshot.State != StatePlaying {
		return nil, ErrGameNotActive
	}

	g := snapshot.Clone()
	result := &GuessResult{
		Group:     g,
		RoundLost: true,
	}
	result.Kind = endRound(g, now)
	return result, nil
}

// endRound advances the round cursor or finishes the game when the ended
// round was the last one. Returns the transition kind.
func endRound(g *Group, now time.Time) TransitionKind {
	if g.RoundIndex >= len(g.Rounds)-1 {
		g.State = StateFinished
		return GameFinished
	}
	loadRound(g, g.RoundIndex+1, now)
	return RoundAdvance
}

// loadRound points the document at a pre-sampled round and resets the
// per-round guess state.
func loadRound(g *Group, index int, now time.Time) {
	round := g.Rounds[index]
	g.RoundIndex = index
	g.Topic = round.Topic
	g.Hint = round.Hint
	g.Answer = round.Word
	g.Progress = blankProgress(round.Word)
	g.UsedLetters = []string{}
	g.Fails = 0
	g.RoundStart = now
}

func advanceTurn(g *Group) {
	g.TurnIndex = NextTurn(g.TurnOrder, g.TurnIndex)
	if len(g.TurnOrder) > 0 {
		g.TurnPlayerID = g.TurnOrder[g.TurnIndex]
		g.TurnPlayerName = g.PlayerNames[g.TurnPlayerID]
	}
}
