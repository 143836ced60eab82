package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"ahorcado/models"
	"ahorcado/packs"
	"ahorcado/session"
	"ahorcado/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrGroupNotFound    = errors.New("group not found")
	ErrGroupNotJoinable = errors.New("group is not accepting players")
	ErrGroupFull        = errors.New("group is full")
	ErrNameTaken        = errors.New("player name already taken")
	ErrNotGroupOwner    = errors.New("unauthorized to control this group")
)

// guessAttempts bounds how often a guess is recomputed against a fresh
// snapshot after a concurrent write.
const guessAttempts = 3

type GameService struct {
	db           *gorm.DB
	store        store.GroupStore
	enforceTimer bool
}

func NewGameService(db *gorm.DB, groupStore store.GroupStore, enforceTimer bool) *GameService {
	return &GameService{
		db:           db,
		store:        groupStore,
		enforceTimer: enforceTimer,
	}
}

type JoinGroupRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type GuessRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Letter   string `json:"letter" binding:"required"`
}

// GuessOutcome is the accepted-guess response shape. Rejections never
// reach it; they surface as errors with no state change.
type GuessOutcome struct {
	Accepted      bool               `json:"accepted"`
	Letter        string             `json:"letter"`
	Hit           bool               `json:"hit"`
	WordCompleted bool               `json:"word_completed"`
	RoundEnded    bool               `json:"round_ended"`
	RoundLost     bool               `json:"round_lost"`
	GameFinished  bool               `json:"game_finished"`
	Transition    string             `json:"transition"`
	ScoreDeltas   session.ScoreDelta `json:"score_deltas"`
	Group         *GroupView         `json:"group"`
}

// GroupView is the read-only projection sent to clients. The answer
// never leaves the server while the group is still playing.
type GroupView struct {
	Code           string           `json:"code"`
	Name           string           `json:"name"`
	State          string           `json:"state"`
	RoundIndex     int              `json:"round_index"`
	NumRounds      int              `json:"num_rounds"`
	Topic          string           `json:"topic"`
	Hint           string           `json:"hint"`
	Progress       string           `json:"progress"`
	UsedLetters    []string         `json:"used_letters"`
	Fails          int              `json:"fails"`
	MaxFails       int              `json:"max_fails"`
	TurnPlayerID   string           `json:"turn_player_id"`
	TurnPlayerName string           `json:"turn_player_name"`
	Score          int              `json:"score"`
	RoundSeconds   int              `json:"round_seconds"`
	SecondsLeft    int              `json:"seconds_left"`
	Answer         string           `json:"answer,omitempty"`
	Players        []session.Player `json:"players"`
}

// NormalizeCode canonicalizes a human-entered group code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// JoinGroup attaches a student to a waiting group. Rosters freeze at game
// start, so joining a playing or finished group is rejected.
func (s *GameService) JoinGroup(req *JoinGroupRequest) (*models.Player, error) {
	code := NormalizeCode(req.Code)

	var player models.Player
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Lock the group row so simultaneous joins serialize on the
		// roster checks instead of racing past them.
		var group models.Group
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ?", code).First(&group).Error; err != nil {
			return ErrGroupNotFound
		}
		if group.Status != session.StateWaiting {
			return ErrGroupNotJoinable
		}

		var activity models.Activity
		if err := tx.First(&activity, group.ActivityID).Error; err != nil {
			return ErrActivityNotFound
		}

		var roster []models.Player
		if err := tx.Where("group_id = ?", group.ID).Find(&roster).Error; err != nil {
			return err
		}
		if err := validateJoin(roster, req.Name, activity.MaxPlayers); err != nil {
			return err
		}

		player = models.Player{
			ID:       uuid.NewString(),
			GroupID:  group.ID,
			Name:     req.Name,
			Score:    0,
			JoinedAt: time.Now(),
		}
		return tx.Create(&player).Error
	})
	if err != nil {
		return nil, err
	}

	doc := &session.Player{
		ID:       player.ID,
		Name:     player.Name,
		Score:    0,
		JoinedAt: player.JoinedAt,
	}
	if err := s.store.CreatePlayer(context.Background(), code, doc); err != nil {
		log.Printf("Failed to store player %s for group %s: %v", player.ID, code, err)
	}

	return &player, nil
}

// validateJoin enforces the roster rules for one join attempt. Callers
// hold the group row lock.
func validateJoin(roster []models.Player, name string, maxPlayers int) error {
	for _, p := range roster {
		if p.Name == name {
			return ErrNameTaken
		}
	}
	if maxPlayers > 0 && len(roster) >= maxPlayers {
		return ErrGroupFull
	}
	return nil
}

// StartGame freezes the roster and round list of one group and moves it
// to playing. Moderator-only; groups of the same activity start
// independently.
func (s *GameService) StartGame(userID uint, groupCode string, hub *Hub) (*GroupView, error) {
	code := NormalizeCode(groupCode)
	ctx := context.Background()

	group, activity, err := s.groupWithActivity(code)
	if err != nil {
		return nil, err
	}
	if activity.UserID != userID {
		return nil, ErrNotGroupOwner
	}
	if activity.Status != "active" {
		return nil, ErrActivityFinished
	}

	snapshot, err := s.liveGroup(ctx, code, group, activity)
	if err != nil {
		return nil, err
	}

	players, err := s.roster(ctx, code, group.ID)
	if err != nil {
		return nil, err
	}

	entries, err := packs.Sample(activity.BankID, activity.NumRounds)
	if err != nil {
		return nil, err
	}
	rounds := make([]session.Round, len(entries))
	for i, e := range entries {
		rounds[i] = session.Round{Index: i, Topic: e.Topic, Hint: e.Hint, Word: e.Word}
	}

	started, err := session.Start(snapshot, players, rounds, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.store.WriteGroup(ctx, started, snapshot.Fingerprint()); err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Group{}).Where("code = ?", code).
		Update("status", session.StatePlaying).Error; err != nil {
		log.Printf("Failed to persist playing status for group %s: %v", code, err)
	}

	view := s.buildView(started, players)
	if hub != nil {
		hub.BroadcastToGroup(code, "game_started", view)
		go s.runRoundTimer(code, started.RoundIndex, hub)
	}

	log.Printf("Game started for group %s: %d players, %d rounds", code, len(players), len(rounds))
	return view, nil
}

// ApplyGuess runs the guess transition against the freshest snapshot and
// persists it with a conditional write. A concurrent write means the
// snapshot was stale; the guess is recomputed against the new one, so the
// turn check re-validates and no update is ever silently lost.
func (s *GameService) ApplyGuess(groupCode, playerID, rawLetter string, hub *Hub) (*GuessOutcome, error) {
	code := NormalizeCode(groupCode)
	ctx := context.Background()

	var result *session.GuessResult
	var err error
	for attempt := 0; attempt < guessAttempts; attempt++ {
		var snapshot *session.Group
		snapshot, err = s.store.ReadGroup(ctx, code)
		if err != nil {
			return nil, err
		}

		result, err = session.ApplyGuess(snapshot, playerID, rawLetter, time.Now())
		if err != nil {
			return nil, err
		}

		err = s.store.WriteGroup(ctx, result.Group, snapshot.Fingerprint())
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, err
		}
		log.Printf("Concurrent write on group %s, retrying guess of player %s", code, playerID)
	}
	if err != nil {
		return nil, err
	}

	s.applyScoreEffects(ctx, code, playerID, result)
	s.persistTransition(code, result)

	players, readErr := s.store.ReadPlayers(ctx, code)
	if readErr != nil {
		log.Printf("Failed to read players of group %s after guess: %v", code, readErr)
	}

	outcome := &GuessOutcome{
		Accepted:      true,
		Letter:        result.Letter,
		Hit:           result.Hit,
		WordCompleted: result.WordCompleted,
		RoundEnded:    result.Kind != session.InPlaceUpdate,
		RoundLost:     result.RoundLost,
		GameFinished:  result.Kind == session.GameFinished,
		Transition:    result.Kind.String(),
		ScoreDeltas:   result.Delta,
		Group:         s.buildView(result.Group, players),
	}

	if hub != nil {
		hub.BroadcastToGroup(code, "guess_result", outcome)
		switch result.Kind {
		case session.RoundAdvance:
			go s.runRoundTimer(code, result.Group.RoundIndex, hub)
		case session.GameFinished:
			hub.BroadcastToGroup(code, "game_end", outcome.Group)
		}
	}

	return outcome, nil
}

// GetGroupView returns the current projection for one group.
func (s *GameService) GetGroupView(groupCode string) (*GroupView, error) {
	code := NormalizeCode(groupCode)
	ctx := context.Background()

	snapshot, err := s.store.ReadGroup(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		// Live document expired or was flushed; rebuild from the rows.
		group, activity, gerr := s.groupWithActivity(code)
		if gerr != nil {
			return nil, gerr
		}
		snapshot, err = s.liveGroup(ctx, code, group, activity)
	}
	if err != nil {
		return nil, err
	}

	players, err := s.store.ReadPlayers(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.buildView(snapshot, players), nil
}

// ProjectGroup redacts a raw snapshot into the client projection, without
// the player list.
func (s *GameService) ProjectGroup(g *session.Group) *GroupView {
	return s.buildView(g, nil)
}

// GetPlayerByID retrieves a player record, used to resolve display names
// for websocket clients.
func (s *GameService) GetPlayerByID(playerID string) (*models.Player, error) {
	var player models.Player
	err := s.db.First(&player, "id = ?", playerID).Error
	return &player, err
}

// GroupHasPlayer reports whether the player belongs to the group, or is
// the moderator of its activity.
func (s *GameService) GroupHasPlayer(groupCode, playerID string) bool {
	code := NormalizeCode(groupCode)
	group, activity, err := s.groupWithActivity(code)
	if err != nil {
		return false
	}

	var count int64
	s.db.Model(&models.Player{}).Where("group_id = ? AND id = ?", group.ID, playerID).Count(&count)
	if count > 0 {
		return true
	}

	// The moderator connects with "moderator:<userID>".
	return playerID == moderatorClientID(activity.UserID)
}

// expireRound ends a round whose time budget ran out. Only called by the
// round timer when enforcement is on. roundIndex guards against a stale
// timer firing after the round already advanced.
func (s *GameService) expireRound(groupCode string, roundIndex int, hub *Hub) {
	code := NormalizeCode(groupCode)
	ctx := context.Background()

	for attempt := 0; attempt < guessAttempts; attempt++ {
		snapshot, err := s.store.ReadGroup(ctx, code)
		if err != nil {
			log.Printf("Failed to read group %s for round expiry: %v", code, err)
			return
		}
		if snapshot.State != session.StatePlaying || snapshot.RoundIndex != roundIndex {
			return
		}

		result, err := session.ExpireRound(snapshot, time.Now())
		if err != nil {
			return
		}

		err = s.store.WriteGroup(ctx, result.Group, snapshot.Fingerprint())
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			log.Printf("Failed to expire round %d of group %s: %v", roundIndex, code, err)
			return
		}

		s.persistTransition(code, result)
		log.Printf("Round %d of group %s expired", roundIndex, code)

		if hub != nil {
			players, _ := s.store.ReadPlayers(ctx, code)
			view := s.buildView(result.Group, players)
			hub.BroadcastToGroup(code, "round_expired", view)
			switch result.Kind {
			case session.RoundAdvance:
				go s.runRoundTimer(code, result.Group.RoundIndex, hub)
			case session.GameFinished:
				hub.BroadcastToGroup(code, "game_end", view)
			}
		}
		return
	}
}

// runRoundTimer broadcasts the countdown for one round every second. It
// exits as soon as the group leaves the round it was started for. On
// expiry it either ends the round (enforcement on) or goes quiet and
// leaves the round open (display-only, the default).
func (s *GameService) runRoundTimer(groupCode string, roundIndex int, hub *Hub) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	code := NormalizeCode(groupCode)
	ctx := context.Background()
	log.Printf("Starting round timer for group %s round %d", code, roundIndex)

	for range ticker.C {
		snapshot, err := s.store.ReadGroup(ctx, code)
		if err != nil {
			return
		}
		if snapshot.State != session.StatePlaying || snapshot.RoundIndex != roundIndex {
			return
		}

		left := snapshot.SecondsRemaining(time.Now())
		hub.BroadcastToGroup(code, "timer_update", map[string]interface{}{
			"round_index": roundIndex,
			"time_left":   left,
		})

		if left <= 0 {
			if s.enforceTimer {
				s.expireRound(code, roundIndex, hub)
			}
			return
		}
	}
}

// applyScoreEffects mirrors the guess's score deltas onto the player
// documents and rows. The group document already carries its new score;
// player scores use atomic zero-floored increments so no write is ever
// based on a remembered value.
func (s *GameService) applyScoreEffects(ctx context.Context, code, playerID string, result *session.GuessResult) {
	if result.Delta.Player == 0 {
		return
	}

	if err := s.store.AddPlayerScore(ctx, code, playerID, result.Delta.Player); err != nil {
		log.Printf("Failed to update live score of player %s in group %s: %v", playerID, code, err)
	}

	if err := s.db.Model(&models.Player{}).Where("id = ?", playerID).
		Update("score", gorm.Expr("GREATEST(score + ?, 0)", result.Delta.Player)).Error; err != nil {
		log.Printf("Failed to update durable score of player %s: %v", playerID, err)
	}
}

// persistTransition mirrors the document's score and lifecycle state onto
// the durable group row.
func (s *GameService) persistTransition(code string, result *session.GuessResult) {
	updates := map[string]interface{}{
		"score": result.Group.Score,
	}
	if result.Kind == session.GameFinished {
		updates["status"] = session.StateFinished
	}
	if err := s.db.Model(&models.Group{}).Where("code = ?", code).
		Updates(updates).Error; err != nil {
		log.Printf("Failed to persist transition for group %s: %v", code, err)
	}
}

func (s *GameService) groupWithActivity(code string) (*models.Group, *models.Activity, error) {
	var group models.Group
	if err := s.db.Where("code = ?", code).First(&group).Error; err != nil {
		return nil, nil, ErrGroupNotFound
	}
	var activity models.Activity
	if err := s.db.First(&activity, group.ActivityID).Error; err != nil {
		return nil, nil, ErrActivityNotFound
	}
	return &group, &activity, nil
}

// liveGroup reads the live document, recreating it from the durable rows
// when the store lost it.
func (s *GameService) liveGroup(ctx context.Context, code string, group *models.Group, activity *models.Activity) (*session.Group, error) {
	snapshot, err := s.store.ReadGroup(ctx, code)
	if err == nil {
		return snapshot, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	doc := &session.Group{
		Code:         code,
		ActivityID:   activity.ID,
		Name:         group.Name,
		GroupIndex:   group.GroupIndex,
		MaxPlayers:   activity.MaxPlayers,
		RoundSeconds: activity.RoundSeconds,
		NumRounds:    activity.NumRounds,
		BankID:       activity.BankID,
		State:        group.Status,
		Score:        group.Score,
		UsedLetters:  []string{},
		PlayerNames:  map[string]string{},
	}
	if err := s.store.CreateGroup(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// roster reads the live player list, rebuilding it from the rows when the
// store lost it.
func (s *GameService) roster(ctx context.Context, code string, groupID uint) ([]session.Player, error) {
	players, err := s.store.ReadPlayers(ctx, code)
	if err != nil {
		return nil, err
	}
	if len(players) > 0 {
		return players, nil
	}

	var rows []models.Player
	if err := s.db.Where("group_id = ?", groupID).Order("joined_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		p := &session.Player{ID: row.ID, Name: row.Name, Score: row.Score, JoinedAt: row.JoinedAt}
		if err := s.store.CreatePlayer(ctx, code, p); err != nil {
			log.Printf("Failed to restore player %s for group %s: %v", row.ID, code, err)
		}
		players = append(players, *p)
	}
	return players, nil
}

func (s *GameService) buildView(g *session.Group, players []session.Player) *GroupView {
	view := &GroupView{
		Code:           g.Code,
		Name:           g.Name,
		State:          g.State,
		RoundIndex:     g.RoundIndex,
		NumRounds:      g.NumRounds,
		Topic:          g.Topic,
		Hint:           g.Hint,
		Progress:       g.Progress,
		UsedLetters:    g.UsedLetters,
		Fails:          g.Fails,
		MaxFails:       session.MaxFails,
		TurnPlayerID:   g.TurnPlayerID,
		TurnPlayerName: g.TurnPlayerName,
		Score:          g.Score,
		RoundSeconds:   g.RoundSeconds,
		SecondsLeft:    g.SecondsRemaining(time.Now()),
		Players:        players,
	}
	if g.State == session.StateFinished {
		view.Answer = g.Answer
	}
	return view
}
