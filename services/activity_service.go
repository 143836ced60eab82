package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"

	"ahorcado/models"
	"ahorcado/packs"
	"ahorcado/session"
	"ahorcado/store"

	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrActivityFinished = errors.New("activity already finished")
)

// codeAlphabet avoids ambiguous characters (no I, O, 0, 1) so codes can
// be read aloud in a classroom.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// codeAttempts bounds how often a colliding join code is regenerated.
const codeAttempts = 5

type ActivityService struct {
	db      *gorm.DB
	store   store.GroupStore
	baseURL string
}

func NewActivityService(db *gorm.DB, groupStore store.GroupStore, baseURL string) *ActivityService {
	return &ActivityService{
		db:      db,
		store:   groupStore,
		baseURL: baseURL,
	}
}

type CreateActivityRequest struct {
	Name         string `json:"name" binding:"required"`
	BankID       string `json:"bank_id" binding:"required"`
	NumGroups    int    `json:"num_groups" binding:"required,min=1,max=26"`
	MaxPlayers   int    `json:"max_players" binding:"required,min=2,max=30"`
	RoundSeconds int    `json:"round_seconds" binding:"required,min=15,max=600"`
	NumRounds    int    `json:"num_rounds" binding:"required,min=1,max=20"`
}

// CreateActivity creates the activity row plus one group per requested
// slot ("Grupo A", "Grupo B", ...), each with its own join code, and
// seeds the live waiting document for every group.
func (s *ActivityService) CreateActivity(userID uint, req *CreateActivityRequest) (*models.Activity, error) {
	if _, err := packs.Get(req.BankID); err != nil {
		return nil, err
	}

	activity := models.Activity{
		UserID:       userID,
		Name:         req.Name,
		BankID:       req.BankID,
		NumGroups:    req.NumGroups,
		MaxPlayers:   req.MaxPlayers,
		RoundSeconds: req.RoundSeconds,
		NumRounds:    req.NumRounds,
		Status:       "active",
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := insertWithJoinCode(tx, func(code string) { activity.Code = code }, func() error {
		return tx.Create(&activity).Error
	}); err != nil {
		tx.Rollback()
		return nil, err
	}

	groups := make([]models.Group, 0, req.NumGroups)
	for i := 0; i < req.NumGroups; i++ {
		group := models.Group{
			ActivityID: activity.ID,
			Name:       fmt.Sprintf("Grupo %c", rune('A'+i)),
			GroupIndex: i,
			Status:     session.StateWaiting,
		}
		if err := insertWithJoinCode(tx, func(code string) { group.Code = code }, func() error {
			return tx.Create(&group).Error
		}); err != nil {
			tx.Rollback()
			return nil, err
		}
		groups = append(groups, group)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	// Seed the live documents. The durable rows are the source of truth
	// for recreating them, so a store failure here is logged, not fatal.
	for _, group := range groups {
		doc := &session.Group{
			Code:         group.Code,
			ActivityID:   activity.ID,
			Name:         group.Name,
			GroupIndex:   group.GroupIndex,
			MaxPlayers:   activity.MaxPlayers,
			RoundSeconds: activity.RoundSeconds,
			NumRounds:    activity.NumRounds,
			BankID:       activity.BankID,
			State:        session.StateWaiting,
			UsedLetters:  []string{},
			PlayerNames:  map[string]string{},
		}
		if err := s.store.CreateGroup(context.Background(), doc); err != nil {
			log.Printf("Failed to seed live document for group %s: %v", group.Code, err)
		}
	}

	activity.Groups = groups
	return &activity, nil
}

func (s *ActivityService) GetUserActivities(userID uint) ([]models.Activity, error) {
	var activities []models.Activity
	err := s.db.Where("user_id = ?", userID).
		Preload("Groups", func(db *gorm.DB) *gorm.DB {
			return db.Order("groups.group_index")
		}).
		Order("created_at DESC").
		Find(&activities).Error
	return activities, err
}

func (s *ActivityService) GetActivityByID(activityID uint, userID uint) (*models.Activity, error) {
	var activity models.Activity
	err := s.db.Where("id = ? AND user_id = ?", activityID, userID).
		Preload("Groups", func(db *gorm.DB) *gorm.DB {
			return db.Order("groups.group_index")
		}).
		Preload("Groups.Players", func(db *gorm.DB) *gorm.DB {
			return db.Order("players.joined_at")
		}).
		First(&activity).Error
	if err != nil {
		return nil, ErrActivityNotFound
	}
	return &activity, nil
}

// CloseActivity transitions the activity to finished and ends every
// group that is still open. Finished is terminal.
func (s *ActivityService) CloseActivity(activityID uint, userID uint) (*models.Activity, error) {
	activity, err := s.GetActivityByID(activityID, userID)
	if err != nil {
		return nil, err
	}
	if activity.Status == "finished" {
		return nil, ErrActivityFinished
	}

	if err := s.db.Model(&models.Activity{}).Where("id = ?", activity.ID).
		Update("status", "finished").Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Group{}).Where("activity_id = ?", activity.ID).
		Update("status", session.StateFinished).Error; err != nil {
		return nil, err
	}

	for _, group := range activity.Groups {
		s.finishLiveGroup(group.Code)
	}

	activity.Status = "finished"
	return activity, nil
}

// ActivityResults returns the post-game ranking: groups by score
// descending, each with its players by score descending.
func (s *ActivityService) ActivityResults(activityID uint, userID uint) (*models.Activity, error) {
	var activity models.Activity
	err := s.db.Where("id = ? AND user_id = ?", activityID, userID).
		Preload("Groups", func(db *gorm.DB) *gorm.DB {
			return db.Order("groups.score DESC")
		}).
		Preload("Groups.Players", func(db *gorm.DB) *gorm.DB {
			return db.Order("players.score DESC")
		}).
		First(&activity).Error
	if err != nil {
		return nil, ErrActivityNotFound
	}
	return &activity, nil
}

// GroupJoinQR renders a QR code PNG of the student join link for one
// group, for projecting in class.
func (s *ActivityService) GroupJoinQR(groupCode string) ([]byte, error) {
	joinURL := fmt.Sprintf("%s/join/%s", s.baseURL, groupCode)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR for group %s: %w", groupCode, err)
	}
	return png, nil
}

// finishLiveGroup marks a live document finished. A retry covers a guess
// racing the close.
func (s *ActivityService) finishLiveGroup(code string) {
	ctx := context.Background()
	for attempt := 0; attempt < 3; attempt++ {
		snapshot, err := s.store.ReadGroup(ctx, code)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Printf("Failed to read live document for group %s: %v", code, err)
			}
			return
		}
		if snapshot.State == session.StateFinished {
			return
		}

		expect := snapshot.Fingerprint()
		updated := snapshot.Clone()
		updated.State = session.StateFinished

		err = s.store.WriteGroup(ctx, updated, expect)
		if err == nil {
			return
		}
		if !errors.Is(err, store.ErrConflict) {
			log.Printf("Failed to finish live document for group %s: %v", code, err)
			return
		}
	}
	log.Printf("Gave up finishing live document for group %s after retries", code)
}

// newJoinCode draws a fresh code from the unambiguous alphabet.
func newJoinCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate join code: %w", err)
	}
	code := make([]byte, codeLength)
	for i, b := range buf {
		code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(code), nil
}

// insertWithJoinCode stamps a fresh join code on a row and creates it,
// regenerating the code when it collides with an existing one. The
// savepoint keeps a collision from aborting the surrounding transaction.
func insertWithJoinCode(tx *gorm.DB, setCode func(string), create func() error) error {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := newJoinCode()
		if err != nil {
			return err
		}
		setCode(code)

		tx.SavePoint("join_code")
		err = create()
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		tx.RollbackTo("join_code")
	}
	return fmt.Errorf("failed to find a free join code after %d attempts", codeAttempts)
}
