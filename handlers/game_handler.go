package handlers

import (
	"errors"
	"net/http"

	"ahorcado/services"
	"ahorcado/session"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	gameService *services.GameService
	hub         *services.Hub
}

func NewGameHandler(gameService *services.GameService, hub *services.Hub) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		hub:         hub,
	}
}

// JoinGroup attaches a student to a waiting group by code.
func (h *GameHandler) JoinGroup(c *gin.Context) {
	var req services.JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := h.gameService.JoinGroup(&req)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, player)
}

// GetGroupState serves the read-only projection of one group.
func (h *GameHandler) GetGroupState(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Group code required"})
		return
	}

	view, err := h.gameService.GetGroupView(code)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// StartGame freezes a group's roster and starts its rounds.
func (h *GameHandler) StartGame(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Group code required"})
		return
	}

	view, err := h.gameService.StartGame(userID.(uint), code, h.hub)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Game started successfully", "group": view})
}

// SubmitGuess applies one letter guess. Rejections come back as
// accepted=false with the reason and an unchanged board.
func (h *GameHandler) SubmitGuess(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Group code required"})
		return
	}

	var req services.GuessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.gameService.ApplyGuess(code, req.PlayerID, req.Letter, h.hub)
	if err != nil {
		if isGuessRejection(err) {
			c.JSON(statusForError(err), gin.H{
				"accepted": false,
				"reason":   err.Error(),
			})
			return
		}
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// isGuessRejection distinguishes the no-side-effect validation
// rejections, which the UI shows inline, from real failures.
func isGuessRejection(err error) bool {
	return errors.Is(err, session.ErrNotYourTurn) ||
		errors.Is(err, session.ErrInvalidGuess) ||
		errors.Is(err, session.ErrLetterAlreadyUsed) ||
		errors.Is(err, session.ErrGameNotActive)
}
