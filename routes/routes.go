package routes

import (
	"log"
	"net/http"

	"ahorcado/handlers"
	"ahorcado/middleware"
	"ahorcado/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	activityHandler *handlers.ActivityHandler,
	gameHandler *handlers.GameHandler,
	hub *services.Hub,
	gameService *services.GameService,
	jwtSecret string,
) {
	// API routes
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Content banks (public, needed by the activity form)
		api.GET("/banks", activityHandler.ListBanks)

		// Protected moderator routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			protected.GET("/auth/profile", authHandler.GetProfile)

			activities := protected.Group("/activities")
			{
				activities.GET("", activityHandler.GetUserActivities)
				activities.POST("", activityHandler.CreateActivity)
				activities.GET("/:id", activityHandler.GetActivityByID)
				activities.POST("/:id/close", activityHandler.CloseActivity)
				activities.GET("/:id/results", activityHandler.GetResults)
			}

			protected.POST("/groups/:code/start", gameHandler.StartGame)
			protected.GET("/groups/:code/qr", activityHandler.GetGroupQR)
		}

		// Public student routes
		groups := api.Group("/groups")
		{
			groups.POST("/join", gameHandler.JoinGroup)
			groups.GET("/:code", gameHandler.GetGroupState)
			groups.POST("/:code/guess", gameHandler.SubmitGuess)
		}
	}

	// WebSocket endpoint for live group snapshots
	router.GET("/ws/:groupCode/:playerID", func(c *gin.Context) {
		groupCode := services.NormalizeCode(c.Param("groupCode"))
		playerID := c.Param("playerID")
		playerName := c.Query("playerName")

		if !gameService.GroupHasPlayer(groupCode, playerID) {
			log.Printf("WebSocket access denied for group %s, player %s", groupCode, playerID)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Player not found in group"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for group %s, player %s: %v", groupCode, playerID, err)
			return
		}

		if playerName == "" {
			if player, err := gameService.GetPlayerByID(playerID); err == nil {
				playerName = player.Name
			}
		}

		log.Printf("WebSocket connection established for group %s, player %s (%s)", groupCode, playerID, playerName)
		hub.RegisterClient(conn, groupCode, playerID, playerName)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
