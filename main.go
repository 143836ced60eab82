package main

import (
	"log"

	"ahorcado/config"
	"ahorcado/handlers"
	"ahorcado/middleware"
	"ahorcado/models"
	"ahorcado/routes"
	"ahorcado/services"
	"ahorcado/store"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Activity{},
		&models.Group{},
		&models.Player{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis and the session store
	redisClient := config.InitRedis(cfg)
	groupStore := store.NewRedisStore(redisClient)

	// Initialize services
	authService := services.NewAuthService(db, cfg.JWTSecret)
	activityService := services.NewActivityService(db, groupStore, cfg.PublicBaseURL)
	gameService := services.NewGameService(db, groupStore, cfg.EnforceRoundTimer)

	// Initialize WebSocket hub
	hub := services.NewHub(gameService, groupStore)
	go hub.Run()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	activityHandler := handlers.NewActivityHandler(activityService)
	gameHandler := handlers.NewGameHandler(gameService, hub)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, authHandler, activityHandler, gameHandler, hub, gameService, cfg.JWTSecret)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
