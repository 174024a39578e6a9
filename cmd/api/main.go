package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"divehouse-backend/internal/config"
	"divehouse-backend/internal/handlers"
	"divehouse-backend/internal/middleware"
	"divehouse-backend/internal/services"
	"divehouse-backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redisStore, err := store.NewRedisStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisStore.Close()

	jwtService := services.NewJWTService(cfg.JWTSecret, 24*time.Hour)

	wsHandler := handlers.NewWebSocketHandler(nil)
	engine := services.NewEngine(redisStore, services.CryptoEntropy, wsHandler)
	wsHandler.SetEngine(engine)

	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()

		for range ticker.C {
			cleaned, err := engine.CleanupExpiredSessions(cfg.SessionTimeout)
			if err != nil {
				log.Printf("Session sweep failed: %v", err)
				continue
			}
			if cleaned > 0 {
				log.Printf("Swept %d expired sessions", cleaned)
			}
		}
	}()

	authHandler := handlers.NewAuthHandler(jwtService, engine, cfg)
	gameHandler := handlers.NewGameHandler(engine)
	adminHandler := handlers.NewAdminHandler(engine, cfg.SessionTimeout)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/login", authHandler.Login)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(redisStore))
	{
		protected.GET("/ws", wsHandler.HandleWebSocket)
		protected.GET("/balance", gameHandler.Balance)
		protected.GET("/config", gameHandler.GetConfig)

		dive := protected.Group("/games/dive")
		{
			dive.POST("/start", gameHandler.StartDive)
			dive.POST("/round", gameHandler.PlayRound)
			dive.POST("/cashout", gameHandler.Cashout)
			dive.POST("/forfeit", gameHandler.Forfeit)
			dive.GET("/session/:addr", gameHandler.GetSession)
			dive.GET("/active", gameHandler.ActiveSessions)
			dive.GET("/history", gameHandler.History)
		}
	}

	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtService))
	{
		admin.POST("/config", adminHandler.InitConfig)
		admin.PUT("/config", adminHandler.UpdateConfig)
		admin.POST("/vault", adminHandler.OpenVault)
		admin.POST("/vault/lock", adminHandler.ToggleLock)
		admin.POST("/vault/deposit", adminHandler.Deposit)
		admin.POST("/vault/withdraw", adminHandler.Withdraw)
		admin.POST("/vault/reset-reserved", adminHandler.ResetReserved)
		admin.GET("/vault/:addr", adminHandler.VaultStatus)
		admin.POST("/sessions/clean", adminHandler.CleanSessions)
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
