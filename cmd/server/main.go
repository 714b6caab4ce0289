package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/avolkov/gemrush/backend/internal/config"
	"github.com/avolkov/gemrush/backend/internal/game"
	"github.com/avolkov/gemrush/backend/internal/repository/postgres"
	"github.com/avolkov/gemrush/backend/internal/repository/redis"
	"github.com/avolkov/gemrush/backend/internal/service/cleanup"
	"github.com/avolkov/gemrush/backend/internal/service/leaderboard"
	transportHttp "github.com/avolkov/gemrush/backend/internal/transport/http"
	"github.com/avolkov/gemrush/backend/internal/transport/http/middleware"
	"github.com/avolkov/gemrush/backend/internal/transport/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.LoadConfig()

	// Round history is optional: without a database the server still
	// runs full rounds, it just forgets them afterwards.
	var roundRepo *postgres.RoundRepo
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeMin)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		log.Println("Running database migrations...")
		if err := postgres.RunMigrations(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}

		roundRepo = postgres.NewRoundRepo(db)
	} else {
		log.Println("DATABASE_URL not set, round history disabled")
	}

	if err := redis.InitRedis(cfg.RedisURL, cfg.RedisPassword); err != nil {
		log.Printf("Failed to initialize Redis: %v", err)
	}
	defer redis.CloseRedis()

	var lb *leaderboard.Service
	if redis.IsRedisEnabled() && redis.RedisClient != nil {
		lb = leaderboard.NewService(redis.RedisClient)
	}

	connManager := websocket.NewConnectionManager()

	roomCfg := game.DefaultConfig()
	roomCfg.RoundDuration = cfg.RoundDuration

	// Recorder and leaderboard want interface values; a nil *RoundRepo
	// wrapped in the interface would dodge the directory's nil check.
	var recorder game.Recorder
	if roundRepo != nil {
		recorder = roundRepo
	}
	var scores game.Leaderboard
	if lb != nil {
		scores = lb
	}
	directory := game.NewDirectory(roomCfg, connManager, recorder, scores)

	cleanupWorker := cleanup.NewWorker(directory)
	cleanupWorker.Start()

	wsHandler := websocket.NewHandler(connManager, directory)
	leaderboardHandler := transportHttp.NewLeaderboardHandler(lb)
	historyHandler := transportHttp.NewHistoryHandler(roundRepo)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.CORSMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/api/leaderboard", leaderboardHandler.GetLeaderboard)
	router.GET("/api/history", historyHandler.GetHistory)
	router.GET("/ws", wsHandler.HandleWebSocket)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
