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

	"referral-rewards/internal/auth"
	"referral-rewards/internal/config"
	"referral-rewards/internal/database"
	"referral-rewards/internal/handlers"
	"referral-rewards/internal/jobs"
	"referral-rewards/internal/repository"
	"referral-rewards/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	repo := repository.NewRepository(db)

	tokens, err := auth.NewTokenManager(cfg.App.JWTSecret, cfg.App.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to initialize tokens: %v", err)
	}

	// Initialize services
	userService := services.NewUserService(repo)
	referralService := services.NewReferralService(repo, userService, cfg.App.SignupRewardType)
	rewardService := services.NewRewardService(repo, cfg.App.DefaultRewardUnit)
	rewardConfigService := services.NewRewardConfigService(repo, cfg.App.DefaultRewardUnit, cfg.RejectDuplicateConfigs())
	statsService := services.NewStatsService(repo)
	adminService := services.NewAdminService(repo)

	// Initialize handlers
	h := handlers.Handlers{
		Auth:     handlers.NewAuthHandler(userService, tokens, cfg.IsAdmin),
		Referral: handlers.NewReferralHandler(userService, referralService),
		Reward:   handlers.NewRewardHandler(userService, rewardService),
		Admin:    handlers.NewAdminHandler(rewardService, rewardConfigService, statsService, adminService),
	}

	// Start stats snapshot job
	snapshotJob := jobs.NewStatsSnapshotJob(statsService, cfg.App.StatsSnapshotInterval)
	if err := snapshotJob.Start(); err != nil {
		log.Fatalf("Failed to start stats snapshot job: %v", err)
	}

	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if cfg.Server.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.Server.FrontendURL)
	}

	router := handlers.NewRouter(gin.Default(), h, tokens, allowedOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)
		log.Printf("Login: POST http://localhost:%s/auth/login", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	if err := snapshotJob.Stop(); err != nil {
		log.Printf("Stats snapshot job shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("Server exited")
}
