package main

import (
	"context"
	"log"

	"referral-rewards/internal/config"
	"referral-rewards/internal/database"
	"referral-rewards/internal/models"
	"referral-rewards/internal/repository"
	"referral-rewards/internal/services"
)

const seedActor = "seed"

var seedConfigs = []struct {
	rewardType string
	value      int64
}{
	{models.RewardTypeSignup, 100},
	{models.RewardTypeConversion, 500},
	{models.RewardTypePremiumSignup, 1000},
}

var seedHandles = []string{"alice", "bob", "charlie", "david", "eve"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	repo := repository.NewRepository(db)
	users := services.NewUserService(repo)
	referrals := services.NewReferralService(repo, users, cfg.App.SignupRewardType)
	// Seeding always replaces so it can be re-run
	configs := services.NewRewardConfigService(repo, cfg.App.DefaultRewardUnit, false)

	for _, c := range seedConfigs {
		saved, err := configs.CreateOrReplace(ctx, c.rewardType, c.value, cfg.App.DefaultRewardUnit, seedActor)
		if err != nil {
			log.Fatalf("Failed to seed reward config %s: %v", c.rewardType, err)
		}
		log.Printf("Reward config %s = %d %s", saved.RewardType, saved.RewardValue, saved.RewardUnit)
	}

	for _, handle := range seedHandles {
		user, referral, err := referrals.GetOrCreateCode(ctx, handle)
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", handle, err)
		}
		log.Printf("User %s (ID: %d) referral code %s", user.Handle, user.ID, referral.Code)
	}

	log.Println("Seed completed successfully")
}
