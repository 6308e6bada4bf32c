package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"referral-rewards/internal/models"
	"referral-rewards/internal/repository"
)

// RewardConfigService owns the reward type -> value/unit mapping
type RewardConfigService struct {
	repo             *repository.Repository
	defaultUnit      string
	rejectDuplicates bool
	now              Clock
}

// NewRewardConfigService creates the registry. With rejectDuplicates set,
// creating a config for a type that already has an active one fails with
// ErrDuplicateConfig instead of replacing it.
func NewRewardConfigService(repo *repository.Repository, defaultUnit string, rejectDuplicates bool) *RewardConfigService {
	if defaultUnit == "" {
		defaultUnit = "points"
	}
	return &RewardConfigService{
		repo:             repo,
		defaultUnit:      defaultUnit,
		rejectDuplicates: rejectDuplicates,
		now:              utcNow,
	}
}

// WithClock replaces the time source
func (s *RewardConfigService) WithClock(clock Clock) *RewardConfigService {
	s.now = clock
	return s
}

// NormalizeRewardType trims and upper-cases a reward type key
func NormalizeRewardType(rewardType string) string {
	return strings.ToUpper(strings.TrimSpace(rewardType))
}

// CreateOrReplace upserts the active config for rewardType. Rewards already
// in the ledger keep the value and unit they were created with.
func (s *RewardConfigService) CreateOrReplace(ctx context.Context, rewardType string, value int64, unit string, actor string) (*models.RewardConfig, error) {
	rewardType = NormalizeRewardType(rewardType)
	if rewardType == "" {
		return nil, invalidInput("reward_type is required")
	}
	if value < 0 {
		return nil, invalidInput("reward_value must not be negative")
	}
	unit = strings.ToLower(strings.TrimSpace(unit))
	if unit == "" {
		unit = s.defaultUnit
	}

	var saved *models.RewardConfig
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		previous, err := tx.GetConfig(ctx, rewardType)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := s.now()
		cfg := &models.RewardConfig{
			RewardType:  rewardType,
			RewardValue: value,
			RewardUnit:  unit,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if s.rejectDuplicates {
			if err := claimConfig(ctx, tx, previous, cfg); err != nil {
				return err
			}
		} else if err := tx.UpsertConfig(ctx, cfg); err != nil {
			return fmt.Errorf("upsert reward config %s: %w", rewardType, err)
		}

		saved, err = tx.GetConfig(ctx, rewardType)
		if err != nil {
			return err
		}

		details := map[string]interface{}{
			"reward_type":  rewardType,
			"reward_value": value,
			"reward_unit":  unit,
		}
		if previous != nil {
			details["previous_value"] = previous.RewardValue
			details["previous_unit"] = previous.RewardUnit
			details["previous_active"] = previous.IsActive
		}
		return logAdminAction(ctx, tx, actor, models.AdminActionUpsertConfig, "REWARD_CONFIG", &saved.ID, details)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Reward config %s set to %d %s by %s", rewardType, value, unit, actor)
	return saved, nil
}

// claimConfig writes cfg only if no active row exists for its type. The
// insert and reactivation are both conditional, so a creator that raced past
// the read still gets ErrDuplicateConfig.
func claimConfig(ctx context.Context, tx *repository.Repository, previous *models.RewardConfig, cfg *models.RewardConfig) error {
	duplicate := fmt.Errorf("%w: %s", ErrDuplicateConfig, cfg.RewardType)
	if previous == nil {
		created, err := tx.InsertConfigIfAbsent(ctx, cfg)
		if err != nil {
			return fmt.Errorf("insert reward config %s: %w", cfg.RewardType, err)
		}
		if !created {
			return duplicate
		}
		return nil
	}
	if previous.IsActive {
		return duplicate
	}

	changed, err := tx.ReactivateConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("reactivate reward config %s: %w", cfg.RewardType, err)
	}
	if changed == 0 {
		return duplicate
	}
	return nil
}

// Deactivate stops rewardType from producing new rewards
func (s *RewardConfigService) Deactivate(ctx context.Context, rewardType string, actor string) error {
	rewardType = NormalizeRewardType(rewardType)
	if rewardType == "" {
		return invalidInput("reward_type is required")
	}

	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		changed, err := tx.DeactivateConfig(ctx, rewardType)
		if err != nil {
			return err
		}
		if changed == 0 {
			return &NotFoundError{Resource: "active reward config", Key: rewardType}
		}
		log.Printf("Reward config %s deactivated by %s", rewardType, actor)
		return logAdminAction(ctx, tx, actor, models.AdminActionDeactivateConfig, "REWARD_CONFIG", nil,
			map[string]interface{}{"reward_type": rewardType})
	})
}

// GetActive returns the active config for rewardType
func (s *RewardConfigService) GetActive(ctx context.Context, rewardType string) (*models.RewardConfig, error) {
	rewardType = NormalizeRewardType(rewardType)
	cfg, err := s.repo.GetActiveConfig(ctx, rewardType)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "active reward config", Key: rewardType}
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// ListActive returns active configs ordered by reward type
func (s *RewardConfigService) ListActive(ctx context.Context) ([]models.RewardConfig, error) {
	return s.repo.ListConfigs(ctx, true)
}

// ListAll returns every config, active or not, ordered by reward type
func (s *RewardConfigService) ListAll(ctx context.Context) ([]models.RewardConfig, error) {
	return s.repo.ListConfigs(ctx, false)
}
