package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"referral-rewards/internal/models"
	"referral-rewards/internal/repository"
)

// RewardService is the only writer of reward ledger status.
//
//	PENDING  -> CREDITED
//	PENDING  -> REVOKED
//	CREDITED -> REVOKED
//
// REVOKED is terminal. Every transition is a compare-and-set on status, so
// of two concurrent admin actions on one entry exactly one wins.
type RewardService struct {
	repo        *repository.Repository
	defaultUnit string
	now         Clock
}

func NewRewardService(repo *repository.Repository, defaultUnit string) *RewardService {
	if defaultUnit == "" {
		defaultUnit = "points"
	}
	return &RewardService{
		repo:        repo,
		defaultUnit: defaultUnit,
		now:         utcNow,
	}
}

// WithClock replaces the time source
func (s *RewardService) WithClock(clock Clock) *RewardService {
	s.now = clock
	return s
}

// Get returns a single ledger entry
func (s *RewardService) Get(ctx context.Context, rewardID uint) (*models.RewardLedger, error) {
	reward, err := s.repo.GetReward(ctx, rewardID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "reward", Key: rewardID}
	}
	if err != nil {
		return nil, err
	}
	return reward, nil
}

// Credit moves a PENDING reward to CREDITED
func (s *RewardService) Credit(ctx context.Context, rewardID uint, actor string) (*models.RewardLedger, error) {
	now := s.now()
	reward, err := s.transition(ctx, rewardID, actor,
		[]models.RewardStatus{models.RewardStatusPending},
		models.RewardStatusCredited,
		map[string]interface{}{
			"status":      models.RewardStatusCredited,
			"credited_at": now,
		},
		models.AdminActionCreditReward,
	)
	if err != nil {
		return nil, err
	}

	log.Printf("Reward %d credited: %d %s to user %d by %s",
		reward.ID, reward.RewardValue, reward.RewardUnit, reward.UserID, actor)
	return reward, nil
}

// Revoke moves a PENDING or CREDITED reward to REVOKED
func (s *RewardService) Revoke(ctx context.Context, rewardID uint, actor string) (*models.RewardLedger, error) {
	now := s.now()
	reward, err := s.transition(ctx, rewardID, actor,
		[]models.RewardStatus{models.RewardStatusPending, models.RewardStatusCredited},
		models.RewardStatusRevoked,
		map[string]interface{}{
			"status":     models.RewardStatusRevoked,
			"revoked_at": now,
		},
		models.AdminActionRevokeReward,
	)
	if err != nil {
		return nil, err
	}

	log.Printf("Reward %d revoked: %d %s from user %d by %s",
		reward.ID, reward.RewardValue, reward.RewardUnit, reward.UserID, actor)
	return reward, nil
}

func (s *RewardService) transition(
	ctx context.Context,
	rewardID uint,
	actor string,
	from []models.RewardStatus,
	to models.RewardStatus,
	updates map[string]interface{},
	action string,
) (*models.RewardLedger, error) {
	var updated *models.RewardLedger
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		changed, err := tx.TransitionReward(ctx, rewardID, from, updates)
		if err != nil {
			return fmt.Errorf("update reward %d: %w", rewardID, err)
		}

		current, err := tx.GetReward(ctx, rewardID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "reward", Key: rewardID}
		}
		if err != nil {
			return err
		}
		if changed == 0 {
			return &TransitionError{RewardID: rewardID, From: current.Status, To: to}
		}
		updated = current

		return logAdminAction(ctx, tx, actor, action, "REWARD", &current.ID, map[string]interface{}{
			"user_id":      current.UserID,
			"reward_value": current.RewardValue,
			"reward_unit":  current.RewardUnit,
			"status":       string(to),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Summary totals a user's non-revoked rewards. The unit is taken from the
// user's most recent entry; users are assumed to earn in a single unit.
func (s *RewardService) Summary(ctx context.Context, userID uint) (*models.RewardSummary, error) {
	rewards, err := s.repo.ListRewardsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &models.RewardSummary{Unit: s.defaultUnit}
	if len(rewards) > 0 {
		summary.Unit = rewards[0].RewardUnit
	}
	for _, r := range rewards {
		switch r.Status {
		case models.RewardStatusPending:
			summary.Pending += r.RewardValue
		case models.RewardStatusCredited:
			summary.Credited += r.RewardValue
		}
	}
	summary.TotalEarned = summary.Pending + summary.Credited
	return summary, nil
}

// History returns a user's ledger entries, newest first
func (s *RewardService) History(ctx context.Context, userID uint) ([]models.RewardLedger, error) {
	return s.repo.ListRewardsByUser(ctx, userID)
}
