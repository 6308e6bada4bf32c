package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"referral-rewards/internal/models"
	"referral-rewards/internal/repository"
	"referral-rewards/internal/utils"
)

const (
	// attempts at drawing a code that is not already stored
	maxCodeDraws = 10
	// attempts at claiming the outstanding slot when racing other callers
	maxOutstandingAttempts = 3
)

type ReferralService struct {
	repo             *repository.Repository
	users            *UserService
	signupRewardType string
	now              Clock
}

func NewReferralService(repo *repository.Repository, users *UserService, signupRewardType string) *ReferralService {
	signupRewardType = NormalizeRewardType(signupRewardType)
	if signupRewardType == "" {
		signupRewardType = models.RewardTypeSignup
	}
	return &ReferralService{
		repo:             repo,
		users:            users,
		signupRewardType: signupRewardType,
		now:              utcNow,
	}
}

// WithClock replaces the time source
func (s *ReferralService) WithClock(clock Clock) *ReferralService {
	s.now = clock
	return s
}

// RedeemOutcome is the result of a successful redemption. Reward is nil
// when no reward config was active at redemption time.
type RedeemOutcome struct {
	Referral *models.Referral     `json:"referral"`
	Referrer *models.User         `json:"-"`
	Redeemer *models.User         `json:"-"`
	Reward   *models.RewardLedger `json:"reward,omitempty"`
}

// ReferralSummary is a referrer's own view of their program activity
type ReferralSummary struct {
	Code                string          `json:"my_referral_code"`
	TotalReferrals      int64           `json:"total_referrals"`
	SuccessfulReferrals int64           `json:"successful_referrals"`
	ConversionRate      decimal.Decimal `json:"conversion_rate"`
}

// GetOrCreateCode returns the referrer's outstanding referral, minting one
// if the referrer has none.
func (s *ReferralService) GetOrCreateCode(ctx context.Context, referrerHandle string) (*models.User, *models.Referral, error) {
	referrer, err := s.users.ResolveOrCreate(ctx, referrerHandle)
	if err != nil {
		return nil, nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxOutstandingAttempts; attempt++ {
		referral, err := s.getOrCreateOutstanding(ctx, referrer.ID)
		if err == nil {
			return referrer, referral, nil
		}
		// A concurrent caller took the outstanding slot or the drawn code; the
		// next attempt reads the winner's row or draws again.
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, err
		}
		lastErr = err
	}
	return nil, nil, fmt.Errorf("allocate referral code for user %d: %w", referrer.ID, lastErr)
}

func (s *ReferralService) getOrCreateOutstanding(ctx context.Context, referrerID uint) (*models.Referral, error) {
	var referral *models.Referral
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		existing, err := tx.GetOutstandingReferral(ctx, referrerID)
		if err == nil {
			referral = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		code, err := generateUniqueCode(ctx, tx)
		if err != nil {
			return err
		}

		created := &models.Referral{
			Code:       code,
			ReferrerID: referrerID,
			CreatedAt:  s.now(),
		}
		if err := tx.CreateReferral(ctx, created); err != nil {
			return err
		}
		referral = created
		log.Printf("Generated referral code %s for user %d", code, referrerID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return referral, nil
}

func generateUniqueCode(ctx context.Context, repo *repository.Repository) (string, error) {
	for i := 0; i < maxCodeDraws; i++ {
		code, err := utils.GenerateReferralCode()
		if err != nil {
			return "", err
		}
		exists, err := repo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check referral code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique referral code after %d attempts", maxCodeDraws)
}

// Redeem records redeemerHandle as referred by the owner of code and, if a
// signup reward is configured, creates one PENDING reward for the referrer.
// The referral update and the reward insert commit together or not at all.
func (s *ReferralService) Redeem(ctx context.Context, redeemerHandle string, code string) (*RedeemOutcome, error) {
	code = utils.NormalizeReferralCode(code)
	if code == "" {
		return nil, invalidInput("referral code is required")
	}

	redeemer, err := s.users.ResolveOrCreate(ctx, redeemerHandle)
	if err != nil {
		return nil, err
	}

	outcome := &RedeemOutcome{Redeemer: redeemer}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		referral, err := tx.GetReferralByCode(ctx, code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "referral code", Key: code}
		}
		if err != nil {
			return err
		}

		if referral.ReferrerID == redeemer.ID {
			return ErrSelfReferral
		}
		if referral.IsRedeemed() {
			return ErrAlreadyRedeemed
		}

		prior, err := tx.FindReferralOf(ctx, redeemer.ID)
		if err != nil {
			return err
		}
		if prior != nil {
			return ErrAlreadyReferred
		}

		now := s.now()
		changed, err := tx.MarkRedeemed(ctx, referral.ID, redeemer.ID, now)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyReferred
		}
		if err != nil {
			return fmt.Errorf("mark referral %d redeemed: %w", referral.ID, err)
		}
		if changed == 0 {
			return ErrAlreadyRedeemed
		}
		referral.ReferredUserID = &redeemer.ID
		referral.UsedAt = &now
		outcome.Referral = referral

		cfg, err := tx.GetActiveConfig(ctx, s.signupRewardType)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		reward := &models.RewardLedger{
			UserID:      referral.ReferrerID,
			ReferralID:  referral.ID,
			RewardType:  cfg.RewardType,
			RewardValue: cfg.RewardValue,
			RewardUnit:  cfg.RewardUnit,
			Status:      models.RewardStatusPending,
			CreatedAt:   now,
		}
		if err := tx.CreateReward(ctx, reward); err != nil {
			return fmt.Errorf("create reward for referral %d: %w", referral.ID, err)
		}
		outcome.Reward = reward
		return nil
	})
	if err != nil {
		return nil, err
	}

	referrer, err := s.users.GetUserByID(ctx, outcome.Referral.ReferrerID)
	if err != nil {
		return nil, err
	}
	outcome.Referrer = referrer

	if outcome.Reward != nil {
		log.Printf("Redeemed referral code %s: user %d referred by user %d, reward %d pending (%d %s)",
			code, redeemer.ID, referrer.ID, outcome.Reward.ID, outcome.Reward.RewardValue, outcome.Reward.RewardUnit)
	} else {
		log.Printf("Redeemed referral code %s: user %d referred by user %d, no active %s config",
			code, redeemer.ID, referrer.ID, s.signupRewardType)
	}
	return outcome, nil
}

// MySummary returns the referrer's code with their conversion figures
func (s *ReferralService) MySummary(ctx context.Context, referrerHandle string) (*ReferralSummary, error) {
	referrer, referral, err := s.GetOrCreateCode(ctx, referrerHandle)
	if err != nil {
		return nil, err
	}

	total, successful, err := s.repo.CountReferrals(ctx, referrer.ID)
	if err != nil {
		return nil, err
	}

	return &ReferralSummary{
		Code:                referral.Code,
		TotalReferrals:      total,
		SuccessfulReferrals: successful,
		ConversionRate:      ConversionRate(successful, total),
	}, nil
}

// ListReferrals returns every code the referrer has held and who used it
func (s *ReferralService) ListReferrals(ctx context.Context, referrerID uint) ([]models.ReferralListItem, error) {
	referrals, err := s.repo.ListReferralsByReferrer(ctx, referrerID)
	if err != nil {
		return nil, err
	}

	items := make([]models.ReferralListItem, 0, len(referrals))
	for _, r := range referrals {
		item := models.ReferralListItem{
			ReferralID:   r.ID,
			Code:         r.Code,
			UsedByUserID: r.ReferredUserID,
			UsedAt:       r.UsedAt,
			Status:       "PENDING",
		}
		if r.IsRedeemed() {
			item.Status = "SUCCESS"
			if r.ReferredUser != nil {
				handle := r.ReferredUser.Handle
				item.UsedByHandle = &handle
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// Timeline counts the referrer's redemptions per day over the last days days
func (s *ReferralService) Timeline(ctx context.Context, referrerID uint, days int) ([]models.DailyCount, error) {
	if days <= 0 {
		return nil, invalidInput("days must be positive")
	}
	since := startOfDay(s.now()).AddDate(0, 0, -(days - 1))

	times, err := s.repo.RedemptionTimesSince(ctx, referrerID, since)
	if err != nil {
		return nil, err
	}
	return countByDay(times), nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func countByDay(times []time.Time) []models.DailyCount {
	counts := make(map[string]int64)
	for _, t := range times {
		counts[t.UTC().Format(dateLayout)]++
	}

	out := make([]models.DailyCount, 0, len(counts))
	for date, n := range counts {
		out = append(out, models.DailyCount{Date: date, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
