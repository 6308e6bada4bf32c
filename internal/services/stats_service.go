package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"referral-rewards/internal/models"
	"referral-rewards/internal/repository"
)

const (
	dateLayout = "2006-01-02"

	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
	MaxAnalyticsDays        = 366
)

var hundred = decimal.NewFromInt(100)

// ConversionRate is successful/total as a percentage, 0 when total is 0
func ConversionRate(successful, total int64) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(successful).Mul(hundred).Div(decimal.NewFromInt(total))
}

// StatsService runs read-only aggregations over users, referrals and rewards
type StatsService struct {
	repo *repository.Repository
	now  Clock
}

func NewStatsService(repo *repository.Repository) *StatsService {
	return &StatsService{repo: repo, now: utcNow}
}

// WithClock replaces the time source
func (s *StatsService) WithClock(clock Clock) *StatsService {
	s.now = clock
	return s
}

// Leaderboard ranks referrers by successful referrals
func (s *StatsService) Leaderboard(ctx context.Context, limit int, includeZero bool) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	return s.repo.Leaderboard(ctx, limit, includeZero)
}

// ReferrerConversionRate is the share of a referrer's codes that were redeemed
func (s *StatsService) ReferrerConversionRate(ctx context.Context, referrerID uint) (decimal.Decimal, error) {
	total, successful, err := s.repo.CountReferrals(ctx, referrerID)
	if err != nil {
		return decimal.Zero, err
	}
	return ConversionRate(successful, total), nil
}

// Dashboard collects program-wide totals
func (s *StatsService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	totalUsers, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	totalReferrals, successful, err := s.repo.CountReferrals(ctx, 0)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.RewardTotalsByStatus(ctx)
	if err != nil {
		return nil, err
	}

	d := &models.Dashboard{
		TotalUsers:          totalUsers,
		TotalReferrals:      totalReferrals,
		SuccessfulReferrals: successful,
		ConversionRate:      ConversionRate(successful, totalReferrals),
		PendingRewards:      totals[models.RewardStatusPending].Count,
		CreditedRewards:     totals[models.RewardStatusCredited].Count,
		RevokedRewards:      totals[models.RewardStatusRevoked].Count,
		TotalRewardValue:    totals[models.RewardStatusCredited].Value,
	}
	d.TotalRewards = d.PendingRewards + d.CreditedRewards + d.RevokedRewards
	return d, nil
}

// DailyAnalytics counts referral codes created per day over the last days days
func (s *StatsService) DailyAnalytics(ctx context.Context, days int) ([]models.DailyCount, error) {
	if days <= 0 || days > MaxAnalyticsDays {
		return nil, invalidInput("days must be between 1 and %d", MaxAnalyticsDays)
	}
	since := startOfDay(s.now()).AddDate(0, 0, -(days - 1))

	times, err := s.repo.ReferralCreationTimesSince(ctx, since)
	if err != nil {
		return nil, err
	}
	return countByDay(times), nil
}

// SnapshotToday computes and stores the totals snapshot for the current
// day. Totals are read as of now, so only today's row can be written.
func (s *StatsService) SnapshotToday(ctx context.Context) (*models.ReferralDailyStats, error) {
	now := s.now()
	dayStart := startOfDay(now)

	dash, err := s.Dashboard(ctx)
	if err != nil {
		return nil, err
	}

	redemptions, err := s.repo.RedemptionTimesSince(ctx, 0, dayStart)
	if err != nil {
		return nil, err
	}
	dayEnd := dayStart.AddDate(0, 0, 1)
	var redeemedOnDay int64
	for _, t := range redemptions {
		if t.Before(dayEnd) {
			redeemedOnDay++
		}
	}

	stats := &models.ReferralDailyStats{
		Date:                dayStart.Format(dateLayout),
		TotalUsers:          dash.TotalUsers,
		TotalReferrals:      dash.TotalReferrals,
		SuccessfulReferrals: dash.SuccessfulReferrals,
		RedeemedOnDay:       redeemedOnDay,
		PendingRewards:      dash.PendingRewards,
		CreditedRewards:     dash.CreditedRewards,
		RevokedRewards:      dash.RevokedRewards,
		CreditedValue:       dash.TotalRewardValue,
		ConversionRate:      dash.ConversionRate.Round(2),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.UpsertDailyStats(ctx, stats); err != nil {
		return nil, fmt.Errorf("store daily stats %s: %w", stats.Date, err)
	}
	return s.repo.GetDailyStats(ctx, stats.Date)
}

// GetDailyStats returns the stored snapshot for day. A missing row is
// computed only when day is today; other days were never captured.
func (s *StatsService) GetDailyStats(ctx context.Context, day time.Time) (*models.ReferralDailyStats, error) {
	date := startOfDay(day).Format(dateLayout)
	stats, err := s.repo.GetDailyStats(ctx, date)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if date == startOfDay(s.now()).Format(dateLayout) {
			return s.SnapshotToday(ctx)
		}
		return nil, &NotFoundError{Resource: "daily stats", Key: date}
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// TodayStats returns the snapshot for the current day
func (s *StatsService) TodayStats(ctx context.Context) (*models.ReferralDailyStats, error) {
	return s.GetDailyStats(ctx, s.now())
}

// ParseDay parses a YYYY-MM-DD date
func ParseDay(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, invalidInput("date must be YYYY-MM-DD")
	}
	return t, nil
}
