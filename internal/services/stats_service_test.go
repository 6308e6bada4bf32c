package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"referral-rewards/internal/models"
)

func TestConversionRate(t *testing.T) {
	assert.True(t, ConversionRate(0, 0).IsZero())
	assert.True(t, decimal.NewFromInt(50).Equal(ConversionRate(1, 2)))
	assert.True(t, decimal.NewFromInt(100).Equal(ConversionRate(4, 4)))
}

// seedLeaderboard gives A three redemptions, B one and C an unused code
func seedLeaderboard(t *testing.T, env *testEnv) {
	t.Helper()
	for _, redeemer := range []string{"a1", "a2", "a3"} {
		env.redeem(t, redeemer, env.code(t, "A"))
	}
	env.redeem(t, "b1", env.code(t, "B"))
	env.code(t, "C")
}

func TestLeaderboard(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	seedLeaderboard(t, env)

	entries, err := env.stats.Leaderboard(ctx, 0, false)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].Handle)
	assert.EqualValues(t, 3, entries[0].SuccessfulReferrals)
	assert.Equal(t, "B", entries[1].Handle)
	assert.EqualValues(t, 1, entries[1].SuccessfulReferrals)

	entries, err = env.stats.Leaderboard(ctx, 0, true)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "C", entries[2].Handle)
	assert.EqualValues(t, 0, entries[2].SuccessfulReferrals)

	entries, err = env.stats.Leaderboard(ctx, 1, true)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].Handle)
}

func TestLeaderboardTiesByReferrerID(t *testing.T) {
	env := setupTestEnv(t)

	env.redeem(t, "x1", env.code(t, "first"))
	env.redeem(t, "y1", env.code(t, "second"))

	entries, err := env.stats.Leaderboard(context.Background(), 10, false)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Handle)
	assert.Less(t, entries[0].ReferrerID, entries[1].ReferrerID)
}

func TestReferrerConversionRate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	seedLeaderboard(t, env)
	env.code(t, "A")

	a, err := env.users.GetUserByHandle(ctx, "A")
	require.NoError(t, err)
	rate, err := env.stats.ReferrerConversionRate(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(75).Equal(rate))
}

func TestDashboard(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.setSignupReward(t, 100)
	seedLeaderboard(t, env)

	history, err := env.rewards.History(ctx, mustUserID(t, env, "A"))
	require.NoError(t, err)
	require.Len(t, history, 3)
	_, err = env.rewards.Credit(ctx, history[0].ID, adminHandle)
	require.NoError(t, err)
	_, err = env.rewards.Revoke(ctx, history[1].ID, adminHandle)
	require.NoError(t, err)

	d, err := env.stats.Dashboard(ctx)
	require.NoError(t, err)
	// A, B, C and four redeemers
	assert.EqualValues(t, 7, d.TotalUsers)
	assert.EqualValues(t, 5, d.TotalReferrals)
	assert.EqualValues(t, 4, d.SuccessfulReferrals)
	assert.EqualValues(t, 4, d.TotalRewards)
	assert.EqualValues(t, 2, d.PendingRewards)
	assert.EqualValues(t, 1, d.CreditedRewards)
	assert.EqualValues(t, 1, d.RevokedRewards)
	assert.EqualValues(t, 100, d.TotalRewardValue)
	assert.Equal(t, "80.00", d.ConversionRate.StringFixed(2))
}

func TestDailyAnalytics(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.code(t, "alice")
	env.code(t, "bob")
	env.clock.Advance(48 * time.Hour)
	env.code(t, "carol")

	counts, err := env.stats.DailyAnalytics(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, []models.DailyCount{
		{Date: "2024-05-01", Count: 2},
		{Date: "2024-05-03", Count: 1},
	}, counts)

	_, err = env.stats.DailyAnalytics(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.stats.DailyAnalytics(ctx, MaxAnalyticsDays+1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSnapshotToday(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.setSignupReward(t, 100)

	env.redeem(t, "bob", env.code(t, "alice"))
	env.clock.Advance(24 * time.Hour)
	outcome := env.redeem(t, "carol", env.code(t, "alice"))
	_, err := env.rewards.Credit(ctx, outcome.Reward.ID, adminHandle)
	require.NoError(t, err)

	stats, err := env.stats.SnapshotToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02", stats.Date)
	assert.EqualValues(t, 3, stats.TotalUsers)
	assert.EqualValues(t, 2, stats.SuccessfulReferrals)
	assert.EqualValues(t, 1, stats.RedeemedOnDay)
	assert.EqualValues(t, 1, stats.PendingRewards)
	assert.EqualValues(t, 1, stats.CreditedRewards)
	assert.EqualValues(t, 100, stats.CreditedValue)

	// A second snapshot of the same day replaces the first
	env.redeem(t, "dave", env.code(t, "alice"))
	again, err := env.stats.SnapshotToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats.ID, again.ID)
	assert.EqualValues(t, 2, again.RedeemedOnDay)
	assert.EqualValues(t, 3, again.SuccessfulReferrals)
}

func TestGetDailyStatsComputesToday(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.redeem(t, "bob", env.code(t, "alice"))

	stats, err := env.stats.TodayStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", stats.Date)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.SuccessfulReferrals)
	assert.EqualValues(t, 1, stats.RedeemedOnDay)

	stored, err := env.repo.GetDailyStats(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, stats.ID, stored.ID)

	_, err = ParseDay("05/01/2024")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetDailyStatsKeepsHistory(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.redeem(t, "bob", env.code(t, "alice"))
	_, err := env.stats.SnapshotToday(ctx)
	require.NoError(t, err)

	env.clock.Advance(48 * time.Hour)
	env.redeem(t, "carol", env.code(t, "alice"))
	env.redeem(t, "dave", env.code(t, "alice"))

	// The captured day is returned as it was, not recomputed from current totals
	first, err := ParseDay("2024-05-01")
	require.NoError(t, err)
	stats, err := env.stats.GetDailyStats(ctx, first)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.SuccessfulReferrals)
	assert.EqualValues(t, 1, stats.RedeemedOnDay)

	// A past day that was never captured is not invented
	skipped, err := ParseDay("2024-05-02")
	require.NoError(t, err)
	_, err = env.stats.GetDailyStats(ctx, skipped)
	assert.ErrorIs(t, err, ErrNotFound)

	future, err := ParseDay("2030-01-01")
	require.NoError(t, err)
	_, err = env.stats.GetDailyStats(ctx, future)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, date := range []string{"2024-05-02", "2030-01-01"} {
		_, err := env.repo.GetDailyStats(ctx, date)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound, date)
	}
}

func TestAdminLogPaging(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	for _, value := range []int64{1, 2, 3} {
		_, err := env.configs.CreateOrReplace(ctx, models.RewardTypeSignup, value, "points", adminHandle)
		require.NoError(t, err)
	}

	page, err := env.admin.GetAdminLogs(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, float64(3), page[0].Details["reward_value"])

	rest, err := env.admin.GetAdminLogs(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, float64(1), rest[0].Details["reward_value"])
}

func mustUserID(t *testing.T, env *testEnv, handle string) uint {
	t.Helper()
	user, err := env.users.GetUserByHandle(context.Background(), handle)
	require.NoError(t, err)
	return user.ID
}
