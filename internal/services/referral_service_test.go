package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-rewards/internal/models"
	"referral-rewards/internal/utils"
)

func TestGetOrCreateCodeIsStable(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user, first, err := env.referrals.GetOrCreateCode(ctx, "alice")
	require.NoError(t, err)
	_, second, err := env.referrals.GetOrCreateCode(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, user.ID, first.ReferrerID)
	assert.True(t, utils.IsValidReferralCode(first.Code))
	assert.Equal(t, env.clock.Now(), first.CreatedAt.UTC())
}

func TestGetOrCreateCodeConcurrent(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	const workers = 6
	codes := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, referral, err := env.referrals.GetOrCreateCode(ctx, "alice")
			errs[i] = err
			if err == nil {
				codes[i] = referral.Code
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, codes[0], codes[i])
	}

	total, _, err := env.repo.CountReferrals(ctx, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestCodesAreUniqueAcrossReferrers(t *testing.T) {
	env := setupTestEnv(t)

	seen := make(map[string]bool)
	for _, handle := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		code := env.code(t, handle)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestNewCodeAfterRedemption(t *testing.T) {
	env := setupTestEnv(t)

	first := env.code(t, "alice")
	env.redeem(t, "bob", first)

	second := env.code(t, "alice")
	assert.NotEqual(t, first, second)
	assert.Equal(t, second, env.code(t, "alice"))
}

func TestRedeemScenario(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.setSignupReward(t, 100)

	code := env.code(t, "alice")
	outcome := env.redeem(t, "bob", code)

	require.NotNil(t, outcome.Referral.ReferredUserID)
	assert.Equal(t, outcome.Redeemer.ID, *outcome.Referral.ReferredUserID)
	assert.Equal(t, "alice", outcome.Referrer.Handle)
	require.NotNil(t, outcome.Reward)
	assert.Equal(t, outcome.Referrer.ID, outcome.Reward.UserID)
	assert.EqualValues(t, 100, outcome.Reward.RewardValue)
	assert.Equal(t, "points", outcome.Reward.RewardUnit)
	assert.Equal(t, models.RewardStatusPending, outcome.Reward.Status)

	credited, err := env.rewards.Credit(ctx, outcome.Reward.ID, adminHandle)
	require.NoError(t, err)
	assert.Equal(t, models.RewardStatusCredited, credited.Status)

	summary, err := env.rewards.Summary(ctx, outcome.Referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RewardSummary{TotalEarned: 100, Pending: 0, Credited: 100, Unit: "points"}, *summary)

	_, err = env.rewards.Credit(ctx, outcome.Reward.ID, adminHandle)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.referrals.Redeem(ctx, "carol", code)
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
}

func TestRedeemSelfReferral(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.setSignupReward(t, 100)

	code := env.code(t, "alice")
	_, err := env.referrals.Redeem(ctx, "alice", code)
	assert.ErrorIs(t, err, ErrSelfReferral)

	referral, err := env.repo.GetReferralByCode(ctx, code)
	require.NoError(t, err)
	assert.False(t, referral.IsRedeemed())

	history, err := env.rewards.History(ctx, referral.ReferrerID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRedeemAlreadyReferred(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.redeem(t, "bob", env.code(t, "alice"))

	_, err := env.referrals.Redeem(ctx, "bob", env.code(t, "carol"))
	assert.ErrorIs(t, err, ErrAlreadyReferred)
}

func TestRedeemUnknownCode(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.referrals.Redeem(context.Background(), "bob", "SVH-NOPE0000")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "referral code", nf.Resource)

	_, err = env.referrals.Redeem(context.Background(), "bob", "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRedeemNormalizesCode(t *testing.T) {
	env := setupTestEnv(t)

	code := env.code(t, "alice")
	outcome := env.redeem(t, "bob", "  "+strings.ToLower(code)+" ")
	assert.Equal(t, code, outcome.Referral.Code)
}

func TestRedeemWithoutActiveConfig(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	outcome := env.redeem(t, "bob", env.code(t, "alice"))
	assert.Nil(t, outcome.Reward)
	assert.True(t, outcome.Referral.IsRedeemed())

	env.setSignupReward(t, 100)
	require.NoError(t, env.configs.Deactivate(ctx, models.RewardTypeSignup, adminHandle))

	outcome = env.redeem(t, "carol", env.code(t, "alice"))
	assert.Nil(t, outcome.Reward)
}

func TestRedeemSnapshotsConfigValue(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.setSignupReward(t, 100)

	first := env.redeem(t, "bob", env.code(t, "alice"))

	_, err := env.configs.CreateOrReplace(ctx, models.RewardTypeSignup, 250, "credits", adminHandle)
	require.NoError(t, err)
	second := env.redeem(t, "carol", env.code(t, "alice"))

	stored, err := env.rewards.Get(ctx, first.Reward.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 100, stored.RewardValue)
	assert.Equal(t, "points", stored.RewardUnit)

	assert.EqualValues(t, 250, second.Reward.RewardValue)
	assert.Equal(t, "credits", second.Reward.RewardUnit)
}

func TestRedeemConcurrentSameCode(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.setSignupReward(t, 100)

	code := env.code(t, "alice")
	redeemers := []string{"r1", "r2", "r3", "r4", "r5", "r6"}
	errs := make([]error, len(redeemers))

	var wg sync.WaitGroup
	for i, handle := range redeemers {
		wg.Add(1)
		go func(i int, handle string) {
			defer wg.Done()
			_, errs[i] = env.referrals.Redeem(ctx, handle, code)
		}(i, handle)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyRedeemed)
	}
	assert.Equal(t, 1, successes)

	referral, err := env.repo.GetReferralByCode(ctx, code)
	require.NoError(t, err)
	history, err := env.rewards.History(ctx, referral.ReferrerID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRedeemConcurrentSameRedeemer(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	codes := []string{env.code(t, "alice"), env.code(t, "carol"), env.code(t, "dave")}
	errs := make([]error, len(codes))

	var wg sync.WaitGroup
	for i, code := range codes {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			_, errs[i] = env.referrals.Redeem(ctx, "bob", code)
		}(i, code)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyReferred)
	}
	assert.Equal(t, 1, successes)
}

func TestMySummary(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.redeem(t, "bob", env.code(t, "alice"))
	env.redeem(t, "carol", env.code(t, "alice"))
	outstanding := env.code(t, "alice")

	summary, err := env.referrals.MySummary(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, outstanding, summary.Code)
	assert.EqualValues(t, 3, summary.TotalReferrals)
	assert.EqualValues(t, 2, summary.SuccessfulReferrals)
	assert.True(t, decimal.RequireFromString("66.67").Equal(summary.ConversionRate.Round(2)))
}

func TestListReferrals(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	used := env.code(t, "alice")
	env.clock.Advance(time.Minute)
	env.redeem(t, "bob", used)
	env.clock.Advance(time.Minute)
	open := env.code(t, "alice")

	alice, err := env.users.GetUserByHandle(ctx, "alice")
	require.NoError(t, err)
	items, err := env.referrals.ListReferrals(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, used, items[0].Code)
	assert.Equal(t, "SUCCESS", items[0].Status)
	require.NotNil(t, items[0].UsedByHandle)
	assert.Equal(t, "bob", *items[0].UsedByHandle)

	assert.Equal(t, open, items[1].Code)
	assert.Equal(t, "PENDING", items[1].Status)
	assert.Nil(t, items[1].UsedByUserID)
}

func TestTimeline(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.redeem(t, "bob", env.code(t, "alice"))
	env.clock.Advance(24 * time.Hour)
	env.redeem(t, "carol", env.code(t, "alice"))
	env.redeem(t, "dave", env.code(t, "alice"))

	alice, err := env.users.GetUserByHandle(ctx, "alice")
	require.NoError(t, err)

	timeline, err := env.referrals.Timeline(ctx, alice.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, []models.DailyCount{
		{Date: "2024-05-01", Count: 1},
		{Date: "2024-05-02", Count: 2},
	}, timeline)

	timeline, err = env.referrals.Timeline(ctx, alice.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.DailyCount{{Date: "2024-05-02", Count: 2}}, timeline)

	_, err = env.referrals.Timeline(ctx, alice.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
