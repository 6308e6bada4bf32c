package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"referral-rewards/internal/config"
	"referral-rewards/internal/database"
	"referral-rewards/internal/models"
	"referral-rewards/internal/repository"
)

const adminHandle = "root"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start.UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	repo      *repository.Repository
	clock     *fakeClock
	users     *UserService
	referrals *ReferralService
	rewards   *RewardService
	configs   *RewardConfigService
	stats     *StatsService
	admin     *AdminService
}

func setupTestRepo(t *testing.T) *repository.Repository {
	t.Helper()

	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "referrals.db"),
		LogLevel: "silent",
	}}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewRepository(db)
}

func setupTestEnv(t *testing.T) *testEnv {
	return setupTestEnvWithPolicy(t, false)
}

func setupTestEnvWithPolicy(t *testing.T, rejectDuplicates bool) *testEnv {
	t.Helper()

	repo := setupTestRepo(t)
	clock := newFakeClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	users := NewUserService(repo)

	return &testEnv{
		repo:      repo,
		clock:     clock,
		users:     users,
		referrals: NewReferralService(repo, users, models.RewardTypeSignup).WithClock(clock.Now),
		rewards:   NewRewardService(repo, "points").WithClock(clock.Now),
		configs:   NewRewardConfigService(repo, "points", rejectDuplicates).WithClock(clock.Now),
		stats:     NewStatsService(repo).WithClock(clock.Now),
		admin:     NewAdminService(repo),
	}
}

func (e *testEnv) setSignupReward(t *testing.T, value int64) {
	t.Helper()
	_, err := e.configs.CreateOrReplace(context.Background(), models.RewardTypeSignup, value, "points", adminHandle)
	require.NoError(t, err)
}

func (e *testEnv) code(t *testing.T, handle string) string {
	t.Helper()
	_, referral, err := e.referrals.GetOrCreateCode(context.Background(), handle)
	require.NoError(t, err)
	return referral.Code
}

func (e *testEnv) redeem(t *testing.T, redeemer, code string) *RedeemOutcome {
	t.Helper()
	outcome, err := e.referrals.Redeem(context.Background(), redeemer, code)
	require.NoError(t, err)
	return outcome
}
