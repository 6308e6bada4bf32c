package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"referral-rewards/internal/models"
)

// Snapshotter stores the totals snapshot for the current day
type Snapshotter interface {
	SnapshotToday(ctx context.Context) (*models.ReferralDailyStats, error)
}

// StatsSnapshotJob periodically refreshes today's referral_daily_stats row
type StatsSnapshotJob struct {
	stats     Snapshotter
	interval  time.Duration
	timeout   time.Duration
	scheduler gocron.Scheduler
}

// NewStatsSnapshotJob creates a new snapshot job
func NewStatsSnapshotJob(stats Snapshotter, interval time.Duration) *StatsSnapshotJob {
	return &StatsSnapshotJob{
		stats:    stats,
		interval: interval,
		timeout:  time.Minute,
	}
}

// Start schedules the job, running the first snapshot immediately
func (j *StatsSnapshotJob) Start() error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(j.RunOnce),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule stats snapshot: %w", err)
	}

	sched.Start()
	j.scheduler = sched
	log.Printf("[StatsSnapshot] Started (interval: %v)", j.interval)
	return nil
}

// Stop waits for a running snapshot and shuts the scheduler down
func (j *StatsSnapshotJob) Stop() error {
	if j.scheduler == nil {
		return nil
	}
	log.Println("[StatsSnapshot] Stopping")
	err := j.scheduler.Shutdown()
	j.scheduler = nil
	return err
}

// RunOnce snapshots the current day
func (j *StatsSnapshotJob) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	stats, err := j.stats.SnapshotToday(ctx)
	if err != nil {
		log.Printf("[StatsSnapshot] Error: %v", err)
		return
	}
	log.Printf("[StatsSnapshot] %s: %d users, %d/%d referrals redeemed",
		stats.Date, stats.TotalUsers, stats.SuccessfulReferrals, stats.TotalReferrals)
}
