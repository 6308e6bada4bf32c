package repository

import (
	"context"

	"referral-rewards/internal/models"

	"gorm.io/gorm/clause"
)

// CreateAdminLog appends an audit entry
func (r *Repository) CreateAdminLog(ctx context.Context, entry *models.AdminLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListAdminLogs returns audit entries, newest first
func (r *Repository) ListAdminLogs(ctx context.Context, limit, offset int) ([]models.AdminLog, error) {
	var logs []models.AdminLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// UpsertDailyStats writes the snapshot for stats.Date, replacing any
// earlier snapshot of the same day.
func (r *Repository) UpsertDailyStats(ctx context.Context, stats *models.ReferralDailyStats) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_users",
			"total_referrals",
			"successful_referrals",
			"redeemed_on_day",
			"pending_rewards",
			"credited_rewards",
			"revoked_rewards",
			"credited_value",
			"conversion_rate",
			"updated_at",
		}),
	}).Create(stats).Error
}

// GetDailyStats retrieves the snapshot for a YYYY-MM-DD date
func (r *Repository) GetDailyStats(ctx context.Context, date string) (*models.ReferralDailyStats, error) {
	var stats models.ReferralDailyStats
	err := r.db.WithContext(ctx).Where("date = ?", date).First(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
