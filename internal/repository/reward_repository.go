package repository

import (
	"context"

	"referral-rewards/internal/models"

	"gorm.io/gorm/clause"
)

// CreateReward inserts a reward ledger entry
func (r *Repository) CreateReward(ctx context.Context, reward *models.RewardLedger) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

// GetReward retrieves a reward ledger entry by ID
func (r *Repository) GetReward(ctx context.Context, rewardID uint) (*models.RewardLedger, error) {
	var reward models.RewardLedger
	err := r.db.WithContext(ctx).Where("id = ?", rewardID).First(&reward).Error
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

// TransitionReward applies updates only while the entry's status is one of
// from. It returns the number of rows changed (0 or 1).
func (r *Repository) TransitionReward(
	ctx context.Context,
	rewardID uint,
	from []models.RewardStatus,
	updates map[string]interface{},
) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.RewardLedger{}).
		Where("id = ? AND status IN ?", rewardID, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// ListRewardsByUser returns a user's ledger entries, newest first
func (r *Repository) ListRewardsByUser(ctx context.Context, userID uint) ([]models.RewardLedger, error) {
	var rewards []models.RewardLedger
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rewards).Error
	if err != nil {
		return nil, err
	}
	return rewards, nil
}

// RewardStatusTotals is the count and summed value of entries in one status
type RewardStatusTotals struct {
	Status models.RewardStatus
	Count  int64
	Value  int64
}

// RewardTotalsByStatus aggregates the whole ledger per status
func (r *Repository) RewardTotalsByStatus(ctx context.Context) (map[models.RewardStatus]RewardStatusTotals, error) {
	var rows []RewardStatusTotals
	err := r.db.WithContext(ctx).Model(&models.RewardLedger{}).
		Select("status, COUNT(*) AS count, CAST(COALESCE(SUM(reward_value), 0) AS BIGINT) AS value").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[models.RewardStatus]RewardStatusTotals, len(rows))
	for _, row := range rows {
		totals[row.Status] = row
	}
	return totals, nil
}

// GetConfig retrieves the config row for a reward type, active or not
func (r *Repository) GetConfig(ctx context.Context, rewardType string) (*models.RewardConfig, error) {
	var cfg models.RewardConfig
	err := r.db.WithContext(ctx).Where("reward_type = ?", rewardType).First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetActiveConfig retrieves the active config for a reward type
func (r *Repository) GetActiveConfig(ctx context.Context, rewardType string) (*models.RewardConfig, error) {
	var cfg models.RewardConfig
	err := r.db.WithContext(ctx).
		Where("reward_type = ? AND is_active = ?", rewardType, true).
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpsertConfig inserts cfg or replaces value and unit of the existing row
// for the same reward type, reactivating it.
func (r *Repository) UpsertConfig(ctx context.Context, cfg *models.RewardConfig) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "reward_type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"reward_value": cfg.RewardValue,
			"reward_unit":  cfg.RewardUnit,
			"is_active":    true,
			"updated_at":   cfg.UpdatedAt,
		}),
	}).Create(cfg).Error
}

// InsertConfigIfAbsent inserts cfg unless a row for its reward type exists.
// It reports whether this call created the row.
func (r *Repository) InsertConfigIfAbsent(ctx context.Context, cfg *models.RewardConfig) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reward_type"}},
		DoNothing: true,
	}).Create(cfg)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ReactivateConfig replaces value and unit of an inactive config row and
// marks it active. It returns rows changed; 0 means the row is already active.
func (r *Repository) ReactivateConfig(ctx context.Context, cfg *models.RewardConfig) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.RewardConfig{}).
		Where("reward_type = ? AND is_active = ?", cfg.RewardType, false).
		Updates(map[string]interface{}{
			"reward_value": cfg.RewardValue,
			"reward_unit":  cfg.RewardUnit,
			"is_active":    true,
			"updated_at":   cfg.UpdatedAt,
		})
	return result.RowsAffected, result.Error
}

// DeactivateConfig marks a reward type inactive. It returns rows changed.
func (r *Repository) DeactivateConfig(ctx context.Context, rewardType string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.RewardConfig{}).
		Where("reward_type = ? AND is_active = ?", rewardType, true).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

// ListConfigs returns configs ordered by reward type
func (r *Repository) ListConfigs(ctx context.Context, activeOnly bool) ([]models.RewardConfig, error) {
	var configs []models.RewardConfig
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("reward_type ASC").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}
