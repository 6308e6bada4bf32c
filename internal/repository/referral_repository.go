package repository

import (
	"context"
	"errors"
	"time"

	"referral-rewards/internal/models"

	"gorm.io/gorm"
)

// CreateReferral creates a new outstanding referral
func (r *Repository) CreateReferral(ctx context.Context, referral *models.Referral) error {
	return r.db.WithContext(ctx).Create(referral).Error
}

// GetReferralByCode retrieves a referral by its code
func (r *Repository) GetReferralByCode(ctx context.Context, code string) (*models.Referral, error) {
	var referral models.Referral
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&referral).Error
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

// GetOutstandingReferral retrieves the referrer's unredeemed referral
func (r *Repository) GetOutstandingReferral(ctx context.Context, referrerID uint) (*models.Referral, error) {
	var referral models.Referral
	err := r.db.WithContext(ctx).
		Where("referrer_id = ? AND referred_user_id IS NULL", referrerID).
		First(&referral).Error
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

// CodeExists reports whether any referral already uses code
func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Referral{}).Where("code = ?", code).Count(&n).Error
	return n > 0, err
}

// FindReferralOf returns the referral on which userID was recorded as the
// redeemer, or nil if the user has never been referred.
func (r *Repository) FindReferralOf(ctx context.Context, userID uint) (*models.Referral, error) {
	var referral models.Referral
	err := r.db.WithContext(ctx).Where("referred_user_id = ?", userID).First(&referral).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

// MarkRedeemed sets the redeemer only if the referral is still outstanding.
// It returns the number of rows changed (0 or 1).
func (r *Repository) MarkRedeemed(ctx context.Context, referralID, userID uint, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("id = ? AND referred_user_id IS NULL", referralID).
		Updates(map[string]interface{}{
			"referred_user_id": userID,
			"used_at":          at,
		})
	return result.RowsAffected, result.Error
}

// ListReferralsByReferrer returns all of a referrer's referrals, oldest first
func (r *Repository) ListReferralsByReferrer(ctx context.Context, referrerID uint) ([]models.Referral, error) {
	var referrals []models.Referral
	err := r.db.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Preload("ReferredUser").
		Order("created_at ASC, id ASC").
		Find(&referrals).Error
	if err != nil {
		return nil, err
	}
	return referrals, nil
}

// CountReferrals returns total and redeemed referral counts. A zero
// referrerID counts across all referrers.
func (r *Repository) CountReferrals(ctx context.Context, referrerID uint) (total int64, successful int64, err error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Referral{})
		if referrerID != 0 {
			q = q.Where("referrer_id = ?", referrerID)
		}
		return q
	}

	if err = base().Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = base().Where("referred_user_id IS NOT NULL").Count(&successful).Error; err != nil {
		return 0, 0, err
	}
	return total, successful, nil
}

// RedemptionTimesSince returns used_at of redemptions at or after since.
// A zero referrerID covers all referrers.
func (r *Repository) RedemptionTimesSince(ctx context.Context, referrerID uint, since time.Time) ([]time.Time, error) {
	var times []time.Time
	q := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("used_at IS NOT NULL AND used_at >= ?", since)
	if referrerID != 0 {
		q = q.Where("referrer_id = ?", referrerID)
	}
	if err := q.Order("used_at ASC").Pluck("used_at", &times).Error; err != nil {
		return nil, err
	}
	return times, nil
}

// ReferralCreationTimesSince returns created_at of referrals at or after since
func (r *Repository) ReferralCreationTimesSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Pluck("created_at", &times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}

// Leaderboard ranks referrers by redeemed referrals, ties broken by
// referrer id ascending. Referrers with no redemptions are only included
// when includeZero is set.
func (r *Repository) Leaderboard(ctx context.Context, limit int, includeZero bool) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	q := r.db.WithContext(ctx).Model(&models.Referral{}).
		Select("referrals.referrer_id AS referrer_id, users.handle AS handle, COUNT(referrals.referred_user_id) AS successful_referrals").
		Joins("JOIN users ON users.id = referrals.referrer_id").
		Group("referrals.referrer_id, users.handle")
	if !includeZero {
		q = q.Having("COUNT(referrals.referred_user_id) > 0")
	}
	err := q.Order("successful_referrals DESC, referrals.referrer_id ASC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
