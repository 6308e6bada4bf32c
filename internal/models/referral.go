package models

import (
	"time"
)

// Referral is a referral code owned by a referrer. It is outstanding until a
// redeemer is recorded on it, after which it never changes again.
type Referral struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Code           string     `gorm:"uniqueIndex;size:20;not null" json:"code"`
	ReferrerID     uint       `gorm:"not null;index;uniqueIndex:idx_referrals_outstanding,where:referred_user_id IS NULL" json:"referrer_id"`
	Referrer       *User      `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	ReferredUserID *uint      `gorm:"uniqueIndex" json:"referred_user_id,omitempty"`
	ReferredUser   *User      `gorm:"foreignKey:ReferredUserID" json:"referred_user,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UsedAt         *time.Time `gorm:"index" json:"used_at,omitempty"`
}

func (Referral) TableName() string {
	return "referrals"
}

// IsRedeemed reports whether a redeemer has been recorded
func (r *Referral) IsRedeemed() bool {
	return r.ReferredUserID != nil
}

// ReferralListItem is one row of a referrer's referral list
type ReferralListItem struct {
	ReferralID   uint       `json:"referral_id"`
	Code         string     `json:"code"`
	UsedByUserID *uint      `json:"used_by_user_id"`
	UsedByHandle *string    `json:"used_by_handle"`
	UsedAt       *time.Time `json:"used_at"`
	Status       string     `json:"status"` // SUCCESS, PENDING
}

// DailyCount is a number of events on a calendar day (YYYY-MM-DD)
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// LeaderboardEntry ranks a referrer by successful referrals
type LeaderboardEntry struct {
	ReferrerID          uint   `json:"user_id"`
	Handle              string `json:"handle"`
	SuccessfulReferrals int64  `json:"successful_referrals"`
}
