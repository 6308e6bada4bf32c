package models

import (
	"time"
)

type RewardStatus string

const (
	RewardStatusPending  RewardStatus = "PENDING"
	RewardStatusCredited RewardStatus = "CREDITED"
	RewardStatusRevoked  RewardStatus = "REVOKED"
)

const (
	RewardTypeSignup        = "SIGNUP"
	RewardTypeConversion    = "CONVERSION"
	RewardTypePremiumSignup = "PREMIUM_SIGNUP"
)

// RewardConfig is the value paid out for a reward-triggering event
type RewardConfig struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RewardType  string    `gorm:"uniqueIndex;size:50;not null" json:"reward_type"`
	RewardValue int64     `gorm:"not null" json:"reward_value"`
	RewardUnit  string    `gorm:"size:20;not null;default:points" json:"reward_unit"`
	IsActive    bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (RewardConfig) TableName() string {
	return "reward_configs"
}

// RewardLedger is one reward owed to a user. Value and unit are snapshots of
// the config at creation time.
type RewardLedger struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UserID      uint         `gorm:"not null;index" json:"user_id"`
	User        *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ReferralID  uint         `gorm:"not null;uniqueIndex" json:"referral_id"`
	Referral    *Referral    `gorm:"foreignKey:ReferralID" json:"referral,omitempty"`
	RewardType  string       `gorm:"size:50;not null" json:"reward_type"`
	RewardValue int64        `gorm:"not null" json:"reward_value"`
	RewardUnit  string       `gorm:"size:20;not null" json:"reward_unit"`
	Status      RewardStatus `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
	CreditedAt  *time.Time   `json:"credited_at,omitempty"`
	RevokedAt   *time.Time   `json:"revoked_at,omitempty"`
}

func (RewardLedger) TableName() string {
	return "reward_ledger"
}

// RewardSummary aggregates a user's non-revoked rewards
type RewardSummary struct {
	TotalEarned int64  `json:"total_earned"`
	Pending     int64  `json:"pending"`
	Credited    int64  `json:"credited"`
	Unit        string `json:"unit"`
}
