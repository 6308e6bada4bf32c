package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// JSONB stores a JSON object in a text/jsonb column
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}
	return json.Unmarshal(raw, j)
}

const (
	AdminActionCreditReward     = "CREDIT_REWARD"
	AdminActionRevokeReward     = "REVOKE_REWARD"
	AdminActionUpsertConfig     = "UPSERT_REWARD_CONFIG"
	AdminActionDeactivateConfig = "DEACTIVATE_REWARD_CONFIG"
)

// AdminLog records admin actions for audit trail
type AdminLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AdminHandle  string    `gorm:"size:64;not null;index" json:"admin_handle"`
	Action       string    `gorm:"size:100;not null" json:"action"`
	ResourceType string    `gorm:"size:50" json:"resource_type"`
	ResourceID   *uint     `json:"resource_id"`
	Details      JSONB     `gorm:"type:text" json:"details"`
	CreatedAt    time.Time `json:"created_at"`
}

func (AdminLog) TableName() string {
	return "admin_logs"
}

// ReferralDailyStats stores a daily snapshot of program totals
type ReferralDailyStats struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	Date                string          `gorm:"uniqueIndex;size:10;not null" json:"date"` // YYYY-MM-DD
	TotalUsers          int64           `gorm:"default:0" json:"total_users"`
	TotalReferrals      int64           `gorm:"default:0" json:"total_referrals"`
	SuccessfulReferrals int64           `gorm:"default:0" json:"successful_referrals"`
	RedeemedOnDay       int64           `gorm:"default:0" json:"redeemed_on_day"`
	PendingRewards      int64           `gorm:"default:0" json:"pending_rewards"`
	CreditedRewards     int64           `gorm:"default:0" json:"credited_rewards"`
	RevokedRewards      int64           `gorm:"default:0" json:"revoked_rewards"`
	CreditedValue       int64           `gorm:"default:0" json:"credited_value"`
	ConversionRate      decimal.Decimal `gorm:"type:decimal(6,2);default:0" json:"conversion_rate"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func (ReferralDailyStats) TableName() string {
	return "referral_daily_stats"
}

// Dashboard holds program-wide counts for the admin view
type Dashboard struct {
	TotalUsers          int64           `json:"total_users"`
	TotalReferrals      int64           `json:"total_referrals"`
	SuccessfulReferrals int64           `json:"successful_referrals"`
	ConversionRate      decimal.Decimal `json:"conversion_rate"`
	TotalRewards        int64           `json:"total_rewards"`
	PendingRewards      int64           `json:"pending_rewards"`
	CreditedRewards     int64           `json:"credited_rewards"`
	RevokedRewards      int64           `json:"revoked_rewards"`
	TotalRewardValue    int64           `json:"total_reward_value"`
}
