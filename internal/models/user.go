package models

import (
	"time"
)

// User represents a participant in the referral program
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Handle    string    `gorm:"uniqueIndex;size:64;not null" json:"handle"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
