package models

import "time"

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TelegramID int64     `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Username   *string   `gorm:"size:64" json:"username,omitempty"`
	FirstName  *string   `gorm:"size:128" json:"first_name,omitempty"`
	LastName   *string   `gorm:"size:128" json:"last_name,omitempty"`
	ReferredBy *int64    `gorm:"column:referred_by;index" json:"referred_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"-"`
}

func (User) TableName() string {
	return "users"
}
