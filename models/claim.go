package models

import "time"

// GiftClaim is the per (user, gift kind) claim record. The row is created on
// the first granted claim and updated in place on later ones; LastClaimAt
// drives the cooldown window.
type GiftClaim struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserTelegramID int64     `gorm:"uniqueIndex:idx_gift_claims_user_gift;not null" json:"user_telegram_id"`
	GiftKind       string    `gorm:"size:32;uniqueIndex:idx_gift_claims_user_gift;not null" json:"gift_kind"`
	GrantedCount   int64     `gorm:"not null;default:0" json:"granted_count"`
	LastClaimAt    time.Time `gorm:"not null" json:"last_claim_at"`
	Receipt        string    `gorm:"size:36;not null" json:"receipt"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"-"`
}

func (GiftClaim) TableName() string {
	return "gift_claims"
}

// TaskClaim is insert-once: the unique index doubles as the idempotency
// guard against double-granting a task reward.
type TaskClaim struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserTelegramID int64     `gorm:"uniqueIndex:idx_task_claims_user_task;not null" json:"user_telegram_id"`
	TaskKind       string    `gorm:"size:32;uniqueIndex:idx_task_claims_user_task;not null" json:"task_kind"`
	Receipt        string    `gorm:"size:36;not null" json:"receipt"`
	ClaimedAt      time.Time `gorm:"not null" json:"claimed_at"`
}

func (TaskClaim) TableName() string {
	return "task_claims"
}
