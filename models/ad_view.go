package models

import "time"

// AdView accumulates rewarded ad impressions credited toward one gift kind.
// Views only ever moves up through the atomic increment in the watch-ad
// handler, and back to zero when a claim is granted.
type AdView struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserTelegramID int64     `gorm:"uniqueIndex:idx_ad_views_user_gift;not null" json:"user_telegram_id"`
	GiftKind       string    `gorm:"size:32;uniqueIndex:idx_ad_views_user_gift;not null" json:"gift_kind"`
	Views          int64     `gorm:"not null;default:0" json:"views"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (AdView) TableName() string {
	return "ad_views"
}
