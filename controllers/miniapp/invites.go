package miniapp

import (
	"net/http"
	"time"

	"giftapp/eligibility"
	"giftapp/models"
	"giftapp/monitoring"
	"giftapp/utils"

	"gorm.io/gorm"
)

// handleInviteStats reports total/active/pending invites for a user. Stats
// are derived on read from the referred users' registration times; nothing
// is stored.
func (c *Controller) handleInviteStats(w http.ResponseWriter, r *http.Request, req *actionRequest) {
	var registeredAt []time.Time
	err := c.DB.WithContext(r.Context()).
		Model(&models.User{}).
		Where("referred_by = ?", req.UserID).
		Pluck("created_at", &registeredAt).Error
	if err != nil {
		logStorageErr("invite-stats", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	stats := eligibility.ComputeInviteStats(registeredAt, time.Now())
	monitoring.ActionsTotal.WithLabelValues("invite-stats", "ok").Inc()
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: stats})
}

// activeInviteCount is the storage-side counterpart of the read stats: one
// COUNT under the activity policy, usable inside claim transactions.
func activeInviteCount(db *gorm.DB, telegramID int64, now time.Time) (int64, error) {
	var n int64
	cutoff := now.Add(-eligibility.ActiveInviteMinAge)
	err := db.Model(&models.User{}).
		Where("referred_by = ? AND created_at <= ?", telegramID, cutoff).
		Count(&n).Error
	return n, err
}
