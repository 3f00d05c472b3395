package miniapp

import (
	"errors"
	"net/http"
	"time"

	"giftapp/eligibility"
	"giftapp/models"
	"giftapp/monitoring"
	"giftapp/utils"

	"gorm.io/gorm"
)

// handleClaimTask grants a one-time task reward. Tasks skip the ad-view and
// cooldown checks but are strictly once per (user, task): the check runs
// inside the transaction and the unique index backs it up against races.
func (c *Controller) handleClaimTask(w http.ResponseWriter, r *http.Request, req *actionRequest) {
	now := time.Now()
	var decision eligibility.Decision
	var receipt string

	err := c.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var existing models.TaskClaim
		alreadyClaimed := true
		err := tx.Where("user_telegram_id = ? AND task_kind = ?", req.UserID, req.Task).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			alreadyClaimed = false
		} else if err != nil {
			return err
		}

		invites, err := activeInviteCount(tx, req.UserID, now)
		if err != nil {
			return err
		}

		decision = eligibility.EvaluateTaskClaim(req.Task, eligibility.TaskSnapshot{
			ActiveInvites:  invites,
			AlreadyClaimed: alreadyClaimed,
		})
		if !decision.Allowed {
			return nil
		}

		receipt = utils.GenerateReceipt()
		return tx.Create(&models.TaskClaim{
			UserTelegramID: req.UserID,
			TaskKind:       req.Task,
			Receipt:        receipt,
			ClaimedAt:      now,
		}).Error
	})
	if err != nil {
		logStorageErr("claim-task", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	if !decision.Allowed {
		writeClaimRejection(w, "claim-task", decision)
		return
	}

	monitoring.ActionsTotal.WithLabelValues("claim-task", "ok").Inc()
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Task reward claimed",
		Data: map[string]interface{}{
			"task":    req.Task,
			"receipt": receipt,
		},
	})
}
