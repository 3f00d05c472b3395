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
	"gorm.io/gorm/clause"
)

// errClaimRaceLost marks a first claim that lost the insert race to a
// concurrent transaction for the same (user, gift).
var errClaimRaceLost = errors.New("claim row created concurrently")

// handleClaim grants a gift when the eligibility engine allows it. The
// snapshot read, the decision, and the mutation all run inside one
// transaction with the claim row locked, so a concurrent double-claim for
// the same (user, gift) serializes and the loser lands in the cooldown.
// On a first-ever claim there is no row to lock yet; the insert uses
// ON CONFLICT DO NOTHING and a zero-row result means another transaction
// won, which also resolves to the cooldown rejection.
func (c *Controller) handleClaim(w http.ResponseWriter, r *http.Request, req *actionRequest) {
	if !eligibility.KnownGift(req.Gift) {
		monitoring.ActionsTotal.WithLabelValues("claim", "rejected").Inc()
		utils.WriteRejection(w, http.StatusBadRequest, "Unknown gift kind", "ValidationError", nil)
		return
	}

	now := time.Now()
	var decision eligibility.Decision
	var receipt string
	var granted int64

	err := c.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var claim models.GiftClaim
		claimExists := true
		err := lockForUpdate(tx).
			Where("user_telegram_id = ? AND gift_kind = ?", req.UserID, req.Gift).
			First(&claim).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			claimExists = false
		} else if err != nil {
			return err
		}

		var adView models.AdView
		if err := tx.Where("user_telegram_id = ? AND gift_kind = ?", req.UserID, req.Gift).First(&adView).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		invites, err := activeInviteCount(tx, req.UserID, now)
		if err != nil {
			return err
		}

		snap := eligibility.ClaimSnapshot{
			AdViews:       adView.Views,
			ActiveInvites: invites,
		}
		if claimExists {
			last := claim.LastClaimAt
			snap.LastClaimAt = &last
		}

		decision = eligibility.EvaluateClaim(req.Gift, snap, now)
		if !decision.Allowed {
			return nil
		}

		// Apply the engine's mutation: reset views, bump grant counter,
		// restart the cooldown.
		m := decision.Mutation
		if err := tx.Model(&models.AdView{}).
			Where("user_telegram_id = ? AND gift_kind = ?", req.UserID, req.Gift).
			Update("views", m.ResetAdViews).Error; err != nil {
			return err
		}

		receipt = utils.GenerateReceipt()
		if claimExists {
			claim.GrantedCount += m.GrantInc
			claim.LastClaimAt = m.LastClaimAt
			claim.Receipt = receipt
			if err := tx.Save(&claim).Error; err != nil {
				return err
			}
			granted = claim.GrantedCount
		} else {
			claim = models.GiftClaim{
				UserTelegramID: req.UserID,
				GiftKind:       req.Gift,
				GrantedCount:   m.GrantInc,
				LastClaimAt:    m.LastClaimAt,
				Receipt:        receipt,
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&claim)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errClaimRaceLost
			}
			granted = claim.GrantedCount
		}
		return nil
	})
	if errors.Is(err, errClaimRaceLost) {
		// The winner's claim committed moments ago; report it the same
		// way as any other fresh claim.
		lost := now
		decision = eligibility.EvaluateClaim(req.Gift, eligibility.ClaimSnapshot{LastClaimAt: &lost}, now)
		writeClaimRejection(w, "claim", decision)
		return
	}
	if err != nil {
		logStorageErr("claim", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	if !decision.Allowed {
		writeClaimRejection(w, "claim", decision)
		return
	}

	monitoring.ActionsTotal.WithLabelValues("claim", "ok").Inc()
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Claimed",
		Data: map[string]interface{}{
			"gift":          req.Gift,
			"receipt":       receipt,
			"granted_count": granted,
		},
	})
}

// lockForUpdate adds FOR UPDATE on engines that support it. The sqlite
// driver used in tests has no row locks; its single-writer model covers the
// same race there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// writeClaimRejection maps an engine rejection to the HTTP response,
// carrying the reason code and the specific deficit where one exists.
func writeClaimRejection(w http.ResponseWriter, action string, d eligibility.Decision) {
	monitoring.ActionsTotal.WithLabelValues(action, "rejected").Inc()
	monitoring.ClaimRejectionsTotal.WithLabelValues(string(d.Reason)).Inc()

	extra := map[string]interface{}{}
	var message string
	switch d.Reason {
	case eligibility.ReasonCooldownActive:
		message = "Claim cooldown is still active"
		extra["retry_after_seconds"] = int64(d.RetryAfter.Seconds())
	case eligibility.ReasonInsufficientAdViews:
		message = "Not enough ad views yet"
		extra["deficit"] = d.Deficit
	case eligibility.ReasonInsufficientInvites:
		message = "Not enough active invites"
		extra["required"] = eligibility.RequiredActiveInvites
	case eligibility.ReasonAlreadyClaimed:
		message = "Task reward already claimed"
	case eligibility.ReasonUnknownTask:
		message = "Unknown task"
	default:
		message = "Claim rejected"
	}
	utils.WriteRejection(w, http.StatusBadRequest, message, string(d.Reason), extra)
}
