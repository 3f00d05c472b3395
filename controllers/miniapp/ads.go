package miniapp

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"giftapp/eligibility"
	"giftapp/models"
	"giftapp/monitoring"
	"giftapp/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// handleWatchAd credits one rewarded ad view toward (user, gift). The
// increment is a single conditional upsert on the storage side; the handler
// never builds SQL fragments by hand.
func (c *Controller) handleWatchAd(w http.ResponseWriter, r *http.Request, req *actionRequest) {
	if !eligibility.KnownGift(req.Gift) {
		monitoring.ActionsTotal.WithLabelValues("watch-ad", "rejected").Inc()
		utils.WriteRejection(w, http.StatusBadRequest, "Unknown gift kind", "ValidationError", nil)
		return
	}

	// Throttle repeat credits from the same user+gift. Redis when
	// configured so replicas share state, in-process map otherwise.
	if !c.allowAdView(r, req.UserID, req.Gift) {
		// Still a success for the front end; the view is just not counted.
		monitoring.ActionsTotal.WithLabelValues("watch-ad", "throttled").Inc()
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
			Success: true,
			Message: "Ad view recorded",
			Data:    map[string]interface{}{"counted": false},
		})
		return
	}

	views, err := incrementAdViews(c.DB.WithContext(r.Context()), req.UserID, req.Gift)
	if err != nil {
		logStorageErr("watch-ad", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	monitoring.ActionsTotal.WithLabelValues("watch-ad", "ok").Inc()
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Ad view recorded",
		Data: map[string]interface{}{
			"counted":   true,
			"views":     views,
			"threshold": eligibility.AdViewThreshold(req.Gift),
		},
	})
}

// incrementAdViews performs the atomic increment-and-fetch for one ad-view
// counter, creating the row lazily on first view.
func incrementAdViews(db *gorm.DB, telegramID int64, gift string) (int64, error) {
	row := models.AdView{UserTelegramID: telegramID, GiftKind: gift, Views: 1}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_telegram_id"}, {Name: "gift_kind"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"views": gorm.Expr("views + ?", 1), "updated_at": time.Now()}),
	}).Create(&row).Error
	if err != nil {
		return 0, err
	}

	var current models.AdView
	if err := db.Where("user_telegram_id = ? AND gift_kind = ?", telegramID, gift).First(&current).Error; err != nil {
		return 0, err
	}
	return current.Views, nil
}

// allowAdView enforces the minimum interval between credited views.
func (c *Controller) allowAdView(r *http.Request, telegramID int64, gift string) bool {
	interval := c.Cfg.AdViewMinInterval
	if interval <= 0 {
		return true
	}
	key := fmt.Sprintf("adview:%d:%s", telegramID, gift)

	if c.RDB != nil {
		ok, err := c.RDB.SetNX(r.Context(), key, 1, interval).Result()
		if err == nil {
			return ok
		}
		log.Printf("[watch-ad] redis throttle error, falling back: %v", err)
	}

	now := time.Now()
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()
	if last, ok := c.throttle[key]; ok && now.Sub(last) < interval {
		return false
	}
	if len(c.throttle) >= throttleSweepSize {
		for k, last := range c.throttle {
			if now.Sub(last) >= interval {
				delete(c.throttle, k)
			}
		}
	}
	c.throttle[key] = now
	return true
}

// throttleSweepSize caps the fallback throttle map: once it grows to this
// many entries, expired ones are swept before the next insert.
const throttleSweepSize = 4096
