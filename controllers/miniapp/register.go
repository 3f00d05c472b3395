package miniapp

import (
	"errors"
	"log"
	"net/http"
	"time"

	"giftapp/models"
	"giftapp/monitoring"
	"giftapp/telegram"
	"giftapp/utils"

	"gorm.io/gorm"
)

// handleRegister creates the user on first launch. Registration is
// idempotent: a repeat register for the same Telegram id is a no-op success.
func (c *Controller) handleRegister(w http.ResponseWriter, r *http.Request, req *actionRequest) {
	// Maintenance / closed-registration flags
	var setting models.Setting
	if err := c.DB.WithContext(r.Context()).Select("closed_register, maintenance, name").Take(&setting).Error; err == nil {
		if setting.Maintenance {
			utils.WriteJSON(w, http.StatusServiceUnavailable, utils.APIResponse{
				Success: false,
				Message: "Service is under maintenance, try again later",
				Data:    map[string]interface{}{"maintenance": true},
			})
			return
		}
		if setting.ClosedRegister {
			utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{
				Success: false,
				Message: "Registration is currently closed",
				Data:    map[string]interface{}{"closed_register": true},
			})
			return
		}
	}

	if c.Cfg.VerifyInitData {
		if c.Cfg.BotToken == "" {
			// Configuration error, not a normal rejection; surfaced to
			// operators and never silently treated as success.
			log.Printf("[register] initData verification enabled but bot token missing")
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server misconfigured"})
			return
		}
		err := telegram.VerifyInitDataAt(req.InitData, c.Cfg.BotToken, c.Cfg.InitDataMaxAge, time.Now())
		if err != nil {
			if errors.Is(err, telegram.ErrNoBotToken) {
				log.Printf("[register] initData verification misconfigured: %v", err)
				utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server misconfigured"})
				return
			}
			monitoring.ActionsTotal.WithLabelValues("register", "unauthorized").Inc()
			utils.WriteRejection(w, http.StatusUnauthorized, "Invalid initData", "InvalidInitData", nil)
			return
		}
		// The signed payload is authoritative for the user identity when
		// it carries one; a mismatched userId is a forgery attempt.
		if parsed, err := telegram.ParseInitData(req.InitData); err == nil && parsed.User != nil {
			if parsed.User.ID != req.UserID {
				utils.WriteRejection(w, http.StatusUnauthorized, "Invalid initData", "InvalidInitData", nil)
				return
			}
			if req.Username == "" {
				req.Username = parsed.User.Username
			}
			if req.FirstName == "" {
				req.FirstName = parsed.User.FirstName
			}
			if req.LastName == "" {
				req.LastName = parsed.User.LastName
			}
		}
	}

	db := c.DB.WithContext(r.Context())

	// Referrer handling: weak reference, silently dropped when it does not
	// resolve to a registered user or points at the registrant.
	var referredBy *int64
	if req.RefalBy != nil && *req.RefalBy != 0 && *req.RefalBy != req.UserID {
		var referrer models.User
		err := db.Select("id").Where("telegram_id = ?", *req.RefalBy).First(&referrer).Error
		switch {
		case err == nil:
			referredBy = req.RefalBy
		case errors.Is(err, gorm.ErrRecordNotFound):
			log.Printf("[register] unknown referrer %d for user %d, ignoring", *req.RefalBy, req.UserID)
		default:
			logStorageErr("register", err)
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
			return
		}
	}

	user := models.User{
		TelegramID: req.UserID,
		Username:   utils.StringPtr(req.Username),
		FirstName:  utils.StringPtr(req.FirstName),
		LastName:   utils.StringPtr(req.LastName),
		ReferredBy: referredBy,
	}

	// FirstOrCreate keyed on telegram_id makes repeat registrations no-ops:
	// existing rows are left untouched, including their referrer.
	if err := db.Where(models.User{TelegramID: req.UserID}).FirstOrCreate(&user).Error; err != nil {
		logStorageErr("register", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	data := map[string]interface{}{"telegram_id": user.TelegramID}
	if token, err := utils.GenerateSessionToken(c.Cfg.JWTSecret, user.TelegramID, req.Username, c.Cfg.SessionTTL); err == nil {
		data["token"] = token
	} else {
		log.Printf("[register] session token error: %v", err)
	}

	monitoring.ActionsTotal.WithLabelValues("register", "ok").Inc()
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "User registered", Data: data})
}
