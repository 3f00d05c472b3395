package miniapp

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"giftapp/config"
	"giftapp/middleware"
	"giftapp/monitoring"
	"giftapp/utils"

	redis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Controller serves the single mini-app dispatch endpoint. All dependencies
// are injected at construction; nothing here reads the environment.
type Controller struct {
	DB  *gorm.DB
	Cfg *config.Config
	RDB *redis.Client // optional, nil when Redis is not configured

	// in-memory ad-view throttle fallback, keyed by "tgid:gift"
	throttleMu sync.Mutex
	throttle   map[string]time.Time
}

func NewController(db *gorm.DB, cfg *config.Config, rdb *redis.Client) *Controller {
	return &Controller{
		DB:       db,
		Cfg:      cfg,
		RDB:      rdb,
		throttle: make(map[string]time.Time),
	}
}

// actionRequest is the union of all action payloads; the front end sends the
// fields relevant to the requested type.
type actionRequest struct {
	Type      string `json:"type" validate:"required,kindok"`
	UserID    int64  `json:"userId"`
	Username  string `json:"username" validate:"nameok"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	RefalBy   *int64 `json:"refal_by,omitempty"`
	InitData  string `json:"initData,omitempty"`
	Gift      string `json:"gift" validate:"kindok"`
	Task      string `json:"task" validate:"kindok"`
}

// Dispatch routes a typed action request to its handler.
// POST /v1/app
func (c *Controller) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	if req.UserID == 0 {
		monitoring.ActionsTotal.WithLabelValues(req.Type, "rejected").Inc()
		utils.WriteRejection(w, http.StatusBadRequest, "userId is required", "ValidationError", nil)
		return
	}

	// Optional bearer session: when present it must validate and match the
	// claimed userId, otherwise the request is rejected outright.
	if authz := r.Header.Get("Authorization"); authz != "" {
		tid, err := c.bearerTelegramID(authz)
		if err != nil || tid != req.UserID {
			monitoring.ActionsTotal.WithLabelValues(req.Type, "unauthorized").Inc()
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Invalid session token"})
			return
		}
	}

	switch req.Type {
	case "register":
		c.handleRegister(w, r, &req)
	case "invite-stats":
		c.handleInviteStats(w, r, &req)
	case "watch-ad":
		c.handleWatchAd(w, r, &req)
	case "claim":
		c.handleClaim(w, r, &req)
	case "claim-task":
		c.handleClaimTask(w, r, &req)
	default:
		monitoring.ActionsTotal.WithLabelValues("unknown", "rejected").Inc()
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Unknown type"})
	}
}

var errInvalidBearer = errors.New("invalid authorization header")

func (c *Controller) bearerTelegramID(authz string) (int64, error) {
	const prefix = "Bearer "
	if len(authz) <= len(prefix) || authz[:len(prefix)] != prefix {
		return 0, errInvalidBearer
	}
	return utils.ValidateSessionToken(c.Cfg.JWTSecret, authz[len(prefix):])
}

// logStorageErr keeps internal failure detail in the logs, never in responses.
func logStorageErr(op string, err error) {
	log.Printf("[%s] DB error: %v", op, err)
}
