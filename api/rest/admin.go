package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ukiyotei/battlehub/game/experience"
	"github.com/ukiyotei/battlehub/model"
	"github.com/ukiyotei/battlehub/scheduler"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	db     *gorm.DB
	exp    *experience.Manager
	sched  *scheduler.Scheduler
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(db *gorm.DB, exp *experience.Manager, sched *scheduler.Scheduler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, exp: exp, sched: sched, logger: logger}
}

type grantBoostRequest struct {
	Value         float64 `json:"value" binding:"required,gt=0,lte=5"`
	DurationHours int     `json:"duration_hours" binding:"required,gt=0,lte=168"`
	Source        string  `json:"source"`
}

// GrantBoost gives a player a time-boxed XP boost.
// POST /api/admin/players/:id/boost
func (h *AdminHandler) GrantBoost(c *gin.Context) {
	playerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req grantBoostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Source == "" {
		req.Source = "admin"
	}
	h.exp.AddExpBoost(playerID, req.Value,
		time.Duration(req.DurationHours)*time.Hour, req.Source)
	h.logger.Info("admin granted boost",
		zap.Int64("player_id", playerID),
		zap.Float64("value", req.Value),
		zap.Int("hours", req.DurationHours))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type setCapRequest struct {
	Cap int `json:"cap" binding:"min=0"`
}

// SetDailyCap sets or clears a player's daily XP cap.
// POST /api/admin/players/:id/daily-cap
func (h *AdminHandler) SetDailyCap(c *gin.Context) {
	playerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req setCapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.exp.SetDailyExpCap(playerID, req.Cap)
	c.JSON(http.StatusOK, gin.H{"ok": true, "cap": req.Cap})
}

// BanPlayer bans or unbans a player account.
// POST /api/admin/players/:id/ban
func (h *AdminHandler) BanPlayer(c *gin.Context) {
	playerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Ban bool `json:"ban"`
	}
	_ = c.ShouldBindJSON(&req)

	status := 1
	if req.Ban {
		status = 0
	}
	result := h.db.Model(&model.Player{}).Where("id = ?", playerID).Update("status", status)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
}

// Metrics returns server health metrics.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	var players, battles int64
	h.db.Model(&model.Player{}).Count(&players)
	h.db.Model(&model.BattleRecord{}).Count(&battles)
	c.JSON(http.StatusOK, gin.H{
		"players":          players,
		"recorded_battles": battles,
		"scheduler_tasks":  h.sched.ListTickers(),
	})
}

// ListSchedulerTasks returns names of all registered ticker tasks.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.ListTickers()})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
