package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ukiyotei/battlehub/game/battle"
	"github.com/ukiyotei/battlehub/game/experience"
	mw "github.com/ukiyotei/battlehub/middleware"
	"github.com/ukiyotei/battlehub/model"
	"github.com/ukiyotei/battlehub/store"
)

// PlayerHandler handles player profile REST endpoints.
type PlayerHandler struct {
	db  *gorm.DB
	st  *store.Store
	exp *experience.Manager
}

// NewPlayerHandler creates a PlayerHandler.
func NewPlayerHandler(db *gorm.DB, st *store.Store, exp *experience.Manager) *PlayerHandler {
	return &PlayerHandler{db: db, st: st, exp: exp}
}

// systemProgress is one game system's progression in the profile view.
type systemProgress struct {
	Level       int     `json:"level"`
	Exp         int64   `json:"exp"`
	NextLevelAt int64   `json:"next_level_at"`
	ActiveBoost float64 `json:"active_boost,omitempty"`
}

// Me handles GET /api/player/me.
func (h *PlayerHandler) Me(c *gin.Context) {
	playerID := mw.GetPlayerID(c)
	p, err := h.st.Player(c.Request.Context(), playerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}

	boost := h.exp.ActiveBoost(playerID)
	c.JSON(http.StatusOK, gin.H{
		"id":       p.ID,
		"username": p.Username,
		"coins":    p.Coins,
		"progress": gin.H{
			"osrs": systemProgress{
				Level:       p.OSRSLevel,
				Exp:         p.OSRSExp,
				NextLevelAt: experience.XPForLevel(p.OSRSLevel+1, battle.TypeOSRS),
				ActiveBoost: boost,
			},
			"pokemon": systemProgress{
				Level:       p.PokemonLevel,
				Exp:         p.PokemonExp,
				NextLevelAt: experience.XPForLevel(p.PokemonLevel+1, battle.TypePokemon),
				ActiveBoost: boost,
			},
			"pet": systemProgress{
				Level:       p.PetLevel,
				Exp:         p.PetExp,
				NextLevelAt: experience.XPForLevel(p.PetLevel+1, battle.TypePet),
				ActiveBoost: boost,
			},
		},
	})
}

// Stats handles GET /api/player/me/stats: per-type ratings and records.
func (h *PlayerHandler) Stats(c *gin.Context) {
	playerID := mw.GetPlayerID(c)
	var rows []model.PlayerRating
	h.db.Where("player_id = ?", playerID).Find(&rows)
	c.JSON(http.StatusOK, gin.H{"ratings": rows})
}

// History handles GET /api/player/me/battles?limit=10.
func (h *PlayerHandler) History(c *gin.Context) {
	playerID := mw.GetPlayerID(c)
	limit := 10
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 50 {
		limit = l
	}
	rows, err := h.st.RecentBattles(c.Request.Context(), playerID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"battles": rows})
}

// Pets handles GET /api/player/me/pets.
func (h *PlayerHandler) Pets(c *gin.Context) {
	playerID := mw.GetPlayerID(c)
	var pets []model.Pet
	h.db.Where("owner_id = ?", playerID).Find(&pets)
	c.JSON(http.StatusOK, gin.H{"pets": pets})
}
