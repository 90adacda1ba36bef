package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ukiyotei/battlehub/cache"
	"github.com/ukiyotei/battlehub/game/battle"
	"github.com/ukiyotei/battlehub/model"
)

// RankingHandler handles leaderboard REST endpoints. Each battle type
// has its own ladder.
type RankingHandler struct {
	db     *gorm.DB
	cache  cache.Cache
	logger *zap.Logger
}

// NewRankingHandler creates a RankingHandler.
func NewRankingHandler(db *gorm.DB, c cache.Cache, logger *zap.Logger) *RankingHandler {
	return &RankingHandler{db: db, cache: c, logger: logger}
}

const rankingTop = 100

func rankingKey(battleType battle.Type) string {
	return "ranking:" + string(battleType)
}

// RankEntry is one row in the leaderboard.
type RankEntry struct {
	Rank     int    `json:"rank"`
	PlayerID int64  `json:"player_id"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
}

// Top returns the rating leaderboard for one battle type.
// GET /api/ranking/:type?limit=20
func (h *RankingHandler) Top(c *gin.Context) {
	bt := battle.Type(c.Param("type"))
	if !bt.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown battle type"})
		return
	}
	limit := 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= rankingTop {
		limit = l
	}

	// Try cached ranking from sorted set.
	ctx := c.Request.Context()
	members, err := h.cache.ZRevRange(ctx, rankingKey(bt), 0, int64(limit-1))
	if err == nil && len(members) > 0 {
		entries := make([]RankEntry, 0, len(members))
		for i, m := range members {
			playerID, err := strconv.ParseInt(m, 10, 64)
			if err != nil {
				continue
			}
			score, _ := h.cache.ZScore(ctx, rankingKey(bt), m)
			entries = append(entries, RankEntry{
				Rank:     i + 1,
				PlayerID: playerID,
				Rating:   int(score),
			})
		}
		h.enrich(bt, entries)
		c.JSON(http.StatusOK, gin.H{"ranking": entries})
		return
	}

	// Fall back to DB query.
	var rows []model.PlayerRating
	h.db.Where("battle_type = ?", string(bt)).
		Order("rating DESC").
		Limit(limit).
		Find(&rows)

	entries := make([]RankEntry, len(rows))
	for i, r := range rows {
		entries[i] = RankEntry{
			Rank:     i + 1,
			PlayerID: r.PlayerID,
			Rating:   r.Rating,
			Wins:     r.Wins,
			Losses:   r.Losses,
		}
		// Refresh cache entry.
		_ = h.cache.ZAdd(ctx, rankingKey(bt), float64(r.Rating), strconv.FormatInt(r.PlayerID, 10))
	}
	h.enrich(bt, entries)
	c.JSON(http.StatusOK, gin.H{"ranking": entries})
}

// Refresh rebuilds all three ladders' sorted sets from the DB.
// Called periodically by the scheduler; also exposed as
// POST /api/admin/ranking/refresh.
func (h *RankingHandler) Refresh(c *gin.Context) {
	n, err := h.RebuildAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"refreshed": n})
}

// RebuildAll refreshes the sorted set for every battle type.
func (h *RankingHandler) RebuildAll(ctx context.Context) (int, error) {
	total := 0
	for _, bt := range []battle.Type{battle.TypeOSRS, battle.TypePokemon, battle.TypePet} {
		var rows []model.PlayerRating
		if err := h.db.Select("player_id, rating").
			Where("battle_type = ?", string(bt)).
			Order("rating DESC").
			Limit(rankingTop).
			Find(&rows).Error; err != nil {
			return total, err
		}
		for _, r := range rows {
			_ = h.cache.ZAdd(ctx, rankingKey(bt), float64(r.Rating), strconv.FormatInt(r.PlayerID, 10))
		}
		total += len(rows)
	}
	return total, nil
}

// enrich fills usernames and win/loss records for cache-sourced rows.
func (h *RankingHandler) enrich(bt battle.Type, entries []RankEntry) {
	if len(entries) == 0 {
		return
	}
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.PlayerID
	}
	var players []model.Player
	h.db.Select("id, username").Where("id IN ?", ids).Find(&players)
	nameMap := make(map[int64]string, len(players))
	for _, p := range players {
		nameMap[p.ID] = p.Username
	}
	var ratings []model.PlayerRating
	h.db.Where("battle_type = ? AND player_id IN ?", string(bt), ids).Find(&ratings)
	recMap := make(map[int64]model.PlayerRating, len(ratings))
	for _, r := range ratings {
		recMap[r.PlayerID] = r
	}
	for i := range entries {
		entries[i].Username = nameMap[entries[i].PlayerID]
		if r, ok := recMap[entries[i].PlayerID]; ok {
			entries[i].Wins = r.Wins
			entries[i].Losses = r.Losses
			entries[i].Rating = r.Rating
		}
	}
}
