package rest_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ukiyotei/battlehub/api/rest"
	"github.com/ukiyotei/battlehub/config"
	"github.com/ukiyotei/battlehub/game/experience"
	mw "github.com/ukiyotei/battlehub/middleware"
	"github.com/ukiyotei/battlehub/model"
	"github.com/ukiyotei/battlehub/store"
	"github.com/ukiyotei/battlehub/testutil"
)

func newPlayerRouter(t *testing.T) (*gin.Engine, *gorm.DB, *experience.Manager, string) {
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	sec := config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: 72 * time.Hour}

	expMgr := experience.NewManager(nil, nil)
	authH := rest.NewAuthHandler(db, c, sec)
	playerH := rest.NewPlayerHandler(db, store.New(db), expMgr)

	r := gin.New()
	r.POST("/api/auth/login", authH.Login)
	g := r.Group("/api/player", mw.Auth(sec, c))
	g.GET("/me", playerH.Me)
	g.GET("/me/stats", playerH.Stats)
	g.GET("/me/battles", playerH.History)
	g.GET("/me/pets", playerH.Pets)

	w := postJSON(r, "/api/auth/login", map[string]string{"username": "scout", "password": "pass1234"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return r, db, expMgr, resp["token"].(string)
}

func TestPlayerMe(t *testing.T) {
	r, db, expMgr, token := newPlayerRouter(t)

	require.NoError(t, db.Model(&model.Player{}).
		Where("username = ?", "scout").
		Updates(map[string]interface{}{"osrs_exp": 83, "osrs_level": 2, "coins": 250}).Error)
	expMgr.AddExpBoost(1, 0.5, time.Hour, "admin")

	w := getJSON(r, "/api/player/me", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Username string `json:"username"`
		Coins    int64  `json:"coins"`
		Progress map[string]struct {
			Level       int     `json:"level"`
			Exp         int64   `json:"exp"`
			NextLevelAt int64   `json:"next_level_at"`
			ActiveBoost float64 `json:"active_boost"`
		} `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "scout", resp.Username)
	assert.EqualValues(t, 250, resp.Coins)

	osrs := resp.Progress["osrs"]
	assert.Equal(t, 2, osrs.Level)
	assert.EqualValues(t, 83, osrs.Exp)
	assert.Greater(t, osrs.NextLevelAt, osrs.Exp)
	assert.Equal(t, 0.5, osrs.ActiveBoost)
	assert.Equal(t, 1, resp.Progress["pokemon"].Level)
	assert.Equal(t, 1, resp.Progress["pet"].Level)
}

func TestPlayerStats(t *testing.T) {
	r, db, _, token := newPlayerRouter(t)

	require.NoError(t, db.Create(&model.PlayerRating{
		PlayerID: 1, BattleType: "osrs", Rating: 1280, Wins: 4, Losses: 2,
	}).Error)

	w := getJSON(r, "/api/player/me/stats", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Ratings []model.PlayerRating `json:"ratings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Ratings, 1)
	assert.Equal(t, 1280, resp.Ratings[0].Rating)
	assert.Equal(t, 4, resp.Ratings[0].Wins)
}

func TestPlayerHistory(t *testing.T) {
	r, db, _, token := newPlayerRouter(t)

	for _, id := range []string{"b-1", "b-2"} {
		require.NoError(t, db.Create(&model.BattleRecord{
			BattleID: id, BattleType: "pet", ChallengerID: 1, OpponentID: 2,
		}).Error)
	}
	// Someone else's battle stays out of the history.
	require.NoError(t, db.Create(&model.BattleRecord{
		BattleID: "b-3", BattleType: "pet", ChallengerID: 5, OpponentID: 6,
	}).Error)

	w := getJSON(r, "/api/player/me/battles", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Battles []model.BattleRecord `json:"battles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Battles, 2)
}

func TestPlayerPets(t *testing.T) {
	r, db, _, token := newPlayerRouter(t)

	require.NoError(t, db.Create(&model.Pet{OwnerID: 1, Name: "Ember", Rarity: "rare"}).Error)
	require.NoError(t, db.Create(&model.Pet{OwnerID: 9, Name: "NotMine"}).Error)

	w := getJSON(r, "/api/player/me/pets", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Pets []model.Pet `json:"pets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Pets, 1)
	assert.Equal(t, "Ember", resp.Pets[0].Name)
}
