package rest_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ukiyotei/battlehub/api/rest"
	"github.com/ukiyotei/battlehub/config"
	"github.com/ukiyotei/battlehub/game/battle"
	"github.com/ukiyotei/battlehub/game/experience"
	mw "github.com/ukiyotei/battlehub/middleware"
	"github.com/ukiyotei/battlehub/model"
	"github.com/ukiyotei/battlehub/store"
	"github.com/ukiyotei/battlehub/testutil"
)

type battleEnv struct {
	r  *gin.Engine
	db *gorm.DB
}

// newBattleEnv wires the full battle stack over an in-memory DB and
// local cache, then logs in two players and returns their tokens.
func newBattleEnv(t *testing.T) (*battleEnv, string, string) {
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	sec := config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: 72 * time.Hour}

	st := store.New(db)
	mgr := battle.NewManager(battle.NewRegistry(nil), battle.NewRewardsManager(nil), st, nil, nil)
	expMgr := experience.NewManager(nil, nil)

	authH := rest.NewAuthHandler(db, c, sec)
	battleH := rest.NewBattleHandler(mgr, expMgr, st, zap.NewNop())

	r := gin.New()
	r.POST("/api/auth/login", authH.Login)
	g := r.Group("/api/battle", mw.Auth(sec, c))
	g.POST("", battleH.Create)
	g.GET("/me", battleH.Mine)
	g.GET("/:id", battleH.Get)
	g.POST("/:id/accept", battleH.Accept)
	g.GET("/:id/moves", battleH.Moves)
	g.POST("/:id/move", battleH.Move)
	g.POST("/:id/forfeit", battleH.Forfeit)

	login := func(name string) string {
		w := postJSON(r, "/api/auth/login", map[string]string{"username": name, "password": "pass1234"})
		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp["token"].(string)
	}
	t1 := login("challenger")
	t2 := login("opponent")
	return &battleEnv{r: r, db: db}, t1, t2
}

func decodeBattle(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var resp struct {
		Battle map[string]interface{} `json:"battle"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotNil(t, resp.Battle)
	return resp.Battle
}

func TestBattleCreate(t *testing.T) {
	env, t1, _ := newBattleEnv(t)

	w := postJSON(env.r, "/api/battle", map[string]interface{}{
		"opponent_id": 2,
		"battle_type": "osrs",
	}, "Authorization", "Bearer "+t1)
	require.Equal(t, http.StatusCreated, w.Code)

	b := decodeBattle(t, w.Body.Bytes())
	assert.Equal(t, "in_progress", b["phase"])
	assert.Equal(t, "osrs", b["type"])
	assert.EqualValues(t, 1, b["current_turn"])
	assert.NotZero(t, b["challenger_hp"])
}

func TestBattleCreate_UnknownType(t *testing.T) {
	env, t1, _ := newBattleEnv(t)
	w := postJSON(env.r, "/api/battle", map[string]interface{}{
		"opponent_id": 2,
		"battle_type": "chess",
	}, "Authorization", "Bearer "+t1)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBattleCreate_SelfChallenge(t *testing.T) {
	env, t1, _ := newBattleEnv(t)
	w := postJSON(env.r, "/api/battle", map[string]interface{}{
		"opponent_id": 1,
		"battle_type": "osrs",
	}, "Authorization", "Bearer "+t1)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBattleCreate_BusyPlayerConflicts(t *testing.T) {
	env, t1, _ := newBattleEnv(t)

	w := postJSON(env.r, "/api/battle", map[string]interface{}{
		"opponent_id": 2, "battle_type": "pet",
	}, "Authorization", "Bearer "+t1)
	require.Equal(t, http.StatusCreated, w.Code)

	w2 := postJSON(env.r, "/api/battle", map[string]interface{}{
		"opponent_id": 3, "battle_type": "pet",
	}, "Authorization", "Bearer "+t1)
	assert.Equal(t, http.StatusConflict, w2.Code)
}

func TestBattleChallengeAcceptFlow(t *testing.T) {
	env, t1, t2 := newBattleEnv(t)

	w := postJSON(env.r, "/api/battle", map[string]interface{}{
		"opponent_id": 2,
		"battle_type": "pokemon",
		"challenge":   true,
	}, "Authorization", "Bearer "+t1)
	require.Equal(t, http.StatusCreated, w.Code)
	b := decodeBattle(t, w.Body.Bytes())
	require.Equal(t, "waiting", b["phase"])
	id := b["id"].(string)

	// Moves are rejected until the opponent accepts.
	wm := postJSON(env.r, "/api/battle/"+id+"/move", map[string]string{"move": "tackle"},
		"Authorization", "Bearer "+t1)
	assert.Equal(t, http.StatusBadRequest, wm.Code)

	wa := postJSON(env.r, "/api/battle/"+id+"/accept", nil, "Authorization", "Bearer "+t2)
	require.Equal(t, http.StatusOK, wa.Code)
	b = decodeBattle(t, wa.Body.Bytes())
	assert.Equal(t, "in_progress", b["phase"])
}

func TestBattleMine(t *testing.T) {
	env, t1, t2 := newBattleEnv(t)

	w := postJSON(env.r, "/api/battle", map[string]interface{}{
		"opponent_id": 2, "battle_type": "osrs",
	}, "Authorization", "Bearer "+t1)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBattle(t, w.Body.Bytes())["id"].(string)

	wm := getJSON(env.r, "/api/battle/me", "Authorization", "Bearer "+t2)
	require.Equal(t, http.StatusOK, wm.Code)
	assert.Equal(t, id, decodeBattle(t, wm.Body.Bytes())["id"])
}

func TestBattleMoves(t *testing.T) {
	env, t1, _ := newBattleEnv(t)

	w := postJSON(env.r, "/api/battle", map[string]interface{}{
		"opponent_id": 2, "battle_type": "osrs",
	}, "Authorization", "Bearer "+t1)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBattle(t, w.Body.Bytes())["id"].(string)

	wm := getJSON(env.r, "/api/battle/"+id+"/moves", "Authorization", "Bearer "+t1)
	require.Equal(t, http.StatusOK, wm.Code)
	var resp struct {
		Moves []string `json:"moves"`
	}
	require.NoError(t, json.Unmarshal(wm.Body.Bytes(), &resp))
	assert.Contains(t, resp.Moves, "slash")
}

func TestBattleMove_InvalidMoveListsAlternatives(t *testing.T) {
	env, t1, _ := newBattleEnv(t)

	w := postJSON(env.r, "/api/battle", map[string]interface{}{
		"opponent_id": 2, "battle_type": "osrs",
	}, "Authorization", "Bearer "+t1)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBattle(t, w.Body.Bytes())["id"].(string)

	wm := postJSON(env.r, "/api/battle/"+id+"/move", map[string]string{"move": "dragon_dance"},
		"Authorization", "Bearer "+t1)
	require.Equal(t, http.StatusBadRequest, wm.Code)
	var resp struct {
		AvailableMoves []string `json:"available_moves"`
	}
	require.NoError(t, json.Unmarshal(wm.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AvailableMoves)
}

func TestBattleMove_WrongTurn(t *testing.T) {
	env, _, t2 := newBattleEnv(t)

	// Player 2 creates against player 1, so player 2 moves first.
	w := postJSON(env.r, "/api/battle", map[string]interface{}{
		"opponent_id": 1, "battle_type": "osrs",
	}, "Authorization", "Bearer "+t2)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBattle(t, w.Body.Bytes())["id"].(string)

	wm := postJSON(env.r, "/api/battle/"+id+"/move", map[string]string{"move": "slash"},
		"Authorization", "Bearer "+t2)
	require.Equal(t, http.StatusOK, wm.Code)

	// Player 2 again out of turn.
	wm2 := postJSON(env.r, "/api/battle/"+id+"/move", map[string]string{"move": "slash"},
		"Authorization", "Bearer "+t2)
	assert.Equal(t, http.StatusBadRequest, wm2.Code)
}

func TestBattleForfeit_AwardsAndPersists(t *testing.T) {
	env, t1, _ := newBattleEnv(t)

	w := postJSON(env.r, "/api/battle", map[string]interface{}{
		"opponent_id": 2, "battle_type": "osrs",
	}, "Authorization", "Bearer "+t1)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBattle(t, w.Body.Bytes())["id"].(string)

	wf := postJSON(env.r, "/api/battle/"+id+"/forfeit", nil, "Authorization", "Bearer "+t1)
	require.Equal(t, http.StatusOK, wf.Code)

	var resp struct {
		Outcome battle.MoveOutcome `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(wf.Body.Bytes(), &resp))
	require.True(t, resp.Outcome.Ended)
	assert.EqualValues(t, 2, resp.Outcome.WinnerID)
	require.Len(t, resp.Outcome.Ratings, 2)

	// Battle record and rating rows landed in the DB.
	var rec model.BattleRecord
	require.NoError(t, env.db.Where("battle_id = ?", id).First(&rec).Error)
	require.NotNil(t, rec.WinnerID)
	assert.EqualValues(t, 2, *rec.WinnerID)

	var winnerRating model.PlayerRating
	require.NoError(t, env.db.Where("player_id = ? AND battle_type = ?", 2, "osrs").
		First(&winnerRating).Error)
	assert.Greater(t, winnerRating.Rating, 1200)

	// Experience and coins were banked for both sides.
	var winner, loser model.Player
	require.NoError(t, env.db.First(&winner, 2).Error)
	require.NoError(t, env.db.First(&loser, 1).Error)
	assert.Greater(t, winner.OSRSExp, int64(0))
	assert.Greater(t, winner.Coins, int64(0))
	assert.Greater(t, loser.OSRSExp, int64(0))

	// Both players can battle again.
	w2 := postJSON(env.r, "/api/battle", map[string]interface{}{
		"opponent_id": 2, "battle_type": "pet",
	}, "Authorization", "Bearer "+t1)
	assert.Equal(t, http.StatusCreated, w2.Code)
}

func TestBattleGet_NotFound(t *testing.T) {
	env, t1, _ := newBattleEnv(t)
	w := getJSON(env.r, fmt.Sprintf("/api/battle/%s", "does-not-exist"), "Authorization", "Bearer "+t1)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBattle_Unauthenticated(t *testing.T) {
	env, _, _ := newBattleEnv(t)
	w := postJSON(env.r, "/api/battle", map[string]interface{}{
		"opponent_id": 2, "battle_type": "osrs",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
