package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ukiyotei/battlehub/game/battle"
	"github.com/ukiyotei/battlehub/game/experience"
	mw "github.com/ukiyotei/battlehub/middleware"
	"github.com/ukiyotei/battlehub/model"
	"github.com/ukiyotei/battlehub/store"
)

// BattleHandler handles battle lifecycle REST endpoints.
type BattleHandler struct {
	mgr    *battle.Manager
	exp    *experience.Manager
	st     *store.Store
	logger *zap.Logger
}

// NewBattleHandler creates a BattleHandler.
func NewBattleHandler(mgr *battle.Manager, exp *experience.Manager, st *store.Store, logger *zap.Logger) *BattleHandler {
	return &BattleHandler{mgr: mgr, exp: exp, st: st, logger: logger}
}

type createBattleRequest struct {
	OpponentID int64  `json:"opponent_id" binding:"required"`
	BattleType string `json:"battle_type" binding:"required"`
	// Challenge opens a pending battle the opponent must accept first.
	Challenge bool `json:"challenge"`
}

// battleView is the JSON shape of a battle returned to clients.
type battleView struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Phase        string `json:"phase"`
	ChallengerID int64  `json:"challenger_id"`
	OpponentID   int64  `json:"opponent_id"`
	CurrentTurn  int64  `json:"current_turn"`
	Turns        int    `json:"turns"`
	ChallengerHP int    `json:"challenger_hp"`
	OpponentHP   int    `json:"opponent_hp"`
	WinnerID     *int64 `json:"winner_id,omitempty"`
}

func viewOf(st *battle.State) battleView {
	v := battleView{
		ID:           st.ID,
		Type:         string(st.Type),
		ChallengerID: st.ChallengerID,
		OpponentID:   st.OpponentID,
		CurrentTurn:  st.CurrentTurn,
		Turns:        st.Turns,
		WinnerID:     st.WinnerID,
	}
	switch st.Phase {
	case battle.PhaseWaiting:
		v.Phase = "waiting"
	case battle.PhaseInProgress:
		v.Phase = "in_progress"
	case battle.PhaseFinished:
		v.Phase = "finished"
	}
	if st.Challenger != nil {
		v.ChallengerHP = st.Challenger.HP()
	}
	if st.Opponent != nil {
		v.OpponentHP = st.Opponent.HP()
	}
	return v
}

// Create handles POST /api/battle.
func (h *BattleHandler) Create(c *gin.Context) {
	playerID := mw.GetPlayerID(c)
	var req createBattleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bt := battle.Type(req.BattleType)
	var (
		st  *battle.State
		err error
	)
	if req.Challenge {
		st, err = h.mgr.CreateChallenge(playerID, req.OpponentID, bt,
			battle.DefaultCombatant(playerID, bt))
	} else {
		st, err = h.mgr.CreateBattle(playerID, req.OpponentID, bt,
			battle.DefaultCombatant(playerID, bt),
			battle.DefaultCombatant(req.OpponentID, bt))
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"battle": viewOf(st)})
}

// Accept handles POST /api/battle/:id/accept.
func (h *BattleHandler) Accept(c *gin.Context) {
	playerID := mw.GetPlayerID(c)
	battleID := c.Param("id")

	st, err := h.mgr.GetBattle(battleID)
	if err != nil {
		h.fail(c, err)
		return
	}
	st, err = h.mgr.AcceptChallenge(battleID, playerID,
		battle.DefaultCombatant(playerID, st.Type))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"battle": viewOf(st)})
}

// Get handles GET /api/battle/:id.
func (h *BattleHandler) Get(c *gin.Context) {
	st, err := h.mgr.GetBattle(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"battle": viewOf(st)})
}

// Mine handles GET /api/battle/me, the caller's current battle.
func (h *BattleHandler) Mine(c *gin.Context) {
	playerID := mw.GetPlayerID(c)
	st, err := h.mgr.PlayerBattle(playerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"battle": viewOf(st)})
}

// Moves handles GET /api/battle/:id/moves, the caller's usable moves.
func (h *BattleHandler) Moves(c *gin.Context) {
	playerID := mw.GetPlayerID(c)
	moves, err := h.mgr.AvailableMoves(c.Param("id"), playerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moves": moves})
}

type moveRequest struct {
	Move string `json:"move" binding:"required"`
}

// Move handles POST /api/battle/:id/move.
func (h *BattleHandler) Move(c *gin.Context) {
	playerID := mw.GetPlayerID(c)
	battleID := c.Param("id")

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.mgr.GetBattle(battleID)
	if err != nil {
		h.fail(c, err)
		return
	}
	battleType := st.Type

	outcome, err := h.mgr.SubmitMove(c.Request.Context(), battleID, playerID, req.Move)
	if err != nil {
		// Attach available moves so clients can recover from a bad pick.
		if errors.Is(err, battle.ErrInvalidMove) || errors.Is(err, battle.ErrInsufficientResource) {
			moves, mErr := h.mgr.AvailableMoves(battleID, playerID)
			if mErr == nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":           err.Error(),
					"available_moves": moves,
				})
				return
			}
		}
		h.fail(c, err)
		return
	}

	if outcome.Ended {
		h.awardBattleExp(c, battleType, outcome)
	}
	c.JSON(http.StatusOK, gin.H{"outcome": outcome})
}

// Forfeit handles POST /api/battle/:id/forfeit.
func (h *BattleHandler) Forfeit(c *gin.Context) {
	playerID := mw.GetPlayerID(c)
	battleID := c.Param("id")

	st, err := h.mgr.GetBattle(battleID)
	if err != nil {
		h.fail(c, err)
		return
	}
	battleType := st.Type

	outcome, err := h.mgr.Forfeit(c.Request.Context(), battleID, playerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if outcome.Ended && outcome.WinnerID != 0 {
		h.awardBattleExp(c, battleType, outcome)
	}
	c.JSON(http.StatusOK, gin.H{"outcome": outcome})
}

// awardBattleExp pushes the computed rewards through the experience
// pipeline and banks coins. Failures are logged, never surfaced: the
// battle result already stands.
func (h *BattleHandler) awardBattleExp(c *gin.Context, battleType battle.Type, outcome *battle.MoveOutcome) {
	if h.exp == nil || h.st == nil {
		return
	}
	ctx := c.Request.Context()
	for _, ru := range outcome.Ratings {
		reward := outcome.LoserReward
		if ru.Won {
			reward = outcome.WinnerReward
		}
		if reward == nil {
			continue
		}
		p, err := h.st.Player(ctx, ru.PlayerID)
		if err != nil {
			h.logger.Warn("player load for award failed",
				zap.Int64("playerID", ru.PlayerID), zap.Error(err))
			continue
		}
		prog := progressFor(p, battleType)
		res := h.exp.AwardExp(&prog, reward.XP, experience.SourceBattle, experience.AwardMeta{})
		applyProgress(p, battleType, prog)
		p.Coins += int64(reward.Coins + res.Coins)
		if err := h.st.SavePlayer(ctx, p); err != nil {
			h.logger.Warn("player save after award failed",
				zap.Int64("playerID", ru.PlayerID), zap.Error(err))
		}
	}
}

// progressFor extracts the per-system progression fields.
func progressFor(p *model.Player, battleType battle.Type) experience.Progress {
	prog := experience.Progress{EntityID: p.ID, System: battleType, Rarity: "common"}
	switch battleType {
	case battle.TypeOSRS:
		prog.XP, prog.Level = p.OSRSExp, p.OSRSLevel
	case battle.TypePokemon:
		prog.XP, prog.Level = p.PokemonExp, p.PokemonLevel
	case battle.TypePet:
		prog.XP, prog.Level = p.PetExp, p.PetLevel
	}
	if prog.Level < 1 {
		prog.Level = 1
	}
	return prog
}

// applyProgress writes the mutated progression back to the player row.
func applyProgress(p *model.Player, battleType battle.Type, prog experience.Progress) {
	switch battleType {
	case battle.TypeOSRS:
		p.OSRSExp, p.OSRSLevel = prog.XP, prog.Level
	case battle.TypePokemon:
		p.PokemonExp, p.PokemonLevel = prog.XP, prog.Level
	case battle.TypePet:
		p.PetExp, p.PetLevel = prog.XP, prog.Level
	}
}

// fail maps battle errors to HTTP status codes.
func (h *BattleHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, battle.ErrBattleNotFound):
		status = http.StatusNotFound
	case errors.Is(err, battle.ErrNotParticipant):
		status = http.StatusForbidden
	case errors.Is(err, battle.ErrWrongTurn),
		errors.Is(err, battle.ErrInvalidMove),
		errors.Is(err, battle.ErrInsufficientResource),
		errors.Is(err, battle.ErrInvalidBattleType),
		errors.Is(err, battle.ErrSelfChallenge),
		errors.Is(err, battle.ErrBattleNotStarted):
		status = http.StatusBadRequest
	case errors.Is(err, battle.ErrAlreadyInBattle),
		errors.Is(err, battle.ErrBattleFinished):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
