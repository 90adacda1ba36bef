package battle

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ukiyotei/battlehub/events"
)

// EloKFactor controls rating swing per battle.
const EloKFactor = 32

// RatingUpdate is the post-battle rating change for one player.
type RatingUpdate struct {
	PlayerID  int64
	OldRating int
	NewRating int
	Won       bool
}

// Store persists finished battles and ratings. Errors from the store
// never fail a battle; they are logged and play continues in memory.
type Store interface {
	// Rating returns the player's current rating for a battle type,
	// creating the row at the initial rating if absent.
	Rating(ctx context.Context, playerID int64, battleType Type) (int, error)
	// ApplyResult updates both ratings and win/loss counters.
	ApplyResult(ctx context.Context, battleType Type, winner, loser RatingUpdate) error
	// RecordBattle stores the finished battle snapshot.
	RecordBattle(ctx context.Context, st *State, winner, loser Reward) error
	// WinStreak returns the winner-side streak and whether this is the
	// player's first win today, used for reward conditions.
	WinStreak(ctx context.Context, playerID int64, battleType Type) (streak int, firstToday bool, err error)
}

// MoveOutcome is what SubmitMove returns: the turn that was played
// plus end-of-battle information when the move finished the fight.
type MoveOutcome struct {
	Turn         *TurnResult   `json:"turn"`
	Ended        bool          `json:"ended"`
	WinnerID     int64         `json:"winner_id,omitempty"`
	WinnerReward *Reward       `json:"winner_reward,omitempty"`
	LoserReward  *Reward       `json:"loser_reward,omitempty"`
	Ratings      []RatingUpdate `json:"ratings,omitempty"`
}

// Manager owns all live battles. Battles live in memory while running
// and are persisted once finished.
type Manager struct {
	mu       sync.Mutex
	battles  map[string]*State
	byPlayer map[int64]string

	registry *Registry
	rewards  *RewardsManager
	store    Store
	sink     events.Sink
	logger   *zap.Logger
	kFactor  int
}

// NewManager wires a battle manager. store may be nil for ephemeral
// use (tests, practice modes); sink may be nil to drop events.
func NewManager(registry *Registry, rewards *RewardsManager, store Store, sink events.Sink, logger *zap.Logger) *Manager {
	if sink == nil {
		sink = events.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		battles:  make(map[string]*State),
		byPlayer: make(map[int64]string),
		registry: registry,
		rewards:  rewards,
		store:    store,
		sink:     sink,
		logger:   logger,
		kFactor:  EloKFactor,
	}
}

// SetEloKFactor overrides the rating swing per battle. Values below 1
// are ignored and the default stands.
func (m *Manager) SetEloKFactor(k int) {
	if k < 1 {
		return
	}
	m.mu.Lock()
	m.kFactor = k
	m.mu.Unlock()
}

// CreateBattle starts a battle immediately: both sides are present and
// the challenger moves first.
func (m *Manager) CreateBattle(challengerID, opponentID int64, battleType Type, challenger, opponent *Combatant) (*State, error) {
	if !battleType.Valid() {
		return nil, ErrInvalidBattleType
	}
	if challengerID == opponentID {
		return nil, ErrSelfChallenge
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.byPlayer[challengerID]; busy {
		return nil, ErrAlreadyInBattle
	}
	if _, busy := m.byPlayer[opponentID]; busy {
		return nil, ErrAlreadyInBattle
	}

	st := &State{
		ID:           uuid.NewString(),
		Type:         battleType,
		Phase:        PhaseInProgress,
		ChallengerID: challengerID,
		OpponentID:   opponentID,
		CurrentTurn:  challengerID,
		StartedAt:    time.Now(),
		Challenger:   challenger,
		Opponent:     opponent,
	}
	m.battles[st.ID] = st
	m.byPlayer[challengerID] = st.ID
	m.byPlayer[opponentID] = st.ID

	m.logger.Info("battle created",
		zap.String("battleID", st.ID),
		zap.String("type", string(battleType)),
		zap.Int64("challenger", challengerID),
		zap.Int64("opponent", opponentID),
	)
	return st, nil
}

// CreateChallenge opens a pending battle that the opponent must accept
// before any move is legal.
func (m *Manager) CreateChallenge(challengerID, opponentID int64, battleType Type, challenger *Combatant) (*State, error) {
	if !battleType.Valid() {
		return nil, ErrInvalidBattleType
	}
	if challengerID == opponentID {
		return nil, ErrSelfChallenge
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.byPlayer[challengerID]; busy {
		return nil, ErrAlreadyInBattle
	}
	if _, busy := m.byPlayer[opponentID]; busy {
		return nil, ErrAlreadyInBattle
	}

	st := &State{
		ID:           uuid.NewString(),
		Type:         battleType,
		Phase:        PhaseWaiting,
		ChallengerID: challengerID,
		OpponentID:   opponentID,
		CurrentTurn:  challengerID,
		Challenger:   challenger,
	}
	m.battles[st.ID] = st
	m.byPlayer[challengerID] = st.ID
	m.byPlayer[opponentID] = st.ID
	return st, nil
}

// AcceptChallenge moves a pending battle into play. Only the
// challenged opponent may accept, and must supply their combatant.
func (m *Manager) AcceptChallenge(battleID string, playerID int64, opponent *Combatant) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.battles[battleID]
	if !ok {
		return nil, ErrBattleNotFound
	}
	if st.Phase != PhaseWaiting {
		return nil, ErrBattleNotStarted
	}
	if playerID != st.OpponentID {
		return nil, ErrNotParticipant
	}

	st.Opponent = opponent
	st.Phase = PhaseInProgress
	st.StartedAt = time.Now()
	return st, nil
}

// GetBattle returns a live battle by id.
func (m *Manager) GetBattle(battleID string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.battles[battleID]
	if !ok {
		return nil, ErrBattleNotFound
	}
	return st, nil
}

// PlayerBattle returns the battle a player is currently in, if any.
func (m *Manager) PlayerBattle(playerID int64) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPlayer[playerID]
	if !ok {
		return nil, ErrBattleNotFound
	}
	return m.battles[id], nil
}

// AvailableMoves lists the moves the player can legally pick right now.
func (m *Manager) AvailableMoves(battleID string, playerID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.battles[battleID]
	if !ok {
		return nil, ErrBattleNotFound
	}
	if !st.IsParticipant(playerID) {
		return nil, ErrNotParticipant
	}
	sys, err := m.registry.System(st.Type)
	if err != nil {
		return nil, err
	}
	return sys.AvailableMoves(st, playerID), nil
}

// SubmitMove plays one turn. On a finishing blow it settles the
// battle: rewards, ELO, persistence, events.
func (m *Manager) SubmitMove(ctx context.Context, battleID string, playerID int64, move string) (*MoveOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.battles[battleID]
	if !ok {
		return nil, ErrBattleNotFound
	}
	switch st.Phase {
	case PhaseWaiting:
		return nil, ErrBattleNotStarted
	case PhaseFinished:
		return nil, ErrBattleFinished
	}
	if !st.IsParticipant(playerID) {
		return nil, ErrNotParticipant
	}
	if playerID != st.CurrentTurn {
		return nil, ErrWrongTurn
	}

	sys, err := m.registry.System(st.Type)
	if err != nil {
		return nil, err
	}

	turn, err := sys.ProcessTurn(st, move)
	if err != nil {
		return nil, err
	}
	st.Turns++

	outcome := &MoveOutcome{Turn: turn}
	if ended, winner := sys.CheckBattleEnd(st); ended && winner != nil {
		outcome.Ended = true
		outcome.WinnerID = *winner
		m.settleLocked(ctx, st, *winner, outcome)
	} else {
		st.SwitchTurn()
	}
	return outcome, nil
}

// Forfeit concedes the battle; the other participant wins. A pending
// challenge is simply cancelled with no rewards or rating change.
func (m *Manager) Forfeit(ctx context.Context, battleID string, playerID int64) (*MoveOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.battles[battleID]
	if !ok {
		return nil, ErrBattleNotFound
	}
	if !st.IsParticipant(playerID) {
		return nil, ErrNotParticipant
	}
	if st.Phase == PhaseFinished {
		return nil, ErrBattleFinished
	}

	if st.Phase == PhaseWaiting {
		m.removeLocked(st)
		return &MoveOutcome{Ended: true}, nil
	}

	winnerID := st.Other(playerID)
	outcome := &MoveOutcome{Ended: true, WinnerID: winnerID}
	m.settleLocked(ctx, st, winnerID, outcome)
	return outcome, nil
}

// settleLocked finishes the battle: marks it done, removes it from the
// live maps, then computes rewards and ratings and persists. Callers
// hold m.mu.
func (m *Manager) settleLocked(ctx context.Context, st *State, winnerID int64, outcome *MoveOutcome) {
	st.Phase = PhaseFinished
	st.WinnerID = &winnerID
	m.removeLocked(st)

	loserID := st.Other(winnerID)
	winnerSide := st.Side(winnerID)
	loserSide := st.Side(loserID)

	var cond SpecialConditions
	if m.store != nil {
		streak, firstToday, err := m.store.WinStreak(ctx, winnerID, st.Type)
		if err != nil {
			m.logger.Warn("win streak lookup failed", zap.Error(err))
		} else {
			cond.WinStreak = streak
			cond.FirstWinOfDay = firstToday
		}
	}

	duration := time.Duration(0)
	if !st.StartedAt.IsZero() {
		duration = time.Since(st.StartedAt)
	}

	winnerLevel, loserLevel := 1, 1
	if winnerSide != nil {
		winnerLevel = winnerSide.Level()
	}
	if loserSide != nil {
		loserLevel = loserSide.Level()
	}

	winnerReward, loserReward := m.rewards.CalculateRewards(st.Type, winnerLevel, loserLevel, duration, cond)
	outcome.WinnerReward = &winnerReward
	outcome.LoserReward = &loserReward

	if m.store != nil {
		updates := m.updateRatings(ctx, st.Type, winnerID, loserID)
		outcome.Ratings = updates
		if err := m.store.RecordBattle(ctx, st, winnerReward, loserReward); err != nil {
			m.logger.Error("battle record persist failed",
				zap.String("battleID", st.ID), zap.Error(err))
		}
	}

	m.sink.Emit(events.GameEvent{
		Type:      events.TypeBattleEnd,
		PlayerID:  winnerID,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"battle_id":   st.ID,
			"battle_type": string(st.Type),
			"winner_id":   winnerID,
			"loser_id":    loserID,
			"turns":       st.Turns,
		},
	})

	m.logger.Info("battle finished",
		zap.String("battleID", st.ID),
		zap.Int64("winner", winnerID),
		zap.Int("turns", st.Turns),
	)
}

// removeLocked drops the battle from the live indexes.
func (m *Manager) removeLocked(st *State) {
	delete(m.battles, st.ID)
	delete(m.byPlayer, st.ChallengerID)
	delete(m.byPlayer, st.OpponentID)
}

// updateRatings applies the ELO exchange and persists both sides.
func (m *Manager) updateRatings(ctx context.Context, battleType Type, winnerID, loserID int64) []RatingUpdate {
	winnerRating, err := m.store.Rating(ctx, winnerID, battleType)
	if err != nil {
		m.logger.Error("rating lookup failed", zap.Int64("playerID", winnerID), zap.Error(err))
		return nil
	}
	loserRating, err := m.store.Rating(ctx, loserID, battleType)
	if err != nil {
		m.logger.Error("rating lookup failed", zap.Int64("playerID", loserID), zap.Error(err))
		return nil
	}

	newWinner, newLoser := eloExchange(winnerRating, loserRating, m.kFactor)
	updates := []RatingUpdate{
		{PlayerID: winnerID, OldRating: winnerRating, NewRating: newWinner, Won: true},
		{PlayerID: loserID, OldRating: loserRating, NewRating: newLoser, Won: false},
	}
	if err := m.store.ApplyResult(ctx, battleType, updates[0], updates[1]); err != nil {
		m.logger.Error("rating persist failed", zap.Error(err))
	}
	return updates
}

// EloExchange computes post-battle ratings with the default K=32. The
// loser never drops below 0.
func EloExchange(winnerRating, loserRating int) (newWinner, newLoser int) {
	return eloExchange(winnerRating, loserRating, EloKFactor)
}

func eloExchange(winnerRating, loserRating, k int) (newWinner, newLoser int) {
	expected := 1.0 / (1.0 + math.Pow(10, float64(loserRating-winnerRating)/400.0))
	delta := int(math.Round(float64(k) * (1.0 - expected)))
	newWinner = winnerRating + delta
	newLoser = loserRating - delta
	if newLoser < 0 {
		newLoser = 0
	}
	return newWinner, newLoser
}
