// Package store is the persistence layer over gorm: battle records,
// ratings, and player progression fields live here so the game
// packages stay free of SQL concerns.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ukiyotei/battlehub/game/battle"
	"github.com/ukiyotei/battlehub/model"
)

// Store wraps the shared *gorm.DB handle.
type Store struct {
	db            *gorm.DB
	initialRating int
}

// New creates a store over an opened database.
func New(db *gorm.DB) *Store {
	return &Store{db: db, initialRating: InitialRating}
}

// SetInitialRating overrides the rating new players start at. Values
// below 1 are ignored.
func (s *Store) SetInitialRating(r int) {
	if r < 1 {
		return
	}
	s.initialRating = r
}

// DB exposes the underlying handle for callers that need raw queries
// (ranking refresh, admin tooling).
func (s *Store) DB() *gorm.DB { return s.db }

// InitialRating is the default rating a player starts at per battle type.
const InitialRating = 1200

// Rating returns the player's rating for a battle type, inserting the
// default row on first use.
func (s *Store) Rating(ctx context.Context, playerID int64, battleType battle.Type) (int, error) {
	var r model.PlayerRating
	err := s.db.WithContext(ctx).
		Where("player_id = ? AND battle_type = ?", playerID, string(battleType)).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r = model.PlayerRating{
			PlayerID:   playerID,
			BattleType: string(battleType),
			Rating:     s.initialRating,
		}
		if err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&r).Error; err != nil {
			return 0, err
		}
		return s.initialRating, nil
	}
	if err != nil {
		return 0, err
	}
	return r.Rating, nil
}

// ApplyResult writes both sides' new ratings and win/loss counters in
// one transaction.
func (s *Store) ApplyResult(ctx context.Context, battleType battle.Type, winner, loser battle.RatingUpdate) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PlayerRating{}).
			Where("player_id = ? AND battle_type = ?", winner.PlayerID, string(battleType)).
			Updates(map[string]interface{}{
				"rating":      winner.NewRating,
				"wins":        gorm.Expr("wins + 1"),
				"win_streak":  gorm.Expr("win_streak + 1"),
				"last_win_at": now,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&model.PlayerRating{}).
			Where("player_id = ? AND battle_type = ?", loser.PlayerID, string(battleType)).
			Updates(map[string]interface{}{
				"rating":     loser.NewRating,
				"losses":     gorm.Expr("losses + 1"),
				"win_streak": 0,
			}).Error
	})
}

// WinStreak returns the player's current streak and whether they have
// not yet won today (UTC day), for reward conditions. The streak is
// read before ApplyResult bumps it.
func (s *Store) WinStreak(ctx context.Context, playerID int64, battleType battle.Type) (int, bool, error) {
	var r model.PlayerRating
	err := s.db.WithContext(ctx).
		Where("player_id = ? AND battle_type = ?", playerID, string(battleType)).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, true, nil
	}
	if err != nil {
		return 0, false, err
	}
	firstToday := true
	if r.LastWinAt != nil {
		y1, m1, d1 := r.LastWinAt.UTC().Date()
		y2, m2, d2 := time.Now().UTC().Date()
		firstToday = !(y1 == y2 && m1 == m2 && d1 == d2)
	}
	return r.WinStreak, firstToday, nil
}

// battleSnapshot is the persisted JSON shape of a finished battle.
type battleSnapshot struct {
	Challenger   *battle.Combatant `json:"challenger"`
	Opponent     *battle.Combatant `json:"opponent"`
	WinnerReward battle.Reward     `json:"winner_reward"`
	LoserReward  battle.Reward     `json:"loser_reward"`
}

// RecordBattle stores the finished battle with a combatant snapshot.
func (s *Store) RecordBattle(ctx context.Context, st *battle.State, winner, loser battle.Reward) error {
	snap, err := json.Marshal(battleSnapshot{
		Challenger:   st.Challenger,
		Opponent:     st.Opponent,
		WinnerReward: winner,
		LoserReward:  loser,
	})
	if err != nil {
		return err
	}
	var durationMs int64
	if !st.StartedAt.IsZero() {
		durationMs = time.Since(st.StartedAt).Milliseconds()
	}
	rec := model.BattleRecord{
		BattleID:     st.ID,
		BattleType:   string(st.Type),
		ChallengerID: st.ChallengerID,
		OpponentID:   st.OpponentID,
		WinnerID:     st.WinnerID,
		Turns:        st.Turns,
		DurationMs:   durationMs,
		Snapshot:     snap,
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

// Player loads a player row by ID.
func (s *Store) Player(ctx context.Context, playerID int64) (*model.Player, error) {
	var p model.Player
	if err := s.db.WithContext(ctx).First(&p, playerID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// PlayerByUsername loads a player row by username.
func (s *Store) PlayerByUsername(ctx context.Context, username string) (*model.Player, error) {
	var p model.Player
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlayer inserts a new player row.
func (s *Store) CreatePlayer(ctx context.Context, p *model.Player) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// SavePlayer writes the player's mutable progression fields.
func (s *Store) SavePlayer(ctx context.Context, p *model.Player) error {
	return s.db.WithContext(ctx).Save(p).Error
}

// TouchLogin records a successful login.
func (s *Store) TouchLogin(ctx context.Context, playerID int64, ip string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&model.Player{}).
		Where("id = ?", playerID).
		Updates(map[string]interface{}{
			"last_login_at": now,
			"last_login_ip": ip,
		}).Error
}

// TopRatings returns the top n rating rows for a battle type, best
// first, for the leaderboard fallback path.
func (s *Store) TopRatings(ctx context.Context, battleType battle.Type, n int) ([]model.PlayerRating, error) {
	var rows []model.PlayerRating
	err := s.db.WithContext(ctx).
		Where("battle_type = ?", string(battleType)).
		Order("rating DESC").
		Limit(n).
		Find(&rows).Error
	return rows, err
}

// RecentBattles returns a player's latest finished battles.
func (s *Store) RecentBattles(ctx context.Context, playerID int64, n int) ([]model.BattleRecord, error) {
	var rows []model.BattleRecord
	err := s.db.WithContext(ctx).
		Where("challenger_id = ? OR opponent_id = ?", playerID, playerID).
		Order("created_at DESC").
		Limit(n).
		Find(&rows).Error
	return rows, err
}
