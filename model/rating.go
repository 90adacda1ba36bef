package model

import "time"

// PlayerRating holds one player's ELO rating and win/loss record for a
// single battle type. A player has at most one row per battle type.
type PlayerRating struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID   int64      `gorm:"uniqueIndex:idx_rating_player_type;not null" json:"player_id"`
	BattleType string     `gorm:"uniqueIndex:idx_rating_player_type;size:16;not null" json:"battle_type"`
	Rating     int        `gorm:"default:1200" json:"rating"`
	Wins       int        `gorm:"default:0" json:"wins"`
	Losses     int        `gorm:"default:0" json:"losses"`
	WinStreak  int        `gorm:"default:0" json:"win_streak"`
	LastWinAt  *time.Time `json:"last_win_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
