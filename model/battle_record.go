package model

import (
	"time"

	"gorm.io/datatypes"
)

// BattleRecord is the persisted outcome of a finished battle. The raw
// combatant state at the moment the battle ended is stored as JSON for
// statistics and dispute review; nothing in the engine reads it back.
type BattleRecord struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	BattleID     string         `gorm:"uniqueIndex;size:36;not null" json:"battle_id"`
	BattleType   string         `gorm:"index:idx_battle_type;size:16;not null" json:"battle_type"`
	ChallengerID int64          `gorm:"index:idx_battle_challenger;not null" json:"challenger_id"`
	OpponentID   int64          `gorm:"index:idx_battle_opponent;not null" json:"opponent_id"`
	WinnerID     *int64         `json:"winner_id"` // nil = draw/forfeit without winner
	Turns        int            `json:"turns"`
	DurationMs   int64          `json:"duration_ms"`
	Snapshot     datatypes.JSON `json:"snapshot"`
	CreatedAt    time.Time      `gorm:"index:idx_battle_created;autoCreateTime:milli" json:"created_at"`
}
