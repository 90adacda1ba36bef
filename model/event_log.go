package model

import (
	"time"

	"gorm.io/datatypes"
)

// GameEventLog records emitted game events (battle ended, experience
// gained, level up) for the achievement/pet bookkeeping consumers.
type GameEventLog struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Type      string         `gorm:"index:idx_event_type;size:32;not null" json:"type"`
	PlayerID  int64          `gorm:"index:idx_event_player;not null" json:"player_id"`
	Data      datatypes.JSON `json:"data"`
	CreatedAt time.Time      `gorm:"index:idx_event_created;autoCreateTime:milli" json:"created_at"`
}
