package events

import "time"

// Game event types emitted by the battle and experience engines.
const (
	TypeBattleEnd      = "battle_end"
	TypeExperienceGain = "experience_gain"
	TypeLevelUp        = "level_up"
	TypePetLevelUp     = "pet_level_up"
)

// GameEvent is a fire-and-forget notification consumed by achievement
// and pet bookkeeping. Emitting one must never block or fail a battle.
type GameEvent struct {
	Type      string                 `json:"type"`
	PlayerID  int64                  `json:"player_id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Sink receives game events. The battle and experience managers only
// depend on this interface; the concrete Service persists and fans out.
type Sink interface {
	Emit(ev GameEvent)
}

// NopSink discards events; used in tests and as a default.
type NopSink struct{}

func (NopSink) Emit(GameEvent) {}
