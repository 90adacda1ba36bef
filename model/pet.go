package model

import (
	"time"

	"gorm.io/datatypes"
)

// Pet holds a pet's persistent progression state. Skill levels are a
// small name→level map stored as JSON.
type Pet struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     int64          `gorm:"index:idx_pet_owner;not null" json:"owner_id"`
	Name        string         `gorm:"size:32;not null" json:"name"`
	Rarity      string         `gorm:"size:16;default:common" json:"rarity"`
	Level       int            `gorm:"default:1" json:"level"`
	Experience  int64          `gorm:"default:0" json:"experience"`
	Loyalty     int            `gorm:"default:0" json:"loyalty"`
	Happiness   int            `gorm:"default:50" json:"happiness"`
	SkillLevels datatypes.JSON `json:"skill_levels"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
