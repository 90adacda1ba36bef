package model

import "time"

// Player is an account that can participate in battles across all
// three game systems. Per-system experience and level are denormalized
// onto the row so the award pipeline updates them in one write.
type Player struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string     `gorm:"size:128;not null" json:"-"`
	Status       int        `gorm:"default:1" json:"status"` // 0=banned 1=active
	Coins        int64      `gorm:"default:0" json:"coins"`
	OSRSExp      int64      `gorm:"default:0" json:"osrs_exp"`
	OSRSLevel    int        `gorm:"default:1" json:"osrs_level"`
	PokemonExp   int64      `gorm:"default:0" json:"pokemon_exp"`
	PokemonLevel int        `gorm:"default:1" json:"pokemon_level"`
	PetExp       int64      `gorm:"default:0" json:"pet_exp"`
	PetLevel     int        `gorm:"default:1" json:"pet_level"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	LastLoginIP  string     `gorm:"size:45" json:"-"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
