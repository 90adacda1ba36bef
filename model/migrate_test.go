package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/ukiyotei/battlehub/model"
	"github.com/ukiyotei/battlehub/testutil"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// Player
	p := &model.Player{Username: "test_user", PasswordHash: "hash", Status: 1}
	require.NoError(t, db.Create(p).Error)
	assert.Greater(t, p.ID, int64(0))

	var found model.Player
	require.NoError(t, db.First(&found, p.ID).Error)
	assert.Equal(t, "test_user", found.Username)
	assert.Equal(t, 1, found.OSRSLevel)

	// PlayerRating
	rating := &model.PlayerRating{PlayerID: p.ID, BattleType: "osrs", Rating: 1200}
	require.NoError(t, db.Create(rating).Error)

	// BattleRecord
	winner := p.ID
	rec := &model.BattleRecord{
		BattleID:     "b-0001",
		BattleType:   "osrs",
		ChallengerID: p.ID,
		OpponentID:   p.ID + 1,
		WinnerID:     &winner,
		Turns:        7,
		Snapshot:     datatypes.JSON(`{"winner_reward":{"xp":150}}`),
	}
	require.NoError(t, db.Create(rec).Error)

	// Pet
	pet := &model.Pet{OwnerID: p.ID, Name: "Ember", Rarity: "rare"}
	require.NoError(t, db.Create(pet).Error)
	var foundPet model.Pet
	require.NoError(t, db.First(&foundPet, pet.ID).Error)
	assert.Equal(t, 50, foundPet.Happiness)

	// GameEventLog
	ev := &model.GameEventLog{Type: "battle_end", PlayerID: p.ID, CreatedAt: time.Now()}
	require.NoError(t, db.Create(ev).Error)
}

func TestUniqueConstraints(t *testing.T) {
	db := testutil.SetupTestDB(t)

	require.NoError(t, db.Create(&model.Player{Username: "dup", PasswordHash: "x"}).Error)
	assert.Error(t, db.Create(&model.Player{Username: "dup", PasswordHash: "y"}).Error)

	require.NoError(t, db.Create(&model.PlayerRating{PlayerID: 1, BattleType: "pet"}).Error)
	assert.Error(t, db.Create(&model.PlayerRating{PlayerID: 1, BattleType: "pet"}).Error)
	assert.NoError(t, db.Create(&model.PlayerRating{PlayerID: 1, BattleType: "osrs"}).Error)
}
