package battle

import (
	"math"
	"math/rand"
	"time"
)

// Reward is what one participant earns from a finished battle.
type Reward struct {
	XP      int            `json:"xp"`
	Coins   int            `json:"coins"`
	Items   map[string]int `json:"items,omitempty"`
	Special map[string]int `json:"special,omitempty"`
}

// SpecialConditions describe reward-modifying circumstances supplied
// by the caller (streak tracking, daily state, running events).
type SpecialConditions struct {
	WinStreak     int
	FirstWinOfDay bool
	EventBonus    bool
}

// rewardTable holds the per-type base payouts and item drop chances.
type rewardTable struct {
	BaseXP    int
	BaseCoins int
	Drops     map[string]float64 // item name → drop probability per battle
}

// rewardTables reflects the per-system balancing: OSRS pays the most,
// pets the least.
var rewardTables = map[Type]rewardTable{
	TypeOSRS: {
		BaseXP:    150,
		BaseCoins: 500,
		Drops: map[string]float64{
			"rare_drop_table": 0.01,
			"combat_supplies": 0.05,
			"equipment":       0.03,
		},
	},
	TypePokemon: {
		BaseXP:    100,
		BaseCoins: 300,
		Drops: map[string]float64{
			"rare_candy": 0.02,
			"potion":     0.08,
			"poke_ball":  0.05,
		},
	},
	TypePet: {
		BaseXP:    75,
		BaseCoins: 200,
		Drops: map[string]float64{
			"pet_treat":    0.10,
			"toy":          0.05,
			"rare_essence": 0.01,
		},
	},
}

// loserShare is the consolation fraction of base rewards.
const loserShare = 0.25

// RewardsManager computes battle-end payouts from outcome, level gap,
// duration, and special conditions.
type RewardsManager struct {
	rng *rand.Rand
}

// NewRewardsManager creates the manager; a nil rng gets a time-seeded
// source.
func NewRewardsManager(rng *rand.Rand) *RewardsManager {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RewardsManager{rng: rng}
}

// LevelGapModifier rewards upsets and diminishes stomps: beating a
// higher-level opponent pays +10% per level of gap, beating a lower
// one loses 5% per level down to a 0.5 floor.
func LevelGapModifier(winnerLevel, loserLevel int) float64 {
	diff := winnerLevel - loserLevel
	if diff < 0 {
		return 1.0 + 0.1*float64(-diff)
	}
	return math.Max(0.5, 1.0-0.05*float64(diff))
}

// DurationModifier rewards longer fights, capped at 1.5x.
func DurationModifier(duration time.Duration) float64 {
	return math.Min(1.5, 1.0+duration.Seconds()/300.0)
}

// StreakModifier grows 10% per consecutive win, capped at 2x.
func StreakModifier(streak int) float64 {
	if streak <= 0 {
		return 1.0
	}
	return math.Min(2.0, 1.0+0.1*float64(streak))
}

// CalculateRewards computes the winner's and loser's rewards.
func (rm *RewardsManager) CalculateRewards(
	battleType Type,
	winnerLevel, loserLevel int,
	duration time.Duration,
	cond SpecialConditions,
) (winner, loser Reward) {
	table, ok := rewardTables[battleType]
	if !ok {
		table = rewardTables[TypePet]
	}

	mod := LevelGapModifier(winnerLevel, loserLevel)
	mod *= DurationModifier(duration)
	mod *= StreakModifier(cond.WinStreak)
	if cond.FirstWinOfDay {
		mod *= 2.0
	}

	winner = Reward{
		XP:    int(float64(table.BaseXP) * mod),
		Coins: int(float64(table.BaseCoins) * mod),
	}
	if cond.EventBonus {
		winner.Special = map[string]int{
			"bonus_points": 10 + rm.rng.Intn(11),
		}
	}

	for item, chance := range table.Drops {
		if rm.rng.Float64() < chance {
			if winner.Items == nil {
				winner.Items = make(map[string]int)
			}
			winner.Items[item]++
		}
	}

	loser = Reward{
		XP:    int(float64(table.BaseXP) * loserShare),
		Coins: int(float64(table.BaseCoins) * loserShare),
	}
	if loser.XP < 1 {
		loser.XP = 1
	}
	return winner, loser
}
