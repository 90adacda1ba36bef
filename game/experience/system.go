// Package experience implements the leveling curves, cross-system
// bonus matrix, and the stateful award pipeline (rarity multipliers,
// time-boxed boosts, daily caps) shared by all three game systems.
package experience

import (
	"math"

	"github.com/ukiyotei/battlehub/game/battle"
)

// CurveConfig parameterizes one game system's grind curve.
type CurveConfig struct {
	BaseMultiplier float64 // divides the accumulated curve sum
	LevelScaling   float64 // exponent divisor; smaller = steeper
	MaxLevel       int
	EconomyRate    int // coins per level gained
}

// curves holds the per-system constants. OSRS uses the classic runescape
// curve; the other two are gentler variants of the same family.
var curves = map[battle.Type]CurveConfig{
	battle.TypeOSRS:    {BaseMultiplier: 4.0, LevelScaling: 7.0, MaxLevel: 99, EconomyRate: 100},
	battle.TypePokemon: {BaseMultiplier: 5.0, LevelScaling: 8.0, MaxLevel: 100, EconomyRate: 75},
	battle.TypePet:     {BaseMultiplier: 6.0, LevelScaling: 10.0, MaxLevel: 50, EconomyRate: 50},
}

// crossBonus is the base cross-system bonus matrix: progressing in the
// source system grants extra XP toward the target system.
var crossBonus = map[battle.Type]map[battle.Type]float64{
	battle.TypeOSRS: {
		battle.TypePokemon: 1.2,
		battle.TypePet:     1.1,
	},
	battle.TypePokemon: {
		battle.TypeOSRS: 1.3,
		battle.TypePet:  1.15,
	},
	battle.TypePet: {
		battle.TypeOSRS:    1.1,
		battle.TypePokemon: 1.1,
	},
}

// Curve returns the curve config for a game system, falling back to
// the pet curve for unknown types.
func Curve(system battle.Type) CurveConfig {
	if c, ok := curves[system]; ok {
		return c
	}
	return curves[battle.TypePet]
}

// XPForLevel returns the total XP required to reach level in the given
// system. Levels at or above the system's max require infinite XP.
func XPForLevel(level int, system battle.Type) int64 {
	c := Curve(system)
	if level >= c.MaxLevel {
		return math.MaxInt64
	}
	if level <= 1 {
		return 0
	}
	var sum float64
	for i := 1; i < level; i++ {
		sum += float64(i) + 300.0*math.Pow(2, float64(i)/c.LevelScaling)
	}
	return int64(math.Floor(sum / c.BaseMultiplier))
}

// LevelFromXP returns the highest level whose XP requirement is met.
// It is the exact inverse boundary of XPForLevel.
func LevelFromXP(xp int64, system battle.Type) int {
	c := Curve(system)
	level := 1
	for l := 2; l <= c.MaxLevel; l++ {
		if XPForLevel(l, system) > xp {
			break
		}
		level = l
	}
	return level
}

// XPGain scales a base award by the recipient's level and then by each
// supplied modifier. Floored, minimum 1.
func XPGain(baseXP int, level int, modifiers []float64) int {
	xp := float64(baseXP) * (1.0 + float64(level)*0.1)
	for _, m := range modifiers {
		xp *= m
	}
	v := int(math.Floor(xp))
	if v < 1 {
		v = 1
	}
	return v
}

// CrossGameBonus returns the XP multiplier earned in targetSystem for
// outleveling it in sourceSystem. 1.0 when the source is not ahead;
// otherwise the configured base bonus plus 1% per level of lead,
// capped at half the base bonus extra (total cap 1.5x base).
func CrossGameBonus(sourceSystem, targetSystem battle.Type, sourceLevel, targetLevel int) float64 {
	if sourceLevel <= targetLevel {
		return 1.0
	}
	base := 1.0
	if row, ok := crossBonus[sourceSystem]; ok {
		if b, ok := row[targetSystem]; ok {
			base = b
		}
	}
	bonus := base + math.Min(float64(sourceLevel-targetLevel)*0.01, base*0.5)
	return math.Min(bonus, 1.5*base)
}

// CoinReward converts levels gained into coins via the system's
// economy rate, scaled by each modifier. Floored, minimum 1.
func CoinReward(levelsGained int, system battle.Type, modifiers []float64) int {
	c := Curve(system)
	coins := float64(c.EconomyRate * levelsGained)
	for _, m := range modifiers {
		coins *= m
	}
	v := int(math.Floor(coins))
	if v < 1 {
		v = 1
	}
	return v
}
