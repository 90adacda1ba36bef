package battle

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// prayerBonus holds the skill multipliers granted by one active prayer.
type prayerBonus struct {
	Attack   float64
	Strength float64
	Defence  float64
	Ranged   float64
	Magic    float64
}

// prayerBonuses follows the official prayer book values.
var prayerBonuses = map[string]prayerBonus{
	"clarity_of_thought":   {Attack: 1.05},
	"improved_reflexes":    {Attack: 1.10},
	"incredible_reflexes":  {Attack: 1.15},
	"burst_of_strength":    {Strength: 1.05},
	"superhuman_strength":  {Strength: 1.10},
	"ultimate_strength":    {Strength: 1.15},
	"thick_skin":           {Defence: 1.05},
	"rock_skin":            {Defence: 1.10},
	"steel_skin":           {Defence: 1.15},
	"chivalry":             {Attack: 1.15, Strength: 1.18, Defence: 1.20},
	"piety":                {Attack: 1.20, Strength: 1.23, Defence: 1.25},
	"eagle_eye":            {Ranged: 1.15},
	"rigour":               {Ranged: 1.20, Defence: 1.25},
	"mystic_might":         {Magic: 1.15},
	"augury":               {Magic: 1.25, Defence: 1.25},
}

// styleBonus holds the invisible level boosts for a combat style.
type styleBonus struct {
	Attack   int
	Strength int
	Defence  int
}

var styleBonuses = map[string]styleBonus{
	"accurate":   {Attack: 3},
	"aggressive": {Strength: 3},
	"defensive":  {Defence: 3},
	"controlled": {Attack: 1, Strength: 1, Defence: 1},
	"rapid":      {},
	"longrange":  {Defence: 3},
}

// OSRSSystem resolves battles with official-style max-hit and
// attack-roll/defence-roll accuracy formulas. Damage on a successful
// hit is a uniform roll in [0, maxHit]: a flat distribution, matching
// the real game rather than a bell curve.
type OSRSSystem struct {
	rng *rand.Rand
}

// NewOSRSSystem creates the engine with the given RNG (injectable for
// deterministic tests).
func NewOSRSSystem(rng *rand.Rand) *OSRSSystem {
	return &OSRSSystem{rng: rng}
}

// prayerMultiplier compounds all active prayers' multipliers for one
// skill selector.
func prayerMultiplier(prayers []string, sel func(prayerBonus) float64) float64 {
	mult := 1.0
	for _, p := range prayers {
		if b, ok := prayerBonuses[p]; ok {
			if v := sel(b); v > 0 {
				mult *= v
			}
		}
	}
	return mult
}

// effectiveLevel is floor(level * prayer) + styleBonus + 8.
func effectiveLevel(level int, prayerMult float64, style int) int {
	return int(math.Floor(float64(level)*prayerMult)) + style + 8
}

// CalculateMaxHit computes the deterministic maximum hit for the
// combatant with its given style: floor(0.5 + effStr*(bonus+64)/640).
func (sys *OSRSSystem) CalculateMaxHit(c *OSRSCombatant, style string) int {
	prayer := prayerMultiplier(c.ActivePrayers, func(b prayerBonus) float64 { return b.Strength })
	effStr := effectiveLevel(c.Skills.Strength, prayer, styleBonuses[style].Strength)
	return int(math.Floor(0.5 + float64(effStr)*float64(c.EquipmentBonus+64)/640.0))
}

// HitChance computes the accuracy of attacker against defender using
// the standard attack-roll/defence-roll ratio.
func (sys *OSRSSystem) HitChance(attacker, defender *OSRSCombatant, style string) float64 {
	atkPrayer := prayerMultiplier(attacker.ActivePrayers, func(b prayerBonus) float64 { return b.Attack })
	defPrayer := prayerMultiplier(defender.ActivePrayers, func(b prayerBonus) float64 { return b.Defence })

	effAtk := effectiveLevel(attacker.Skills.Attack, atkPrayer, styleBonuses[style].Attack)
	effDef := effectiveLevel(defender.Skills.Defence, defPrayer, styleBonuses[defender.CombatStyle].Defence)

	attackRoll := effAtk * (attacker.AttackBonus + 64)
	defenceRoll := effDef * (defender.DefenceBonus + 64)

	if attackRoll > defenceRoll {
		return 1.0 - float64(defenceRoll+2)/(2.0*float64(attackRoll+1))
	}
	return float64(attackRoll) / (2.0*float64(defenceRoll) + 2.0)
}

// styleFor resolves the effective style for a named move, falling back
// to the combatant's selected combat style.
func styleFor(c *OSRSCombatant, move string) string {
	if m, ok := c.Moves[move]; ok && m.Style != "" {
		return m.Style
	}
	if _, ok := styleBonuses[c.CombatStyle]; ok {
		return c.CombatStyle
	}
	return "accurate"
}

func (sys *OSRSSystem) CalculateDamage(move string, attacker, defender *Combatant) (int, string) {
	a, d := attacker.OSRS, defender.OSRS
	style := styleFor(a, move)

	if sys.rng.Float64() >= sys.HitChance(a, d, style) {
		return 0, "The attack missed!"
	}
	maxHit := sys.CalculateMaxHit(a, style)
	dmg := sys.rng.Intn(maxHit + 1)
	if dmg == 0 {
		return 0, "A glancing blow for 0 damage."
	}
	return dmg, fmt.Sprintf("Hit for %d damage!", dmg)
}

func (sys *OSRSSystem) ProcessTurn(s *State, move string) (*TurnResult, error) {
	if err := validateMove(s, move, s.CurrentTurn, osrsHasMove); err != nil {
		return nil, err
	}
	attacker, defender := s.Sides()

	dmg, msg := sys.CalculateDamage(move, attacker, defender)
	defender.ApplyDamage(dmg)

	return &TurnResult{
		AttackerID: attacker.PlayerID,
		Move:       move,
		Damage:     dmg,
		Missed:     dmg == 0 && msg == "The attack missed!",
		Message:    msg,
		DefenderHP: defender.HP(),
		AttackerHP: attacker.HP(),
	}, nil
}

func (sys *OSRSSystem) IsValidMove(s *State, move string, playerID int64) bool {
	return validateMove(s, move, playerID, osrsHasMove) == nil
}

func (sys *OSRSSystem) AvailableMoves(s *State, playerID int64) []string {
	side := s.Side(playerID)
	if side == nil || side.OSRS == nil {
		return nil
	}
	moves := make([]string, 0, len(side.OSRS.Moves))
	for name := range side.OSRS.Moves {
		moves = append(moves, name)
	}
	sort.Strings(moves)
	return moves
}

func (sys *OSRSSystem) CheckBattleEnd(s *State) (bool, *int64) {
	return checkEndByHP(s)
}

func osrsHasMove(c *Combatant, move string) bool {
	if c == nil || c.OSRS == nil {
		return false
	}
	_, ok := c.OSRS.Moves[move]
	return ok
}
