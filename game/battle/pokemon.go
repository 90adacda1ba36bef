package battle

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// typeChart holds every non-neutral matchup: attacking type →
// defending type → multiplier. Absent entries are 1.0. Multipliers
// compound across a defender's two types.
var typeChart = map[string]map[string]float64{
	"normal":   {"rock": 0.5, "ghost": 0, "steel": 0.5},
	"fire":     {"fire": 0.5, "water": 0.5, "grass": 2, "ice": 2, "bug": 2, "rock": 0.5, "dragon": 0.5, "steel": 2},
	"water":    {"fire": 2, "water": 0.5, "grass": 0.5, "ground": 2, "rock": 2, "dragon": 0.5},
	"electric": {"water": 2, "electric": 0.5, "grass": 0.5, "ground": 2, "flying": 2, "dragon": 0.5},
	"grass":    {"fire": 0.5, "water": 2, "grass": 0.5, "poison": 0.5, "ground": 2, "flying": 0.5, "bug": 0.5, "rock": 2, "dragon": 0.5, "steel": 0.5},
	"ice":      {"fire": 0.5, "water": 0.5, "grass": 2, "ice": 0.5, "ground": 2, "flying": 2, "dragon": 2, "steel": 0.5},
	"fighting": {"normal": 2, "ice": 2, "poison": 0.5, "flying": 0.5, "psychic": 0.5, "bug": 0.5, "rock": 2, "ghost": 0, "dark": 2, "steel": 2, "fairy": 0.5},
	"poison":   {"grass": 2, "poison": 0.5, "ground": 0.5, "rock": 0.5, "ghost": 0.5, "steel": 0, "fairy": 2},
	"ground":   {"fire": 2, "electric": 2, "grass": 0.5, "poison": 2, "flying": 0, "bug": 0.5, "rock": 2, "steel": 2},
	"flying":   {"electric": 0.5, "grass": 2, "fighting": 2, "bug": 2, "rock": 0.5, "steel": 0.5},
	"psychic":  {"fighting": 2, "poison": 2, "psychic": 0.5, "dark": 0, "steel": 0.5},
	"bug":      {"fire": 0.5, "grass": 2, "fighting": 0.5, "poison": 0.5, "flying": 0.5, "psychic": 2, "ghost": 0.5, "dark": 2, "steel": 0.5, "fairy": 0.5},
	"rock":     {"fire": 2, "ice": 2, "fighting": 0.5, "ground": 0.5, "flying": 2, "bug": 2, "steel": 0.5},
	"ghost":    {"normal": 0, "psychic": 2, "ghost": 2, "dark": 0.5},
	"dragon":   {"dragon": 2, "steel": 0.5, "fairy": 0},
	"dark":     {"fighting": 0.5, "psychic": 2, "ghost": 2, "dark": 0.5, "fairy": 0.5},
	"steel":    {"fire": 0.5, "water": 0.5, "electric": 0.5, "ice": 2, "rock": 2, "steel": 0.5, "fairy": 2},
	"fairy":    {"fire": 0.5, "fighting": 2, "poison": 0.5, "dragon": 2, "dark": 2, "steel": 0.5},
}

// TypeEffectiveness compounds the chart multiplier of moveType against
// each of the defender's types.
func TypeEffectiveness(moveType string, defenderTypes []string) float64 {
	mult := 1.0
	row := typeChart[strings.ToLower(moveType)]
	for _, dt := range defenderTypes {
		if v, ok := row[strings.ToLower(dt)]; ok {
			mult *= v
		}
	}
	return mult
}

const (
	critChance    = 0.0625
	critMult      = 1.5
	stabMult      = 1.5
	burnCureRate  = 0.15
	sleepWakeRate = 0.34
	thawRate      = 0.20
	paralyzeSkip  = 0.25
)

// PokemonSystem resolves battles with the mainline damage formula,
// the 18-type chart, STAB, crits, and turn-ticked status ailments.
type PokemonSystem struct {
	rng *rand.Rand
}

func NewPokemonSystem(rng *rand.Rand) *PokemonSystem {
	return &PokemonSystem{rng: rng}
}

// effectiveAttack returns the stage-adjusted attacking stat for the
// move category, halved for a burned physical attacker.
func (sys *PokemonSystem) effectiveAttack(p *PokemonCombatant, category string) int {
	var base int
	var stage int
	if category == "special" {
		base = p.Stats.SpecialAttack
		stage = p.StatStages["special_attack"]
	} else {
		base = p.Stats.Attack
		stage = p.StatStages["attack"]
	}
	v := StagedStat(base, stage)
	if category != "special" && p.Status == "burn" {
		v /= 2
		if v < 1 {
			v = 1
		}
	}
	return v
}

func (sys *PokemonSystem) effectiveDefense(p *PokemonCombatant, category string) int {
	if category == "special" {
		return StagedStat(p.Stats.SpecialDefense, p.StatStages["special_defense"])
	}
	return StagedStat(p.Stats.Defense, p.StatStages["defense"])
}

func hasType(p *PokemonCombatant, typ string) bool {
	for _, t := range p.Types {
		if strings.EqualFold(t, typ) {
			return true
		}
	}
	return false
}

func (sys *PokemonSystem) CalculateDamage(move string, attacker, defender *Combatant) (int, string) {
	a, d := attacker.Pokemon, defender.Pokemon
	m, ok := a.Moves[move]
	if !ok {
		return 0, "But it failed!"
	}
	if m.Category == "status" {
		return 0, fmt.Sprintf("%s used %s!", a.Name, move)
	}

	eff := TypeEffectiveness(m.Type, d.Types)
	if eff == 0 {
		return 0, fmt.Sprintf("It doesn't affect %s...", d.Name)
	}
	if m.Accuracy > 0 && sys.rng.Intn(100) >= m.Accuracy {
		return 0, fmt.Sprintf("%s's attack missed!", a.Name)
	}

	atk := sys.effectiveAttack(a, m.Category)
	def := sys.effectiveDefense(d, m.Category)

	base := (float64(2*a.Level)/5.0 + 2.0) * float64(m.Power) * float64(atk) / float64(def) / 50.0
	base += 2.0

	if hasType(a, m.Type) {
		base *= stabMult
	}
	base *= eff

	crit := sys.rng.Float64() < critChance
	if crit {
		base *= critMult
	}
	base *= 0.85 + sys.rng.Float64()*0.15

	dmg := int(base)
	if dmg < 1 {
		dmg = 1
	}

	msg := fmt.Sprintf("%s used %s!", a.Name, move)
	if crit {
		msg += " A critical hit!"
	}
	if eff > 1 {
		msg += " It's super effective!"
	} else if eff < 1 {
		msg += " It's not very effective..."
	}
	return dmg, msg
}

func (sys *PokemonSystem) ProcessTurn(s *State, move string) (*TurnResult, error) {
	if err := validateMove(s, move, s.CurrentTurn, pokemonHasMove); err != nil {
		return nil, err
	}
	attacker, defender := s.Sides()
	a := attacker.Pokemon
	m := a.Moves[move]
	if m.PP <= 0 {
		return nil, ErrInsufficientResource
	}

	res := &TurnResult{
		AttackerID: attacker.PlayerID,
		Move:       move,
	}

	// Pre-move status gate: the attempt itself may cure the ailment.
	if blocked, msg := sys.preMoveStatus(a, m); blocked {
		res.Message = msg
		sys.endOfTurn(a, res)
		res.DefenderHP = defender.HP()
		res.AttackerHP = attacker.HP()
		res.AttackerEnergy = m.PP
		return res, nil
	}

	m.PP--

	if m.Category == "status" {
		res.Message = fmt.Sprintf("%s used %s!", a.Name, move)
		// Status moves roll accuracy just like damaging ones.
		if m.Accuracy > 0 && sys.rng.Intn(100) >= m.Accuracy {
			res.Missed = true
			res.StatusMessages = append(res.StatusMessages, fmt.Sprintf("%s's attack missed!", a.Name))
		} else if applied, msg := sys.applyAilment(defender.Pokemon, m.Effect); applied {
			res.StatusMessages = append(res.StatusMessages, msg)
		} else {
			res.StatusMessages = append(res.StatusMessages, "But it failed!")
		}
	} else {
		dmg, msg := sys.CalculateDamage(move, attacker, defender)
		res.Damage = dmg
		res.Message = msg
		res.Missed = dmg == 0 && strings.Contains(msg, "missed")
		res.Effectiveness = TypeEffectiveness(m.Type, defender.Pokemon.Types)
		defender.ApplyDamage(dmg)

		// On-hit secondary effect.
		if dmg > 0 && m.Effect != "" && m.EffectChance > 0 && sys.rng.Intn(100) < m.EffectChance {
			if applied, msg := sys.applyAilment(defender.Pokemon, m.Effect); applied {
				res.StatusMessages = append(res.StatusMessages, msg)
			}
		}
	}

	sys.endOfTurn(a, res)
	res.DefenderHP = defender.HP()
	res.AttackerHP = attacker.HP()
	res.AttackerEnergy = m.PP
	return res, nil
}

// preMoveStatus rolls paralysis/sleep/freeze gates. Using a fire-type
// move always thaws a frozen attacker.
func (sys *PokemonSystem) preMoveStatus(a *PokemonCombatant, m *PokemonMove) (blocked bool, msg string) {
	switch a.Status {
	case "paralyze":
		if sys.rng.Float64() < paralyzeSkip {
			return true, fmt.Sprintf("%s is paralyzed! It can't move!", a.Name)
		}
	case "sleep":
		if sys.rng.Float64() < sleepWakeRate {
			a.Status = ""
			a.StatusTurns = 0
			return false, ""
		}
		return true, fmt.Sprintf("%s is fast asleep.", a.Name)
	case "freeze":
		if strings.EqualFold(m.Type, "fire") || sys.rng.Float64() < thawRate {
			a.Status = ""
			a.StatusTurns = 0
			return false, ""
		}
		return true, fmt.Sprintf("%s is frozen solid!", a.Name)
	}
	return false, ""
}

// applyAilment sets a new status on the target if it has none.
func (sys *PokemonSystem) applyAilment(target *PokemonCombatant, ailment string) (bool, string) {
	if ailment == "" || target.Status != "" {
		return false, ""
	}
	target.Status = ailment
	target.StatusTurns = 0
	switch ailment {
	case "burn":
		return true, fmt.Sprintf("%s was burned!", target.Name)
	case "poison":
		return true, fmt.Sprintf("%s was poisoned!", target.Name)
	case "toxic":
		return true, fmt.Sprintf("%s was badly poisoned!", target.Name)
	case "paralyze":
		return true, fmt.Sprintf("%s is paralyzed!", target.Name)
	case "sleep":
		return true, fmt.Sprintf("%s fell asleep!", target.Name)
	case "freeze":
		return true, fmt.Sprintf("%s was frozen solid!", target.Name)
	}
	return true, fmt.Sprintf("%s is afflicted by %s!", target.Name, ailment)
}

// endOfTurn ticks the acting side's own ailment: damage-over-time and
// self-cure rolls.
func (sys *PokemonSystem) endOfTurn(a *PokemonCombatant, res *TurnResult) {
	switch a.Status {
	case "burn":
		a.StatusTurns++
		a.CurrentHP = clampHP(a.CurrentHP - maxInt(1, a.Stats.HP/16))
		res.StatusMessages = append(res.StatusMessages, fmt.Sprintf("%s is hurt by its burn!", a.Name))
		if sys.rng.Float64() < burnCureRate {
			a.Status = ""
			a.StatusTurns = 0
			res.StatusMessages = append(res.StatusMessages, fmt.Sprintf("%s's burn healed!", a.Name))
		}
	case "poison":
		a.StatusTurns++
		a.CurrentHP = clampHP(a.CurrentHP - maxInt(1, a.Stats.HP/8))
		res.StatusMessages = append(res.StatusMessages, fmt.Sprintf("%s is hurt by poison!", a.Name))
	case "toxic":
		a.StatusTurns++
		a.CurrentHP = clampHP(a.CurrentHP - maxInt(1, a.Stats.HP/16*a.StatusTurns))
		res.StatusMessages = append(res.StatusMessages, fmt.Sprintf("%s is hurt by poison!", a.Name))
	}
}

func (sys *PokemonSystem) IsValidMove(s *State, move string, playerID int64) bool {
	if validateMove(s, move, playerID, pokemonHasMove) != nil {
		return false
	}
	p := s.Side(playerID).Pokemon
	if p.Status == "sleep" || p.Status == "freeze" {
		return false
	}
	return p.Moves[move].PP > 0
}

func (sys *PokemonSystem) AvailableMoves(s *State, playerID int64) []string {
	side := s.Side(playerID)
	if side == nil || side.Pokemon == nil {
		return nil
	}
	p := side.Pokemon
	if p.Status == "sleep" || p.Status == "freeze" {
		return nil
	}
	moves := make([]string, 0, len(p.Moves))
	for name, m := range p.Moves {
		if m.PP > 0 {
			moves = append(moves, name)
		}
	}
	sort.Strings(moves)
	return moves
}

func (sys *PokemonSystem) CheckBattleEnd(s *State) (bool, *int64) {
	return checkEndByHP(s)
}

func pokemonHasMove(c *Combatant, move string) bool {
	if c == nil || c.Pokemon == nil {
		return false
	}
	_, ok := c.Pokemon.Moves[move]
	return ok
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
