package battle

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// elementChart holds every non-neutral pet matchup: attacking element
// → defending element → multiplier. Absent entries are neutral (1.0).
var elementChart = map[string]map[string]float64{
	"fire":      {"nature": 2, "ice": 2, "water": 0.5, "earth": 0.5},
	"water":     {"fire": 2, "earth": 2, "lightning": 0.5, "nature": 0.5},
	"earth":     {"lightning": 2, "fire": 2, "air": 0.5, "water": 0.5},
	"air":       {"earth": 2, "nature": 2, "lightning": 0.5, "ice": 0.5},
	"lightning": {"water": 2, "air": 2, "earth": 0.5},
	"light":     {"dark": 2, "shadow": 2, "light": 0.5},
	"dark":      {"light": 2, "psychic": 2, "dark": 0.5},
	"nature":    {"water": 2, "earth": 2, "fire": 0.5, "ice": 0.5},
	"ice":       {"nature": 2, "air": 2, "fire": 0.5},
	"psychic":   {"shadow": 0.5, "psychic": 0.5, "light": 2},
	"shadow":    {"psychic": 2, "light": 0.5, "shadow": 0.5},
}

// ElementEffectiveness looks up the pet chart; unknown pairings are
// neutral.
func ElementEffectiveness(attackElement, defendElement string) float64 {
	if row, ok := elementChart[strings.ToLower(attackElement)]; ok {
		if v, ok := row[strings.ToLower(defendElement)]; ok {
			return v
		}
	}
	return 1.0
}

// LoyaltyMod scales damage by loyalty: 1.0 at 0, capped at 1.5 from
// loyalty 100 upward.
func LoyaltyMod(loyalty int) float64 {
	if loyalty < 0 {
		loyalty = 0
	}
	mod := 1.0 + float64(loyalty)/200.0
	if mod > 1.5 {
		mod = 1.5
	}
	return mod
}

// attackStatusMods multiply a pet's attack while the named status is
// active; defenseStatusMods do the same for defense.
var attackStatusMods = map[string]float64{
	"burn":     0.8,
	"weakness": 0.75,
}

var defenseStatusMods = map[string]float64{
	"vulnerable": 0.75,
}

// PetSystem resolves the elemental pet minigame: energy-gated moves,
// loyalty scaling, and duration-tracked status effects with
// damage-over-time ticks.
type PetSystem struct {
	rng *rand.Rand
}

func NewPetSystem(rng *rand.Rand) *PetSystem {
	return &PetSystem{rng: rng}
}

func petEffectiveAttack(p *PetCombatant) float64 {
	atk := float64(p.Stats.Attack)
	for status := range p.StatusEffects {
		if m, ok := attackStatusMods[status]; ok {
			atk *= m
		}
	}
	return atk
}

func petEffectiveDefense(p *PetCombatant) float64 {
	def := float64(p.Stats.Defense)
	for status := range p.StatusEffects {
		if m, ok := defenseStatusMods[status]; ok {
			def *= m
		}
	}
	if def < 1 {
		def = 1
	}
	return def
}

func (sys *PetSystem) CalculateDamage(move string, attacker, defender *Combatant) (int, string) {
	a, d := attacker.Pet, defender.Pet
	m, ok := a.Moves[move]
	if !ok {
		return 0, "Nothing happened..."
	}

	if m.Accuracy > 0 && sys.rng.Intn(100) >= m.Accuracy {
		return 0, fmt.Sprintf("%s's %s missed!", a.Name, move)
	}

	eff := ElementEffectiveness(m.Element, d.Element)
	levelMod := float64(a.Level)/100.0 + 1.0
	dmg := float64(m.Power) * petEffectiveAttack(a) / petEffectiveDefense(d)
	dmg *= levelMod * eff * LoyaltyMod(a.Loyalty)

	result := int(dmg)
	if result < 1 {
		result = 1
	}

	msg := fmt.Sprintf("%s used %s for %d damage!", a.Name, move, result)
	if eff > 1 {
		msg += " It's super effective!"
	} else if eff < 1 {
		msg += " It's not very effective..."
	}
	return result, msg
}

func (sys *PetSystem) ProcessTurn(s *State, move string) (*TurnResult, error) {
	if err := validateMove(s, move, s.CurrentTurn, petHasMove); err != nil {
		return nil, err
	}
	attacker, defender := s.Sides()
	a := attacker.Pet
	m := a.Moves[move]

	if _, stunned := a.StatusEffects["stun"]; stunned {
		res := &TurnResult{
			AttackerID: attacker.PlayerID,
			Move:       move,
			Message:    fmt.Sprintf("%s is stunned and can't move!", a.Name),
		}
		sys.endOfTurn(a, res)
		res.DefenderHP = defender.HP()
		res.AttackerHP = attacker.HP()
		res.AttackerEnergy = a.CurrentEnergy
		return res, nil
	}

	// Reject before any mutation so a failed move deducts nothing.
	if m.EnergyCost > a.CurrentEnergy {
		return nil, ErrInsufficientResource
	}
	a.CurrentEnergy -= m.EnergyCost

	dmg, msg := sys.CalculateDamage(move, attacker, defender)
	res := &TurnResult{
		AttackerID:    attacker.PlayerID,
		Move:          move,
		Damage:        dmg,
		Missed:        dmg == 0,
		Effectiveness: ElementEffectiveness(m.Element, defender.Pet.Element),
		Message:       msg,
	}
	defender.ApplyDamage(dmg)

	// Status application rides on a successful hit.
	if dmg > 0 && m.StatusEffect != "" && sys.rng.Intn(100) < m.StatusChance {
		d := defender.Pet
		if _, active := d.StatusEffects[m.StatusEffect]; !active {
			turns := m.StatusTurns
			if turns <= 0 {
				turns = 3
			}
			if d.StatusEffects == nil {
				d.StatusEffects = make(map[string]*PetStatus)
			}
			d.StatusEffects[m.StatusEffect] = &PetStatus{Turns: turns, Dot: m.DotDamage}
			res.StatusMessages = append(res.StatusMessages,
				fmt.Sprintf("%s is afflicted with %s!", d.Name, m.StatusEffect))
		}
	}

	sys.endOfTurn(a, res)
	res.DefenderHP = defender.HP()
	res.AttackerHP = attacker.HP()
	res.AttackerEnergy = a.CurrentEnergy
	return res, nil
}

// endOfTurn applies the acting pet's own DoT ticks, expires statuses,
// and regenerates energy.
func (sys *PetSystem) endOfTurn(a *PetCombatant, res *TurnResult) {
	for name, st := range a.StatusEffects {
		if st.Dot > 0 {
			a.CurrentHP = clampHP(a.CurrentHP - st.Dot)
			res.StatusMessages = append(res.StatusMessages,
				fmt.Sprintf("%s takes %d damage from %s!", a.Name, st.Dot, name))
		}
		st.Turns--
		if st.Turns <= 0 {
			delete(a.StatusEffects, name)
			res.StatusMessages = append(res.StatusMessages,
				fmt.Sprintf("%s recovered from %s!", a.Name, name))
		}
	}

	a.CurrentEnergy += a.EnergyRegen
	if a.CurrentEnergy > a.MaxEnergy {
		a.CurrentEnergy = a.MaxEnergy
	}
}

func (sys *PetSystem) IsValidMove(s *State, move string, playerID int64) bool {
	if validateMove(s, move, playerID, petHasMove) != nil {
		return false
	}
	p := s.Side(playerID).Pet
	if _, stunned := p.StatusEffects["stun"]; stunned {
		return false
	}
	return p.Moves[move].EnergyCost <= p.CurrentEnergy
}

func (sys *PetSystem) AvailableMoves(s *State, playerID int64) []string {
	side := s.Side(playerID)
	if side == nil || side.Pet == nil {
		return nil
	}
	p := side.Pet
	if _, stunned := p.StatusEffects["stun"]; stunned {
		return nil
	}
	moves := make([]string, 0, len(p.Moves))
	for name, m := range p.Moves {
		if m.EnergyCost <= p.CurrentEnergy {
			moves = append(moves, name)
		}
	}
	sort.Strings(moves)
	return moves
}

func (sys *PetSystem) CheckBattleEnd(s *State) (bool, *int64) {
	return checkEndByHP(s)
}

func petHasMove(c *Combatant, move string) bool {
	if c == nil || c.Pet == nil {
		return false
	}
	_, ok := c.Pet.Moves[move]
	return ok
}
