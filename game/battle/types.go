package battle

import (
	"time"
)

// Type identifies the rule set governing a battle.
type Type string

const (
	TypeOSRS    Type = "osrs"
	TypePokemon Type = "pokemon"
	TypePet     Type = "pet"
)

// Valid reports whether t is a known battle type.
func (t Type) Valid() bool {
	switch t {
	case TypeOSRS, TypePokemon, TypePet:
		return true
	}
	return false
}

// Phase is the battle lifecycle phase.
type Phase int

const (
	PhaseWaiting Phase = iota // challenge issued, opponent not yet confirmed
	PhaseInProgress
	PhaseFinished
)

// State is one in-progress or finished battle. All mutation happens
// under the owning Manager's lock; systems receive the State and
// mutate combatant sub-state in place.
type State struct {
	ID           string
	Type         Type
	Phase        Phase
	ChallengerID int64
	OpponentID   int64
	CurrentTurn  int64 // player whose move is expected next
	WinnerID     *int64
	Turns        int
	StartedAt    time.Time

	Challenger *Combatant
	Opponent   *Combatant
}

// Finished reports whether the battle has ended.
func (s *State) Finished() bool { return s.Phase == PhaseFinished }

// IsParticipant reports whether playerID is one of the two sides.
func (s *State) IsParticipant(playerID int64) bool {
	return playerID == s.ChallengerID || playerID == s.OpponentID
}

// Other returns the opposing participant's ID.
func (s *State) Other(playerID int64) int64 {
	if playerID == s.ChallengerID {
		return s.OpponentID
	}
	return s.ChallengerID
}

// Side returns the combatant belonging to playerID, or nil if the
// player is not a participant.
func (s *State) Side(playerID int64) *Combatant {
	switch playerID {
	case s.ChallengerID:
		return s.Challenger
	case s.OpponentID:
		return s.Opponent
	}
	return nil
}

// Sides returns the acting and defending combatants for the current turn.
func (s *State) Sides() (acting, defending *Combatant) {
	if s.CurrentTurn == s.ChallengerID {
		return s.Challenger, s.Opponent
	}
	return s.Opponent, s.Challenger
}

// SwitchTurn flips CurrentTurn to the other participant.
func (s *State) SwitchTurn() {
	s.CurrentTurn = s.Other(s.CurrentTurn)
}

// ---------------------------------------------------------------------------
//  Combatant: discriminated union over the three rule sets
// ---------------------------------------------------------------------------

// Combatant is one side's combat sub-state. Exactly one of the variant
// pointers matching the battle's Type is non-nil.
type Combatant struct {
	PlayerID int64

	OSRS    *OSRSCombatant
	Pokemon *PokemonCombatant
	Pet     *PetCombatant
}

// HP returns the variant's current hit points.
func (c *Combatant) HP() int {
	switch {
	case c.OSRS != nil:
		return c.OSRS.Hitpoints
	case c.Pokemon != nil:
		return c.Pokemon.CurrentHP
	case c.Pet != nil:
		return c.Pet.CurrentHP
	}
	return 0
}

// MaxHP returns the variant's maximum hit points.
func (c *Combatant) MaxHP() int {
	switch {
	case c.OSRS != nil:
		return c.OSRS.Skills.Hitpoints
	case c.Pokemon != nil:
		return c.Pokemon.Stats.HP
	case c.Pet != nil:
		return c.Pet.Stats.HP
	}
	return 0
}

// ApplyDamage subtracts dmg from the variant's current HP, clamping the
// stored value at 0. The caller keeps the raw delta for damage logs.
func (c *Combatant) ApplyDamage(dmg int) {
	if dmg < 0 {
		dmg = 0
	}
	switch {
	case c.OSRS != nil:
		c.OSRS.Hitpoints = clampHP(c.OSRS.Hitpoints - dmg)
	case c.Pokemon != nil:
		c.Pokemon.CurrentHP = clampHP(c.Pokemon.CurrentHP - dmg)
	case c.Pet != nil:
		c.Pet.CurrentHP = clampHP(c.Pet.CurrentHP - dmg)
	}
}

// Level returns a representative level for reward calculation: the
// Pokémon/Pet level, or an OSRS combat level derived from skills.
func (c *Combatant) Level() int {
	switch {
	case c.OSRS != nil:
		return c.OSRS.CombatLevel()
	case c.Pokemon != nil:
		return c.Pokemon.Level
	case c.Pet != nil:
		return c.Pet.Level
	}
	return 1
}

func clampHP(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// ---------------------------------------------------------------------------
//  OSRS variant
// ---------------------------------------------------------------------------

// OSRSSkills are the combat skill levels of one side.
type OSRSSkills struct {
	Attack    int
	Strength  int
	Defence   int
	Ranged    int
	Magic     int
	Hitpoints int
}

// OSRSMove is a named attack. An empty Style falls back to the
// combatant's selected combat style.
type OSRSMove struct {
	Style string
}

// OSRSCombatant models one side of an OSRS-style fight.
type OSRSCombatant struct {
	Skills         OSRSSkills
	EquipmentBonus int // strength bonus
	AttackBonus    int // accuracy equipment bonus
	DefenceBonus   int
	CombatStyle    string // accurate, aggressive, defensive, controlled, rapid, longrange
	ActivePrayers  []string
	Moves          map[string]OSRSMove
	Hitpoints      int // current HP; max is Skills.Hitpoints
}

// CombatLevel is the usual base+melee approximation, enough to compare
// two fighters for reward scaling.
func (o *OSRSCombatant) CombatLevel() int {
	base := float64(o.Skills.Defence+o.Skills.Hitpoints) / 4.0
	melee := 13.0 / 40.0 * float64(o.Skills.Attack+o.Skills.Strength)
	lvl := int(base + melee)
	if lvl < 3 {
		lvl = 3
	}
	return lvl
}

// ---------------------------------------------------------------------------
//  Pokémon variant
// ---------------------------------------------------------------------------

// PokemonStats holds the six battle stats. HP is the maximum.
type PokemonStats struct {
	Attack         int
	Defense        int
	SpecialAttack  int
	SpecialDefense int
	Speed          int
	HP             int
}

// PokemonMove describes one usable move.
type PokemonMove struct {
	Power        int
	Type         string
	PP           int // remaining uses
	MaxPP        int
	Category     string // physical, special, status
	Accuracy     int    // percent; 0 means never misses
	Effect       string // ailment applied (status moves, or on-hit chance)
	EffectChance int    // percent; 0 with non-empty Effect = always (status moves)
}

// PokemonCombatant models one side of a Pokémon-style fight.
type PokemonCombatant struct {
	Name        string
	Level       int
	Stats       PokemonStats
	Types       []string // 1-2 types
	Moves       map[string]*PokemonMove
	Status      string // "" or burn/poison/toxic/paralyze/sleep/freeze
	StatusTurns int    // turns the status has been active (toxic ramp)
	StatStages  map[string]int
	CurrentHP   int
}

// ---------------------------------------------------------------------------
//  Pet variant
// ---------------------------------------------------------------------------

// PetStats holds a pet's battle stats. HP is the maximum.
type PetStats struct {
	Attack  int
	Defense int
	Speed   int
	HP      int
}

// PetMove describes one usable pet move.
type PetMove struct {
	Power        int
	EnergyCost   int
	Element      string
	Accuracy     int // percent; 0 means never misses
	StatusEffect string
	StatusChance int // percent chance to apply StatusEffect on hit
	StatusTurns  int // duration applied with the status
	DotDamage    int // flat damage per turn for damage-over-time statuses
}

// PetStatus is one active ailment on a pet.
type PetStatus struct {
	Turns int // turns remaining
	Dot   int // flat damage applied at end of the pet's own turn
}

// PetCombatant models one side of a pet fight.
type PetCombatant struct {
	Name          string
	Level         int
	Stats         PetStats
	Element       string
	Loyalty       int
	Moves         map[string]*PetMove
	CurrentEnergy int
	MaxEnergy     int
	EnergyRegen   int
	StatusEffects map[string]*PetStatus
	CurrentHP     int
}
