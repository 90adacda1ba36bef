package battle

import (
	"fmt"
	"math/rand"
	"time"
)

// TurnResult is the outcome of one processed turn.
type TurnResult struct {
	AttackerID     int64    `json:"attacker_id"`
	Move           string   `json:"move"`
	Damage         int      `json:"damage"` // raw damage dealt, pre-HP-clamp
	Missed         bool     `json:"missed"`
	Critical       bool     `json:"critical"`
	Effectiveness  float64  `json:"effectiveness,omitempty"`
	Message        string   `json:"message"`
	StatusMessages []string `json:"status_messages,omitempty"`
	DefenderHP     int      `json:"defender_hp"`
	AttackerHP     int      `json:"attacker_hp"`
	AttackerEnergy int      `json:"attacker_energy,omitempty"` // pet energy / remaining move PP
}

// System is the rule-set contract shared by the three battle engines.
// ProcessTurn mutates combatant sub-state in place but never flips the
// turn or finishes the battle: the Manager does that after inspecting
// HP via CheckBattleEnd.
type System interface {
	// CalculateDamage computes damage for move without mutating state.
	// It never returns a negative value; a miss or a 0x matchup yields
	// 0 with an explanatory message.
	CalculateDamage(move string, attacker, defender *Combatant) (int, string)

	// ProcessTurn resolves the current turn's move: resource costs,
	// damage application, status advancement.
	ProcessTurn(state *State, move string) (*TurnResult, error)

	// IsValidMove reports whether playerID may use move right now.
	IsValidMove(state *State, move string, playerID int64) bool

	// AvailableMoves lists the moves playerID can currently pay for
	// and is not status-blocked from using.
	AvailableMoves(state *State, playerID int64) []string

	// CheckBattleEnd reports whether either side's HP has reached 0
	// and, if so, who won.
	CheckBattleEnd(state *State) (bool, *int64)
}

// checkEndByHP is the shared CheckBattleEnd implementation: a side at
// 0 HP loses. A state already marked finished reports its recorded
// winner.
func checkEndByHP(s *State) (bool, *int64) {
	if s.Finished() {
		return true, s.WinnerID
	}
	if s.Challenger.HP() <= 0 {
		w := s.OpponentID
		return true, &w
	}
	if s.Opponent.HP() <= 0 {
		w := s.ChallengerID
		return true, &w
	}
	return false, nil
}

// Registry maps battle types to their engine. A State whose Type has
// no registered System is a programmer error and panics.
type Registry struct {
	systems map[Type]System
}

// NewRegistry builds a registry with all three engines sharing rng.
// A nil rng gets a time-seeded source.
func NewRegistry(rng *rand.Rand) *Registry {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Registry{systems: map[Type]System{
		TypeOSRS:    NewOSRSSystem(rng),
		TypePokemon: NewPokemonSystem(rng),
		TypePet:     NewPetSystem(rng),
	}}
}

// System returns the engine for t.
func (r *Registry) System(t Type) (System, error) {
	sys, ok := r.systems[t]
	if !ok {
		return nil, fmt.Errorf("battle: no system registered for type %q", t)
	}
	return sys, nil
}

// MustSystem is System for call sites holding an already-validated
// battle; an unregistered type there is an invariant violation.
func (r *Registry) MustSystem(t Type) System {
	sys, ok := r.systems[t]
	if !ok {
		panic(fmt.Sprintf("battle: no system registered for type %q", t))
	}
	return sys
}

// validateMove runs the common pre-move checks shared by all systems
// and returns the precise rejection.
func validateMove(s *State, move string, playerID int64, hasMove func(*Combatant, string) bool) error {
	if s.Finished() {
		return ErrBattleFinished
	}
	if s.Phase == PhaseWaiting {
		return ErrBattleNotStarted
	}
	if !s.IsParticipant(playerID) {
		return ErrNotParticipant
	}
	if playerID != s.CurrentTurn {
		return ErrWrongTurn
	}
	if !hasMove(s.Side(playerID), move) {
		return ErrInvalidMove
	}
	return nil
}
