package battle

import (
	"math/rand"
	"strings"
	"testing"
)

func testPokemon(name string, types ...string) *PokemonCombatant {
	return &PokemonCombatant{
		Name:  name,
		Level: 20,
		Stats: PokemonStats{
			Attack: 60, Defense: 55, SpecialAttack: 70, SpecialDefense: 60,
			Speed: 65, HP: 150,
		},
		Types: types,
		Moves: map[string]*PokemonMove{
			"thunderbolt": {Power: 90, Type: "electric", PP: 15, MaxPP: 15, Category: "special", Accuracy: 100},
			"tackle":      {Power: 40, Type: "normal", PP: 35, MaxPP: 35, Category: "physical", Accuracy: 100},
			"thunder_wave": {Type: "electric", PP: 20, MaxPP: 20, Category: "status", Accuracy: 100, Effect: "paralyze"},
		},
		StatStages: map[string]int{},
		CurrentHP:  150,
	}
}

func newPokemonState(a, d *PokemonCombatant) *State {
	return &State{
		ID:           "pkmn-test",
		Type:         TypePokemon,
		Phase:        PhaseInProgress,
		ChallengerID: 1,
		OpponentID:   2,
		CurrentTurn:  1,
		Challenger:   &Combatant{PlayerID: 1, Pokemon: a},
		Opponent:     &Combatant{PlayerID: 2, Pokemon: d},
	}
}

func TestTypeEffectiveness_QuadWeakness(t *testing.T) {
	if got := TypeEffectiveness("electric", []string{"water", "ground"}); got != 4.0 {
		t.Errorf("electric vs water/ground: got %f, want 4.0", got)
	}
}

func TestTypeEffectiveness_Immunity(t *testing.T) {
	if got := TypeEffectiveness("normal", []string{"ghost"}); got != 0 {
		t.Errorf("normal vs ghost: got %f, want 0", got)
	}
	if got := TypeEffectiveness("ground", []string{"flying"}); got != 0 {
		t.Errorf("ground vs flying: got %f, want 0", got)
	}
}

func TestTypeEffectiveness_NeutralDefault(t *testing.T) {
	if got := TypeEffectiveness("electric", []string{"normal"}); got != 1.0 {
		t.Errorf("got %f, want 1.0", got)
	}
}

// Thunderbolt at level 20 against a water/ground defender must carry
// the full 4x multiplier relative to a neutral matchup, and the turn
// message must call it out.
func TestPokemonDamage_SuperEffectiveScenario(t *testing.T) {
	attacker := &Combatant{PlayerID: 1, Pokemon: testPokemon("Pikachu", "electric")}
	quad := &Combatant{PlayerID: 2, Pokemon: testPokemon("Quagsire", "water", "ground")}
	neutral := &Combatant{PlayerID: 2, Pokemon: testPokemon("Rattata", "normal")}

	// Identical seeds give identical accuracy/crit/random draws, so
	// the two damage values differ only by the type multiplier.
	quadDmg, quadMsg := NewPokemonSystem(rand.New(rand.NewSource(5))).
		CalculateDamage("thunderbolt", attacker, quad)
	neutralDmg, _ := NewPokemonSystem(rand.New(rand.NewSource(5))).
		CalculateDamage("thunderbolt", attacker, neutral)

	if !strings.Contains(quadMsg, "It's super effective!") {
		t.Errorf("message missing super effective: %q", quadMsg)
	}
	// STAB applies to both; only effectiveness differs. Integer
	// truncation allows a margin of a point either way.
	ratio := float64(quadDmg) / float64(neutralDmg)
	if ratio < 3.8 || ratio > 4.2 {
		t.Errorf("damage ratio %f (quad %d, neutral %d), want ~4", ratio, quadDmg, neutralDmg)
	}
}

func TestPokemonDamage_ImmunityYieldsZero(t *testing.T) {
	sys := NewPokemonSystem(rand.New(rand.NewSource(5)))
	attacker := &Combatant{PlayerID: 1, Pokemon: testPokemon("Rattata", "normal")}
	ghost := &Combatant{PlayerID: 2, Pokemon: testPokemon("Gastly", "ghost")}

	dmg, msg := sys.CalculateDamage("tackle", attacker, ghost)
	if dmg != 0 {
		t.Errorf("damage: got %d, want 0", dmg)
	}
	if !strings.Contains(msg, "doesn't affect") {
		t.Errorf("message: %q", msg)
	}
}

func TestPokemonDamage_STAB(t *testing.T) {
	defender := &Combatant{PlayerID: 2, Pokemon: testPokemon("Rattata", "normal")}
	stab := &Combatant{PlayerID: 1, Pokemon: testPokemon("Pikachu", "electric")}
	noStab := &Combatant{PlayerID: 1, Pokemon: testPokemon("Sandshrew", "ground")}

	stabDmg, _ := NewPokemonSystem(rand.New(rand.NewSource(9))).
		CalculateDamage("thunderbolt", stab, defender)
	plainDmg, _ := NewPokemonSystem(rand.New(rand.NewSource(9))).
		CalculateDamage("thunderbolt", noStab, defender)

	if stabDmg <= plainDmg {
		t.Errorf("STAB damage %d should exceed non-STAB %d", stabDmg, plainDmg)
	}
}

func TestPokemonProcessTurn_DecrementsPP(t *testing.T) {
	sys := NewPokemonSystem(rand.New(rand.NewSource(11)))
	st := newPokemonState(testPokemon("Pikachu", "electric"), testPokemon("Rattata", "normal"))

	res, err := sys.ProcessTurn(st, "thunderbolt")
	if err != nil {
		t.Fatal(err)
	}
	if pp := st.Challenger.Pokemon.Moves["thunderbolt"].PP; pp != 14 {
		t.Errorf("PP: got %d, want 14", pp)
	}
	if res.AttackerEnergy != 14 {
		t.Errorf("result PP: got %d, want 14", res.AttackerEnergy)
	}
	if res.Damage < 1 {
		t.Errorf("damage: got %d, want >= 1", res.Damage)
	}
}

func TestPokemonProcessTurn_NoPPLeavesStateUntouched(t *testing.T) {
	sys := NewPokemonSystem(rand.New(rand.NewSource(11)))
	a := testPokemon("Pikachu", "electric")
	a.Moves["thunderbolt"].PP = 0
	d := testPokemon("Rattata", "normal")
	st := newPokemonState(a, d)

	_, err := sys.ProcessTurn(st, "thunderbolt")
	if err != ErrInsufficientResource {
		t.Fatalf("got %v, want ErrInsufficientResource", err)
	}
	if d.CurrentHP != 150 {
		t.Errorf("defender HP mutated: %d", d.CurrentHP)
	}
	if a.Moves["thunderbolt"].PP != 0 {
		t.Errorf("PP mutated: %d", a.Moves["thunderbolt"].PP)
	}
}

func TestPokemonProcessTurn_StatusMoveAppliesAilment(t *testing.T) {
	sys := NewPokemonSystem(rand.New(rand.NewSource(11)))
	st := newPokemonState(testPokemon("Pikachu", "electric"), testPokemon("Rattata", "normal"))

	res, err := sys.ProcessTurn(st, "thunder_wave")
	if err != nil {
		t.Fatal(err)
	}
	if res.Damage != 0 {
		t.Errorf("status move dealt %d damage", res.Damage)
	}
	if st.Opponent.Pokemon.Status != "paralyze" {
		t.Errorf("status: got %q, want paralyze", st.Opponent.Pokemon.Status)
	}
}

func TestPokemonProcessTurn_StatusMoveCanMiss(t *testing.T) {
	sys := NewPokemonSystem(rand.New(rand.NewSource(11)))

	misses := 0
	for i := 0; i < 25; i++ {
		a := testPokemon("Pikachu", "electric")
		a.Moves["thunder_wave"].Accuracy = 1
		st := newPokemonState(a, testPokemon("Rattata", "normal"))

		res, err := sys.ProcessTurn(st, "thunder_wave")
		if err != nil {
			t.Fatal(err)
		}
		if res.Missed {
			misses++
			if st.Opponent.Pokemon.Status != "" {
				t.Fatalf("missed status move still applied %q", st.Opponent.Pokemon.Status)
			}
		}
	}
	if misses < 20 {
		t.Errorf("1%% accuracy missed %d/25 times, want at least 20", misses)
	}
}

func TestPokemonBurn_TicksAndHalvesPhysical(t *testing.T) {
	sys := NewPokemonSystem(rand.New(rand.NewSource(2)))
	a := testPokemon("Pikachu", "electric")
	d := testPokemon("Rattata", "normal")

	plain := sys.effectiveAttack(a, "physical")
	a.Status = "burn"
	burned := sys.effectiveAttack(a, "physical")
	if burned != plain/2 {
		t.Errorf("burned attack: got %d, want %d", burned, plain/2)
	}

	st := newPokemonState(a, d)
	hpBefore := a.CurrentHP
	if _, err := sys.ProcessTurn(st, "tackle"); err != nil {
		t.Fatal(err)
	}
	if a.CurrentHP >= hpBefore {
		t.Errorf("burn should tick damage: %d -> %d", hpBefore, a.CurrentHP)
	}
}

func TestPokemonToxic_RampsWithTurns(t *testing.T) {
	sys := NewPokemonSystem(rand.New(rand.NewSource(2)))
	a := testPokemon("Pikachu", "electric")
	a.Status = "toxic"
	d := testPokemon("Rattata", "normal")
	st := newPokemonState(a, d)
	st.CurrentTurn = 1

	hp0 := a.CurrentHP
	if _, err := sys.ProcessTurn(st, "tackle"); err != nil {
		t.Fatal(err)
	}
	firstTick := hp0 - a.CurrentHP

	hp1 := a.CurrentHP
	if _, err := sys.ProcessTurn(st, "tackle"); err != nil {
		t.Fatal(err)
	}
	secondTick := hp1 - a.CurrentHP

	if secondTick <= firstTick {
		t.Errorf("toxic should ramp: first %d, second %d", firstTick, secondTick)
	}
}

func TestPokemonSleep_BlocksValidation(t *testing.T) {
	sys := NewPokemonSystem(rand.New(rand.NewSource(2)))
	a := testPokemon("Pikachu", "electric")
	a.Status = "sleep"
	st := newPokemonState(a, testPokemon("Rattata", "normal"))

	if sys.IsValidMove(st, "tackle", 1) {
		t.Error("sleeping attacker should not validate")
	}
	if moves := sys.AvailableMoves(st, 1); len(moves) != 0 {
		t.Errorf("sleeping attacker has moves: %v", moves)
	}
}
