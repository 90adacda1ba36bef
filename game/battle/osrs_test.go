package battle

import (
	"math"
	"math/rand"
	"testing"
)

func newOSRSState(attacker, defender *OSRSCombatant) *State {
	return &State{
		ID:           "osrs-test",
		Type:         TypeOSRS,
		Phase:        PhaseInProgress,
		ChallengerID: 1,
		OpponentID:   2,
		CurrentTurn:  1,
		Challenger:   &Combatant{PlayerID: 1, OSRS: attacker},
		Opponent:     &Combatant{PlayerID: 2, OSRS: defender},
	}
}

func strongOSRSFighter() *OSRSCombatant {
	return &OSRSCombatant{
		Skills:         OSRSSkills{Attack: 99, Strength: 99, Defence: 40, Hitpoints: 99},
		EquipmentBonus: 20,
		AttackBonus:    200,
		CombatStyle:    "aggressive",
		Moves:          map[string]OSRSMove{"slash": {Style: "aggressive"}},
		Hitpoints:      99,
	}
}

func weakOSRSFighter() *OSRSCombatant {
	return &OSRSCombatant{
		Skills:      OSRSSkills{Attack: 10, Strength: 10, Defence: 1, Hitpoints: 50},
		CombatStyle: "accurate",
		Moves:       map[string]OSRSMove{"stab": {Style: "accurate"}},
		Hitpoints:   50,
	}
}

func TestOSRSMaxHit_Deterministic(t *testing.T) {
	sys := NewOSRSSystem(rand.New(rand.NewSource(1)))
	c := strongOSRSFighter()

	// effective strength = floor(99*1.0) + 3 (aggressive) + 8 = 110
	// max hit = floor(0.5 + 110*(20+64)/640) = floor(14.9375) = 14
	want := 14
	for i := 0; i < 10; i++ {
		if got := sys.CalculateMaxHit(c, "aggressive"); got != want {
			t.Fatalf("max hit: got %d, want %d", got, want)
		}
	}
}

func TestOSRSMaxHit_PrayerBoost(t *testing.T) {
	sys := NewOSRSSystem(rand.New(rand.NewSource(1)))
	c := strongOSRSFighter()
	base := sys.CalculateMaxHit(c, "aggressive")

	c.ActivePrayers = []string{"piety"}
	// effective strength = floor(99*1.23) + 3 + 8 = 132
	boosted := sys.CalculateMaxHit(c, "aggressive")
	if boosted <= base {
		t.Errorf("piety should raise max hit: base %d, boosted %d", base, boosted)
	}
	if boosted != 17 {
		t.Errorf("boosted max hit: got %d, want 17", boosted)
	}
}

func TestOSRSDamage_UniformRollMean(t *testing.T) {
	sys := NewOSRSSystem(rand.New(rand.NewSource(42)))
	attacker := &Combatant{PlayerID: 1, OSRS: strongOSRSFighter()}
	defender := &Combatant{PlayerID: 2, OSRS: weakOSRSFighter()}

	maxHit := sys.CalculateMaxHit(attacker.OSRS, "aggressive")

	var sum, hits int
	for i := 0; i < 10000; i++ {
		dmg, msg := sys.CalculateDamage("slash", attacker, defender)
		if msg == "The attack missed!" {
			continue
		}
		sum += dmg
		hits++
	}
	if hits < 9000 {
		t.Fatalf("hit count suspiciously low: %d", hits)
	}
	mean := float64(sum) / float64(hits)
	want := float64(maxHit) / 2.0
	if math.Abs(mean-want) > 0.05*want {
		t.Errorf("sample mean %f outside 5%% of %f", mean, want)
	}
}

func TestOSRSDamage_NeverNegative(t *testing.T) {
	sys := NewOSRSSystem(rand.New(rand.NewSource(7)))
	attacker := &Combatant{PlayerID: 1, OSRS: weakOSRSFighter()}
	defender := &Combatant{PlayerID: 2, OSRS: strongOSRSFighter()}
	for i := 0; i < 1000; i++ {
		dmg, _ := sys.CalculateDamage("stab", attacker, defender)
		if dmg < 0 {
			t.Fatalf("negative damage %d", dmg)
		}
	}
}

func TestOSRSHitChance_FavorsAccuracyAdvantage(t *testing.T) {
	sys := NewOSRSSystem(rand.New(rand.NewSource(1)))
	strong := strongOSRSFighter()
	weak := weakOSRSFighter()

	high := sys.HitChance(strong, weak, "aggressive")
	low := sys.HitChance(weak, strong, "accurate")
	if high <= low {
		t.Errorf("expected %f > %f", high, low)
	}
	if high <= 0 || high > 1 || low <= 0 || low > 1 {
		t.Errorf("hit chances out of range: %f, %f", high, low)
	}
}

func TestOSRSProcessTurn_AppliesDamageAndClampsHP(t *testing.T) {
	sys := NewOSRSSystem(rand.New(rand.NewSource(3)))
	st := newOSRSState(strongOSRSFighter(), weakOSRSFighter())
	st.Opponent.OSRS.Hitpoints = 1

	var res *TurnResult
	var err error
	for i := 0; i < 50; i++ {
		res, err = sys.ProcessTurn(st, "slash")
		if err != nil {
			t.Fatal(err)
		}
		if res.Damage > 0 {
			break
		}
	}
	if res.Damage == 0 {
		t.Fatal("no hit landed in 50 attempts")
	}
	if st.Opponent.HP() != 0 {
		t.Errorf("HP should clamp at 0, got %d", st.Opponent.HP())
	}
	if res.DefenderHP != 0 {
		t.Errorf("result defender HP: got %d, want 0", res.DefenderHP)
	}
}

func TestOSRSProcessTurn_Rejections(t *testing.T) {
	sys := NewOSRSSystem(rand.New(rand.NewSource(3)))
	st := newOSRSState(strongOSRSFighter(), weakOSRSFighter())

	if _, err := sys.ProcessTurn(st, "no_such_move"); err != ErrInvalidMove {
		t.Errorf("unknown move: got %v, want ErrInvalidMove", err)
	}

	if sys.IsValidMove(st, "stab", 2) {
		t.Error("opponent should not move on challenger's turn")
	}

	st.Phase = PhaseFinished
	if _, err := sys.ProcessTurn(st, "slash"); err != ErrBattleFinished {
		t.Errorf("finished battle: got %v, want ErrBattleFinished", err)
	}
}

func TestOSRSCheckBattleEnd(t *testing.T) {
	sys := NewOSRSSystem(rand.New(rand.NewSource(3)))
	st := newOSRSState(strongOSRSFighter(), weakOSRSFighter())

	ended, winner := sys.CheckBattleEnd(st)
	if ended || winner != nil {
		t.Fatalf("battle should not be over: %v %v", ended, winner)
	}

	st.Opponent.OSRS.Hitpoints = 0
	ended, winner = sys.CheckBattleEnd(st)
	if !ended || winner == nil || *winner != 1 {
		t.Fatalf("challenger should win: ended=%v winner=%v", ended, winner)
	}
}

func TestOSRSAvailableMoves_Sorted(t *testing.T) {
	sys := NewOSRSSystem(rand.New(rand.NewSource(3)))
	c := strongOSRSFighter()
	c.Moves["block"] = OSRSMove{Style: "defensive"}
	c.Moves["crush"] = OSRSMove{}
	st := newOSRSState(c, weakOSRSFighter())

	moves := sys.AvailableMoves(st, 1)
	want := []string{"block", "crush", "slash"}
	if len(moves) != len(want) {
		t.Fatalf("got %v, want %v", moves, want)
	}
	for i := range want {
		if moves[i] != want[i] {
			t.Fatalf("got %v, want %v", moves, want)
		}
	}
}
