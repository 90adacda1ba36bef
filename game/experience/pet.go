package experience

import (
	"time"

	"github.com/ukiyotei/battlehub/game/battle"
)

// PetAbility is a named ability with a use cooldown.
type PetAbility struct {
	Name        string
	EffectType  string
	EffectValue float64
	Cooldown    time.Duration
	LastUsed    time.Time
}

// Ready reports whether the ability is off cooldown.
func (a *PetAbility) Ready(now time.Time) bool {
	return a.LastUsed.IsZero() || now.Sub(a.LastUsed) >= a.Cooldown
}

// PetState is a pet's progression state, mutated only through GainExp
// and TrainSkill.
type PetState struct {
	Level       int
	Experience  int64
	SkillLevels map[string]int
	Loyalty     int
	Happiness   int
}

// maxSkillLevel caps individual pet skills.
const maxSkillLevel = 20

// GainExp adds experience and recomputes the pet's level from the pet
// curve. Returns the levels gained (0 when none).
func (p *PetState) GainExp(amount int) int {
	if amount < 0 {
		amount = 0
	}
	p.Experience += int64(amount)
	newLevel := LevelFromXP(p.Experience, battle.TypePet)
	gained := newLevel - p.Level
	if gained > 0 {
		p.Level = newLevel
		// Pets grow fonder as they grow stronger.
		p.Loyalty = clampStat(p.Loyalty+2*gained, 0, 100)
		p.Happiness = clampStat(p.Happiness+gained, 0, 100)
	}
	return gained
}

// TrainSkill raises one named skill by a level, up to the cap.
// Training costs a little happiness. Returns the new skill level.
func (p *PetState) TrainSkill(skill string) int {
	if p.SkillLevels == nil {
		p.SkillLevels = make(map[string]int)
	}
	lvl := p.SkillLevels[skill]
	if lvl >= maxSkillLevel {
		return lvl
	}
	lvl++
	p.SkillLevels[skill] = lvl
	p.Happiness = clampStat(p.Happiness-1, 0, 100)
	return lvl
}

func clampStat(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
