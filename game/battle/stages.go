package battle

import (
	"fmt"
	"strings"
)

// stageMultipliers maps a stat stage in [-6, 6] to its multiplier,
// following the canonical curve.
var stageMultipliers = map[int]float64{
	-6: 0.25, -5: 0.29, -4: 0.33, -3: 0.40, -2: 0.50, -1: 0.67,
	0: 1.0, 1: 1.5, 2: 2.0, 3: 2.5, 4: 3.0, 5: 3.5, 6: 4.0,
}

const (
	minStage = -6
	maxStage = 6
)

// StageMultiplier returns the multiplier for a stat stage. Stages
// outside [-6, 6] are clamped first.
func StageMultiplier(stage int) float64 {
	return stageMultipliers[clampStage(stage)]
}

// StagedStat recomputes a stat from its unmodified base value and the
// current stage. It never compounds: calling it repeatedly with the
// same inputs yields the same result.
func StagedStat(base, stage int) int {
	v := int(float64(base) * StageMultiplier(stage))
	if v < 1 {
		v = 1
	}
	return v
}

// ApplyStatChanges applies stage deltas to stages in place, clamping
// each resulting stage to [-6, 6]. It returns a message per stat whose
// clamped stage actually changed ("Attack rose!" / "Attack fell!").
func ApplyStatChanges(stages map[string]int, changes map[string]int) []string {
	var messages []string
	for stat, delta := range changes {
		if delta == 0 {
			continue
		}
		old := clampStage(stages[stat])
		next := clampStage(old + delta)
		if next == old {
			continue
		}
		stages[stat] = next
		if next > old {
			messages = append(messages, fmt.Sprintf("%s rose!", statLabel(stat)))
		} else {
			messages = append(messages, fmt.Sprintf("%s fell!", statLabel(stat)))
		}
	}
	return messages
}

func clampStage(stage int) int {
	if stage < minStage {
		return minStage
	}
	if stage > maxStage {
		return maxStage
	}
	return stage
}

// statLabel turns "special_attack" into "Special Attack".
func statLabel(stat string) string {
	parts := strings.Split(stat, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
