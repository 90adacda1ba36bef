package experience

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ukiyotei/battlehub/events"
	"github.com/ukiyotei/battlehub/game/battle"
)

// rarityMultipliers scale XP awards by entity rarity.
var rarityMultipliers = map[string]float64{
	"common":    1.0,
	"uncommon":  1.2,
	"rare":      1.5,
	"epic":      2.0,
	"legendary": 3.0,
}

// SingleAwardCap is the default ceiling on what one award can grant
// after multipliers.
const SingleAwardCap = 1000

// SourceBattle marks an award that came from a battle; only battle
// awards qualify for the cross-system opponent bonus.
const SourceBattle = "battle"

// Boost is a time-boxed XP multiplier bonus. One boost per entity;
// setting a new one overwrites the old.
type Boost struct {
	Value     float64
	ExpiresAt time.Time
	Source    string
}

type dailyState struct {
	cap         int
	gainedToday int
	lastReset   time.Time
}

// Progress is the leveling state AwardExp mutates. The caller loads it
// from wherever it lives (player row, pet row) and persists it after.
type Progress struct {
	EntityID int64
	System   battle.Type
	Rarity   string // "" treated as common
	XP       int64
	Level    int
}

// AwardMeta carries optional context for an award.
type AwardMeta struct {
	// OpponentSystem is the game system the defeated opponent fought
	// under, for the cross-system battle bonus.
	OpponentSystem battle.Type
}

// AwardResult reports what one award did.
type AwardResult struct {
	Gained    int    `json:"gained"`
	Reason    string `json:"reason,omitempty"` // set only on rejection
	OldLevel  int    `json:"old_level"`
	NewLevel  int    `json:"new_level"`
	LeveledUp bool   `json:"leveled_up"`
	Coins     int    `json:"coins"`
}

// ReasonDailyCap is the rejection reason when the daily cap blocks an
// award.
const ReasonDailyCap = "daily_cap_reached"

// Manager applies rarity, boosts, and daily caps on top of the curve
// functions, and emits leveling events.
type Manager struct {
	mu     sync.Mutex
	boosts map[int64]Boost
	daily  map[int64]*dailyState

	singleAwardCap  int
	defaultDailyCap int // 0 = uncapped unless set per entity

	sink   events.Sink
	logger *zap.Logger
	now    func() time.Time
}

// NewManager wires an experience manager. sink may be nil to drop
// events.
func NewManager(sink events.Sink, logger *zap.Logger) *Manager {
	if sink == nil {
		sink = events.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		boosts:         make(map[int64]Boost),
		daily:          make(map[int64]*dailyState),
		singleAwardCap: SingleAwardCap,
		sink:           sink,
		logger:         logger,
		now:            time.Now,
	}
}

// SetSingleAwardCap overrides the per-award XP ceiling. Values below 1
// are ignored.
func (m *Manager) SetSingleAwardCap(cap int) {
	if cap < 1 {
		return
	}
	m.mu.Lock()
	m.singleAwardCap = cap
	m.mu.Unlock()
}

// SetDefaultDailyCap sets the daily ceiling applied to entities with no
// explicit cap of their own. 0 disables the default.
func (m *Manager) SetDefaultDailyCap(cap int) {
	if cap < 0 {
		return
	}
	m.mu.Lock()
	m.defaultDailyCap = cap
	m.mu.Unlock()
}

// SetClock replaces the time source, for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// AddExpBoost stores a boost for an entity. Last write wins; boosts do
// not stack.
func (m *Manager) AddExpBoost(entityID int64, value float64, duration time.Duration, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boosts[entityID] = Boost{
		Value:     value,
		ExpiresAt: m.now().Add(duration),
		Source:    source,
	}
}

// ActiveBoost returns the entity's boost value, expiring lazily on
// read. 0 means no active boost.
func (m *Manager) ActiveBoost(entityID int64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeBoostLocked(entityID)
}

func (m *Manager) activeBoostLocked(entityID int64) float64 {
	b, ok := m.boosts[entityID]
	if !ok {
		return 0
	}
	if m.now().After(b.ExpiresAt) {
		delete(m.boosts, entityID)
		return 0
	}
	return b.Value
}

// SweepExpiredBoosts removes all expired boosts, for the periodic
// scheduler pass. Returns how many were removed.
func (m *Manager) SweepExpiredBoosts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, b := range m.boosts {
		if now.After(b.ExpiresAt) {
			delete(m.boosts, id)
			removed++
		}
	}
	return removed
}

// SetDailyExpCap sets the entity's daily ceiling. 0 removes the
// explicit cap; the entity then falls back to the default cap if one
// is configured.
func (m *Manager) SetDailyExpCap(entityID int64, cap int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cap <= 0 {
		delete(m.daily, entityID)
		return
	}
	d, ok := m.daily[entityID]
	if !ok {
		d = &dailyState{lastReset: m.now()}
		m.daily[entityID] = d
	}
	d.cap = cap
}

// CanGainExp reports whether amount fits under the entity's daily cap.
func (m *Manager) CanGainExp(entityID int64, amount int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.dailyLocked(entityID)
	if d == nil {
		return true
	}
	m.resetIfDayElapsedLocked(d)
	return d.gainedToday+amount <= d.cap
}

// dailyLocked returns the entity's daily counter. When no explicit cap
// exists, one is materialized from the default cap; nil means the
// entity is uncapped.
func (m *Manager) dailyLocked(entityID int64) *dailyState {
	if d, ok := m.daily[entityID]; ok {
		return d
	}
	if m.defaultDailyCap > 0 {
		d := &dailyState{cap: m.defaultDailyCap, lastReset: m.now()}
		m.daily[entityID] = d
		return d
	}
	return nil
}

// resetIfDayElapsedLocked zeroes the counter once a full day has
// passed since the last reset.
func (m *Manager) resetIfDayElapsedLocked(d *dailyState) {
	if m.now().Sub(d.lastReset) >= 24*time.Hour {
		d.gainedToday = 0
		d.lastReset = m.now()
	}
}

// AwardExp runs the full award pipeline against p and mutates it in
// place on success: daily-cap gate, rarity multiplier, active boost,
// cross-system battle bonus, per-award cap, then leveling.
func (m *Manager) AwardExp(p *Progress, baseAmount int, source string, meta AwardMeta) AwardResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := AwardResult{OldLevel: p.Level, NewLevel: p.Level}

	if d := m.dailyLocked(p.EntityID); d != nil {
		m.resetIfDayElapsedLocked(d)
		if d.gainedToday+baseAmount > d.cap {
			res.Reason = ReasonDailyCap
			return res
		}
	}

	amount := float64(baseAmount)
	if mult, ok := rarityMultipliers[p.Rarity]; ok {
		amount *= mult
	}
	if boost := m.activeBoostLocked(p.EntityID); boost > 0 {
		amount *= 1.0 + boost
	}
	if source == SourceBattle && meta.OpponentSystem != "" {
		amount *= battleCrossBonus(p.System, meta.OpponentSystem)
	}

	gained := int(math.Floor(amount))
	if gained > m.singleAwardCap {
		gained = m.singleAwardCap
	}
	if gained < 1 {
		gained = 1
	}

	if d, ok := m.daily[p.EntityID]; ok {
		d.gainedToday += gained
	}

	p.XP += int64(gained)
	newLevel := LevelFromXP(p.XP, p.System)
	res.Gained = gained
	res.NewLevel = newLevel

	if newLevel > p.Level {
		res.LeveledUp = true
		res.Coins = CoinReward(newLevel-p.Level, p.System, nil)
		m.logger.Info("level up",
			zap.Int64("entityID", p.EntityID),
			zap.String("system", string(p.System)),
			zap.Int("from", p.Level),
			zap.Int("to", newLevel),
		)
		m.sink.Emit(events.GameEvent{
			Type:      events.TypeLevelUp,
			PlayerID:  p.EntityID,
			Timestamp: m.now(),
			Data: map[string]interface{}{
				"system":    string(p.System),
				"old_level": p.Level,
				"new_level": newLevel,
				"coins":     res.Coins,
			},
		})
	}
	p.Level = newLevel

	m.sink.Emit(events.GameEvent{
		Type:      events.TypeExperienceGain,
		PlayerID:  p.EntityID,
		Timestamp: m.now(),
		Data: map[string]interface{}{
			"system":     string(p.System),
			"gained":     gained,
			"total_xp":   p.XP,
			"source":     source,
			"leveled_up": res.LeveledUp,
		},
	})
	return res
}

// battleCrossBonus is the flat opponent-origin bonus for battle
// awards: OSRS players beating Pokémon opponents earn 20% extra, the
// reverse earns 30%, all other pairings are neutral.
func battleCrossBonus(ownSystem, opponentSystem battle.Type) float64 {
	switch {
	case ownSystem == battle.TypeOSRS && opponentSystem == battle.TypePokemon:
		return 1.2
	case ownSystem == battle.TypePokemon && opponentSystem == battle.TypeOSRS:
		return 1.3
	}
	return 1.0
}
