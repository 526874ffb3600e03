package engagement

import (
	"fmt"
	"math"
	"sort"

	"github.com/levelup-labs/lifequest/internal/domain"
)

const (
	// MaxLevel is the top of the progression.
	MaxLevel = 100

	// baseIncrement is the XP gap between level 1 and level 2.
	baseIncrement = 100

	// incrementGrowth is how much the gap widens per level before tier scaling.
	incrementGrowth = 50
)

// DefaultTiers returns the ten narrative tiers, ten levels each.
func DefaultTiers() []domain.Tier {
	return []domain.Tier{
		{Index: 1, Name: "Novice", Icon: "🌱", Tagline: "Every habit starts as a seed.", Group: 1, MinLevel: 1, MaxLevel: 10, EntryBonus: 0, Scaling: 1.0},
		{Index: 2, Name: "Apprentice", Icon: "🔰", Tagline: "The routine takes root.", Group: 1, MinLevel: 11, MaxLevel: 20, EntryBonus: 250, Scaling: 1.2},
		{Index: 3, Name: "Journeyman", Icon: "🧭", Tagline: "You know the road now.", Group: 2, MinLevel: 21, MaxLevel: 30, EntryBonus: 500, Scaling: 1.4},
		{Index: 4, Name: "Adept", Icon: "⚔️", Tagline: "Discipline becomes a weapon.", Group: 2, MinLevel: 31, MaxLevel: 40, EntryBonus: 1000, Scaling: 1.6},
		{Index: 5, Name: "Veteran", Icon: "🛡️", Tagline: "Bad days no longer break you.", Group: 3, MinLevel: 41, MaxLevel: 50, EntryBonus: 1500, Scaling: 1.8},
		{Index: 6, Name: "Expert", Icon: "🏹", Tagline: "Precision over volume.", Group: 3, MinLevel: 51, MaxLevel: 60, EntryBonus: 2500, Scaling: 2.0},
		{Index: 7, Name: "Master", Icon: "🔮", Tagline: "Others ask how you do it.", Group: 4, MinLevel: 61, MaxLevel: 70, EntryBonus: 4000, Scaling: 2.3},
		{Index: 8, Name: "Grandmaster", Icon: "👑", Tagline: "The streak is part of you.", Group: 4, MinLevel: 71, MaxLevel: 80, EntryBonus: 6000, Scaling: 2.6},
		{Index: 9, Name: "Legend", Icon: "🐉", Tagline: "Stories get told about this log.", Group: 5, MinLevel: 81, MaxLevel: 90, EntryBonus: 8500, Scaling: 2.8},
		{Index: 10, Name: "Mythic", Icon: "🌌", Tagline: "Beyond the map.", Group: 5, MinLevel: 91, MaxLevel: 100, EntryBonus: 12000, Scaling: 3.0},
	}
}

// ValidateTiers checks that tiers partition levels 1..maxLevel with no gaps or overlaps.
func ValidateTiers(tiers []domain.Tier, maxLevel int) error {
	if len(tiers) == 0 {
		return fmt.Errorf("no tiers")
	}
	sorted := make([]domain.Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinLevel < sorted[j].MinLevel })

	next := 1
	for _, t := range sorted {
		if t.MinLevel != next {
			return fmt.Errorf("tier %q starts at level %d, want %d", t.Name, t.MinLevel, next)
		}
		if t.MaxLevel < t.MinLevel {
			return fmt.Errorf("tier %q has max level %d below min level %d", t.Name, t.MaxLevel, t.MinLevel)
		}
		next = t.MaxLevel + 1
	}
	if next-1 != maxLevel {
		return fmt.Errorf("tiers end at level %d, want %d", next-1, maxLevel)
	}
	return nil
}

// LevelTable maps total experience to levels. Immutable after construction.
type LevelTable struct {
	thresholds []int64
	tiers      []domain.Tier
}

// NewLevelTable builds the MaxLevel-entry threshold table for tiers.
// thresholds[i] is the minimum experience for level i+1. After each level the
// gap grows by floor(incrementGrowth * scaling of the next level's tier).
func NewLevelTable(tiers []domain.Tier) *LevelTable {
	thresholds := make([]int64, MaxLevel)
	var points int64
	increment := int64(baseIncrement)
	for i := 1; i < MaxLevel; i++ {
		points += increment
		thresholds[i] = points
		tier := tierFor(tiers, i+1)
		increment += int64(math.Floor(incrementGrowth * tier.Scaling))
	}
	return &LevelTable{thresholds: thresholds, tiers: tiers}
}

// NewLevelTableFromThresholds wraps a precomputed table. thresholds[0] must be 0.
func NewLevelTableFromThresholds(thresholds []int64, tiers []domain.Tier) *LevelTable {
	cp := make([]int64, len(thresholds))
	copy(cp, thresholds)
	return &LevelTable{thresholds: cp, tiers: tiers}
}

var defaultTable = NewLevelTable(DefaultTiers())

// DefaultLevelTable returns the process-wide table built from DefaultTiers.
func DefaultLevelTable() *LevelTable { return defaultTable }

// Thresholds returns a copy of the threshold table.
func (t *LevelTable) Thresholds() []int64 {
	cp := make([]int64, len(t.thresholds))
	copy(cp, t.thresholds)
	return cp
}

// Tiers returns a copy of the tier table.
func (t *LevelTable) Tiers() []domain.Tier {
	cp := make([]domain.Tier, len(t.tiers))
	copy(cp, t.tiers)
	return cp
}

// MaxLevel returns the highest reachable level.
func (t *LevelTable) MaxLevel() int { return len(t.thresholds) }

// XPForLevel returns the cumulative XP required to reach a given level.
func (t *LevelTable) XPForLevel(level int) int64 {
	if level <= 1 || len(t.thresholds) == 0 {
		return 0
	}
	if level > len(t.thresholds) {
		level = len(t.thresholds)
	}
	return t.thresholds[level-1]
}

// LevelForXP returns the level for a given XP amount.
func (t *LevelTable) LevelForXP(xp float64) int {
	if len(t.thresholds) == 0 {
		return 1
	}
	if xp < 0 || math.IsNaN(xp) {
		xp = 0
	}
	// First index whose threshold exceeds xp; the level is that index.
	i := sort.Search(len(t.thresholds), func(i int) bool {
		return float64(t.thresholds[i]) > xp
	})
	if i < 1 {
		return 1
	}
	return i
}

// TierForLevel returns the tier containing level.
func (t *LevelTable) TierForLevel(level int) domain.Tier {
	return tierFor(t.tiers, level)
}

// TiersBetween returns the tiers whose first level lies in (fromLevel, toLevel].
func (t *LevelTable) TiersBetween(fromLevel, toLevel int) []domain.Tier {
	var out []domain.Tier
	for _, tier := range t.tiers {
		if tier.MinLevel > fromLevel && tier.MinLevel <= toLevel {
			out = append(out, tier)
		}
	}
	return out
}

// Resolve computes the full level state for a total experience value.
// Negative totals resolve as zero.
func (t *LevelTable) Resolve(total float64) domain.LevelInfo {
	if total < 0 || math.IsNaN(total) {
		total = 0
	}
	level := t.LevelForXP(total)
	tier := t.TierForLevel(level)

	info := domain.LevelInfo{
		CurrentLevel:          level,
		LevelName:             levelName(tier, level),
		TierIndex:             tier.Index,
		TierName:              tier.Name,
		TierIcon:              tier.Icon,
		TierGroup:             tier.Group,
		TotalAccumulatedValue: total,
		CurrentLevelThreshold: t.XPForLevel(level),
	}
	info.ValueTowardsNextLevel = total - float64(info.CurrentLevelThreshold)

	if level >= t.MaxLevel() {
		info.IsMaxLevel = true
		info.ProgressPercentage = 100
		return info
	}

	next := t.thresholds[level]
	span := next - info.CurrentLevelThreshold
	info.PointsForNextLevel = &span
	info.RemainingToNextLevel = math.Max(0, float64(next)-total)
	if span <= 0 {
		info.ProgressPercentage = 100
		return info
	}
	info.ProgressPercentage = clampPct(info.ValueTowardsNextLevel / float64(span) * 100)
	return info
}

// ResolveLevel resolves against the default table.
func ResolveLevel(total float64) domain.LevelInfo {
	return defaultTable.Resolve(total)
}

// TotalExperience is the sum of all record values plus the bonus accumulator.
func TotalExperience(records []domain.RecordEntry, bonusPoints float64) float64 {
	return TotalValue(records) + bonusPoints
}

func tierFor(tiers []domain.Tier, level int) domain.Tier {
	for _, t := range tiers {
		if t.Contains(level) {
			return t
		}
	}
	if len(tiers) > 0 {
		if level < tiers[0].MinLevel {
			return tiers[0]
		}
		return tiers[len(tiers)-1]
	}
	return domain.Tier{Index: 1, Name: "Novice", Group: 1, MinLevel: 1, MaxLevel: MaxLevel, Scaling: 1}
}

var roman = []string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X"}

// levelName is the tier name plus the level's rank inside the tier.
func levelName(tier domain.Tier, level int) string {
	rank := level - tier.MinLevel
	if rank >= 0 && rank < len(roman) {
		return tier.Name + " " + roman[rank]
	}
	return fmt.Sprintf("%s %d", tier.Name, rank+1)
}

func clampPct(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
