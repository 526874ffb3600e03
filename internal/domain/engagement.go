// Package domain: engagement types.
// Levels, tiers, achievements and constellation nodes are derived from the
// record log; none of them are stored except the ledgers that make awards
// happen at most once.
package domain

// ─── Level / Tier Types ─────────────────────────────────────────────────────

// Tier is one narrative band of levels with a one-time entry bonus.
type Tier struct {
	Index      int     `json:"index"` // 1-based
	Name       string  `json:"name"`
	Icon       string  `json:"icon"`
	Tagline    string  `json:"tagline"`
	Group      int     `json:"group"` // display colour group, 1-5
	MinLevel   int     `json:"min_level"`
	MaxLevel   int     `json:"max_level"`
	EntryBonus float64 `json:"entry_bonus"`
	Scaling    float64 `json:"scaling"` // XP increment growth multiplier
}

// Contains reports whether level falls inside the tier.
func (t Tier) Contains(level int) bool {
	return level >= t.MinLevel && level <= t.MaxLevel
}

// LevelInfo is the resolved level state for a total experience value.
type LevelInfo struct {
	CurrentLevel          int     `json:"current_level"`
	LevelName             string  `json:"level_name"`
	TierIndex             int     `json:"tier_index"`
	TierName              string  `json:"tier_name"`
	TierIcon              string  `json:"tier_icon"`
	TierGroup             int     `json:"tier_group"`
	ProgressPercentage    float64 `json:"progress_percentage"`
	TotalAccumulatedValue float64 `json:"total_accumulated_value"`
	CurrentLevelThreshold int64   `json:"current_level_threshold"`
	ValueTowardsNextLevel float64 `json:"value_towards_next_level"`
	PointsForNextLevel    *int64  `json:"points_for_next_level"` // nil at max level
	RemainingToNextLevel  float64 `json:"remaining_to_next_level"`
	IsMaxLevel            bool    `json:"is_max_level"`
}

// ─── Achievement Types ──────────────────────────────────────────────────────

// AchievementCategory groups achievements by theme.
type AchievementCategory string

const (
	CatGettingStarted AchievementCategory = "getting_started"
	CatStreaks        AchievementCategory = "streaks"
	CatVolume         AchievementCategory = "volume"
	CatGoals          AchievementCategory = "goals"
	CatMastery        AchievementCategory = "mastery"
)

// AchievementDef defines a single achievement's requirements.
type AchievementDef struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Category  AchievementCategory  `json:"category"`
	Icon      string               `json:"icon"`
	RewardXP  float64              `json:"reward_xp"`
	Predicate func(UserStats) bool `json:"-"`
}

// UserStats is a snapshot of user state fed to achievement predicates.
type UserStats struct {
	TotalRecords   int     `json:"total_records"`
	TotalValue     float64 `json:"total_value"`
	TaskCount      int     `json:"task_count"`
	BestStreak     int     `json:"best_streak"`    // best current streak across tasks
	LongestStreak  int     `json:"longest_streak"` // best ever across tasks
	Level          int     `json:"level"`
	GoalsMet       int     `json:"goals_met"`
	SkillsUnlocked int     `json:"skills_unlocked"`
	PactsHonored   int     `json:"pacts_honored"`
	HighGoalsDone  int     `json:"high_goals_done"`
	Friends        int     `json:"friends"`
}

// ─── Constellation Types ────────────────────────────────────────────────────

// SkillNode is one purchasable node of a task's constellation.
type SkillNode struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Cost     float64 `json:"cost"`
	Requires string  `json:"requires,omitempty"` // prerequisite node ID
}

// ─── Streak / Goal Ledger Types ─────────────────────────────────────────────

// GoalSettlement records one evaluated (task, period) pair.
type GoalSettlement struct {
	PeriodKey    string  `json:"period_key"`
	Met          bool    `json:"met"`
	BonusAwarded float64 `json:"bonus_awarded"`
}
