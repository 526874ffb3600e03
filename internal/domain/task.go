// Package domain: task categories, records and goals.
// A TaskDefinition is a user-defined category that records are logged against.
package domain

import (
	"math"
	"time"
)

// FrequencyType is a task's streak policy.
type FrequencyType string

const (
	FrequencyDaily  FrequencyType = "daily"
	FrequencyWeekly FrequencyType = "weekly"
)

// GoalInterval is the period a recurring goal is measured over.
type GoalInterval string

const (
	IntervalDaily   GoalInterval = "daily"
	IntervalWeekly  GoalInterval = "weekly"
	IntervalMonthly GoalInterval = "monthly"
)

// IsValid reports whether the interval is one of the known values.
func (i GoalInterval) IsValid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly:
		return true
	default:
		return false
	}
}

// GoalType selects how the actual value is compared to the target.
type GoalType string

const (
	GoalTypeAtLeast    GoalType = "at_least"
	GoalTypeNoMoreThan GoalType = "no_more_than"
)

// IntensityLevels is the number of cutoffs in TaskDefinition.IntensityThresholds.
const IntensityLevels = 4

// TaskDefinition is a user-defined record category.
type TaskDefinition struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	Color               string        `json:"color,omitempty"`
	Unit                string        `json:"unit,omitempty"`
	CustomUnitName      string        `json:"custom_unit_name,omitempty"`
	IntensityThresholds []float64     `json:"intensity_thresholds,omitempty"`
	DarkStreakEnabled   bool          `json:"dark_streak_enabled,omitempty"`
	FrequencyType       FrequencyType `json:"frequency_type,omitempty"`
	FrequencyCount      int           `json:"frequency_count,omitempty"`

	GoalValue                     *float64     `json:"goal_value,omitempty"`
	GoalInterval                  GoalInterval `json:"goal_interval,omitempty"`
	GoalType                      GoalType     `json:"goal_type,omitempty"`
	GoalCompletionBonusPercentage *float64     `json:"goal_completion_bonus_percentage,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsWeekly reports whether streaks are counted in qualifying weeks.
func (t TaskDefinition) IsWeekly() bool {
	return t.FrequencyType == FrequencyWeekly
}

// WeeklyTarget returns the distinct recorded days a week needs to count (>= 1).
func (t TaskDefinition) WeeklyTarget() int {
	if t.FrequencyCount < 1 {
		return 1
	}
	return t.FrequencyCount
}

// Goal returns the task's recurring goal, or a GoalNone goal when unset.
func (t TaskDefinition) Goal() Goal {
	if t.GoalValue == nil || !t.GoalInterval.IsValid() {
		return Goal{}
	}
	g := Goal{
		Kind:     GoalAtLeast,
		Target:   *t.GoalValue,
		Interval: t.GoalInterval,
	}
	if t.GoalType == GoalTypeNoMoreThan {
		g.Kind = GoalNoMoreThan
	}
	if t.GoalCompletionBonusPercentage != nil {
		g.BonusPercentage = *t.GoalCompletionBonusPercentage
	}
	return g
}

// GoalKind tags the Goal union.
type GoalKind int

const (
	GoalNone GoalKind = iota
	GoalAtLeast
	GoalNoMoreThan
)

func (k GoalKind) String() string {
	switch k {
	case GoalAtLeast:
		return string(GoalTypeAtLeast)
	case GoalNoMoreThan:
		return string(GoalTypeNoMoreThan)
	default:
		return "none"
	}
}

// Goal is a recurring per-interval target. The zero value is GoalNone.
type Goal struct {
	Kind            GoalKind
	Target          float64
	Interval        GoalInterval
	BonusPercentage float64
}

// IsSet reports whether a goal is configured.
func (g Goal) IsSet() bool { return g.Kind != GoalNone }

// Met compares an actual period value against the target.
func (g Goal) Met(actual float64) bool {
	switch g.Kind {
	case GoalAtLeast:
		return actual >= g.Target
	case GoalNoMoreThan:
		return actual <= g.Target
	default:
		return false
	}
}

// Bonus is the experience awarded when the goal is met: a percentage of the
// target, never of the actual value.
func (g Goal) Bonus() float64 {
	if g.BonusPercentage <= 0 {
		return 0
	}
	return math.Round(g.Target * g.BonusPercentage / 100)
}

// RecordEntry is one logged activity value on a calendar day.
// Several records per (date, task) are allowed and summed.
type RecordEntry struct {
	ID       string  `json:"id"`
	Date     Date    `json:"date"`
	Value    float64 `json:"value"`
	TaskType string  `json:"task_type,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

// HighGoal is a fixed-window cumulative target. Progress is always recomputed.
type HighGoal struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	TaskID      string  `json:"task_id"`
	TargetValue float64 `json:"target_value"`
	StartDate   Date    `json:"start_date"`
	EndDate     Date    `json:"end_date"`
}

// Window returns the goal's inclusive date range.
func (h HighGoal) Window() DateRange {
	return DateRange{Start: h.StartDate, End: h.EndDate}
}
