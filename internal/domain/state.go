package domain

import (
	"encoding/json"
	"fmt"
)

// UserState is the whole per-user document.
type UserState struct {
	DisplayName             string                      `json:"display_name,omitempty"`
	Records                 []RecordEntry               `json:"records"`
	Tasks                   []TaskDefinition            `json:"task_definitions"`
	BonusPoints             float64                     `json:"bonus_points"`
	UnlockedAchievements    []string                    `json:"unlocked_achievements"`
	SpentSkillPoints        map[string]float64          `json:"spent_skill_points"`
	UnlockedSkills          []string                    `json:"unlocked_skills"`
	FreezeCrystals          int                         `json:"freeze_crystals"`
	AwardedStreakMilestones map[string][]int            `json:"awarded_streak_milestones"`
	SettledGoalPeriods      map[string][]GoalSettlement `json:"settled_goal_periods"`
	HighGoals               []HighGoal                  `json:"high_goals"`
	TodoItems               []TodoItem                  `json:"todo_items"`
	Breaches                []Breach                    `json:"breaches"`
	Friends                 []string                    `json:"friends"`
}

// EnsureMaps replaces nil ledger maps with empty ones so callers can write.
func (s *UserState) EnsureMaps() {
	if s.SpentSkillPoints == nil {
		s.SpentSkillPoints = map[string]float64{}
	}
	if s.AwardedStreakMilestones == nil {
		s.AwardedStreakMilestones = map[string][]int{}
	}
	if s.SettledGoalPeriods == nil {
		s.SettledGoalPeriods = map[string][]GoalSettlement{}
	}
}

// TaskByID returns the task with the given ID.
func (s *UserState) TaskByID(id string) (*TaskDefinition, bool) {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return &s.Tasks[i], true
		}
	}
	return nil, false
}

// StatePatch is a partial UserState for merge-style saves.
// A nil field means "leave unchanged".
type StatePatch struct {
	DisplayName             *string                      `json:"display_name,omitempty"`
	Records                 *[]RecordEntry               `json:"records,omitempty"`
	Tasks                   *[]TaskDefinition            `json:"task_definitions,omitempty"`
	BonusPoints             *float64                     `json:"bonus_points,omitempty"`
	UnlockedAchievements    *[]string                    `json:"unlocked_achievements,omitempty"`
	SpentSkillPoints        *map[string]float64          `json:"spent_skill_points,omitempty"`
	UnlockedSkills          *[]string                    `json:"unlocked_skills,omitempty"`
	FreezeCrystals          *int                         `json:"freeze_crystals,omitempty"`
	AwardedStreakMilestones *map[string][]int            `json:"awarded_streak_milestones,omitempty"`
	SettledGoalPeriods      *map[string][]GoalSettlement `json:"settled_goal_periods,omitempty"`
	HighGoals               *[]HighGoal                  `json:"high_goals,omitempty"`
	TodoItems               *[]TodoItem                  `json:"todo_items,omitempty"`
	Breaches                *[]Breach                    `json:"breaches,omitempty"`
	Friends                 *[]string                    `json:"friends,omitempty"`

	// Ledger is appended to the XP history in the same write.
	Ledger []XPEntry `json:"-"`
}

// Fields serializes the patch into one JSON value per top-level field,
// with absent values stripped (see StripAbsent).
func (p StatePatch) Fields() (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal patch: %w", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}

	out := make(map[string]json.RawMessage, len(generic))
	for key, value := range generic {
		stripped, ok := StripAbsent(value)
		if !ok {
			continue
		}
		b, err := json.Marshal(stripped)
		if err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", key, err)
		}
		out[key] = b
	}
	return out, nil
}

// IsEmpty reports whether the patch changes nothing.
func (p StatePatch) IsEmpty() bool {
	if len(p.Ledger) > 0 {
		return false
	}
	fields, err := p.Fields()
	return err == nil && len(fields) == 0
}

// StripAbsent removes null values from a decoded JSON tree.
// Objects and arrays that become empty because every member was stripped are
// themselves absent; collections that were empty to begin with are kept, so a
// user can still clear a list. The second result is false when v is absent.
func StripAbsent(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		if len(x) == 0 {
			return x, true
		}
		out := make(map[string]any, len(x))
		for k, e := range x {
			if s, ok := StripAbsent(e); ok {
				out[k] = s
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	case []any:
		if len(x) == 0 {
			return x, true
		}
		out := make([]any, 0, len(x))
		for _, e := range x {
			if s, ok := StripAbsent(e); ok {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	default:
		return v, true
	}
}
