package tracker

import (
	"html"
	"math"
	"regexp"
	"strings"

	"github.com/levelup-labs/lifequest/internal/domain"
)

const (
	maxNameLen  = 60
	maxNotesLen = 2000
	maxPactLen  = 280
)

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// clean strips markup and surrounding space from user text.
func (s *Service) clean(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ─── Records ────────────────────────────────────────────────────────────────

func (s *Service) validateRecord(in *RecordInput, state *domain.UserState, today domain.Date) error {
	if !finite(in.Value) || in.Value < 0 {
		return domain.Invalid("value", "must be a non-negative number")
	}
	if in.Date > today {
		return domain.Invalid("date", "must not be in the future")
	}
	in.Notes = s.clean(in.Notes)
	if len(in.Notes) > maxNotesLen {
		return domain.Invalid("notes", "too long")
	}
	in.TaskType = strings.TrimSpace(in.TaskType)
	if in.TaskType != "" {
		if _, ok := state.TaskByID(in.TaskType); !ok {
			return domain.Invalid("task_type", "unknown task "+in.TaskType)
		}
	}
	return nil
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

func (s *Service) validateTask(in *TaskInput, tasks []domain.TaskDefinition, selfID string) error {
	in.Name = s.clean(in.Name)
	if in.Name == "" {
		return domain.Invalid("name", "must not be empty")
	}
	if len(in.Name) > maxNameLen {
		return domain.Invalid("name", "too long")
	}
	for _, t := range tasks {
		if t.ID != selfID && strings.EqualFold(t.Name, in.Name) {
			return domain.Invalid("name", "a task named "+t.Name+" already exists")
		}
	}

	if in.Color != "" && !colorPattern.MatchString(in.Color) {
		return domain.Invalid("color", "must be a #rgb or #rrggbb hex color")
	}
	in.Unit = s.clean(in.Unit)
	in.CustomUnitName = s.clean(in.CustomUnitName)

	if err := validateThresholds(in.IntensityThresholds); err != nil {
		return err
	}

	switch in.FrequencyType {
	case "", domain.FrequencyDaily:
		in.FrequencyType = domain.FrequencyDaily
		in.FrequencyCount = 0
	case domain.FrequencyWeekly:
		if in.FrequencyCount < 1 || in.FrequencyCount > 7 {
			return domain.Invalid("frequency_count", "weekly tasks need a count between 1 and 7")
		}
	default:
		return domain.Invalid("frequency_type", "must be daily or weekly")
	}

	return validateGoal(in)
}

// validateThresholds accepts nil or exactly four strictly ascending positives.
func validateThresholds(th []float64) error {
	if th == nil {
		return nil
	}
	if len(th) != domain.IntensityLevels {
		return domain.Invalid("intensity_thresholds", "need exactly 4 values")
	}
	prev := 0.0
	for _, v := range th {
		if !finite(v) || v <= prev {
			return domain.Invalid("intensity_thresholds", "must be positive and strictly ascending")
		}
		prev = v
	}
	return nil
}

func validateGoal(in *TaskInput) error {
	if in.GoalValue == nil {
		in.GoalInterval = ""
		in.GoalType = ""
		in.GoalCompletionBonusPercentage = nil
		return nil
	}
	if !finite(*in.GoalValue) || *in.GoalValue < 0 {
		return domain.Invalid("goal_value", "must be a non-negative number")
	}
	if !in.GoalInterval.IsValid() {
		return domain.Invalid("goal_interval", "must be daily, weekly or monthly")
	}
	switch in.GoalType {
	case "":
		in.GoalType = domain.GoalTypeAtLeast
	case domain.GoalTypeAtLeast, domain.GoalTypeNoMoreThan:
	default:
		return domain.Invalid("goal_type", "must be at_least or no_more_than")
	}
	if p := in.GoalCompletionBonusPercentage; p != nil && (!finite(*p) || *p < 0 || *p > 1000) {
		return domain.Invalid("goal_completion_bonus_percentage", "must be between 0 and 1000")
	}
	return nil
}

// ─── Pacts ──────────────────────────────────────────────────────────────────

func (s *Service) validatePact(in *PactInput, today domain.Date) error {
	in.Text = s.clean(in.Text)
	if in.Text == "" {
		return domain.Invalid("text", "must not be empty")
	}
	if len(in.Text) > maxPactLen {
		return domain.Invalid("text", "too long")
	}
	if in.DueDate != nil && *in.DueDate < today {
		return domain.Invalid("due_date", "must not be in the past")
	}
	if in.Penalty != nil && (!finite(*in.Penalty) || *in.Penalty < 0) {
		return domain.Invalid("penalty", "must be a non-negative number")
	}
	return nil
}
