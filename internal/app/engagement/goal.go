package engagement

import (
	"fmt"

	"github.com/levelup-labs/lifequest/internal/domain"
)

// ─── Goal Periods ───────────────────────────────────────────────────────────

// Period is one day, Monday-start week, or calendar month.
type Period struct {
	Interval domain.GoalInterval `json:"interval"`
	Start    domain.Date         `json:"start"`
	End      domain.Date         `json:"end"`
}

// Range returns the period as an inclusive date range.
func (p Period) Range() domain.DateRange {
	return domain.NewDateRange(p.Start, p.End)
}

// Key identifies the period in the settled-goal ledger.
func (p Period) Key() string {
	switch p.Interval {
	case domain.IntervalWeekly:
		return "weekly:" + isoWeek(p.Start)
	case domain.IntervalMonthly:
		return "monthly:" + p.Start.Time().Format("2006-01")
	default:
		return "daily:" + p.Start.String()
	}
}

// Label is a human-readable period name.
func (p Period) Label() string {
	switch p.Interval {
	case domain.IntervalWeekly:
		return "Week of " + p.Start.Time().Format("Jan 2, 2006")
	case domain.IntervalMonthly:
		return p.Start.Time().Format("January 2006")
	default:
		return p.Start.Time().Format("Jan 2, 2006")
	}
}

// CurrentPeriod returns the in-progress period containing today.
func CurrentPeriod(interval domain.GoalInterval, today domain.Date) Period {
	switch interval {
	case domain.IntervalWeekly:
		start := today.WeekStart()
		return Period{Interval: interval, Start: start, End: start.AddDays(6)}
	case domain.IntervalMonthly:
		start := today.MonthStart()
		end := domain.DateOf(start.Time().AddDate(0, 1, -1))
		return Period{Interval: interval, Start: start, End: end}
	default:
		return Period{Interval: domain.IntervalDaily, Start: today, End: today}
	}
}

// LastCompletedPeriod returns the most recent period that ended strictly
// before today. The in-progress period is never returned.
func LastCompletedPeriod(interval domain.GoalInterval, today domain.Date) Period {
	current := CurrentPeriod(interval, today)
	return CurrentPeriod(interval, current.Start.AddDays(-1))
}

// isoWeek returns "YYYY-Www" for the week containing d.
func isoWeek(d domain.Date) string {
	year, week := d.Time().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// ─── Goal Evaluation ────────────────────────────────────────────────────────

// GoalEvaluation is the outcome of settling one completed goal period.
type GoalEvaluation struct {
	TaskID           string  `json:"task_id"`
	GoalType         string  `json:"goal_type"`
	MetGoal          bool    `json:"met_goal"`
	ActualValue      float64 `json:"actual_value"`
	GoalValue        float64 `json:"goal_value"`
	PeriodKey        string  `json:"period_key"`
	PeriodLabel      string  `json:"period_label"`
	BonusAwarded     float64 `json:"bonus_awarded"`
	AlreadyEvaluated bool    `json:"already_evaluated"`
}

// IsSettled reports whether periodKey appears in the ledger.
func IsSettled(settled []domain.GoalSettlement, periodKey string) bool {
	for _, s := range settled {
		if s.PeriodKey == periodKey {
			return true
		}
	}
	return false
}

// EvaluateLastCompletedPeriod evaluates task's goal over the last fully
// completed period. It returns nil when the task has no goal. When the period
// is already in settled, the result is marked AlreadyEvaluated and awards
// nothing; the caller must append the returned settlement otherwise.
func EvaluateLastCompletedPeriod(task domain.TaskDefinition, records []domain.RecordEntry, today domain.Date, settled []domain.GoalSettlement) *GoalEvaluation {
	goal := task.Goal()
	if !goal.IsSet() {
		return nil
	}

	period := LastCompletedPeriod(goal.Interval, today)
	actual := Sum(records, period.Range(), task.ID)
	ev := &GoalEvaluation{
		TaskID:      task.ID,
		GoalType:    goal.Kind.String(),
		MetGoal:     goal.Met(actual),
		ActualValue: actual,
		GoalValue:   goal.Target,
		PeriodKey:   period.Key(),
		PeriodLabel: period.Label(),
	}
	if IsSettled(settled, ev.PeriodKey) {
		ev.AlreadyEvaluated = true
		return ev
	}
	if ev.MetGoal {
		ev.BonusAwarded = goal.Bonus()
	}
	return ev
}

// Settlement converts a fresh evaluation into a ledger entry.
func (e GoalEvaluation) Settlement() domain.GoalSettlement {
	return domain.GoalSettlement{PeriodKey: e.PeriodKey, Met: e.MetGoal, BonusAwarded: e.BonusAwarded}
}

// ─── Goal Progress ──────────────────────────────────────────────────────────

// GoalProgress is the live state of the in-progress goal period.
type GoalProgress struct {
	TaskID      string  `json:"task_id"`
	GoalType    string  `json:"goal_type"`
	PeriodLabel string  `json:"period_label"`
	Actual      float64 `json:"actual"`
	Target      float64 `json:"target"`
	Percentage  float64 `json:"percentage"` // of target reached (at_least) or budget used (no_more_than)
	OnTrack     bool    `json:"on_track"`
}

// CurrentGoalProgress returns progress for the period containing today, or
// nil when the task has no goal.
func CurrentGoalProgress(task domain.TaskDefinition, records []domain.RecordEntry, today domain.Date) *GoalProgress {
	goal := task.Goal()
	if !goal.IsSet() {
		return nil
	}
	period := CurrentPeriod(goal.Interval, today)
	actual := Sum(records, domain.NewDateRange(period.Start, today), task.ID)

	p := &GoalProgress{
		TaskID:      task.ID,
		GoalType:    goal.Kind.String(),
		PeriodLabel: period.Label(),
		Actual:      actual,
		Target:      goal.Target,
		OnTrack:     goal.Met(actual),
	}
	if goal.Target > 0 {
		p.Percentage = clampPct(actual / goal.Target * 100)
	} else if goal.Kind == domain.GoalAtLeast || actual == 0 {
		p.Percentage = 100
	}
	return p
}

// HighGoalStatus is a HighGoal's position relative to its window.
type HighGoalStatus string

const (
	HighGoalUpcoming  HighGoalStatus = "upcoming"
	HighGoalActive    HighGoalStatus = "active"
	HighGoalCompleted HighGoalStatus = "completed"
	HighGoalExpired   HighGoalStatus = "expired"
)

// HighGoalProgress is the recomputed state of a HighGoal.
type HighGoalProgress struct {
	Goal          domain.HighGoal `json:"goal"`
	Actual        float64         `json:"actual"`
	Percentage    float64         `json:"percentage"`
	DaysRemaining int             `json:"days_remaining"`
	Status        HighGoalStatus  `json:"status"`
}

// EvaluateHighGoal recomputes a HighGoal's progress from the record log.
func EvaluateHighGoal(goal domain.HighGoal, records []domain.RecordEntry, today domain.Date) HighGoalProgress {
	actual := Sum(records, goal.Window(), goal.TaskID)
	p := HighGoalProgress{Goal: goal, Actual: actual}
	if goal.TargetValue > 0 {
		p.Percentage = clampPct(actual / goal.TargetValue * 100)
	} else {
		p.Percentage = 100
	}

	switch {
	case actual >= goal.TargetValue:
		p.Status = HighGoalCompleted
	case today < goal.StartDate:
		p.Status = HighGoalUpcoming
		p.DaysRemaining = goal.Window().Days()
	case today > goal.EndDate:
		p.Status = HighGoalExpired
	default:
		p.Status = HighGoalActive
		p.DaysRemaining = int(goal.EndDate-today) + 1
	}
	return p
}
