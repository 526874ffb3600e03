package tracker

import (
	"context"
	"strings"

	"github.com/levelup-labs/lifequest/internal/app/engagement"
	"github.com/levelup-labs/lifequest/internal/domain"
)

// StreakView is a task's streak state.
type StreakView struct {
	TaskID        string `json:"task_id"`
	TaskName      string `json:"task_name"`
	Weekly        bool   `json:"weekly"`
	Current       int    `json:"current"`
	Longest       int    `json:"longest"`
	Consistency   int    `json:"consistency"`
	DarkStreak    bool   `json:"dark_streak"`
	LoggedToday   bool   `json:"logged_today"`
	NextMilestone int    `json:"next_milestone,omitempty"`
}

// AchievementView is a catalog entry with its unlock state.
type AchievementView struct {
	domain.AchievementDef
	Unlocked bool `json:"unlocked"`
}

// Dashboard is the one-call summary of a user.
type Dashboard struct {
	UserID          string                        `json:"user_id"`
	DisplayName     string                        `json:"display_name"`
	Today           domain.Date                   `json:"today"`
	Level           domain.LevelInfo              `json:"level"`
	BonusPoints     float64                       `json:"bonus_points"`
	FreezeCrystals  int                           `json:"freeze_crystals"`
	OverallStreak   int                           `json:"overall_streak"`
	Consistency     int                           `json:"consistency"`
	TodayTotal      float64                       `json:"today_total"`
	Streaks         []StreakView                  `json:"streaks"`
	Goals           []engagement.GoalProgress     `json:"goals"`
	HighGoals       []engagement.HighGoalProgress `json:"high_goals"`
	PendingPacts    []PactView                    `json:"pending_pacts"`
	OpenBreaches    []domain.Breach               `json:"open_breaches"`
	SkillPoints     map[string]float64            `json:"skill_points"`
	Achievements    int                           `json:"achievements"`
	AchievementsMax int                           `json:"achievements_max"`
}

// Level resolves the user's current level.
func (s *Service) Level(ctx context.Context, userID string) (domain.LevelInfo, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return domain.LevelInfo{}, err
	}
	return s.levels.Resolve(engagement.TotalExperience(state.Records, state.BonusPoints)), nil
}

// Streaks returns the streak state of every task.
func (s *Service) Streaks(ctx context.Context, userID string) ([]StreakView, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.streakViews(state, s.Today()), nil
}

func (s *Service) streakViews(state *domain.UserState, today domain.Date) []StreakView {
	out := make([]StreakView, 0, len(state.Tasks))
	for i := range state.Tasks {
		task := &state.Tasks[i]
		v := StreakView{
			TaskID:      task.ID,
			TaskName:    task.Name,
			Weekly:      task.IsWeekly(),
			Current:     engagement.CurrentStreak(state.Records, task, today),
			Longest:     engagement.LongestStreak(state.Records, task),
			Consistency: engagement.DailyConsistency(state.Records, s.rules.ConsistencyWindow, task, today),
			DarkStreak:  task.DarkStreakEnabled,
			LoggedToday: hasRecordOn(state.Records, task.ID, today),
		}
		for _, m := range s.rules.StreakMilestones {
			if m > v.Current {
				v.NextMilestone = m
				break
			}
		}
		out = append(out, v)
	}
	return out
}

func hasRecordOn(records []domain.RecordEntry, taskID string, day domain.Date) bool {
	for _, r := range records {
		if r.Date == day && r.TaskType == taskID {
			return true
		}
	}
	return false
}

// Consistency returns the share of recorded days (or qualifying weeks) in the
// last windowDays. An empty taskRef covers every record.
func (s *Service) Consistency(ctx context.Context, userID, taskRef string, windowDays int) (int, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return 0, err
	}
	var task *domain.TaskDefinition
	if taskRef != "" {
		t, ok := lookupTask(state, taskRef)
		if !ok {
			return 0, domain.ErrTaskNotFound
		}
		task = t
	}
	return engagement.DailyConsistency(state.Records, windowDays, task, s.Today()), nil
}

// Total sums the records in rng, optionally for one task.
func (s *Service) Total(ctx context.Context, userID string, rng domain.DateRange, taskID string) (float64, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return 0, err
	}
	return engagement.Sum(state.Records, rng, taskID), nil
}

// DistributionByTask groups the range's records by task.
func (s *Service) DistributionByTask(ctx context.Context, userID string, rng domain.DateRange) ([]engagement.TaskSlice, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	return engagement.DistributionByTask(state.Records, state.Tasks, rng, ""), nil
}

// DistributionByWeekday totals the range's records per weekday.
func (s *Service) DistributionByWeekday(ctx context.Context, userID string, rng domain.DateRange, taskID string) ([]engagement.WeekdayTotal, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	return engagement.DistributionByWeekday(state.Records, rng, taskID), nil
}

// Rollup returns n weekly or monthly buckets ending today.
func (s *Service) Rollup(ctx context.Context, userID string, interval domain.GoalInterval, n int, taskID string) ([]engagement.PeriodTotal, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch interval {
	case domain.IntervalWeekly:
		return engagement.WeeklyRollup(state.Records, n, taskID, s.Today()), nil
	case domain.IntervalMonthly:
		return engagement.MonthlyRollup(state.Records, n, taskID, s.Today()), nil
	default:
		return nil, domain.Invalid("interval", "must be weekly or monthly")
	}
}

// Heatmap returns the last days days of a task with intensity buckets.
func (s *Service) Heatmap(ctx context.Context, userID, taskID string, days int) ([]engagement.DayTotal, error) {
	if days <= 0 || days > 366 {
		return nil, domain.Invalid("days", "must be between 1 and 366")
	}
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	var thresholds []float64
	if taskID != "" {
		t, ok := state.TaskByID(taskID)
		if !ok {
			return nil, domain.ErrTaskNotFound
		}
		thresholds = t.IntensityThresholds
	}
	return engagement.DailySeries(state.Records, domain.LastNDays(s.Today(), days), taskID, thresholds), nil
}

// Achievements returns the catalog with unlock state.
func (s *Service) Achievements(ctx context.Context, userID string) ([]AchievementView, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	unlocked := make(map[string]bool, len(state.UnlockedAchievements))
	for _, id := range state.UnlockedAchievements {
		unlocked[id] = true
	}
	defs := engagement.AllAchievements()
	out := make([]AchievementView, 0, len(defs))
	for _, d := range defs {
		out = append(out, AchievementView{AchievementDef: d, Unlocked: unlocked[d.ID]})
	}
	return out, nil
}

// Dashboard assembles the summary view.
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := s.Today()

	d := &Dashboard{
		UserID:         userID,
		DisplayName:    state.DisplayName,
		Today:          today,
		Level:          s.levels.Resolve(engagement.TotalExperience(state.Records, state.BonusPoints)),
		BonusPoints:    state.BonusPoints,
		FreezeCrystals: state.FreezeCrystals,
		OverallStreak:  engagement.CurrentStreak(state.Records, nil, today),
		Consistency:    engagement.DailyConsistency(state.Records, s.rules.ConsistencyWindow, nil, today),
		TodayTotal:     engagement.Sum(state.Records, domain.NewDateRange(today, today), ""),
		Streaks:        s.streakViews(state, today),
		Goals:          []engagement.GoalProgress{},
		HighGoals:      []engagement.HighGoalProgress{},
		PendingPacts:   []PactView{},
		OpenBreaches:   []domain.Breach{},
		SkillPoints:    make(map[string]float64, len(state.Tasks)),
	}

	ledger := engagement.NewSkillLedger(state.SpentSkillPoints, state.UnlockedSkills)
	for _, task := range state.Tasks {
		if p := engagement.CurrentGoalProgress(task, state.Records, today); p != nil {
			d.Goals = append(d.Goals, *p)
		}
		d.SkillPoints[task.ID] = ledger.AvailablePoints(state.Records, task.ID)
	}
	for _, g := range state.HighGoals {
		p := engagement.EvaluateHighGoal(g, state.Records, today)
		if p.Status == engagement.HighGoalActive || p.Status == engagement.HighGoalUpcoming {
			d.HighGoals = append(d.HighGoals, p)
		}
	}
	for _, item := range state.TodoItems {
		if status := engagement.PactStatusOf(item, today); status == domain.PactActive {
			d.PendingPacts = append(d.PendingPacts, PactView{
				TodoItem: item,
				Status:   status,
				Mutable:  engagement.IsPactMutable(item, today),
			})
		}
	}
	for _, b := range state.Breaches {
		if b.IsOpen() {
			d.OpenBreaches = append(d.OpenBreaches, b)
		}
	}

	catalog := engagement.AllAchievements()
	d.AchievementsMax = len(catalog)
	for _, def := range catalog {
		if contains(state.UnlockedAchievements, def.ID) {
			d.Achievements++
		}
	}
	return d, nil
}

// lookupTask resolves a task by ID, then by case-insensitive name.
func lookupTask(state *domain.UserState, ref string) (*domain.TaskDefinition, bool) {
	if t, ok := state.TaskByID(ref); ok {
		return t, true
	}
	for i := range state.Tasks {
		if strings.EqualFold(state.Tasks[i].Name, ref) {
			return &state.Tasks[i], true
		}
	}
	return nil, false
}
