package engagement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levelup-labs/lifequest/internal/app/engagement"
	"github.com/levelup-labs/lifequest/internal/domain"
)

// today is a Friday.
var today = domain.NewDate(2025, time.July, 18)

func rec(d domain.Date, v float64, task string) domain.RecordEntry {
	return domain.RecordEntry{ID: d.String() + task, Date: d, Value: v, TaskType: task}
}

func ptr[T any](v T) *T { return &v }

// ═══════════════════════════════════════════════════════════════════════════
// Level Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestLevelTable_MonotonicThresholds(t *testing.T) {
	th := engagement.DefaultLevelTable().Thresholds()
	require.Len(t, th, engagement.MaxLevel)
	assert.Equal(t, int64(0), th[0])
	for i := 1; i < len(th); i++ {
		assert.LessOrEqual(t, th[i-1], th[i], "threshold %d", i)
	}
}

func TestLevelTable_IncrementGrowsWithTierScaling(t *testing.T) {
	th := engagement.DefaultLevelTable().Thresholds()
	assert.Equal(t, int64(100), th[1])
	assert.Equal(t, int64(250), th[2]) // 100 + (100+50)

	// Crossing into Apprentice (level 11) widens the growth to floor(50*1.2).
	gapBefore := th[10] - th[9]
	gapAfter := th[11] - th[10]
	assert.Equal(t, int64(60), gapAfter-gapBefore)
}

func TestDefaultTiers_Valid(t *testing.T) {
	require.NoError(t, engagement.ValidateTiers(engagement.DefaultTiers(), engagement.MaxLevel))

	broken := engagement.DefaultTiers()
	broken[3].MinLevel = 33
	assert.Error(t, engagement.ValidateTiers(broken, engagement.MaxLevel))
}

func TestResolve_Consistency(t *testing.T) {
	table := engagement.DefaultLevelTable()
	th := table.Thresholds()
	for _, e := range []float64{0, 1, 99, 100, 101, 250, 5000, 123456, 1e9} {
		info := table.Resolve(e)
		l := info.CurrentLevel
		assert.LessOrEqual(t, float64(th[l-1]), e, "xp %v", e)
		if l < engagement.MaxLevel {
			assert.Less(t, e, float64(th[l]), "xp %v", e)
		}
	}
}

func TestResolve_CustomTableProgress(t *testing.T) {
	table := engagement.NewLevelTableFromThresholds([]int64{0, 100, 200}, engagement.DefaultTiers())
	info := table.Resolve(150)

	assert.Equal(t, 2, info.CurrentLevel)
	assert.InDelta(t, 50.0, info.ProgressPercentage, 1e-9)
	assert.Equal(t, int64(100), info.CurrentLevelThreshold)
	require.NotNil(t, info.PointsForNextLevel)
	assert.Equal(t, int64(100), *info.PointsForNextLevel)
	assert.InDelta(t, 50.0, info.RemainingToNextLevel, 1e-9)
	assert.False(t, info.IsMaxLevel)
}

func TestResolve_MaxLevel(t *testing.T) {
	info := engagement.ResolveLevel(1e12)
	assert.Equal(t, engagement.MaxLevel, info.CurrentLevel)
	assert.True(t, info.IsMaxLevel)
	assert.Nil(t, info.PointsForNextLevel)
	assert.Equal(t, 100.0, info.ProgressPercentage)
	assert.Equal(t, "Mythic", info.TierName)
	assert.Equal(t, "Mythic X", info.LevelName)
}

func TestResolve_NegativeTotalIsLevelOne(t *testing.T) {
	info := engagement.ResolveLevel(-500)
	assert.Equal(t, 1, info.CurrentLevel)
	assert.Equal(t, "Novice I", info.LevelName)
	assert.Equal(t, 0.0, info.ProgressPercentage)
}

func TestTiersBetween(t *testing.T) {
	table := engagement.DefaultLevelTable()
	crossed := table.TiersBetween(9, 22)
	require.Len(t, crossed, 2)
	assert.Equal(t, "Apprentice", crossed[0].Name)
	assert.Equal(t, "Journeyman", crossed[1].Name)
	assert.Empty(t, table.TiersBetween(12, 12))
}

// ═══════════════════════════════════════════════════════════════════════════
// Aggregation Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestSum_Additive(t *testing.T) {
	var records []domain.RecordEntry
	for i := 0; i < 20; i++ {
		records = append(records, rec(today.AddDays(-i), float64(i+1), "run"))
	}
	a := domain.NewDateRange(today.AddDays(-19), today.AddDays(-10))
	b := domain.NewDateRange(today.AddDays(-9), today)
	all := domain.NewDateRange(today.AddDays(-19), today)

	assert.Equal(t, engagement.Sum(records, all, ""), engagement.Sum(records, a, "")+engagement.Sum(records, b, ""))
	assert.Equal(t, 210.0, engagement.Sum(records, all, "run"))
	assert.Equal(t, 0.0, engagement.Sum(records, all, "swim"))
}

func TestSum_EmptyRange(t *testing.T) {
	records := []domain.RecordEntry{rec(today, 5, "run")}
	assert.Equal(t, 0.0, engagement.Sum(records, domain.NewDateRange(today, today.AddDays(-1)), ""))
	assert.Equal(t, 0.0, engagement.Sum(nil, domain.LastNDays(today, 7), ""))
}

func TestDistributionByTask_Unassigned(t *testing.T) {
	tasks := []domain.TaskDefinition{{ID: "run", Name: "Running", Color: "#f00"}}
	records := []domain.RecordEntry{
		rec(today, 5, "run"),
		rec(today, 2, "deleted-task"),
		rec(today, 1, ""),
	}
	slices := engagement.DistributionByTask(records, tasks, domain.LastNDays(today, 7), "")
	require.Len(t, slices, 2)
	assert.Equal(t, "Running", slices[0].TaskName)
	assert.Equal(t, 5.0, slices[0].Value)
	assert.Equal(t, engagement.UnassignedTask, slices[1].TaskName)
	assert.Equal(t, 3.0, slices[1].Value)
}

func TestDistributionByWeekday(t *testing.T) {
	records := []domain.RecordEntry{
		rec(today, 4, "run"),            // Friday
		rec(today.AddDays(-7), 1, "run"), // previous Friday
		rec(today.AddDays(-5), 2, "run"), // Sunday
	}
	days := engagement.DistributionByWeekday(records, domain.LastNDays(today, 14), "")
	require.Len(t, days, 7)
	assert.Equal(t, "Sun", days[0].Day)
	assert.Equal(t, 2.0, days[0].Total)
	assert.Equal(t, "Fri", days[5].Day)
	assert.Equal(t, 5.0, days[5].Total)
}

func TestWeeklyRollup(t *testing.T) {
	records := []domain.RecordEntry{
		rec(today, 3, "run"),
		rec(today.AddDays(-7), 2, "run"),
		rec(today.AddDays(1), 100, "run"), // future, outside the capped week
	}
	weeks := engagement.WeeklyRollup(records, 2, "", today)
	require.Len(t, weeks, 2)
	assert.Equal(t, 2.0, weeks[0].Value)
	assert.Equal(t, 3.0, weeks[1].Value)
	assert.Equal(t, today, weeks[1].End)
	assert.Equal(t, today.WeekStart(), weeks[1].Start)
}

func TestMonthlyRollup(t *testing.T) {
	records := []domain.RecordEntry{
		rec(domain.NewDate(2025, time.June, 30), 7, "run"),
		rec(domain.NewDate(2025, time.July, 1), 1, "run"),
	}
	months := engagement.MonthlyRollup(records, 2, "", today)
	require.Len(t, months, 2)
	assert.Equal(t, "Jun 2025", months[0].Label)
	assert.Equal(t, 7.0, months[0].Value)
	assert.Equal(t, "Jul 2025", months[1].Label)
	assert.Equal(t, 1.0, months[1].Value)
}

func TestDailySeries_Intensity(t *testing.T) {
	th := []float64{1, 5, 10, 20}
	records := []domain.RecordEntry{rec(today, 12, "run"), rec(today.AddDays(-1), 0.5, "run")}
	series := engagement.DailySeries(records, domain.LastNDays(today, 3), "run", th)
	require.Len(t, series, 3)
	assert.Equal(t, 0, series[0].Intensity)
	assert.Equal(t, 0, series[1].Intensity)
	assert.Equal(t, 3, series[2].Intensity)

	assert.Equal(t, domain.IntensityLevels, engagement.IntensityLevel(0.1, nil))
	assert.Equal(t, 4, engagement.IntensityLevel(25, th))
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestStreak_LastFiveDays(t *testing.T) {
	var records []domain.RecordEntry
	for i := 0; i < 5; i++ {
		records = append(records, rec(today.AddDays(-i), 1, "run"))
	}
	assert.Equal(t, 5, engagement.CurrentStreak(records, nil, today))
}

func TestStreak_ResetsAfterGap(t *testing.T) {
	var records []domain.RecordEntry
	for i := 2; i < 7; i++ {
		records = append(records, rec(today.AddDays(-i), 1, "run"))
	}
	records = append(records, rec(today, 1, "run"))
	assert.Equal(t, 1, engagement.CurrentStreak(records, nil, today))
	assert.Equal(t, 5, engagement.LongestStreak(records, nil))
}

func TestStreak_SurvivesEmptyToday(t *testing.T) {
	records := []domain.RecordEntry{
		rec(today.AddDays(-1), 1, "run"),
		rec(today.AddDays(-2), 1, "run"),
	}
	assert.Equal(t, 2, engagement.CurrentStreak(records, nil, today))
	assert.Equal(t, 0, engagement.CurrentStreak(records, nil, today.AddDays(2)))
}

func TestStreak_DuplicateDaysCountOnce(t *testing.T) {
	records := []domain.RecordEntry{rec(today, 1, "run"), rec(today, 3, "run"), rec(today, 0, "run")}
	assert.Equal(t, 1, engagement.CurrentStreak(records, nil, today))
}

func TestStreak_ExerciseTenDays(t *testing.T) {
	task := &domain.TaskDefinition{ID: "exercise", Name: "Exercise", FrequencyType: domain.FrequencyDaily}
	var records []domain.RecordEntry
	for i := 0; i < 10; i++ {
		records = append(records, rec(today.AddDays(-i), 1, "exercise"))
	}
	assert.Equal(t, 10, engagement.CurrentStreak(records, task, today))
	assert.Equal(t, 33, engagement.DailyConsistency(records, 30, task, today))
}

func TestStreak_WeeklyThreeTimes(t *testing.T) {
	task := &domain.TaskDefinition{ID: "gym", FrequencyType: domain.FrequencyWeekly, FrequencyCount: 3}
	monday := today.WeekStart()
	records := []domain.RecordEntry{
		rec(monday, 1, "gym"),
		rec(monday.AddDays(2), 1, "gym"),
		rec(monday.AddDays(4), 1, "gym"),
	}
	assert.Equal(t, 1, engagement.CurrentStreak(records, task, today))

	// Two days are not enough; the unmet current week does not break last week's run.
	partial := []domain.RecordEntry{
		rec(monday.AddDays(-7), 1, "gym"),
		rec(monday.AddDays(-6), 1, "gym"),
		rec(monday.AddDays(-5), 1, "gym"),
		rec(monday, 1, "gym"),
	}
	assert.Equal(t, 1, engagement.CurrentStreak(partial, task, today))
}

func TestDailyConsistency_WeeklyTask(t *testing.T) {
	task := &domain.TaskDefinition{ID: "gym", FrequencyType: domain.FrequencyWeekly, FrequencyCount: 1}
	records := []domain.RecordEntry{rec(today, 1, "gym")}
	// A 7-day window ending Friday overlaps two weeks; one of them qualifies.
	assert.Equal(t, 50, engagement.DailyConsistency(records, 7, task, today))
	assert.Equal(t, 0, engagement.DailyConsistency(records, 0, task, today))
}

func TestNewMilestones(t *testing.T) {
	got := engagement.NewMilestones(31, engagement.DefaultStreakMilestones, []int{7})
	assert.Equal(t, []int{14, 30}, got)
	assert.Empty(t, engagement.NewMilestones(31, engagement.DefaultStreakMilestones, []int{7, 14, 30}))
}

// ═══════════════════════════════════════════════════════════════════════════
// Goal Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestGoal_EvaluateIdempotent(t *testing.T) {
	task := domain.TaskDefinition{
		ID:                            "read",
		GoalValue:                     ptr(100.0),
		GoalInterval:                  domain.IntervalWeekly,
		GoalType:                      domain.GoalTypeAtLeast,
		GoalCompletionBonusPercentage: ptr(10.0),
	}
	lastWeek := today.WeekStart().AddDays(-7)
	records := []domain.RecordEntry{rec(lastWeek, 60, "read"), rec(lastWeek.AddDays(3), 50, "read")}

	first := engagement.EvaluateLastCompletedPeriod(task, records, today, nil)
	require.NotNil(t, first)
	assert.True(t, first.MetGoal)
	assert.Equal(t, 110.0, first.ActualValue)
	assert.Equal(t, 10.0, first.BonusAwarded)
	assert.Equal(t, "weekly:2025-W28", first.PeriodKey)
	assert.False(t, first.AlreadyEvaluated)

	settled := []domain.GoalSettlement{first.Settlement()}
	second := engagement.EvaluateLastCompletedPeriod(task, records, today, settled)
	require.NotNil(t, second)
	assert.True(t, second.AlreadyEvaluated)
	assert.Equal(t, 0.0, second.BonusAwarded)
}

func TestGoal_NoMoreThan(t *testing.T) {
	task := domain.TaskDefinition{
		ID:           "soda",
		GoalValue:    ptr(2.0),
		GoalInterval: domain.IntervalDaily,
		GoalType:     domain.GoalTypeNoMoreThan,
	}
	records := []domain.RecordEntry{rec(today.AddDays(-1), 3, "soda")}
	ev := engagement.EvaluateLastCompletedPeriod(task, records, today, nil)
	require.NotNil(t, ev)
	assert.False(t, ev.MetGoal)
	assert.Equal(t, "no_more_than", ev.GoalType)
	assert.Equal(t, 0.0, ev.BonusAwarded)
}

func TestGoal_NoneWhenUnset(t *testing.T) {
	assert.Nil(t, engagement.EvaluateLastCompletedPeriod(domain.TaskDefinition{ID: "x"}, nil, today, nil))
	assert.Nil(t, engagement.CurrentGoalProgress(domain.TaskDefinition{ID: "x"}, nil, today))
}

func TestLastCompletedPeriod(t *testing.T) {
	m := engagement.LastCompletedPeriod(domain.IntervalMonthly, today)
	assert.Equal(t, domain.NewDate(2025, time.June, 1), m.Start)
	assert.Equal(t, domain.NewDate(2025, time.June, 30), m.End)
	assert.Equal(t, "monthly:2025-06", m.Key())

	d := engagement.LastCompletedPeriod(domain.IntervalDaily, today)
	assert.Equal(t, today.AddDays(-1), d.Start)
}

func TestHighGoal_Status(t *testing.T) {
	goal := domain.HighGoal{ID: "h", TaskID: "run", TargetValue: 100, StartDate: today.AddDays(-5), EndDate: today.AddDays(4)}
	records := []domain.RecordEntry{rec(today, 40, "run"), rec(today.AddDays(-10), 500, "run")}

	p := engagement.EvaluateHighGoal(goal, records, today)
	assert.Equal(t, engagement.HighGoalActive, p.Status)
	assert.Equal(t, 40.0, p.Actual)
	assert.Equal(t, 5, p.DaysRemaining)

	p = engagement.EvaluateHighGoal(goal, records, today.AddDays(10))
	assert.Equal(t, engagement.HighGoalExpired, p.Status)
}

// ═══════════════════════════════════════════════════════════════════════════
// Constellation Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestSkillLedger_UnlockOnce(t *testing.T) {
	records := []domain.RecordEntry{rec(today, 500, "run")}
	ledger := engagement.NewSkillLedger(nil, nil)

	assert.True(t, ledger.Unlock(records, "run:spark", "run", 50))
	assert.False(t, ledger.Unlock(records, "run:spark", "run", 50))
	assert.Equal(t, 50.0, ledger.Spent("run"))
	assert.Equal(t, 450.0, ledger.AvailablePoints(records, "run"))
}

func TestSkillLedger_ExactBalance(t *testing.T) {
	records := []domain.RecordEntry{rec(today, 100, "run"), rec(today.AddDays(-1), 50, "run")}
	ledger := engagement.NewSkillLedger(nil, nil)

	assert.True(t, ledger.Unlock(records, "run:ember", "run", 150))
	assert.Equal(t, 0.0, ledger.AvailablePoints(records, "run"))
	assert.False(t, ledger.Unlock(records, "run:other", "run", 1))
	assert.Equal(t, []string{"run:ember"}, ledger.UnlockedIDs())
}

func TestSkillLedger_EmptyTaskHasNoBalance(t *testing.T) {
	records := []domain.RecordEntry{rec(today, 150, "run")}
	ledger := engagement.NewSkillLedger(nil, nil)

	assert.True(t, ledger.Unlock(records, "run:ember", "run", 150))
	assert.False(t, ledger.Unlock(records, "any", "", 150))
	assert.False(t, ledger.Unlock(records, "free", "", 0))
	assert.Zero(t, ledger.Spent(""))
	assert.Equal(t, []string{"run:ember"}, ledger.UnlockedIDs())
}

func TestConstellation_Chain(t *testing.T) {
	nodes := engagement.Constellation("run")
	require.Len(t, nodes, 5)
	assert.Empty(t, nodes[0].Requires)
	for i := 1; i < len(nodes); i++ {
		assert.Equal(t, nodes[i-1].ID, nodes[i].Requires)
	}

	n, ok := engagement.FindSkillNode("run", "ember")
	require.True(t, ok)
	assert.Equal(t, "run:ember", n.ID)
	_, ok = engagement.FindSkillNode("run", "nope")
	assert.False(t, ok)
}

// ═══════════════════════════════════════════════════════════════════════════
// Pact Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestSweepOverduePacts(t *testing.T) {
	yesterday := today.AddDays(-1)
	items := []domain.TodoItem{
		{ID: "a", DueDate: &yesterday, Penalty: ptr(30.0)},
		{ID: "b", DueDate: &today, Penalty: ptr(30.0)},
		{ID: "c", DueDate: &yesterday, Penalty: ptr(30.0), Completed: true},
		{ID: "d", DueDate: &yesterday},
	}
	breaches, total := engagement.SweepOverduePacts(items, today)
	require.Len(t, breaches, 1)
	assert.Equal(t, "pact:a", breaches[0].ID)
	assert.Equal(t, 30.0, total)
	assert.True(t, items[0].PenaltyApplied)
	assert.True(t, items[3].PenaltyApplied)
	assert.False(t, items[1].PenaltyApplied)

	again, total := engagement.SweepOverduePacts(items, today)
	assert.Empty(t, again)
	assert.Equal(t, 0.0, total)
}

func TestPactStatus(t *testing.T) {
	due := today
	item := domain.TodoItem{ID: "a", CreatedAt: today, DueDate: &due}
	assert.Equal(t, domain.PactActive, engagement.PactStatusOf(item, today))
	assert.Equal(t, domain.PactBreached, engagement.PactStatusOf(item, today.AddDays(1)))
	assert.True(t, engagement.IsPactMutable(item, today))
	assert.False(t, engagement.IsPactMutable(item, today.AddDays(1)))
	item.Completed = true
	assert.Equal(t, domain.PactHonored, engagement.PactStatusOf(item, today.AddDays(1)))
}

func TestDarkStreakBreach(t *testing.T) {
	rules := engagement.DefaultBreachRules()
	task := domain.TaskDefinition{ID: "run", DarkStreakEnabled: true}
	var records []domain.RecordEntry
	for i := 2; i < 8; i++ {
		records = append(records, rec(today.AddDays(-i), 1, "run"))
	}

	b, ok := engagement.DetectDarkStreakBreach(task, records, today, 0, rules)
	require.True(t, ok)
	assert.Equal(t, 60.0, b.Penalty)
	assert.Equal(t, engagement.DarkBreachID("run", today.AddDays(-1)), b.ID)

	_, ok = engagement.DetectDarkStreakBreach(task, records, today, today.AddDays(-1), rules)
	assert.False(t, ok, "break already penalized")

	task.DarkStreakEnabled = false
	_, ok = engagement.DetectDarkStreakBreach(task, records, today, 0, rules)
	assert.False(t, ok)
}

func TestDarkStreakBreach_FoundDaysLater(t *testing.T) {
	rules := engagement.DefaultBreachRules()
	task := domain.TaskDefinition{ID: "run", DarkStreakEnabled: true}
	var records []domain.RecordEntry
	for i := 3; i < 8; i++ {
		records = append(records, rec(today.AddDays(-i), 1, "run"))
	}

	b, ok := engagement.DetectDarkStreakBreach(task, records, today, 0, rules)
	require.True(t, ok)
	assert.Equal(t, today.AddDays(-2), b.Date)
	assert.Equal(t, engagement.DarkBreachID("run", today.AddDays(-2)), b.ID)
	assert.Equal(t, 50.0, b.Penalty)

	// The same break seen from a later day keeps its ID.
	later, ok := engagement.DetectDarkStreakBreach(task, records, today.AddDays(3), 0, rules)
	require.True(t, ok)
	assert.Equal(t, b.ID, later.ID)
}

func TestDarkStreakBreach_Lookback(t *testing.T) {
	rules := engagement.DefaultBreachRules()
	rules.DarkLookbackDays = 3
	task := domain.TaskDefinition{ID: "run", DarkStreakEnabled: true}
	records := []domain.RecordEntry{rec(today.AddDays(-10), 1, "run"), rec(today.AddDays(-9), 1, "run")}

	_, ok := engagement.DetectDarkStreakBreach(task, records, today, 0, rules)
	assert.False(t, ok)

	rules.DarkLookbackDays = 10
	b, ok := engagement.DetectDarkStreakBreach(task, records, today, 0, rules)
	require.True(t, ok)
	assert.Equal(t, today.AddDays(-8), b.Date)
}

func TestLastDarkBreach(t *testing.T) {
	breaches := []domain.Breach{
		{Kind: domain.BreachDarkStreak, SubjectID: "run", Date: today.AddDays(-9)},
		{Kind: domain.BreachPact, SubjectID: "run", Date: today},
		{Kind: domain.BreachDarkStreak, SubjectID: "run", Date: today.AddDays(-3)},
		{Kind: domain.BreachDarkStreak, SubjectID: "read", Date: today.AddDays(-1)},
	}
	last, ok := engagement.LastDarkBreach(breaches, "run")
	require.True(t, ok)
	assert.Equal(t, today.AddDays(-3), last)

	_, ok = engagement.LastDarkBreach(breaches, "gym")
	assert.False(t, ok)
}

func TestBreach_ResolutionsAreExclusive(t *testing.T) {
	rules := engagement.DefaultBreachRules()
	open := domain.Breach{ID: "pact:a", Penalty: 40, PenaltyApplied: true, State: domain.BreachOpen}

	frozen := open
	crystals := 1
	refund, ok := engagement.FreezeBreach(&frozen, &crystals, today)
	require.True(t, ok)
	assert.Equal(t, 40.0, refund)
	assert.Equal(t, 0, crystals)
	_, ok = engagement.DeclineDare(&frozen, today, rules)
	assert.False(t, ok)

	declined := open
	extra, ok := engagement.DeclineDare(&declined, today, rules)
	require.True(t, ok)
	assert.Equal(t, 20.0, extra)
	_, ok = engagement.AcceptDare(&declined, "d1", "plank", today, rules)
	assert.False(t, ok)

	dared := open
	dare, ok := engagement.AcceptDare(&dared, "d2", "plank", today, rules)
	require.True(t, ok)
	assert.True(t, dare.IsDare)
	require.NotNil(t, dare.DueDate)
	assert.Equal(t, today.AddDays(1), *dare.DueDate)
	assert.Equal(t, domain.BreachDareAccepted, dared.State)
}

func TestFreezeBreach_NoCrystal(t *testing.T) {
	b := domain.Breach{State: domain.BreachOpen, Penalty: 10, PenaltyApplied: true}
	crystals := 0
	_, ok := engagement.FreezeBreach(&b, &crystals, today)
	assert.False(t, ok)
	assert.True(t, b.IsOpen())
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestCheckAchievements(t *testing.T) {
	stats := domain.UserStats{TotalRecords: 1, TaskCount: 1, BestStreak: 7}
	got := engagement.CheckAchievements(stats, nil)

	ids := make([]string, 0, len(got))
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{"first_record", "first_task", "streak_7"}, ids)

	assert.Empty(t, engagement.CheckAchievements(stats, ids))
}

func TestAchievementCatalog_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range engagement.AllAchievements() {
		assert.False(t, seen[a.ID], "duplicate %s", a.ID)
		seen[a.ID] = true
		assert.NotNil(t, a.Predicate)
	}
}
