// Package engagement implements the LifeQuest progression engine: levels,
// record aggregation, streaks, goals, constellations, pacts and achievements.
// Everything here is a pure function of its inputs; persistence and clocks
// belong to the caller.
package engagement

import (
	"math"
	"sort"

	"github.com/levelup-labs/lifequest/internal/domain"
)

// ─── Streaks ────────────────────────────────────────────────────────────────
// Daily tasks count consecutive days with at least one record. Weekly tasks
// (FrequencyCount k) count consecutive Monday-start weeks having k or more
// distinct recorded days. A streak survives an empty "today" (or an unmet
// current week): the day/week is still in progress.

type daySet map[domain.Date]struct{}

func (s daySet) has(d domain.Date) bool {
	_, ok := s[d]
	return ok
}

// distinctInWeek counts recorded days in the week starting at weekStart.
func (s daySet) distinctInWeek(weekStart domain.Date) int {
	n := 0
	for i := 0; i < 7; i++ {
		if s.has(weekStart.AddDays(i)) {
			n++
		}
	}
	return n
}

func recordDays(records []domain.RecordEntry, taskID string) daySet {
	days := daySet{}
	for _, r := range records {
		if matches(r, taskID) {
			days[r.Date] = struct{}{}
		}
	}
	return days
}

func taskScope(task *domain.TaskDefinition) string {
	if task == nil {
		return ""
	}
	return task.ID
}

// CurrentStreak returns the live streak for task (nil = any record counts).
func CurrentStreak(records []domain.RecordEntry, task *domain.TaskDefinition, today domain.Date) int {
	days := recordDays(records, taskScope(task))
	if task != nil && task.IsWeekly() {
		return weeklyStreak(days, task.WeeklyTarget(), today)
	}
	start := today
	if !days.has(start) {
		start = start.AddDays(-1)
	}
	return runEndingAt(days, start)
}

// StreakEndingAt counts consecutive recorded days ending exactly on end.
// Daily semantics only; it is used to size a streak that just broke.
func StreakEndingAt(records []domain.RecordEntry, taskID string, end domain.Date) int {
	return runEndingAt(recordDays(records, taskID), end)
}

func runEndingAt(days daySet, end domain.Date) int {
	n := 0
	for d := end; days.has(d); d = d.AddDays(-1) {
		n++
	}
	return n
}

func weeklyStreak(days daySet, target int, today domain.Date) int {
	week := today.WeekStart()
	if days.distinctInWeek(week) < target {
		week = week.AddDays(-7)
	}
	n := 0
	for days.distinctInWeek(week) >= target {
		n++
		week = week.AddDays(-7)
	}
	return n
}

// LongestStreak returns the best streak ever recorded, in days for daily
// tasks and in qualifying weeks for weekly tasks.
func LongestStreak(records []domain.RecordEntry, task *domain.TaskDefinition) int {
	days := recordDays(records, taskScope(task))
	if len(days) == 0 {
		return 0
	}
	if task != nil && task.IsWeekly() {
		return longestWeeklyRun(days, task.WeeklyTarget())
	}

	sorted := make([]domain.Date, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	best, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1]+1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

func longestWeeklyRun(days daySet, target int) int {
	weeks := map[domain.Date]struct{}{}
	for d := range days {
		weeks[d.WeekStart()] = struct{}{}
	}
	starts := make([]domain.Date, 0, len(weeks))
	for w := range weeks {
		if days.distinctInWeek(w) >= target {
			starts = append(starts, w)
		}
	}
	if len(starts) == 0 {
		return 0
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	best, run := 1, 1
	for i := 1; i < len(starts); i++ {
		if starts[i] == starts[i-1]+7 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// ─── Consistency ────────────────────────────────────────────────────────────

// DailyConsistency returns the rounded percentage (0-100) of the last
// windowDays days (today included) that had a qualifying record.
// For weekly tasks it is the share of weeks overlapping the window that met
// the weekly target; with no overlapping weeks that share is 100.
func DailyConsistency(records []domain.RecordEntry, windowDays int, task *domain.TaskDefinition, today domain.Date) int {
	if windowDays <= 0 {
		return 0
	}
	days := recordDays(records, taskScope(task))
	window := domain.LastNDays(today, windowDays)

	if task != nil && task.IsWeekly() {
		target := task.WeeklyTarget()
		total, met := 0, 0
		for w := window.Start.WeekStart(); w <= window.End; w = w.AddDays(7) {
			total++
			if days.distinctInWeek(w) >= target {
				met++
			}
		}
		if total == 0 {
			return 100
		}
		return percent(met, total)
	}

	hit := 0
	for d := window.Start; d <= window.End; d++ {
		if days.has(d) {
			hit++
		}
	}
	return percent(hit, windowDays)
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// ─── Milestones ─────────────────────────────────────────────────────────────

// DefaultStreakMilestones are the streak lengths that grant a freeze crystal.
var DefaultStreakMilestones = []int{7, 14, 30, 60, 100, 365}

// NewMilestones returns the milestones streak has reached that are not in
// awarded yet, ascending. Each milestone pays out at most once per task.
func NewMilestones(streak int, milestones, awarded []int) []int {
	done := make(map[int]bool, len(awarded))
	for _, m := range awarded {
		done[m] = true
	}
	var out []int
	for _, m := range milestones {
		if m > 0 && streak >= m && !done[m] {
			out = append(out, m)
			done[m] = true
		}
	}
	sort.Ints(out)
	return out
}
