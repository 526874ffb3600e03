package engagement

import (
	"sort"
	"time"

	"github.com/levelup-labs/lifequest/internal/domain"
)

// ─── Record Aggregation ─────────────────────────────────────────────────────
// Pure functions over an immutable record slice. An empty taskID means
// "every task". Empty input yields zero values, never an error.

// UnassignedTask labels records without a (live) task.
const UnassignedTask = "Unassigned"

// unassignedColor is the neutral swatch used for UnassignedTask.
const unassignedColor = "#9ca3af"

func matches(r domain.RecordEntry, taskID string) bool {
	return taskID == "" || r.TaskType == taskID
}

// Sum totals the values of records inside rng, optionally for one task.
func Sum(records []domain.RecordEntry, rng domain.DateRange, taskID string) float64 {
	var total float64
	for _, r := range records {
		if rng.Contains(r.Date) && matches(r, taskID) {
			total += r.Value
		}
	}
	return total
}

// LifetimeSum totals every record of a task regardless of date.
func LifetimeSum(records []domain.RecordEntry, taskID string) float64 {
	var total float64
	for _, r := range records {
		if matches(r, taskID) {
			total += r.Value
		}
	}
	return total
}

// TotalValue totals every record.
func TotalValue(records []domain.RecordEntry) float64 {
	return LifetimeSum(records, "")
}

// TaskSlice is one task's share of a distribution.
type TaskSlice struct {
	TaskID   string  `json:"task_id,omitempty"`
	TaskName string  `json:"task_name"`
	Value    float64 `json:"value"`
	Color    string  `json:"color"`
}

// DistributionByTask groups in-range records by task, largest first.
// Records whose task is missing or deleted fall under UnassignedTask.
func DistributionByTask(records []domain.RecordEntry, tasks []domain.TaskDefinition, rng domain.DateRange, taskID string) []TaskSlice {
	byID := make(map[string]domain.TaskDefinition, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	totals := map[string]float64{}
	for _, r := range records {
		if !rng.Contains(r.Date) || !matches(r, taskID) {
			continue
		}
		key := r.TaskType
		if _, ok := byID[key]; !ok {
			key = ""
		}
		totals[key] += r.Value
	}

	out := make([]TaskSlice, 0, len(totals))
	for id, v := range totals {
		slice := TaskSlice{TaskID: id, TaskName: UnassignedTask, Value: v, Color: unassignedColor}
		if t, ok := byID[id]; ok {
			slice.TaskName = t.Name
			if t.Color != "" {
				slice.Color = t.Color
			}
		}
		out = append(out, slice)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].TaskName < out[j].TaskName
	})
	return out
}

// WeekdayTotal is the in-range total for one day of the week.
type WeekdayTotal struct {
	Day     string       `json:"day"`
	Weekday time.Weekday `json:"weekday"`
	Total   float64      `json:"total"`
}

// DistributionByWeekday totals in-range records per weekday, Sunday first.
func DistributionByWeekday(records []domain.RecordEntry, rng domain.DateRange, taskID string) []WeekdayTotal {
	out := make([]WeekdayTotal, 7)
	for i := range out {
		wd := time.Weekday(i)
		out[i] = WeekdayTotal{Day: wd.String()[:3], Weekday: wd}
	}
	for _, r := range records {
		if rng.Contains(r.Date) && matches(r, taskID) {
			out[r.Date.Weekday()].Total += r.Value
		}
	}
	return out
}

// PeriodTotal is the total for one rollup bucket.
type PeriodTotal struct {
	Label string      `json:"label"`
	Start domain.Date `json:"start"`
	End   domain.Date `json:"end"`
	Value float64     `json:"value"`
}

// WeeklyRollup sums the last n Monday-start weeks ending with today's week,
// oldest first. The in-progress week is capped at today.
func WeeklyRollup(records []domain.RecordEntry, n int, taskID string, today domain.Date) []PeriodTotal {
	if n <= 0 {
		return []PeriodTotal{}
	}
	current := today.WeekStart()
	out := make([]PeriodTotal, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := current.AddDays(-7 * i)
		end := start.AddDays(6)
		if end > today {
			end = today
		}
		out = append(out, PeriodTotal{
			Label: start.Time().Format("Jan 2"),
			Start: start,
			End:   end,
			Value: Sum(records, domain.NewDateRange(start, end), taskID),
		})
	}
	return out
}

// MonthlyRollup sums the last n calendar months ending with today's month,
// oldest first. The in-progress month is capped at today.
func MonthlyRollup(records []domain.RecordEntry, n int, taskID string, today domain.Date) []PeriodTotal {
	if n <= 0 {
		return []PeriodTotal{}
	}
	y, m, _ := today.Time().Date()
	out := make([]PeriodTotal, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := domain.DateOf(time.Date(y, m-time.Month(i), 1, 0, 0, 0, 0, time.UTC))
		end := domain.DateOf(start.Time().AddDate(0, 1, -1))
		if end > today {
			end = today
		}
		out = append(out, PeriodTotal{
			Label: start.Time().Format("Jan 2006"),
			Start: start,
			End:   end,
			Value: Sum(records, domain.NewDateRange(start, end), taskID),
		})
	}
	return out
}

// DayTotal is one day of a daily series.
type DayTotal struct {
	Date      domain.Date `json:"date"`
	Value     float64     `json:"value"`
	Intensity int         `json:"intensity"`
}

// DailySeries returns one entry per day of rng (empty days included), with an
// intensity bucket computed against thresholds.
func DailySeries(records []domain.RecordEntry, rng domain.DateRange, taskID string, thresholds []float64) []DayTotal {
	days := rng.Days()
	out := make([]DayTotal, days)
	for i := range out {
		out[i].Date = rng.Start.AddDays(i)
	}
	for _, r := range records {
		if rng.Contains(r.Date) && matches(r, taskID) {
			out[r.Date-rng.Start].Value += r.Value
		}
	}
	for i := range out {
		out[i].Intensity = IntensityLevel(out[i].Value, thresholds)
	}
	return out
}

// IntensityLevel buckets a day's value into 0..4: the number of thresholds it
// reaches. Without thresholds any positive value is the top bucket.
func IntensityLevel(value float64, thresholds []float64) int {
	if value <= 0 {
		return 0
	}
	if len(thresholds) == 0 {
		return domain.IntensityLevels
	}
	level := 0
	for _, t := range thresholds {
		if value >= t {
			level++
		}
	}
	return level
}
