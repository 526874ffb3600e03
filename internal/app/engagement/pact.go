package engagement

import (
	"math"

	"github.com/levelup-labs/lifequest/internal/domain"
)

// ─── Pacts & Breaches ───────────────────────────────────────────────────────
// Active → Honored | Breached. Entering Breached deducts the penalty once.
// From Breached the user accepts a dare, declines it (extra fractional
// penalty) or spends a freeze crystal (penalty refunded). Exactly one of the
// three can happen per breach.

// BreachRules tunes penalties and dares.
type BreachRules struct {
	DeclineFraction    float64 // extra penalty share when a dare is declined
	DareWindowDays     int     // days a dare stays open
	DarkPenaltyPerDay  float64 // per day of the lost dark streak
	DarkPenaltyMinimum float64
	DarkLookbackDays   int // how far back a late sweep still finds a break
}

// DefaultBreachRules returns the standard penalty policy.
func DefaultBreachRules() BreachRules {
	return BreachRules{
		DeclineFraction:    0.5,
		DareWindowDays:     1,
		DarkPenaltyPerDay:  10,
		DarkPenaltyMinimum: 50,
		DarkLookbackDays:   14,
	}
}

// PactStatusOf returns the lifecycle state of a pact on today.
// A pact is breached once its due date has fully passed.
func PactStatusOf(item domain.TodoItem, today domain.Date) domain.PactStatus {
	switch {
	case item.Completed:
		return domain.PactHonored
	case item.DueDate != nil && *item.DueDate < today:
		return domain.PactBreached
	default:
		return domain.PactActive
	}
}

// IsPactMutable reports whether a pact can still be edited or deleted.
func IsPactMutable(item domain.TodoItem, today domain.Date) bool {
	return item.CreatedAt == today
}

// PactBreachID is the stable breach ID for a pact.
func PactBreachID(pactID string) string { return "pact:" + pactID }

// DarkBreachID is the stable breach ID for a dark streak broken on day.
func DarkBreachID(taskID string, day domain.Date) string {
	return "dark:" + taskID + ":" + day.String()
}

// SweepOverduePacts marks every newly breached pact as penalized and returns
// the breaches carrying a penalty plus the total deduction. items is updated
// in place; pacts already marked PenaltyApplied are skipped.
func SweepOverduePacts(items []domain.TodoItem, today domain.Date) ([]domain.Breach, float64) {
	var breaches []domain.Breach
	var total float64
	for i := range items {
		item := &items[i]
		if item.PenaltyApplied || PactStatusOf(*item, today) != domain.PactBreached {
			continue
		}
		item.PenaltyApplied = true

		if item.Penalty == nil || *item.Penalty <= 0 {
			continue
		}
		breaches = append(breaches, domain.Breach{
			ID:             PactBreachID(item.ID),
			Kind:           domain.BreachPact,
			SubjectID:      item.ID,
			Date:           *item.DueDate,
			Penalty:        *item.Penalty,
			PenaltyApplied: true,
			State:          domain.BreachOpen,
		})
		total += *item.Penalty
	}
	return breaches, total
}

// DetectDarkStreakBreach reports the most recent break of a daily dark-streak
// task: a missed day g before today whose previous day closed a live streak.
// Only days after `after` (the last day already penalized) and within the
// rules' lookback are searched, so a late sweep still finds the break once.
func DetectDarkStreakBreach(task domain.TaskDefinition, records []domain.RecordEntry, today, after domain.Date, rules BreachRules) (domain.Breach, bool) {
	if !task.DarkStreakEnabled || task.IsWeekly() {
		return domain.Breach{}, false
	}
	lookback := rules.DarkLookbackDays
	if lookback < 1 {
		lookback = 1
	}
	if floor := today.AddDays(-lookback - 1); after < floor {
		after = floor
	}
	days := recordDays(records, task.ID)
	for g := today.AddDays(-1); g > after; g = g.AddDays(-1) {
		if days.has(g) {
			continue
		}
		lost := runEndingAt(days, g.AddDays(-1))
		if lost == 0 {
			continue
		}
		penalty := math.Max(rules.DarkPenaltyMinimum, rules.DarkPenaltyPerDay*float64(lost))
		return domain.Breach{
			ID:             DarkBreachID(task.ID, g),
			Kind:           domain.BreachDarkStreak,
			SubjectID:      task.ID,
			Date:           g,
			Penalty:        penalty,
			PenaltyApplied: true,
			State:          domain.BreachOpen,
		}, true
	}
	return domain.Breach{}, false
}

// LastDarkBreach returns the newest day a task's dark streak was penalized.
func LastDarkBreach(breaches []domain.Breach, taskID string) (domain.Date, bool) {
	var last domain.Date
	found := false
	for _, b := range breaches {
		if b.Kind != domain.BreachDarkStreak || b.SubjectID != taskID {
			continue
		}
		if !found || b.Date > last {
			last, found = b.Date, true
		}
	}
	return last, found
}

// AcceptDare resolves an open breach with a new dare pact due after the
// rules' window. The dare carries no penalty of its own.
func AcceptDare(b *domain.Breach, dareID, text string, today domain.Date, rules BreachRules) (domain.TodoItem, bool) {
	if !b.IsOpen() {
		return domain.TodoItem{}, false
	}
	window := rules.DareWindowDays
	if window < 0 {
		window = 0
	}
	due := today.AddDays(window)
	dare := domain.TodoItem{
		ID:        dareID,
		Text:      text,
		CreatedAt: today,
		DueDate:   &due,
		IsDare:    true,
	}
	b.State = domain.BreachDareAccepted
	b.ResolvedOn = &today
	b.DareID = dareID
	return dare, true
}

// DeclineDare resolves an open breach with an extra penalty and returns it.
func DeclineDare(b *domain.Breach, today domain.Date, rules BreachRules) (float64, bool) {
	if !b.IsOpen() {
		return 0, false
	}
	extra := math.Round(b.Penalty * rules.DeclineFraction)
	b.ExtraPenalty = extra
	b.State = domain.BreachDeclined
	b.ResolvedOn = &today
	return extra, true
}

// FreezeBreach spends one crystal to nullify an open breach and returns the
// penalty to refund. It fails without a crystal.
func FreezeBreach(b *domain.Breach, crystals *int, today domain.Date) (float64, bool) {
	if !b.IsOpen() || crystals == nil || *crystals <= 0 {
		return 0, false
	}
	*crystals--
	refund := 0.0
	if b.PenaltyApplied {
		refund = b.Penalty
	}
	b.State = domain.BreachFrozen
	b.ResolvedOn = &today
	return refund, true
}
