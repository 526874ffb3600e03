package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/levelup-labs/lifequest/internal/app/tracker"
	"github.com/levelup-labs/lifequest/internal/domain"
)

// ─── Level Bar ──────────────────────────────────────────────────────────────
// Lv 12 Apprentice 🛠  [███████████░░░░░░░░░░░░░░░░░░░] 38% │ 1,240 / 1,700

const barWidth = 30

// tierColors maps a tier's display group (1-5) to a terminal colour.
var tierColors = map[int]*color.Color{
	1: color.New(color.FgWhite),
	2: color.New(color.FgGreen),
	3: color.New(color.FgCyan),
	4: color.New(color.FgMagenta),
	5: color.New(color.FgYellow, color.Bold),
}

func tierColor(group int) *color.Color {
	if c, ok := tierColors[group]; ok {
		return c
	}
	return tierColors[1]
}

var (
	dim  = color.New(color.Faint)
	good = color.New(color.FgGreen)
	warn = color.New(color.FgYellow)
	bad  = color.New(color.FgRed)
)

// levelBar renders a one-line level summary.
func levelBar(info domain.LevelInfo) string {
	pct := info.ProgressPercentage
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	c := tierColor(info.TierGroup)
	head := c.Sprintf("Lv %d %s %s", info.CurrentLevel, info.TierName, info.TierIcon)
	if info.IsMaxLevel {
		return fmt.Sprintf("%s [%s] MAX │ %s xp", head, c.Sprint(bar), num(info.TotalAccumulatedValue))
	}
	next := int64(0)
	if info.PointsForNextLevel != nil {
		next = *info.PointsForNextLevel
	}
	return fmt.Sprintf("%s [%s] %3.0f%% │ %s / %s",
		head, c.Sprint(bar), pct,
		num(info.ValueTowardsNextLevel), humanize.Comma(next))
}

// num formats a value with thousands separators and at most two decimals.
func num(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

// signed formats a delta with an explicit sign.
func signed(v float64) string {
	if v >= 0 {
		return "+" + num(v)
	}
	return num(v)
}

// printOutcome reports what a command triggered, if anything.
func printOutcome(w io.Writer, o *tracker.Outcome) {
	if o == nil {
		return
	}
	if o.LeveledUp() {
		good.Fprintf(w, "Level up! %d → %d\n", o.LevelBefore, o.LevelAfter)
	} else if o.LevelAfter < o.LevelBefore {
		bad.Fprintf(w, "Level down: %d → %d\n", o.LevelBefore, o.LevelAfter)
	}
	for _, t := range o.TiersEntered {
		tierColor(t.Group).Fprintf(w, "Entered tier %s %s (+%s bonus)\n", t.Name, t.Icon, num(t.EntryBonus))
	}
	for _, m := range o.Milestones {
		fmt.Fprintf(w, "%d-day streak milestone: +1 freeze crystal\n", m.Days)
	}
	for _, a := range o.Achievements {
		fmt.Fprintf(w, "Achievement unlocked: %s %s (+%s)\n", a.Icon, a.Name, num(a.RewardXP))
	}
}

// newTable returns a tabwriter laid out like the rest of the CLI tables.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
}

// dateOrDash formats an optional date.
func dateOrDash(d *domain.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

// pactStatus colours a pact status word.
func pactStatus(s domain.PactStatus) string {
	switch s {
	case domain.PactHonored:
		return good.Sprint(s)
	case domain.PactBreached:
		return bad.Sprint(s)
	default:
		return string(s)
	}
}

// heatCell picks a shade for an intensity bucket (0-4).
func heatCell(intensity int) string {
	cells := []string{"·", "░", "▒", "▓", "█"}
	if intensity < 0 {
		intensity = 0
	}
	if intensity >= len(cells) {
		intensity = len(cells) - 1
	}
	return cells[intensity]
}
