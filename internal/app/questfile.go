// Package app provides application-layer orchestration services.
// It wires domain logic with infrastructure, never the reverse.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/levelup-labs/lifequest/internal/app/tracker"
	"github.com/levelup-labs/lifequest/internal/domain"
)

// ErrNoBlock is returned when a setting appears before any TASK or PACT.
var ErrNoBlock = errors.New("questfile: setting outside a TASK or PACT block")

// Questfile is a declarative bundle of tasks and pacts to import.
type Questfile struct {
	Tasks []tracker.TaskInput
	Pacts []QuestPact
}

// QuestPact is a pact declaration. DueInDays is relative to the import day.
type QuestPact struct {
	Text      string
	DueInDays *int
	Penalty   *float64
}

// ParseQuestfile parses a Questfile from a reader.
// Blocks start with TASK <name> or PACT <text>. Task settings: UNIT,
// CUSTOM_UNIT, COLOR, FREQUENCY, GOAL, INTENSITY, DARK_STREAK. Pact settings:
// DUE, PENALTY. Multi-line pact text uses triple-quote delimiters (""").
func ParseQuestfile(r io.Reader) (*Questfile, error) {
	qf := &Questfile{}

	scanner := bufio.NewScanner(r)
	var task *tracker.TaskInput
	var pact *QuestPact
	var inMultiLine bool
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		// Handle multi-line blocks (""" delimiters)
		if inMultiLine {
			if strings.TrimSpace(line) == `"""` {
				inMultiLine = false
				pact.Text = strings.TrimSpace(pact.Text)
				continue
			}
			pact.Text += line + "\n"
			continue
		}

		line = strings.TrimSpace(line)

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, " ", 2)
		directive := strings.ToUpper(parts[0])
		value := ""
		if len(parts) == 2 {
			value = strings.TrimSpace(parts[1])
		}

		switch directive {
		case "TASK":
			qf.Tasks = append(qf.Tasks, tracker.TaskInput{Name: unquote(value)})
			task, pact = &qf.Tasks[len(qf.Tasks)-1], nil
			continue
		case "PACT":
			qf.Pacts = append(qf.Pacts, QuestPact{})
			pact, task = &qf.Pacts[len(qf.Pacts)-1], nil
			if value == `"""` {
				inMultiLine = true
			} else {
				pact.Text = unquote(value)
			}
			continue
		}

		var err error
		switch {
		case task != nil:
			err = applyTaskSetting(task, directive, value)
		case pact != nil:
			err = applyPactSetting(pact, directive, value)
		default:
			err = ErrNoBlock
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read questfile: %w", err)
	}
	if inMultiLine {
		return nil, fmt.Errorf("line %d: unterminated \"\"\" block", lineNo)
	}
	return qf, nil
}

func applyTaskSetting(t *tracker.TaskInput, directive, value string) error {
	switch directive {
	case "UNIT":
		t.Unit = unquote(value)
	case "CUSTOM_UNIT":
		t.CustomUnitName = unquote(value)
	case "COLOR":
		t.Color = value
	case "DARK_STREAK":
		on, err := parseSwitch(value)
		if err != nil {
			return err
		}
		t.DarkStreakEnabled = on

	case "FREQUENCY":
		// FREQUENCY daily | FREQUENCY weekly <count>
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return fmt.Errorf("FREQUENCY needs daily or weekly")
		}
		t.FrequencyType = domain.FrequencyType(strings.ToLower(fields[0]))
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return fmt.Errorf("FREQUENCY count %q: %w", fields[1], err)
			}
			t.FrequencyCount = n
		}

	case "GOAL":
		// GOAL <value> <interval> [at_least|no_more_than] [bonus%]
		fields := strings.Fields(value)
		if len(fields) < 2 {
			return fmt.Errorf("GOAL needs a value and an interval")
		}
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("GOAL value %q: %w", fields[0], err)
		}
		t.GoalValue = &v
		t.GoalInterval = domain.GoalInterval(strings.ToLower(fields[1]))
		for _, f := range fields[2:] {
			if strings.HasSuffix(f, "%") {
				pct, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
				if err != nil {
					return fmt.Errorf("GOAL bonus %q: %w", f, err)
				}
				t.GoalCompletionBonusPercentage = &pct
				continue
			}
			t.GoalType = domain.GoalType(strings.ToLower(f))
		}

	case "INTENSITY":
		fields := strings.Fields(value)
		th := make([]float64, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return fmt.Errorf("INTENSITY %q: %w", f, err)
			}
			th = append(th, v)
		}
		t.IntensityThresholds = th

	default:
		// Unknown directives are silently ignored for forward compatibility
	}
	return nil
}

func applyPactSetting(p *QuestPact, directive, value string) error {
	switch directive {
	case "DUE":
		// DUE +<days> | DUE today
		days := 0
		if strings.ToLower(value) != "today" {
			n, err := strconv.Atoi(strings.TrimPrefix(value, "+"))
			if err != nil || n < 0 {
				return fmt.Errorf("DUE %q: want today or +<days>", value)
			}
			days = n
		}
		p.DueInDays = &days
	case "PENALTY":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("PENALTY %q: %w", value, err)
		}
		p.Penalty = &v
	default:
	}
	return nil
}

func parseSwitch(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "", "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", value)
}

// unquote removes surrounding double quotes if present.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// ─── Import ─────────────────────────────────────────────────────────────────

// ImportReport lists what ImportQuestfile did.
type ImportReport struct {
	TasksCreated []string `json:"tasks_created"`
	TasksSkipped []string `json:"tasks_skipped"` // a task with that name exists
	PactsCreated int      `json:"pacts_created"`
}

// ImportQuestfile creates the file's tasks and pacts for userID. Tasks whose
// name is already taken are skipped; any other error stops the import.
func ImportQuestfile(ctx context.Context, svc *tracker.Service, userID string, qf *Questfile) (*ImportReport, error) {
	existing, err := svc.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(existing))
	for _, t := range existing {
		taken[strings.ToLower(t.Name)] = true
	}

	rep := &ImportReport{TasksCreated: []string{}, TasksSkipped: []string{}}
	for _, in := range qf.Tasks {
		if taken[strings.ToLower(strings.TrimSpace(in.Name))] {
			rep.TasksSkipped = append(rep.TasksSkipped, in.Name)
			continue
		}
		t, err := svc.CreateTask(ctx, userID, in)
		if err != nil {
			return rep, fmt.Errorf("task %q: %w", in.Name, err)
		}
		taken[strings.ToLower(t.Name)] = true
		rep.TasksCreated = append(rep.TasksCreated, t.Name)
	}

	today := svc.Today()
	for _, p := range qf.Pacts {
		in := tracker.PactInput{Text: p.Text, Penalty: p.Penalty}
		if p.DueInDays != nil {
			due := today.AddDays(*p.DueInDays)
			in.DueDate = &due
		}
		if _, err := svc.CreatePact(ctx, userID, in); err != nil {
			return rep, fmt.Errorf("pact %q: %w", p.Text, err)
		}
		rep.PactsCreated++
	}
	return rep, nil
}
