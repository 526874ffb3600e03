package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/levelup-labs/lifequest/internal/app/tracker"
	"github.com/levelup-labs/lifequest/internal/domain"
	"github.com/levelup-labs/lifequest/internal/infra/sqlite"
)

func TestParseQuestfile_Basic(t *testing.T) {
	input := `# morning routine
TASK Running
UNIT km
COLOR #ff8800
GOAL 5 daily at_least 20%
INTENSITY 1 3 5 10
DARK_STREAK on

TASK "Gym"
FREQUENCY weekly 3
`
	qf, err := ParseQuestfile(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseQuestfile() error: %v", err)
	}
	if len(qf.Tasks) != 2 {
		t.Fatalf("len(Tasks) = %d, want 2", len(qf.Tasks))
	}

	run := qf.Tasks[0]
	if run.Name != "Running" || run.Unit != "km" || run.Color != "#ff8800" {
		t.Errorf("run = %+v", run)
	}
	if run.GoalValue == nil || *run.GoalValue != 5 || run.GoalInterval != domain.IntervalDaily {
		t.Errorf("goal = %v %q", run.GoalValue, run.GoalInterval)
	}
	if run.GoalType != domain.GoalTypeAtLeast || run.GoalCompletionBonusPercentage == nil || *run.GoalCompletionBonusPercentage != 20 {
		t.Errorf("goal type/bonus = %q %v", run.GoalType, run.GoalCompletionBonusPercentage)
	}
	if len(run.IntensityThresholds) != 4 || !run.DarkStreakEnabled {
		t.Errorf("thresholds/dark = %v %v", run.IntensityThresholds, run.DarkStreakEnabled)
	}

	gym := qf.Tasks[1]
	if gym.Name != "Gym" || gym.FrequencyType != domain.FrequencyWeekly || gym.FrequencyCount != 3 {
		t.Errorf("gym = %+v", gym)
	}
}

func TestParseQuestfile_MultiLinePact(t *testing.T) {
	input := `PACT """
Renew passport.
Bring two photos.
"""
DUE +3
PENALTY 40
PACT Call grandma
`
	qf, err := ParseQuestfile(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseQuestfile() error: %v", err)
	}
	if len(qf.Pacts) != 2 {
		t.Fatalf("len(Pacts) = %d", len(qf.Pacts))
	}
	p := qf.Pacts[0]
	if !strings.Contains(p.Text, "two photos") || strings.HasSuffix(p.Text, "\n") {
		t.Errorf("Text = %q", p.Text)
	}
	if p.DueInDays == nil || *p.DueInDays != 3 || p.Penalty == nil || *p.Penalty != 40 {
		t.Errorf("pact = %+v", p)
	}
	if qf.Pacts[1].Text != "Call grandma" || qf.Pacts[1].DueInDays != nil {
		t.Errorf("second pact = %+v", qf.Pacts[1])
	}
}

func TestParseQuestfile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"setting before block", "UNIT km\n"},
		{"bad goal value", "TASK A\nGOAL lots daily\n"},
		{"goal without interval", "TASK A\nGOAL 5\n"},
		{"bad due", "PACT x\nDUE tomorrow\n"},
		{"bad switch", "TASK A\nDARK_STREAK maybe\n"},
		{"unterminated", "PACT \"\"\"\nnever closed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseQuestfile(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := ParseQuestfile(strings.NewReader("COLOR #fff\n"))
	if !errors.Is(err, ErrNoBlock) {
		t.Errorf("err = %v, want ErrNoBlock", err)
	}
}

func TestParseQuestfile_IgnoresUnknown(t *testing.T) {
	qf, err := ParseQuestfile(strings.NewReader("TASK A\nMASCOT owl\n"))
	if err != nil {
		t.Fatalf("ParseQuestfile() error: %v", err)
	}
	if len(qf.Tasks) != 1 {
		t.Errorf("len(Tasks) = %d", len(qf.Tasks))
	}
}

func TestImportQuestfile(t *testing.T) {
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	defer db.Close()

	now := time.Date(2025, time.July, 18, 8, 0, 0, 0, time.UTC)
	svc := tracker.NewService(db, tracker.Options{Location: time.UTC, Clock: func() time.Time { return now }})
	ctx := context.Background()

	if _, err := svc.CreateTask(ctx, "ana", tracker.TaskInput{Name: "reading"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	qf, err := ParseQuestfile(strings.NewReader("TASK Reading\nTASK Running\nUNIT km\nPACT Stretch\nDUE +2\n"))
	if err != nil {
		t.Fatalf("ParseQuestfile: %v", err)
	}
	rep, err := ImportQuestfile(ctx, svc, "ana", qf)
	if err != nil {
		t.Fatalf("ImportQuestfile: %v", err)
	}
	if len(rep.TasksCreated) != 1 || rep.TasksCreated[0] != "Running" {
		t.Errorf("created = %v", rep.TasksCreated)
	}
	if len(rep.TasksSkipped) != 1 || rep.PactsCreated != 1 {
		t.Errorf("report = %+v", rep)
	}

	pacts, _ := svc.Pacts(ctx, "ana")
	if len(pacts) != 1 || pacts[0].DueDate == nil || *pacts[0].DueDate != domain.NewDate(2025, time.July, 20) {
		t.Errorf("pacts = %+v", pacts)
	}
}
