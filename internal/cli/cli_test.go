package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/levelup-labs/lifequest/internal/domain"
)

// runCLI executes the root command against a throwaway home directory.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	flagJSON, flagUser = false, ""
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("lifequest %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("LIFEQUEST_HOME", t.TempDir())
	t.Setenv("LIFEQUEST_USER", "tester")
}

func TestParseDateArg(t *testing.T) {
	today := domain.NewDate(2025, time.July, 18)
	tests := []struct {
		in      string
		want    domain.Date
		wantErr bool
	}{
		{"", today, false},
		{"today", today, false},
		{"Yesterday", today.AddDays(-1), false},
		{"-3", today.AddDays(-3), false},
		{"2025-01-02", domain.NewDate(2025, time.January, 2), false},
		{"-x", 0, true},
		{"tomorrowish", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDateArg(tt.in, today)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDateArg(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseDateArg(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if got, _ := parseEndArg("+7", today); got != today.AddDays(7) {
		t.Errorf("parseEndArg(+7) = %s", got)
	}
}

func TestParseRangeArgs(t *testing.T) {
	today := domain.NewDate(2025, time.July, 18)
	rng, err := parseRangeArgs("", "today", 7, today)
	if err != nil || rng.Days() != 7 || rng.End != today {
		t.Errorf("default range = %+v, %v", rng, err)
	}
	if _, err := parseRangeArgs("2025-07-20", "2025-07-10", 0, today); err == nil {
		t.Error("inverted range should fail")
	}
}

func TestLevelBar(t *testing.T) {
	next := int64(250)
	bar := levelBar(domain.LevelInfo{
		CurrentLevel: 2, TierName: "Novice", TierGroup: 1,
		ProgressPercentage: 50, ValueTowardsNextLevel: 125, PointsForNextLevel: &next,
	})
	if !strings.Contains(bar, "Lv 2 Novice") || !strings.Contains(bar, "125 / 250") {
		t.Errorf("levelBar = %q", bar)
	}
	if strings.Count(bar, "█") != barWidth/2 {
		t.Errorf("expected half-filled bar: %q", bar)
	}
}

func TestCLI_TaskLogAndRecords(t *testing.T) {
	isolate(t)

	out := mustRun(t, "task", "add", "Running", "--unit", "km", "--goal", "10", "--interval", "weekly")
	if !strings.Contains(out, "Created task Running") {
		t.Fatalf("task add output: %q", out)
	}

	out = mustRun(t, "log", "12.5", "-t", "running", "-n", "long run")
	if !strings.Contains(out, "Logged 12.5") {
		t.Errorf("log output: %q", out)
	}

	out = mustRun(t, "--json", "records")
	var records []domain.RecordEntry
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode records: %v\n%s", err, out)
	}
	if len(records) != 1 || records[0].Value != 12.5 || records[0].Notes != "long run" {
		t.Errorf("records = %+v", records)
	}

	out = mustRun(t, "status")
	if !strings.Contains(out, "Lv ") || !strings.Contains(out, "Running") {
		t.Errorf("status output: %q", out)
	}
}

func TestCLI_UnknownTask(t *testing.T) {
	isolate(t)
	if _, err := runCLI(t, "log", "1", "-t", "nope"); err == nil {
		t.Error("logging against an unknown task should fail")
	}
}

func TestCLI_PactLifecycle(t *testing.T) {
	isolate(t)

	out := mustRun(t, "--json", "pact", "add", "Call mom", "--due", "+2", "--penalty", "30")
	var pact domain.TodoItem
	if err := json.Unmarshal([]byte(out), &pact); err != nil {
		t.Fatalf("decode pact: %v\n%s", err, out)
	}
	if pact.Penalty == nil || *pact.Penalty != 30 {
		t.Errorf("pact = %+v", pact)
	}

	out = mustRun(t, "pact", "done", pact.ID)
	if !strings.Contains(out, "Honored") {
		t.Errorf("done output: %q", out)
	}
	out = mustRun(t, "pact", "sweep")
	if !strings.Contains(out, "Nothing breached") {
		t.Errorf("sweep output: %q", out)
	}
}

func TestCLI_ConfigPath(t *testing.T) {
	isolate(t)
	out := mustRun(t, "config", "path")
	if !strings.HasSuffix(strings.TrimSpace(out), "config.toml") {
		t.Errorf("config path = %q", out)
	}
}
