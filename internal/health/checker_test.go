package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/levelup-labs/lifequest/internal/domain"
	"github.com/levelup-labs/lifequest/internal/infra/sqlite"
)

func newTestDB(t *testing.T) (*sqlite.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, dir
}

func statusOf(t *testing.T, c *Checker, name string) Status {
	t.Helper()
	for _, s := range c.Statuses() {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("check %q not found in statuses", name)
	return Status{}
}

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestNewChecker(t *testing.T) {
	db, dir := newTestDB(t)

	c := NewChecker(db, dir, nil)
	if len(c.checks) != 3 {
		t.Errorf("checks = %d, want 3", len(c.checks))
	}
}

func TestChecker_RunAllHealthy(t *testing.T) {
	db, dir := newTestDB(t)

	c := NewChecker(db, dir, nil)
	c.runAll(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 3 {
		t.Fatalf("Statuses() = %d, want 3", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
	}
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true when all checks pass")
	}
}

func TestChecker_IsHealthy_BeforeRun(t *testing.T) {
	db, dir := newTestDB(t)

	c := NewChecker(db, dir, nil)

	// No statuses yet: vacuously healthy.
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true before first run")
	}
}

func TestChecker_StoreDirMissing(t *testing.T) {
	db, _ := newTestDB(t)

	c := NewChecker(db, filepath.Join(t.TempDir(), "gone"), nil)
	c.runAll(context.Background())

	if statusOf(t, c, "store_dir").Healthy {
		t.Error("store_dir should fail for a missing directory")
	}
	if c.IsHealthy() {
		t.Error("IsHealthy() should be false")
	}
}

func TestChecker_StoreDirIsFile(t *testing.T) {
	db, _ := newTestDB(t)
	path := filepath.Join(t.TempDir(), "store")
	os.WriteFile(path, []byte("not a dir"), 0644)

	c := NewChecker(db, path, nil)
	c.runAll(context.Background())

	if statusOf(t, c, "store_dir").Healthy {
		t.Error("store_dir should fail when path is a file")
	}
}

func TestChecker_LedgerConsistent(t *testing.T) {
	db, dir := newTestDB(t)
	ctx := context.Background()

	bonus := 40.0
	err := db.SaveUserState(ctx, "alice", domain.StatePatch{
		BonusPoints: &bonus,
		Ledger: []domain.XPEntry{
			{Timestamp: time.Now(), Source: domain.XPGoalBonus, Amount: 40, Balance: 40},
		},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	c := NewChecker(db, dir, nil)
	c.runAll(ctx)
	if s := statusOf(t, c, "ledger"); !s.Healthy {
		t.Errorf("ledger should be healthy: %s", s.Error)
	}
}

func TestChecker_LedgerDrift(t *testing.T) {
	db, dir := newTestDB(t)
	ctx := context.Background()

	bonus := 40.0
	db.SaveUserState(ctx, "alice", domain.StatePatch{
		BonusPoints: &bonus,
		Ledger: []domain.XPEntry{
			{Timestamp: time.Now(), Source: domain.XPGoalBonus, Amount: 40, Balance: 40},
		},
	})
	// Bonus moved without a journal entry.
	drifted := 100.0
	db.SaveUserState(ctx, "alice", domain.StatePatch{BonusPoints: &drifted})

	c := NewChecker(db, dir, nil)
	c.runAll(ctx)
	s := statusOf(t, c, "ledger")
	if s.Healthy {
		t.Error("ledger drift should be reported")
	}
	if s.Error == "" {
		t.Error("error message should be populated")
	}
}

func TestChecker_AddCustomCheck(t *testing.T) {
	c := &Checker{}
	c.Add(Check{
		Name:    "always_pass",
		CheckFn: func(ctx context.Context) error { return nil },
	})

	c.runAll(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 1 {
		t.Fatalf("statuses = %d, want 1", len(statuses))
	}
	if !statuses[0].Healthy {
		t.Error("always_pass check should be healthy")
	}
}

func TestChecker_FailingCheckRecovers(t *testing.T) {
	recovered := false
	c := &Checker{
		log: zap.NewNop(),
		checks: []Check{
			{
				Name: "always_fail",
				CheckFn: func(ctx context.Context) error {
					return os.ErrPermission
				},
				RecoverFn: func(ctx context.Context) error {
					recovered = true
					return nil
				},
			},
		},
	}

	c.runAll(context.Background())

	statuses := c.Statuses()
	if statuses[0].Healthy {
		t.Error("always_fail check should not be healthy")
	}
	if statuses[0].Error == "" {
		t.Error("error message should be populated")
	}
	if !recovered {
		t.Error("RecoverFn should run after a failure")
	}
}

func TestChecker_StatusesCopy(t *testing.T) {
	db, dir := newTestDB(t)
	c := NewChecker(db, dir, nil)
	c.runAll(context.Background())

	s1 := c.Statuses()
	s2 := c.Statuses()

	s1[0].Healthy = false
	if !s2[0].Healthy {
		t.Error("Statuses() should return a copy, not a reference")
	}
}

func TestChecker_RunStopsOnCancel(t *testing.T) {
	db, dir := newTestDB(t)
	c := NewChecker(db, dir, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if len(c.Statuses()) != 3 {
		t.Error("Run should check once on start")
	}
}
