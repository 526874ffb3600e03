package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/levelup-labs/lifequest/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, "lifequest.db")); os.IsNotExist(err) {
		t.Error("lifequest.db should exist")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		db, err := Open(dir)
		if err != nil {
			t.Fatalf("Open() #%d error: %v", i, err)
		}
		v, err := db.GetMeta("schema_version")
		if err != nil || v != schemaVersion {
			t.Errorf("schema_version = %q, %v", v, err)
		}
		db.Close()
	}
}

// ─── User Document ──────────────────────────────────────────────────────────

func TestLoadUserState_Unknown(t *testing.T) {
	db := newTestDB(t)
	state, err := db.LoadUserState(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(state.Records) != 0 || state.SettledGoalPeriods == nil {
		t.Errorf("unexpected state: %+v", state)
	}
}

func TestSaveUserState_MergesFields(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	records := []domain.RecordEntry{{ID: "r1", Date: domain.NewDate(2025, time.July, 1), Value: 5, TaskType: "run"}}
	bonus := 40.0
	if err := db.SaveUserState(ctx, "u1", domain.StatePatch{Records: &records, BonusPoints: &bonus}); err != nil {
		t.Fatalf("save: %v", err)
	}

	crystals := 2
	if err := db.SaveUserState(ctx, "u1", domain.StatePatch{FreezeCrystals: &crystals}); err != nil {
		t.Fatalf("save: %v", err)
	}

	state, err := db.LoadUserState(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(state.Records) != 1 || state.Records[0].Value != 5 {
		t.Errorf("records lost: %+v", state.Records)
	}
	if state.BonusPoints != 40 || state.FreezeCrystals != 2 {
		t.Errorf("bonus=%v crystals=%d", state.BonusPoints, state.FreezeCrystals)
	}
}

func TestSaveUserState_ClearsList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	friends := []string{"ana", "bo"}
	_ = db.SaveUserState(ctx, "u1", domain.StatePatch{Friends: &friends})

	none := []string{}
	if err := db.SaveUserState(ctx, "u1", domain.StatePatch{Friends: &none}); err != nil {
		t.Fatalf("save: %v", err)
	}
	state, _ := db.LoadUserState(ctx, "u1")
	if len(state.Friends) != 0 {
		t.Errorf("friends should be cleared, got %v", state.Friends)
	}
}

func TestSaveUserState_NilFieldsUntouched(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	name := "Robin"
	_ = db.SaveUserState(ctx, "u1", domain.StatePatch{DisplayName: &name})
	_ = db.SaveUserState(ctx, "u1", domain.StatePatch{})

	state, _ := db.LoadUserState(ctx, "u1")
	if state.DisplayName != "Robin" {
		t.Errorf("display name = %q", state.DisplayName)
	}
}

func TestListUsers_AndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bonus := 1.0
	for _, u := range []string{"a", "b"} {
		if err := db.SaveUserState(ctx, u, domain.StatePatch{BonusPoints: &bonus}); err != nil {
			t.Fatalf("save %s: %v", u, err)
		}
	}
	users, err := db.ListUsers(ctx)
	if err != nil || len(users) != 2 {
		t.Fatalf("ListUsers = %v, %v", users, err)
	}

	if err := db.DeleteUser(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := db.DeleteUser(ctx, "a"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("second delete: %v", err)
	}
	users, _ = db.ListUsers(ctx)
	if len(users) != 1 || users[0] != "b" {
		t.Errorf("users after delete = %v", users)
	}
}

// ─── XP Ledger ──────────────────────────────────────────────────────────────

func TestXPHistory_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bonus := 10.0
	err := db.SaveUserState(ctx, "u1", domain.StatePatch{
		BonusPoints: &bonus,
		Ledger: []domain.XPEntry{
			{Source: domain.XPGoalBonus, Amount: 30, Ref: "weekly:2025-W28", Balance: 30},
			{Source: domain.XPPactPenalty, Amount: -20, Ref: "pact:p1", Balance: 10},
		},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := db.XPHistory(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Source != domain.XPPactPenalty || entries[0].Amount != -20 {
		t.Errorf("newest entry = %+v", entries[0])
	}
	if entries[1].Ref != "weekly:2025-W28" || entries[1].Balance != 30 {
		t.Errorf("oldest entry = %+v", entries[1])
	}

	other, _ := db.XPHistory(ctx, "u2", 10)
	if len(other) != 0 {
		t.Errorf("history leaked across users: %v", other)
	}
}
