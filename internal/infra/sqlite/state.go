package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/levelup-labs/lifequest/internal/domain"
)

// ─── User Document Store ────────────────────────────────────────────────────
// Implements domain.UserStore. Every top-level UserState field is a row; a
// save upserts only the fields present in the patch, inside one transaction.

var _ domain.UserStore = (*DB)(nil)

// LoadUserState assembles the user's document from its field rows.
// Unknown users get an empty (but usable) state.
func (d *DB) LoadUserState(ctx context.Context, userID string) (*domain.UserState, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT field, value FROM user_state WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query state: %w", err)
	}
	defer rows.Close()

	doc := make(map[string]json.RawMessage)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		doc[field] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	state := &domain.UserState{}
	if len(doc) > 0 {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("assemble state: %w", err)
		}
		if err := json.Unmarshal(raw, state); err != nil {
			return nil, fmt.Errorf("decode state for %s: %w", userID, err)
		}
	}
	state.EnsureMaps()
	return state, nil
}

// SaveUserState merges patch into the stored document. Absent values are
// stripped first; fields the patch does not carry are left untouched.
func (d *DB) SaveUserState(ctx context.Context, userID string, patch domain.StatePatch) error {
	fields, err := patch.Fields()
	if err != nil {
		return err
	}
	if len(fields) == 0 && len(patch.Ledger) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (user_id, created_at) VALUES (?, ?)`, userID, now); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	for field, value := range fields {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_state (user_id, field, value, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(user_id, field) DO UPDATE SET
				value=excluded.value,
				updated_at=excluded.updated_at`,
			userID, field, string(value), now,
		); err != nil {
			return fmt.Errorf("upsert %s: %w", field, err)
		}
	}

	for _, e := range patch.Ledger {
		ts := e.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO xp_ledger (user_id, timestamp, source, amount, ref, balance)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			userID, ts.Unix(), string(e.Source), e.Amount, nullStr(e.Ref), e.Balance,
		); err != nil {
			return fmt.Errorf("append ledger: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListUsers returns every user with a stored document, oldest first.
func (d *DB) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT user_id FROM users ORDER BY created_at, user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

// DeleteUser removes a user's document and history.
func (d *DB) DeleteUser(ctx context.Context, userID string) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ─── XP Ledger ──────────────────────────────────────────────────────────────

// XPHistory returns recent ledger entries for a user, newest first.
func (d *DB) XPHistory(ctx context.Context, userID string, limit int) ([]domain.XPEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, timestamp, source, amount, ref, balance
		 FROM xp_ledger WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.XPEntry
	for rows.Next() {
		e, err := scanXPEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanXPEntry(s scanner) (domain.XPEntry, error) {
	var e domain.XPEntry
	var ts int64
	var ref sql.NullString
	if err := s.Scan(&e.ID, &ts, &e.Source, &e.Amount, &ref, &e.Balance); err != nil {
		return e, err
	}
	e.Timestamp = time.Unix(ts, 0)
	if ref.Valid {
		e.Ref = ref.String
	}
	return e, nil
}
