package domain

import "context"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// Infrastructure implements them; the application layer depends on them.

// UserStore persists one document per user.
type UserStore interface {
	// LoadUserState returns the user's document. Unknown users get an empty state.
	LoadUserState(ctx context.Context, userID string) (*UserState, error)

	// SaveUserState merges the non-absent fields of patch into the document.
	SaveUserState(ctx context.Context, userID string, patch StatePatch) error

	// ListUsers returns every user ID with a stored document.
	ListUsers(ctx context.Context) ([]string, error)

	// XPHistory returns the newest limit ledger entries, newest first.
	XPHistory(ctx context.Context, userID string, limit int) ([]XPEntry, error)
}
