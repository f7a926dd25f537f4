package scoreboarddb

import "errors"

// Sentinel errors for the ledger layer.
var (
	// ErrNotFound indicates the requested submission is not in the ledger.
	ErrNotFound = errors.New("submission not found")

	// ErrNoRowsAffected indicates an upsert wrote nothing.
	ErrNoRowsAffected = errors.New("no rows affected")

	// ErrLockHeld indicates another process is already writing this contest.
	ErrLockHeld = errors.New("contest writer lock is held by another process")
)
