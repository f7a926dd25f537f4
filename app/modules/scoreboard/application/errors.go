package scoreboardservice

import "errors"

var (
	// ErrTransientFetch wraps source failures. Nothing was folded; retry after a delay.
	ErrTransientFetch = errors.New("transient fetch failure")

	// ErrPersistence wraps ledger and snapshot write failures. The cycle is
	// abandoned and the next one retries.
	ErrPersistence = errors.New("persistence write failure")

	// ErrNotResumed is returned when a cycle runs before Resume.
	ErrNotResumed = errors.New("scoreboard has not been resumed from the ledger")
)
