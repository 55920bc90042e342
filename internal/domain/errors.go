package domain

import "errors"

var (
	// ErrAbsent is returned when a slot holds the kind's sentinel tuple: the
	// read succeeded at the transport level but no entity lives there. It
	// terminates sentinel-driven enumeration and is never a failure.
	ErrAbsent = errors.New("entity absent")

	// ErrUnreachable is returned when the ledger provider cannot be reached.
	// Retryable by a caller-triggered refresh; never retried internally.
	ErrUnreachable = errors.New("ledger unreachable")

	// ErrReverted is returned when the ledger rejected an included write
	ErrReverted = errors.New("transaction reverted")

	// ErrRejected is returned when the signer or node refused to accept a write
	ErrRejected = errors.New("transaction rejected")

	// ErrTimeout is returned when a call deadline expired before the ledger
	// answered. For a write confirmation this means the outcome is unknown
	// and must be re-checked with an idempotent read.
	ErrTimeout = errors.New("ledger call timed out")

	// ErrNotSignedIn is returned when a write is attempted without a signer
	ErrNotSignedIn = errors.New("not signed in")

	// ErrNotAuthorized is returned when the caller fails a role or ownership
	// precondition. Advisory: the ledger remains the final authority.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrUsernameTaken is returned by the advisory pre-submission username check
	ErrUsernameTaken = errors.New("username already taken")

	// ErrProfileExists is returned when the signer already holds a profile token
	ErrProfileExists = errors.New("profile already registered")

	// ErrSoldOut is returned when an event has no tickets left
	ErrSoldOut = errors.New("event sold out")

	// ErrInactive is returned when the write target is not active
	ErrInactive = errors.New("target not active")
)
