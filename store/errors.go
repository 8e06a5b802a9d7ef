package store

import "errors"

var (
	// ErrPoolNotFound indicates no pool record exists for the ID.
	ErrPoolNotFound = errors.New("store: pool not found")

	// ErrDuplicatePool indicates a pool with this ID already exists.
	ErrDuplicatePool = errors.New("store: duplicate pool")

	// ErrOutcomeNotFound indicates no outcome is recorded for the round.
	ErrOutcomeNotFound = errors.New("store: outcome not found")

	// ErrDuplicateOutcome indicates an outcome already exists for the
	// round. Outcomes are single-use and never replaced.
	ErrDuplicateOutcome = errors.New("store: duplicate outcome for round")

	// ErrReceiptNotFound indicates the pool has no settlement receipts yet.
	ErrReceiptNotFound = errors.New("store: receipt not found")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("store: required parameter is nil")
)
