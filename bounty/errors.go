package bounty

import "errors"

var (
	// ErrUnknownPool is returned when the ledger has no pool for an ID.
	ErrUnknownPool = errors.New("bounty: unknown pool")

	// ErrDuplicatePool is returned when creating a pool whose ID exists.
	ErrDuplicatePool = errors.New("bounty: duplicate pool")

	// ErrNoOutcome is returned when settlement is attempted for a round
	// that has no recorded outcome.
	ErrNoOutcome = errors.New("bounty: no outcome for round")

	// ErrNilParam is returned when a required argument is nil.
	ErrNilParam = errors.New("bounty: nil parameter")
)
