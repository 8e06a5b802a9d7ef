package selector

import "errors"

var (
	// ErrNoEntries indicates winner selection was attempted over an empty round.
	ErrNoEntries = errors.New("selector: no entries in round")

	// ErrNilBeacon indicates no beacon block hash was supplied.
	ErrNilBeacon = errors.New("selector: beacon hash is nil")

	// ErrOutcomeAlreadyComputed indicates an outcome already exists for the round.
	ErrOutcomeAlreadyComputed = errors.New("selector: outcome already computed for round")

	// ErrDuplicateOutcome indicates a decision signal was already consumed
	// for this round.
	ErrDuplicateOutcome = errors.New("selector: duplicate outcome for round")

	// ErrDecisionMalformed indicates the decision signal is not well-formed.
	ErrDecisionMalformed = errors.New("selector: malformed decision")

	// ErrBadDecisionSignature indicates the decision signature does not
	// verify against the pool's oracle key.
	ErrBadDecisionSignature = errors.New("selector: decision signature invalid")

	// ErrNoOracle indicates a decision was submitted to a pool with no
	// registered oracle key.
	ErrNoOracle = errors.New("selector: pool has no decision oracle")
)
