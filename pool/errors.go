package pool

import "errors"

var (
	// ErrInvalidConfig indicates the pool configuration is rejected
	// (split percentages do not sum to 100, zero amounts, bad keys).
	ErrInvalidConfig = errors.New("pool: invalid configuration")

	// ErrPoolClosed indicates the pool is not accepting entries.
	ErrPoolClosed = errors.New("pool: pool is not active")

	// ErrAmountMismatch indicates the submitted amount does not equal the entry fee.
	ErrAmountMismatch = errors.New("pool: amount does not match entry fee")

	// ErrNoEntries indicates selection was requested for a round with no entries
	// and an unreached floor. The round continues unchanged.
	ErrNoEntries = errors.New("pool: no entries in round")

	// ErrOutcomeMismatch indicates the outcome belongs to a different round.
	ErrOutcomeMismatch = errors.New("pool: outcome round mismatch")

	// ErrInvalidTransition indicates a status transition not permitted by the
	// lifecycle table.
	ErrInvalidTransition = errors.New("pool: invalid status transition")

	// ErrUnauthorized indicates the caller is not the pool authority.
	ErrUnauthorized = errors.New("pool: caller is not the pool authority")

	// ErrInsufficientCustody indicates a debit would exceed the custody balance.
	// Under correct accounting this never happens; it signals a bookkeeping
	// defect and freezes the pool.
	ErrInsufficientCustody = errors.New("pool: debit exceeds custody balance")
)
