package settle

import "errors"

// A transfer total exceeding custody surfaces as pool.ErrInsufficientCustody
// from the debit; settle adds no second sentinel for it.
var (
	// ErrNotSettling indicates disbursement was attempted outside the
	// Settling phase.
	ErrNotSettling = errors.New("settle: pool is not in settling phase")

	// ErrOutcomeMismatch indicates the outcome does not belong to the
	// pool's current round.
	ErrOutcomeMismatch = errors.New("settle: outcome round mismatch")

	// ErrNilOutcome indicates no outcome was supplied.
	ErrNilOutcome = errors.New("settle: outcome is nil")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("settle: required parameter is nil")

	// ErrTxBuild indicates payout transaction construction failed.
	ErrTxBuild = errors.New("settle: payout tx build failed")

	// ErrNoCustodyInput indicates no custody UTXO was supplied to fund the
	// payout transaction.
	ErrNoCustodyInput = errors.New("settle: no custody input")

	// ErrInsufficientInput indicates the custody UTXO does not cover the
	// transfer total.
	ErrInsufficientInput = errors.New("settle: custody input below transfer total")
)
