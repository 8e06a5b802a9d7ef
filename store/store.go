// Package store persists the bounty ledger's record families: pool states,
// entries, outcomes, receipts, and recovery actions. Every ledger
// transition commits through one composite store call so that it is durable
// as a single atomic unit: either every record of the transition lands, or
// none do.
//
// All record families are append-only or monotonic: nothing is ever
// deleted, only superseded by round advancement.
package store

import (
	"github.com/bountypool/libbounty-go/pool"
	"github.com/bountypool/libbounty-go/recovery"
	"github.com/bountypool/libbounty-go/register"
	"github.com/bountypool/libbounty-go/selector"
	"github.com/bountypool/libbounty-go/settle"
)

// LedgerStore is the durable backing for the bounty ledger.
type LedgerStore interface {
	// PutPool creates a pool record. Fails with ErrDuplicatePool if the ID
	// already exists.
	PutPool(st *pool.State) error

	// GetPool retrieves a pool record by ID.
	GetPool(id [pool.PoolIDSize]byte) (*pool.State, error)

	// ListPools returns all pool records.
	ListPools() ([]*pool.State, error)

	// CommitPool overwrites an existing pool record (status transition,
	// authority rotation). Fails with ErrPoolNotFound for unknown pools.
	CommitPool(st *pool.State) error

	// CommitEntry stores the updated pool record and the accepted entry as
	// one atomic unit: funds move and the entry is recorded, or neither.
	CommitEntry(st *pool.State, e *register.Entry) error

	// GetEntries returns a round's entries in insertion order.
	GetEntries(id [pool.PoolIDSize]byte, round uint64) ([]*register.Entry, error)

	// CommitOutcome stores the pool record and the round's outcome as one
	// atomic unit. Fails with ErrDuplicateOutcome if an outcome already
	// exists for the round; outcomes are never replaced.
	CommitOutcome(st *pool.State, out *selector.Outcome) error

	// GetOutcome retrieves the outcome recorded for a round.
	GetOutcome(id [pool.PoolIDSize]byte, round uint64) (*selector.Outcome, error)

	// CommitSettlement stores the rolled pool record, the settlement
	// receipt, and the round's processed entries as one atomic unit.
	CommitSettlement(st *pool.State, rcpt *settle.Receipt, processed []*register.Entry) error

	// LastReceipt returns the most recent settlement receipt for a pool.
	LastReceipt(id [pool.PoolIDSize]byte) (*settle.Receipt, error)

	// CommitRecovery stores the debited pool record and appends the
	// recovery action to the permanent log as one atomic unit.
	CommitRecovery(st *pool.State, act *recovery.Action) error

	// RecoveryLog returns a pool's recovery actions in commit order.
	RecoveryLog(id [pool.PoolIDSize]byte) ([]*recovery.Action, error)
}
