// Package pool implements the pool ledger record for bounty pools: the
// custodied balance, fee configuration, and round lifecycle state machine.
//
// A State is a plain record. It performs no I/O and holds no locks; the
// orchestration layer serializes access and commits every mutation through
// the store as one atomic unit.
package pool

import "fmt"

// Status is the round lifecycle phase of a pool.
type Status uint8

const (
	// StatusActive accepts entries for the current round.
	StatusActive Status = iota
	// StatusSelecting means the entry window is closed and an outcome is pending.
	StatusSelecting
	// StatusSettling means an outcome exists and disbursement may run.
	StatusSettling
	// StatusClosed is terminal. Only the recovery gate may move funds.
	StatusClosed
)

// String returns the lowercase phase name.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusSelecting:
		return "selecting"
	case StatusSettling:
		return "settling"
	case StatusClosed:
		return "closed"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

const (
	// PoolIDSize is the length of a pool identifier in bytes.
	PoolIDSize = 32

	// AuthorityKeySize is the length of a compressed authority public key.
	AuthorityKeySize = 33

	// DestinationSize is the length of a P2PKH destination hash.
	DestinationSize = 20
)

// SplitShare is one (destination, percentage) pair of a fee split.
type SplitShare struct {
	Destination [DestinationSize]byte // P2PKH hash of the payout destination
	Percent     uint8                 // whole percentage points
}

// Config holds the immutable pool parameters fixed at creation.
type Config struct {
	EntryFee    uint64       // exact fee per entry, smallest unit
	FloorAmount uint64       // minimum pot guaranteed to roll over if unclaimed
	FeeSplit    []SplitShare // ordered; percentages sum to exactly 100
	Authority   []byte       // compressed pubkey permitted to close/recover
	OraclePub   []byte       // compressed pubkey of the decision oracle; nil for winner-only pools
}

// State is the durable pool ledger record.
//
// Invariant: Custody always equals the sum of the current round's
// unprocessed contributions plus Carry.
type State struct {
	PoolID      [PoolIDSize]byte
	Authority   []byte // compressed pubkey, rotatable only by itself
	OraclePub   []byte // nil when the pool has no decision oracle
	EntryFee    uint64
	FloorAmount uint64
	FeeSplit    []SplitShare

	Custody uint64 // custodied balance, smallest unit
	Carry   uint64 // rolled-over remainder included in Custody

	Round       uint64 // incremented exactly once per completed round
	NextEntryID uint64 // sequential per pool, never reused
	Status      Status

	// SelectionHeight is the chain height observed when the entry window
	// closed. The selection beacon must come from a block finalized after it.
	SelectionHeight uint64

	CreatedAt int64 // unix seconds
}

// New validates cfg and returns a fresh pool state with zero custody.
func New(poolID [PoolIDSize]byte, cfg Config) (*State, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	st := &State{
		PoolID:      poolID,
		Authority:   append([]byte(nil), cfg.Authority...),
		EntryFee:    cfg.EntryFee,
		FloorAmount: cfg.FloorAmount,
		FeeSplit:    append([]SplitShare(nil), cfg.FeeSplit...),
		Status:      StatusActive,
	}
	if len(cfg.OraclePub) > 0 {
		st.OraclePub = append([]byte(nil), cfg.OraclePub...)
	}
	return st, nil
}

// HasOracle reports whether the pool accepts decision-oracle outcomes.
func (st *State) HasOracle() bool { return len(st.OraclePub) > 0 }

// Clone returns a deep copy of the state.
func (st *State) Clone() *State {
	cp := *st
	cp.Authority = append([]byte(nil), st.Authority...)
	if st.OraclePub != nil {
		cp.OraclePub = append([]byte(nil), st.OraclePub...)
	}
	cp.FeeSplit = append([]SplitShare(nil), st.FeeSplit...)
	return &cp
}
