// Package selector derives round outcomes that no single party, including
// the pool authority, can predict or bias before the entry window closes.
//
// Seed material is assembled strictly from already-committed public state:
// the hash of a ledger-platform block finalized after selection began, the
// pool identity, the round number, and a digest of the round's entries in
// insertion order. The mapping from seed to winner index is published here
// and re-verifiable by any observer holding the same inputs. The selector
// never accepts an off-band "random value" from any caller.
package selector

// Mode distinguishes how an outcome was produced.
type Mode uint8

const (
	// ModeWinner selects a winning entry from the beacon-derived seed.
	ModeWinner Mode = iota
	// ModeDecision carries an authenticated pass/fail verdict from the
	// pool's decision oracle.
	ModeDecision
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeWinner:
		return "winner"
	case ModeDecision:
		return "decision"
	}
	return "unknown"
}

// Outcome is the computed result of one round. Created exactly once per
// round, immutable thereafter, and consumed exactly once by settlement.
type Outcome struct {
	PoolID       [32]byte
	Round        uint64
	Mode         Mode
	SeedMaterial []byte // the unpredictable inputs consumed, recorded for audit

	// ModeWinner fields.
	WinnerEntryID uint64
	WinnerIndex   uint64 // stable insertion position within the round

	// ModeDecision fields.
	Pass bool

	PayoutAmount uint64 // zero for a failed decision round
	ComputedAt   int64  // unix seconds
}
