package settle

import (
	"fmt"

	"github.com/bountypool/libbounty-go/pool"
	"github.com/bountypool/libbounty-go/selector"
)

// Receipt is the immutable record of one settlement: the round, a reference
// to the outcome consumed, the exact transfer set, and the audit timestamp.
type Receipt struct {
	PoolID      [pool.PoolIDSize]byte
	Round       uint64
	OutcomeSeed []byte // Outcome.SeedMaterial, links receipt to outcome
	Transfers   []Transfer
	TotalPaid   uint64
	Remainder   uint64 // custody left behind, carried into the next round
	SettledAt   int64  // unix seconds
}

// Settle validates an admitted outcome against the pool and applies the
// disbursement to the pool state: computes the transfer set, debits
// custody, and returns the receipt. The caller commits the receipt, the
// processed flags of the round's entries, and the rolled pool state as one
// atomic unit.
//
// The pool must be in Settling phase with a matching round. A transfer
// total above custody is fatal (ErrInsufficientCustody, pool frozen).
func Settle(st *pool.State, out *selector.Outcome, settledAt int64) (*Receipt, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: pool state", ErrNilParam)
	}
	if out == nil {
		return nil, ErrNilOutcome
	}
	if st.Status != pool.StatusSettling {
		return nil, fmt.Errorf("%w: status is %s", ErrNotSettling, st.Status)
	}
	if out.Round != st.Round {
		return nil, fmt.Errorf("%w: outcome round %d, pool round %d",
			ErrOutcomeMismatch, out.Round, st.Round)
	}

	transfers := ComputeTransfers(st.FeeSplit, out.PayoutAmount)
	total := Total(transfers)
	// An over-custody debit freezes the pool inside Debit.
	if err := st.Debit(total); err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}

	return &Receipt{
		PoolID:      st.PoolID,
		Round:       st.Round,
		OutcomeSeed: append([]byte(nil), out.SeedMaterial...),
		Transfers:   transfers,
		TotalPaid:   total,
		Remainder:   st.Custody,
		SettledAt:   settledAt,
	}, nil
}
