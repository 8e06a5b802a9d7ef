// Package settle implements the disbursement engine: it turns a round
// outcome into a deterministic transfer set, an immutable receipt, and a
// payout transaction.
package settle

import (
	"github.com/bountypool/libbounty-go/pool"
)

// Transfer is a single payout to one destination.
type Transfer struct {
	Destination [pool.DestinationSize]byte
	Amount      uint64
}

// ComputeTransfers splits payout across the fee split. Each destination
// receives floor(payout * percent / 100); the integer-division remainder
// (at most n-1 smallest units) goes to the first destination in split
// order. The tie-break is deterministic so any auditor can reproduce the
// exact transfer set. The returned amounts always sum to payout.
//
// A zero payout (failed decision round) produces no transfers.
func ComputeTransfers(split []pool.SplitShare, payout uint64) []Transfer {
	if payout == 0 || len(split) == 0 {
		return nil
	}

	transfers := make([]Transfer, len(split))
	var distributed uint64
	for i, s := range split {
		transfers[i] = Transfer{Destination: s.Destination, Amount: share(payout, s.Percent)}
		distributed += transfers[i].Amount
	}
	// Remainder to the first destination.
	transfers[0].Amount += payout - distributed
	return transfers
}

// share computes floor(payout * percent / 100) without the intermediate
// product, which overflows uint64 for payouts above ~1.8e17 units. Both
// terms stay in range for percent <= 100.
func share(payout uint64, percent uint8) uint64 {
	p := uint64(percent)
	return payout/100*p + payout%100*p/100
}

// Total sums a transfer set.
func Total(transfers []Transfer) uint64 {
	var sum uint64
	for _, t := range transfers {
		sum += t.Amount
	}
	return sum
}

// ContributionSplit applies the fee split to a single entry fee and returns
// the per-destination amounts frozen onto the entry at acceptance time.
// Same rounding rule as ComputeTransfers.
func ContributionSplit(split []pool.SplitShare, amount uint64) []uint64 {
	transfers := ComputeTransfers(split, amount)
	out := make([]uint64, len(transfers))
	for i, t := range transfers {
		out[i] = t.Amount
	}
	return out
}
