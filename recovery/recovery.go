// Package recovery implements the authority-only escape hatch for stuck
// funds. It is deliberately separate from the disbursement engine: recovery
// is the only way funds leave custody outside settlement, every invocation
// is permanently logged with a reason code, and nothing automated may reach
// it. The orchestration layer exposes it as a structurally distinct gate.
package recovery

import (
	"fmt"

	"github.com/bountypool/libbounty-go/pool"
)

// ReasonCode classifies why the authority extracted funds.
type ReasonCode string

const (
	// ReasonStuckFunds covers funds unreachable by normal settlement.
	ReasonStuckFunds ReasonCode = "stuck_funds"
	// ReasonAccountingFault covers recovery after a fatal custody
	// consistency violation froze the pool.
	ReasonAccountingFault ReasonCode = "accounting_fault"
	// ReasonPoolShutdown covers draining a closed pool.
	ReasonPoolShutdown ReasonCode = "pool_shutdown"
)

// Action is the permanent record of one recovery. Never reversible, never
// deleted. It does not reset the round number, and the round's entries keep
// their processed flags: recovered funds are lost to the round for good.
type Action struct {
	PoolID      [pool.PoolIDSize]byte
	Initiator   []byte // compressed pubkey, must equal the pool authority
	Reason      ReasonCode
	Amount      uint64
	Destination [pool.DestinationSize]byte
	Timestamp   int64 // unix seconds
}

// Authorize checks a recovery request against the pool without mutating it.
// Fails with ErrUnauthorized unless initiator is the pool authority, with
// ErrEmptyReason if no reason code is given, and with ErrAmountExceedsCustody
// if the amount is zero or above the custody balance.
func Authorize(st *pool.State, initiator []byte, amount uint64, reason ReasonCode) error {
	if st == nil {
		return fmt.Errorf("%w: pool state", ErrNilParam)
	}
	if !st.IsAuthority(initiator) {
		return ErrUnauthorized
	}
	if reason == "" {
		return ErrEmptyReason
	}
	if amount == 0 || amount > st.Custody {
		return fmt.Errorf("%w: amount %d, custody %d", ErrAmountExceedsCustody, amount, st.Custody)
	}
	return nil
}

// Apply authorizes the request, removes the funds from custody, and returns
// the action record. The caller commits the updated pool state and the
// action log entry as one atomic unit.
func Apply(st *pool.State, initiator []byte, amount uint64, destination [pool.DestinationSize]byte, reason ReasonCode, now int64) (*Action, error) {
	if err := Authorize(st, initiator, amount, reason); err != nil {
		return nil, err
	}
	// Direct decrement: recovery must not route through settlement's debit
	// path, and the amount was just checked against custody.
	st.Custody -= amount
	if st.Carry > st.Custody {
		st.Carry = st.Custody
	}
	return &Action{
		PoolID:      st.PoolID,
		Initiator:   append([]byte(nil), initiator...),
		Reason:      reason,
		Amount:      amount,
		Destination: destination,
		Timestamp:   now,
	}, nil
}
