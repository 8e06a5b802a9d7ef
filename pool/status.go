package pool

import (
	"bytes"
	"fmt"
)

// validTransitions is the total lifecycle table. Closed has no successors.
var validTransitions = map[Status]map[Status]bool{
	StatusActive:    {StatusSelecting: true, StatusClosed: true},
	StatusSelecting: {StatusSettling: true},
	StatusSettling:  {StatusActive: true, StatusClosed: true},
	StatusClosed:    {},
}

// CanTransition reports whether the lifecycle table permits from -> to.
func CanTransition(from, to Status) bool {
	return validTransitions[from][to]
}

func (st *State) transition(to Status) error {
	if !CanTransition(st.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, st.Status, to)
	}
	st.Status = to
	return nil
}

// CheckAccept validates an entry submission against the pool without
// mutating anything. It fails with ErrPoolClosed unless the pool is Active,
// and with ErrAmountMismatch unless amount equals the entry fee exactly.
func (st *State) CheckAccept(amount uint64) error {
	if st.Status != StatusActive {
		return fmt.Errorf("%w: status is %s", ErrPoolClosed, st.Status)
	}
	if amount != st.EntryFee {
		return fmt.Errorf("%w: got %d, entry fee is %d", ErrAmountMismatch, amount, st.EntryFee)
	}
	return nil
}

// CreditEntry records an accepted entry's funds and returns the sequential
// entry ID assigned to it. The caller must have passed CheckAccept and must
// commit the paired register entry in the same atomic unit.
func (st *State) CreditEntry(amount uint64) uint64 {
	st.Custody += amount
	id := st.NextEntryID
	st.NextEntryID++
	return id
}

// BeginSelection closes the entry window: Active -> Selecting.
//
// With zero entries the round simply continues: the call fails with
// ErrNoEntries unless the custodied pot (the carry) has already reached the
// floor, in which case a decision-oracle outcome may still settle the round.
// chainHeight is the externally observed ledger-platform height; the
// selection beacon must come from a block finalized after it.
func (st *State) BeginSelection(entryCount int, chainHeight uint64) error {
	if st.Status != StatusActive {
		return fmt.Errorf("%w: status is %s", ErrInvalidTransition, st.Status)
	}
	if entryCount == 0 && st.Custody < st.FloorAmount {
		return fmt.Errorf("%w: round %d", ErrNoEntries, st.Round)
	}
	st.SelectionHeight = chainHeight
	return st.transition(StatusSelecting)
}

// BeginSettlement admits an outcome for disbursement: Selecting -> Settling.
// outcomeRound must match the pool's current round.
func (st *State) BeginSettlement(outcomeRound uint64) error {
	if st.Status != StatusSelecting {
		return fmt.Errorf("%w: status is %s", ErrInvalidTransition, st.Status)
	}
	if outcomeRound != st.Round {
		return fmt.Errorf("%w: outcome is for round %d, pool is in round %d",
			ErrOutcomeMismatch, outcomeRound, st.Round)
	}
	return st.transition(StatusSettling)
}

// Debit removes disbursed funds from custody. A debit that exceeds the
// balance is a fatal consistency violation: the pool is frozen (Closed) and
// ErrInsufficientCustody is returned for recovery-gate intervention.
func (st *State) Debit(amount uint64) error {
	if amount > st.Custody {
		st.Status = StatusClosed
		return fmt.Errorf("%w: debit %d, custody %d", ErrInsufficientCustody, amount, st.Custody)
	}
	st.Custody -= amount
	return nil
}

// RollNextRound resets the pool for a fresh round: Settling -> Active.
// Whatever remains in custody becomes the carried remainder of the new round.
func (st *State) RollNextRound() error {
	if err := st.transition(StatusActive); err != nil {
		return err
	}
	st.Carry = st.Custody
	st.Round++
	st.SelectionHeight = 0
	return nil
}

// Close moves the pool to the terminal Closed status. Authority only.
func (st *State) Close(caller []byte) error {
	if !st.IsAuthority(caller) {
		return ErrUnauthorized
	}
	if st.Status == StatusSelecting {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, st.Status, StatusClosed)
	}
	return st.transition(StatusClosed)
}

// RotateAuthority replaces the authority key. Only the current authority
// may rotate, and only to a well-formed key.
func (st *State) RotateAuthority(caller, next []byte) error {
	if !st.IsAuthority(caller) {
		return ErrUnauthorized
	}
	if len(next) != AuthorityKeySize {
		return fmt.Errorf("%w: next authority key must be %d bytes", ErrInvalidConfig, AuthorityKeySize)
	}
	st.Authority = append([]byte(nil), next...)
	return nil
}

// IsAuthority reports whether caller equals the pool authority key.
func (st *State) IsAuthority(caller []byte) bool {
	return len(caller) == AuthorityKeySize && bytes.Equal(caller, st.Authority)
}
