// Package bounty is the orchestration layer of the fund ledger. A Ledger
// ties the pool state machine, the entry register, the outcome selector,
// and the disbursement engine to a durable store and a chain service, and
// serializes every pool mutation behind one lock.
//
// Every mutating operation works on a copy of the pool record, commits the
// copy and its companion records to the store as one atomic unit, and only
// then publishes the copy as the live state. A failed store commit leaves
// the in-memory ledger exactly where it was.
package bounty

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bountypool/libbounty-go/chain"
	"github.com/bountypool/libbounty-go/pool"
	"github.com/bountypool/libbounty-go/recovery"
	"github.com/bountypool/libbounty-go/register"
	"github.com/bountypool/libbounty-go/selector"
	"github.com/bountypool/libbounty-go/settle"
	"github.com/bountypool/libbounty-go/store"
)

// runtime is the live working set for one pool: its current state plus the
// in-memory register of the current round's entries.
type runtime struct {
	state *pool.State
	reg   *register.MemRegister
}

// Ledger coordinates all pools against one store and one chain service.
type Ledger struct {
	mu         sync.Mutex
	store      store.LedgerStore
	node       chain.Service
	pools      map[[pool.PoolIDSize]byte]*runtime
	beaconConf uint64 // burial depth required of the beacon block, 0 means 1

	now func() int64 // clock, swappable in tests
}

// Open loads every pool from the store and rebuilds each pool's working
// set from its current round's committed entries.
func Open(s store.LedgerStore, node chain.Service) (*Ledger, error) {
	if s == nil || node == nil {
		return nil, fmt.Errorf("%w: store or chain service", ErrNilParam)
	}
	l := &Ledger{
		store: s,
		node:  node,
		pools: make(map[[pool.PoolIDSize]byte]*runtime),
		now:   func() int64 { return time.Now().Unix() },
	}
	states, err := s.ListPools()
	if err != nil {
		return nil, err
	}
	for _, st := range states {
		reg := register.NewMemRegister()
		entries, err := s.GetEntries(st.PoolID, st.Round)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if err := reg.Append(e); err != nil {
				return nil, err
			}
		}
		l.pools[st.PoolID] = &runtime{state: st, reg: reg}
	}
	return l, nil
}

// SetBeaconConfirmations sets how deep the selection beacon block must be
// buried before ComputeOutcome accepts it. Operators feed this from
// config.BeaconConfirmations; zero keeps the default of one confirmation.
func (l *Ledger) SetBeaconConfirmations(n uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.beaconConf = n
}

func (l *Ledger) lookup(id [pool.PoolIDSize]byte) (*runtime, error) {
	rt, ok := l.pools[id]
	if !ok {
		return nil, fmt.Errorf("%w: %x", ErrUnknownPool, id[:8])
	}
	return rt, nil
}

// CreatePool registers a new pool with zero custody.
func (l *Ledger) CreatePool(id [pool.PoolIDSize]byte, cfg pool.Config) (*pool.State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.pools[id]; exists {
		return nil, fmt.Errorf("%w: %x", ErrDuplicatePool, id[:8])
	}
	st, err := pool.New(id, cfg)
	if err != nil {
		return nil, err
	}
	st.CreatedAt = l.now()
	if err := l.store.PutPool(st); err != nil {
		if errors.Is(err, store.ErrDuplicatePool) {
			return nil, fmt.Errorf("%w: %x", ErrDuplicatePool, id[:8])
		}
		return nil, err
	}
	l.pools[id] = &runtime{state: st, reg: register.NewMemRegister()}
	return st.Clone(), nil
}

// AcceptEntry takes a payer's fee into custody and records the entry. The
// fee must match the pool's entry fee exactly and the pool must be in its
// entry window.
func (l *Ledger) AcceptEntry(id [pool.PoolIDSize]byte, payer [register.PayerSize]byte, amount uint64) (*register.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rt, err := l.lookup(id)
	if err != nil {
		return nil, err
	}
	cp := rt.state.Clone()
	if err := cp.CheckAccept(amount); err != nil {
		return nil, err
	}
	e := &register.Entry{
		ID:           cp.CreditEntry(amount),
		Round:        cp.Round,
		Payer:        payer,
		AmountPaid:   amount,
		Contribution: settle.ContributionSplit(cp.FeeSplit, amount),
		RecordedAt:   l.now(),
	}
	// Append before the durable commit so a register fault surfaces while
	// nothing has been persisted; a failed commit rolls the append back.
	// Either way the working set and the store stay in step.
	if err := rt.reg.Append(e); err != nil {
		return nil, err
	}
	if err := l.store.CommitEntry(cp, e); err != nil {
		rt.reg.Discard(e.ID)
		return nil, err
	}
	rt.state = cp
	return e.Clone(), nil
}

// BeginSelection closes the entry window. The current chain tip is
// recorded so the selection beacon must come from a later block.
func (l *Ledger) BeginSelection(ctx context.Context, id [pool.PoolIDSize]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rt, err := l.lookup(id)
	if err != nil {
		return err
	}
	tip, err := l.node.GetBestBlockHeight(ctx)
	if err != nil {
		return err
	}
	cp := rt.state.Clone()
	if err := cp.BeginSelection(rt.reg.CountForRound(cp.Round), tip); err != nil {
		return err
	}
	if err := l.store.CommitPool(cp); err != nil {
		return err
	}
	rt.state = cp
	return nil
}

// ComputeOutcome derives the round's winner from the first block mined
// after the recorded selection height. It fails with chain.ErrBeaconNotFinal
// until that block is buried to the configured confirmation depth, and with
// selector.ErrOutcomeAlreadyComputed if the round already has an outcome.
func (l *Ledger) ComputeOutcome(ctx context.Context, id [pool.PoolIDSize]byte) (*selector.Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rt, err := l.lookup(id)
	if err != nil {
		return nil, err
	}
	st := rt.state
	if st.Status != pool.StatusSelecting {
		return nil, fmt.Errorf("%w: outcome requires %s, pool is %s",
			pool.ErrInvalidTransition, pool.StatusSelecting, st.Status)
	}
	if _, err := l.store.GetOutcome(id, st.Round); err == nil {
		return nil, fmt.Errorf("%w: round %d", selector.ErrOutcomeAlreadyComputed, st.Round)
	} else if !errors.Is(err, store.ErrOutcomeNotFound) {
		return nil, err
	}
	beacon, err := chain.FetchBeaconConfirmed(ctx, l.node, st.SelectionHeight, l.beaconConf)
	if err != nil {
		return nil, err
	}
	entries := register.Collect(rt.reg, st.Round)
	out, err := selector.SelectWinner(beacon.Hash, id, st.Round, entries, st.Custody, l.now())
	if err != nil {
		return nil, err
	}
	if err := l.store.CommitOutcome(st, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitDecision records an oracle-signed pass/fail verdict as the round's
// outcome. The pool must have a decision oracle configured and be past its
// entry window, and a passing payout cannot exceed custody. A decision
// already consumed for the round fails with selector.ErrDuplicateOutcome.
func (l *Ledger) SubmitDecision(id [pool.PoolIDSize]byte, d *selector.Decision) (*selector.Outcome, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: decision", ErrNilParam)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rt, err := l.lookup(id)
	if err != nil {
		return nil, err
	}
	st := rt.state
	if st.Status != pool.StatusSelecting {
		return nil, fmt.Errorf("%w: decision requires %s, pool is %s",
			pool.ErrInvalidTransition, pool.StatusSelecting, st.Status)
	}
	if !st.HasOracle() {
		return nil, selector.ErrNoOracle
	}
	if d.PoolID != id || d.Round != st.Round {
		return nil, fmt.Errorf("%w: decision for pool %x round %d",
			pool.ErrOutcomeMismatch, d.PoolID[:8], d.Round)
	}
	if err := selector.VerifyDecision(d, st.OraclePub); err != nil {
		return nil, err
	}
	if d.Pass && d.PayoutAmount > st.Custody {
		return nil, fmt.Errorf("%w: payout %d exceeds custody %d",
			pool.ErrInsufficientCustody, d.PayoutAmount, st.Custody)
	}
	out := selector.DecisionOutcome(d, l.now())
	if err := l.store.CommitOutcome(st, out); err != nil {
		if errors.Is(err, store.ErrDuplicateOutcome) {
			return nil, fmt.Errorf("%w: round %d", selector.ErrDuplicateOutcome, st.Round)
		}
		return nil, err
	}
	return out, nil
}

// BeginSettlement moves the pool into disbursement. It requires a recorded
// outcome for the current round.
func (l *Ledger) BeginSettlement(id [pool.PoolIDSize]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rt, err := l.lookup(id)
	if err != nil {
		return err
	}
	out, err := l.store.GetOutcome(id, rt.state.Round)
	if err != nil {
		if errors.Is(err, store.ErrOutcomeNotFound) {
			return fmt.Errorf("%w: round %d", ErrNoOutcome, rt.state.Round)
		}
		return err
	}
	cp := rt.state.Clone()
	if err := cp.BeginSettlement(out.Round); err != nil {
		return err
	}
	if err := l.store.CommitPool(cp); err != nil {
		return err
	}
	rt.state = cp
	return nil
}

// Settle disburses the round's outcome, marks its entries processed, rolls
// the pool into the next round, and commits all of it as one atomic unit.
// If the outcome demands more than custody holds, the pool is frozen
// closed and the error reports the fault.
func (l *Ledger) Settle(id [pool.PoolIDSize]byte) (*settle.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rt, err := l.lookup(id)
	if err != nil {
		return nil, err
	}
	round := rt.state.Round
	out, err := l.store.GetOutcome(id, round)
	if err != nil {
		if errors.Is(err, store.ErrOutcomeNotFound) {
			return nil, fmt.Errorf("%w: round %d", ErrNoOutcome, round)
		}
		return nil, err
	}
	cp := rt.state.Clone()
	rcpt, err := settle.Settle(cp, out, l.now())
	if err != nil {
		if errors.Is(err, pool.ErrInsufficientCustody) {
			// The accounting fault freezes the pool. Persist the frozen
			// record so only the recovery gate can touch it after restart.
			if cerr := l.store.CommitPool(cp); cerr != nil {
				return nil, cerr
			}
			rt.state = cp
		}
		return nil, err
	}

	processed := make([]*register.Entry, 0, rt.reg.CountForRound(round))
	for e := range rt.reg.EntriesForRound(round) {
		c := e.Clone()
		c.Processed = true
		processed = append(processed, c)
	}
	if err := cp.RollNextRound(); err != nil {
		return nil, err
	}
	if err := l.store.CommitSettlement(cp, rcpt, processed); err != nil {
		return nil, err
	}
	rt.state = cp
	for _, e := range processed {
		if err := rt.reg.MarkProcessed(e.ID); err != nil {
			return nil, err
		}
	}
	return rcpt, nil
}

// ClosePool retires a pool. Authority only; custody stays in place for the
// recovery gate.
func (l *Ledger) ClosePool(id [pool.PoolIDSize]byte, caller []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rt, err := l.lookup(id)
	if err != nil {
		return err
	}
	cp := rt.state.Clone()
	if err := cp.Close(caller); err != nil {
		return err
	}
	if err := l.store.CommitPool(cp); err != nil {
		return err
	}
	rt.state = cp
	return nil
}

// RotateAuthority replaces the pool authority key. Only the current
// authority may rotate itself.
func (l *Ledger) RotateAuthority(id [pool.PoolIDSize]byte, caller, next []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rt, err := l.lookup(id)
	if err != nil {
		return err
	}
	cp := rt.state.Clone()
	if err := cp.RotateAuthority(caller, next); err != nil {
		return err
	}
	if err := l.store.CommitPool(cp); err != nil {
		return err
	}
	rt.state = cp
	return nil
}

// Broadcast hands a signed payout transaction to the chain service and
// returns its txid.
func (l *Ledger) Broadcast(ctx context.Context, rawTxHex string) (string, error) {
	return l.node.BroadcastTx(ctx, rawTxHex)
}

// Pool returns a snapshot of a pool's state.
func (l *Ledger) Pool(id [pool.PoolIDSize]byte) (*pool.State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rt, err := l.lookup(id)
	if err != nil {
		return nil, err
	}
	return rt.state.Clone(), nil
}

// CustodyBalance returns the pool's custodied balance.
func (l *Ledger) CustodyBalance(id [pool.PoolIDSize]byte) (uint64, error) {
	st, err := l.Pool(id)
	if err != nil {
		return 0, err
	}
	return st.Custody, nil
}

// RoundNumber returns the pool's current round.
func (l *Ledger) RoundNumber(id [pool.PoolIDSize]byte) (uint64, error) {
	st, err := l.Pool(id)
	if err != nil {
		return 0, err
	}
	return st.Round, nil
}

// PoolStatus returns the pool's lifecycle phase.
func (l *Ledger) PoolStatus(id [pool.PoolIDSize]byte) (pool.Status, error) {
	st, err := l.Pool(id)
	if err != nil {
		return 0, err
	}
	return st.Status, nil
}

// Entries returns a round's committed entries in insertion order.
func (l *Ledger) Entries(id [pool.PoolIDSize]byte, round uint64) ([]*register.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.lookup(id); err != nil {
		return nil, err
	}
	return l.store.GetEntries(id, round)
}

// Outcome returns the outcome recorded for a round.
func (l *Ledger) Outcome(id [pool.PoolIDSize]byte, round uint64) (*selector.Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.lookup(id); err != nil {
		return nil, err
	}
	return l.store.GetOutcome(id, round)
}

// LastReceipt returns the pool's most recent settlement receipt.
func (l *Ledger) LastReceipt(id [pool.PoolIDSize]byte) (*settle.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.lookup(id); err != nil {
		return nil, err
	}
	return l.store.LastReceipt(id)
}

// RecoveryLog returns the pool's recovery actions in commit order.
func (l *Ledger) RecoveryLog(id [pool.PoolIDSize]byte) ([]*recovery.Action, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.lookup(id); err != nil {
		return nil, err
	}
	return l.store.RecoveryLog(id)
}
