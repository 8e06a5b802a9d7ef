package bounty

import (
	"fmt"

	"github.com/bountypool/libbounty-go/pool"
	"github.com/bountypool/libbounty-go/recovery"
)

// Gate is the recovery entry point. It is deliberately a separate type
// from Ledger: recovery bypasses the round lifecycle, and holding a Gate
// is the only way to move custody outside settlement.
type Gate struct {
	ledger *Ledger
}

// NewGate opens the recovery gate over a ledger.
func NewGate(l *Ledger) (*Gate, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: ledger", ErrNilParam)
	}
	return &Gate{ledger: l}, nil
}

// Recover extracts funds from a pool's custody outside the normal
// settlement path. Only the pool authority may recover, a reason code is
// mandatory, and the action is appended to the pool's permanent recovery
// log. Works on closed pools; that is the gate's main purpose.
func (g *Gate) Recover(id [pool.PoolIDSize]byte, initiator []byte, amount uint64, destination [pool.DestinationSize]byte, reason recovery.ReasonCode) (*recovery.Action, error) {
	l := g.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	rt, err := l.lookup(id)
	if err != nil {
		return nil, err
	}
	cp := rt.state.Clone()
	act, err := recovery.Apply(cp, initiator, amount, destination, reason, l.now())
	if err != nil {
		return nil, err
	}
	if err := l.store.CommitRecovery(cp, act); err != nil {
		return nil, err
	}
	rt.state = cp
	return act, nil
}
