package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bountypool/libbounty-go/pool"
	"github.com/bountypool/libbounty-go/recovery"
	"github.com/bountypool/libbounty-go/register"
	"github.com/bountypool/libbounty-go/selector"
	"github.com/bountypool/libbounty-go/settle"
)

// MemStore is an in-memory LedgerStore for tests and ephemeral pools.
type MemStore struct {
	mu         sync.RWMutex
	pools      map[[pool.PoolIDSize]byte]*pool.State
	entries    map[[pool.PoolIDSize]byte]map[uint64][]*register.Entry // round -> insertion order
	outcomes   map[[pool.PoolIDSize]byte]map[uint64]*selector.Outcome
	receipts   map[[pool.PoolIDSize]byte][]*settle.Receipt // commit order
	recoveries map[[pool.PoolIDSize]byte][]*recovery.Action
}

// Compile-time interface check.
var _ LedgerStore = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		pools:      make(map[[pool.PoolIDSize]byte]*pool.State),
		entries:    make(map[[pool.PoolIDSize]byte]map[uint64][]*register.Entry),
		outcomes:   make(map[[pool.PoolIDSize]byte]map[uint64]*selector.Outcome),
		receipts:   make(map[[pool.PoolIDSize]byte][]*settle.Receipt),
		recoveries: make(map[[pool.PoolIDSize]byte][]*recovery.Action),
	}
}

func clonePool(st *pool.State) *pool.State { return st.Clone() }

// PutPool creates a pool record.
func (s *MemStore) PutPool(st *pool.State) error {
	if st == nil {
		return fmt.Errorf("%w: pool state", ErrNilParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pools[st.PoolID]; exists {
		return ErrDuplicatePool
	}
	s.pools[st.PoolID] = clonePool(st)
	return nil
}

// GetPool retrieves a pool record by ID.
func (s *MemStore) GetPool(id [pool.PoolIDSize]byte) (*pool.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.pools[id]
	if !ok {
		return nil, ErrPoolNotFound
	}
	return clonePool(st), nil
}

// ListPools returns all pool records.
func (s *MemStore) ListPools() ([]*pool.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pools := make([]*pool.State, 0, len(s.pools))
	for _, st := range s.pools {
		pools = append(pools, clonePool(st))
	}
	sort.Slice(pools, func(i, j int) bool {
		return string(pools[i].PoolID[:]) < string(pools[j].PoolID[:])
	})
	return pools, nil
}

// CommitPool overwrites an existing pool record.
func (s *MemStore) CommitPool(st *pool.State) error {
	if st == nil {
		return fmt.Errorf("%w: pool state", ErrNilParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pools[st.PoolID]; !exists {
		return ErrPoolNotFound
	}
	s.pools[st.PoolID] = clonePool(st)
	return nil
}

// CommitEntry stores the pool record and the accepted entry atomically.
func (s *MemStore) CommitEntry(st *pool.State, e *register.Entry) error {
	if st == nil || e == nil {
		return fmt.Errorf("%w: pool state or entry", ErrNilParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pools[st.PoolID]; !exists {
		return ErrPoolNotFound
	}
	rounds, ok := s.entries[st.PoolID]
	if !ok {
		rounds = make(map[uint64][]*register.Entry)
		s.entries[st.PoolID] = rounds
	}
	rounds[e.Round] = append(rounds[e.Round], e.Clone())
	s.pools[st.PoolID] = clonePool(st)
	return nil
}

// GetEntries returns a round's entries in insertion order.
func (s *MemStore) GetEntries(id [pool.PoolIDSize]byte, round uint64) ([]*register.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []*register.Entry
	for _, e := range s.entries[id][round] {
		entries = append(entries, e.Clone())
	}
	return entries, nil
}

// CommitOutcome stores the pool record and the round's outcome atomically.
func (s *MemStore) CommitOutcome(st *pool.State, out *selector.Outcome) error {
	if st == nil || out == nil {
		return fmt.Errorf("%w: pool state or outcome", ErrNilParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pools[st.PoolID]; !exists {
		return ErrPoolNotFound
	}
	rounds, ok := s.outcomes[st.PoolID]
	if !ok {
		rounds = make(map[uint64]*selector.Outcome)
		s.outcomes[st.PoolID] = rounds
	}
	if _, exists := rounds[out.Round]; exists {
		return fmt.Errorf("%w: round %d", ErrDuplicateOutcome, out.Round)
	}
	cp := *out
	cp.SeedMaterial = append([]byte(nil), out.SeedMaterial...)
	rounds[out.Round] = &cp
	s.pools[st.PoolID] = clonePool(st)
	return nil
}

// GetOutcome retrieves the outcome recorded for a round.
func (s *MemStore) GetOutcome(id [pool.PoolIDSize]byte, round uint64) (*selector.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out, ok := s.outcomes[id][round]
	if !ok {
		return nil, fmt.Errorf("%w: round %d", ErrOutcomeNotFound, round)
	}
	cp := *out
	cp.SeedMaterial = append([]byte(nil), out.SeedMaterial...)
	return &cp, nil
}

// CommitSettlement stores the rolled pool record, the receipt, and the
// processed entries atomically.
func (s *MemStore) CommitSettlement(st *pool.State, rcpt *settle.Receipt, processed []*register.Entry) error {
	if st == nil || rcpt == nil {
		return fmt.Errorf("%w: pool state or receipt", ErrNilParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pools[st.PoolID]; !exists {
		return ErrPoolNotFound
	}
	cp := *rcpt
	cp.OutcomeSeed = append([]byte(nil), rcpt.OutcomeSeed...)
	cp.Transfers = append([]settle.Transfer(nil), rcpt.Transfers...)
	s.receipts[st.PoolID] = append(s.receipts[st.PoolID], &cp)

	stored := s.entries[st.PoolID][rcpt.Round]
	for _, e := range processed {
		for i, se := range stored {
			if se.ID == e.ID {
				stored[i] = e.Clone()
				break
			}
		}
	}
	s.pools[st.PoolID] = clonePool(st)
	return nil
}

// LastReceipt returns the most recent settlement receipt for a pool.
func (s *MemStore) LastReceipt(id [pool.PoolIDSize]byte) (*settle.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	receipts := s.receipts[id]
	if len(receipts) == 0 {
		return nil, ErrReceiptNotFound
	}
	last := receipts[len(receipts)-1]
	cp := *last
	cp.OutcomeSeed = append([]byte(nil), last.OutcomeSeed...)
	cp.Transfers = append([]settle.Transfer(nil), last.Transfers...)
	return &cp, nil
}

// CommitRecovery stores the debited pool record and appends the action to
// the permanent log atomically.
func (s *MemStore) CommitRecovery(st *pool.State, act *recovery.Action) error {
	if st == nil || act == nil {
		return fmt.Errorf("%w: pool state or action", ErrNilParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pools[st.PoolID]; !exists {
		return ErrPoolNotFound
	}
	cp := *act
	cp.Initiator = append([]byte(nil), act.Initiator...)
	s.recoveries[st.PoolID] = append(s.recoveries[st.PoolID], &cp)
	s.pools[st.PoolID] = clonePool(st)
	return nil
}

// RecoveryLog returns a pool's recovery actions in commit order.
func (s *MemStore) RecoveryLog(id [pool.PoolIDSize]byte) ([]*recovery.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actions := make([]*recovery.Action, 0, len(s.recoveries[id]))
	for _, act := range s.recoveries[id] {
		cp := *act
		cp.Initiator = append([]byte(nil), act.Initiator...)
		actions = append(actions, &cp)
	}
	return actions, nil
}
