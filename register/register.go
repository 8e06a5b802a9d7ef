package register

import (
	"fmt"
	"iter"
	"sync"
)

// Register is the append-only sequence of accepted entries, keyed by
// (round, entry ID).
type Register interface {
	// Append records an entry. Fails with ErrDuplicateEntry if the ID is
	// already present.
	Append(e *Entry) error

	// EntriesForRound yields the round's entries in insertion order.
	// The sequence is finite and restartable.
	EntriesForRound(round uint64) iter.Seq[*Entry]

	// CountForRound returns the number of entries recorded for a round.
	CountForRound(round uint64) int

	// MarkProcessed flips an entry's Processed flag. Idempotent; fails with
	// ErrUnknownEntry if the ID is not recorded.
	MarkProcessed(entryID uint64) error
}

// MemRegister is an in-memory Register. The orchestration layer persists
// entries through the store; MemRegister is the live working set and the
// test implementation.
type MemRegister struct {
	mu      sync.RWMutex
	byID    map[uint64]*Entry
	byRound map[uint64][]*Entry // insertion order per round
}

// Compile-time interface check.
var _ Register = (*MemRegister)(nil)

// NewMemRegister creates an empty in-memory register.
func NewMemRegister() *MemRegister {
	return &MemRegister{
		byID:    make(map[uint64]*Entry),
		byRound: make(map[uint64][]*Entry),
	}
}

// Append records an entry.
func (r *MemRegister) Append(e *Entry) error {
	if e == nil {
		return ErrNilEntry
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[e.ID]; exists {
		return fmt.Errorf("%w: id %d", ErrDuplicateEntry, e.ID)
	}
	r.byID[e.ID] = e
	r.byRound[e.Round] = append(r.byRound[e.Round], e)
	return nil
}

// EntriesForRound yields the round's entries in insertion order.
func (r *MemRegister) EntriesForRound(round uint64) iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		r.mu.RLock()
		entries := make([]*Entry, len(r.byRound[round]))
		copy(entries, r.byRound[round])
		r.mu.RUnlock()

		for _, e := range entries {
			if !yield(e) {
				return
			}
		}
	}
}

// CountForRound returns the number of entries recorded for a round.
func (r *MemRegister) CountForRound(round uint64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byRound[round])
}

// Discard removes an entry whose durable commit failed. It exists so the
// orchestration layer can roll an append back and keep the working set in
// step with the store; committed entries are never discarded.
func (r *MemRegister) Discard(entryID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[entryID]
	if !ok {
		return
	}
	delete(r.byID, entryID)
	entries := r.byRound[e.Round]
	for i, cur := range entries {
		if cur.ID == entryID {
			r.byRound[e.Round] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
}

// MarkProcessed flips an entry's Processed flag.
func (r *MemRegister) MarkProcessed(entryID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[entryID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownEntry, entryID)
	}
	e.Processed = true
	return nil
}

// Collect materializes a round's entries as a slice in insertion order.
func Collect(r Register, round uint64) []*Entry {
	var entries []*Entry
	for e := range r.EntriesForRound(round) {
		entries = append(entries, e)
	}
	return entries
}
