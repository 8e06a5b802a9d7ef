package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/bountypool/libbounty-go/pool"
	"github.com/bountypool/libbounty-go/recovery"
	"github.com/bountypool/libbounty-go/register"
	"github.com/bountypool/libbounty-go/selector"
	"github.com/bountypool/libbounty-go/settle"
)

var (
	bucketPools      = []byte("pools")
	bucketEntries    = []byte("entries")
	bucketOutcomes   = []byte("outcomes")
	bucketReceipts   = []byte("receipts")
	bucketRecoveries = []byte("recoveries")
)

// BoltStore is the bbolt-backed LedgerStore. Every composite commit runs in
// a single bbolt Update, so partially-applied transitions cannot exist on
// disk. Pool and entry records are stored in their canonical big-endian
// binary form, so the on-disk bytes are the same records an auditor
// reconstructs; outcomes, receipts, and recovery actions use gob.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ LedgerStore = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath. The parent
// directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketPools, bucketEntries, bucketOutcomes, bucketReceipts, bucketRecoveries} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("store: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// roundKey encodes poolID || big-endian round for sorted per-pool scans.
func roundKey(id [pool.PoolIDSize]byte, round uint64) []byte {
	k := make([]byte, pool.PoolIDSize+8)
	copy(k, id[:])
	binary.BigEndian.PutUint64(k[pool.PoolIDSize:], round)
	return k
}

// entryKey encodes poolID || round || entry ID; big-endian keeps insertion
// order under cursor iteration.
func entryKey(id [pool.PoolIDSize]byte, round, entryID uint64) []byte {
	k := make([]byte, pool.PoolIDSize+16)
	copy(k, id[:])
	binary.BigEndian.PutUint64(k[pool.PoolIDSize:], round)
	binary.BigEndian.PutUint64(k[pool.PoolIDSize+8:], entryID)
	return k
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func putPoolRecord(tx *bbolt.Tx, st *pool.State) error {
	data, err := pool.Serialize(st)
	if err != nil {
		return fmt.Errorf("store: encode pool: %w", err)
	}
	return tx.Bucket(bucketPools).Put(st.PoolID[:], data)
}

func putEntryRecord(tx *bbolt.Tx, id [pool.PoolIDSize]byte, e *register.Entry) error {
	data, err := register.Serialize(e)
	if err != nil {
		return fmt.Errorf("store: encode entry: %w", err)
	}
	return tx.Bucket(bucketEntries).Put(entryKey(id, e.Round, e.ID), data)
}

// PutPool creates a pool record.
func (s *BoltStore) PutPool(st *pool.State) error {
	if st == nil {
		return fmt.Errorf("%w: pool state", ErrNilParam)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketPools).Get(st.PoolID[:]) != nil {
			return ErrDuplicatePool
		}
		return putPoolRecord(tx, st)
	})
}

// GetPool retrieves a pool record by ID.
func (s *BoltStore) GetPool(id [pool.PoolIDSize]byte) (*pool.State, error) {
	var st *pool.State
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketPools).Get(id[:])
		if data == nil {
			return ErrPoolNotFound
		}
		var err error
		if st, err = pool.Deserialize(data); err != nil {
			return fmt.Errorf("store: decode pool: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// ListPools returns all pool records.
func (s *BoltStore) ListPools() ([]*pool.State, error) {
	var pools []*pool.State
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPools).ForEach(func(_, v []byte) error {
			st, err := pool.Deserialize(v)
			if err != nil {
				return fmt.Errorf("store: decode pool in list: %w", err)
			}
			pools = append(pools, st)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return pools, nil
}

// CommitPool overwrites an existing pool record.
func (s *BoltStore) CommitPool(st *pool.State) error {
	if st == nil {
		return fmt.Errorf("%w: pool state", ErrNilParam)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketPools).Get(st.PoolID[:]) == nil {
			return ErrPoolNotFound
		}
		return putPoolRecord(tx, st)
	})
}

// CommitEntry stores the pool record and the accepted entry atomically.
func (s *BoltStore) CommitEntry(st *pool.State, e *register.Entry) error {
	if st == nil || e == nil {
		return fmt.Errorf("%w: pool state or entry", ErrNilParam)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketPools).Get(st.PoolID[:]) == nil {
			return ErrPoolNotFound
		}
		if err := putEntryRecord(tx, st.PoolID, e); err != nil {
			return err
		}
		return putPoolRecord(tx, st)
	})
}

// GetEntries returns a round's entries in insertion order.
func (s *BoltStore) GetEntries(id [pool.PoolIDSize]byte, round uint64) ([]*register.Entry, error) {
	var entries []*register.Entry
	prefix := roundKey(id, round)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketEntries).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			e, err := register.Deserialize(v)
			if err != nil {
				return fmt.Errorf("store: decode entry: %w", err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CommitOutcome stores the pool record and the round's outcome atomically.
// An existing outcome for the round is never replaced.
func (s *BoltStore) CommitOutcome(st *pool.State, out *selector.Outcome) error {
	if st == nil || out == nil {
		return fmt.Errorf("%w: pool state or outcome", ErrNilParam)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketPools).Get(st.PoolID[:]) == nil {
			return ErrPoolNotFound
		}
		key := roundKey(st.PoolID, out.Round)
		ob := tx.Bucket(bucketOutcomes)
		if ob.Get(key) != nil {
			return fmt.Errorf("%w: round %d", ErrDuplicateOutcome, out.Round)
		}
		data, err := encodeGob(out)
		if err != nil {
			return fmt.Errorf("store: encode outcome: %w", err)
		}
		if err := ob.Put(key, data); err != nil {
			return fmt.Errorf("store: put outcome: %w", err)
		}
		return putPoolRecord(tx, st)
	})
}

// GetOutcome retrieves the outcome recorded for a round.
func (s *BoltStore) GetOutcome(id [pool.PoolIDSize]byte, round uint64) (*selector.Outcome, error) {
	var out selector.Outcome
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketOutcomes).Get(roundKey(id, round))
		if data == nil {
			return fmt.Errorf("%w: round %d", ErrOutcomeNotFound, round)
		}
		if err := decodeGob(data, &out); err != nil {
			return fmt.Errorf("store: decode outcome: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CommitSettlement stores the rolled pool record, the receipt, and the
// processed entries atomically.
func (s *BoltStore) CommitSettlement(st *pool.State, rcpt *settle.Receipt, processed []*register.Entry) error {
	if st == nil || rcpt == nil {
		return fmt.Errorf("%w: pool state or receipt", ErrNilParam)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketPools).Get(st.PoolID[:]) == nil {
			return ErrPoolNotFound
		}
		data, err := encodeGob(rcpt)
		if err != nil {
			return fmt.Errorf("store: encode receipt: %w", err)
		}
		if err := tx.Bucket(bucketReceipts).Put(roundKey(st.PoolID, rcpt.Round), data); err != nil {
			return fmt.Errorf("store: put receipt: %w", err)
		}
		for _, e := range processed {
			if err := putEntryRecord(tx, st.PoolID, e); err != nil {
				return err
			}
		}
		return putPoolRecord(tx, st)
	})
}

// LastReceipt returns the most recent settlement receipt for a pool.
func (s *BoltStore) LastReceipt(id [pool.PoolIDSize]byte) (*settle.Receipt, error) {
	var rcpt settle.Receipt
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketReceipts).Cursor()
		// Receipts are keyed poolID || round; the last key in the pool's
		// range is its highest round.
		var last []byte
		prefix := id[:]
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			last = v
		}
		if last == nil {
			return ErrReceiptNotFound
		}
		if err := decodeGob(last, &rcpt); err != nil {
			return fmt.Errorf("store: decode receipt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rcpt, nil
}

// CommitRecovery stores the debited pool record and appends the action to
// the permanent log atomically.
func (s *BoltStore) CommitRecovery(st *pool.State, act *recovery.Action) error {
	if st == nil || act == nil {
		return fmt.Errorf("%w: pool state or action", ErrNilParam)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketPools).Get(st.PoolID[:]) == nil {
			return ErrPoolNotFound
		}
		rb := tx.Bucket(bucketRecoveries)
		seq, err := rb.NextSequence()
		if err != nil {
			return fmt.Errorf("store: recovery sequence: %w", err)
		}
		key := make([]byte, pool.PoolIDSize+8)
		copy(key, st.PoolID[:])
		binary.BigEndian.PutUint64(key[pool.PoolIDSize:], seq)

		data, err := encodeGob(act)
		if err != nil {
			return fmt.Errorf("store: encode recovery action: %w", err)
		}
		if err := rb.Put(key, data); err != nil {
			return fmt.Errorf("store: put recovery action: %w", err)
		}
		return putPoolRecord(tx, st)
	})
}

// RecoveryLog returns a pool's recovery actions in commit order.
func (s *BoltStore) RecoveryLog(id [pool.PoolIDSize]byte) ([]*recovery.Action, error) {
	var actions []*recovery.Action
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRecoveries).Cursor()
		prefix := id[:]
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var act recovery.Action
			if err := decodeGob(v, &act); err != nil {
				return fmt.Errorf("store: decode recovery action: %w", err)
			}
			actions = append(actions, &act)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return actions, nil
}
