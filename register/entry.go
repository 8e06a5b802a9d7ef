// Package register implements the append-only entry register for bounty
// rounds. Entries are immutable once recorded; only the Processed flag may
// flip, exactly once, from false to true. Insertion order is semantically
// meaningful: it fixes the selection index of every entry.
package register

import (
	"encoding/binary"
	"fmt"
)

// PayerSize is the length of a payer identity (P2PKH hash).
const PayerSize = 20

// Entry is one accepted, fee-paying participation record.
// Payment fields are frozen at acceptance time.
type Entry struct {
	ID           uint64          // sequential per pool
	Round        uint64          // the round this entry belongs to, never changes
	Payer        [PayerSize]byte // paying wallet identity
	AmountPaid   uint64          // smallest unit, equals the pool entry fee
	Contribution []uint64        // per-destination amounts, frozen copy of the fee split applied to AmountPaid
	RecordedAt   int64           // unix seconds, audit ordering
	Processed    bool            // set exactly once by settlement or round rollover
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Contribution = append([]uint64(nil), e.Contribution...)
	return &c
}

// Binary entry record layout (big-endian):
//
//	id(8) || round(8) || payer(20) || amount(8) || recorded_at(8) ||
//	processed(1) || num_contrib(1) || num_contrib * amount(8)
const entryFixedSize = 8 + 8 + PayerSize + 8 + 8 + 1 + 1

// Serialize encodes the entry to its binary record format.
func Serialize(e *Entry) ([]byte, error) {
	if e == nil {
		return nil, ErrNilEntry
	}
	buf := make([]byte, 0, entryFixedSize+8*len(e.Contribution))
	buf = binary.BigEndian.AppendUint64(buf, e.ID)
	buf = binary.BigEndian.AppendUint64(buf, e.Round)
	buf = append(buf, e.Payer[:]...)
	buf = binary.BigEndian.AppendUint64(buf, e.AmountPaid)
	buf = binary.BigEndian.AppendUint64(buf, uint64(e.RecordedAt))
	if e.Processed {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = append(buf, byte(len(e.Contribution)))
	for _, c := range e.Contribution {
		buf = binary.BigEndian.AppendUint64(buf, c)
	}
	return buf, nil
}

// Deserialize decodes a binary entry record.
func Deserialize(data []byte) (*Entry, error) {
	if len(data) < entryFixedSize {
		return nil, fmt.Errorf("%w: too short (%d bytes)", ErrInvalidEntryData, len(data))
	}
	e := &Entry{}
	off := 0
	e.ID = binary.BigEndian.Uint64(data[off:])
	off += 8
	e.Round = binary.BigEndian.Uint64(data[off:])
	off += 8
	copy(e.Payer[:], data[off:off+PayerSize])
	off += PayerSize
	e.AmountPaid = binary.BigEndian.Uint64(data[off:])
	off += 8
	e.RecordedAt = int64(binary.BigEndian.Uint64(data[off:]))
	off += 8
	e.Processed = data[off] == 1
	off++
	n := int(data[off])
	off++
	if len(data) < off+8*n {
		return nil, fmt.Errorf("%w: expected %d contribution amounts, record truncated", ErrInvalidEntryData, n)
	}
	e.Contribution = make([]uint64, n)
	for i := 0; i < n; i++ {
		e.Contribution[i] = binary.BigEndian.Uint64(data[off:])
		off += 8
	}
	return e, nil
}
