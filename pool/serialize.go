package pool

import (
	"encoding/binary"
	"fmt"
)

// Binary pool record layout (big-endian):
//
//	pool_id(32) || authority(33) || oracle_flag(1) || [oracle(33)] ||
//	entry_fee(8) || floor(8) || custody(8) || carry(8) || round(8) ||
//	next_entry_id(8) || selection_height(8) || created_at(8) || status(1) ||
//	num_splits(1) || num_splits * (destination(20) || percent(1))
const (
	recordFixedSize = PoolIDSize + AuthorityKeySize + 1 + 8*8 + 1 + 1
	splitEntrySize  = DestinationSize + 1
)

// Serialize encodes the pool state to its binary record format.
func Serialize(st *State) ([]byte, error) {
	if len(st.Authority) != AuthorityKeySize {
		return nil, fmt.Errorf("%w: authority key must be %d bytes", ErrInvalidConfig, AuthorityKeySize)
	}
	size := recordFixedSize + splitEntrySize*len(st.FeeSplit)
	if st.HasOracle() {
		size += AuthorityKeySize
	}
	buf := make([]byte, 0, size)

	buf = append(buf, st.PoolID[:]...)
	buf = append(buf, st.Authority...)
	if st.HasOracle() {
		buf = append(buf, 1)
		buf = append(buf, st.OraclePub...)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.BigEndian.AppendUint64(buf, st.EntryFee)
	buf = binary.BigEndian.AppendUint64(buf, st.FloorAmount)
	buf = binary.BigEndian.AppendUint64(buf, st.Custody)
	buf = binary.BigEndian.AppendUint64(buf, st.Carry)
	buf = binary.BigEndian.AppendUint64(buf, st.Round)
	buf = binary.BigEndian.AppendUint64(buf, st.NextEntryID)
	buf = binary.BigEndian.AppendUint64(buf, st.SelectionHeight)
	buf = binary.BigEndian.AppendUint64(buf, uint64(st.CreatedAt))
	buf = append(buf, byte(st.Status))
	buf = append(buf, byte(len(st.FeeSplit)))
	for _, s := range st.FeeSplit {
		buf = append(buf, s.Destination[:]...)
		buf = append(buf, s.Percent)
	}
	return buf, nil
}

// Deserialize decodes a binary pool record.
func Deserialize(data []byte) (*State, error) {
	if len(data) < recordFixedSize {
		return nil, fmt.Errorf("%w: record too short (%d bytes)", ErrInvalidConfig, len(data))
	}
	st := &State{}
	off := 0

	copy(st.PoolID[:], data[off:off+PoolIDSize])
	off += PoolIDSize
	st.Authority = append([]byte(nil), data[off:off+AuthorityKeySize]...)
	off += AuthorityKeySize

	hasOracle := data[off] == 1
	off++
	if hasOracle {
		if len(data) < off+AuthorityKeySize {
			return nil, fmt.Errorf("%w: truncated oracle key", ErrInvalidConfig)
		}
		st.OraclePub = append([]byte(nil), data[off:off+AuthorityKeySize]...)
		off += AuthorityKeySize
	}

	if len(data) < off+8*8+2 {
		return nil, fmt.Errorf("%w: truncated record body", ErrInvalidConfig)
	}
	st.EntryFee = binary.BigEndian.Uint64(data[off:])
	st.FloorAmount = binary.BigEndian.Uint64(data[off+8:])
	st.Custody = binary.BigEndian.Uint64(data[off+16:])
	st.Carry = binary.BigEndian.Uint64(data[off+24:])
	st.Round = binary.BigEndian.Uint64(data[off+32:])
	st.NextEntryID = binary.BigEndian.Uint64(data[off+40:])
	st.SelectionHeight = binary.BigEndian.Uint64(data[off+48:])
	st.CreatedAt = int64(binary.BigEndian.Uint64(data[off+56:]))
	off += 64

	st.Status = Status(data[off])
	off++
	numSplits := int(data[off])
	off++

	if len(data) < off+numSplits*splitEntrySize {
		return nil, fmt.Errorf("%w: expected %d split entries, record truncated", ErrInvalidConfig, numSplits)
	}
	st.FeeSplit = make([]SplitShare, numSplits)
	for i := 0; i < numSplits; i++ {
		copy(st.FeeSplit[i].Destination[:], data[off:off+DestinationSize])
		st.FeeSplit[i].Percent = data[off+DestinationSize]
		off += splitEntrySize
	}
	return st, nil
}
