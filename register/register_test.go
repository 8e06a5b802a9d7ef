package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePayer(seed byte) [PayerSize]byte {
	var p [PayerSize]byte
	for i := range p {
		p[i] = seed
	}
	return p
}

func makeEntry(id, round uint64) *Entry {
	return &Entry{
		ID:           id,
		Round:        round,
		Payer:        makePayer(byte(id)),
		AmountPaid:   10,
		Contribution: []uint64{8, 2},
		RecordedAt:   1726000000 + int64(id),
	}
}

func TestAppend_Duplicate(t *testing.T) {
	r := NewMemRegister()
	require.NoError(t, r.Append(makeEntry(0, 0)))

	err := r.Append(makeEntry(0, 0))
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	// Same ID in a later round is still a duplicate: IDs are per pool.
	err = r.Append(makeEntry(0, 1))
	assert.ErrorIs(t, err, ErrDuplicateEntry)
}

func TestAppend_Nil(t *testing.T) {
	r := NewMemRegister()
	assert.ErrorIs(t, r.Append(nil), ErrNilEntry)
}

func TestEntriesForRound_InsertionOrder(t *testing.T) {
	r := NewMemRegister()
	for id := uint64(0); id < 5; id++ {
		require.NoError(t, r.Append(makeEntry(id, 0)))
	}
	require.NoError(t, r.Append(makeEntry(5, 1)))

	got := Collect(r, 0)
	require.Len(t, got, 5)
	for i, e := range got {
		assert.Equal(t, uint64(i), e.ID)
	}

	assert.Equal(t, 5, r.CountForRound(0))
	assert.Equal(t, 1, r.CountForRound(1))
	assert.Zero(t, r.CountForRound(2))
}

func TestEntriesForRound_Restartable(t *testing.T) {
	r := NewMemRegister()
	for id := uint64(0); id < 3; id++ {
		require.NoError(t, r.Append(makeEntry(id, 0)))
	}

	seq := r.EntriesForRound(0)

	// Early break, then a full second pass over the same sequence.
	var first *Entry
	for e := range seq {
		first = e
		break
	}
	require.NotNil(t, first)
	assert.Equal(t, uint64(0), first.ID)

	assert.Len(t, Collect(r, 0), 3)
}

func TestMarkProcessed(t *testing.T) {
	r := NewMemRegister()
	require.NoError(t, r.Append(makeEntry(7, 0)))

	require.NoError(t, r.MarkProcessed(7))
	// Idempotent.
	require.NoError(t, r.MarkProcessed(7))
	assert.True(t, Collect(r, 0)[0].Processed)

	assert.ErrorIs(t, r.MarkProcessed(99), ErrUnknownEntry)
}

func TestDiscard(t *testing.T) {
	r := NewMemRegister()
	require.NoError(t, r.Append(makeEntry(0, 0)))
	require.NoError(t, r.Append(makeEntry(1, 0)))

	r.Discard(1)
	assert.Equal(t, 1, r.CountForRound(0))
	assert.Equal(t, uint64(0), Collect(r, 0)[0].ID)

	// The discarded ID is free again.
	require.NoError(t, r.Append(makeEntry(1, 0)))
	assert.Equal(t, 2, r.CountForRound(0))

	// Unknown IDs are a no-op.
	r.Discard(99)
	assert.Equal(t, 2, r.CountForRound(0))
}

func TestEntrySerialize_RoundTrip(t *testing.T) {
	e := makeEntry(12, 3)
	e.Processed = true

	data, err := Serialize(e)
	require.NoError(t, err)

	decoded, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, e, decoded)
}

func TestEntryDeserialize_Truncated(t *testing.T) {
	e := makeEntry(1, 0)
	data, err := Serialize(e)
	require.NoError(t, err)

	_, err = Deserialize(data[:len(data)-4])
	assert.ErrorIs(t, err, ErrInvalidEntryData)

	_, err = Deserialize([]byte{0x01})
	assert.ErrorIs(t, err, ErrInvalidEntryData)
}
