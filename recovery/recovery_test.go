package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bountypool/libbounty-go/pool"
)

func makeKey(seed byte) []byte {
	k := make([]byte, pool.AuthorityKeySize)
	for i := range k {
		k[i] = seed
	}
	return k
}

func makeDest(seed byte) [pool.DestinationSize]byte {
	var d [pool.DestinationSize]byte
	for i := range d {
		d[i] = seed
	}
	return d
}

func testPool(t *testing.T, custody uint64) *pool.State {
	t.Helper()
	st, err := pool.New([pool.PoolIDSize]byte{0x42}, pool.Config{
		EntryFee:    10,
		FloorAmount: 100,
		FeeSplit:    []pool.SplitShare{{Destination: makeDest(0xAA), Percent: 100}},
		Authority:   makeKey(0x01),
	})
	require.NoError(t, err)
	st.Custody = custody
	return st
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name      string
		initiator []byte
		amount    uint64
		reason    ReasonCode
		err       error
	}{
		{"authority ok", makeKey(0x01), 50, ReasonStuckFunds, nil},
		{"full custody ok", makeKey(0x01), 100, ReasonPoolShutdown, nil},
		{"non-authority", makeKey(0x99), 1, ReasonStuckFunds, ErrUnauthorized},
		{"non-authority large", makeKey(0x99), 100, ReasonStuckFunds, ErrUnauthorized},
		{"short key", []byte{0x01}, 1, ReasonStuckFunds, ErrUnauthorized},
		{"empty reason", makeKey(0x01), 1, "", ErrEmptyReason},
		{"zero amount", makeKey(0x01), 0, ReasonStuckFunds, ErrAmountExceedsCustody},
		{"over custody", makeKey(0x01), 101, ReasonStuckFunds, ErrAmountExceedsCustody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testPool(t, 100)
			err := Authorize(st, tt.initiator, tt.amount, tt.reason)
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestApply(t *testing.T) {
	st := testPool(t, 100)
	st.Round = 4

	act, err := Apply(st, makeKey(0x01), 60, makeDest(0xDD), ReasonStuckFunds, 1726000000)
	require.NoError(t, err)

	assert.Equal(t, uint64(40), st.Custody)
	// Recovery never touches the round counter or status.
	assert.Equal(t, uint64(4), st.Round)
	assert.Equal(t, pool.StatusActive, st.Status)

	assert.Equal(t, st.PoolID, act.PoolID)
	assert.Equal(t, makeKey(0x01), act.Initiator)
	assert.Equal(t, ReasonStuckFunds, act.Reason)
	assert.Equal(t, uint64(60), act.Amount)
	assert.Equal(t, makeDest(0xDD), act.Destination)
	assert.Equal(t, int64(1726000000), act.Timestamp)
}

func TestApply_ClampsCarry(t *testing.T) {
	st := testPool(t, 100)
	st.Carry = 80

	_, err := Apply(st, makeKey(0x01), 50, makeDest(0xDD), ReasonAccountingFault, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), st.Custody)
	assert.Equal(t, uint64(50), st.Carry)
}

func TestApply_RejectedLeavesStateUntouched(t *testing.T) {
	st := testPool(t, 100)

	_, err := Apply(st, makeKey(0x99), 50, makeDest(0xDD), ReasonStuckFunds, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, uint64(100), st.Custody)
}

func TestApply_WorksOnClosedPool(t *testing.T) {
	st := testPool(t, 100)
	require.NoError(t, st.Close(makeKey(0x01)))

	_, err := Apply(st, makeKey(0x01), 100, makeDest(0xDD), ReasonPoolShutdown, 0)
	require.NoError(t, err)
	assert.Zero(t, st.Custody)
}
