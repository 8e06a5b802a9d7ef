package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeDest(seed byte) [DestinationSize]byte {
	var d [DestinationSize]byte
	for i := range d {
		d[i] = seed
	}
	return d
}

func makeKey(seed byte) []byte {
	k := make([]byte, AuthorityKeySize)
	for i := range k {
		k[i] = seed
	}
	return k
}

func testConfig() Config {
	return Config{
		EntryFee:    10,
		FloorAmount: 10000,
		FeeSplit: []SplitShare{
			{Destination: makeDest(0xAA), Percent: 80},
			{Destination: makeDest(0xBB), Percent: 20},
		},
		Authority: makeKey(0x01),
	}
}

func testPool(t *testing.T) *State {
	t.Helper()
	st, err := New([PoolIDSize]byte{0x42}, testConfig())
	require.NoError(t, err)
	return st
}

// --- Config validation ---

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		err    error
	}{
		{"valid", func(*Config) {}, nil},
		{"zero fee", func(c *Config) { c.EntryFee = 0 }, ErrInvalidConfig},
		{"zero floor", func(c *Config) { c.FloorAmount = 0 }, ErrInvalidConfig},
		{"short authority", func(c *Config) { c.Authority = []byte{0x01} }, ErrInvalidConfig},
		{"bad oracle key", func(c *Config) { c.OraclePub = []byte{0x02} }, ErrInvalidConfig},
		{"empty split", func(c *Config) { c.FeeSplit = nil }, ErrInvalidConfig},
		{"split sums to 99", func(c *Config) { c.FeeSplit[1].Percent = 19 }, ErrInvalidConfig},
		{"split sums to 101", func(c *Config) { c.FeeSplit[1].Percent = 21 }, ErrInvalidConfig},
		{"zero percent share", func(c *Config) {
			c.FeeSplit = []SplitShare{
				{Destination: makeDest(0xAA), Percent: 100},
				{Destination: makeDest(0xBB), Percent: 0},
			}
		}, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(cfg)
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestNew_InitialState(t *testing.T) {
	st := testPool(t)
	assert.Equal(t, StatusActive, st.Status)
	assert.Zero(t, st.Custody)
	assert.Zero(t, st.Round)
	assert.Zero(t, st.NextEntryID)
	assert.False(t, st.HasOracle())
}

// --- Entry acceptance ---

func TestCheckAccept(t *testing.T) {
	st := testPool(t)

	require.NoError(t, st.CheckAccept(10))
	assert.ErrorIs(t, st.CheckAccept(9), ErrAmountMismatch)
	assert.ErrorIs(t, st.CheckAccept(11), ErrAmountMismatch)
	// Rejection leaves custody untouched.
	assert.Zero(t, st.Custody)

	require.NoError(t, st.BeginSelection(1, 100))
	assert.ErrorIs(t, st.CheckAccept(10), ErrPoolClosed)
}

func TestCreditEntry_SequentialIDs(t *testing.T) {
	st := testPool(t)
	assert.Equal(t, uint64(0), st.CreditEntry(10))
	assert.Equal(t, uint64(1), st.CreditEntry(10))
	assert.Equal(t, uint64(2), st.CreditEntry(10))
	assert.Equal(t, uint64(30), st.Custody)
}

// --- Lifecycle ---

func TestTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(StatusActive, StatusSelecting))
	assert.True(t, CanTransition(StatusActive, StatusClosed))
	assert.True(t, CanTransition(StatusSelecting, StatusSettling))
	assert.True(t, CanTransition(StatusSettling, StatusActive))
	assert.True(t, CanTransition(StatusSettling, StatusClosed))

	assert.False(t, CanTransition(StatusActive, StatusSettling))
	assert.False(t, CanTransition(StatusSelecting, StatusActive))
	assert.False(t, CanTransition(StatusSelecting, StatusClosed))
	assert.False(t, CanTransition(StatusSettling, StatusSelecting))
	assert.False(t, CanTransition(StatusClosed, StatusActive))
	assert.False(t, CanTransition(StatusClosed, StatusSelecting))
	assert.False(t, CanTransition(StatusClosed, StatusSettling))
}

func TestBeginSelection_NoEntries(t *testing.T) {
	st := testPool(t)
	err := st.BeginSelection(0, 100)
	assert.ErrorIs(t, err, ErrNoEntries)
	// Round continues: the failure is a no-op.
	assert.Equal(t, StatusActive, st.Status)

	// With the floor reached a zero-entry round may still select.
	st.Custody = st.FloorAmount
	require.NoError(t, st.BeginSelection(0, 100))
	assert.Equal(t, StatusSelecting, st.Status)
	assert.Equal(t, uint64(100), st.SelectionHeight)
}

func TestBeginSettlement_RoundMismatch(t *testing.T) {
	st := testPool(t)
	st.CreditEntry(10)
	require.NoError(t, st.BeginSelection(1, 50))

	assert.ErrorIs(t, st.BeginSettlement(st.Round+1), ErrOutcomeMismatch)
	assert.Equal(t, StatusSelecting, st.Status)

	require.NoError(t, st.BeginSettlement(st.Round))
	assert.Equal(t, StatusSettling, st.Status)
}

func TestBeginSettlement_RequiresSelecting(t *testing.T) {
	st := testPool(t)
	assert.ErrorIs(t, st.BeginSettlement(0), ErrInvalidTransition)
}

func TestDebit(t *testing.T) {
	st := testPool(t)
	st.Custody = 100

	require.NoError(t, st.Debit(60))
	assert.Equal(t, uint64(40), st.Custody)

	// Over-debit freezes the pool instead of silently correcting.
	err := st.Debit(41)
	assert.ErrorIs(t, err, ErrInsufficientCustody)
	assert.Equal(t, uint64(40), st.Custody)
	assert.Equal(t, StatusClosed, st.Status)
}

func TestRollNextRound(t *testing.T) {
	st := testPool(t)
	st.CreditEntry(10)
	require.NoError(t, st.BeginSelection(1, 7))
	require.NoError(t, st.BeginSettlement(0))
	require.NoError(t, st.Debit(4))

	require.NoError(t, st.RollNextRound())
	assert.Equal(t, StatusActive, st.Status)
	assert.Equal(t, uint64(1), st.Round)
	assert.Equal(t, uint64(6), st.Carry)
	assert.Equal(t, uint64(6), st.Custody)
	assert.Zero(t, st.SelectionHeight)
	// Entry IDs stay monotonic across rounds.
	assert.Equal(t, uint64(1), st.NextEntryID)
}

func TestClose(t *testing.T) {
	st := testPool(t)

	assert.ErrorIs(t, st.Close(makeKey(0x99)), ErrUnauthorized)
	assert.Equal(t, StatusActive, st.Status)

	require.NoError(t, st.Close(makeKey(0x01)))
	assert.Equal(t, StatusClosed, st.Status)

	// Closed is terminal.
	assert.ErrorIs(t, st.Close(makeKey(0x01)), ErrInvalidTransition)
}

func TestClose_NotWhileSelecting(t *testing.T) {
	st := testPool(t)
	st.CreditEntry(10)
	require.NoError(t, st.BeginSelection(1, 9))
	assert.ErrorIs(t, st.Close(makeKey(0x01)), ErrInvalidTransition)
}

func TestRotateAuthority(t *testing.T) {
	st := testPool(t)

	assert.ErrorIs(t, st.RotateAuthority(makeKey(0x99), makeKey(0x02)), ErrUnauthorized)
	assert.ErrorIs(t, st.RotateAuthority(makeKey(0x01), []byte{0x02}), ErrInvalidConfig)

	require.NoError(t, st.RotateAuthority(makeKey(0x01), makeKey(0x02)))
	assert.True(t, st.IsAuthority(makeKey(0x02)))
	assert.False(t, st.IsAuthority(makeKey(0x01)))
}

// --- Serialization ---

func TestSerialize_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*State)
	}{
		{"fresh", func(*State) {}},
		{"with oracle", func(st *State) { st.OraclePub = makeKey(0x07) }},
		{"mid round", func(st *State) {
			st.Custody = 12345
			st.Carry = 45
			st.Round = 9
			st.NextEntryID = 31
			st.SelectionHeight = 880001
			st.Status = StatusSelecting
			st.CreatedAt = 1726000000
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testPool(t)
			tt.mutate(st)

			data, err := Serialize(st)
			require.NoError(t, err)

			decoded, err := Deserialize(data)
			require.NoError(t, err)
			assert.Equal(t, st, decoded)
		})
	}
}

func TestDeserialize_TooShort(t *testing.T) {
	_, err := Deserialize([]byte{0x01, 0x02, 0x03})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
