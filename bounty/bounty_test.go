package bounty

import (
	"context"
	"errors"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bountypool/libbounty-go/chain"
	"github.com/bountypool/libbounty-go/pool"
	"github.com/bountypool/libbounty-go/recovery"
	"github.com/bountypool/libbounty-go/register"
	"github.com/bountypool/libbounty-go/selector"
	"github.com/bountypool/libbounty-go/store"
)

var (
	authorityKey = fill33(0x01)
	nextKey      = fill33(0x02)
)

func fill33(b byte) []byte {
	k := make([]byte, pool.AuthorityKeySize)
	for i := range k {
		k[i] = b
	}
	return k
}

func dest(b byte) [pool.DestinationSize]byte {
	var d [pool.DestinationSize]byte
	for i := range d {
		d[i] = b
	}
	return d
}

func poolID(b byte) [pool.PoolIDSize]byte {
	return [pool.PoolIDSize]byte{b}
}

func baseConfig() pool.Config {
	return pool.Config{
		EntryFee:    10,
		FloorAmount: 10000,
		FeeSplit: []pool.SplitShare{
			{Destination: dest(0xAA), Percent: 80},
			{Destination: dest(0xBB), Percent: 20},
		},
		Authority: authorityKey,
	}
}

// testNode is a chain whose tip the test can advance.
func testNode(tip *uint64) *chain.MockService {
	return &chain.MockService{
		GetBestBlockHeightFn: func(context.Context) (uint64, error) { return *tip, nil },
		GetBlockHashFn: func(_ context.Context, height uint64) (*chainhash.Hash, error) {
			var b [chainhash.HashSize]byte
			for i := range b {
				b[i] = byte(height)
			}
			return chainhash.NewHash(b[:])
		},
		BroadcastTxFn: func(_ context.Context, _ string) (string, error) {
			return "txid", nil
		},
	}
}

func openLedger(t *testing.T, tip *uint64) *Ledger {
	t.Helper()
	l, err := Open(store.NewMemStore(), testNode(tip))
	require.NoError(t, err)
	l.now = func() int64 { return 1726000000 }
	return l
}

func TestLifecycle_WinnerMode(t *testing.T) {
	ctx := context.Background()
	tip := uint64(100)
	l := openLedger(t, &tip)
	id := poolID(0x01)

	_, err := l.CreatePool(id, baseConfig())
	require.NoError(t, err)

	for i := byte(1); i <= 3; i++ {
		e, err := l.AcceptEntry(id, dest(i), 10)
		require.NoError(t, err)
		assert.Equal(t, uint64(i-1), e.ID)
		assert.Equal(t, []uint64{8, 2}, e.Contribution)
	}
	custody, err := l.CustodyBalance(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), custody)

	require.NoError(t, l.BeginSelection(ctx, id))
	status, err := l.PoolStatus(id)
	require.NoError(t, err)
	assert.Equal(t, pool.StatusSelecting, status)

	// The beacon block at height 101 does not exist yet.
	_, err = l.ComputeOutcome(ctx, id)
	assert.ErrorIs(t, err, chain.ErrBeaconNotFinal)

	tip = 101
	out, err := l.ComputeOutcome(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, selector.ModeWinner, out.Mode)
	assert.Less(t, out.WinnerEntryID, uint64(3))
	assert.Equal(t, uint64(30), out.PayoutAmount)

	// Outcomes are single-use.
	_, err = l.ComputeOutcome(ctx, id)
	assert.ErrorIs(t, err, selector.ErrOutcomeAlreadyComputed)

	require.NoError(t, l.BeginSettlement(id))
	rcpt, err := l.Settle(id)
	require.NoError(t, err)

	// Full pot, split 80/20 with the remainder to the first destination.
	require.Len(t, rcpt.Transfers, 2)
	assert.Equal(t, uint64(24), rcpt.Transfers[0].Amount)
	assert.Equal(t, uint64(6), rcpt.Transfers[1].Amount)
	assert.Equal(t, uint64(30), rcpt.TotalPaid)
	assert.Equal(t, uint64(0), rcpt.Remainder)

	st, err := l.Pool(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), st.Round)
	assert.Equal(t, pool.StatusActive, st.Status)
	assert.Equal(t, uint64(0), st.Custody)

	entries, err := l.Entries(id, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.True(t, e.Processed)
	}

	// The next round starts from the same entry ID sequence.
	e, err := l.AcceptEntry(id, dest(0x09), 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), e.ID)
	assert.Equal(t, uint64(1), e.Round)
}

func TestLifecycle_DecisionMode(t *testing.T) {
	ctx := context.Background()
	tip := uint64(50)
	l := openLedger(t, &tip)
	id := poolID(0x02)

	oraclePriv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	cfg := baseConfig()
	cfg.OraclePub = oraclePriv.PubKey().Compressed()
	_, err = l.CreatePool(id, cfg)
	require.NoError(t, err)

	_, err = l.AcceptEntry(id, dest(0x01), 10)
	require.NoError(t, err)
	_, err = l.AcceptEntry(id, dest(0x02), 10)
	require.NoError(t, err)

	require.NoError(t, l.BeginSelection(ctx, id))

	d := &selector.Decision{PoolID: id, Round: 0, Pass: true, PayoutAmount: 15}
	require.NoError(t, selector.SignDecision(d, oraclePriv))

	out, err := l.SubmitDecision(id, d)
	require.NoError(t, err)
	assert.Equal(t, selector.ModeDecision, out.Mode)
	assert.True(t, out.Pass)

	require.NoError(t, l.BeginSettlement(id))
	rcpt, err := l.Settle(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(15), rcpt.TotalPaid)
	assert.Equal(t, uint64(5), rcpt.Remainder)

	// The unpaid remainder is carried into the next round.
	st, err := l.Pool(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), st.Custody)
	assert.Equal(t, uint64(5), st.Carry)
	assert.Equal(t, uint64(1), st.Round)
}

func TestSubmitDecision_Failed(t *testing.T) {
	ctx := context.Background()
	tip := uint64(50)
	l := openLedger(t, &tip)
	id := poolID(0x03)

	oraclePriv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	cfg := baseConfig()
	cfg.OraclePub = oraclePriv.PubKey().Compressed()
	_, err = l.CreatePool(id, cfg)
	require.NoError(t, err)

	_, err = l.AcceptEntry(id, dest(0x01), 10)
	require.NoError(t, err)
	require.NoError(t, l.BeginSelection(ctx, id))

	d := &selector.Decision{PoolID: id, Round: 0, Pass: false}
	require.NoError(t, selector.SignDecision(d, oraclePriv))
	out, err := l.SubmitDecision(id, d)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), out.PayoutAmount)

	require.NoError(t, l.BeginSettlement(id))
	rcpt, err := l.Settle(id)
	require.NoError(t, err)
	assert.Empty(t, rcpt.Transfers)
	assert.Equal(t, uint64(0), rcpt.TotalPaid)

	// Nothing left custody; the whole pot rolls over.
	custody, err := l.CustodyBalance(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), custody)
}

func TestSubmitDecision_Duplicate(t *testing.T) {
	ctx := context.Background()
	tip := uint64(50)
	l := openLedger(t, &tip)
	id := poolID(0x0D)

	oraclePriv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	cfg := baseConfig()
	cfg.OraclePub = oraclePriv.PubKey().Compressed()
	_, err = l.CreatePool(id, cfg)
	require.NoError(t, err)

	_, err = l.AcceptEntry(id, dest(0x01), 10)
	require.NoError(t, err)
	require.NoError(t, l.BeginSelection(ctx, id))

	d := &selector.Decision{PoolID: id, Round: 0, Pass: true, PayoutAmount: 5}
	require.NoError(t, selector.SignDecision(d, oraclePriv))
	first, err := l.SubmitDecision(id, d)
	require.NoError(t, err)

	// A decision signal already consumed for the round is rejected as a
	// duplicate, even when re-signed with a different verdict.
	again := &selector.Decision{PoolID: id, Round: 0, Pass: false}
	require.NoError(t, selector.SignDecision(again, oraclePriv))
	_, err = l.SubmitDecision(id, again)
	assert.ErrorIs(t, err, selector.ErrDuplicateOutcome)

	// The recorded outcome is the first one.
	out, err := l.Outcome(id, 0)
	require.NoError(t, err)
	assert.Equal(t, first, out)
}

func TestSubmitDecision_Rejections(t *testing.T) {
	ctx := context.Background()
	tip := uint64(50)
	l := openLedger(t, &tip)

	oraclePriv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	strangerPriv, err := ec.NewPrivateKey()
	require.NoError(t, err)

	// Pool without an oracle rejects decisions outright.
	plain := poolID(0x04)
	_, err = l.CreatePool(plain, baseConfig())
	require.NoError(t, err)
	_, err = l.AcceptEntry(plain, dest(0x01), 10)
	require.NoError(t, err)
	require.NoError(t, l.BeginSelection(ctx, plain))

	d := &selector.Decision{PoolID: plain, Round: 0, Pass: false}
	require.NoError(t, selector.SignDecision(d, oraclePriv))
	_, err = l.SubmitDecision(plain, d)
	assert.ErrorIs(t, err, selector.ErrNoOracle)

	id := poolID(0x05)
	cfg := baseConfig()
	cfg.OraclePub = oraclePriv.PubKey().Compressed()
	_, err = l.CreatePool(id, cfg)
	require.NoError(t, err)
	_, err = l.AcceptEntry(id, dest(0x01), 10)
	require.NoError(t, err)

	// Decisions only land after the entry window closes.
	d = &selector.Decision{PoolID: id, Round: 0, Pass: false}
	require.NoError(t, selector.SignDecision(d, oraclePriv))
	_, err = l.SubmitDecision(id, d)
	assert.ErrorIs(t, err, pool.ErrInvalidTransition)

	require.NoError(t, l.BeginSelection(ctx, id))

	// Wrong round.
	wrong := &selector.Decision{PoolID: id, Round: 7, Pass: false}
	require.NoError(t, selector.SignDecision(wrong, oraclePriv))
	_, err = l.SubmitDecision(id, wrong)
	assert.ErrorIs(t, err, pool.ErrOutcomeMismatch)

	// Wrong signer.
	forged := &selector.Decision{PoolID: id, Round: 0, Pass: false}
	require.NoError(t, selector.SignDecision(forged, strangerPriv))
	_, err = l.SubmitDecision(id, forged)
	assert.ErrorIs(t, err, selector.ErrBadDecisionSignature)

	// Payout above custody.
	rich := &selector.Decision{PoolID: id, Round: 0, Pass: true, PayoutAmount: 1000}
	require.NoError(t, selector.SignDecision(rich, oraclePriv))
	_, err = l.SubmitDecision(id, rich)
	assert.ErrorIs(t, err, pool.ErrInsufficientCustody)
}

func TestComputeOutcome_ConfirmationDepth(t *testing.T) {
	ctx := context.Background()
	tip := uint64(100)
	l := openLedger(t, &tip)
	l.SetBeaconConfirmations(6)
	id := poolID(0x0C)

	_, err := l.CreatePool(id, baseConfig())
	require.NoError(t, err)
	_, err = l.AcceptEntry(id, dest(0x01), 10)
	require.NoError(t, err)
	require.NoError(t, l.BeginSelection(ctx, id))

	// The beacon block at 101 exists but is not yet buried six deep.
	tip = 105
	_, err = l.ComputeOutcome(ctx, id)
	assert.ErrorIs(t, err, chain.ErrBeaconNotFinal)

	tip = 106
	out, err := l.ComputeOutcome(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), out.WinnerEntryID)
}

func TestAcceptEntry_Rejections(t *testing.T) {
	ctx := context.Background()
	tip := uint64(50)
	l := openLedger(t, &tip)
	id := poolID(0x06)

	_, err := l.AcceptEntry(id, dest(0x01), 10)
	assert.ErrorIs(t, err, ErrUnknownPool)

	_, err = l.CreatePool(id, baseConfig())
	require.NoError(t, err)

	_, err = l.AcceptEntry(id, dest(0x01), 9)
	assert.ErrorIs(t, err, pool.ErrAmountMismatch)

	_, err = l.AcceptEntry(id, dest(0x01), 10)
	require.NoError(t, err)
	require.NoError(t, l.BeginSelection(ctx, id))

	_, err = l.AcceptEntry(id, dest(0x02), 10)
	assert.ErrorIs(t, err, pool.ErrPoolClosed)
}

// faultStore wraps a LedgerStore and fails entry commits on demand.
type faultStore struct {
	store.LedgerStore
	entryErr error
}

func (s *faultStore) CommitEntry(st *pool.State, e *register.Entry) error {
	if s.entryErr != nil {
		return s.entryErr
	}
	return s.LedgerStore.CommitEntry(st, e)
}

func TestAcceptEntry_FailedCommitLeavesNoResidue(t *testing.T) {
	ctx := context.Background()
	tip := uint64(100)
	fs := &faultStore{LedgerStore: store.NewMemStore()}
	l, err := Open(fs, testNode(&tip))
	require.NoError(t, err)
	l.now = func() int64 { return 1726000000 }
	id := poolID(0x0E)

	_, err = l.CreatePool(id, baseConfig())
	require.NoError(t, err)

	fs.entryErr = errors.New("disk full")
	_, err = l.AcceptEntry(id, dest(0x01), 10)
	require.Error(t, err)

	// The failed commit left no trace in custody, the store, or the
	// working set.
	custody, err := l.CustodyBalance(id)
	require.NoError(t, err)
	assert.Zero(t, custody)
	entries, err := l.Entries(id, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	fs.entryErr = nil
	e, err := l.AcceptEntry(id, dest(0x01), 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), e.ID)

	// Selection sees exactly the committed entry.
	require.NoError(t, l.BeginSelection(ctx, id))
	tip = 101
	out, err := l.ComputeOutcome(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), out.WinnerEntryID)
	assert.Equal(t, uint64(10), out.PayoutAmount)
}

func TestBeginSettlement_RequiresOutcome(t *testing.T) {
	ctx := context.Background()
	tip := uint64(50)
	l := openLedger(t, &tip)
	id := poolID(0x07)

	_, err := l.CreatePool(id, baseConfig())
	require.NoError(t, err)
	_, err = l.AcceptEntry(id, dest(0x01), 10)
	require.NoError(t, err)
	require.NoError(t, l.BeginSelection(ctx, id))

	assert.ErrorIs(t, l.BeginSettlement(id), ErrNoOutcome)
}

func TestCreatePool_Duplicate(t *testing.T) {
	tip := uint64(50)
	l := openLedger(t, &tip)
	id := poolID(0x08)

	_, err := l.CreatePool(id, baseConfig())
	require.NoError(t, err)
	_, err = l.CreatePool(id, baseConfig())
	assert.ErrorIs(t, err, ErrDuplicatePool)
}

func TestRotateAndClose(t *testing.T) {
	tip := uint64(50)
	l := openLedger(t, &tip)
	id := poolID(0x09)

	_, err := l.CreatePool(id, baseConfig())
	require.NoError(t, err)

	assert.ErrorIs(t, l.RotateAuthority(id, nextKey, nextKey), pool.ErrUnauthorized)
	require.NoError(t, l.RotateAuthority(id, authorityKey, nextKey))

	assert.ErrorIs(t, l.ClosePool(id, authorityKey), pool.ErrUnauthorized)
	require.NoError(t, l.ClosePool(id, nextKey))

	status, err := l.PoolStatus(id)
	require.NoError(t, err)
	assert.Equal(t, pool.StatusClosed, status)
}

func TestOpen_RestoresMidRound(t *testing.T) {
	ctx := context.Background()
	tip := uint64(100)
	s := store.NewMemStore()
	node := testNode(&tip)

	l, err := Open(s, node)
	require.NoError(t, err)
	l.now = func() int64 { return 1726000000 }
	id := poolID(0x0A)

	_, err = l.CreatePool(id, baseConfig())
	require.NoError(t, err)
	_, err = l.AcceptEntry(id, dest(0x01), 10)
	require.NoError(t, err)
	_, err = l.AcceptEntry(id, dest(0x02), 10)
	require.NoError(t, err)

	// Restart against the same store.
	l, err = Open(s, node)
	require.NoError(t, err)
	l.now = func() int64 { return 1726000001 }

	custody, err := l.CustodyBalance(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), custody)

	e, err := l.AcceptEntry(id, dest(0x03), 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), e.ID)

	// The rebuilt register feeds selection with all three entries.
	require.NoError(t, l.BeginSelection(ctx, id))
	tip = 101
	out, err := l.ComputeOutcome(ctx, id)
	require.NoError(t, err)
	assert.Less(t, out.WinnerIndex, uint64(3))
	assert.Equal(t, uint64(30), out.PayoutAmount)
}

func TestGate_Recover(t *testing.T) {
	tip := uint64(50)
	l := openLedger(t, &tip)
	id := poolID(0x0B)

	_, err := l.CreatePool(id, baseConfig())
	require.NoError(t, err)
	_, err = l.AcceptEntry(id, dest(0x01), 10)
	require.NoError(t, err)
	_, err = l.AcceptEntry(id, dest(0x02), 10)
	require.NoError(t, err)
	require.NoError(t, l.ClosePool(id, authorityKey))

	g, err := NewGate(l)
	require.NoError(t, err)

	_, err = g.Recover(id, nextKey, 5, dest(0xDD), recovery.ReasonPoolShutdown)
	assert.ErrorIs(t, err, recovery.ErrUnauthorized)

	_, err = g.Recover(id, authorityKey, 100, dest(0xDD), recovery.ReasonPoolShutdown)
	assert.ErrorIs(t, err, recovery.ErrAmountExceedsCustody)

	act, err := g.Recover(id, authorityKey, 15, dest(0xDD), recovery.ReasonPoolShutdown)
	require.NoError(t, err)
	assert.Equal(t, uint64(15), act.Amount)

	custody, err := l.CustodyBalance(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), custody)

	log, err := l.RecoveryLog(id)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, recovery.ReasonPoolShutdown, log[0].Reason)
}

func TestBroadcast(t *testing.T) {
	tip := uint64(50)
	l := openLedger(t, &tip)

	txid, err := l.Broadcast(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "txid", txid)
}
