package chain

import (
	"context"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// MockService is a test double for Service. Function fields must be set
// before the corresponding method is called.
type MockService struct {
	GetBestBlockHeightFn func(ctx context.Context) (uint64, error)
	GetBlockHashFn       func(ctx context.Context, height uint64) (*chainhash.Hash, error)
	BroadcastTxFn        func(ctx context.Context, rawTxHex string) (string, error)
}

// Compile-time interface check.
var _ Service = (*MockService)(nil)

func (m *MockService) GetBestBlockHeight(ctx context.Context) (uint64, error) {
	return m.GetBestBlockHeightFn(ctx)
}

func (m *MockService) GetBlockHash(ctx context.Context, height uint64) (*chainhash.Hash, error) {
	return m.GetBlockHashFn(ctx, height)
}

func (m *MockService) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	return m.BroadcastTxFn(ctx, rawTxHex)
}

// StaticChain returns a MockService for a chain whose tip sits at tip and
// whose block hash at any height h is deterministic: 32 bytes of byte(h).
// Handy for beacon tests.
func StaticChain(tip uint64) *MockService {
	return &MockService{
		GetBestBlockHeightFn: func(context.Context) (uint64, error) {
			return tip, nil
		},
		GetBlockHashFn: func(_ context.Context, height uint64) (*chainhash.Hash, error) {
			var b [chainhash.HashSize]byte
			for i := range b {
				b[i] = byte(height)
			}
			return chainhash.NewHash(b[:])
		},
		BroadcastTxFn: func(_ context.Context, _ string) (string, error) {
			return "mock-txid", nil
		},
	}
}
