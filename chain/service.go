// Package chain talks to the ledger-platform node. The bounty core uses it
// for exactly two things: reading finalized block hashes as selection
// beacons, and broadcasting payout transactions. The core never blocks on
// the chain from inside a state transition; callers fetch chain facts first
// and submit them as completed values.
package chain

import (
	"context"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// Service is the node interface consumed by the bounty ledger.
type Service interface {
	// GetBestBlockHeight returns the height of the current chain tip.
	GetBestBlockHeight(ctx context.Context) (uint64, error)

	// GetBlockHash returns the hash of the block at the given height.
	GetBlockHash(ctx context.Context, height uint64) (*chainhash.Hash, error)

	// BroadcastTx submits a raw transaction hex and returns the txid.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)
}

// Beacon is a finalized block observation used as selection seed input.
type Beacon struct {
	Height uint64
	Hash   *chainhash.Hash
}

// FetchBeacon returns the hash of the first block finalized strictly after
// afterHeight. It fails with ErrBeaconNotFinal while the chain tip is still
// at or below afterHeight; the caller retries later. afterHeight is the
// height recorded when the entry window closed, so the returned hash was
// unknowable to every participant at entry time.
func FetchBeacon(ctx context.Context, svc Service, afterHeight uint64) (*Beacon, error) {
	return FetchBeaconConfirmed(ctx, svc, afterHeight, 1)
}

// FetchBeaconConfirmed is FetchBeacon with a required burial depth: the
// beacon block at afterHeight+1 must have at least confirmations blocks on
// top of it (itself included). Operators that distrust shallow reorgs set
// this above 1.
func FetchBeaconConfirmed(ctx context.Context, svc Service, afterHeight, confirmations uint64) (*Beacon, error) {
	if confirmations == 0 {
		confirmations = 1
	}
	tip, err := svc.GetBestBlockHeight(ctx)
	if err != nil {
		return nil, err
	}
	if tip < afterHeight+confirmations {
		return nil, ErrBeaconNotFinal
	}
	h, err := svc.GetBlockHash(ctx, afterHeight+1)
	if err != nil {
		return nil, err
	}
	return &Beacon{Height: afterHeight + 1, Hash: h}, nil
}
