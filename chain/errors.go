package chain

import "errors"

var (
	// ErrConnectionFailed indicates the HTTP request to the node failed.
	ErrConnectionFailed = errors.New("chain: connection to node failed")

	// ErrInvalidResponse indicates the node response cannot be decoded.
	ErrInvalidResponse = errors.New("chain: invalid node response")

	// ErrBlockNotFound indicates no block exists at the requested height.
	ErrBlockNotFound = errors.New("chain: block not found")

	// ErrBeaconNotFinal indicates the beacon block has not been finalized
	// yet. Selection must wait for a block produced after the entry window
	// closed; the caller retries once the chain advances.
	ErrBeaconNotFinal = errors.New("chain: beacon block not yet finalized")
)
