// Package paydest resolves human-readable payout handles (name@domain)
// into P2PKH destinations. A domain publishes its resolution service via
// DNS SRV and serves per-handle public keys over HTTPS; the destination is
// the hash of the resolved key, so the ledger never stores raw addresses.
package paydest

import (
	"fmt"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bountypool/libbounty-go/pool"
)

// Handle is a parsed name@domain payout handle.
type Handle struct {
	Name   string
	Domain string
}

// String renders the handle back to name@domain form.
func (h Handle) String() string {
	return h.Name + "@" + h.Domain
}

// ParseHandle splits and validates a name@domain handle. The name and
// domain are lowercased; a handle resolves identically regardless of case.
func ParseHandle(raw string) (Handle, error) {
	raw = strings.TrimSpace(raw)
	at := strings.Count(raw, "@")
	if at != 1 {
		return Handle{}, fmt.Errorf("%w: %q", ErrInvalidHandle, raw)
	}
	parts := strings.SplitN(raw, "@", 2)
	name, domain := strings.ToLower(parts[0]), strings.ToLower(parts[1])
	if name == "" || domain == "" || !strings.Contains(domain, ".") {
		return Handle{}, fmt.Errorf("%w: %q", ErrInvalidHandle, raw)
	}
	return Handle{Name: name, Domain: domain}, nil
}

// validateCompressedPubKey parses key bytes as a compressed secp256k1 point.
func validateCompressedPubKey(key []byte) (*ec.PublicKey, error) {
	if len(key) != 33 {
		return nil, fmt.Errorf("%w: expected 33 bytes, got %d", ErrInvalidPubKey, len(key))
	}
	pub, err := ec.PublicKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPubKey, err)
	}
	return pub, nil
}

// DestinationFromPubKey hashes a compressed public key into the P2PKH
// destination form used across the ledger.
func DestinationFromPubKey(key []byte) ([pool.DestinationSize]byte, error) {
	var d [pool.DestinationSize]byte
	pub, err := validateCompressedPubKey(key)
	if err != nil {
		return d, err
	}
	copy(d[:], pub.Hash())
	return d, nil
}
