package selector

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// Decision is the authenticated verdict message from the pool's decision
// oracle. The core trusts the oracle's judgement but validates that the
// message is well-formed, signed by the registered oracle key, addressed to
// the right pool and round, and consumed at most once.
type Decision struct {
	PoolID       [32]byte
	Round        uint64
	Pass         bool
	PayoutAmount uint64
	Sig          []byte // DER ECDSA signature over Digest()
}

// Digest returns the SHA256 of the decision's canonical encoding:
// pool_id(32) || round(8) || pass(1) || payout(8).
func (d *Decision) Digest() []byte {
	buf := make([]byte, 0, 32+8+1+8)
	buf = append(buf, d.PoolID[:]...)
	buf = binary.BigEndian.AppendUint64(buf, d.Round)
	if d.Pass {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.BigEndian.AppendUint64(buf, d.PayoutAmount)
	sum := sha256.Sum256(buf)
	return sum[:]
}

// SignDecision signs a decision with the oracle private key and stores the
// DER signature on it. Used by the oracle side and by tests.
func SignDecision(d *Decision, oraclePriv *ec.PrivateKey) error {
	if d == nil || oraclePriv == nil {
		return fmt.Errorf("%w: nil decision or key", ErrDecisionMalformed)
	}
	sig, err := oraclePriv.Sign(d.Digest())
	if err != nil {
		return fmt.Errorf("selector: sign decision: %w", err)
	}
	d.Sig = sig.Serialize()
	return nil
}

// VerifyDecision checks that the decision is well-formed and carries a valid
// oracle signature. A failed (Pass=false) decision must carry a zero payout.
func VerifyDecision(d *Decision, oraclePub []byte) error {
	if d == nil {
		return fmt.Errorf("%w: nil decision", ErrDecisionMalformed)
	}
	if len(oraclePub) == 0 {
		return ErrNoOracle
	}
	if !d.Pass && d.PayoutAmount != 0 {
		return fmt.Errorf("%w: failed decision carries payout %d", ErrDecisionMalformed, d.PayoutAmount)
	}
	if d.Pass && d.PayoutAmount == 0 {
		return fmt.Errorf("%w: passed decision carries zero payout", ErrDecisionMalformed)
	}
	if len(d.Sig) == 0 {
		return fmt.Errorf("%w: missing signature", ErrDecisionMalformed)
	}

	pub, err := ec.PublicKeyFromBytes(oraclePub)
	if err != nil {
		return fmt.Errorf("%w: oracle key: %w", ErrDecisionMalformed, err)
	}
	sig, err := ec.ParseSignature(d.Sig)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadDecisionSignature, err)
	}
	if !sig.Verify(d.Digest(), pub) {
		return ErrBadDecisionSignature
	}
	return nil
}

// DecisionOutcome converts a verified decision into the round's outcome.
// The caller is responsible for single-use enforcement when committing it.
func DecisionOutcome(d *Decision, computedAt int64) *Outcome {
	return &Outcome{
		PoolID:       d.PoolID,
		Round:        d.Round,
		Mode:         ModeDecision,
		SeedMaterial: d.Digest(),
		Pass:         d.Pass,
		PayoutAmount: d.PayoutAmount,
		ComputedAt:   computedAt,
	}
}
