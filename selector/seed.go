package selector

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"golang.org/x/crypto/hkdf"

	"github.com/bountypool/libbounty-go/register"
)

// hkdfInfo is the constant info string for selection-seed expansion.
const hkdfInfo = "bounty-round-selection"

// EntriesDigest computes the SHA256 commitment over a round's entries in
// insertion order: SHA256(id_1 || payer_1 || id_2 || payer_2 || ...).
// The digest binds both membership and ordering.
func EntriesDigest(entries []*register.Entry) []byte {
	h := sha256.New()
	var id [8]byte
	for _, e := range entries {
		binary.BigEndian.PutUint64(id[:], e.ID)
		h.Write(id[:])
		h.Write(e.Payer[:])
	}
	return h.Sum(nil)
}

// DeriveSeed computes the published selection seed:
//
//	ikm  = SHA256(beacon || pool_id || round_be64 || entries_digest)
//	seed = BE64(HKDF-SHA256(ikm, salt=entries_digest, info="bounty-round-selection")[0:8])
//
// The returned material is beacon || entries_digest, preserved on the
// Outcome so any observer can recompute the seed.
func DeriveSeed(beacon *chainhash.Hash, poolID [32]byte, round uint64, entriesDigest []byte) (material []byte, seed uint64, err error) {
	if beacon == nil {
		return nil, 0, ErrNilBeacon
	}

	ikm := sha256.New()
	ikm.Write(beacon[:])
	ikm.Write(poolID[:])
	var roundBE [8]byte
	binary.BigEndian.PutUint64(roundBE[:], round)
	ikm.Write(roundBE[:])
	ikm.Write(entriesDigest)

	r := hkdf.New(sha256.New, ikm.Sum(nil), entriesDigest, []byte(hkdfInfo))
	var out [8]byte
	if _, err := io.ReadFull(r, out[:]); err != nil {
		return nil, 0, fmt.Errorf("selector: hkdf expand: %w", err)
	}

	material = make([]byte, 0, chainhash.HashSize+len(entriesDigest))
	material = append(material, beacon[:]...)
	material = append(material, entriesDigest...)
	return material, binary.BigEndian.Uint64(out[:]), nil
}

// SelectWinner produces the winner-mode outcome for a round. The winner
// index is seed mod len(entries), addressing entries by their stable
// insertion position, so the mapping stays uniform over the entry set
// regardless of round size.
//
// payout is the amount the outcome disburses (the full pot at selection
// time). computedAt is the audit timestamp; it never feeds the seed.
func SelectWinner(beacon *chainhash.Hash, poolID [32]byte, round uint64, entries []*register.Entry, payout uint64, computedAt int64) (*Outcome, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: round %d", ErrNoEntries, round)
	}
	material, seed, err := DeriveSeed(beacon, poolID, round, EntriesDigest(entries))
	if err != nil {
		return nil, err
	}

	idx := seed % uint64(len(entries))
	return &Outcome{
		PoolID:        poolID,
		Round:         round,
		Mode:          ModeWinner,
		SeedMaterial:  material,
		WinnerEntryID: entries[idx].ID,
		WinnerIndex:   idx,
		PayoutAmount:  payout,
		ComputedAt:    computedAt,
	}, nil
}

// VerifyWinner recomputes the selection for an existing winner-mode outcome
// from the same public inputs and reports whether it matches. Observers use
// this to audit a settled round.
func VerifyWinner(out *Outcome, beacon *chainhash.Hash, entries []*register.Entry) bool {
	if out == nil || out.Mode != ModeWinner {
		return false
	}
	recomputed, err := SelectWinner(beacon, out.PoolID, out.Round, entries, out.PayoutAmount, out.ComputedAt)
	if err != nil {
		return false
	}
	return recomputed.WinnerIndex == out.WinnerIndex &&
		recomputed.WinnerEntryID == out.WinnerEntryID
}
