package settle

import (
	"encoding/hex"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"
)

// CustodyInput is the pool custody UTXO funding a payout transaction.
type CustodyInput struct {
	TxID         []byte // 32 bytes
	Vout         uint32
	Amount       uint64
	ScriptPubKey []byte
	PrivateKey   *ec.PrivateKey // custody key for this pool and round
}

// BuildPayoutTx renders a receipt's transfer set as a signed transaction:
// one P2PKH output per transfer, funded by the custody input. Any custody
// amount beyond the transfer total returns to changeDest (the next round's
// custody address). Returns the signed transaction hex.
//
// The fee is paid out of the change; the caller provisions the custody
// account so that change stays above feeBudget.
func BuildPayoutTx(in *CustodyInput, transfers []Transfer, changeDest [20]byte, feeBudget uint64) (string, error) {
	if in == nil || in.PrivateKey == nil {
		return "", fmt.Errorf("%w: custody input", ErrNoCustodyInput)
	}
	if len(transfers) == 0 {
		return "", fmt.Errorf("%w: empty transfer set", ErrTxBuild)
	}
	total := Total(transfers)
	if in.Amount < total+feeBudget {
		return "", fmt.Errorf("%w: input %d, need %d + fee %d",
			ErrInsufficientInput, in.Amount, total, feeBudget)
	}

	txidHash, err := chainhash.NewHash(in.TxID)
	if err != nil {
		return "", fmt.Errorf("%w: custody txid: %w", ErrTxBuild, err)
	}

	sdkTx := transaction.NewTransaction()
	unlocker, err := p2pkh.Unlock(in.PrivateKey, nil)
	if err != nil {
		return "", fmt.Errorf("%w: custody unlocker: %w", ErrTxBuild, err)
	}
	sdkTx.AddInput(&transaction.TransactionInput{
		SourceTXID:              txidHash,
		SourceTxOutIndex:        in.Vout,
		SequenceNumber:          transaction.DefaultSequenceNumber,
		UnlockingScriptTemplate: unlocker,
	})
	sdkTx.Inputs[0].SetSourceTxOutput(&transaction.TransactionOutput{
		Satoshis:      in.Amount,
		LockingScript: script.NewFromBytes(in.ScriptPubKey),
	})

	for i, tr := range transfers {
		out, err := buildP2PKHOutput(tr.Destination[:], tr.Amount)
		if err != nil {
			return "", fmt.Errorf("settle: transfer[%d]: %w", i, err)
		}
		sdkTx.AddOutput(out)
	}

	change := in.Amount - total - feeBudget
	if change > 0 {
		out, err := buildP2PKHOutput(changeDest[:], change)
		if err != nil {
			return "", fmt.Errorf("settle: change output: %w", err)
		}
		sdkTx.AddOutput(out)
	}

	if err := sdkTx.Sign(); err != nil {
		return "", fmt.Errorf("%w: sign: %w", ErrTxBuild, err)
	}
	return sdkTx.Hex(), nil
}

// P2PKHScript creates a P2PKH locking script for a public key, suitable as
// the custody account's ScriptPubKey.
func P2PKHScript(pubKey *ec.PublicKey) ([]byte, error) {
	if pubKey == nil {
		return nil, fmt.Errorf("%w: public key", ErrNilParam)
	}
	addr, err := script.NewAddressFromPublicKey(pubKey, true)
	if err != nil {
		return nil, fmt.Errorf("%w: address from pubkey: %w", ErrTxBuild, err)
	}
	lockScript, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock: %w", ErrTxBuild, err)
	}
	return []byte(*lockScript), nil
}

// buildP2PKHOutput creates a P2PKH output for a 20-byte destination hash.
func buildP2PKHOutput(pubKeyHash []byte, satoshis uint64) (*transaction.TransactionOutput, error) {
	addr, err := script.NewAddressFromPublicKeyHash(pubKeyHash, true)
	if err != nil {
		return nil, fmt.Errorf("%w: address from hash: %w", ErrTxBuild, err)
	}
	lockScript, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock: %w", ErrTxBuild, err)
	}
	return &transaction.TransactionOutput{
		Satoshis:      satoshis,
		LockingScript: lockScript,
	}, nil
}

// TxIDFromHex decodes a transaction ID hex string into raw bytes.
func TxIDFromHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: txid hex: %w", ErrTxBuild, err)
	}
	return b, nil
}
