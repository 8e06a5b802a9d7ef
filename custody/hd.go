package custody

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	script "github.com/bsv-blockchain/go-sdk/script"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"

	"github.com/bountypool/libbounty-go/pool"
)

const (
	// BIP44 path constants.
	PurposeBIP44 = 44
	CoinTypeBSV  = 236

	// OperatorAccount holds authority and change keys; pools start at 1.
	OperatorAccount  = 0
	FirstPoolAccount = 1

	// Hardened is the BIP32 hardened derivation offset.
	Hardened = 0x80000000
)

// Wallet derives pool custody keys from one BIP39 seed.
type Wallet struct {
	masterKey *bip32.ExtendedKey
	network   *NetworkConfig
}

// KeyPair holds a derived key pair and its derivation path.
type KeyPair struct {
	PrivateKey *ec.PrivateKey `json:"-"`
	PublicKey  *ec.PublicKey  `json:"public_key"`
	Path       string         `json:"path"`
}

// Destination returns the P2PKH hash of the key pair's public key, the
// form destinations take throughout the ledger.
func (kp *KeyPair) Destination() [pool.DestinationSize]byte {
	var d [pool.DestinationSize]byte
	copy(d[:], kp.PublicKey.Hash())
	return d
}

// Address returns the key pair's P2PKH address on the given network.
func (kp *KeyPair) Address(mainnet bool) (string, error) {
	addr, err := script.NewAddressFromPublicKey(kp.PublicKey, mainnet)
	if err != nil {
		return "", fmt.Errorf("%w: address encoding: %w", ErrDerivationFailed, err)
	}
	return addr.AddressString, nil
}

// NewWallet creates a Wallet from a BIP39 seed. A nil network defaults to
// mainnet.
func NewWallet(seed []byte, network *NetworkConfig) (*Wallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if network == nil {
		network = &MainNet
	}

	var net *chaincfg.Params
	switch network.Name {
	case "mainnet":
		net = &chaincfg.MainNet
	default:
		net = &chaincfg.TestNet
	}

	masterKey, err := bip32.NewMaster(seed, net)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	return &Wallet{masterKey: masterKey, network: network}, nil
}

// Network returns the wallet's network configuration.
func (w *Wallet) Network() *NetworkConfig {
	return w.network
}

// deriveAccount derives the account-level key: m/44'/236'/account'
func (w *Wallet) deriveAccount(account uint32) (*bip32.ExtendedKey, error) {
	purpose, err := w.masterKey.Child(PurposeBIP44 + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: purpose derivation: %w", ErrDerivationFailed, err)
	}
	coinType, err := purpose.Child(CoinTypeBSV + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: coin type derivation: %w", ErrDerivationFailed, err)
	}
	accountKey, err := coinType.Child(account + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: account derivation: %w", ErrDerivationFailed, err)
	}
	return accountKey, nil
}

// derive walks account' / 0 / index and renders the path string.
func (w *Wallet) derive(account, index uint32) (*KeyPair, error) {
	accountKey, err := w.deriveAccount(account)
	if err != nil {
		return nil, err
	}
	chainKey, err := accountKey.Child(0)
	if err != nil {
		return nil, fmt.Errorf("%w: chain derivation: %w", ErrDerivationFailed, err)
	}
	childKey, err := chainKey.Child(index)
	if err != nil {
		return nil, fmt.Errorf("%w: index derivation: %w", ErrDerivationFailed, err)
	}
	return extKeyToKeyPair(childKey, fmt.Sprintf("m/44'/236'/%d'/0/%d", account, index))
}

// OperatorKey derives a key from the operator chain.
//
//	Path: m/44'/236'/0'/0/index
func (w *Wallet) OperatorKey(index uint32) (*KeyPair, error) {
	return w.derive(OperatorAccount, index)
}

// PoolKey derives the custody key for one pool round. Each pool gets its
// own hardened account so a leaked round key never exposes a sibling pool.
//
//	Path: m/44'/236'/(poolIndex+1)'/0/round
func (w *Wallet) PoolKey(poolIndex, round uint32) (*KeyPair, error) {
	if poolIndex >= Hardened-FirstPoolAccount {
		return nil, fmt.Errorf("%w: pool index %d", ErrIndexOutOfRange, poolIndex)
	}
	return w.derive(poolIndex+FirstPoolAccount, round)
}

// PoolDestination derives the P2PKH destination funds for one pool round
// are custodied at.
func (w *Wallet) PoolDestination(poolIndex, round uint32) ([pool.DestinationSize]byte, error) {
	kp, err := w.PoolKey(poolIndex, round)
	if err != nil {
		return [pool.DestinationSize]byte{}, err
	}
	return kp.Destination(), nil
}

func extKeyToKeyPair(extKey *bip32.ExtendedKey, path string) (*KeyPair, error) {
	privKey, err := extKey.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: extract EC private key: %w", ErrDerivationFailed, err)
	}
	return &KeyPair{
		PrivateKey: privKey,
		PublicKey:  privKey.PubKey(),
		Path:       path,
	}, nil
}
