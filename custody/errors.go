package custody

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("custody: invalid BIP39 mnemonic")

	// ErrInvalidEntropy indicates entropy bits is not 128 or 256.
	ErrInvalidEntropy = errors.New("custody: entropy bits must be 128 or 256")

	// ErrInvalidSeed indicates the seed is empty or invalid.
	ErrInvalidSeed = errors.New("custody: invalid seed")

	// ErrDecryptionFailed indicates wrong password or corrupted key file.
	ErrDecryptionFailed = errors.New("custody: seed decryption failed (wrong password or corrupted data)")

	// ErrChecksumMismatch indicates seed checksum verification failed after decryption.
	ErrChecksumMismatch = errors.New("custody: seed checksum mismatch")

	// ErrInvalidNetwork indicates an unknown network name.
	ErrInvalidNetwork = errors.New("custody: invalid network name")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("custody: key derivation failed")

	// ErrIndexOutOfRange indicates a pool or round index exceeds the BIP32
	// hardened boundary.
	ErrIndexOutOfRange = errors.New("custody: index exceeds BIP32 boundary")
)
