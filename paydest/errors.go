package paydest

import "errors"

var (
	// ErrInvalidHandle indicates the handle is not name@domain shaped.
	ErrInvalidHandle = errors.New("paydest: invalid handle")

	// ErrDNSLookupFailed indicates a DNS SRV/TXT lookup failed.
	ErrDNSLookupFailed = errors.New("paydest: DNS lookup failed")

	// ErrDNSSECValidationFailed indicates the upstream resolver did not
	// authenticate the response.
	ErrDNSSECValidationFailed = errors.New("paydest: DNSSEC validation failed")

	// ErrNoEndpoints indicates no SRV records were found for the domain.
	ErrNoEndpoints = errors.New("paydest: no endpoints found")

	// ErrDiscoveryFailed indicates the .well-known/bounty fetch failed.
	ErrDiscoveryFailed = errors.New("paydest: capability discovery failed")

	// ErrPKIResolution indicates the PKI endpoint returned an error.
	ErrPKIResolution = errors.New("paydest: PKI resolution failed")

	// ErrInvalidPubKey indicates a key is not a valid compressed secp256k1 key.
	ErrInvalidPubKey = errors.New("paydest: invalid compressed public key")
)
