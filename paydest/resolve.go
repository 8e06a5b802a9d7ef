package paydest

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bountypool/libbounty-go/pool"
)

// MaxResponseSize bounds a resolution response body.
const MaxResponseSize = 1 << 20 // 1 MB

// HTTPClient is the HTTP surface; tests substitute a mock.
type HTTPClient interface {
	Get(url string) (*http.Response, error)
}

// DefaultHTTPClient is the production HTTP client.
var DefaultHTTPClient HTTPClient = &http.Client{Timeout: 30 * time.Second}

// Capabilities holds a domain's advertised resolution endpoints, keyed
// from .well-known/bounty.
type Capabilities struct {
	PKI string // URL template with {name} and {domain} placeholders
}

type wellKnownResponse struct {
	Capabilities map[string]any `json:"capabilities"`
}

// pkiResponse is the JSON envelope of the PKI endpoint.
type pkiResponse struct {
	Handle string `json:"handle"`
	PubKey string `json:"pubkey"` // hex compressed public key
}

// DiscoverCapabilities fetches https://{domain}/.well-known/bounty.
func DiscoverCapabilities(domain string, client HTTPClient) (*Capabilities, error) {
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain", ErrDiscoveryFailed)
	}
	if client == nil {
		client = DefaultHTTPClient
	}

	wkURL := "https://" + domain + "/.well-known/bounty"
	resp, err := client.Get(wkURL)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrDiscoveryFailed, wkURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s returned status %d", ErrDiscoveryFailed, wkURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrDiscoveryFailed, err)
	}

	var wk wellKnownResponse
	if err := json.Unmarshal(body, &wk); err != nil {
		return nil, fmt.Errorf("%w: parsing JSON: %w", ErrDiscoveryFailed, err)
	}

	caps := &Capabilities{}
	for key, val := range wk.Capabilities {
		s, ok := val.(string)
		if !ok {
			continue
		}
		if key == "pki" || strings.Contains(key, "pki") {
			caps.PKI = s
		}
	}
	return caps, nil
}

// ResolvePubKey resolves a handle to its compressed public key via the
// domain's PKI endpoint.
func ResolvePubKey(h Handle, client HTTPClient) ([]byte, error) {
	if client == nil {
		client = DefaultHTTPClient
	}
	caps, err := DiscoverCapabilities(h.Domain, client)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPKIResolution, err)
	}
	if caps.PKI == "" {
		return nil, fmt.Errorf("%w: no PKI capability for %s", ErrPKIResolution, h.Domain)
	}

	// Escape the template variables; a handle name must not be able to
	// steer the request path.
	pkiURL := strings.ReplaceAll(caps.PKI, "{name}", url.PathEscape(h.Name))
	pkiURL = strings.ReplaceAll(pkiURL, "{domain}", url.PathEscape(h.Domain))

	resp, err := client.Get(pkiURL)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrPKIResolution, pkiURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s returned status %d", ErrPKIResolution, pkiURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrPKIResolution, err)
	}

	var pki pkiResponse
	if err := json.Unmarshal(body, &pki); err != nil {
		return nil, fmt.Errorf("%w: parsing PKI response: %w", ErrPKIResolution, err)
	}
	if pki.PubKey == "" {
		return nil, fmt.Errorf("%w: empty public key in response", ErrPKIResolution)
	}

	key, err := hex.DecodeString(pki.PubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex public key: %w", ErrInvalidPubKey, err)
	}
	if _, err := validateCompressedPubKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

// ResolveDestination resolves a raw name@domain handle all the way to a
// P2PKH destination: parse, fetch the handle's public key, hash it.
func ResolveDestination(raw string, client HTTPClient) ([pool.DestinationSize]byte, error) {
	var d [pool.DestinationSize]byte
	h, err := ParseHandle(raw)
	if err != nil {
		return d, err
	}
	key, err := ResolvePubKey(h, client)
	if err != nil {
		return d, err
	}
	return DestinationFromPubKey(key)
}
