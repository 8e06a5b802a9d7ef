package paydest

import (
	"fmt"
	"net"
	"sort"
	"strings"
)

// DNSResolver is the DNS lookup surface; tests substitute a mock.
type DNSResolver interface {
	LookupSRV(service, proto, name string) (string, []*net.SRV, error)
	LookupTXT(name string) ([]string, error)
}

type defaultDNSResolver struct{}

func (d *defaultDNSResolver) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	return net.LookupSRV(service, proto, name)
}

func (d *defaultDNSResolver) LookupTXT(name string) ([]string, error) {
	return net.LookupTXT(name)
}

// DefaultDNSResolver is the production resolver using the net package.
var DefaultDNSResolver DNSResolver = &defaultDNSResolver{}

// SRVBounty is the SRV service label: _bounty._tcp.{domain}.
const SRVBounty = "bounty"

// ResolveEndpoints resolves _bounty._tcp SRV records for a domain and
// returns host:port endpoints sorted by priority, then descending weight.
func ResolveEndpoints(domain string) ([]string, error) {
	return ResolveEndpointsWithResolver(domain, DefaultDNSResolver)
}

// ResolveEndpointsWithResolver resolves endpoints with the given resolver.
func ResolveEndpointsWithResolver(domain string, resolver DNSResolver) ([]string, error) {
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain", ErrDNSLookupFailed)
	}

	_, addrs, err := resolver.LookupSRV(SRVBounty, "tcp", domain)
	if err != nil {
		return nil, fmt.Errorf("%w: SRV lookup for _%s._tcp.%s: %w", ErrDNSLookupFailed, SRVBounty, domain, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: no SRV records for _%s._tcp.%s", ErrNoEndpoints, SRVBounty, domain)
	}

	sort.Slice(addrs, func(i, j int) bool {
		if addrs[i].Priority != addrs[j].Priority {
			return addrs[i].Priority < addrs[j].Priority
		}
		return addrs[i].Weight > addrs[j].Weight
	})

	endpoints := make([]string, len(addrs))
	for i, srv := range addrs {
		host := strings.TrimSuffix(srv.Target, ".")
		endpoints[i] = fmt.Sprintf("%s:%d", host, srv.Port)
	}
	return endpoints, nil
}
