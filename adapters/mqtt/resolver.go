package mqtt

import (
	"context"
	"net"

	"github.com/ezloteam/cote/interfaces"
	"github.com/ezloteam/cote/service"
)

// DNSResolver resolves the broker hostname through the system resolver, so /etc/hosts entries and
// container DNS names work the same as public records.
type DNSResolver struct {
	resolver *net.Resolver
}

var _ interfaces.HostResolver = (*DNSResolver)(nil)

// NewDNSResolver creates a resolver using net.DefaultResolver.
func NewDNSResolver() *DNSResolver {
	return &DNSResolver{resolver: net.DefaultResolver}
}

// LookupBrokers returns the IPv4 addresses of host.
func (r *DNSResolver) LookupBrokers(ctx context.Context, host string) ([]string, error) {
	ips, err := r.resolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, service.NewResolutionError("cannot resolve "+host, err)
	}
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		out = append(out, ip.String())
	}
	return out, nil
}
