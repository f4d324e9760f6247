package interfaces

import "context"

// HostResolver resolves the configured broker hostname to the list of broker addresses.
//
// LookupBrokers returns IPv4 addresses as strings. An empty list with nil error is a valid answer
// (treated as total broker-layer outage by the pool).
//
// Implemented by adapters/mqtt.DNSResolver. Called from adapters/mqtt.Pool on every resolution round.
//
//go:generate moq -stub -out mock/resolver.go -pkg mock . HostResolver
type HostResolver interface {
	LookupBrokers(ctx context.Context, host string) ([]string, error)
}
