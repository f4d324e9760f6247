package interfaces

import (
	"context"

	"github.com/ezloteam/cote/domain"
)

// Transport is the socket-like contract every announcement carrier implements (UDP broadcast/multicast/unicast,
// Redis pub/sub, MQTT multi-broker overlay). The network channel drives it without knowing the concrete variant.
//
// Socket-level capabilities (SetBroadcast, AddMembership, SetMulticastTTL) are no-ops on overlay transports.
// Inbound payloads, including zero-length departure payloads and broker disconnect notices, are delivered on
// the channel returned by Inbound; the channel is never closed, consumers stop on their own signal.
//
// Implemented by adapters/udp.Transport, adapters/myredis.Transport and adapters/mqtt.Pool.
// Called from service.Network.
//
//go:generate moq -stub -out mock/transport.go -pkg mock . Transport
type Transport interface {
	// Bind opens the transport on port/address. Returns a bind_error on failure (address in use, broker client setup).
	// Called once from service.Network.Start.
	Bind(ctx context.Context, port int, address string) error

	// Send writes payload to destination on port. Fire-and-forget: partial failures of fan-out destinations are not reported.
	// Overlay transports ignore port. Their destination is domain.OverlayDestination for the announcement
	// or domain.OverlayMessageDestination for channel messages, which are never retained.
	Send(payload []byte, port int, destination string) error

	// Close releases every resource; idempotent.
	Close() error

	// SetBroadcast enables sending to broadcast addresses.
	SetBroadcast(on bool) error

	// AddMembership joins a multicast group. Fails when no interface can join it.
	AddMembership(group string) error

	// SetMulticastTTL sets the TTL of outgoing multicast datagrams.
	SetMulticastTTL(ttl int) error

	// Overlay reports whether destinations are a single logical marker (pub/sub) rather than addresses.
	Overlay() bool

	// Inbound returns the stream of received payloads and broker notices.
	Inbound() <-chan domain.Inbound
}
