package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/ezloteam/cote/domain"
	"github.com/ezloteam/cote/helpers"
	"github.com/ezloteam/cote/interfaces"
	"github.com/ezloteam/cote/telemetry"
)

// NetworkOptions selects where announcements go and which inbound messages are filtered.
type NetworkOptions struct {
	Address        string
	Port           int
	Broadcast      string
	Multicast      string
	MulticastTTL   int
	Unicast        []string
	IgnoreInstance bool
}

// NetworkOptionsFrom extracts the network channel options from defaulted settings.
// Each unicast entry may itself be a comma separated list.
func NetworkOptionsFrom(s domain.Settings) NetworkOptions {
	var unicast []string
	for _, entry := range s.Unicast {
		unicast = append(unicast, domain.ParseUnicast(entry)...)
	}
	return NetworkOptions{
		Address:        s.Address,
		Port:           s.Port,
		Broadcast:      s.Broadcast,
		Multicast:      s.Multicast,
		MulticastTTL:   s.MulticastTTL,
		Unicast:        unicast,
		IgnoreInstance: helpers.Value(s.IgnoreInstance),
	}
}

// Network bridges a Transport to a typed event stream. It owns the envelope codec, the destination list
// and the self-instance filter.
//
// Inbound items are handled by a single dispatch goroutine, so the subscriber is never called concurrently.
type Network struct {
	transport interfaces.Transport
	codec     interfaces.Codec
	identity  domain.Identity
	opts      NetworkOptions
	logger    log.Logger

	mu           sync.Mutex
	handler      func(domain.Event)
	destinations []string
	running      bool
	stop         chan struct{}
	done         chan struct{}

	// last announcement, plaintext and encoded
	lastPlain []byte
	lastWire  []byte
}

// NewNetwork creates a network channel. Panics on nil transport, codec or logger.
//
// Called from NewDiscover.
func NewNetwork(
	transport interfaces.Transport,
	codec interfaces.Codec,
	identity domain.Identity,
	opts NetworkOptions,
	logger log.Logger,
) *Network {
	return &Network{
		transport: helpers.NilPanic(transport, "service.network.go: transport is required"),
		codec:     helpers.NilPanic(codec, "service.network.go: codec is required"),
		identity:  identity,
		opts:      opts,
		logger:    log.With(helpers.NilPanic(logger, "service.network.go: logger is required"), "component", "network"),
	}
}

// Subscribe sets the single receiver of network events. Must be called before Start.
func (n *Network) Subscribe(handler func(domain.Event)) {
	n.mu.Lock()
	n.handler = handler
	n.mu.Unlock()
}

// Identity returns the identity stamped on every outgoing envelope.
func (n *Network) Identity() domain.Identity {
	return n.identity
}

// Destinations returns the destinations resolved by Start.
func (n *Network) Destinations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.destinations...)
}

// Start binds the transport, resolves the destination list and starts dispatching inbound items.
// Destination policy: unicast list, then the overlay marker, then the multicast group, then broadcast.
// Failing to join the multicast group is a bind error.
func (n *Network) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.running {
		return nil
	}

	if err := n.transport.Bind(ctx, n.opts.Port, n.opts.Address); err != nil {
		return NewBindError("cannot bind transport", err)
	}

	destinations, err := n.resolveDestinations()
	if err != nil {
		_ = n.transport.Close()
		return err
	}

	n.destinations = destinations
	n.lastPlain, n.lastWire = nil, nil
	n.stop = make(chan struct{})
	n.done = make(chan struct{})
	n.running = true
	go n.dispatch(n.transport.Inbound(), n.stop, n.done)

	level.Info(n.logger).Log(
		"msg", "network started",
		"address", n.opts.Address,
		"port", n.opts.Port,
		"destinations", len(destinations),
	)
	return nil
}

func (n *Network) resolveDestinations() ([]string, error) {
	switch {
	case len(n.opts.Unicast) > 0:
		return append([]string(nil), n.opts.Unicast...), nil
	case n.transport.Overlay():
		return []string{domain.OverlayDestination}, nil
	case n.opts.Multicast != "":
		if err := n.transport.AddMembership(n.opts.Multicast); err != nil {
			return nil, NewBindError("cannot join multicast group "+n.opts.Multicast, err)
		}
		if err := n.transport.SetMulticastTTL(n.opts.MulticastTTL); err != nil {
			return nil, NewBindError("cannot set multicast ttl", err)
		}
		return []string{n.opts.Multicast}, nil
	default:
		if err := n.transport.SetBroadcast(true); err != nil {
			return nil, NewBindError("cannot enable broadcast", err)
		}
		return []string{n.opts.Broadcast}, nil
	}
}

// Stop sends a zero-length departure payload to every destination, stops dispatching and closes the transport.
func (n *Network) Stop() error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil
	}
	n.running = false
	destinations := n.destinations
	stop, done := n.stop, n.done
	n.mu.Unlock()

	for _, dst := range destinations {
		if err := n.transport.Send([]byte{}, n.opts.Port, dst); err != nil {
			level.Debug(n.logger).Log("msg", "departure send failed", "destination", dst, "err", err)
		}
	}

	close(stop)
	<-done

	if err := n.transport.Close(); err != nil {
		level.Warn(n.logger).Log("msg", "transport close failed", "err", err)
		return err
	}
	level.Info(n.logger).Log("msg", "network stopped")
	return nil
}

// Send encodes {event, iid, data} and writes it to every destination. A nil data omits the data field.
// Per-destination failures are logged, never returned.
//
// A hello whose plaintext equals the previous one reuses the previous bytes, so retaining overlays can
// recognize it as a repeat although each encryption draws a fresh IV. Other events go to overlays as
// domain.OverlayMessageDestination.
func (n *Network) Send(event string, data any) error {
	env := domain.Envelope{Event: event, IID: n.identity.InstanceID}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return NewBadParameterError("cannot serialize data of "+event, err)
		}
		env.Data = raw
	}

	announce := event == domain.EventHello
	payload, err := n.encode(env, announce)
	if err != nil {
		return err
	}

	for _, dst := range n.Destinations() {
		if dst == domain.OverlayDestination && !announce {
			dst = domain.OverlayMessageDestination
		}
		if err := n.transport.Send(payload, n.opts.Port, dst); err != nil {
			level.Debug(n.logger).Log("msg", "send failed", "event", event, "destination", dst, "err", err)
		}
	}
	telemetry.AnnouncementsSent.WithLabelValues(event).Inc()
	return nil
}

func (n *Network) encode(env domain.Envelope, announce bool) ([]byte, error) {
	if !announce {
		return n.codec.Encode(env)
	}
	plain, err := json.Marshal(env)
	if err != nil {
		return nil, NewBadParameterError("cannot serialize envelope", err)
	}

	n.mu.Lock()
	if n.lastPlain != nil && bytes.Equal(n.lastPlain, plain) {
		wire := n.lastWire
		n.mu.Unlock()
		return wire, nil
	}
	n.mu.Unlock()

	wire, err := n.codec.Encode(env)
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	n.lastPlain, n.lastWire = plain, wire
	n.mu.Unlock()
	return wire, nil
}

func (n *Network) dispatch(inbound <-chan domain.Inbound, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case in := <-inbound:
			if ev, ok := n.translate(in); ok {
				n.emit(ev)
			}
		}
	}
}

// translate turns one inbound item into an event. It reports false for items that are dropped.
func (n *Network) translate(in domain.Inbound) (domain.Event, bool) {
	if in.Kind == domain.InboundBrokerDisconnected {
		return domain.Event{Kind: domain.EventBrokerDisconnected, BrokerID: in.BrokerID}, true
	}

	env, err := n.codec.Decode(in.Payload)
	if errors.Is(err, ErrEmptyPayload) {
		telemetry.AnnouncementsReceived.WithLabelValues(telemetry.ResultDeparture).Inc()
		return domain.Event{
			Kind:     domain.EventNodeLeft,
			SenderID: in.SenderID,
			Remote:   in.Remote,
			BrokerID: in.BrokerID,
		}, true
	}
	if err != nil {
		telemetry.AnnouncementsReceived.WithLabelValues(telemetry.ResultDecode).Inc()
		level.Debug(n.logger).Log("msg", "dropping undecodable payload", "sender", in.SenderID, "err", err)
		return domain.Event{}, false
	}

	if n.opts.IgnoreInstance && env.IID == n.identity.InstanceID {
		telemetry.AnnouncementsReceived.WithLabelValues(telemetry.ResultSelf).Inc()
		return domain.Event{}, false
	}
	telemetry.AnnouncementsReceived.WithLabelValues(telemetry.ResultAccepted).Inc()

	ev := domain.Event{
		Kind:     domain.EventMessage,
		SenderID: in.SenderID,
		Envelope: env,
		Remote:   in.Remote,
		BrokerID: in.BrokerID,
	}
	if env.Event != "" && env.HasData() {
		ev.Kind = domain.EventNamed
		ev.Name = env.Event
		ev.Data = env.Data
	}
	return ev, true
}

func (n *Network) emit(ev domain.Event) {
	n.mu.Lock()
	handler := n.handler
	n.mu.Unlock()
	if handler != nil {
		handler(ev)
	}
}
