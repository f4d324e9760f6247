package mqtt

import (
	"bytes"
	"context"
	"encoding/base64"
	"sort"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/ezloteam/cote/domain"
	"github.com/ezloteam/cote/helpers"
	"github.com/ezloteam/cote/interfaces"
	"github.com/ezloteam/cote/service"
	"github.com/ezloteam/cote/telemetry"
)

const resolveTimeout = 10 * time.Second

// ClientFactory builds a paho client from options. Replaced in tests.
type ClientFactory func(opts *paho.ClientOptions) paho.Client

// DefaultClientFactory returns paho.NewClient.
func DefaultClientFactory(opts *paho.ClientOptions) paho.Client {
	return paho.NewClient(opts)
}

// Pool presents N brokers, resolved from one hostname, as a single overlay transport.
// A background loop keeps exactly one Host per resolved address; sends fan out to every Host and
// inbound messages from any of them are merged into one stream tagged with the broker address.
//
// Encrypted payloads are base64 encoded on the wire, plain ones are sent as is.
type Pool struct {
	settings domain.MQTTSettings
	identity domain.Identity
	resolver interfaces.HostResolver
	factory  ClientFactory
	keyed    bool
	logger   log.Logger
	inbound  chan domain.Inbound
	done     chan struct{}

	mu       sync.Mutex
	hosts    map[string]*Host
	lastSend []byte
	hasSent  bool
	port     int
	bound    bool
	closed   bool
	cancel   context.CancelFunc
	loopDone chan struct{}
	sends    sync.WaitGroup

	// sendMu lets a fan-out start only once the previous one finished on every broker.
	sendMu sync.Mutex
}

var _ interfaces.Transport = (*Pool)(nil)

// NewPool creates a broker pool. Settings are defaulted. Panics on nil resolver, factory or logger.
//
// keyed means payloads are ciphertext and travel base64 encoded.
//
// Called from adapters.NewTransport when mqtt settings are present.
func NewPool(
	settings domain.MQTTSettings,
	identity domain.Identity,
	resolver interfaces.HostResolver,
	factory ClientFactory,
	keyed bool,
	logger log.Logger,
) *Pool {
	return &Pool{
		settings: settings.WithDefaults(),
		identity: identity,
		resolver: helpers.NilPanic(resolver, "adapters.mqtt.pool.go: resolver is required"),
		factory:  helpers.NilPanic(factory, "adapters.mqtt.pool.go: factory is required"),
		keyed:    keyed,
		logger:   log.With(helpers.NilPanic(logger, "adapters.mqtt.pool.go: logger is required"), "component", "mqtt_pool"),
		inbound:  make(chan domain.Inbound, 64),
		done:     make(chan struct{}),
		hosts:    make(map[string]*Host),
	}
}

// Bind records the port reported on inbound messages and starts the resolution loop after
// ResolveInitialDelay. The address is ignored.
func (p *Pool) Bind(_ context.Context, port int, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return service.NewBindError("mqtt pool is closed", nil)
	}
	if p.bound {
		return nil
	}
	p.port = port
	p.bound = true

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.loopDone = make(chan struct{})
	go p.resolveLoop(ctx, p.loopDone)
	return nil
}

func (p *Pool) resolveLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	timer := time.NewTimer(p.settings.ResolveInitialDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			timer.Reset(p.discoverBrokers(ctx))
		}
	}
}

// discoverBrokers runs one resolution round and returns the delay before the next one.
// A failed or empty resolution tears every connection down and asks for the after-error interval.
func (p *Pool) discoverBrokers(ctx context.Context) time.Duration {
	rctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	addresses, err := p.resolver.LookupBrokers(rctx, p.settings.Host)
	cancel()

	if err != nil || len(addresses) == 0 {
		result := "empty"
		if err != nil {
			result = "error"
		}
		telemetry.BrokerResolutions.WithLabelValues(result).Inc()
		level.Error(p.logger).Log(
			"msg", "no brokers resolved, dropping every connection",
			"host", p.settings.Host,
			"err", service.NewResolutionError("cannot resolve "+p.settings.Host, err),
		)
		p.replaceHosts(nil)
		return p.settings.ResolveIntervalAfterError
	}

	telemetry.BrokerResolutions.WithLabelValues("ok").Inc()
	p.replaceHosts(addresses)
	return p.settings.ResolveInterval
}

// replaceHosts makes the connection table match addresses: new addresses get a Host seeded with the last
// announcement, vanished ones are closed and reported as disconnected.
func (p *Pool) replaceHosts(addresses []string) {
	seen := make(map[string]bool, len(addresses))
	for _, a := range addresses {
		seen[a] = true
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	var added, removed []*Host
	for address := range seen {
		if _, ok := p.hosts[address]; ok {
			continue
		}
		h := newHost(address, hostConfig{
			settings:     p.settings,
			identity:     p.identity,
			port:         p.port,
			factory:      p.factory,
			deliver:      p.receive,
			onDisconnect: p.brokerDisconnected,
			logger:       p.logger,
		})
		if p.hasSent {
			h.seed(p.lastSend)
		}
		p.hosts[address] = h
		added = append(added, h)
	}
	for address, h := range p.hosts {
		if !seen[address] {
			delete(p.hosts, address)
			removed = append(removed, h)
		}
	}
	telemetry.BrokerConnections.Set(float64(len(p.hosts)))
	p.mu.Unlock()

	for _, h := range added {
		level.Info(p.logger).Log("msg", "adding broker", "broker", h.address)
		h.connect()
	}
	for _, h := range removed {
		level.Info(p.logger).Log("msg", "forgetting broker", "broker", h.address)
		h.Close()
		p.brokerDisconnected(h.address)
	}
}

// Brokers returns the addresses of the current connection table, sorted.
func (p *Pool) Brokers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.hosts))
	for address := range p.hosts {
		out = append(out, address)
	}
	sort.Strings(out)
	return out
}

// Send fans payload out to every broker. Announcements (domain.OverlayDestination) are published
// retained and skipped when equal to the previous one; domain.OverlayMessageDestination payloads are
// published once without retention. Fan-outs reach each broker in call order. Port is ignored.
func (p *Pool) Send(payload []byte, _ int, destination string) error {
	wire := payload
	if p.keyed && len(payload) > 0 {
		wire = []byte(base64.StdEncoding.EncodeToString(payload))
	}
	announce := destination != domain.OverlayMessageDestination

	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	p.sends.Wait()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	if announce {
		if p.hasSent && bytes.Equal(p.lastSend, wire) {
			p.mu.Unlock()
			return nil
		}
		p.lastSend = append([]byte{}, wire...)
		p.hasSent = true
	}
	hosts := make([]*Host, 0, len(p.hosts))
	for _, h := range p.hosts {
		hosts = append(hosts, h)
	}
	p.sends.Add(len(hosts))
	p.mu.Unlock()

	for _, h := range hosts {
		go func(h *Host) {
			defer p.sends.Done()
			var err error
			if announce {
				err = h.Send(wire)
			} else {
				err = h.Publish(wire)
			}
			if err != nil {
				level.Debug(p.logger).Log("msg", "broker send failed", "broker", h.address, "err", err)
			}
		}(h)
	}
	return nil
}

func (p *Pool) receive(in domain.Inbound) {
	if p.keyed && len(in.Payload) > 0 {
		decoded, err := base64.StdEncoding.DecodeString(string(in.Payload))
		if err != nil {
			level.Debug(p.logger).Log("msg", "dropping non base64 payload", "sender", in.SenderID, "broker", in.BrokerID)
			return
		}
		in.Payload = decoded
	}
	p.push(in)
}

func (p *Pool) brokerDisconnected(address string) {
	p.push(domain.Inbound{Kind: domain.InboundBrokerDisconnected, BrokerID: address})
}

func (p *Pool) push(in domain.Inbound) {
	select {
	case p.inbound <- in:
	case <-p.done:
	}
}

// Close stops resolving, waits for in-flight sends and closes every broker connection. Idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	cancel, loopDone := p.cancel, p.loopDone
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-loopDone
	}
	p.sends.Wait()

	p.mu.Lock()
	hosts := p.hosts
	p.hosts = make(map[string]*Host)
	p.mu.Unlock()

	for _, h := range hosts {
		h.Close()
	}
	telemetry.BrokerConnections.Set(0)
	level.Info(p.logger).Log("msg", "mqtt pool closed", "brokers", len(hosts))
	return nil
}

func (p *Pool) SetBroadcast(on bool) error { return nil }
func (p *Pool) AddMembership(group string) error { return nil }
func (p *Pool) SetMulticastTTL(ttl int) error { return nil }

// Overlay is always true: the destination is the topic namespace.
func (p *Pool) Overlay() bool { return true }

func (p *Pool) Inbound() <-chan domain.Inbound { return p.inbound }
