package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/ezloteam/cote/domain"
	"github.com/ezloteam/cote/helpers"
	"github.com/ezloteam/cote/interfaces"
	"github.com/ezloteam/cote/telemetry"
)

// Option customizes a Discover at construction.
type Option func(*Discover)

// WithTimeProvider replaces the wall clock used for the default weight and LastSeen stamps.
func WithTimeProvider(tp interfaces.TimeProvider) Option {
	return func(d *Discover) {
		d.timeProvider = helpers.NilPanic(tp, "service.discover.go: time provider is required")
	}
}

// Discover is the membership engine: it announces the local node and maintains the peer table from the
// announcements it receives.
//
// Peers are keyed by instance id. A peer's host name is its reachability key: the host stays in the table
// as long as at least one broker (the implicit "" broker on UDP and Redis) reports it reachable.
//
// Implements interfaces.Discoverer. Built in cmd/main.
type Discover struct {
	settings     domain.Settings
	identity     domain.Identity
	network      *Network
	timeProvider interfaces.TimeProvider
	logger       log.Logger
	weight       float64

	// lifecycle is held for the whole of Start and Stop.
	lifecycle sync.Mutex

	mu            sync.Mutex
	handler       func(domain.NodeEvent)
	running       bool
	stopHello     chan struct{}
	helloDone     chan struct{}
	advertisement json.RawMessage
	nodes         map[string]domain.Node
	sources       map[string]map[string]struct{}
	channels      map[string]struct{}
}

var _ interfaces.Discoverer = (*Discover)(nil)

// NewDiscover creates the membership engine on top of transport. Settings are defaulted and validated;
// invalid interval ordering or transport selection is returned as a bad_parameter error.
// Panics on nil transport or logger.
func NewDiscover(
	settings domain.Settings,
	transport interfaces.Transport,
	identity domain.Identity,
	logger log.Logger,
	opts ...Option,
) (*Discover, error) {
	helpers.NilPanic(transport, "service.discover.go: transport is required")
	helpers.NilPanic(logger, "service.discover.go: logger is required")

	s := settings.WithDefaults()
	if err := s.Validate(); err != nil {
		return nil, NewBadParameterError("invalid discovery settings", err)
	}

	d := &Discover{
		settings:     s,
		identity:     identity,
		timeProvider: NewTimeProvider(func() time.Time { return time.Now().UTC() }),
		logger:       log.With(logger, "component", "discover"),
		nodes:        make(map[string]domain.Node),
		sources:      make(map[string]map[string]struct{}),
		channels:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	if s.Advertisement != nil {
		raw, err := json.Marshal(s.Advertisement)
		if err != nil {
			return nil, NewBadParameterError("cannot serialize advertisement", err)
		}
		d.advertisement = raw
	}

	if s.Weight != nil {
		d.weight = s.Weight()
	} else {
		d.weight = DefaultWeight(d.timeProvider.Now())
	}

	d.network = NewNetwork(transport, NewCodec(s.Key), identity, NetworkOptionsFrom(s), logger)
	d.network.Subscribe(d.onEvent)
	return d, nil
}

// Subscribe sets the single receiver of membership events. Events are delivered outside of internal locks.
func (d *Discover) Subscribe(handler func(domain.NodeEvent)) {
	d.mu.Lock()
	d.handler = handler
	d.mu.Unlock()
}

// Identity returns the local identity.
func (d *Discover) Identity() domain.Identity {
	return d.identity
}

// Me returns the hello payload of the next announcement.
func (d *Discover) Me() domain.Hello {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.me()
}

func (d *Discover) me() domain.Hello {
	return domain.Hello{
		Weight:        d.weight,
		Advertisement: append(json.RawMessage(nil), d.advertisement...),
	}
}

// Running reports whether Start succeeded and Stop has not been called since.
func (d *Discover) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Start binds the network channel. In server role it announces immediately and then every HelloInterval.
// It returns false with a nil error when already running. A bind failure is emitted as an error event and returned.
// Start and Stop never interleave.
func (d *Discover) Start(ctx context.Context) (bool, error) {
	d.lifecycle.Lock()
	started, announced, err := d.start(ctx)
	d.lifecycle.Unlock()

	if err != nil {
		level.Error(d.logger).Log("msg", "cannot start discovery", "err", err)
		d.emit(domain.NodeEvent{Kind: domain.DiscoverError, Err: err})
		return false, err
	}
	if announced {
		d.emit(domain.NodeEvent{Kind: domain.HelloEmitted})
	}
	return started, nil
}

// start runs under lifecycle. announced reports whether the first hello went out.
func (d *Discover) start(ctx context.Context) (started, announced bool, err error) {
	if d.Running() {
		return false, false, nil
	}
	if err := d.network.Start(ctx); err != nil {
		return false, false, err
	}

	var stop, done chan struct{}
	if d.settings.Server {
		if err := d.network.Send(domain.EventHello, d.Me()); err != nil {
			level.Warn(d.logger).Log("msg", "hello failed", "err", err)
		} else {
			announced = true
		}
		stop, done = make(chan struct{}), make(chan struct{})
		go d.helloLoop(stop, done)
	}

	d.mu.Lock()
	d.running = true
	d.stopHello, d.helloDone = stop, done
	d.mu.Unlock()

	level.Info(d.logger).Log(
		"msg", "discovery started",
		"iid", d.identity.InstanceID,
		"host", d.identity.HostName,
		"server", d.settings.Server,
		"client", d.settings.Client,
	)
	return true, announced, nil
}

// Stop stops announcing, sends the departure signal and releases the transport.
// It returns false when not running.
func (d *Discover) Stop() bool {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return false
	}
	d.running = false
	stop, done := d.stopHello, d.helloDone
	d.stopHello, d.helloDone = nil, nil
	d.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	if err := d.network.Stop(); err != nil {
		level.Warn(d.logger).Log("msg", "network stop failed", "err", err)
	}
	level.Info(d.logger).Log("msg", "discovery stopped")
	return true
}

func (d *Discover) helloLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(d.settings.HelloInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := d.Hello(); err != nil {
				level.Warn(d.logger).Log("msg", "hello failed", "err", err)
			}
		}
	}
}

// Hello announces {weight, advertisement} as a hello event and emits HelloEmitted.
func (d *Discover) Hello() error {
	if err := d.network.Send(domain.EventHello, d.Me()); err != nil {
		return err
	}
	d.emit(domain.NodeEvent{Kind: domain.HelloEmitted})
	return nil
}

// Advertise replaces the advertisement carried by subsequent hellos.
func (d *Discover) Advertise(v any) error {
	var raw json.RawMessage
	if v != nil {
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return NewBadParameterError("cannot serialize advertisement", err)
		}
	}
	d.mu.Lock()
	d.advertisement = raw
	d.mu.Unlock()
	return nil
}

// EachNode calls visit for every peer of a snapshot of the table.
func (d *Discover) EachNode(visit func(domain.Node)) {
	for _, n := range d.Nodes() {
		visit(n)
	}
}

// Nodes returns a copy of the peer table.
func (d *Discover) Nodes() []domain.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.Node, 0, len(d.nodes))
	for _, n := range d.nodes {
		out = append(out, n.Clone())
	}
	return out
}

func (d *Discover) onEvent(ev domain.Event) {
	var events []domain.NodeEvent
	switch ev.Kind {
	case domain.EventNamed:
		if ev.Name == domain.EventHello {
			events = d.evaluateHello(ev)
		} else {
			events = d.channelMessage(ev)
		}
	case domain.EventNodeLeft:
		events = d.nodeLeft(ev.SenderID, ev.BrokerID)
	case domain.EventBrokerDisconnected:
		events = d.brokerDisconnected(ev.BrokerID)
	}
	for _, e := range events {
		d.emit(e)
	}
}

func (d *Discover) emit(ev domain.NodeEvent) {
	telemetry.PeerEvents.WithLabelValues(ev.Kind.String()).Inc()
	d.mu.Lock()
	handler := d.handler
	d.mu.Unlock()
	if handler != nil {
		handler(ev)
	}
}
