package myredis

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-redis/redis/v8"

	"github.com/ezloteam/cote/domain"
	"github.com/ezloteam/cote/helpers"
	"github.com/ezloteam/cote/interfaces"
	"github.com/ezloteam/cote/service"
)

// Transport carries announcements over redis pub/sub. Each node publishes on prefix+hostName and
// pattern-subscribes to prefix*; the channel suffix identifies the sender. The transport owns the client.
type Transport struct {
	client   redis.UniversalClient
	prefix   string
	hostName string
	logger   log.Logger
	inbound  chan domain.Inbound

	mu     sync.Mutex
	pubsub *redis.PubSub
	port   int
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

var _ interfaces.Transport = (*Transport)(nil)

// NewTransport creates a redis pub/sub transport. Panics on nil client or logger and on empty prefix or host name.
//
// Called from adapters.NewTransport when redis settings are present.
func NewTransport(client redis.UniversalClient, settings domain.RedisSettings, identity domain.Identity, logger log.Logger) *Transport {
	return &Transport{
		client:   helpers.NilPanic(client, "adapters.myredis.transport.go: client is required"),
		prefix:   helpers.StrPanic(settings.ChannelPrefix, "adapters.myredis.transport.go: channel prefix is required"),
		hostName: helpers.StrPanic(identity.HostName, "adapters.myredis.transport.go: host name is required"),
		logger:   log.With(helpers.NilPanic(logger, "adapters.myredis.transport.go: logger is required"), "component", "redis_transport"),
		inbound:  make(chan domain.Inbound, 64),
		done:     make(chan struct{}),
	}
}

// Bind subscribes to the channel namespace. The subscription is confirmed before Bind returns.
func (t *Transport) Bind(ctx context.Context, port int, address string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return service.NewBindError("redis transport is closed", nil)
	}
	if t.pubsub != nil {
		return nil
	}

	ps := t.client.PSubscribe(ctx, t.prefix+"*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return service.NewBindError("cannot subscribe to "+t.prefix+"*", err)
	}
	t.pubsub = ps
	t.port = port

	t.wg.Add(1)
	go t.receive(ps.Channel(), port)
	return nil
}

func (t *Transport) receive(messages <-chan *redis.Message, port int) {
	defer t.wg.Done()
	for {
		select {
		case <-t.done:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			sender := strings.TrimPrefix(msg.Channel, t.prefix)
			if sender == t.hostName {
				continue
			}
			in := domain.Inbound{
				SenderID: sender,
				Payload:  []byte(msg.Payload),
				Remote:   domain.RemoteInfo{Address: sender, Port: port},
			}
			select {
			case t.inbound <- in:
			case <-t.done:
				return
			}
		}
	}
}

// Send publishes payload on the node's own channel; port and destination are ignored.
func (t *Transport) Send(payload []byte, port int, destination string) error {
	if err := t.client.Publish(context.Background(), t.prefix+t.hostName, payload).Err(); err != nil {
		return service.NewConnectionError("redis publish failed", fmt.Errorf("channel '%s': %w", t.prefix+t.hostName, err))
	}
	return nil
}

// Close unsubscribes and closes the client. Idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.done)
	ps := t.pubsub
	t.mu.Unlock()

	if ps != nil {
		if err := ps.Close(); err != nil {
			level.Debug(t.logger).Log("msg", "pubsub close failed", "err", err)
		}
	}
	t.wg.Wait()
	return t.client.Close()
}

func (t *Transport) SetBroadcast(on bool) error { return nil }
func (t *Transport) AddMembership(group string) error { return nil }
func (t *Transport) SetMulticastTTL(ttl int) error { return nil }

// Overlay is always true: the destination is the pub/sub namespace.
func (t *Transport) Overlay() bool { return true }

func (t *Transport) Inbound() <-chan domain.Inbound { return t.inbound }
