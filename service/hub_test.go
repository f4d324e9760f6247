package service

import (
	"context"
	"sync"

	"github.com/ezloteam/cote/domain"
)

// hub is an in-memory pub/sub overlay connecting hubTransports, delivering every payload to every other member.
type hub struct {
	mu      sync.Mutex
	members map[string]*hubTransport
}

func newHub() *hub {
	return &hub{members: make(map[string]*hubTransport)}
}

type hubTransport struct {
	hub     *hub
	host    string
	broker  string
	inbound chan domain.Inbound
	done    chan struct{}
	port    int
	once    sync.Once
}

func (h *hub) transport(host, broker string) *hubTransport {
	return &hubTransport{
		hub:     h,
		host:    host,
		broker:  broker,
		inbound: make(chan domain.Inbound, 64),
		done:    make(chan struct{}),
	}
}

func (t *hubTransport) Bind(ctx context.Context, port int, address string) error {
	t.port = port
	t.hub.mu.Lock()
	t.hub.members[t.host] = t
	t.hub.mu.Unlock()
	return nil
}

func (t *hubTransport) Send(payload []byte, port int, destination string) error {
	t.hub.mu.Lock()
	peers := make([]*hubTransport, 0, len(t.hub.members))
	for host, m := range t.hub.members {
		if host != t.host {
			peers = append(peers, m)
		}
	}
	t.hub.mu.Unlock()

	for _, p := range peers {
		in := domain.Inbound{
			SenderID: t.host,
			Payload:  append([]byte(nil), payload...),
			Remote:   domain.RemoteInfo{Address: t.host, Port: t.port},
			BrokerID: p.broker,
		}
		select {
		case p.inbound <- in:
		case <-p.done:
		}
	}
	return nil
}

func (t *hubTransport) Close() error {
	t.once.Do(func() {
		t.hub.mu.Lock()
		delete(t.hub.members, t.host)
		t.hub.mu.Unlock()
		close(t.done)
	})
	return nil
}

func (t *hubTransport) SetBroadcast(on bool) error { return nil }
func (t *hubTransport) AddMembership(group string) error { return nil }
func (t *hubTransport) SetMulticastTTL(ttl int) error { return nil }
func (t *hubTransport) Overlay() bool { return true }
func (t *hubTransport) Inbound() <-chan domain.Inbound { return t.inbound }
