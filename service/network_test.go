package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezloteam/cote/domain"
	"github.com/ezloteam/cote/interfaces/mock"
)

type networkEvents struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *networkEvents) add(ev domain.Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *networkEvents) snapshot() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...)
}

func newTransportMock(inbound chan domain.Inbound, overlay bool) *mock.TransportMock {
	return &mock.TransportMock{
		InboundFunc: func() <-chan domain.Inbound { return inbound },
		OverlayFunc: func() bool { return overlay },
	}
}

func testIdentity(host string) domain.Identity {
	return domain.NewIdentity(host, "")
}

func TestNewNetwork_Panics(t *testing.T) {
	tr := newTransportMock(make(chan domain.Inbound), false)
	assert.PanicsWithValue(t, "service.network.go: transport is required", func() {
		NewNetwork(nil, NewCodec(""), testIdentity("a"), NetworkOptions{}, log.NewNopLogger())
	})
	assert.PanicsWithValue(t, "service.network.go: codec is required", func() {
		NewNetwork(tr, nil, testIdentity("a"), NetworkOptions{}, log.NewNopLogger())
	})
	assert.PanicsWithValue(t, "service.network.go: logger is required", func() {
		NewNetwork(tr, NewCodec(""), testIdentity("a"), NetworkOptions{}, nil)
	})
}

func TestNetwork_Start_DestinationPolicy(t *testing.T) {
	tests := []struct {
		name          string
		opts          NetworkOptions
		overlay       bool
		want          []string
		wantBroadcast bool
		wantGroup     string
	}{
		{
			name:    "unicast_wins_over_everything",
			opts:    NetworkOptions{Unicast: []string{"10.0.0.1", "10.0.0.2"}, Multicast: "239.1.1.1", Broadcast: "10.0.0.255"},
			overlay: true,
			want:    []string{"10.0.0.1", "10.0.0.2"},
		},
		{
			name:    "overlay_marker",
			opts:    NetworkOptions{Multicast: "239.1.1.1", Broadcast: "10.0.0.255"},
			overlay: true,
			want:    []string{domain.OverlayDestination},
		},
		{
			name:      "multicast_group",
			opts:      NetworkOptions{Multicast: "239.1.1.1", MulticastTTL: 3, Broadcast: "10.0.0.255"},
			want:      []string{"239.1.1.1"},
			wantGroup: "239.1.1.1",
		},
		{
			name:          "broadcast_fallback",
			opts:          NetworkOptions{Broadcast: "255.255.255.255"},
			want:          []string{"255.255.255.255"},
			wantBroadcast: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTransportMock(make(chan domain.Inbound), tt.overlay)
			n := NewNetwork(tr, NewCodec(""), testIdentity("a"), tt.opts, log.NewNopLogger())

			require.NoError(t, n.Start(context.Background()))
			defer n.Stop()

			assert.Equal(t, tt.want, n.Destinations())
			assert.Len(t, tr.BindCalls(), 1)
			if tt.wantBroadcast {
				require.Len(t, tr.SetBroadcastCalls(), 1)
				assert.True(t, tr.SetBroadcastCalls()[0].On)
			} else {
				assert.Empty(t, tr.SetBroadcastCalls())
			}
			if tt.wantGroup != "" {
				require.Len(t, tr.AddMembershipCalls(), 1)
				assert.Equal(t, tt.wantGroup, tr.AddMembershipCalls()[0].Group)
				require.Len(t, tr.SetMulticastTTLCalls(), 1)
				assert.Equal(t, tt.opts.MulticastTTL, tr.SetMulticastTTLCalls()[0].TTL)
			} else {
				assert.Empty(t, tr.AddMembershipCalls())
			}
		})
	}
}

func TestNetwork_Start_BindError(t *testing.T) {
	tr := newTransportMock(make(chan domain.Inbound), false)
	tr.BindFunc = func(ctx context.Context, port int, address string) error {
		return errors.New("address already in use")
	}
	n := NewNetwork(tr, NewCodec(""), testIdentity("a"), NetworkOptions{Port: 12345}, log.NewNopLogger())

	err := n.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsBindError(err))
	assert.Empty(t, n.Destinations())
}

func TestNetwork_Start_MulticastJoinFailureIsFatal(t *testing.T) {
	tr := newTransportMock(make(chan domain.Inbound), false)
	tr.AddMembershipFunc = func(group string) error {
		return errors.New("no such device")
	}
	n := NewNetwork(tr, NewCodec(""), testIdentity("a"), NetworkOptions{Multicast: "239.1.1.1"}, log.NewNopLogger())

	err := n.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsBindError(err))
	assert.Len(t, tr.CloseCalls(), 1)
	assert.Empty(t, tr.SendCalls())
}

func TestNetwork_Send_EveryDestination(t *testing.T) {
	tr := newTransportMock(make(chan domain.Inbound), false)
	id := testIdentity("a")
	n := NewNetwork(tr, NewCodec(""), id, NetworkOptions{Port: 4000, Unicast: []string{"h1", "h2"}}, log.NewNopLogger())
	require.NoError(t, n.Start(context.Background()))
	defer n.Stop()

	require.NoError(t, n.Send("ping", nil))

	calls := tr.SendCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "h1", calls[0].Destination)
	assert.Equal(t, "h2", calls[1].Destination)
	assert.Equal(t, 4000, calls[0].Port)
	assert.JSONEq(t, `{"event":"ping","iid":"`+id.InstanceID+`"}`, string(calls[0].Payload))
}

func TestNetwork_Send_KeyedHelloReusedWhileUnchanged(t *testing.T) {
	tr := newTransportMock(make(chan domain.Inbound), true)
	codec := NewCodec("secret")
	n := NewNetwork(tr, codec, testIdentity("a"), NetworkOptions{}, log.NewNopLogger())
	require.NoError(t, n.Start(context.Background()))
	defer n.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, n.Send(domain.EventHello, map[string]float64{"weight": 1}))
	}
	require.NoError(t, n.Send(domain.EventHello, map[string]float64{"weight": 2}))

	calls := tr.SendCalls()
	require.Len(t, calls, 4)
	assert.Equal(t, calls[0].Payload, calls[1].Payload)
	assert.Equal(t, calls[0].Payload, calls[2].Payload)
	assert.NotEqual(t, calls[0].Payload, calls[3].Payload)

	env, err := codec.Decode(calls[3].Payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"weight":2}`, string(env.Data))

	// a channel message in between does not disturb the reused announcement
	require.NoError(t, n.Send("jobs", map[string]int{"id": 1}))
	require.NoError(t, n.Send(domain.EventHello, map[string]float64{"weight": 2}))
	calls = tr.SendCalls()
	require.Len(t, calls, 6)
	assert.Equal(t, calls[3].Payload, calls[5].Payload)
}

func TestNetwork_Send_OverlayRouting(t *testing.T) {
	tr := newTransportMock(make(chan domain.Inbound), true)
	n := NewNetwork(tr, NewCodec(""), testIdentity("a"), NetworkOptions{}, log.NewNopLogger())
	require.NoError(t, n.Start(context.Background()))
	defer n.Stop()

	require.NoError(t, n.Send(domain.EventHello, map[string]float64{"weight": 1}))
	require.NoError(t, n.Send("jobs", map[string]int{"id": 1}))

	calls := tr.SendCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, domain.OverlayDestination, calls[0].Destination)
	assert.Equal(t, domain.OverlayMessageDestination, calls[1].Destination)
}

func TestNetwork_Send_PartialFailureIsNotReported(t *testing.T) {
	tr := newTransportMock(make(chan domain.Inbound), false)
	tr.SendFunc = func(payload []byte, port int, destination string) error {
		if destination == "h1" {
			return errors.New("unreachable")
		}
		return nil
	}
	n := NewNetwork(tr, NewCodec(""), testIdentity("a"), NetworkOptions{Unicast: []string{"h1", "h2"}}, log.NewNopLogger())
	require.NoError(t, n.Start(context.Background()))
	defer n.Stop()

	assert.NoError(t, n.Send("ping", map[string]int{"n": 1}))
	assert.Len(t, tr.SendCalls(), 2)
}

func TestNetwork_Send_EncodeError(t *testing.T) {
	tr := newTransportMock(make(chan domain.Inbound), false)
	codec := &mock.CodecMock{
		EncodeFunc: func(env domain.Envelope) ([]byte, error) {
			return nil, NewInternalServerError("cannot generate iv", nil)
		},
	}
	n := NewNetwork(tr, codec, testIdentity("a"), NetworkOptions{Unicast: []string{"h1"}}, log.NewNopLogger())
	require.NoError(t, n.Start(context.Background()))
	defer n.Stop()

	err := n.Send("ping", nil)
	assert.True(t, IsInternalServerError(err))
	assert.Empty(t, tr.SendCalls())
}

func TestNetwork_Stop_SendsDepartureThenCloses(t *testing.T) {
	tr := newTransportMock(make(chan domain.Inbound), false)
	n := NewNetwork(tr, NewCodec(""), testIdentity("a"), NetworkOptions{Unicast: []string{"h1", "h2"}}, log.NewNopLogger())
	require.NoError(t, n.Start(context.Background()))

	require.NoError(t, n.Stop())

	calls := tr.SendCalls()
	require.Len(t, calls, 2)
	for _, c := range calls {
		assert.Empty(t, c.Payload)
	}
	assert.Len(t, tr.CloseCalls(), 1)

	// second stop is a no-op
	require.NoError(t, n.Stop())
	assert.Len(t, tr.CloseCalls(), 1)
}

func TestNetwork_Inbound_Translation(t *testing.T) {
	inbound := make(chan domain.Inbound)
	tr := newTransportMock(inbound, true)
	id := testIdentity("local")
	codec := NewCodec("k")
	n := NewNetwork(tr, codec, id, NetworkOptions{IgnoreInstance: true}, log.NewNopLogger())
	sink := &networkEvents{}
	n.Subscribe(sink.add)
	require.NoError(t, n.Start(context.Background()))
	defer n.Stop()

	encode := func(env domain.Envelope) []byte {
		b, err := codec.Encode(env)
		require.NoError(t, err)
		return b
	}

	remote := domain.RemoteInfo{Address: "10.0.0.9", Port: 12345}
	inbound <- domain.Inbound{SenderID: "peer", Payload: encode(domain.Envelope{Event: "hello", IID: id.InstanceID, Data: []byte(`{"weight":1}`)}), Remote: remote}
	inbound <- domain.Inbound{SenderID: "peer", Payload: []byte("garbage that does not decrypt"), Remote: remote}
	inbound <- domain.Inbound{SenderID: "peer", Payload: encode(domain.Envelope{Event: "hello", IID: "other", Data: []byte(`{"weight":1}`)}), Remote: remote, BrokerID: "b1"}
	inbound <- domain.Inbound{SenderID: "peer", Payload: encode(domain.Envelope{Event: "ping", IID: "other"}), Remote: remote}
	inbound <- domain.Inbound{SenderID: "peer", Payload: []byte{}, BrokerID: "b2"}
	inbound <- domain.Inbound{Kind: domain.InboundBrokerDisconnected, BrokerID: "b3"}

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 4 }, time.Second, 5*time.Millisecond)
	events := sink.snapshot()

	assert.Equal(t, domain.EventNamed, events[0].Kind)
	assert.Equal(t, "hello", events[0].Name)
	assert.Equal(t, "peer", events[0].SenderID)
	assert.Equal(t, "b1", events[0].BrokerID)
	assert.Equal(t, remote, events[0].Remote)
	assert.JSONEq(t, `{"weight":1}`, string(events[0].Data))
	assert.Equal(t, "other", events[0].Envelope.IID)

	assert.Equal(t, domain.EventMessage, events[1].Kind)
	assert.Equal(t, "ping", events[1].Envelope.Event)

	assert.Equal(t, domain.EventNodeLeft, events[2].Kind)
	assert.Equal(t, "peer", events[2].SenderID)
	assert.Equal(t, "b2", events[2].BrokerID)

	assert.Equal(t, domain.EventBrokerDisconnected, events[3].Kind)
	assert.Equal(t, "b3", events[3].BrokerID)
}

func TestNetwork_Inbound_SelfAllowedWhenFilterDisabled(t *testing.T) {
	inbound := make(chan domain.Inbound)
	tr := newTransportMock(inbound, true)
	id := testIdentity("local")
	n := NewNetwork(tr, NewCodec(""), id, NetworkOptions{IgnoreInstance: false}, log.NewNopLogger())
	sink := &networkEvents{}
	n.Subscribe(sink.add)
	require.NoError(t, n.Start(context.Background()))
	defer n.Stop()

	inbound <- domain.Inbound{SenderID: "local", Payload: []byte(`{"event":"hello","iid":"` + id.InstanceID + `","data":{}}`)}

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.EventNamed, sink.snapshot()[0].Kind)
}

func TestNetworkOptionsFrom(t *testing.T) {
	s := domain.Settings{Unicast: []string{"a"}}.WithDefaults()
	opts := NetworkOptionsFrom(s)
	assert.Equal(t, domain.DefaultPort, opts.Port)
	assert.Equal(t, domain.DefaultBroadcast, opts.Broadcast)
	assert.Equal(t, []string{"a"}, opts.Unicast)
	assert.True(t, opts.IgnoreInstance)
}

func TestNetworkOptionsFrom_UnicastEntriesAreSplit(t *testing.T) {
	tests := []struct {
		name    string
		unicast []string
		want    []string
	}{
		{"none", nil, nil},
		{"comma_list", []string{"10.0.0.1,10.0.0.2"}, []string{"10.0.0.1", "10.0.0.2"}},
		{"mixed_entries", []string{"a, b", " c ", ""}, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NetworkOptionsFrom(domain.Settings{Unicast: tt.unicast}.WithDefaults())
			assert.Equal(t, tt.want, opts.Unicast)
		})
	}
}
