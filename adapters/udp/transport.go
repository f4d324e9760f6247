package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/net/ipv4"

	"github.com/ezloteam/cote/domain"
	"github.com/ezloteam/cote/helpers"
	"github.com/ezloteam/cote/interfaces"
	"github.com/ezloteam/cote/service"
)

const maxDatagram = 64 * 1024

// Transport carries announcements in UDP datagrams: broadcast, multicast or a unicast list, depending on
// what the network channel configures after Bind. The sender id of an inbound datagram is the remote IP.
type Transport struct {
	reuseAddr bool
	logger    log.Logger
	inbound   chan domain.Inbound

	mu     sync.Mutex
	conn   *net.UDPConn
	pc     *ipv4.PacketConn
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

var _ interfaces.Transport = (*Transport)(nil)

// NewTransport creates an unbound UDP transport. Panics on nil logger.
//
// Called from adapters.NewTransport when no overlay is configured.
func NewTransport(reuseAddr bool, logger log.Logger) *Transport {
	return &Transport{
		reuseAddr: reuseAddr,
		logger:    log.With(helpers.NilPanic(logger, "adapters.udp.transport.go: logger is required"), "component", "udp_transport"),
		inbound:   make(chan domain.Inbound, 64),
	}
}

// Bind opens an IPv4 UDP socket on address:port and starts reading datagrams.
func (t *Transport) Bind(ctx context.Context, port int, address string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return service.NewBindError("udp transport already bound", nil)
	}

	lc := net.ListenConfig{Control: control(t.reuseAddr)}
	pconn, err := lc.ListenPacket(ctx, "udp4", net.JoinHostPort(address, strconv.Itoa(port)))
	if err != nil {
		return service.NewBindError(fmt.Sprintf("cannot listen on %s:%d", address, port), err)
	}
	conn := pconn.(*net.UDPConn)

	t.conn = conn
	t.pc = ipv4.NewPacketConn(conn)
	t.done = make(chan struct{})
	t.closed = false

	t.wg.Add(1)
	go t.read(conn, t.done)

	level.Debug(t.logger).Log("msg", "udp bound", "addr", conn.LocalAddr())
	return nil
}

func (t *Transport) read(conn *net.UDPConn, done chan struct{}) {
	defer t.wg.Done()
	buf := make([]byte, maxDatagram)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-done:
				return
			default:
			}
			level.Debug(t.logger).Log("msg", "udp read failed", "err", err)
			continue
		}

		in := domain.Inbound{
			SenderID: addr.IP.String(),
			Payload:  append([]byte{}, buf[:n]...),
			Remote:   domain.RemoteInfo{Address: addr.IP.String(), Port: addr.Port},
		}
		select {
		case t.inbound <- in:
		case <-done:
			return
		}
	}
}

// LocalAddr returns the bound address, nil before Bind.
func (t *Transport) LocalAddr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr()
}

// Send writes payload to destination. A destination with an explicit port overrides port.
func (t *Transport) Send(payload []byte, port int, destination string) error {
	conn, err := t.bound()
	if err != nil {
		return err
	}

	hostPort := destination
	if _, _, err := net.SplitHostPort(destination); err != nil {
		hostPort = net.JoinHostPort(destination, strconv.Itoa(port))
	}
	addr, err := net.ResolveUDPAddr("udp4", hostPort)
	if err != nil {
		return service.NewBadParameterError("cannot resolve destination "+destination, err)
	}
	if _, err := conn.WriteToUDP(payload, addr); err != nil {
		return service.NewConnectionError("udp write to "+hostPort+" failed", err)
	}
	return nil
}

// SetBroadcast toggles SO_BROADCAST on the bound socket.
func (t *Transport) SetBroadcast(on bool) error {
	conn, err := t.bound()
	if err != nil {
		return err
	}
	if err := setBroadcast(conn, on); err != nil {
		return service.NewBindError("cannot set SO_BROADCAST", err)
	}
	return nil
}

// AddMembership joins group on every multicast capable interface that is up, falling back to the
// system default interface. It fails when no interface could join.
func (t *Transport) AddMembership(group string) error {
	t.mu.Lock()
	pc := t.pc
	t.mu.Unlock()
	if pc == nil {
		return service.NewBindError("udp transport is not bound", nil)
	}

	ip := net.ParseIP(group)
	if ip == nil || ip.To4() == nil || !ip.IsMulticast() {
		return service.NewBadParameterError("invalid multicast group "+group, nil)
	}
	gaddr := &net.UDPAddr{IP: ip}

	joined := 0
	ifaces, err := net.Interfaces()
	if err != nil {
		level.Debug(t.logger).Log("msg", "cannot list interfaces", "err", err)
	}
	for i := range ifaces {
		ifi := ifaces[i]
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagMulticast == 0 {
			continue
		}
		if err := pc.JoinGroup(&ifi, gaddr); err != nil {
			level.Debug(t.logger).Log("msg", "join group failed", "iface", ifi.Name, "group", group, "err", err)
			continue
		}
		joined++
	}
	if joined == 0 {
		if err := pc.JoinGroup(nil, gaddr); err != nil {
			return service.NewBindError("no interface could join "+group, err)
		}
	}
	if err := pc.SetMulticastLoopback(true); err != nil {
		level.Debug(t.logger).Log("msg", "cannot enable multicast loopback", "err", err)
	}
	return nil
}

// SetMulticastTTL sets the TTL of outgoing multicast datagrams.
func (t *Transport) SetMulticastTTL(ttl int) error {
	t.mu.Lock()
	pc := t.pc
	t.mu.Unlock()
	if pc == nil {
		return service.NewBindError("udp transport is not bound", nil)
	}
	if err := pc.SetMulticastTTL(ttl); err != nil {
		return service.NewBindError("cannot set multicast ttl", err)
	}
	return nil
}

// Overlay is false: destinations are network addresses.
func (t *Transport) Overlay() bool { return false }

func (t *Transport) Inbound() <-chan domain.Inbound { return t.inbound }

// Close closes the socket and waits for the reader. Idempotent; the transport may be bound again.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.conn == nil || t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.done)
	conn := t.conn
	t.mu.Unlock()

	err := conn.Close()
	t.wg.Wait()

	t.mu.Lock()
	t.conn, t.pc = nil, nil
	t.mu.Unlock()
	return err
}

func (t *Transport) bound() (*net.UDPConn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, service.NewBindError("udp transport is not bound", nil)
	}
	return t.conn, nil
}
