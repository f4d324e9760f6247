package mqtt

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/ezloteam/cote/domain"
	"github.com/ezloteam/cote/service"
)

const (
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250 // ms
)

// Host is one broker connection. It keeps the last announcement retained on the node's own topic,
// subscribes to the whole prefix and relies on an empty retained will as the departure signal.
type Host struct {
	address       string
	prefix        string
	announceTopic string
	port          int
	client        paho.Client
	deliver       func(domain.Inbound)
	onDisconnect  func(brokerID string)
	logger        log.Logger

	// publishMu orders announcement publishes, including the republish on connect.
	publishMu sync.Mutex

	mu       sync.Mutex
	lastSent []byte
	hasSent  bool
	closed   bool
}

// hostConfig carries what a Host needs from its pool.
type hostConfig struct {
	settings     domain.MQTTSettings
	identity     domain.Identity
	port         int
	factory      ClientFactory
	deliver      func(domain.Inbound)
	onDisconnect func(brokerID string)
	logger       log.Logger
}

// newHost builds the client for address. The connection is opened by connect.
func newHost(address string, cfg hostConfig) *Host {
	h := &Host{
		address:       address,
		prefix:        cfg.settings.TopicPrefix,
		announceTopic: cfg.settings.TopicPrefix + cfg.identity.HostName,
		port:          cfg.port,
		deliver:       cfg.deliver,
		onDisconnect:  cfg.onDisconnect,
		logger:        log.With(cfg.logger, "broker", address),
	}
	h.client = cfg.factory(h.clientOptions(cfg.settings, cfg.identity))
	return h
}

// ClientID derives the MQTT client id from the host name and instance id. It is stable for a process
// and distinct between restarts.
func ClientID(hostName, instanceID string) string {
	sum := md5.Sum([]byte(instanceID))
	id := hostName + hex.EncodeToString(sum[:])
	return id[22:]
}

// BrokerURL formats the paho server URL of a resolved broker address.
func BrokerURL(settings domain.MQTTSettings, address string) string {
	return fmt.Sprintf("%s://%s:%d", settings.Protocol, address, settings.Port)
}

func (h *Host) clientOptions(settings domain.MQTTSettings, identity domain.Identity) *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(BrokerURL(settings, h.address))
	opts.SetClientID(ClientID(identity.HostName, identity.InstanceID))
	opts.SetKeepAlive(settings.KeepAlive)
	opts.SetConnectTimeout(settings.ConnectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(settings.ReconnectPeriod)
	opts.SetMaxReconnectInterval(settings.ReconnectPeriod)
	opts.SetCleanSession(true)
	opts.SetBinaryWill(h.announceTopic, []byte{}, 0, true)
	opts.SetOnConnectHandler(h.onConnect)
	opts.SetConnectionLostHandler(h.onConnectionLost)
	return opts
}

// connect starts connecting in the background; paho keeps retrying until Close.
func (h *Host) connect() {
	token := h.client.Connect()
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			level.Warn(h.logger).Log("msg", "broker connect failed", "err", service.NewConnectionError("connect", err))
		}
	}()
}

func (h *Host) onConnect(c paho.Client) {
	level.Info(h.logger).Log("msg", "broker connected")

	h.publishMu.Lock()
	h.mu.Lock()
	payload, has := h.lastSent, h.hasSent
	h.mu.Unlock()
	if has {
		h.wait(c.Publish(h.announceTopic, 0, true, payload), "republish")
	}
	h.publishMu.Unlock()

	h.wait(c.Subscribe(h.prefix+"#", 0, h.onMessage), "subscribe")
}

func (h *Host) onConnectionLost(_ paho.Client, err error) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return
	}
	level.Warn(h.logger).Log("msg", "broker connection lost", "err", err)
	h.onDisconnect(h.address)
}

func (h *Host) onMessage(_ paho.Client, msg paho.Message) {
	topic := msg.Topic()
	if topic == h.announceTopic || !strings.HasPrefix(topic, h.prefix) {
		return
	}
	h.deliver(domain.Inbound{
		SenderID: strings.TrimPrefix(topic, h.prefix),
		Payload:  append([]byte{}, msg.Payload()...),
		Remote:   domain.RemoteInfo{Address: h.address, Port: h.port},
		BrokerID: h.address,
	})
}

// seed sets the payload published on the first connect without publishing it now.
func (h *Host) seed(payload []byte) {
	h.mu.Lock()
	h.lastSent = append([]byte{}, payload...)
	h.hasSent = true
	h.mu.Unlock()
}

// Send publishes payload retained on the announce topic unless it equals the last one.
// While disconnected the payload is only remembered and goes out on the next connect.
func (h *Host) Send(payload []byte) error {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	h.mu.Lock()
	if h.closed || (h.hasSent && bytes.Equal(h.lastSent, payload)) {
		h.mu.Unlock()
		return nil
	}
	h.lastSent = append([]byte{}, payload...)
	h.hasSent = true
	h.mu.Unlock()

	if !h.client.IsConnected() {
		return nil
	}
	return h.publish(payload, true)
}

// Publish sends payload on the announce topic without retention. The retained announcement and the
// dedup baseline stay as they are. Dropped while disconnected.
func (h *Host) Publish(payload []byte) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed || !h.client.IsConnected() {
		return nil
	}
	return h.publish(payload, false)
}

func (h *Host) publish(payload []byte, retained bool) error {
	token := h.client.Publish(h.announceTopic, 0, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return service.NewConnectionError("publish to "+h.address+" timed out", nil)
	}
	if err := token.Error(); err != nil {
		return service.NewConnectionError("publish to "+h.address+" failed", err)
	}
	return nil
}

// Close disconnects. Errors and panics of the client are swallowed. Idempotent.
func (h *Host) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			level.Debug(h.logger).Log("msg", "broker close panicked", "panic", fmt.Sprint(r))
		}
	}()
	h.client.Disconnect(disconnectQuiesce)
}

func (h *Host) wait(token paho.Token, op string) {
	if !token.WaitTimeout(publishTimeout) {
		level.Warn(h.logger).Log("msg", "broker "+op+" timed out")
		return
	}
	if err := token.Error(); err != nil {
		level.Warn(h.logger).Log("msg", "broker "+op+" failed", "err", err)
	}
}
