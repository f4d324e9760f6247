package mqtt

import (
	"errors"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	done := make(chan struct{})
	close(done)
	return &fakeToken{err: err, done: done}
}

func (t *fakeToken) Wait() bool { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error { return t.err }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool { return false }
func (m fakeMessage) Qos() byte { return 0 }
func (m fakeMessage) Retained() bool { return false }
func (m fakeMessage) Topic() string { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte { return m.payload }
func (m fakeMessage) Ack() {}

type fakePublish struct {
	topic    string
	retained bool
	payload  []byte
}

// fakeClient is an in-memory paho.Client. Connect calls the OnConnect handler synchronously when
// autoConnect is set.
type fakeClient struct {
	opts        *paho.ClientOptions
	autoConnect bool

	mu                sync.Mutex
	connected         bool
	publishes         []fakePublish
	handlers          map[string]paho.MessageHandler
	disconnects       int
	panicOnDisconnect bool
}

var _ paho.Client = (*fakeClient)(nil)

func newFakeClient(opts *paho.ClientOptions, autoConnect bool) *fakeClient {
	return &fakeClient{opts: opts, autoConnect: autoConnect, handlers: make(map[string]paho.MessageHandler)}
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) IsConnectionOpen() bool { return c.IsConnected() }

func (c *fakeClient) Connect() paho.Token {
	if c.autoConnect {
		c.connectNow()
	}
	return newFakeToken(nil)
}

func (c *fakeClient) connectNow() {
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	if c.opts.OnConnect != nil {
		c.opts.OnConnect(c)
	}
}

func (c *fakeClient) loseConnection() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	if c.opts.OnConnectionLost != nil {
		c.opts.OnConnectionLost(c, errors.New("pingresp not received"))
	}
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.mu.Lock()
	c.connected = false
	c.disconnects++
	p := c.panicOnDisconnect
	c.mu.Unlock()
	if p {
		panic("connection already torn down")
	}
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	b, _ := payload.([]byte)
	c.mu.Lock()
	c.publishes = append(c.publishes, fakePublish{topic: topic, retained: retained, payload: append([]byte{}, b...)})
	c.mu.Unlock()
	return newFakeToken(nil)
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	c.mu.Lock()
	c.handlers[topic] = callback
	c.mu.Unlock()
	return newFakeToken(nil)
}

func (c *fakeClient) SubscribeMultiple(filters map[string]byte, callback paho.MessageHandler) paho.Token {
	for topic, qos := range filters {
		c.Subscribe(topic, qos, callback)
	}
	return newFakeToken(nil)
}

func (c *fakeClient) Unsubscribe(topics ...string) paho.Token {
	c.mu.Lock()
	for _, t := range topics {
		delete(c.handlers, t)
	}
	c.mu.Unlock()
	return newFakeToken(nil)
}

func (c *fakeClient) AddRoute(topic string, callback paho.MessageHandler) {}

func (c *fakeClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }

// deliver calls the handler subscribed on filter with a message on topic.
func (c *fakeClient) deliver(filter, topic string, payload []byte) bool {
	c.mu.Lock()
	h := c.handlers[filter]
	c.mu.Unlock()
	if h == nil {
		return false
	}
	h(c, fakeMessage{topic: topic, payload: payload})
	return true
}

func (c *fakeClient) published() []fakePublish {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]fakePublish(nil), c.publishes...)
}

func (c *fakeClient) disconnectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}

// fakeBrokers is a ClientFactory that remembers the client built for every broker address.
type fakeBrokers struct {
	autoConnect bool

	mu      sync.Mutex
	clients map[string]*fakeClient
	built   int
}

func newFakeBrokers(autoConnect bool) *fakeBrokers {
	return &fakeBrokers{autoConnect: autoConnect, clients: make(map[string]*fakeClient)}
}

func (f *fakeBrokers) factory(opts *paho.ClientOptions) paho.Client {
	c := newFakeClient(opts, f.autoConnect)
	f.mu.Lock()
	f.clients[opts.Servers[0].Hostname()] = c
	f.built++
	f.mu.Unlock()
	return c
}

func (f *fakeBrokers) client(address string) *fakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clients[address]
}
