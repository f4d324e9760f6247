package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/ezloteam/cote/helpers"
)

// Default values applied by Settings.WithDefaults.
const (
	DefaultHelloInterval   = time.Second
	DefaultCheckInterval   = 2 * time.Second
	DefaultNodeTimeout     = 2 * time.Second
	DefaultMasterTimeout   = 2 * time.Second
	DefaultAddress         = "0.0.0.0"
	DefaultPort            = 12345
	DefaultBroadcast       = "255.255.255.255"
	DefaultMulticastTTL    = 1
	DefaultTopicPrefix     = "node-discover/"
	DefaultMQTTHost        = "mqtt"
	DefaultMQTTPort        = 1883
	DefaultMQTTProtocol    = "tcp"
	DefaultResolveInterval = 30 * time.Second
	DefaultResolveDelay    = 100 * time.Millisecond
	DefaultKeepAlive       = 10 * time.Second
	DefaultReconnectPeriod = time.Second
	DefaultConnectTimeout  = 30 * time.Second
)

// MQTTSettings selects the multi-broker MQTT overlay. Host is resolved periodically; every resolved address gets its own connection.
type MQTTSettings struct {
	Host                      string
	Port                      int
	Protocol                  string // tcp, ssl, ws, wss
	TopicPrefix               string
	ResolveInterval           time.Duration
	ResolveIntervalAfterError time.Duration
	ResolveInitialDelay       time.Duration
	KeepAlive                 time.Duration
	ReconnectPeriod           time.Duration
	ConnectTimeout            time.Duration
}

// RedisSettings selects the Redis pub/sub transport. Addr is a redis:// URL.
type RedisSettings struct {
	Addr          string
	ChannelPrefix string
}

// Settings is the full option surface of the membership engine and its network channel.
// Zero values mean "use the default"; pointer booleans distinguish unset from false.
type Settings struct {
	HelloInterval time.Duration
	CheckInterval time.Duration
	NodeTimeout   time.Duration
	MasterTimeout time.Duration

	Address      string
	Port         int
	Broadcast    string
	Multicast    string
	MulticastTTL int
	Unicast      []string
	Key          string

	ReuseAddr      *bool
	IgnoreInstance *bool

	// IgnoreProcess is accepted and defaulted for configuration compatibility only. Nothing filters on it;
	// self announcements are dropped by IgnoreInstance.
	IgnoreProcess *bool

	Client bool
	Server bool

	Redis *RedisSettings
	MQTT  *MQTTSettings

	// Weight produces this node's weight. It is evaluated once at construction.
	Weight        func() float64
	Advertisement any
}

// WithDefaults returns a copy of s with every unset field replaced by its default.
// When neither Client nor Server is set, both are enabled.
func (s Settings) WithDefaults() Settings {
	out := s
	if out.HelloInterval == 0 {
		out.HelloInterval = DefaultHelloInterval
	}
	if out.CheckInterval == 0 {
		out.CheckInterval = DefaultCheckInterval
	}
	if out.NodeTimeout == 0 {
		out.NodeTimeout = DefaultNodeTimeout
	}
	if out.MasterTimeout == 0 {
		out.MasterTimeout = DefaultMasterTimeout
	}
	if out.Address == "" {
		out.Address = DefaultAddress
	}
	if out.Port == 0 {
		out.Port = DefaultPort
	}
	if out.Broadcast == "" {
		out.Broadcast = DefaultBroadcast
	}
	if out.MulticastTTL == 0 {
		out.MulticastTTL = DefaultMulticastTTL
	}
	if out.ReuseAddr == nil {
		out.ReuseAddr = helpers.Ptr(true)
	}
	if out.IgnoreInstance == nil {
		out.IgnoreInstance = helpers.Ptr(true)
	}
	if out.IgnoreProcess == nil {
		out.IgnoreProcess = helpers.Ptr(true)
	}
	if !out.Client && !out.Server {
		out.Client = true
		out.Server = true
	}
	if out.MQTT != nil {
		m := out.MQTT.WithDefaults()
		out.MQTT = &m
	}
	if out.Redis != nil {
		r := *out.Redis
		if r.ChannelPrefix == "" {
			r.ChannelPrefix = DefaultTopicPrefix
		}
		out.Redis = &r
	}
	return out
}

// WithDefaults returns a copy of m with every unset field replaced by its default.
func (m MQTTSettings) WithDefaults() MQTTSettings {
	if m.Host == "" {
		m.Host = DefaultMQTTHost
	}
	if m.Port == 0 {
		m.Port = DefaultMQTTPort
	}
	if m.Protocol == "" {
		m.Protocol = DefaultMQTTProtocol
	}
	if m.TopicPrefix == "" {
		m.TopicPrefix = DefaultTopicPrefix
	}
	if m.ResolveInterval == 0 {
		m.ResolveInterval = DefaultResolveInterval
	}
	if m.ResolveIntervalAfterError == 0 {
		m.ResolveIntervalAfterError = DefaultResolveInterval
	}
	if m.ResolveInitialDelay == 0 {
		m.ResolveInitialDelay = DefaultResolveDelay
	}
	if m.KeepAlive == 0 {
		m.KeepAlive = DefaultKeepAlive
	}
	if m.ReconnectPeriod == 0 {
		m.ReconnectPeriod = DefaultReconnectPeriod
	}
	if m.ConnectTimeout == 0 {
		m.ConnectTimeout = DefaultConnectTimeout
	}
	return m
}

// Validate checks the ordering invariants of the interval quadruple and the mutually exclusive transport selection.
// It must be called on settings that went through WithDefaults.
func (s Settings) Validate() error {
	if s.NodeTimeout < s.CheckInterval {
		return ErrNodeTimeoutTooSmall
	}
	if s.MasterTimeout < s.NodeTimeout {
		return ErrMasterTimeoutTooSmall
	}
	if s.HelloInterval <= 0 {
		return ErrInvalidHelloInterval
	}
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, s.Port)
	}
	if s.Redis != nil && s.MQTT != nil {
		return ErrConflictingTransports
	}
	if s.Redis != nil && strings.TrimSpace(s.Redis.Addr) == "" {
		return ErrMissingRedisAddr
	}
	if s.MQTT != nil && strings.TrimSpace(s.MQTT.Host) == "" {
		return ErrMissingMQTTHost
	}
	return nil
}

// Overlay reports whether a pub/sub overlay transport is selected.
func (s Settings) Overlay() bool {
	return s.Redis != nil || s.MQTT != nil
}

// ParseUnicast splits a comma separated destination list, trimming spaces and dropping empty entries.
func ParseUnicast(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
