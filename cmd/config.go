package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ezloteam/cote/domain"
	"github.com/ezloteam/cote/helpers"
)

// Env variable names.
const (
	envHTTPPort     = "SERVICE_PORT_HTTP"
	envGRPCPort     = "SERVICE_PORT_GRPC"
	envConfigPath   = "CONFIG_PATH"
	envLogLevel     = "LOG_LEVEL"
	envHostName     = "DISCOVERY_HOSTNAME"
	envAddress      = "DISCOVER_ADDRESS"
	envPort         = "DISCOVER_PORT"
	envBroadcast    = "DISCOVER_BROADCAST"
	envMulticast    = "DISCOVER_MULTICAST"
	envMulticastTTL = "DISCOVER_MULTICAST_TTL"
	envUnicast      = "DISCOVER_UNICAST"
	envKey          = "DISCOVER_KEY"
	envRedisAddr    = "REDIS_ADDR"
	envMQTTHost     = "MQTT_HOST"
	defaultHTTPPort = 8080
	defaultGRPCPort = 5001
	defaultLogLevel = "info"
)

// Config is the process configuration: listening ports of the status surfaces, log level,
// host name and the settings of the discovery engine.
type Config struct {
	HTTPPort int
	GRPCPort int
	LogLevel string
	HostName string
	Discover domain.Settings
}

// yamlConfig is the root of the optional file at CONFIG_PATH.
type yamlConfig struct {
	HTTPPort int          `yaml:"http_port"`
	GRPCPort int          `yaml:"grpc_port"`
	LogLevel string       `yaml:"log_level"`
	HostName string       `yaml:"hostname"`
	Discover yamlDiscover `yaml:"discover"`
}

type yamlDiscover struct {
	HelloIntervalMs int        `yaml:"hello_interval_ms"`
	CheckIntervalMs int        `yaml:"check_interval_ms"`
	NodeTimeoutMs   int        `yaml:"node_timeout_ms"`
	MasterTimeoutMs int        `yaml:"master_timeout_ms"`
	Address         string     `yaml:"address"`
	Port            int        `yaml:"port"`
	Broadcast       string     `yaml:"broadcast"`
	Multicast       string     `yaml:"multicast"`
	MulticastTTL    int        `yaml:"multicast_ttl"`
	Unicast         []string   `yaml:"unicast"`
	Key             string     `yaml:"key"`
	ReuseAddr       *bool      `yaml:"reuse_addr"`
	IgnoreInstance  *bool      `yaml:"ignore_instance"`
	IgnoreProcess   *bool      `yaml:"ignore_process"`
	Client          bool       `yaml:"client"`
	Server          bool       `yaml:"server"`
	Advertisement   any        `yaml:"advertisement"`
	Redis           *yamlRedis `yaml:"redis"`
	MQTT            *yamlMQTT  `yaml:"mqtt"`
}

type yamlRedis struct {
	Addr          string `yaml:"addr"`
	ChannelPrefix string `yaml:"channel_prefix"`
}

// yamlMQTT holds the broker pool options; durations are milliseconds.
type yamlMQTT struct {
	Host                        string `yaml:"host"`
	Port                        int    `yaml:"port"`
	Protocol                    string `yaml:"protocol"`
	TopicPrefix                 string `yaml:"topic_prefix"`
	ResolveIntervalMs           int    `yaml:"resolve_interval_ms"`
	ResolveIntervalAfterErrorMs int    `yaml:"resolve_interval_after_error_ms"`
	ResolveInitialDelayMs       int    `yaml:"resolve_initial_delay_ms"`
	KeepAliveMs                 int    `yaml:"keep_alive_ms"`
	ReconnectPeriodMs           int    `yaml:"reconnect_period_ms"`
	ConnectTimeoutMs            int    `yaml:"connect_timeout_ms"`
}

func loadYAMLConfig(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out yamlConfig
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// toSettings maps the discover section of the file onto engine settings.
func (y yamlDiscover) toSettings() domain.Settings {
	s := domain.Settings{
		HelloInterval:  ms(y.HelloIntervalMs),
		CheckInterval:  ms(y.CheckIntervalMs),
		NodeTimeout:    ms(y.NodeTimeoutMs),
		MasterTimeout:  ms(y.MasterTimeoutMs),
		Address:        y.Address,
		Port:           y.Port,
		Broadcast:      y.Broadcast,
		Multicast:      y.Multicast,
		MulticastTTL:   y.MulticastTTL,
		Unicast:        y.Unicast,
		Key:            y.Key,
		ReuseAddr:      y.ReuseAddr,
		IgnoreInstance: y.IgnoreInstance,
		IgnoreProcess:  y.IgnoreProcess,
		Client:         y.Client,
		Server:         y.Server,
		Advertisement:  y.Advertisement,
	}
	if y.Redis != nil {
		s.Redis = &domain.RedisSettings{Addr: y.Redis.Addr, ChannelPrefix: y.Redis.ChannelPrefix}
	}
	if y.MQTT != nil {
		s.MQTT = &domain.MQTTSettings{
			Host:                      y.MQTT.Host,
			Port:                      y.MQTT.Port,
			Protocol:                  y.MQTT.Protocol,
			TopicPrefix:               y.MQTT.TopicPrefix,
			ResolveInterval:           ms(y.MQTT.ResolveIntervalMs),
			ResolveIntervalAfterError: ms(y.MQTT.ResolveIntervalAfterErrorMs),
			ResolveInitialDelay:       ms(y.MQTT.ResolveInitialDelayMs),
			KeepAlive:                 ms(y.MQTT.KeepAliveMs),
			ReconnectPeriod:           ms(y.MQTT.ReconnectPeriodMs),
			ConnectTimeout:            ms(y.MQTT.ConnectTimeoutMs),
		}
	}
	return s
}

// LoadConfig builds the process config from the optional YAML file at CONFIG_PATH and environment
// variables; environment wins. REDIS_ADDR selects the redis transport and MQTT_HOST the broker pool,
// replacing whatever overlay the file configured. The engine settings are validated before returning.
//
// Called only from main at startup.
func LoadConfig() (*Config, error) {
	raw := &yamlConfig{}
	if configPath := strings.TrimSpace(os.Getenv(envConfigPath)); configPath != "" {
		if !filepath.IsAbs(configPath) {
			abs, err := filepath.Abs(configPath)
			if err != nil {
				return nil, err
			}
			configPath = abs
		}
		loaded, err := loadYAMLConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", configPath, err)
		}
		raw = loaded
	}

	cfg := &Config{
		HTTPPort: raw.HTTPPort,
		GRPCPort: raw.GRPCPort,
		LogLevel: raw.LogLevel,
		HostName: raw.HostName,
		Discover: raw.Discover.toSettings(),
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = defaultHTTPPort
	}
	if cfg.GRPCPort == 0 {
		cfg.GRPCPort = defaultGRPCPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	var err error
	if cfg.HTTPPort, err = envPortOr(envHTTPPort, cfg.HTTPPort); err != nil {
		return nil, err
	}
	if cfg.GRPCPort, err = envPortOr(envGRPCPort, cfg.GRPCPort); err != nil {
		return nil, err
	}
	if v := envString(envLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if _, err := levelOption(cfg.LogLevel); err != nil {
		return nil, err
	}
	if v := envString(envHostName); v != "" {
		cfg.HostName = v
	}

	s := &cfg.Discover
	if v := envString(envAddress); v != "" {
		s.Address = v
	}
	if s.Port, err = envPortOr(envPort, s.Port); err != nil {
		return nil, err
	}
	if v := envString(envBroadcast); v != "" {
		s.Broadcast = v
	}
	if v := envString(envMulticast); v != "" {
		s.Multicast = v
	}
	if v := envString(envMulticastTTL); v != "" {
		ttl, convErr := strconv.Atoi(v)
		if convErr != nil || ttl < 1 || ttl > 255 {
			return nil, fmt.Errorf("%s must be 1-255, got %q", envMulticastTTL, v)
		}
		s.MulticastTTL = ttl
	}
	if v := envString(envUnicast); v != "" {
		s.Unicast = domain.ParseUnicast(v)
	}
	if v := envString(envKey); v != "" {
		s.Key = v
	}
	if v := envString(envRedisAddr); v != "" {
		s.MQTT = nil
		s.Redis = &domain.RedisSettings{Addr: v}
	}
	if v := envString(envMQTTHost); v != "" {
		s.Redis = nil
		m := domain.MQTTSettings{}
		if s.MQTT != nil {
			m = *s.MQTT
		}
		m.Host = v
		s.MQTT = &m
	}
	if err := s.WithDefaults().Validate(); err != nil {
		return nil, fmt.Errorf("invalid discover settings: %w", err)
	}
	return cfg, nil
}

func envString(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

// envPortOr parses a port from env name; fallback when unset. 0 means an ephemeral port.
func envPortOr(name string, fallback int) (int, error) {
	v := envString(name)
	if v == "" {
		return fallback, nil
	}
	port, err := strconv.Atoi(v)
	if err != nil || port < 0 || port > 65535 {
		return 0, fmt.Errorf("%s must be a valid port (0-65535), got %q", name, v)
	}
	return port, nil
}

// hostName returns the configured host name or the one of the machine.
func (c *Config) hostName() (string, error) {
	if c.HostName != "" {
		return c.HostName, nil
	}
	return os.Hostname()
}

// reuseAddr reports the effective SO_REUSEADDR flag for logging.
func (c *Config) reuseAddr() bool {
	return helpers.Value(c.Discover.WithDefaults().ReuseAddr)
}
