// Package adapters selects the announcement carrier of a node from its settings.
package adapters

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/ezloteam/cote/adapters/mqtt"
	"github.com/ezloteam/cote/adapters/myredis"
	"github.com/ezloteam/cote/adapters/udp"
	"github.com/ezloteam/cote/domain"
	"github.com/ezloteam/cote/helpers"
	"github.com/ezloteam/cote/interfaces"
	"github.com/ezloteam/cote/service"
)

// NewTransport builds the transport the settings ask for: the MQTT broker pool when mqtt settings are
// present, redis pub/sub when redis settings are present, plain UDP otherwise.
//
// Returns a bad_parameter error when the redis address cannot be parsed.
//
// Called from cmd/main.go before service.NewDiscover.
func NewTransport(settings domain.Settings, identity domain.Identity, logger log.Logger) (interfaces.Transport, error) {
	logger = helpers.NilPanic(logger, "adapters.transport.go: logger is required")
	settings = settings.WithDefaults()

	switch {
	case settings.MQTT != nil:
		level.Info(logger).Log("msg", "using mqtt transport", "host", settings.MQTT.Host, "port", settings.MQTT.Port)
		return mqtt.NewPool(*settings.MQTT, identity, mqtt.NewDNSResolver(), mqtt.DefaultClientFactory, settings.Key != "", logger), nil
	case settings.Redis != nil:
		client, err := myredis.NewRedisUniversalClient(settings.Redis.Addr)
		if err != nil {
			return nil, service.NewBadParameterError("invalid redis address", err)
		}
		level.Info(logger).Log("msg", "using redis transport", "channel_prefix", settings.Redis.ChannelPrefix)
		return myredis.NewTransport(client, *settings.Redis, identity, logger), nil
	default:
		level.Info(logger).Log("msg", "using udp transport", "reuse_addr", helpers.Value(settings.ReuseAddr))
		return udp.NewTransport(helpers.Value(settings.ReuseAddr), logger), nil
	}
}
