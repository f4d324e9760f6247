package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "node_discover"

// Results of an inbound payload as seen by the network channel.
const (
	ResultAccepted  = "accepted"
	ResultDeparture = "departure"
	ResultSelf      = "self"
	ResultDecode    = "decode_error"
)

var (
	Registry = prometheus.NewRegistry()

	AnnouncementsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "announcements_sent_total",
			Help:      "Announcements written to the transport, by event.",
		},
		[]string{"event"},
	)

	AnnouncementsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "announcements_received_total",
			Help:      "Inbound payloads, by handling result.",
		},
		[]string{"result"},
	)

	Peers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peers",
			Help:      "Current number of records in the peer table.",
		},
	)

	PeerEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "peer_events_total",
			Help:      "Membership events emitted, by kind.",
		},
		[]string{"kind"},
	)

	BrokerConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "broker_connections",
			Help:      "Current number of MQTT broker connections.",
		},
	)

	BrokerResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_resolutions_total",
			Help:      "Broker hostname resolution rounds, by result.",
		},
		[]string{"result"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of status API requests.",
		},
		[]string{"route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of status API requests.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"route"},
	)

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

func init() {
	Registry.MustRegister(
		AnnouncementsSent, AnnouncementsReceived,
		Peers, PeerEvents,
		BrokerConnections, BrokerResolutions,
		RequestsTotal, RequestDuration, uptime,
	)
}

// MetricsHandler exposes /metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Instrument is an echo middleware recording request count and latency under the matched route.
func Instrument() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			class := strconv.Itoa(status/100) + "xx"
			RequestsTotal.WithLabelValues(route, class).Inc()
			RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
