// Package metrics holds the Prometheus collector and HTTP middleware for the chatbot.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/basakil/brm-chatbot/pkg/models"
)

// Collector owns a private registry and every metric the service exports.
// All methods are safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge

	// Chat metrics
	ChatMessagesTotal *prometheus.CounterVec
	SimulatedLatency  prometheus.Histogram

	AppInfo *prometheus.GaugeVec
}

// NewCollector creates a collector registering into a fresh registry under namespace
func NewCollector(namespace string, info models.AppInfo) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, endpoint and status",
		}, []string{"method", "endpoint", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by method and endpoint",
			Buckets:   []float64{.005, .01, .025, .05, .1, .2, .3, .4, .5, .75, 1, 2.5, 5},
		}, []string{"method", "endpoint"}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		}),

		ChatMessagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat messages by classified category",
		}, []string{"category"}),
		SimulatedLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_simulated_latency_seconds",
			Help:      "Artificial inference delay applied to chat messages",
			Buckets:   prometheus.LinearBuckets(0.05, 0.05, 12),
		}),

		AppInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "app_info",
			Help:      "Static application metadata, always 1",
		}, []string{"version", "model", "instance"}),
	}

	c.AppInfo.WithLabelValues(info.Version, info.ModelVersion, info.InstanceID).Set(1)
	return c
}

// Registry exposes the underlying registry, mainly for tests
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRequest records one finished HTTP request
func (c *Collector) RecordRequest(method, endpoint string, status int, duration time.Duration) {
	c.RequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	c.RequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// ObserveChat records the category and simulated delay of one chat message
func (c *Collector) ObserveChat(category string, delay time.Duration) {
	c.ChatMessagesTotal.WithLabelValues(category).Inc()
	c.SimulatedLatency.Observe(delay.Seconds())
}

// Handler serves the text exposition of the collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		Registry: c.registry,
	})
}
