// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers the counters the handlers and the hub report into.
type Collector struct {
	messagesSent  prometheus.Counter
	webhookEvents *prometheus.CounterVec
	wsClients     prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatterbox_messages_sent_total",
			Help: "Total number of messages appended to the ledger.",
		}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatterbox_webhook_events_total",
			Help: "Identity provider webhook events by type.",
		}, []string{"type"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatterbox_ws_clients",
			Help: "Currently connected websocket subscribers.",
		}),
	}

	reg.MustRegister(c.messagesSent, c.webhookEvents, c.wsClients)
	return c
}

func (c *Collector) RecordMessageSent() {
	c.messagesSent.Inc()
}

func (c *Collector) RecordWebhookEvent(eventType string) {
	c.webhookEvents.WithLabelValues(eventType).Inc()
}

func (c *Collector) ClientConnected() {
	c.wsClients.Inc()
}

func (c *Collector) ClientDisconnected() {
	c.wsClients.Dec()
}

// Handler serves the scrape endpoint for the given registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
