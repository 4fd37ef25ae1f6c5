// Package metrics exports decoder counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/pd0mz/go-lmr/channel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lmr"

// Metrics holds the collectors of one decoder process.
type Metrics struct {
	registry *prometheus.Registry

	messages  *prometheus.CounterVec // channel, protocol, type, outcome
	corrected *prometheus.CounterVec // channel, protocol
	bits      *prometheus.GaugeVec   // channel
	syncs     *prometheus.GaugeVec   // channel
	frames    *prometheus.GaugeVec   // channel
	dropped   *prometheus.GaugeVec   // channel
}

// New returns metrics on a private registry, with Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Decoded messages by type and validation outcome",
		}, []string{"channel", "protocol", "type", "outcome"}),
		corrected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corrected_bits_total",
			Help:      "Bits repaired by forward error correction",
		}, []string{"channel", "protocol"}),
		bits: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "framer",
			Name:      "bits",
			Help:      "Bits pushed into the framer",
		}, []string{"channel"}),
		syncs: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "framer",
			Name:      "syncs",
			Help:      "Sync patterns found",
		}, []string{"channel"}),
		frames: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "framer",
			Name:      "frames",
			Help:      "Frames delivered to the decoder",
		}, []string{"channel"}),
		dropped: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "framer",
			Name:      "dropped",
			Help:      "Partial frames dropped",
		}, []string{"channel"}),
	}
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Observe counts a decoded message.
func (m *Metrics) Observe(e channel.Event) {
	msg := e.Message
	protocol := e.Protocol.Key()
	m.messages.WithLabelValues(e.Channel, protocol, msg.Name(), msg.Outcome().Status.String()).Inc()
	if n := msg.CorrectedBits(); n > 0 {
		m.corrected.WithLabelValues(e.Channel, protocol).Add(float64(n))
	}
}

// Handler returns a channel handler that observes every event.
func (m *Metrics) Handler() channel.Handler {
	return m.Observe
}

// Update copies the framer counters of a channel.
func (m *Metrics) Update(c *channel.Channel) {
	s := c.Stats().Framer
	m.bits.WithLabelValues(c.Name()).Set(float64(s.Bits))
	m.syncs.WithLabelValues(c.Name()).Set(float64(s.Syncs))
	m.frames.WithLabelValues(c.Name()).Set(float64(s.Frames))
	m.dropped.WithLabelValues(c.Name()).Set(float64(s.Dropped))
}

// HTTPHandler serves the registry in the Prometheus exposition format.
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
