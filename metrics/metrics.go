// Package metrics exposes the windowing engine's internal decision
// points as Prometheus collectors: pool occupancy, retransmit counts,
// the live SRTT estimate, SACK emission, and RX rejection reasons. The
// engine never starts an HTTP server itself — it owns no sockets — so
// wiring Collector's registry to a /metrics handler is left to whatever
// embeds it.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector implements window.Metrics against a Prometheus registry.
type Collector struct {
	poolFree  prometheus.Gauge
	poolTotal prometheus.Gauge
	retransmitsTotal *prometheus.CounterVec
	srtt             *prometheus.GaugeVec
	sackEmitted      prometheus.Counter
	rxRejected       *prometheus.CounterVec
}

// NewCollector builds a Collector and registers it against reg. Passing
// prometheus.NewRegistry() keeps window metrics out of the global
// default registry, which matters when several engines run in the same
// process (tests, or several independent stacks).
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		poolFree: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tcpwin_pool_segments_free",
			Help: "Segment descriptors currently unassigned to any window.",
		}),
		poolTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tcpwin_pool_segments_total",
			Help: "Total segment descriptors the pool was built with.",
		}),
		retransmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tcpwin_retransmits_total",
			Help: "Segments retransmitted, by trigger.",
		}, []string{"kind"}),
		srtt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tcpwin_srtt_ms",
			Help: "Smoothed round-trip time estimate per window, in milliseconds.",
		}, []string{"window_id"}),
		sackEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcpwin_sack_emitted_total",
			Help: "Selective acknowledgement option blocks emitted by RxCheck.",
		}),
		rxRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tcpwin_rx_rejected_total",
			Help: "Arriving segments rejected by RxCheck, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(c.poolFree, c.poolTotal, c.retransmitsTotal, c.srtt, c.sackEmitted, c.rxRejected)
	return c
}

func (c *Collector) PoolObserved(free, total int) {
	c.poolFree.Set(float64(free))
	c.poolTotal.Set(float64(total))
}

func (c *Collector) RetransmitTimeout() { c.retransmitsTotal.WithLabelValues("timeout").Inc() }
func (c *Collector) RetransmitFast()    { c.retransmitsTotal.WithLabelValues("fast").Inc() }

func (c *Collector) SRTTObserved(windowID string, ms uint32) {
	c.srtt.WithLabelValues(windowID).Set(float64(ms))
}

func (c *Collector) SACKEmitted() { c.sackEmitted.Inc() }

func (c *Collector) RXRejected(reason string) { c.rxRejected.WithLabelValues(reason).Inc() }
