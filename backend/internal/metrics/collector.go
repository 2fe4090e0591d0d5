package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/souvik03-136/craftwatch/backend/internal/models"
)

const namespace = "craftwatch"

// Collector holds the dashboard's Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	probesTotal   prometheus.Counter
	probeFailures prometheus.Counter
	probeDuration prometheus.Histogram

	serverOnline  prometheus.Gauge
	playersOnline prometheus.Gauge
	playersMax    prometheus.Gauge
	latency       prometheus.Gauge

	loginAttempts   *prometheus.CounterVec
	activeViewers   prometheus.Gauge
	manualRefreshes prometheus.Counter
}

// NewCollector creates a Collector on its own registry, together with the
// Go runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		probesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Total number of status probes sent to the monitored server",
		}),
		probeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_failures_total",
			Help:      "Number of probes that ended in the offline state",
		}),
		probeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Wall time of a probe, failures included",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		}),

		serverOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_online",
			Help:      "1 if the last probe found the server online, else 0",
		}),
		playersOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "players_online",
			Help:      "Players online at the last successful probe",
		}),
		playersMax: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "players_max",
			Help:      "Player slots at the last successful probe",
		}),
		latency: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_latency_milliseconds",
			Help:      "Status round trip reported by the last successful probe",
		}),

		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Password submissions by result",
		}, []string{"result"}),
		activeViewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_viewers",
			Help:      "Open live-update connections",
		}),
		manualRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manual_refreshes_total",
			Help:      "Refresh Now presses",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

		c.probesTotal,
		c.probeFailures,
		c.probeDuration,
		c.serverOnline,
		c.playersOnline,
		c.playersMax,
		c.latency,
		c.loginAttempts,
		c.activeViewers,
		c.manualRefreshes,
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordProbe records one probe outcome and how long it took.
// Player and latency gauges keep their last online values while the server is down.
func (c *Collector) RecordProbe(status models.ServerStatus, duration time.Duration) {
	c.probesTotal.Inc()
	c.probeDuration.Observe(duration.Seconds())

	if !status.Online {
		c.probeFailures.Inc()
		c.serverOnline.Set(0)
		return
	}

	c.serverOnline.Set(1)
	if status.PlayersOnline != nil {
		c.playersOnline.Set(float64(*status.PlayersOnline))
	}
	if status.PlayersMax != nil {
		c.playersMax.Set(float64(*status.PlayersMax))
	}
	if status.LatencyMs != nil {
		c.latency.Set(*status.LatencyMs)
	}
}

// RecordLogin counts one password submission.
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.loginAttempts.WithLabelValues(result).Inc()
}

// RecordRefresh counts one manual refresh.
func (c *Collector) RecordRefresh() {
	c.manualRefreshes.Inc()
}

// ViewerConnected and ViewerDisconnected track open live-update connections.
func (c *Collector) ViewerConnected()    { c.activeViewers.Inc() }
func (c *Collector) ViewerDisconnected() { c.activeViewers.Dec() }

// Reading helpers for tests.

// ServerOnline reports the server_online gauge.
func (c *Collector) ServerOnline() float64 { return gaugeValue(c.serverOnline) }

// PlayersOnline reports the players_online gauge.
func (c *Collector) PlayersOnline() float64 { return gaugeValue(c.playersOnline) }

// ActiveViewers reports the active_viewers gauge.
func (c *Collector) ActiveViewers() float64 { return gaugeValue(c.activeViewers) }

// ProbeCount reports probes_total.
func (c *Collector) ProbeCount() float64 { return counterValue(c.probesTotal) }

// ProbeFailureCount reports probe_failures_total.
func (c *Collector) ProbeFailureCount() float64 { return counterValue(c.probeFailures) }

// LoginCount reports login_attempts_total for one result label.
func (c *Collector) LoginCount(success bool) float64 {
	result := "failure"
	if success {
		result = "success"
	}
	counter, err := c.loginAttempts.GetMetricWithLabelValues(result)
	if err != nil {
		return 0
	}
	return counterValue(counter)
}

func gaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0
	}
	if m.Gauge != nil {
		return m.Gauge.GetValue()
	}
	return 0
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return 0
}
