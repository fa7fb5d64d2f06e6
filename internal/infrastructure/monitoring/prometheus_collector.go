package monitoring

import (
	"time"

	"mswdportal/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements services.ResolutionMetrics and records
// portal activity counters.
type PrometheusCollector struct {
	sessionsActive prometheus.Gauge
	sessionsTotal  prometheus.Counter

	resolutionsTotal   *prometheus.CounterVec
	resolutionDuration prometheus.Histogram
	roleSwitchesTotal  *prometheus.CounterVec
	persistFailures    prometheus.Counter

	applicationsTotal *prometheus.CounterVec
	notifyClients     prometheus.Gauge
	notifyDropped     prometheus.Counter
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		sessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mswd_sessions_active",
			Help: "Number of live authenticated sessions",
		}),

		sessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mswd_sessions_total",
			Help: "Total number of sessions started",
		}),

		resolutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mswd_role_resolutions_total",
			Help: "Role resolutions by terminal state",
		}, []string{"state"}),

		resolutionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mswd_role_resolution_duration_seconds",
			Help:    "Time from session start to a role being set",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 3, 5},
		}),

		roleSwitchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mswd_role_switches_total",
			Help: "Manual role switches by target role",
		}, []string{"role"}),

		persistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mswd_role_persist_failures_total",
			Help: "Background role persistence failures",
		}),

		applicationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mswd_applications_total",
			Help: "Program applications by outcome",
		}, []string{"status"}),

		notifyClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mswd_notify_clients",
			Help: "Connected notification websocket clients",
		}),

		notifyDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mswd_notify_dropped_total",
			Help: "Notification messages dropped on slow clients",
		}),
	}
}

func (p *PrometheusCollector) ObserveResolution(state domain.ResolutionState, d time.Duration) {
	p.resolutionsTotal.WithLabelValues(string(state)).Inc()
	p.resolutionDuration.Observe(d.Seconds())
}

func (p *PrometheusCollector) SessionStarted() {
	p.sessionsTotal.Inc()
	p.sessionsActive.Inc()
}

func (p *PrometheusCollector) SessionEnded() {
	p.sessionsActive.Dec()
}

func (p *PrometheusCollector) RoleSwitched(role domain.Role) {
	p.roleSwitchesTotal.WithLabelValues(string(role)).Inc()
}

func (p *PrometheusCollector) PersistFailed() {
	p.persistFailures.Inc()
}

func (p *PrometheusCollector) RecordApplication(status domain.ApplicationStatus) {
	p.applicationsTotal.WithLabelValues(string(status)).Inc()
}

func (p *PrometheusCollector) NotifyClientConnected() {
	p.notifyClients.Inc()
}

func (p *PrometheusCollector) NotifyClientDisconnected() {
	p.notifyClients.Dec()
}

func (p *PrometheusCollector) NotifyMessageDropped() {
	p.notifyDropped.Inc()
}
