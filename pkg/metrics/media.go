package metrics

import "github.com/prometheus/client_golang/prometheus"

// MediaMetrics tracks quota consumption and admission outcomes.
type MediaMetrics struct {
	usage    prometheus.Gauge
	quota    prometheus.Gauge
	admitted *prometheus.CounterVec
	rejected *prometheus.CounterVec
	released prometheus.Counter
}

// NewMediaMetrics registers the media metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewMediaMetrics(reg prometheus.Registerer) *MediaMetrics {
	if reg == nil {
		return &MediaMetrics{}
	}
	usage := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "media",
		Name:      "usage_bytes",
		Help:      "Bytes held by media references as of the last admission check.",
	})
	quota := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "media",
		Name:      "quota_bytes",
		Help:      "Configured storage quota in bytes.",
	})
	admitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "media",
		Name:      "admitted_total",
		Help:      "Media files admitted, by kind.",
	}, []string{"kind"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "media",
		Name:      "rejected_total",
		Help:      "Media admissions rejected, by reason.",
	}, []string{"reason"})
	released := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "media",
		Name:      "released_total",
		Help:      "Media references released.",
	})
	reg.MustRegister(usage, quota, admitted, rejected, released)
	return &MediaMetrics{
		usage:    usage,
		quota:    quota,
		admitted: admitted,
		rejected: rejected,
		released: released,
	}
}

func (m *MediaMetrics) SetUsage(bytes int64) {
	if m == nil || m.usage == nil {
		return
	}
	m.usage.Set(float64(bytes))
}

func (m *MediaMetrics) SetQuota(bytes int64) {
	if m == nil || m.quota == nil {
		return
	}
	m.quota.Set(float64(bytes))
}

func (m *MediaMetrics) IncAdmitted(kind string) {
	if m == nil || m.admitted == nil {
		return
	}
	m.admitted.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *MediaMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *MediaMetrics) AddReleased(n int) {
	if m == nil || m.released == nil || n <= 0 {
		return
	}
	m.released.Add(float64(n))
}
