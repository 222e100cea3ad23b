package dashboard

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// metrics 每个 Server 使用独立的 Registry, 测试中可以创建多个 Server
type metrics struct {
	registry     *prometheus.Registry
	actions      *prometheus.CounterVec
	actionTime   *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "commkit",
				Name:      "action_total",
				Help:      "Actions run from the dashboard.",
			},
			[]string{"tool", "outcome"},
		),
		actionTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "commkit",
				Name:      "action_duration_seconds",
				Help:      "Action duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "commkit",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
	}
	m.registry.MustRegister(
		m.actions,
		m.actionTime,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) recordAction(tool string, ok bool, d time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.actions.WithLabelValues(tool, outcome).Inc()
	m.actionTime.WithLabelValues(tool).Observe(d.Seconds())
}

func (m *metrics) recordHTTP(method, path string, status int) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
