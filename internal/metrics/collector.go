// Package metrics はcamhubのPrometheus指標を収集する
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "camhub"

// 書き込み・リセットの結果ラベル
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collector は指標収集器
//
// 指標は専用のレジストリに登録するので、複数のCollectorを同時に作成できる。
type Collector struct {
	registry *prometheus.Registry

	discoveredSources    *prometheus.GaugeVec
	discoveryDuration    prometheus.Histogram
	controlWritesTotal   *prometheus.CounterVec
	controlResetsTotal   *prometheus.CounterVec
	controlResetFailures prometheus.Counter

	logger *zap.Logger
}

// NewCollector は指標収集器を作成する
func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	c := &Collector{
		registry: registry,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.discoveredSources = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "discovered_sources",
			Help:      "Number of video sources found by the last discovery",
		},
		[]string{"kind"},
	)

	c.discoveryDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "discovery_duration_seconds",
			Help:      "Duration of a full discovery pass in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	c.controlWritesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_writes_total",
			Help:      "Total number of single control writes",
		},
		[]string{"kind", "result"},
	)

	c.controlResetsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_resets_total",
			Help:      "Total number of reset-all operations",
		},
		[]string{"result"},
	)

	c.controlResetFailures = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_reset_failures_total",
			Help:      "Total number of controls that failed to reset",
		},
	)

	return c
}

// RecordDiscovery は種類ごとの検出数と所要時間を記録する
func (c *Collector) RecordDiscovery(counts map[string]int, duration time.Duration) {
	if c == nil {
		return
	}
	for kind, count := range counts {
		c.discoveredSources.WithLabelValues(kind).Set(float64(count))
	}
	c.discoveryDuration.Observe(duration.Seconds())
}

// RecordControlWrite は単一コントロールの書き込み結果を記録する
func (c *Collector) RecordControlWrite(kind string, err error) {
	if c == nil {
		return
	}
	c.controlWritesTotal.WithLabelValues(kind, result(err)).Inc()
}

// RecordReset はリセットの結果と失敗したコントロール数を記録する
func (c *Collector) RecordReset(failures int) {
	if c == nil {
		return
	}
	if failures > 0 {
		c.controlResetsTotal.WithLabelValues(ResultFailure).Inc()
		c.controlResetFailures.Add(float64(failures))
		return
	}
	c.controlResetsTotal.WithLabelValues(ResultSuccess).Inc()
}

// Registry は指標を登録したレジストリを返す
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler は /metrics 用のハンドラを返す
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
