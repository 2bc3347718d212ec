package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	snapshotRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_runs_total",
			Help: "Total number of snapshot runs by outcome",
		},
		[]string{"status", "kind"},
	)

	snapshotRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapshot_run_duration_seconds",
			Help:    "Snapshot run duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	snapshotVideosLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_videos_loaded",
			Help: "Number of videos loaded by the last successful run",
		},
	)

	snapshotLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		},
	)
)

// RecordRun 记录一次运行；kind 为空表示成功
func RecordRun(kind string, videos int, duration time.Duration) {
	snapshotRunDuration.Observe(duration.Seconds())
	if kind != "" {
		snapshotRunsTotal.WithLabelValues("failed", kind).Inc()
		return
	}
	snapshotRunsTotal.WithLabelValues("success", "").Inc()
	snapshotVideosLoaded.Set(float64(videos))
	snapshotLastSuccess.SetToCurrentTime()
}

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
