package walutil

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	wal "github.com/nesv/waltail"
)

// LogMonitor is a wal.Monitor that writes every notification to a logger.
type LogMonitor struct {
	Logger *slog.Logger // If nil, uses slog.Default().
}

func (m LogMonitor) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

func (m LogMonitor) CorruptedLogFile(version int64, err error) {
	m.logger().Warn("corrupted transaction log file", "version", version, "error", err)
}

func (m LogMonitor) Forced(err error) {
	m.logger().Error("forced past unsupported transaction log version", "error", err)
}

// PrometheusMonitor is a wal.Monitor that counts notifications, and can
// expose the shape of a computed log tail as gauges.
type PrometheusMonitor struct {
	corrupted      prometheus.Counter
	forced         prometheus.Counter
	currentVersion prometheus.Gauge
	oldestVersion  prometheus.Gauge
	replayNeeded   prometheus.Gauge
}

// NewPrometheusMonitor creates a *PrometheusMonitor, and registers its
// metrics with reg.
func NewPrometheusMonitor(reg prometheus.Registerer) (*PrometheusMonitor, error) {
	m := &PrometheusMonitor{
		corrupted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waltail",
			Subsystem: "tail",
			Name:      "corrupted_log_files_total",
			Help:      "The number of log files found corrupted while scanning the log tail",
		}),
		forced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waltail",
			Subsystem: "tail",
			Name:      "forced_unsupported_total",
			Help:      "The number of unsupported log versions forcibly skipped",
		}),
		currentVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "waltail",
			Subsystem: "tail",
			Name:      "current_log_version",
			Help:      "The highest log version present at startup",
		}),
		oldestVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "waltail",
			Subsystem: "tail",
			Name:      "oldest_log_version",
			Help:      "The oldest log version opened while scanning the log tail",
		}),
		replayNeeded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "waltail",
			Subsystem: "tail",
			Name:      "replay_needed",
			Help:      "Whether recovery has to replay the log (1) or not (0)",
		}),
	}
	for _, c := range []prometheus.Collector{m.corrupted, m.forced, m.currentVersion, m.oldestVersion, m.replayNeeded} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMonitor) CorruptedLogFile(int64, error) {
	m.corrupted.Inc()
}

func (m *PrometheusMonitor) Forced(error) {
	m.forced.Inc()
}

// ObserveTail sets the tail gauges from t.
func (m *PrometheusMonitor) ObserveTail(t *wal.TailInformation) {
	m.currentVersion.Set(float64(t.CurrentLogVersion()))
	m.oldestVersion.Set(float64(t.OldestLogVersionFound()))
	if t.CommitsAfterLastCheckpoint() {
		m.replayNeeded.Set(1)
	} else {
		m.replayNeeded.Set(0)
	}
}

// MultiMonitor forwards every notification to each of its monitors, in
// order.
type MultiMonitor []wal.Monitor

func (mm MultiMonitor) CorruptedLogFile(version int64, err error) {
	for _, m := range mm {
		m.CorruptedLogFile(version, err)
	}
}

func (mm MultiMonitor) Forced(err error) {
	for _, m := range mm {
		m.Forced(err)
	}
}
