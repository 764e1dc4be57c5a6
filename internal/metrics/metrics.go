// Package metrics records the outcome of a job run as Prometheus gauges and
// writes them in the node_exporter textfile format. Each run is a separate
// process, so the file holds the state of the last run of one job.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aatumaykin/cronsync/internal/constants"
	"github.com/aatumaykin/cronsync/internal/crontab"
)

type RunMetrics struct {
	registry        *prometheus.Registry
	lastRunStart    *prometheus.GaugeVec
	lastRunDuration *prometheus.GaugeVec
	lastRunSuccess  *prometheus.GaugeVec
	runsTotal       *prometheus.CounterVec
}

func NewRunMetrics(namespace string) *RunMetrics {
	labels := []string{"job_id", "job_name"}

	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		lastRunStart: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "job_last_run_start_timestamp_seconds",
				Help:      "Unix time the last run of the job started",
			},
			labels,
		),
		lastRunDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "job_last_run_duration_seconds",
				Help:      "Duration of the last run of the job",
			},
			labels,
		),
		lastRunSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "job_last_run_success",
				Help:      "1 if the last run of the job succeeded, 0 otherwise",
			},
			labels,
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Runs of the job recorded by this process",
			},
			append(labels, "status"),
		),
	}

	m.registry.MustRegister(
		m.lastRunStart,
		m.lastRunDuration,
		m.lastRunSuccess,
		m.runsTotal,
	)

	return m
}

func (m *RunMetrics) RecordRun(result crontab.RunResult) {
	success := 0.0
	if result.Status == crontab.RunSucceeded {
		success = 1
	}

	m.lastRunStart.WithLabelValues(result.ID, result.Name).Set(float64(result.Started.UnixNano()) / 1e9)
	m.lastRunDuration.WithLabelValues(result.ID, result.Name).Set(result.Duration.Seconds())
	m.lastRunSuccess.WithLabelValues(result.ID, result.Name).Set(success)
	m.runsTotal.WithLabelValues(result.ID, result.Name, string(result.Status)).Inc()
}

func (m *RunMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// TextfileRecorder writes one metrics file per job into Dir.
type TextfileRecorder struct {
	Dir       string
	Namespace string
}

func NewTextfileRecorder(dir string) *TextfileRecorder {
	return &TextfileRecorder{Dir: dir, Namespace: constants.MetricsNamespace}
}

// Record writes the run result to <Dir>/cronsync_<id>.prom atomically.
func (r *TextfileRecorder) Record(result crontab.RunResult) error {
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory %s: %w", r.Dir, err)
	}

	m := NewRunMetrics(r.Namespace)
	m.RecordRun(result)

	path := r.Path(result.ID)
	if err := prometheus.WriteToTextfile(path, m.Gatherer()); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}

// Path returns the metrics file for job id.
func (r *TextfileRecorder) Path(id string) string {
	return filepath.Join(r.Dir, fmt.Sprintf(constants.MetricsFileFormat, id))
}
