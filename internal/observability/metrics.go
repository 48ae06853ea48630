package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kubeadapt/gpu-catalog/pkg/model"
)

// Metrics holds all Prometheus metrics for a catalog build.
// It uses a custom registry to avoid polluting the global default.
type Metrics struct {
	Registry *prometheus.Registry

	// Stage metrics
	StageDuration *prometheus.HistogramVec

	// Catalog metrics
	Devices          prometheus.Gauge
	CrippledDevices  prometheus.Gauge
	FormatDevices    *prometheus.GaugeVec
	SchemaViolations *prometheus.CounterVec

	// Asset metrics
	ArtifactSizeBytes *prometheus.GaugeVec
	CompressionRatio  prometheus.Gauge

	// Build metrics
	BuildInfo            *prometheus.GaugeVec
	BuildsTotal          *prometheus.CounterVec
	LastSuccessTimestamp prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all Prometheus metrics
// registered on a custom registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gpucatalog_build_stage_duration_seconds",
			Help:    "Duration of catalog build stages in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),

		Devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gpucatalog_build_devices",
			Help: "Number of devices in the catalog.",
		}),
		CrippledDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gpucatalog_build_crippled_devices",
			Help: "Number of devices with crippled fp32 accumulation.",
		}),
		FormatDevices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gpucatalog_build_format_devices",
			Help: "Number of devices supporting each numeric format.",
		}, []string{"format"}),
		SchemaViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gpucatalog_build_schema_violations_total",
			Help: "Total number of catalog schema violations by type.",
		}, []string{"type"}),

		ArtifactSizeBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gpucatalog_build_artifact_size_bytes",
			Help: "Size of each written artifact in bytes.",
		}, []string{"artifact"}),
		CompressionRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gpucatalog_build_compression_ratio",
			Help: "Compression ratio of the zstd asset (compressed/uncompressed).",
		}),

		BuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gpucatalog_build_info",
			Help: "Build identity; always 1.",
		}, []string{"build_id"}),
		BuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gpucatalog_build_runs_total",
			Help: "Total number of build runs by result.",
		}, []string{"result"}),
		LastSuccessTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gpucatalog_build_last_success_timestamp_seconds",
			Help: "Unix time of the last successful build.",
		}),
	}

	// Register all metrics with the custom registry.
	reg.MustRegister(
		m.StageDuration,
		m.Devices,
		m.CrippledDevices,
		m.FormatDevices,
		m.SchemaViolations,
		m.ArtifactSizeBytes,
		m.CompressionRatio,
		m.BuildInfo,
		m.BuildsTotal,
		m.LastSuccessTimestamp,
	)

	return m
}

// ObserveStage records how long a build stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordSummary publishes catalog-level gauges.
func (m *Metrics) RecordSummary(s model.CatalogSummary) {
	m.Devices.Set(float64(s.DeviceCount))
	m.CrippledDevices.Set(float64(s.CrippledCount))
	for _, f := range model.Formats {
		m.FormatDevices.WithLabelValues(string(f)).Set(float64(s.FormatSupport[f]))
	}
}

// WriteTextfile writes the registry in the Prometheus text format to path,
// for pickup by node-exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("observability: write textfile %s: %w", path, err)
	}
	return nil
}
