// Package build runs the catalog transform once: load, derive, summarize,
// then publish every artifact or none.
package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kubeadapt/gpu-catalog/internal/asset"
	"github.com/kubeadapt/gpu-catalog/internal/catalog"
	"github.com/kubeadapt/gpu-catalog/internal/config"
	"github.com/kubeadapt/gpu-catalog/internal/derive"
	"github.com/kubeadapt/gpu-catalog/internal/errors"
	"github.com/kubeadapt/gpu-catalog/internal/observability"
	"github.com/kubeadapt/gpu-catalog/internal/summary"
	"github.com/kubeadapt/gpu-catalog/pkg/model"
)

// Result labels for the runs_total counter.
const (
	ResultSuccess         = "success"
	ResultSchemaViolation = "schema_violation"
	ResultCanceled        = "canceled"
	ResultError           = "error"
)

// Result describes a successful build.
type Result struct {
	Summary   model.CatalogSummary
	Artifacts []asset.Artifact
	Duration  time.Duration
}

// Run executes one build with cfg. On any error no artifact is published.
// The metrics textfile, when configured, is written in both cases.
func Run(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (res *Result, err error) {
	start := time.Now()
	metrics.BuildInfo.WithLabelValues(cfg.BuildID).Set(1)

	defer func() {
		metrics.BuildsTotal.WithLabelValues(resultLabel(err)).Inc()
		if err == nil {
			metrics.LastSuccessTimestamp.SetToCurrentTime()
		}
		if cfg.MetricsTextfile != "" {
			if werr := metrics.WriteTextfile(cfg.MetricsTextfile); werr != nil {
				slog.Warn("failed to write metrics textfile", "path", cfg.MetricsTextfile, "error", werr)
			}
		}
	}()

	// 1. Load and validate the authored catalog.
	stageStart := time.Now()
	cat, err := catalog.LoadFile(cfg.InputPath)
	metrics.ObserveStage("load", stageStart)
	if err != nil {
		reportViolations(err, metrics)
		return nil, fmt.Errorf("build: %w", err)
	}
	slog.Info("catalog loaded",
		"path", cfg.InputPath,
		"devices", cat.Len(),
		"presets", len(cat.Presets()),
	)

	// 2. Derive per-format throughput.
	stageStart = time.Now()
	expanded, err := derive.ExpandAll(ctx, cat.Records(), cfg.Workers)
	metrics.ObserveStage("derive", stageStart)
	if err != nil {
		return nil, fmt.Errorf("build: derive: %w", err)
	}

	sum := summary.Compute(expanded)
	metrics.RecordSummary(sum)
	slog.Info("catalog derived",
		"devices", sum.DeviceCount,
		"crippled", sum.CrippledCount,
		"peak_fp16_device", sum.PeakFP16Device,
		"peak_membw_device", sum.PeakMemBWDevice,
	)

	// 3. Stage and publish artifacts.
	stageStart = time.Now()
	artifacts, err := publish(ctx, cfg, expanded, sum, metrics)
	metrics.ObserveStage("write", stageStart)
	if err != nil {
		return nil, err
	}

	for _, a := range artifacts {
		slog.Info("artifact written", "artifact", a.Name, "path", a.Path, "bytes", a.Size)
	}

	return &Result{
		Summary:   sum,
		Artifacts: artifacts,
		Duration:  time.Since(start),
	}, nil
}

func publish(ctx context.Context, cfg *config.Config, expanded []model.ExpandedRecord, sum model.CatalogSummary, metrics *observability.Metrics) ([]asset.Artifact, error) {
	jsonAsset, err := asset.Encode(expanded, asset.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	format := asset.FormatForPath(cfg.OutputPath)
	main := jsonAsset
	if format != asset.FormatJSON {
		if main, err = asset.Encode(expanded, format); err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
	}

	w := asset.NewWriter()
	// No-op once Commit has run.
	defer w.Abort()

	mainSize, err := w.StageBytes(string(format), cfg.OutputPath, main)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	if cfg.Compress {
		zstSize, err := w.StageZstd("zstd", cfg.OutputPath+".zst", main, cfg.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
		if mainSize > 0 {
			metrics.CompressionRatio.Set(float64(zstSize) / float64(mainSize))
		}
	}

	if cfg.ConfigMapPath != "" {
		manifest, err := asset.ConfigMap(asset.ConfigMapOptions{
			Name:        cfg.ConfigMapName,
			Namespace:   cfg.ConfigMapNamespace,
			BuildID:     cfg.BuildID,
			DeviceCount: sum.DeviceCount,
		}, jsonAsset)
		if err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
		if _, err := w.StageBytes("configmap", cfg.ConfigMapPath, manifest); err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build: canceled before commit: %w", err)
	}
	if err := w.Commit(); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	staged := w.Staged()
	for _, a := range staged {
		metrics.ArtifactSizeBytes.WithLabelValues(a.Name).Set(float64(a.Size))
	}
	return staged, nil
}

// reportViolations logs each schema violation on its own line and counts
// them by type. Other load errors are left to the caller.
func reportViolations(err error, metrics *observability.Metrics) {
	se, ok := errors.AsSchemaError(err)
	if !ok {
		return
	}
	for _, fe := range se.Errs {
		slog.Error("schema violation",
			"field", fe.Field,
			"type", string(fe.Type),
			"detail", fe.Detail,
		)
	}
	for typ, n := range se.CountByType() {
		metrics.SchemaViolations.WithLabelValues(typ).Add(float64(n))
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.IsSchemaViolation(err):
		return ResultSchemaViolation
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	default:
		return ResultError
	}
}
