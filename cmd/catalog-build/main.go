package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/KimMachineGun/automemlimit"
	_ "go.uber.org/automaxprocs"

	"github.com/kubeadapt/gpu-catalog/internal/build"
	"github.com/kubeadapt/gpu-catalog/internal/config"
	"github.com/kubeadapt/gpu-catalog/internal/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	// 1. Load and validate config.
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return 1
	}

	// 2. Install the configured logger.
	slog.SetDefault(newLogger(cfg))

	// 3. Create context with signal handling and the build deadline.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	slog.Info("catalog build starting",
		"build_id", cfg.BuildID,
		"input", cfg.InputPath,
		"output", cfg.OutputPath,
		"compress", cfg.Compress,
		"configmap_output", cfg.ConfigMapPath,
	)

	// 4. Run the transform once.
	metrics := observability.NewMetrics()
	res, err := build.Run(ctx, &cfg, metrics)
	if err != nil {
		slog.Error("catalog build failed", "error", err)
		return 1
	}

	slog.Info("catalog build finished",
		"devices", res.Summary.DeviceCount,
		"artifacts", len(res.Artifacts),
		"duration", res.Duration,
	)
	return 0
}

func newLogger(cfg config.Config) *slog.Logger {
	// Validate has already checked the level.
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
