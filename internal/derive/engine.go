// Package derive expands a DeviceRecord's canonical fp16 throughput into the
// full per-format throughput table.
//
// Two rule families apply. Formats that share the half-precision
// accumulation path (fp16, bf16, fp8) scale from the effective rate, which
// is halved on devices with crippled fp32 accumulation, and keep an
// ignore-crippled sibling computed from the raw rate. The remaining formats
// (tf32, int8, int4, fp6, fp4) always scale from the raw rate.
//
// A format whose capability flag is false is left nil, never zero.
package derive

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"k8s.io/utils/ptr"

	"github.com/kubeadapt/gpu-catalog/pkg/model"
)

type base int

const (
	// baseEffective scales from H_eff and records an ignore-crippled sibling.
	baseEffective base = iota
	// baseRaw scales from H and ignores the crippled flag.
	baseRaw
)

type rule struct {
	format model.Format
	base   base
	factor float64
}

var rules = []rule{
	{model.FormatFP16, baseEffective, 1},
	{model.FormatBF16, baseEffective, 1},
	{model.FormatTF32, baseRaw, 0.5},
	{model.FormatINT8, baseRaw, 2},
	{model.FormatINT4, baseRaw, 4},
	{model.FormatFP8, baseEffective, 2},
	{model.FormatFP6, baseRaw, 2},
	{model.FormatFP4, baseRaw, 4},
}

// EffectiveFP16 returns the usable half-precision rate: half the canonical
// figure when the device's fp32 accumulation is crippled.
func EffectiveFP16(rec model.DeviceRecord) float64 {
	if rec.CrippledFP32Acc {
		return rec.FP16 / 2
	}
	return rec.FP16
}

// Expand derives the ExpandedRecord for rec. It is a pure function: the same
// input always produces an identical result.
func Expand(rec model.DeviceRecord) model.ExpandedRecord {
	out := model.ExpandedRecord{
		Name:            rec.Name,
		NameFull:        rec.NameFull,
		VRAM:            rec.VRAM,
		MemBW:           rec.MemBW,
		Citation:        rec.Citation,
		TDP:             rec.TDP,
		SMs:             rec.SMs,
		CoresCUDA:       rec.CoresCUDA,
		CoresTensor:     clone(rec.CoresTensor),
		RegisterSize:    clone(rec.RegisterSize),
		CacheL1:         clone(rec.CacheL1),
		CacheL2:         clone(rec.CacheL2),
		FP32General:     rec.FP32General,
		CrippledFP32Acc: rec.CrippledFP32Acc,
	}

	raw := rec.FP16
	eff := EffectiveFP16(rec)
	for _, r := range rules {
		if !rec.Capabilities.Supports(r.format) {
			continue
		}
		switch r.base {
		case baseEffective:
			out.Set(r.format, ptr.To(eff*r.factor), ptr.To(raw*r.factor))
		case baseRaw:
			out.Set(r.format, ptr.To(raw*r.factor), nil)
		}
	}
	return out
}

// ExpandAll expands records in order. With workers > 1 records are expanded
// concurrently; workers <= 0 uses GOMAXPROCS. The result is always in input
// order. The only error is ctx cancellation.
func ExpandAll(ctx context.Context, records []model.DeviceRecord, workers int) ([]model.ExpandedRecord, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]model.ExpandedRecord, len(records))

	if workers == 1 {
		for i := range records {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = Expand(records[i])
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = Expand(records[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return ptr.To(*p)
}
