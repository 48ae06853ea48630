package derive

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/kubeadapt/gpu-catalog/internal/catalog"
	"github.com/kubeadapt/gpu-catalog/pkg/model"
)

var allCaps = model.Capabilities{BF16: true, TF32: true, INT8: true, INT4: true, FP8: true, FP6: true, FP4: true}

// rawMultiple is the documented multiple of raw H for formats that ignore
// the crippled flag.
var rawMultiple = map[model.Format]float64{
	model.FormatTF32: 0.5,
	model.FormatINT8: 2,
	model.FormatINT4: 4,
	model.FormatFP6:  2,
	model.FormatFP4:  4,
}

// effectiveMultiple is the documented multiple of H_eff for formats that
// inherit the discount.
var effectiveMultiple = map[model.Format]float64{
	model.FormatFP16: 1,
	model.FormatBF16: 1,
	model.FormatFP8:  2,
}

func record(h float64, crippled bool, caps model.Capabilities) model.DeviceRecord {
	return model.DeviceRecord{
		Name:            "test",
		NameFull:        "Test Device",
		Citation:        "https://example.com",
		TDP:             300,
		SMs:             80,
		CoresCUDA:       10240,
		CoresTensor:     ptr.To(320),
		VRAM:            24 << 30,
		MemBW:           600 * (1 << 30),
		FP32General:     35e12,
		FP16:            h,
		Capabilities:    caps,
		CrippledFP32Acc: crippled,
	}
}

// syntheticRecords covers every combination of crippled flag and a single
// capability flag, plus all-on and all-off.
func syntheticRecords() []model.DeviceRecord {
	var recs []model.DeviceRecord
	capSets := []model.Capabilities{
		{}, allCaps,
		{BF16: true}, {TF32: true}, {INT8: true}, {INT4: true},
		{FP8: true}, {FP6: true}, {FP4: true},
	}
	for _, h := range []float64{0, 100, 113.8e12, 989.4e12} {
		for _, crippled := range []bool{false, true} {
			for _, caps := range capSets {
				recs = append(recs, record(h, crippled, caps))
			}
		}
	}
	return recs
}

func authoredRecords(t *testing.T) []model.DeviceRecord {
	t.Helper()
	c, err := catalog.LoadFile("../../data/gpus.yaml")
	require.NoError(t, err)
	return c.Records()
}

func allRecords(t *testing.T) []model.DeviceRecord {
	return append(authoredRecords(t), syntheticRecords()...)
}

func TestExpand_ScenarioCrippledAllFormats(t *testing.T) {
	got := Expand(record(100, true, allCaps))

	want := model.ThroughputTable{
		FP16:               ptr.To(50.0),
		FP16IgnoreCrippled: ptr.To(100.0),
		BF16:               ptr.To(50.0),
		BF16IgnoreCrippled: ptr.To(100.0),
		TF32:               ptr.To(50.0),
		INT8:               ptr.To(200.0),
		INT4:               ptr.To(400.0),
		FP8:                ptr.To(100.0),
		FP8IgnoreCrippled:  ptr.To(200.0),
		FP6:                ptr.To(200.0),
		FP4:                ptr.To(400.0),
	}
	assert.Equal(t, want, got.ThroughputTable)
	assert.True(t, got.CrippledFP32Acc)
}

func TestExpand_ScenarioInt8Only(t *testing.T) {
	got := Expand(record(100, false, model.Capabilities{INT8: true}))

	want := model.ThroughputTable{
		FP16:               ptr.To(100.0),
		FP16IgnoreCrippled: ptr.To(100.0),
		INT8:               ptr.To(200.0),
	}
	assert.Equal(t, want, got.ThroughputTable)
	assert.False(t, got.CrippledFP32Acc)
}

func TestExpand_FP16IgnoreCrippledIsRaw(t *testing.T) {
	for _, rec := range allRecords(t) {
		got := Expand(rec)
		require.NotNil(t, got.FP16IgnoreCrippled, rec.Name)
		assert.Equal(t, rec.FP16, *got.FP16IgnoreCrippled, rec.Name)
	}
}

func TestExpand_FP16Corrected(t *testing.T) {
	for _, rec := range allRecords(t) {
		got := Expand(rec)
		require.NotNil(t, got.FP16, rec.Name)
		if rec.CrippledFP32Acc {
			assert.Equal(t, rec.FP16/2, *got.FP16, rec.Name)
		} else {
			assert.Equal(t, rec.FP16, *got.FP16, rec.Name)
			assert.Equal(t, *got.FP16IgnoreCrippled, *got.FP16, rec.Name)
		}
	}
}

func TestExpand_RawFormatsIgnoreCrippledFlag(t *testing.T) {
	for _, rec := range allRecords(t) {
		flipped := rec
		flipped.CrippledFP32Acc = !rec.CrippledFP32Acc
		got, gotFlipped := Expand(rec), Expand(flipped)

		for f, mult := range rawMultiple {
			v, ign := got.Get(f)
			vf, _ := gotFlipped.Get(f)
			assert.Nil(t, ign, "%s/%s has no ignore-crippled sibling", rec.Name, f)
			if !rec.Capabilities.Supports(f) {
				assert.Nil(t, v, "%s/%s", rec.Name, f)
				continue
			}
			require.NotNil(t, v, "%s/%s", rec.Name, f)
			assert.Equal(t, rec.FP16*mult, *v, "%s/%s", rec.Name, f)
			assert.Equal(t, *v, *vf, "%s/%s must not depend on crippled flag", rec.Name, f)
		}
	}
}

func TestExpand_EffectiveFormats(t *testing.T) {
	for _, rec := range allRecords(t) {
		got := Expand(rec)
		eff := EffectiveFP16(rec)
		for f, mult := range effectiveMultiple {
			v, ign := got.Get(f)
			if !rec.Capabilities.Supports(f) {
				assert.Nil(t, v, "%s/%s", rec.Name, f)
				assert.Nil(t, ign, "%s/%s", rec.Name, f)
				continue
			}
			require.NotNil(t, v, "%s/%s", rec.Name, f)
			require.NotNil(t, ign, "%s/%s", rec.Name, f)
			assert.Equal(t, eff*mult, *v, "%s/%s", rec.Name, f)
			assert.Equal(t, rec.FP16*mult, *ign, "%s/%s", rec.Name, f)
		}
	}
}

func TestExpand_UnsupportedIsNullNotZero(t *testing.T) {
	got := Expand(record(100, true, model.Capabilities{}))
	data, err := json.Marshal(got)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{"bf16", "bf16_ignore_crippled", "tf32", "int8", "int4", "fp8", "fp8_ignore_crippled", "fp6", "fp4"} {
		raw, ok := m[key]
		require.True(t, ok, "key %s must be present", key)
		assert.Equal(t, "null", string(raw), "key %s", key)
	}
	assert.Equal(t, "50", string(m["fp16"]))
}

func TestExpand_ZeroThroughputStaysPresent(t *testing.T) {
	got := Expand(record(0, false, model.Capabilities{INT8: true}))
	require.NotNil(t, got.INT8)
	assert.Equal(t, 0.0, *got.INT8)
	assert.Nil(t, got.INT4)
}

func TestExpand_CopiesHardwareFields(t *testing.T) {
	rec := record(100, false, allCaps)
	rec.CacheL2 = ptr.To(int64(6 << 20))
	got := Expand(rec)

	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, rec.NameFull, got.NameFull)
	assert.Equal(t, rec.Citation, got.Citation)
	assert.Equal(t, rec.TDP, got.TDP)
	assert.Equal(t, rec.SMs, got.SMs)
	assert.Equal(t, rec.CoresCUDA, got.CoresCUDA)
	assert.Equal(t, rec.VRAM, got.VRAM)
	assert.Equal(t, rec.MemBW, got.MemBW)
	assert.Equal(t, rec.FP32General, got.FP32General)
	assert.Equal(t, *rec.CacheL2, *got.CacheL2)
	assert.Nil(t, got.CacheL1)
	assert.Nil(t, got.RegisterSize)

	// Output does not alias input pointers.
	*got.CacheL2 = 1
	assert.Equal(t, int64(6<<20), *rec.CacheL2)
}

func TestExpand_Idempotent(t *testing.T) {
	for _, rec := range allRecords(t) {
		a, err := json.Marshal(Expand(rec))
		require.NoError(t, err)
		b, err := json.Marshal(Expand(rec))
		require.NoError(t, err)
		assert.Equal(t, a, b, rec.Name)
	}
}

func TestExpandAll_PreservesOrder(t *testing.T) {
	recs := authoredRecords(t)
	for _, workers := range []int{0, 1, 3, 64} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			got, err := ExpandAll(context.Background(), recs, workers)
			require.NoError(t, err)
			require.Len(t, got, len(recs))
			for i := range recs {
				assert.Equal(t, Expand(recs[i]), got[i])
			}
		})
	}
}

func TestExpandAll_BitIdenticalAcrossRuns(t *testing.T) {
	recs := allRecords(t)
	first, err := ExpandAll(context.Background(), recs, 4)
	require.NoError(t, err)
	second, err := ExpandAll(context.Background(), recs, 1)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestExpandAll_Empty(t *testing.T) {
	got, err := ExpandAll(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpandAll_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		_, err := ExpandAll(ctx, syntheticRecords(), workers)
		assert.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
	}
}

func TestEffectiveFP16(t *testing.T) {
	assert.Equal(t, 50.0, EffectiveFP16(record(100, true, allCaps)))
	assert.Equal(t, 100.0, EffectiveFP16(record(100, false, allCaps)))
}
