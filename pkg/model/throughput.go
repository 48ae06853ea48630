package model

import "fmt"

// Format identifies a numeric format served by the tensor units.
type Format string

// Supported formats, in output order.
const (
	FormatFP16 Format = "fp16"
	FormatBF16 Format = "bf16"
	FormatTF32 Format = "tf32"
	FormatINT8 Format = "int8"
	FormatINT4 Format = "int4"
	FormatFP8  Format = "fp8"
	FormatFP6  Format = "fp6"
	FormatFP4  Format = "fp4"
)

// Formats is every Format in output order.
var Formats = []Format{
	FormatFP16,
	FormatBF16,
	FormatTF32,
	FormatINT8,
	FormatINT4,
	FormatFP8,
	FormatFP6,
	FormatFP4,
}

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("model: unknown format %q", s)
}

// ThroughputTable holds derived FLOP/s per format. A nil entry means the
// format is unsupported, which is different from a zero rate.
// The *IgnoreCrippled siblings hold the value computed without the
// crippled-accumulation discount; formats that never take the discount
// have no sibling.
type ThroughputTable struct {
	FP16               *float64 `json:"fp16"`
	FP16IgnoreCrippled *float64 `json:"fp16_ignore_crippled"`
	BF16               *float64 `json:"bf16"`
	BF16IgnoreCrippled *float64 `json:"bf16_ignore_crippled"`
	TF32               *float64 `json:"tf32"`
	INT8               *float64 `json:"int8"`
	INT4               *float64 `json:"int4"`
	FP8                *float64 `json:"fp8"`
	FP8IgnoreCrippled  *float64 `json:"fp8_ignore_crippled"`
	FP6                *float64 `json:"fp6"`
	FP4                *float64 `json:"fp4"`
}

// Get returns the corrected value and the ignore-crippled sibling for f.
// ignoreCrippled is always nil for formats without a sibling.
func (t ThroughputTable) Get(f Format) (value, ignoreCrippled *float64) {
	switch f {
	case FormatFP16:
		return t.FP16, t.FP16IgnoreCrippled
	case FormatBF16:
		return t.BF16, t.BF16IgnoreCrippled
	case FormatTF32:
		return t.TF32, nil
	case FormatINT8:
		return t.INT8, nil
	case FormatINT4:
		return t.INT4, nil
	case FormatFP8:
		return t.FP8, t.FP8IgnoreCrippled
	case FormatFP6:
		return t.FP6, nil
	case FormatFP4:
		return t.FP4, nil
	default:
		return nil, nil
	}
}

// Set stores value and ignoreCrippled for f. ignoreCrippled is dropped for
// formats without a sibling.
func (t *ThroughputTable) Set(f Format, value, ignoreCrippled *float64) {
	switch f {
	case FormatFP16:
		t.FP16, t.FP16IgnoreCrippled = value, ignoreCrippled
	case FormatBF16:
		t.BF16, t.BF16IgnoreCrippled = value, ignoreCrippled
	case FormatTF32:
		t.TF32 = value
	case FormatINT8:
		t.INT8 = value
	case FormatINT4:
		t.INT4 = value
	case FormatFP8:
		t.FP8, t.FP8IgnoreCrippled = value, ignoreCrippled
	case FormatFP6:
		t.FP6 = value
	case FormatFP4:
		t.FP4 = value
	}
}

// HasIgnoreCrippled reports whether f carries an ignore-crippled sibling.
func (f Format) HasIgnoreCrippled() bool {
	return f == FormatFP16 || f == FormatBF16 || f == FormatFP8
}
