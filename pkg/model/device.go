package model

// DeviceRecord is one authored catalog entry. Optional hardware attributes
// are pointers: nil means the value is not published for the device.
type DeviceRecord struct {
	Name     string `json:"name"`
	NameFull string `json:"name_full"`
	Citation string `json:"citation"`

	TDP          int    `json:"tdp"`
	SMs          int    `json:"sms"`
	CoresCUDA    int    `json:"cores_cuda"`
	CoresTensor  *int   `json:"cores_tensor"`
	RegisterSize *int64 `json:"register_size"`
	CacheL1      *int64 `json:"cache_l1"`
	CacheL2      *int64 `json:"cache_l2"`

	VRAM  int64   `json:"vram"`
	MemBW float64 `json:"membw"`

	FP32General float64 `json:"fp32_general"`
	// FP16 is the non-sparse half-precision tensor throughput in FLOP/s.
	// Every other per-format figure is derived from it.
	FP16 float64 `json:"fp16"`

	Architecture string       `json:"architecture,omitempty"`
	Capabilities Capabilities `json:"capabilities"`

	// CrippledFP32Acc marks devices whose tensor units run at half rate
	// when accumulating in fp32.
	CrippledFP32Acc bool `json:"crippled_fp32acc"`
}

// Capabilities lists which numeric formats the device's tensor units support.
type Capabilities struct {
	BF16 bool `json:"has_bf16" yaml:"has_bf16"`
	TF32 bool `json:"has_tf32" yaml:"has_tf32"`
	INT8 bool `json:"has_int8" yaml:"has_int8"`
	INT4 bool `json:"has_int4" yaml:"has_int4"`
	FP8  bool `json:"has_fp8" yaml:"has_fp8"`
	FP6  bool `json:"has_fp6" yaml:"has_fp6"`
	FP4  bool `json:"has_fp4" yaml:"has_fp4"`
}

// Supports reports whether format f is available on the device.
// FP16 is the canonical format and is always supported.
func (c Capabilities) Supports(f Format) bool {
	switch f {
	case FormatFP16:
		return true
	case FormatBF16:
		return c.BF16
	case FormatTF32:
		return c.TF32
	case FormatINT8:
		return c.INT8
	case FormatINT4:
		return c.INT4
	case FormatFP8:
		return c.FP8
	case FormatFP6:
		return c.FP6
	case FormatFP4:
		return c.FP4
	default:
		return false
	}
}

// ExpandedRecord is a DeviceRecord with its full per-format throughput table.
// It serializes flat: format fields sit next to the hardware fields.
type ExpandedRecord struct {
	Name     string `json:"name"`
	NameFull string `json:"name_full"`

	VRAM     int64   `json:"vram"`
	MemBW    float64 `json:"membw"`
	Citation string  `json:"citation"`

	TDP          int    `json:"tdp"`
	SMs          int    `json:"sms"`
	CoresCUDA    int    `json:"cores_cuda"`
	CoresTensor  *int   `json:"cores_tensor"`
	RegisterSize *int64 `json:"register_size"`
	CacheL1      *int64 `json:"cache_l1"`
	CacheL2      *int64 `json:"cache_l2"`

	FP32General float64 `json:"fp32_general"`

	ThroughputTable

	CrippledFP32Acc bool `json:"crippled_fp32acc"`
}
