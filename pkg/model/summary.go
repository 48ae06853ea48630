package model

// CatalogSummary contains aggregate figures over an expanded catalog.
type CatalogSummary struct {
	DeviceCount   int `json:"device_count"`
	CrippledCount int `json:"crippled_count"`
	TotalTDP      int `json:"total_tdp"`

	// FormatSupport counts devices with a non-nil value per format.
	FormatSupport map[Format]int `json:"format_support"`

	PeakFP16Device  string  `json:"peak_fp16_device,omitempty"`
	PeakFP16        float64 `json:"peak_fp16"`
	PeakMemBWDevice string  `json:"peak_membw_device,omitempty"`
	PeakMemBW       float64 `json:"peak_membw"`
}
