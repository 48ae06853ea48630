package summary

import "github.com/kubeadapt/gpu-catalog/pkg/model"

// Compute calculates device counts, per-format support and peak devices
// from an expanded catalog. Ties for a peak keep the earlier device.
func Compute(records []model.ExpandedRecord) model.CatalogSummary {
	s := model.CatalogSummary{
		DeviceCount:   len(records),
		FormatSupport: make(map[model.Format]int, len(model.Formats)),
	}
	for _, f := range model.Formats {
		s.FormatSupport[f] = 0
	}

	for i := range records {
		r := &records[i]
		s.TotalTDP += r.TDP
		if r.CrippledFP32Acc {
			s.CrippledCount++
		}

		for _, f := range model.Formats {
			if v, _ := r.Get(f); v != nil {
				s.FormatSupport[f]++
			}
		}

		// Peak fp16 uses the corrected value, which is what a workload with
		// fp32 accumulation actually sees.
		if r.FP16 != nil && (s.PeakFP16Device == "" || *r.FP16 > s.PeakFP16) {
			s.PeakFP16 = *r.FP16
			s.PeakFP16Device = r.Name
		}
		if s.PeakMemBWDevice == "" || r.MemBW > s.PeakMemBW {
			s.PeakMemBW = r.MemBW
			s.PeakMemBWDevice = r.Name
		}
	}

	return s
}
