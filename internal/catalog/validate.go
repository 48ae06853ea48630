package catalog

import (
	"math"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/kubeadapt/gpu-catalog/pkg/model"
)

const nonNegative = "must be non-negative"

// recordPath identifies a device by short name when it has one, else by
// position in the document.
func recordPath(i int, name string) *field.Path {
	if name != "" {
		return devicesPath.Key(name)
	}
	return devicesPath.Index(i)
}

// validateRecords checks value ranges and short-name uniqueness across the
// whole batch.
func validateRecords(records []model.DeviceRecord) field.ErrorList {
	var errs field.ErrorList
	seen := sets.New[string]()

	for i := range records {
		rec := &records[i]
		path := recordPath(i, rec.Name)

		if rec.Name == "" {
			errs = append(errs, field.Required(path.Child("name"), "short name must not be empty"))
		} else if seen.Has(rec.Name) {
			errs = append(errs, field.Duplicate(devicesPath.Index(i).Child("name"), rec.Name))
		} else {
			seen.Insert(rec.Name)
		}

		errs = append(errs, nonNegativeInt(path.Child("tdp"), int64(rec.TDP))...)
		errs = append(errs, nonNegativeInt(path.Child("sms"), int64(rec.SMs))...)
		errs = append(errs, nonNegativeInt(path.Child("cores_cuda"), int64(rec.CoresCUDA))...)
		if rec.CoresTensor != nil {
			errs = append(errs, nonNegativeInt(path.Child("cores_tensor"), int64(*rec.CoresTensor))...)
		}
		errs = append(errs, optionalBytes(path.Child("register_size"), rec.RegisterSize)...)
		errs = append(errs, optionalBytes(path.Child("cache_l1"), rec.CacheL1)...)
		errs = append(errs, optionalBytes(path.Child("cache_l2"), rec.CacheL2)...)
		errs = append(errs, nonNegativeInt(path.Child("vram"), rec.VRAM)...)

		errs = append(errs, nonNegativeRate(path.Child("membw"), rec.MemBW)...)
		errs = append(errs, nonNegativeRate(path.Child("fp32_general"), rec.FP32General)...)
		errs = append(errs, nonNegativeRate(path.Child("fp16"), rec.FP16)...)
	}
	return errs
}

func nonNegativeInt(path *field.Path, v int64) field.ErrorList {
	if v < 0 {
		return field.ErrorList{field.Invalid(path, v, nonNegative)}
	}
	return nil
}

func optionalBytes(path *field.Path, v *int64) field.ErrorList {
	if v == nil {
		return nil
	}
	return nonNegativeInt(path, *v)
}

func nonNegativeRate(path *field.Path, v float64) field.ErrorList {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return field.ErrorList{field.Invalid(path, v, "must be a finite number")}
	}
	if v < 0 {
		return field.ErrorList{field.Invalid(path, v, nonNegative)}
	}
	return nil
}
