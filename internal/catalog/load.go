package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"

	catalogerrors "github.com/kubeadapt/gpu-catalog/internal/errors"
	"github.com/kubeadapt/gpu-catalog/pkg/model"
)

var devicesPath = field.NewPath("devices")

// LoadFile reads and validates the catalog document at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a catalog document from r. Every device is checked before
// returning; all violations are reported together in a SchemaError.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, catalogerrors.NewSchemaError(field.ErrorList{
				field.Required(devicesPath, "catalog document is empty"),
			})
		}
		return nil, catalogerrors.NewSchemaError(field.ErrorList{
			&field.Error{
				Type:     field.ErrorTypeInvalid,
				Field:    "<document>",
				BadValue: field.OmitValueType{},
				Detail:   err.Error(),
			},
		})
	}

	var errs field.ErrorList
	records := make([]model.DeviceRecord, 0, len(doc.Devices))
	for i := range doc.Devices {
		rec, recErrs := decodeDevice(i, &doc.Devices[i], doc.Architectures)
		errs = append(errs, recErrs...)
		if rec != nil {
			records = append(records, *rec)
		}
	}
	errs = append(errs, validateRecords(records)...)

	if err := catalogerrors.NewSchemaError(errs); err != nil {
		return nil, err
	}
	return newCatalog(records, doc.Architectures), nil
}

// decodeDevice converts one device node into a DeviceRecord, resolving its
// architecture preset. It returns nil when the node could not be decoded
// or is missing required fields.
func decodeDevice(i int, node *yaml.Node, presets map[string]model.Capabilities) (*model.DeviceRecord, field.ErrorList) {
	name, _ := mappingValue(node, "name")
	path := recordPath(i, name)

	if node.Kind != yaml.MappingNode {
		return nil, field.ErrorList{field.Invalid(path, node.Value, "device must be a mapping")}
	}

	var errs field.ErrorList
	for _, key := range mappingKeys(node) {
		if key == "<<" {
			continue
		}
		if !deviceKeys.Has(key) {
			errs = append(errs, field.NotSupported(path.Child(key), key, sets.List(deviceKeys)))
		}
	}

	var d deviceDoc
	if err := node.Decode(&d); err != nil {
		var te *yaml.TypeError
		if errors.As(err, &te) {
			for _, msg := range te.Errors {
				errs = append(errs, invalidDetail(path, msg))
			}
		} else {
			errs = append(errs, invalidDetail(path, err.Error()))
		}
		return nil, errs
	}

	errs = append(errs, requireField(path, "name", d.Name != nil)...)
	errs = append(errs, requireField(path, "name_full", d.NameFull != nil)...)
	errs = append(errs, requireField(path, "citation", d.Citation != nil)...)
	errs = append(errs, requireField(path, "tdp", d.TDP != nil)...)
	errs = append(errs, requireField(path, "sms", d.SMs != nil)...)
	errs = append(errs, requireField(path, "cores_cuda", d.CoresCUDA != nil)...)
	errs = append(errs, requireField(path, "vram", d.VRAM != nil)...)
	errs = append(errs, requireField(path, "membw", d.MemBW != nil)...)
	errs = append(errs, requireField(path, "fp32_general", d.FP32General != nil)...)
	errs = append(errs, requireField(path, "fp16", d.FP16 != nil)...)

	caps, capErrs := resolveCapabilities(path, &d, presets)
	errs = append(errs, capErrs...)

	if len(errs) > 0 {
		return nil, errs
	}

	return &model.DeviceRecord{
		Name:            *d.Name,
		NameFull:        *d.NameFull,
		Citation:        *d.Citation,
		TDP:             *d.TDP,
		SMs:             *d.SMs,
		CoresCUDA:       *d.CoresCUDA,
		CoresTensor:     d.CoresTensor,
		RegisterSize:    byteSizePtr(d.RegisterSize),
		CacheL1:         byteSizePtr(d.CacheL1),
		CacheL2:         byteSizePtr(d.CacheL2),
		VRAM:            int64(*d.VRAM),
		MemBW:           float64(*d.MemBW),
		FP32General:     *d.FP32General,
		FP16:            *d.FP16,
		Architecture:    d.Architecture,
		Capabilities:    caps,
		CrippledFP32Acc: d.CrippledFP32Acc,
	}, nil
}

// resolveCapabilities starts from the named preset, if any, and applies
// explicit has_* keys on top. Without a preset every flag must be given.
func resolveCapabilities(path *field.Path, d *deviceDoc, presets map[string]model.Capabilities) (model.Capabilities, field.ErrorList) {
	var (
		caps model.Capabilities
		errs field.ErrorList
	)
	if d.Architecture != "" {
		preset, ok := presets[d.Architecture]
		if !ok {
			known := make([]string, 0, len(presets))
			for k := range presets {
				known = append(known, k)
			}
			slices.Sort(known)
			errs = append(errs, field.NotSupported(path.Child("architecture"), d.Architecture, known))
		} else {
			caps = preset
		}
	}

	flags := []struct {
		key string
		src *bool
		dst *bool
	}{
		{"has_bf16", d.HasBF16, &caps.BF16},
		{"has_tf32", d.HasTF32, &caps.TF32},
		{"has_int8", d.HasINT8, &caps.INT8},
		{"has_int4", d.HasINT4, &caps.INT4},
		{"has_fp8", d.HasFP8, &caps.FP8},
		{"has_fp6", d.HasFP6, &caps.FP6},
		{"has_fp4", d.HasFP4, &caps.FP4},
	}
	for _, fl := range flags {
		switch {
		case fl.src != nil:
			*fl.dst = *fl.src
		case d.Architecture == "":
			errs = append(errs, field.Required(path.Child(fl.key), "set the flag or name an architecture preset"))
		}
	}
	return caps, errs
}

func requireField(path *field.Path, key string, present bool) field.ErrorList {
	if present {
		return nil
	}
	return field.ErrorList{field.Required(path.Child(key), "")}
}

func invalidDetail(path *field.Path, detail string) *field.Error {
	return &field.Error{
		Type:     field.ErrorTypeInvalid,
		Field:    path.String(),
		BadValue: field.OmitValueType{},
		Detail:   detail,
	}
}

func byteSizePtr(b *ByteSize) *int64 {
	if b == nil {
		return nil
	}
	v := int64(*b)
	return &v
}
