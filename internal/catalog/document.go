package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/kubeadapt/gpu-catalog/pkg/model"
)

// document is the on-disk catalog layout. Devices stay as raw nodes so each
// one can be decoded and reported on independently.
type document struct {
	Architectures map[string]model.Capabilities `yaml:"architectures"`
	Devices       []yaml.Node                   `yaml:"devices"`
}

// deviceDoc mirrors one authored device. Pointers distinguish an absent key
// from a zero value.
type deviceDoc struct {
	Name     *string `yaml:"name"`
	NameFull *string `yaml:"name_full"`
	Citation *string `yaml:"citation"`

	TDP          *int      `yaml:"tdp"`
	SMs          *int      `yaml:"sms"`
	CoresCUDA    *int      `yaml:"cores_cuda"`
	CoresTensor  *int      `yaml:"cores_tensor"`
	RegisterSize *ByteSize `yaml:"register_size"`
	CacheL1      *ByteSize `yaml:"cache_l1"`
	CacheL2      *ByteSize `yaml:"cache_l2"`

	VRAM  *ByteSize  `yaml:"vram"`
	MemBW *Bandwidth `yaml:"membw"`

	FP32General *float64 `yaml:"fp32_general"`
	FP16        *float64 `yaml:"fp16"`

	Architecture string `yaml:"architecture"`

	HasBF16 *bool `yaml:"has_bf16"`
	HasTF32 *bool `yaml:"has_tf32"`
	HasINT8 *bool `yaml:"has_int8"`
	HasINT4 *bool `yaml:"has_int4"`
	HasFP8  *bool `yaml:"has_fp8"`
	HasFP6  *bool `yaml:"has_fp6"`
	HasFP4  *bool `yaml:"has_fp4"`

	CrippledFP32Acc bool `yaml:"crippled_fp32acc"`
}

var deviceKeys = sets.New(
	"name", "name_full", "citation",
	"tdp", "sms", "cores_cuda", "cores_tensor", "register_size", "cache_l1", "cache_l2",
	"vram", "membw", "fp32_general", "fp16",
	"architecture",
	"has_bf16", "has_tf32", "has_int8", "has_int4", "has_fp8", "has_fp6", "has_fp4",
	"crippled_fp32acc",
)

// ByteSize is a byte count authored either as a plain integer or as a
// Kubernetes quantity with a binary or decimal suffix ("16Gi", "6M").
type ByteSize int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	q, err := parseQuantityNode(node)
	if err != nil {
		return err
	}
	v, ok := q.AsInt64()
	if !ok {
		return fmt.Errorf("line %d: %q is not a whole number of bytes", node.Line, node.Value)
	}
	*b = ByteSize(v)
	return nil
}

// Bandwidth is a bytes-per-second rate. Like ByteSize it accepts quantity
// suffixes, but may be fractional ("608.3Gi").
type Bandwidth float64

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Bandwidth) UnmarshalYAML(node *yaml.Node) error {
	q, err := parseQuantityNode(node)
	if err != nil {
		return err
	}
	*b = Bandwidth(q.AsApproximateFloat64())
	return nil
}

func parseQuantityNode(node *yaml.Node) (resource.Quantity, error) {
	if node.Kind != yaml.ScalarNode {
		return resource.Quantity{}, fmt.Errorf("line %d: expected a scalar quantity", node.Line)
	}
	q, err := resource.ParseQuantity(node.Value)
	if err != nil {
		return resource.Quantity{}, fmt.Errorf("line %d: invalid quantity %q: %w", node.Line, node.Value, err)
	}
	return q, nil
}

// mappingValue returns the scalar value for key in a mapping node.
func mappingValue(node *yaml.Node, key string) (string, bool) {
	if node.Kind != yaml.MappingNode {
		return "", false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key && node.Content[i+1].Kind == yaml.ScalarNode {
			return node.Content[i+1].Value, true
		}
	}
	return "", false
}

// mappingKeys returns the keys of a mapping node in document order.
func mappingKeys(node *yaml.Node) []string {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys
}
