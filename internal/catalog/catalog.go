// Package catalog holds the authored set of accelerator records.
//
// A Catalog is built once, either from a YAML document (Load, LoadFile) or
// from records assembled in code (New), and is read-only afterwards. Both
// paths validate the whole batch up front: required fields must be present,
// numeric attributes non-negative and finite, and short names unique.
// Violations are returned together as an *errors.SchemaError.
package catalog

import (
	"iter"
	"maps"

	"k8s.io/utils/ptr"

	catalogerrors "github.com/kubeadapt/gpu-catalog/internal/errors"
	"github.com/kubeadapt/gpu-catalog/pkg/model"
)

// Catalog is an immutable, insertion-ordered collection of device records.
type Catalog struct {
	records []model.DeviceRecord
	index   map[string]int
	presets map[string]model.Capabilities
}

// New validates records and returns a Catalog holding copies of them in the
// given order.
func New(records []model.DeviceRecord) (*Catalog, error) {
	if err := catalogerrors.NewSchemaError(validateRecords(records)); err != nil {
		return nil, err
	}
	cp := make([]model.DeviceRecord, len(records))
	for i := range records {
		cp[i] = cloneRecord(records[i])
	}
	return newCatalog(cp, nil), nil
}

func newCatalog(records []model.DeviceRecord, presets map[string]model.Capabilities) *Catalog {
	index := make(map[string]int, len(records))
	for i := range records {
		index[records[i].Name] = i
	}
	return &Catalog{
		records: records,
		index:   index,
		presets: presets,
	}
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Get returns the record with the given short name.
func (c *Catalog) Get(name string) (model.DeviceRecord, bool) {
	i, ok := c.index[name]
	if !ok {
		return model.DeviceRecord{}, false
	}
	return cloneRecord(c.records[i]), true
}

// Records returns a copy of every record in catalog order. Mutations to the
// returned slice do not affect the catalog.
func (c *Catalog) Records() []model.DeviceRecord {
	out := make([]model.DeviceRecord, len(c.records))
	for i := range c.records {
		out[i] = cloneRecord(c.records[i])
	}
	return out
}

// All iterates records in catalog order.
func (c *Catalog) All() iter.Seq2[int, model.DeviceRecord] {
	return func(yield func(int, model.DeviceRecord) bool) {
		for i := range c.records {
			if !yield(i, cloneRecord(c.records[i])) {
				return
			}
		}
	}
}

// Names returns the short names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.records))
	for i := range c.records {
		names[i] = c.records[i].Name
	}
	return names
}

// Presets returns the architecture presets declared by the source document.
func (c *Catalog) Presets() map[string]model.Capabilities {
	return maps.Clone(c.presets)
}

func cloneRecord(r model.DeviceRecord) model.DeviceRecord {
	r.CoresTensor = clonePtr(r.CoresTensor)
	r.RegisterSize = clonePtr(r.RegisterSize)
	r.CacheL1 = clonePtr(r.CacheL1)
	r.CacheL2 = clonePtr(r.CacheL2)
	return r
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return ptr.To(*p)
}
