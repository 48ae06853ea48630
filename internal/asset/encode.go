// Package asset packages expanded device records into the files consumers
// read: the main JSON or YAML asset, an optional zstd sibling and an
// optional Kubernetes ConfigMap manifest.
package asset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/kubeadapt/gpu-catalog/pkg/model"
)

// Format is the serialization of the main asset.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the asset format from the file extension.
// Anything other than .yaml or .yml is JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode serializes records as a single array. An empty catalog encodes as
// an empty array, never null.
func Encode(records []model.ExpandedRecord, format Format) ([]byte, error) {
	if records == nil {
		records = []model.ExpandedRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("asset: encode json: %w", err)
	}

	switch format {
	case FormatJSON:
		return buf.Bytes(), nil
	case FormatYAML:
		out, err := yaml.JSONToYAML(buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("asset: convert to yaml: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("asset: unknown format %q", format)
	}
}
