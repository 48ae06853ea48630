package asset

import (
	"fmt"
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/yaml"
)

const (
	// ConfigMapDataKey is the key the JSON asset is stored under.
	ConfigMapDataKey = "gpu_data.json"

	AnnotationBuildID     = "gpu-catalog.kubeadapt.io/build-id"
	AnnotationDeviceCount = "gpu-catalog.kubeadapt.io/device-count"

	// maxConfigMapBytes mirrors the API server's 1 MiB object limit.
	maxConfigMapBytes = 1 << 20
)

// ConfigMapOptions identifies the manifest to render.
type ConfigMapOptions struct {
	Name        string
	Namespace   string
	BuildID     string
	DeviceCount int
}

// ConfigMap renders a v1 ConfigMap manifest carrying the JSON asset.
func ConfigMap(opts ConfigMapOptions, jsonAsset []byte) ([]byte, error) {
	if errs := validation.IsDNS1123Subdomain(opts.Name); len(errs) > 0 {
		return nil, fmt.Errorf("asset: configmap name %q: %s", opts.Name, strings.Join(errs, "; "))
	}
	if opts.Namespace != "" {
		if errs := validation.IsDNS1123Label(opts.Namespace); len(errs) > 0 {
			return nil, fmt.Errorf("asset: configmap namespace %q: %s", opts.Namespace, strings.Join(errs, "; "))
		}
	}
	if len(jsonAsset) > maxConfigMapBytes {
		return nil, fmt.Errorf("asset: configmap payload is %d bytes, limit is %d", len(jsonAsset), maxConfigMapBytes)
	}

	cm := corev1.ConfigMap{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      opts.Name,
			Namespace: opts.Namespace,
			Labels: map[string]string{
				"app.kubernetes.io/name":       "gpu-catalog",
				"app.kubernetes.io/managed-by": "catalog-build",
			},
			Annotations: map[string]string{
				AnnotationBuildID:     opts.BuildID,
				AnnotationDeviceCount: strconv.Itoa(opts.DeviceCount),
			},
		},
		Data: map[string]string{
			ConfigMapDataKey: string(jsonAsset),
		},
	}

	out, err := yaml.Marshal(cm)
	if err != nil {
		return nil, fmt.Errorf("asset: marshal configmap: %w", err)
	}
	return out, nil
}
