//go:build nonvml
// +build nonvml

package acquire

import (
	"fmt"

	"github.com/rileyhilliard/gpumon/internal/telemetry"
)

// nvmlReader stub - used when building without NVIDIA libraries
type nvmlReader struct{}

func newNVMLReader() deviceReader {
	return nvmlReader{}
}

func (nvmlReader) Init() error {
	return fmt.Errorf("NVML not available (built with nonvml tag)")
}

func (nvmlReader) Shutdown() error {
	return nil
}

func (nvmlReader) Devices() ([]telemetry.DeviceRecord, error) {
	return nil, fmt.Errorf("NVML not available")
}

func (nvmlReader) Versions() (string, string, error) {
	return "", "", fmt.Errorf("NVML not available")
}
