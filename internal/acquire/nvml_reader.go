//go:build !nonvml
// +build !nonvml

package acquire

import (
	"fmt"
	"strconv"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/rileyhilliard/gpumon/internal/telemetry"
)

const bytesPerMiB = 1024 * 1024

type nvmlReader struct{}

func newNVMLReader() deviceReader {
	return nvmlReader{}
}

func (nvmlReader) Init() error {
	ret := nvml.Init()
	if ret != nvml.SUCCESS {
		return fmt.Errorf("NVML init failed: %v", nvml.ErrorString(ret))
	}
	return nil
}

func (nvmlReader) Shutdown() error {
	ret := nvml.Shutdown()
	if ret != nvml.SUCCESS {
		return fmt.Errorf("NVML shutdown failed: %v", nvml.ErrorString(ret))
	}
	return nil
}

func (nvmlReader) Devices() ([]telemetry.DeviceRecord, error) {
	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("failed to get device count: %v", nvml.ErrorString(ret))
	}

	records := make([]telemetry.DeviceRecord, 0, count)
	for i := 0; i < count; i++ {
		device, ret := nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			continue // Skip failed device
		}

		rec := telemetry.DeviceRecord{ID: strconv.Itoa(i)}
		if index, ret := device.GetIndex(); ret == nvml.SUCCESS {
			rec.ID = strconv.Itoa(index)
		}
		rec.Name, _ = device.GetName()

		if temp, ret := device.GetTemperature(nvml.TEMPERATURE_GPU); ret == nvml.SUCCESS {
			t := int(temp)
			rec.TemperatureC = &t
		}
		if util, ret := device.GetUtilizationRates(); ret == nvml.SUCCESS {
			rec.UtilizationPct = telemetry.ClampPercent(int(util.Gpu))
		}
		if mem, ret := device.GetMemoryInfo(); ret == nvml.SUCCESS {
			rec.MemoryUsedMB = int(mem.Used / bytesPerMiB)
			rec.MemoryTotalMB = int(mem.Total / bytesPerMiB)
		}
		if milliwatts, ret := device.GetPowerUsage(); ret == nvml.SUCCESS {
			w := float64(milliwatts) / 1000
			rec.PowerDrawW = &w
		}

		records = append(records, rec)
	}
	return records, nil
}

func (nvmlReader) Versions() (string, string, error) {
	driver, ret := nvml.SystemGetDriverVersion()
	if ret != nvml.SUCCESS {
		return "", "", fmt.Errorf("failed to get driver version: %v", nvml.ErrorString(ret))
	}
	library, ret := nvml.SystemGetNVMLVersion()
	if ret != nvml.SUCCESS {
		return driver, "", fmt.Errorf("failed to get NVML version: %v", nvml.ErrorString(ret))
	}
	return driver, library, nil
}
