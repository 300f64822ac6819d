// Package sysinfo describes the machine the GPUs live in, for the dashboard
// header and snapshot output.
package sysinfo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Host is a best-effort description of the local machine. Fields that
// could not be read are left zero.
type Host struct {
	Hostname        string        `json:"hostname"`
	OS              string        `json:"os"`
	Platform        string        `json:"platform,omitempty"`
	PlatformVersion string        `json:"platform_version,omitempty"`
	KernelVersion   string        `json:"kernel_version,omitempty"`
	Uptime          time.Duration `json:"uptime_ns"`
	Load1           float64       `json:"load1"`
	MemUsedPercent  float64       `json:"mem_used_percent"`
}

// Collect reads host identity, load average and memory use. It never fails;
// unreadable fields stay empty.
func Collect(ctx context.Context) Host {
	var h Host

	if info, err := host.InfoWithContext(ctx); err == nil {
		h.Hostname = info.Hostname
		h.OS = info.OS
		h.Platform = info.Platform
		h.PlatformVersion = info.PlatformVersion
		h.KernelVersion = info.KernelVersion
		h.Uptime = time.Duration(info.Uptime) * time.Second
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		h.Load1 = avg.Load1
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		h.MemUsedPercent = vm.UsedPercent
	}

	return h
}

// Summary renders a one-line header such as
// "gpu-box · ubuntu 22.04 · up 3d4h · load 0.52 · mem 34%".
func (h Host) Summary() string {
	var parts []string

	name := h.Hostname
	if name == "" {
		name = "localhost"
	}
	parts = append(parts, name)

	if platform := strings.TrimSpace(h.Platform + " " + h.PlatformVersion); platform != "" {
		parts = append(parts, platform)
	} else if h.OS != "" {
		parts = append(parts, h.OS)
	}

	if h.Uptime > 0 {
		parts = append(parts, "up "+FormatUptime(h.Uptime))
	}
	parts = append(parts, fmt.Sprintf("load %.2f", h.Load1))
	parts = append(parts, fmt.Sprintf("mem %.0f%%", h.MemUsedPercent))

	return strings.Join(parts, " · ")
}

// FormatUptime renders a duration as "3d4h", "5h12m" or "42m".
func FormatUptime(d time.Duration) string {
	d = d.Truncate(time.Minute)
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd%dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh%dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
