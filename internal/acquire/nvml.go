package acquire

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/logger"
	"github.com/rileyhilliard/gpumon/internal/reconcile"
	"github.com/rileyhilliard/gpumon/internal/telemetry"
)

// NVMLSourceName is reported by NVMLAcquirer.Name.
const NVMLSourceName = "nvml"

// deviceReader is the slice of the NVML library the acquirer needs.
type deviceReader interface {
	Init() error
	Shutdown() error
	Devices() ([]telemetry.DeviceRecord, error)
	Versions() (driver, library string, err error)
}

// NVMLAcquirer reads telemetry through the NVML library instead of a
// subprocess. It renders the same summary text the command acquirer returns,
// so the parser and everything downstream are shared.
type NVMLAcquirer struct {
	reader deviceReader
	log    logger.Logger

	mu          sync.Mutex
	initialized bool
}

// NewNVMLAcquirer creates an acquirer backed by the system NVML library.
func NewNVMLAcquirer(log logger.Logger) *NVMLAcquirer {
	return newNVMLAcquirer(newNVMLReader(), log)
}

func newNVMLAcquirer(reader deviceReader, log logger.Logger) *NVMLAcquirer {
	if log == nil {
		log = logger.Noop()
	}
	return &NVMLAcquirer{reader: reader, log: log}
}

// Name returns "nvml".
func (a *NVMLAcquirer) Name() string {
	return NVMLSourceName
}

// Preflight initializes the library. A later Close shuts it down.
func (a *NVMLAcquirer) Preflight(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := withTimeout(ctx, timeout, DefaultPreflightTimeout)
	defer cancel()

	_, err := a.call(ctx, func() (string, error) {
		return "", a.ensureInit()
	})
	if err == nil {
		return nil
	}
	if ctxErr := cancelled(ctx, err); ctxErr != nil {
		return ctxErr
	}
	if errors.IsCode(err, errors.ErrToolUnavailable) {
		return err
	}
	return errors.WrapWithCode(err, errors.ErrToolUnavailable,
		"NVML not available",
		"Install the NVIDIA driver, or set source: nvidia-smi in the config.")
}

// Acquire reads all devices and renders them in the requested form.
func (a *NVMLAcquirer) Acquire(ctx context.Context, kind Kind, timeout time.Duration) (string, error) {
	ctx, cancel := withTimeout(ctx, timeout, DefaultCycleTimeout)
	defer cancel()

	out, err := a.call(ctx, func() (string, error) {
		if err := a.ensureInit(); err != nil {
			return "", err
		}
		records, err := a.reader.Devices()
		if err != nil {
			return "", errors.WrapWithCode(err, errors.ErrNonZeroExit,
				"NVML query failed", "")
		}
		if kind == Detailed {
			driver, library, verr := a.reader.Versions()
			if verr != nil {
				a.log.Debug("nvml version lookup failed: %v", verr)
			}
			return renderDetailed(driver, library, records), nil
		}

		var b strings.Builder
		for _, rec := range records {
			b.WriteString(telemetry.FormatSummaryLine(rec))
			b.WriteString("\n")
		}
		return b.String(), nil
	})
	if err != nil {
		if ctxErr := cancelled(ctx, err); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}
	return out, nil
}

// Close releases the library if Preflight or Acquire initialized it.
func (a *NVMLAcquirer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return nil
	}
	a.initialized = false
	return a.reader.Shutdown()
}

func (a *NVMLAcquirer) ensureInit() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return nil
	}
	if err := a.reader.Init(); err != nil {
		return errors.WrapWithCode(err, errors.ErrToolUnavailable,
			"NVML not available",
			"Install the NVIDIA driver, or set source: nvidia-smi in the config.")
	}
	a.initialized = true
	return nil
}

// call runs fn off the caller's goroutine so a hung library call is still
// bounded by ctx. The library call itself keeps running until it returns.
func (a *NVMLAcquirer) call(ctx context.Context, fn func() (string, error)) (string, error) {
	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := fn()
		done <- result{out: out, err: err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.WrapWithCode(ctx.Err(), errors.ErrTimeout,
				"NVML did not answer in time", "")
		}
		return "", ctx.Err()
	}
}

// renderDetailed produces a readable multi-device dump for the Detailed tab.
func renderDetailed(driver, library string, records []telemetry.DeviceRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Driver Version : %s\n", valueOr(driver, "N/A"))
	fmt.Fprintf(&b, "NVML Version   : %s\n", valueOr(library, "N/A"))
	fmt.Fprintf(&b, "Attached GPUs  : %d\n", len(records))

	for _, rec := range records {
		mem := reconcile.Memory(rec)
		fmt.Fprintf(&b, "\nGPU %s\n", rec.ID)
		fmt.Fprintf(&b, "    Product Name    : %s\n", rec.Name)
		fmt.Fprintf(&b, "    GPU Current Temp: %s\n", reconcile.TemperatureLabel(rec))
		fmt.Fprintf(&b, "    Utilization     : %d %%\n", rec.UtilizationPct)
		fmt.Fprintf(&b, "    Memory          : %s\n", mem.Label())
		fmt.Fprintf(&b, "    Power Draw      : %s\n", reconcile.PowerLabel(rec))
	}
	return b.String()
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

var _ Acquirer = (*NVMLAcquirer)(nil)
