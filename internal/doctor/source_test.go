package doctor

import (
	"context"
	"strings"
	"testing"
	"time"

	acqtesting "github.com/rileyhilliard/gpumon/internal/acquire/testing"
	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/sysinfo"
)

const twoGPUs = "1, Card Y, 85, 10, 2000, 8000, 80.0\n0, Card X, 75, 42, 1000, 8000, 120.5\n"

func TestSourceCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("available", func(t *testing.T) {
		acq := acqtesting.NewFakeAcquirer(twoGPUs)
		result := (&SourceCheck{Acquirer: acq, Timeout: time.Second}).Run(ctx)

		if result.Status != StatusPass || result.Message != "fake available" {
			t.Errorf("got %v %q", result.Status, result.Message)
		}
		if acq.PreflightCalls != 1 {
			t.Errorf("expected one preflight, got %d", acq.PreflightCalls)
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		acq := acqtesting.NewFakeAcquirer("")
		acq.SetPreflightError(errors.New(errors.ErrToolUnavailable, "nvidia-smi not available", "Install the NVIDIA driver"))

		result := (&SourceCheck{Acquirer: acq}).Run(ctx)

		if result.Status != StatusFail {
			t.Fatalf("expected StatusFail, got %v", result.Status)
		}
		if result.Message != "fake unavailable: nvidia-smi not available" {
			t.Errorf("unexpected message %q", result.Message)
		}
		if result.Suggestion != "Install the NVIDIA driver" {
			t.Errorf("unexpected suggestion %q", result.Suggestion)
		}
	})
}

func TestQueryCheck(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		output   string
		errCode  string
		status   CheckStatus
		contains string
	}{
		{"lists gpus in id order", twoGPUs, "", StatusPass, "2 GPUs: 0 (Card X), 1 (Card Y)"},
		{"single gpu", "3, Card Z, 40, 0, 0, 16000, [N/A]\n", "", StatusPass, "1 GPU: 3 (Card Z)"},
		{"empty output", "", "", StatusWarn, "returned no GPUs"},
		{"garbage output", "this is not csv\n", "", StatusFail, "no parseable lines"},
		{"timeout", "", errors.ErrTimeout, StatusFail, "did not finish in time"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			acq := acqtesting.NewFakeAcquirer(tc.output)
			if tc.errCode != "" {
				acq.PushError(tc.errCode)
			}

			result := (&QueryCheck{Acquirer: acq, Timeout: time.Second}).Run(ctx)

			if result.Status != tc.status {
				t.Fatalf("expected %v, got %v: %s", tc.status, result.Status, result.Message)
			}
			if !strings.Contains(result.Message, tc.contains) {
				t.Errorf("expected message to contain %q, got %q", tc.contains, result.Message)
			}
		})
	}
}

func TestDetailedCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("counts lines", func(t *testing.T) {
		acq := acqtesting.NewFakeAcquirer(twoGPUs)
		acq.SetDetailed("Driver Version: 550\nCUDA Version: 12.4\n", nil)

		result := (&DetailedCheck{Acquirer: acq}).Run(ctx)

		if result.Status != StatusPass || result.Message != "Detailed dump: 2 lines" {
			t.Errorf("got %v %q", result.Status, result.Message)
		}
	})

	t.Run("failure is a warning", func(t *testing.T) {
		acq := acqtesting.NewFakeAcquirer(twoGPUs)
		acq.SetDetailed("", acqtesting.Failure(errors.ErrNonZeroExit))

		result := (&DetailedCheck{Acquirer: acq}).Run(ctx)

		if result.Status != StatusWarn {
			t.Errorf("expected StatusWarn, got %v", result.Status)
		}
	})
}

func TestHostCheck(t *testing.T) {
	ctx := context.Background()

	named := &HostCheck{Collect: func(context.Context) sysinfo.Host {
		return sysinfo.Host{Hostname: "gpu-box", OS: "linux"}
	}}
	if result := named.Run(ctx); result.Status != StatusPass || !strings.HasPrefix(result.Message, "gpu-box") {
		t.Errorf("got %v %q", result.Status, result.Message)
	}

	unnamed := &HostCheck{Collect: func(context.Context) sysinfo.Host { return sysinfo.Host{} }}
	if result := unnamed.Run(ctx); result.Status != StatusWarn {
		t.Errorf("expected StatusWarn, got %v", result.Status)
	}
}

func TestNewChecks(t *testing.T) {
	acq := acqtesting.NewFakeAcquirer(twoGPUs)

	withDetailed := NewChecks("", acq, time.Second, time.Second, true)
	without := NewChecks("", acq, time.Second, time.Second, false)

	if len(withDetailed) != len(without)+1 {
		t.Errorf("detailed should add one check: %d vs %d", len(withDetailed), len(without))
	}

	names := make([]string, len(without))
	for i, c := range without {
		names[i] = c.Name()
	}
	want := "config_file,config_values,source_available,summary_query,host"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
