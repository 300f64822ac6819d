package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/gpumon/internal/acquire"
	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/reconcile"
	"github.com/rileyhilliard/gpumon/internal/sysinfo"
	"github.com/rileyhilliard/gpumon/internal/telemetry"
)

// SourceCheck runs the same availability check monitoring start uses.
type SourceCheck struct {
	Acquirer acquire.Acquirer
	Timeout  time.Duration
}

func (c *SourceCheck) Name() string     { return "source_available" }
func (c *SourceCheck) Category() string { return CategorySource }

func (c *SourceCheck) Run(ctx context.Context) CheckResult {
	if err := c.Acquirer.Preflight(ctx, c.Timeout); err != nil {
		return fail(c.Name(), c.Acquirer.Name()+" unavailable: "+errors.MessageOf(err), errors.SuggestionOf(err))
	}
	return pass(c.Name(), c.Acquirer.Name()+" available")
}

// QueryCheck runs one Summary query and parses it, listing the GPUs found.
type QueryCheck struct {
	Acquirer acquire.Acquirer
	Timeout  time.Duration
}

func (c *QueryCheck) Name() string     { return "summary_query" }
func (c *QueryCheck) Category() string { return CategorySource }

func (c *QueryCheck) Run(ctx context.Context) CheckResult {
	out, err := c.Acquirer.Acquire(ctx, acquire.Summary, c.Timeout)
	if err != nil {
		return fail(c.Name(), "Summary query failed: "+errors.MessageOf(err), errors.SuggestionOf(err))
	}

	sample := telemetry.ParseSummary(out, time.Now())
	if sample.Len() == 0 {
		if strings.TrimSpace(out) == "" {
			return warn(c.Name(), "Summary query returned no GPUs",
				"Check that the driver can see a device: "+c.Acquirer.Name())
		}
		return fail(c.Name(), "Summary query returned no parseable lines",
			"Expected 7 comma-separated fields per GPU; run the query by hand to compare.")
	}

	ids := reconcile.SortIDs(sample.IDs())
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		rec, _ := sample.Get(id)
		names = append(names, fmt.Sprintf("%s (%s)", id, rec.Name))
	}
	return pass(c.Name(), fmt.Sprintf("%d GPU%s: %s", len(ids), pluralize(len(ids)), strings.Join(names, ", ")))
}

// DetailedCheck fetches the detailed dump. The dashboard works without it,
// so failures are warnings.
type DetailedCheck struct {
	Acquirer acquire.Acquirer
	Timeout  time.Duration
}

func (c *DetailedCheck) Name() string     { return "detailed_query" }
func (c *DetailedCheck) Category() string { return CategorySource }

func (c *DetailedCheck) Run(ctx context.Context) CheckResult {
	out, err := c.Acquirer.Acquire(ctx, acquire.Detailed, c.Timeout)
	if err != nil {
		return warn(c.Name(), "Detailed query failed: "+errors.MessageOf(err),
			"The Detailed tab will stay empty; set detailed: false to skip it.")
	}
	lines := strings.Count(strings.TrimRight(out, "\n"), "\n") + 1
	if strings.TrimSpace(out) == "" {
		lines = 0
	}
	return pass(c.Name(), fmt.Sprintf("Detailed dump: %d line%s", lines, pluralize(lines)))
}

// HostCheck describes the local machine.
type HostCheck struct {
	// Collect defaults to sysinfo.Collect.
	Collect func(ctx context.Context) sysinfo.Host
}

func (c *HostCheck) Name() string     { return "host" }
func (c *HostCheck) Category() string { return CategoryHost }

func (c *HostCheck) Run(ctx context.Context) CheckResult {
	collect := c.Collect
	if collect == nil {
		collect = sysinfo.Collect
	}
	h := collect(ctx)
	if h.Hostname == "" {
		return warn(c.Name(), "Host details unavailable: "+h.Summary(), "")
	}
	return pass(c.Name(), h.Summary())
}

// NewChecks returns the full check list for one telemetry source.
func NewChecks(configPath string, acq acquire.Acquirer, preflight, cycle time.Duration, detailed bool) []Check {
	checks := []Check{
		&ConfigFileCheck{ConfigPath: configPath},
		&ConfigValuesCheck{ConfigPath: configPath},
		&SourceCheck{Acquirer: acq, Timeout: preflight},
		&QueryCheck{Acquirer: acq, Timeout: cycle},
	}
	if detailed {
		checks = append(checks, &DetailedCheck{Acquirer: acq, Timeout: cycle})
	}
	return append(checks, &HostCheck{})
}
