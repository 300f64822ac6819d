package cli

import (
	"github.com/rileyhilliard/gpumon/internal/acquire"
	"github.com/rileyhilliard/gpumon/internal/config"
	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/logger"
	"github.com/rileyhilliard/gpumon/internal/reconcile"
	"github.com/rileyhilliard/gpumon/internal/scheduler"
)

// newAcquirer is swapped out by tests.
var newAcquirer = buildAcquirer

// buildAcquirer returns the telemetry source named by cfg.Source.
func buildAcquirer(cfg *config.Config) (acquire.Acquirer, error) {
	switch cfg.Source {
	case config.SourceNvidiaSMI, "":
		return acquire.NewCommandAcquirer(cfg.NvidiaSMI.Path, cfg.NvidiaSMI.ExtraArgs, logger.NewEnvLogger("[acquire]")), nil
	case config.SourceNVML:
		return acquire.NewNVMLAcquirer(logger.NewEnvLogger("[nvml]")), nil
	default:
		return nil, errors.New(errors.ErrConfig,
			"Unknown telemetry source '"+cfg.Source+"'",
			"Use 'nvidia-smi' or 'nvml'.")
	}
}

// newScheduler creates a stopped scheduler configured from cfg.
func newScheduler(cfg *config.Config, acq acquire.Acquirer) *scheduler.Scheduler {
	return scheduler.New(acq, scheduler.NewMailbox(), scheduler.Options{
		IntervalSeconds:  cfg.Interval,
		CycleTimeout:     cfg.Timeouts.Cycle,
		PreflightTimeout: cfg.Timeouts.Preflight,
		Detailed:         cfg.Detailed,
		Logger:           logger.NewEnvLogger("[scheduler]"),
	})
}

// bandsFromConfig returns the temperature bands set in cfg.
func bandsFromConfig(cfg *config.Config) reconcile.Bands {
	return reconcile.Bands{
		Warning:  cfg.Thresholds.TempWarning,
		Critical: cfg.Thresholds.TempCritical,
	}
}
