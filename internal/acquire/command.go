package acquire

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/logger"
	"github.com/rileyhilliard/gpumon/internal/telemetry"
)

// DefaultToolPath is the nvidia-smi binary looked up on PATH.
const DefaultToolPath = "nvidia-smi"

// waitDelay bounds how long we wait for output pipes after the process is killed.
const waitDelay = time.Second

// CommandAcquirer runs nvidia-smi (or a compatible binary) as a subprocess.
type CommandAcquirer struct {
	path      string
	extraArgs []string
	log       logger.Logger
}

// NewCommandAcquirer creates an acquirer for the binary at path. extraArgs are
// appended to the summary and detailed invocations (e.g. "-i", "0,1").
func NewCommandAcquirer(path string, extraArgs []string, log logger.Logger) *CommandAcquirer {
	if path == "" {
		path = DefaultToolPath
	}
	if log == nil {
		log = logger.Noop()
	}
	return &CommandAcquirer{
		path:      path,
		extraArgs: extraArgs,
		log:       log,
	}
}

// Name returns the binary name.
func (a *CommandAcquirer) Name() string {
	return a.path
}

// SummaryArgs returns the arguments used for a Summary query.
func (a *CommandAcquirer) SummaryArgs() []string {
	args := []string{
		"--query-gpu=" + telemetry.SummaryQuery,
		"--format=csv,noheader,nounits",
	}
	return append(args, a.extraArgs...)
}

// DetailedArgs returns the arguments used for a Detailed query.
func (a *CommandAcquirer) DetailedArgs() []string {
	return append([]string{}, a.extraArgs...)
}

// Preflight runs "<tool> --version".
func (a *CommandAcquirer) Preflight(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := withTimeout(ctx, timeout, DefaultPreflightTimeout)
	defer cancel()

	if _, err := a.run(ctx, []string{"--version"}); err != nil {
		if ctxErr := cancelled(ctx, err); ctxErr != nil {
			return ctxErr
		}
		if errors.IsCode(err, errors.ErrToolUnavailable) {
			return err
		}
		return errors.WrapWithCode(err, errors.ErrToolUnavailable,
			fmt.Sprintf("%s not available", a.path),
			"Make sure the NVIDIA driver is installed and the tool responds to --version.")
	}
	return nil
}

// Acquire runs one Summary or Detailed query.
func (a *CommandAcquirer) Acquire(ctx context.Context, kind Kind, timeout time.Duration) (string, error) {
	ctx, cancel := withTimeout(ctx, timeout, DefaultCycleTimeout)
	defer cancel()

	args := a.SummaryArgs()
	if kind == Detailed {
		args = a.DetailedArgs()
	}

	start := time.Now()
	out, err := a.run(ctx, args)
	if err != nil {
		if ctxErr := cancelled(ctx, err); ctxErr != nil {
			return "", ctxErr
		}
		a.log.Debug("%s %s query failed after %s: %v", a.path, kind, time.Since(start).Round(time.Millisecond), errors.CodeOf(err))
		return "", err
	}
	a.log.Debug("%s %s query took %s (%d bytes)", a.path, kind, time.Since(start).Round(time.Millisecond), len(out))
	return out, nil
}

// run executes the tool and classifies failures.
func (a *CommandAcquirer) run(ctx context.Context, args []string) (string, error) {
	command := exec.CommandContext(ctx, a.path, args...)
	command.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	runErr := command.Run()
	if runErr == nil {
		return stdout.String(), nil
	}

	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", errors.WrapWithCode(ctx.Err(), errors.ErrTimeout,
			fmt.Sprintf("%s did not finish in time", a.path),
			"The driver may be busy; raise timeouts.cycle if this keeps happening.")
	}

	var exitErr *exec.ExitError
	if stderrors.As(runErr, &exitErr) && ctx.Err() == nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		cause := fmt.Errorf("exit status %d", exitErr.ExitCode())
		if detail != "" {
			cause = fmt.Errorf("exit status %d: %s", exitErr.ExitCode(), firstLine(detail))
		}
		return "", errors.WrapWithCode(cause, errors.ErrNonZeroExit,
			fmt.Sprintf("%s exited with an error", a.path),
			"Run it by hand to see the full output.")
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	// Start failures: missing binary, permission denied, bad path.
	return "", errors.WrapWithCode(runErr, errors.ErrToolUnavailable,
		fmt.Sprintf("Couldn't run %s", a.path),
		"Make sure the NVIDIA driver utilities are installed and on PATH.")
}

// cancelled returns the caller's cancellation error if ctx was cancelled
// rather than timed out.
func cancelled(ctx context.Context, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(ctx.Err(), context.Canceled) {
		return context.Canceled
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

var _ Acquirer = (*CommandAcquirer)(nil)
