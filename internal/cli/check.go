package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/gpumon/internal/config"
	"github.com/rileyhilliard/gpumon/internal/doctor"
	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/ui"
)

var checkJSON bool

// CheckOutput is the JSON payload of 'gpumon check --json'.
type CheckOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput groups results under one category.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput counts results by status.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

var checkCmd = &cobra.Command{
	Use:     "check",
	Aliases: []string{"doctor"},
	Short:   "Diagnose config and telemetry source problems",
	Long: `Run diagnostic checks before opening the dashboard.

Checks:
  - Config file discovery and values
  - Telemetry source availability (the same check monitoring start runs)
  - A summary query, listing the GPUs found
  - The detailed dump, when enabled
  - Host details

Exits non-zero when any check fails.

Examples:
  gpumon check
  gpumon check --source nvml
  gpumon check --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return checkCommand(cmd, cmd.OutOrStdout(), checkJSON)
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(checkCmd)
}

func checkCommand(cmd *cobra.Command, w io.Writer, asJSON bool) error {
	// A broken config is one of the things being checked, so fall back to
	// defaults for the source checks and let the config checks report it.
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	ui.ApplyColorMode(cfg.Output.Color, os.Stdout)

	acq, err := newAcquirer(cfg)
	if err != nil {
		return err
	}
	if closer, ok := acq.(io.Closer); ok {
		defer closer.Close()
	}

	checks := doctor.NewChecks(cfgFile, acq, cfg.Timeouts.Preflight, cfg.Timeouts.Cycle, cfg.Detailed)

	var results []doctor.CheckResult
	if asJSON {
		results = doctor.RunAll(cmd.Context(), checks)
	} else {
		spinner := ui.NewSpinnerTo(w, "Running checks")
		spinner.Start()
		results = doctor.RunAll(cmd.Context(), checks)
		if doctor.HasFailures(results) {
			spinner.Fail()
		} else {
			spinner.Success()
		}
	}

	if asJSON {
		err = outputCheckJSON(w, checks, results)
	} else {
		err = outputCheckText(w, checks, results)
	}
	if err != nil {
		return err
	}

	if doctor.HasFailures(results) {
		return errors.NewExitError(1)
	}
	return nil
}

func outputCheckJSON(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	grouped := doctor.GroupByCategory(checks)
	output := CheckOutput{Categories: make([]CategoryOutput, 0, len(grouped))}

	for _, cat := range doctor.CategoryOrder {
		indices, ok := grouped[cat]
		if !ok {
			continue
		}
		catResults := make([]doctor.CheckResult, len(indices))
		for i, idx := range indices {
			catResults[i] = results[idx]
		}
		output.Categories = append(output.Categories, CategoryOutput{Name: cat, Results: catResults})
	}

	counts := doctor.CountByStatus(results)
	output.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		AllClear: !doctor.HasIssues(results),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func outputCheckText(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.HeaderStyle().Render("gpumon Diagnostic Report"))
	fmt.Fprintln(w)

	grouped := doctor.GroupByCategory(checks)
	for _, category := range doctor.CategoryOrder {
		indices, ok := grouped[category]
		if !ok || len(indices) == 0 {
			continue
		}

		fmt.Fprintln(w, ui.HeaderStyle().Render(category))
		for _, idx := range indices {
			renderCheckResult(w, results[idx])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("━", 60))
	fmt.Fprintln(w)

	if doctor.HasIssues(results) {
		fmt.Fprintf(w, "%s %s\n", ui.ErrorStyle().Render(ui.SymbolFail), doctor.Summary(results))
	} else {
		fmt.Fprintf(w, "%s %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), doctor.Summary(results))
	}
	fmt.Fprintln(w)
	return nil
}

// renderCheckResult renders a single check result with its suggestion
// indented underneath.
func renderCheckResult(w io.Writer, result doctor.CheckResult) {
	var symbol string
	var style lipgloss.Style

	switch result.Status {
	case doctor.StatusPass:
		symbol, style = ui.SymbolComplete, ui.SuccessStyle()
	case doctor.StatusWarn:
		symbol, style = ui.SymbolComplete, ui.WarningStyle() // done, with warning styling
	default:
		symbol, style = ui.SymbolFail, ui.ErrorStyle()
	}

	fmt.Fprintf(w, "  %s %s\n", style.Render(symbol), result.Message)

	if result.Suggestion != "" && result.Status != doctor.StatusPass {
		for _, line := range strings.Split(result.Suggestion, "\n") {
			fmt.Fprintf(w, "    %s\n", ui.MutedStyle().Render(line))
		}
	}
}
