// Package cli implements the gpumon command-line interface.
//
// # Command Structure
//
// The root command is "gpumon"; run bare it opens the dashboard.
//
//	gpumon               - Live dashboard (same as 'gpumon monitor')
//	gpumon monitor       - Live dashboard, or plain text when piped
//	gpumon snapshot      - One sample as a table or JSON
//	gpumon check         - Diagnose config and telemetry source
//	gpumon init          - Create .gpumon.yaml
//	gpumon version       - Build information
//
// Every command builds its telemetry source and scheduler from the resolved
// config (file, then GPUMON_* environment, then flags). The dashboard and
// the plain printer only ever see samples through the scheduler's mailbox.
//
// # Flag Handling
//
// Global flags (--config, --verbose, --interval, --source, --nvidia-smi,
// --detailed, --color) are persistent on the root command. The ones named
// in config.FlagKeys override the file and environment only when set
// explicitly.
//
// # Machine Output
//
// snapshot and check accept --json. Snapshot output is wrapped in
// JSONEnvelope; errors map to the ErrCode constants.
package cli
