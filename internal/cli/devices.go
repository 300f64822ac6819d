package cli

import (
	"fmt"

	"github.com/rileyhilliard/gpumon/internal/reconcile"
	"github.com/rileyhilliard/gpumon/internal/telemetry"
	"github.com/rileyhilliard/gpumon/internal/ui"
)

var deviceColumns = []ui.TableColumn{
	{Title: "GPU", Width: 3},
	{Title: "Name", Width: 12},
	{Title: "Temp", Width: 6},
	{Title: "State", Width: 8},
	{Title: "Util", Width: 4},
	{Title: "Memory", Width: 16},
	{Title: "Power", Width: 8},
}

// deviceRows builds one table row per id in order. Ids without a record
// are skipped.
func deviceRows(order []string, metrics map[string]telemetry.DeviceRecord, bands reconcile.Bands) [][]string {
	rows := make([][]string, 0, len(order))
	for _, id := range order {
		rec, ok := metrics[id]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			rec.ID,
			rec.Name,
			reconcile.TemperatureLabel(rec),
			bands.Classify(rec.TemperatureC).String(),
			fmt.Sprintf("%d%%", rec.UtilizationPct),
			reconcile.Memory(rec).Label(),
			reconcile.PowerLabel(rec),
		})
	}
	return rows
}

// renderDevices renders the device table, or "" when nothing is known.
func renderDevices(order []string, metrics map[string]telemetry.DeviceRecord, bands reconcile.Bands) string {
	return ui.RenderTable(deviceColumns, deviceRows(order, metrics, bands))
}
