package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a table column with name and minimum width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a non-interactive Bubbles table with the default styling.
// Column widths grow to fit the widest cell.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		width := max(c.Width, lipgloss.Width(c.Title))
		for _, row := range rows {
			if i < len(row) {
				width = max(width, lipgloss.Width(row[i]))
			}
		}
		cols[i] = table.Column{Title: c.Title, Width: width}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.Foreground(ColorPrimary)
	// Nothing is focused, so the cursor row must look like every other row.
	s.Selected = s.Cell

	t.SetStyles(s)
	return t
}

// RenderTable renders rows as a static table for CLI output. Returns "" when
// there are no rows.
func RenderTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	return NewTable(columns, tableRows).View()
}
