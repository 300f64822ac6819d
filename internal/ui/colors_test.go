package ui

import (
	"bytes"
	"os"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func restoreProfile(t *testing.T) {
	t.Helper()
	orig := lipgloss.ColorProfile()
	t.Cleanup(func() { lipgloss.SetColorProfile(orig) })
}

func TestFprintWarning(t *testing.T) {
	var buf bytes.Buffer
	FprintWarning(&buf, "interval 0 is below 1 second; using 1")

	output := buf.String()
	assert.Contains(t, output, "interval 0 is below 1 second; using 1")
	assert.Contains(t, output, SymbolWarning)
}

func TestDisableColors(t *testing.T) {
	restoreProfile(t)
	lipgloss.SetColorProfile(termenv.TrueColor)

	DisableColors()

	assert.Equal(t, termenv.Ascii, lipgloss.ColorProfile())
	assert.Equal(t, "test", SuccessStyle().Render("test"))
}

func TestApplyColorMode(t *testing.T) {
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		t.Skip("no null device")
	}
	defer devNull.Close()

	tests := []struct {
		name  string
		mode  string
		start termenv.Profile
		want  func(termenv.Profile) bool
	}{
		{"never disables", ColorModeNever, termenv.TrueColor, func(p termenv.Profile) bool { return p == termenv.Ascii }},
		{"auto disables when piped", ColorModeAuto, termenv.TrueColor, func(p termenv.Profile) bool { return p == termenv.Ascii }},
		{"always forces color", ColorModeAlways, termenv.Ascii, func(p termenv.Profile) bool { return p != termenv.Ascii }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreProfile(t)
			t.Setenv("NO_COLOR", "")
			lipgloss.SetColorProfile(tt.start)

			ApplyColorMode(tt.mode, devNull)

			assert.True(t, tt.want(lipgloss.ColorProfile()), "profile %v", lipgloss.ColorProfile())
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(nil))

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	assert.False(t, IsTerminal(f))
}

func TestStylesAreFunctional(t *testing.T) {
	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Success", SuccessStyle()},
		{"Error", ErrorStyle()},
		{"Warning", WarningStyle()},
		{"Info", InfoStyle()},
		{"Muted", MutedStyle()},
		{"Header", HeaderStyle()},
	}

	for _, tt := range styles {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				result := tt.style.Render("test text")
				assert.NotEmpty(t, result)
			})
		})
	}
}
