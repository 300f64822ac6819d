// Package ui provides the styled text output shared by gpumon's one-shot
// commands (snapshot, check, init). The live dashboard has its own palette
// in package monitor.
//
// # Components Overview
//
//	Spinner - Animated status line around a blocking call
//	Table   - Static Bubbles table for device listings
//
// # Color Scheme
//
// Colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Passing checks, available tools
//	ColorError     (red)    - Failures
//	ColorWarning   (yellow) - Warnings and config corrections
//	ColorInfo      (cyan)   - Informational messages
//	ColorMuted     (gray)   - Secondary text, timing info
//
// ApplyColorMode implements --color auto|always|never on top of the termenv
// profile lipgloss renders with.
package ui
