package scrollbar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/ckanconsole/tui/theme"
)

const (
	thumb = "█"
	track = "░"
)

// Generate returns one scrollbar cell per visible line for a list of total
// items whose window of height lines starts at offset.
func Generate(offset, height, total int) []string {
	if height <= 0 {
		return []string{}
	}

	bar := make([]string, height)
	if total <= height {
		for i := range bar {
			bar[i] = theme.DefaultTheme.Muted.Render(thumb)
		}
		return bar
	}

	thumbSize := max(1, height*height/total)
	maxOffset := total - height
	offset = min(max(offset, 0), maxOffset)

	maxThumbStart := height - thumbSize
	thumbStart := int(float64(maxThumbStart)*float64(offset)/float64(maxOffset) + 0.5)
	thumbStart = min(max(thumbStart, 0), maxThumbStart)

	for i := range bar {
		if i >= thumbStart && i < thumbStart+thumbSize {
			bar[i] = theme.DefaultTheme.Muted.Render(thumb)
		} else {
			bar[i] = theme.DefaultTheme.Muted.Render(track)
		}
	}
	return bar
}

// Overlay pads lines to a common width and appends a scrollbar column.
// Lines are the visible window of total items starting at offset.
func Overlay(lines []string, offset, total int) string {
	width := 0
	for _, line := range lines {
		width = max(width, lipgloss.Width(line))
	}

	bar := Generate(offset, len(lines), total)
	out := make([]string, len(lines))
	for i, line := range lines {
		pad := strings.Repeat(" ", width-lipgloss.Width(line))
		out[i] = line + pad + " " + bar[i]
	}
	return strings.Join(out, "\n")
}
