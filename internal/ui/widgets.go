package ui

import (
	"fmt"
	"strings"
)

// VolumeBar renders level out of steps as a fixed-width gauge.
func VolumeBar(level, steps int) string {
	if steps <= 0 {
		return ""
	}
	level = max(0, min(steps, level))
	return "[" + strings.Repeat("#", level) + strings.Repeat(".", steps-level) + "]"
}

// Bytes formats n with a binary unit.
func Bytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Truncate shortens s to width runes, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
