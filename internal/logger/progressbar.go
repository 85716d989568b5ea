package logger

import (
	"fmt"
	"strings"
)

// RenderBar draws "[=====     ]  50%" for percent, clamped to 0..100.
func RenderBar(percent, width int) string {
	if width < 1 {
		width = 10
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := (percent * width) / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("=", filled), strings.Repeat(" ", width-filled), percent)
}
