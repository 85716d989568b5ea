// Package logger renders pipeline transcripts for people and configures
// structured diagnostics for the program itself.
//
// Console implements pipeline.Sink. Every transcript line is prefixed with an
// [HH:MM:SS] timestamp and its level; colour and the live progress bar are
// only used when writing to a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/bgricker/vitalboost/internal/pipeline"
)

const barWidth = 30

// Log level thresholds for filtering
const (
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Console writes transcript lines and progress to a writer.
type Console struct {
	writer      io.Writer
	logLevel    string
	colorOutput bool
	liveBar     bool
	now         func() time.Time

	mutex      sync.Mutex
	barVisible bool
	lastLabel  string
}

// NewConsole creates a Console writing to writer. logLevel filters lines:
// debug and info show everything, warn shows warnings and errors, error shows
// errors only. Unknown levels default to info. A nil writer discards output.
func NewConsole(writer io.Writer, logLevel string) *Console {
	tty := isTerminal(writer)
	return &Console{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: tty && !color.NoColor,
		liveBar:     tty,
		now:         time.Now,
	}
}

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "debug", "info", "warn", "error":
		return normalized
	case "warning":
		return "warn"
	}
	return "info"
}

func logLevelToInt(level string) int {
	switch level {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func transcriptLevel(level pipeline.Level) int {
	switch level {
	case pipeline.LevelWarning:
		return levelWarn
	case pipeline.LevelError:
		return levelError
	default:
		return levelInfo
	}
}

func (c *Console) shouldLog(level pipeline.Level) bool {
	return transcriptLevel(level) >= logLevelToInt(c.logLevel)
}

// AppendLog writes one transcript line.
func (c *Console) AppendLog(level pipeline.Level, message string) {
	if c.writer == nil || !c.shouldLog(level) {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.clearBarLocked()
	ts := c.now().Format("15:04:05")
	if c.colorOutput {
		fmt.Fprintf(c.writer, "[%s] [%s] %s\n", ts, colorLevel(level), message)
	} else {
		fmt.Fprintf(c.writer, "[%s] [%s] %s\n", ts, level, message)
	}
}

// ReportProgress redraws the progress bar on terminals. Elsewhere it prints a
// bar line only when the label changes, so redirected output stays readable.
func (c *Console) ReportProgress(percent int, label string) {
	if c.writer == nil || !c.shouldLog(pipeline.LevelProgress) {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	bar := RenderBar(percent, barWidth)
	if c.colorOutput {
		bar = color.New(color.FgCyan).Sprint(bar)
	}
	if c.liveBar {
		fmt.Fprintf(c.writer, "\r\033[K%s %s", bar, label)
		c.barVisible = true
		if percent >= 100 {
			fmt.Fprintln(c.writer)
			c.barVisible = false
		}
		return
	}
	if label == c.lastLabel {
		return
	}
	c.lastLabel = label
	fmt.Fprintf(c.writer, "%s %s\n", bar, label)
}

func (c *Console) clearBarLocked() {
	if c.barVisible {
		fmt.Fprint(c.writer, "\r\033[K")
		c.barVisible = false
	}
}

// Finish terminates a visible progress bar line.
func (c *Console) Finish() {
	if c.writer == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.barVisible {
		fmt.Fprintln(c.writer)
		c.barVisible = false
	}
}

func colorLevel(level pipeline.Level) string {
	switch level {
	case pipeline.LevelSuccess:
		return color.New(color.FgGreen).Sprint(level)
	case pipeline.LevelWarning:
		return color.New(color.FgYellow).Sprint(level)
	case pipeline.LevelError:
		return color.New(color.FgRed).Sprint(level)
	case pipeline.LevelProgress:
		return color.New(color.FgCyan).Sprint(level)
	default:
		return color.New(color.FgBlue).Sprint(level)
	}
}
