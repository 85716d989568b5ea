package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bgricker/vitalboost/internal/cleanup"
)

func renderMarkdown(in Input, lb labels) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeInline(titleOf(in, lb)))
	fmt.Fprintf(&b, "%s: %s  \n", lb.Generated, in.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "%s: %s\n", lb.Duration, formatDuration(in.Duration))
	if in.RunID != "" {
		fmt.Fprintf(&b, "\n%s: `%s`\n", lb.RunID, in.RunID)
	}
	b.WriteString("\n")

	writeStatsTable(&b, in, lb)
	writeDetails(&b, in, lb)
	writeLogTable(&b, in, lb)
	writeRecommendations(&b, lb)
	return b.String()
}

func writeStatsTable(b *strings.Builder, in Input, lb labels) {
	fmt.Fprintf(b, "## %s\n\n", lb.Statistics)
	fmt.Fprintf(b, "| %s | %s |\n|---|---:|\n", lb.Field, lb.Value)
	for _, card := range statCards(in, lb) {
		fmt.Fprintf(b, "| %s | %s |\n", card.Label, card.Value)
	}
	b.WriteString("\n")
}

// writeDetails emits the sections shared by the markdown and HTML reports.
func writeDetails(b *strings.Builder, in Input, lb labels) {
	if len(in.Stats.SoftwareUpdated) > 0 {
		fmt.Fprintf(b, "## %s\n\n", lb.SoftwareUpdated)
		for _, s := range in.Stats.SoftwareUpdated {
			fmt.Fprintf(b, "- %s\n", escapeInline(s))
		}
		b.WriteString("\n")
	}
	if len(in.Stats.Warnings) > 0 {
		fmt.Fprintf(b, "## %s\n\n", lb.Warnings)
		for _, w := range in.Stats.Warnings {
			fmt.Fprintf(b, "- %s\n", escapeInline(w))
		}
		b.WriteString("\n")
	}

	if len(in.SystemInfo) > 0 {
		fmt.Fprintf(b, "## %s\n\n", lb.SystemInfo)
		fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", lb.Field, lb.Value)
		for _, f := range in.SystemInfo {
			fmt.Fprintf(b, "| %s | %s |\n", escapeInline(f.Key), escapeInline(f.Value))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(b, "## %s\n\n", lb.Operations)
	if len(in.Operations) == 0 {
		fmt.Fprintf(b, "%s\n\n", lb.NoOperations)
	} else {
		for i, op := range in.Operations {
			fmt.Fprintf(b, "%d. %s\n", i+1, escapeInline(op))
		}
		b.WriteString("\n")
	}
}

func writeLogTable(b *strings.Builder, in Input, lb labels) {
	fmt.Fprintf(b, "## %s\n\n", lb.Log)
	fmt.Fprintf(b, "| %s | %s | %s |\n|---|---|---|\n", lb.Time, lb.Level, lb.Message)
	for _, e := range in.Transcript {
		fmt.Fprintf(b, "| %s | %s | %s |\n", e.Time.Format("15:04:05"), e.Level, escapeCell(e.Message))
	}
	b.WriteString("\n")
}

func writeRecommendations(b *strings.Builder, lb labels) {
	fmt.Fprintf(b, "## %s\n\n", lb.Recommendations)
	for _, tip := range lb.Tips {
		fmt.Fprintf(b, "- %s\n", escapeInline(tip))
	}
}

type statCard struct {
	Label string
	Value string
}

func statCards(in Input, lb labels) []statCard {
	return []statCard{
		{lb.SpaceFreed, cleanup.FormatBytes(in.Stats.SpaceFreedBytes)},
		{lb.LocationsCleaned, strconv.Itoa(in.Stats.FilesCleaned)},
		{lb.ErrorsFixed, strconv.Itoa(in.Stats.ErrorsFixed)},
		{lb.DriversChecked, strconv.Itoa(in.Stats.DriversChecked)},
		{lb.SoftwareUpdated, strconv.Itoa(len(in.Stats.SoftwareUpdated))},
		{lb.Warnings, strconv.Itoa(len(in.Stats.Warnings))},
	}
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"|", `\|`,
	"~", `\~`,
	"#", `\#`,
	"&", `\&`,
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

// escapeCell renders s inside a table cell keeping its indentation and line
// breaks.
func escapeCell(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		escaped := markdownEscaper.Replace(line)
		body := strings.TrimLeft(escaped, " ")
		lines[i] = strings.Repeat("&nbsp;", len(escaped)-len(body)) + body
	}
	return strings.Join(lines, "<br>")
}

// escapeInline makes s safe inside a table cell or list item. Leading
// markers that would start a nested block are escaped too.
func escapeInline(s string) string {
	s = markdownEscaper.Replace(s)
	trimmed := strings.TrimLeft(s, " ")
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '-', '+', '=':
		return `\` + trimmed
	}
	if i := strings.IndexFunc(trimmed, func(r rune) bool { return r < '0' || r > '9' }); i > 0 && (trimmed[i] == '.' || trimmed[i] == ')') {
		return trimmed[:i] + `\` + trimmed[i:]
	}
	return trimmed
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Second).String()
}
