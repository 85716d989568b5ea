package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgricker/vitalboost/internal/pipeline"
	"github.com/bgricker/vitalboost/internal/sysinfo"
)

func sampleInput() Input {
	base := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return Input{
		Pipeline:    "cleanup",
		RunID:       "01HV0000000000000000000000",
		Language:    "en",
		GeneratedAt: base.Add(2 * time.Minute),
		Duration:    95 * time.Second,
		Stats: pipeline.Stats{
			FilesCleaned:    3,
			SpaceFreedBytes: 1536,
			ErrorsFixed:     2,
			DriversChecked:  41,
			SoftwareUpdated: []string{"4 programs via winget"},
			Warnings:        []string{"chkdsk: problems detected on disk"},
		},
		Transcript: []pipeline.LogEntry{
			{Time: base, Level: pipeline.LevelInfo, Message: "Cleaning user temp"},
			{Time: base.Add(time.Second), Level: pipeline.LevelSuccess, Message: "Freed 1.5 KB"},
			{Time: base.Add(2 * time.Second), Level: pipeline.LevelWarning, Message: "prefetch <locked> | skipped"},
		},
		SystemInfo: []sysinfo.Field{{Key: "OS", Value: "windows"}, {Key: "CPUs", Value: "8"}},
		Operations: []string{"Clean user temp", "Run SFC"},
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	for _, f := range []Format{FormatHTML, FormatMarkdown, FormatJSON} {
		first, err := Generate(sampleInput(), f)
		require.NoError(t, err, f)
		second, err := Generate(sampleInput(), f)
		require.NoError(t, err, f)
		assert.Equal(t, first, second, "format %s", f)
	}
}

func TestMarkdownContainsStatsAndLogInOrder(t *testing.T) {
	out, err := Generate(sampleInput(), FormatMarkdown)
	require.NoError(t, err)
	md := string(out)

	for _, want := range []string{
		"# System Maintenance Report",
		"| Space freed | 1.5 KB |",
		"| Locations cleaned | 3 |",
		"| Errors fixed | 2 |",
		"| Drivers checked | 41 |",
		"| Software updated | 1 |",
		"| Warnings | 1 |",
		"- 4 programs via winget",
		"- chkdsk: problems detected on disk",
		"| OS | windows |",
		"1. Clean user temp",
		"2. Run SFC",
		"Duration: 1m35s",
		"`01HV0000000000000000000000`",
	} {
		assert.Contains(t, md, want)
	}

	first := strings.Index(md, "Cleaning user temp")
	second := strings.Index(md, "Freed 1.5 KB")
	third := strings.Index(md, `prefetch \<locked\> \| skipped`)
	require.True(t, first >= 0 && second >= 0 && third >= 0, md)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
	assert.Contains(t, md, "| 09:30:01 | SUCCESS | Freed 1.5 KB |")
}

func TestMarkdownWithoutOperations(t *testing.T) {
	in := sampleInput()
	in.Operations = nil
	out, err := Generate(in, FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, string(out), "No operations were performed.")
}

func TestHTMLEscapesAndStylesLevels(t *testing.T) {
	in := sampleInput()
	in.Transcript = append(in.Transcript, pipeline.LogEntry{
		Time: in.GeneratedAt, Level: pipeline.LevelError, Message: "<script>alert(1)</script>",
	})
	in.Operations = append(in.Operations, "<b>bold</b>")

	out, err := Generate(in, FormatHTML)
	require.NoError(t, err)
	page := string(out)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.NotContains(t, page, "<script>")
	assert.NotContains(t, page, "<b>bold</b>")
	assert.Contains(t, page, `class="log-line error"`)
	assert.Contains(t, page, `class="log-line success"`)
	assert.Contains(t, page, `<div class="stat-number">1.5 KB</div>`)
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "#0f0f23")
}

func TestPortugueseLabels(t *testing.T) {
	in := sampleInput()
	in.Language = "pt_BR"
	out, err := Generate(in, FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, string(out), "# Relatório de Manutenção do Sistema")
	assert.Contains(t, string(out), "| Espaço liberado | 1.5 KB |")
}

func TestJSONReport(t *testing.T) {
	out, err := Generate(sampleInput(), FormatJSON)
	require.NoError(t, err)

	var doc struct {
		Pipeline   string              `json:"pipeline"`
		DurationMS int64               `json:"duration_ms"`
		Stats      pipeline.Stats      `json:"stats"`
		SpaceFreed string              `json:"space_freed"`
		Transcript []pipeline.LogEntry `json:"transcript"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "cleanup", doc.Pipeline)
	assert.Equal(t, int64(95000), doc.DurationMS)
	assert.Equal(t, sampleInput().Stats, doc.Stats)
	assert.Equal(t, "1.5 KB", doc.SpaceFreed)
	require.Len(t, doc.Transcript, 3)
	assert.Equal(t, pipeline.LevelWarning, doc.Transcript[2].Level)
}

func TestGenerateUnknownFormat(t *testing.T) {
	_, err := Generate(sampleInput(), Format("pdf"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	f, err := ParseFormat("MD")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)
}

func TestEscapeInline(t *testing.T) {
	cases := map[string]string{
		"plain text":        "plain text",
		"- dash":            `\- dash`,
		"1. numbered":       `1\. numbered`,
		"a|b":               `a\|b`,
		"two\nlines":        "two lines",
		"*bold* _it_":       `\*bold\* \_it\_`,
		"C:\\Windows\\Temp": `C:\\Windows\\Temp`,
	}
	for in, want := range cases {
		assert.Equal(t, want, escapeInline(in), in)
	}
}

func TestEscapeCellKeepsLayout(t *testing.T) {
	cases := map[string]string{
		"  beep  Beep  Stopped": "&nbsp;&nbsp;beep  Beep  Stopped",
		"first\nsecond":         "first<br>second",
		"a|b\r\n  c":            `a\|b<br>&nbsp;&nbsp;c`,
		"- dash":                "- dash",
		"":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, escapeCell(in), in)
	}
}

func TestMarkdownTranscriptKeepsIndentation(t *testing.T) {
	in := sampleInput()
	in.Transcript = append(in.Transcript, pipeline.LogEntry{
		Time:    in.Transcript[0].Time,
		Level:   pipeline.LevelInfo,
		Message: "  beep  Beep  Stopped\nsecond line",
	})

	out, err := Generate(in, FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, string(out), "| INFO | &nbsp;&nbsp;beep  Beep  Stopped<br>second line |")
}

func TestFileNameAndWrite(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 5, 0, time.UTC)
	first := FileName("", FormatHTML, at, "01HVA")
	second := FileName("", FormatHTML, at, "01HVB")
	assert.Equal(t, "vitalboost_report_20260314_093005_01HVA.html", first)
	assert.NotEqual(t, first, second)
	assert.Equal(t, "run_20260314_093005.md", FileName("run", FormatMarkdown, at, ""))

	dir := filepath.Join(t.TempDir(), "reports")
	path, err := Write(dir, first, []byte("one"))
	require.NoError(t, err)
	_, err = Write(dir, second, []byte("two"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
