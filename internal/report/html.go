package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/bgricker/vitalboost/internal/pipeline"
)

//go:embed shell.html.tmpl
var shellSource string

var (
	shell    = template.Must(template.New("report").Parse(shellSource))
	markdown = goldmark.New(goldmark.WithExtensions(extension.Table))
)

type htmlLogLine struct {
	Time    string
	Level   string
	Class   string
	Message string
}

type htmlPage struct {
	Lang      string
	Title     string
	Labels    labels
	Generated string
	Duration  string
	RunID     string
	Cards     []statCard
	Body      template.HTML
	Log       []htmlLogLine
	Tips      template.HTML
}

func renderHTML(in Input, lb labels) ([]byte, error) {
	var details strings.Builder
	writeDetails(&details, in, lb)
	body, err := toHTML(details.String())
	if err != nil {
		return nil, err
	}
	var rec strings.Builder
	writeRecommendations(&rec, lb)
	tips, err := toHTML(rec.String())
	if err != nil {
		return nil, err
	}

	page := htmlPage{
		Lang:      lb.Lang,
		Title:     titleOf(in, lb),
		Labels:    lb,
		Generated: in.GeneratedAt.Format("2006-01-02 15:04:05"),
		Duration:  formatDuration(in.Duration),
		RunID:     in.RunID,
		Cards:     statCards(in, lb),
		Body:      body,
		Tips:      tips,
	}
	for _, e := range in.Transcript {
		page.Log = append(page.Log, htmlLogLine{
			Time:    e.Time.Format("15:04:05"),
			Level:   string(e.Level),
			Class:   levelClass(e.Level),
			Message: e.Message,
		})
	}

	var out bytes.Buffer
	if err := shell.Execute(&out, page); err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}
	return out.Bytes(), nil
}

// toHTML converts generated markdown. The default goldmark renderer omits
// raw HTML, and every user-supplied string is already escaped.
func toHTML(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func levelClass(level pipeline.Level) string {
	switch level {
	case pipeline.LevelSuccess:
		return "success"
	case pipeline.LevelWarning:
		return "warning"
	case pipeline.LevelError:
		return "error"
	case pipeline.LevelProgress:
		return "progress"
	default:
		return "info"
	}
}
