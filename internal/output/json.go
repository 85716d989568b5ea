package output

import (
	"encoding/json"
	"io"

	"github.com/bgricker/vitalboost/internal/history"
	"github.com/bgricker/vitalboost/internal/tools"
)

// JSONRenderer emits structured data.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Report captures JSON output schema. Each command fills the fields it
// produces.
type Report struct {
	Run       *Summary       `json:"run,omitempty"`
	Pipelines []PipelineInfo `json:"pipelines,omitempty"`
	Tools     []tools.Info   `json:"tools,omitempty"`
	History   []history.Run  `json:"history,omitempty"`
	Warnings  []string       `json:"warnings,omitempty"`
}

// Render encodes the report as JSON.
func (j *JSONRenderer) Render(report Report) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
