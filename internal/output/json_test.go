package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/bgricker/vitalboost/internal/pipeline"
	"github.com/bgricker/vitalboost/internal/tools"
)

func TestJSONRenderer(t *testing.T) {
	report := Report{
		Run: &Summary{
			RunID:      "01HV",
			Pipeline:   "network",
			State:      pipeline.StateCompleted,
			DurationMS: 10,
			Steps:      []pipeline.StepOutcome{{Label: "Flush DNS", Status: pipeline.StatusOK}},
			Stats:      pipeline.Stats{Warnings: []string{"Reset Winsock finished with warnings"}},
		},
		Tools:    []tools.Info{{Name: "netsh", Available: true}},
		Warnings: []string{"config: ignored format \"xml\""},
	}

	buf := &bytes.Buffer{}
	renderer := NewJSON(buf)
	if err := renderer.Render(report); err != nil {
		t.Fatalf("render json: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if decoded.Run == nil || decoded.Run.Pipeline != "network" || decoded.Run.State != pipeline.StateCompleted {
		t.Fatalf("run mismatch: %+v", decoded.Run)
	}
	if len(decoded.Run.Stats.Warnings) != 1 {
		t.Fatalf("expected warnings serialized, got %+v", decoded.Run.Stats)
	}
	if len(decoded.Tools) != 1 || !decoded.Tools[0].Available {
		t.Fatalf("tools mismatch: %+v", decoded.Tools)
	}
	if decoded.History != nil || decoded.Pipelines != nil {
		t.Fatalf("expected empty sections omitted")
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"state": "completed"`)) {
		t.Fatalf("expected textual state, got %s", buf.String())
	}
}
