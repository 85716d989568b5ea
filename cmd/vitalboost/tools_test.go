package main

import (
	"strings"
	"testing"

	"github.com/bgricker/vitalboost/internal/maintenance"
)

func TestToolSpecsWindows(t *testing.T) {
	specs := toolSpecs(maintenance.ToolsetFor("windows"))

	seen := map[string]int{}
	for _, spec := range specs {
		seen[spec.Name]++
	}
	for name, n := range seen {
		if n != 1 {
			t.Fatalf("%s listed %d times", name, n)
		}
	}
	for _, want := range []string{"driverquery", "sfc", "winget"} {
		if seen[want] == 0 {
			t.Fatalf("missing %s in %v", want, specs)
		}
	}
	if specs[0].Name != "driverquery" {
		t.Fatalf("first tool = %s, want driverquery", specs[0].Name)
	}
	for _, spec := range specs {
		if spec.Name == "winget" && len(spec.VersionArgs) == 0 {
			t.Fatalf("winget should be asked for its version")
		}
	}
}

func TestToolSpecsUnsupportedPlatform(t *testing.T) {
	if specs := toolSpecs(maintenance.ToolsetFor("plan9")); len(specs) != 0 {
		t.Fatalf("expected no tools, got %v", specs)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	if !strings.HasPrefix(stdout, "vitalboost dev (") {
		t.Fatalf("unexpected version output %q", stdout)
	}
}
