package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBrokenConfigValuesDoNotBlockStartup(t *testing.T) {
	cases := map[string]string{
		"log level":         "log_level: verbose\n",
		"nameless step":     "custom_steps:\n  - command: [\"true\"]\n",
		"classify outcome":  "classify:\n  sfc:\n    fixed: [\"all good\"]\n",
		"skip regexp":       "skip_step: [\"/[/\"]\n",
		"only regexp":       "only_step: [\"/(/\"]\n",
		"relative cleanup":  "cleanup_paths: [\"relative/dir\"]\n",
		"privileged regexp": "privileged_command_patterns: [\"(\"]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := isolate(t)
			if err := os.WriteFile(filepath.Join(dir, ".vitalboost.yml"), []byte(body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}

			if _, stderr, err := runCLI(t, "", "list"); err != nil {
				t.Fatalf("list: %v\n%s", err, stderr)
			}
			_, stderr, err := runCLI(t, "", "run", "network", "--dry-run", "--yes", "--no-report",
				"--data-dir", filepath.Join(dir, "data"))
			if err != nil {
				t.Fatalf("run: %v\n%s", err, stderr)
			}
		})
	}
}

func TestBrokenFlagValuesStillFail(t *testing.T) {
	isolate(t)

	cases := []struct {
		args []string
		want string
	}{
		{[]string{"list", "--log-level", "verbose"}, "log level"},
		{[]string{"list", "--skip-step", "/[/"}, "skip-step"},
		{[]string{"list", "--format", "xml"}, "format"},
	}
	for _, c := range cases {
		_, _, err := runCLI(t, "", c.args...)
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%v: expected error mentioning %q, got %v", c.args, c.want, err)
		}
	}
}
