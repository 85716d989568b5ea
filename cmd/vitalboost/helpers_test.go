package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/bgricker/vitalboost/internal/filelock"
	"github.com/bgricker/vitalboost/internal/output"
)

// isolate runs the test from an empty working directory with no user
// configuration in reach.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CACHE_HOME", dir)
	t.Setenv("APPDATA", dir)
	t.Setenv("LOCALAPPDATA", dir)
	t.Chdir(dir)
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decodeReport(t *testing.T, raw string) output.Report {
	t.Helper()
	var report output.Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		t.Fatalf("decode json output: %v\n%s", err, raw)
	}
	return report
}

// newTestLock holds the lock at path until the returned func is called.
func newTestLock(t *testing.T, path string) func() {
	t.Helper()
	lock := filelock.New(path)
	if err := lock.TryLock(); err != nil {
		t.Fatalf("take lock: %v", err)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			t.Errorf("release lock: %v", err)
		}
	}
}
