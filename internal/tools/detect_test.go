package tools

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/bgricker/vitalboost/internal/runner"
)

type fakeExec struct {
	results map[string]runner.Result
	calls   []runner.Command
}

func (f *fakeExec) Run(ctx context.Context, c runner.Command) (runner.Result, error) {
	f.calls = append(f.calls, c)
	res, ok := f.results[c.Args[0]]
	if !ok {
		return runner.Result{}, &runner.LaunchError{Program: c.Args[0], Err: exec.ErrNotFound}
	}
	return res, nil
}

func fakeLookPath(known ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, k := range known {
			if k == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
}

func TestParseVersion(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"v1.9.25772", "1.9.25772"},
		{"Homebrew 4.3.1\nHomebrew/homebrew-core", "4.3.1"},
		{"apt 2.7.14 (amd64)", "2.7.14"},
		{"PowerShell 7.4", "7.4"},
	}
	for _, c := range cases {
		got, err := ParseVersion(c.in)
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseVersion(%q) = %q, want %q", c.in, got, c.want)
		}
	}
	if _, err := ParseVersion("no digits here"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDetect(t *testing.T) {
	fx := &fakeExec{results: map[string]runner.Result{
		"winget": {Stdout: "v1.7.10861\n"},
		"brew":   {ExitCode: 1, Stderr: "broken install"},
	}}
	d := Detector{Exec: fx, LookPath: fakeLookPath("winget", "brew", "sfc")}

	infos := d.Detect(context.Background(), []Spec{
		{Name: "winget", VersionArgs: []string{"--version"}},
		{Name: "brew", VersionArgs: []string{"--version"}},
		{Name: "sfc"},
		{Name: "apt", VersionArgs: []string{"--version"}},
	})

	if len(infos) != 4 {
		t.Fatalf("expected 4 infos, got %d", len(infos))
	}
	if !infos[0].Available || infos[0].Version != "1.7.10861" {
		t.Fatalf("unexpected winget info: %+v", infos[0])
	}
	if !infos[1].Available || infos[1].Error == "" {
		t.Fatalf("brew should be present but report its failing version command: %+v", infos[1])
	}
	if !infos[2].Available || infos[2].Version != "" {
		t.Fatalf("sfc is looked up only: %+v", infos[2])
	}
	if infos[3].Available || infos[3].Error != "not found on PATH" {
		t.Fatalf("apt should be missing: %+v", infos[3])
	}
	if len(fx.calls) != 2 {
		t.Fatalf("expected 2 version commands, got %d", len(fx.calls))
	}
	if fx.calls[0].Timeout != versionTimeout {
		t.Fatalf("expected default version timeout, got %s", fx.calls[0].Timeout)
	}
	if !Available(infos, "WINGET") || Available(infos, "apt") || Available(infos, "pacman") {
		t.Fatalf("Available lookup mismatch")
	}
}

func TestMissing(t *testing.T) {
	if !Missing(&exec.Error{Name: "x", Err: exec.ErrNotFound}) {
		t.Fatalf("expected not-found error to be missing")
	}
	if Missing(errors.New("permission denied")) {
		t.Fatalf("unexpected missing for generic error")
	}
}
