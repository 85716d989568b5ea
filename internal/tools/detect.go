package tools

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/bgricker/vitalboost/internal/runner"
)

const versionTimeout = 5 * time.Second

// Spec names a tool and how to ask it for its version. Tools without
// VersionArgs (sfc, chkdsk) are only looked up on PATH.
type Spec struct {
	Name        string
	VersionArgs []string
}

// Info captures a tool found (or not) on the system.
type Info struct {
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// Execer runs a version command.
type Execer interface {
	Run(ctx context.Context, c runner.Command) (runner.Result, error)
}

// Detector checks tool availability.
type Detector struct {
	Exec     Execer
	LookPath func(string) (string, error)
	Timeout  time.Duration
}

var versionRegex = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)*)`)

// Detect checks every spec in order.
func (d Detector) Detect(ctx context.Context, specs []Spec) []Info {
	out := make([]Info, 0, len(specs))
	for _, spec := range specs {
		out = append(out, d.Inspect(ctx, spec))
	}
	return out
}

// Inspect locates one tool and, when it supports it, reads its version.
func (d Detector) Inspect(ctx context.Context, spec Spec) Info {
	lookPath := d.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	info := Info{Name: spec.Name}

	path, err := lookPath(spec.Name)
	if err != nil {
		if Missing(err) {
			info.Error = "not found on PATH"
		} else {
			info.Error = err.Error()
		}
		return info
	}
	info.Path = path
	info.Available = true

	if len(spec.VersionArgs) == 0 || d.Exec == nil {
		return info
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = versionTimeout
	}
	args := append([]string{spec.Name}, spec.VersionArgs...)
	res, err := d.Exec.Run(ctx, runner.Command{Args: args, Timeout: timeout})
	if err != nil {
		info.Error = err.Error()
		return info
	}
	if err := res.Err(spec.Name); err != nil {
		info.Error = err.Error()
		return info
	}
	version, err := ParseVersion(res.Stdout + "\n" + res.Stderr)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Version = version
	return info
}

// Available reports whether name is present in infos.
func Available(infos []Info, name string) bool {
	for _, info := range infos {
		if strings.EqualFold(info.Name, name) {
			return info.Available
		}
	}
	return false
}

// ParseVersion extracts the first dotted version number from output.
func ParseVersion(output string) (string, error) {
	match := versionRegex.FindStringSubmatch(output)
	if len(match) < 2 {
		return "", fmt.Errorf("unable to parse version from %q", strings.TrimSpace(output))
	}
	return match[1], nil
}

// Missing reports whether executing the command returns a not-found error.
func Missing(cmdErr error) bool {
	return errors.Is(cmdErr, exec.ErrNotFound)
}
