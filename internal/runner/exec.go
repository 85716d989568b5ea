package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultKillGrace = 2 * time.Second
	defaultMaxOutput = 4 << 20
)

// Command is one external process invocation. Args is passed to the OS as an
// argument vector; nothing is ever interpreted by a shell.
type Command struct {
	Args    []string
	Input   string
	Timeout time.Duration
	Dir     string
	Env     map[string]string
}

// Result captures the outcome of a finished command. It is returned by value
// and never mutated by the runner afterwards.
type Result struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	// Cancelled is set when the context was cancelled while the command ran.
	Cancelled bool
	// Truncated is set when stdout or stderr exceeded the capture limit.
	Truncated bool
	DryRun    bool
	Timeout   time.Duration
	Duration  time.Duration
}

// Err classifies the result for callers that only need pass/fail. Timeouts
// wrap ErrTimedOut, cancellations wrap ErrCancelled and non-zero exits return
// an *ExitError. Tools that report
// problems on stdout with exit code 0 must be classified separately.
func (r Result) Err(tool string) error {
	switch {
	case r.TimedOut:
		return fmt.Errorf("%s exceeded %s: %w", tool, r.Timeout, ErrTimedOut)
	case r.Cancelled:
		return fmt.Errorf("%s: %w", tool, ErrCancelled)
	case r.ExitCode != 0:
		return &ExitError{Tool: tool, ExitCode: r.ExitCode, Stderr: tailLines(strings.TrimSpace(r.Stderr), 3)}
	}
	return nil
}

// Options configure how the runner executes commands.
type Options struct {
	Stdout             io.Writer
	Stderr             io.Writer
	Verbose            bool
	DryRun             bool
	DefaultTimeout     time.Duration
	KillGrace          time.Duration
	MaxOutputBytes     int
	Env                []string
	Now                func() time.Time
	PrivilegedPatterns []string
}

// Runner launches and supervises external commands one at a time.
type Runner struct {
	opts       Options
	privileged []*regexp.Regexp
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = defaultTimeout
	}
	if opts.KillGrace <= 0 {
		opts.KillGrace = defaultKillGrace
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = defaultMaxOutput
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.PrivilegedPatterns) == 0 {
		opts.PrivilegedPatterns = DefaultPrivilegedPatterns()
	}

	r := &Runner{opts: opts}
	for _, pattern := range opts.PrivilegedPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		r.privileged = append(r.privileged, re)
	}
	return r
}

// DryRun reports whether commands are recorded instead of executed.
func (r *Runner) DryRun() bool {
	return r.opts.DryRun
}

// Run executes c and waits for it to exit or exceed its timeout. The error is
// non-nil only when the program could not be launched at all.
func (r *Runner) Run(ctx context.Context, c Command) (Result, error) {
	if len(c.Args) == 0 || strings.TrimSpace(c.Args[0]) == "" {
		return Result{}, &LaunchError{Err: ErrEmptyCommand}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = r.opts.DefaultTimeout
	}
	res := Result{Args: append([]string(nil), c.Args...), Timeout: timeout}

	if err := ctx.Err(); err != nil {
		return res, &LaunchError{Program: c.Args[0], Err: err}
	}

	if r.opts.DryRun {
		res.DryRun = true
		return res, nil
	}

	path, err := exec.LookPath(c.Args[0])
	if err != nil {
		return res, &LaunchError{Program: c.Args[0], Err: err}
	}

	cmd := exec.Command(path, c.Args[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = mergeEnv(r.opts.Env, c.Env)
	cmd.WaitDelay = r.opts.KillGrace
	if c.Input != "" {
		cmd.Stdin = strings.NewReader(c.Input)
	}
	configureProcessGroup(cmd)

	stdoutBuf := &limitedBuffer{max: r.opts.MaxOutputBytes}
	stderrBuf := &limitedBuffer{max: r.opts.MaxOutputBytes}
	if r.opts.Verbose {
		cmd.Stdout = io.MultiWriter(r.opts.Stdout, stdoutBuf)
		cmd.Stderr = io.MultiWriter(r.opts.Stderr, stderrBuf)
	} else {
		cmd.Stdout = stdoutBuf
		cmd.Stderr = stderrBuf
	}

	start := r.opts.Now()
	if err := cmd.Start(); err != nil {
		return res, &LaunchError{Program: c.Args[0], Err: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-timer.C:
		res.TimedOut = true
		waitErr = r.terminate(cmd, done)
	case <-ctx.Done():
		res.Cancelled = true
		waitErr = r.terminate(cmd, done)
	}

	res.Duration = r.opts.Now().Sub(start)
	res.Stdout = stdoutBuf.String()
	res.Stderr = stderrBuf.String()
	res.Truncated = stdoutBuf.truncated || stderrBuf.truncated
	if res.TimedOut || res.Cancelled {
		res.ExitCode = -1
		return res, nil
	}
	res.ExitCode = exitCode(waitErr)
	return res, nil
}

// terminate asks the process tree to stop, then forces it after the grace period.
func (r *Runner) terminate(cmd *exec.Cmd, done <-chan error) error {
	signalTree(cmd, false)
	grace := time.NewTimer(r.opts.KillGrace)
	defer grace.Stop()
	select {
	case err := <-done:
		return err
	case <-grace.C:
		signalTree(cmd, true)
		return <-done
	}
}

// RequiresPrivilege reports whether args match one of the privileged command
// patterns, returning the matching pattern.
func (r *Runner) RequiresPrivilege(args []string) (string, bool) {
	line := strings.Join(args, " ")
	for _, re := range r.privileged {
		if re.MatchString(line) {
			return re.String(), true
		}
	}
	return "", false
}

// Quote renders an argument vector for display.
func Quote(args []string) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			parts = append(parts, strconv.Quote(arg))
			continue
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

func mergeEnv(base []string, overlay map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(overlay))
	for _, kv := range base {
		if idx := strings.Index(kv, "="); idx > 0 {
			envMap[kv[:idx]] = kv[idx+1:]
		}
	}
	for k, v := range overlay {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(interface{ ExitStatus() int }); ok {
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}
	return 1
}

func tailLines(input string, maxLines int) string {
	if input == "" || maxLines <= 0 {
		return ""
	}
	lines := strings.Split(strings.TrimRight(input, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}

// limitedBuffer keeps at most max bytes and discards the rest, recording
// that it did.
type limitedBuffer struct {
	max       int
	buf       bytes.Buffer
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	remain := b.max - b.buf.Len()
	if remain > 0 {
		if remain > len(p) {
			remain = len(p)
		}
		_, _ = b.buf.Write(p[:remain])
	}
	if len(p) > remain {
		b.truncated = true
	}
	return n, nil
}

func (b *limitedBuffer) String() string { return b.buf.String() }

// DefaultPrivilegedPatterns lists commands that need administrator or root rights.
func DefaultPrivilegedPatterns() []string {
	return []string{
		`(?i)^sudo\b`,
		`(?i)^sfc\b`,
		`(?i)^dism\b`,
		`(?i)^chkdsk\b`,
		`(?i)^netsh\b.*\breset\b`,
		`(?i)^cleanmgr\b`,
		`(?i)^apt-get\b`,
		`(?i)^apt\s+(upgrade|install|full-upgrade)\b`,
		`(?i)^dnf\b`,
		`(?i)^yum\b`,
		`(?i)^zypper\b`,
		`(?i)^pacman\s+-S`,
		`(?i)^systemd-resolve\b`,
		`(?i)^resolvectl\s+flush-caches\b`,
		`(?i)^fsck\b`,
	}
}
