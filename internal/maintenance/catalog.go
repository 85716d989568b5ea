// Package maintenance assembles the operating-system maintenance pipelines
// from platform toolsets.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/bgricker/vitalboost/internal/classify"
	"github.com/bgricker/vitalboost/internal/config"
	"github.com/bgricker/vitalboost/internal/filter"
	"github.com/bgricker/vitalboost/internal/pipeline"
	"github.com/bgricker/vitalboost/internal/runner"
)

// Pipeline names.
const (
	Drivers     = "drivers"
	Software    = "software"
	Cleanup     = "cleanup"
	Performance = "performance"
	Network     = "network"
	All         = "all"
	Custom      = "custom"
)

// ErrUnknownPipeline is returned by Build for names Names does not list.
var ErrUnknownPipeline = errors.New("unknown pipeline")

// Runner executes external commands. *runner.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, c runner.Command) (runner.Result, error)
	RequiresPrivilege(args []string) (string, bool)
	DryRun() bool
}

// Host describes the machine being maintained.
type Host struct {
	GOOS          string
	Elevated      bool
	PrivilegeName string
}

// Options are the collaborators shared by every pipeline.
type Options struct {
	Runner  Runner
	Host    Host
	Table   *classify.Table
	Config  config.Config
	Toolset *Toolset
	// Getenv and LookPath default to os.Getenv and exec.LookPath.
	Getenv   func(string) string
	LookPath func(string) (string, error)
}

// Catalog builds fresh pipelines by name. Pipelines run once, so every
// Build call returns new instances.
type Catalog struct {
	opts  Options
	tools Toolset
}

// New creates a catalog. Classification phrases from the configuration are
// appended to opts.Table.
func New(opts Options) (*Catalog, error) {
	if opts.Runner == nil {
		return nil, errors.New("maintenance: runner required")
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	if opts.Host.PrivilegeName == "" {
		opts.Host.PrivilegeName = "administrator"
	}
	if opts.Table == nil {
		table, err := classify.Builtin()
		if err != nil {
			return nil, err
		}
		opts.Table = table
	}
	for _, tool := range sortedKeys(opts.Config.Classify) {
		outcomes := opts.Config.Classify[tool]
		for _, outcome := range sortedKeys(outcomes) {
			if err := opts.Table.Extend(tool, classify.Outcome(outcome), outcomes[outcome]...); err != nil {
				return nil, fmt.Errorf("classify config: %w", err)
			}
		}
	}

	c := &Catalog{opts: opts}
	if opts.Toolset != nil {
		c.tools = *opts.Toolset
	} else {
		c.tools = ToolsetFor(opts.Host.GOOS)
	}
	return c, nil
}

// Names lists the pipelines Build accepts.
func (c *Catalog) Names() []string {
	return []string{Drivers, Software, Cleanup, Performance, Network, All, Custom}
}

// Describe returns a one-line summary of a pipeline.
func Describe(name string) string {
	switch name {
	case Drivers:
		return "Driver inventory and system repairs (SFC, DISM, CHKDSK)"
	case Software:
		return "Upgrade installed software and clean installer caches"
	case Cleanup:
		return "Deep cleanup of temporary files, caches and the recycle bin"
	case Performance:
		return "Power plan, memory and visual effects tuning"
	case Network:
		return "Reset the network stack and flush DNS"
	case All:
		return "Drivers, software, cleanup and performance in sequence"
	case Custom:
		return "Steps declared in the configuration file"
	}
	return ""
}

// Build assembles the named pipeline, with the configured step filters
// applied and the confirmation prompt attached.
func (c *Catalog) Build(name string) (*pipeline.Pipeline, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == All {
		stages := make([]*pipeline.Pipeline, 0, 4)
		for _, stage := range []string{Drivers, Software, Cleanup, Performance} {
			p, err := c.primitive(stage)
			if err != nil {
				return nil, err
			}
			stages = append(stages, p)
		}
		title, msg := confirmation(All, c.opts.Host)
		return pipeline.Composite(All, c.opts.Config.Pause, stages...).WithConfirmation(title, msg), nil
	}
	p, err := c.primitive(name)
	if err != nil {
		return nil, err
	}
	title, msg := confirmation(name, c.opts.Host)
	return p.WithConfirmation(title, msg), nil
}

func (c *Catalog) primitive(name string) (*pipeline.Pipeline, error) {
	var steps []pipeline.Step
	switch name {
	case Drivers:
		steps = c.driverSteps()
	case Software:
		steps = c.softwareSteps()
	case Cleanup:
		var err error
		if steps, err = c.cleanupSteps(); err != nil {
			return nil, err
		}
	case Performance:
		steps = c.performanceSteps()
	case Network:
		steps = c.networkSteps(100)
	case Custom:
	default:
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownPipeline, name, strings.Join(c.Names(), ", "))
	}
	steps = append(steps, c.customSteps(name)...)

	only, err := filter.Compile(c.opts.Config.OnlySteps)
	if err != nil {
		return nil, fmt.Errorf("only-step: %w", err)
	}
	skip, err := filter.Compile(c.opts.Config.SkipSteps)
	if err != nil {
		return nil, fmt.Errorf("skip-step: %w", err)
	}
	return pipeline.New(name, filter.Steps(steps, only, skip)...), nil
}

func (c *Catalog) timeout(key string, inv Invocation) time.Duration {
	return c.opts.Config.Timeout(key, inv.Timeout)
}

func confirmation(name string, host Host) (string, string) {
	var title, msg string
	switch name {
	case Drivers:
		title, msg = "Drivers & system repairs", "Checks drivers and runs SFC, DISM and CHKDSK. This can take a long time."
	case Software:
		title, msg = "Software update", "Upgrades every installed package and cleans the installer cache."
	case Cleanup:
		title, msg = "Deep cleanup", "Deletes temporary files and caches, runs disk cleanup, resets the network stack and empties the recycle bin."
	case Performance:
		title, msg = "Performance tuning", "Activates the high performance power plan and reduces visual effects."
	case Network:
		title, msg = "Network reset", "Resets Winsock and TCP/IP and flushes the DNS cache."
	case All:
		title, msg = "Full maintenance", "Runs drivers, software, cleanup and performance in sequence. This can take 30 to 60 minutes."
	default:
		title, msg = "Custom steps", "Runs the commands declared in the configuration file."
	}
	if !host.Elevated {
		msg += fmt.Sprintf(" Not running as %s: privileged steps will be skipped.", host.PrivilegeName)
	}
	return title, msg
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
