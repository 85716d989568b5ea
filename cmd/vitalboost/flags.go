package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bgricker/vitalboost/internal/config"
)

func gatherFlags(flags *pflag.FlagSet) (config.FlagValues, error) {
	var values config.FlagValues

	stringFlags := []struct {
		name   string
		target *config.StringFlag
	}{
		{"language", &values.Language},
		{"report-dir", &values.ReportDir},
		{"report-format", &values.ReportFormat},
		{"data-dir", &values.DataDir},
		{"format", &values.Format},
		{"log-level", &values.LogLevel},
	}
	for _, f := range stringFlags {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetString(f.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", f.name, err)
		}
		*f.target = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("only-step") {
		v, err := flags.GetStringArray("only-step")
		if err != nil {
			return values, fmt.Errorf("parse --only-step: %w", err)
		}
		values.OnlySteps = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("skip-step") {
		v, err := flags.GetStringArray("skip-step")
		if err != nil {
			return values, fmt.Errorf("parse --skip-step: %w", err)
		}
		values.SkipSteps = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("pause") {
		v, err := flags.GetDuration("pause")
		if err != nil {
			return values, fmt.Errorf("parse --pause: %w", err)
		}
		values.Pause = config.DurationFlag{Value: v, Set: true}
	}

	bools := []struct {
		name   string
		target *config.BoolFlag
	}{
		{"dry-run", &values.DryRun},
		{"verbose", &values.Verbose},
		{"yes", &values.AssumeYes},
		{"no-report", &values.NoReport},
	}
	for _, f := range bools {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetBool(f.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", f.name, err)
		}
		*f.target = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}
