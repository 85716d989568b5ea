// Package filter selects pipeline steps with --only-step and --skip-step
// patterns. A pattern wrapped in slashes is a case-insensitive regular
// expression; anything else is a case-insensitive substring.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bgricker/vitalboost/internal/pipeline"
)

// Pattern is one compiled selector.
type Pattern struct {
	raw   string
	match func(string) bool
}

// Keyed is implemented by steps that carry a stable identifier besides their
// label, such as cleanup locations and custom steps.
type Keyed interface {
	Key() string
}

// Compile parses raw patterns, dropping blank ones.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		p, err := compileOne(raw)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

func compileOne(raw string) (Pattern, error) {
	if len(raw) >= 2 && strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") {
		re, err := regexp.Compile("(?i)" + raw[1:len(raw)-1])
		if err != nil {
			return Pattern{}, fmt.Errorf("compile regexp %q: %w", raw, err)
		}
		return Pattern{raw: raw, match: re.MatchString}, nil
	}
	needle := strings.ToLower(raw)
	return Pattern{raw: raw, match: func(s string) bool {
		return strings.Contains(strings.ToLower(s), needle)
	}}, nil
}

// String returns the pattern as written.
func (p Pattern) String() string { return p.raw }

// Match reports whether s is selected. Empty strings never match.
func (p Pattern) Match(s string) bool {
	return s != "" && p.match != nil && p.match(s)
}

// Steps keeps, in order, the steps selected by only and not excluded by
// skip. An empty only list selects everything.
func Steps(steps []pipeline.Step, only, skip []Pattern) []pipeline.Step {
	var kept []pipeline.Step
	for _, step := range steps {
		names := []string{step.Label()}
		if k, ok := step.(Keyed); ok {
			names = append(names, k.Key())
		}
		if len(only) > 0 && !anyMatch(only, names) {
			continue
		}
		if anyMatch(skip, names) {
			continue
		}
		kept = append(kept, step)
	}
	return kept
}

func anyMatch(patterns []Pattern, names []string) bool {
	for _, p := range patterns {
		for _, name := range names {
			if p.Match(name) {
				return true
			}
		}
	}
	return false
}
