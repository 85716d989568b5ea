// Package classify maps the textual output of maintenance tools to outcomes.
//
// Tools such as sfc or chkdsk report what they found only through localized
// phrases on stdout, frequently with exit code 0. The phrase tables ship
// embedded and can be extended from configuration. Output in a language the
// tables do not cover falls through to the tool default.
package classify

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bgricker/vitalboost/internal/runner"
)

//go:embed tables.yaml
var builtin []byte

// Outcome is what a tool run means for the machine being maintained.
type Outcome string

const (
	OutcomeClean    Outcome = "clean"
	OutcomeRepaired Outcome = "repaired"
	OutcomeProblems Outcome = "problems"
	OutcomeFailed   Outcome = "failed"
	OutcomeUnknown  Outcome = "unknown"
)

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeClean, OutcomeRepaired, OutcomeProblems, OutcomeFailed, OutcomeUnknown:
		return true
	}
	return false
}

// Rule maps phrases to an outcome.
type Rule struct {
	Outcome Outcome  `yaml:"outcome"`
	Phrases []string `yaml:"phrases"`
}

// Tool holds the recognition rules of one tool.
type Tool struct {
	Default        Outcome  `yaml:"default"`
	IgnoreExitCode bool     `yaml:"ignore_exit_code"`
	Rules          []Rule   `yaml:"rules"`
	CountPhrases   []string `yaml:"count_phrases"`
	ProblemMarkers []string `yaml:"problem_markers"`
}

// Verdict is the classification of one result.
type Verdict struct {
	Tool    string
	Outcome Outcome
	// Phrase is the matched phrase, empty when the outcome came from the exit
	// code or the tool default.
	Phrase string
}

// Matched reports whether a phrase decided the verdict.
func (v Verdict) Matched() bool { return v.Phrase != "" }

// Table is a set of tool rules. The zero value classifies everything by
// exit code alone.
type Table struct {
	tools map[string]Tool
}

// Builtin parses the embedded tables.
func Builtin() (*Table, error) {
	return Parse(builtin)
}

// MustBuiltin is Builtin for package-level initialisation.
func MustBuiltin() *Table {
	t, err := Builtin()
	if err != nil {
		panic(fmt.Sprintf("classify: embedded tables: %v", err))
	}
	return t
}

// Parse decodes a YAML table document.
func Parse(data []byte) (*Table, error) {
	var raw map[string]Tool
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse classification tables: %w", err)
	}
	t := &Table{tools: make(map[string]Tool, len(raw))}
	for name, tool := range raw {
		if tool.Default == "" {
			tool.Default = OutcomeUnknown
		}
		if !tool.Default.Valid() {
			return nil, fmt.Errorf("tool %q: unknown default outcome %q", name, tool.Default)
		}
		for i, rule := range tool.Rules {
			if !rule.Outcome.Valid() {
				return nil, fmt.Errorf("tool %q rule %d: unknown outcome %q", name, i, rule.Outcome)
			}
		}
		t.tools[strings.ToLower(name)] = tool
	}
	return t, nil
}

// Extend appends phrases for outcome to the tool's rules. Extra phrases are
// consulted after the built-in ones.
func (t *Table) Extend(tool string, outcome Outcome, phrases ...string) error {
	if !outcome.Valid() {
		return fmt.Errorf("tool %q: unknown outcome %q", tool, outcome)
	}
	if len(phrases) == 0 {
		return nil
	}
	if t.tools == nil {
		t.tools = map[string]Tool{}
	}
	key := strings.ToLower(tool)
	entry, ok := t.tools[key]
	if !ok {
		entry.Default = OutcomeUnknown
	}
	entry.Rules = append(append([]Rule(nil), entry.Rules...), Rule{Outcome: outcome, Phrases: append([]string(nil), phrases...)})
	t.tools[key] = entry
	return nil
}

// Tools lists the known tool names.
func (t *Table) Tools() []string {
	names := make([]string, 0, len(t.tools))
	for name := range t.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Classify decides what res means for tool. Timeouts and cancelled commands
// are always failed.
func (t *Table) Classify(tool string, res runner.Result) Verdict {
	v := Verdict{Tool: tool}
	if res.TimedOut || res.Cancelled {
		v.Outcome = OutcomeFailed
		return v
	}
	entry, known := t.tools[strings.ToLower(tool)]
	output := strings.ToLower(res.Stdout + "\n" + res.Stderr)

	for _, rule := range entry.Rules {
		for _, phrase := range rule.Phrases {
			if phrase != "" && strings.Contains(output, strings.ToLower(phrase)) {
				v.Outcome, v.Phrase = rule.Outcome, phrase
				return v
			}
		}
	}

	switch {
	case res.ExitCode != 0 && !entry.IgnoreExitCode:
		v.Outcome = OutcomeFailed
	case known:
		v.Outcome = entry.Default
	default:
		v.Outcome = OutcomeClean
	}
	return v
}

// Count returns how many times the tool's count phrases occur in output.
func (t *Table) Count(tool, output string) int {
	entry := t.tools[strings.ToLower(tool)]
	lower := strings.ToLower(output)
	n := 0
	for _, phrase := range entry.CountPhrases {
		if phrase == "" {
			continue
		}
		n += strings.Count(lower, strings.ToLower(phrase))
	}
	return n
}

// ProblemLines returns the lines of output that carry one of the tool's
// problem markers, trimmed and in order.
func (t *Table) ProblemLines(tool string, lines []string) []string {
	entry := t.tools[strings.ToLower(tool)]
	if len(entry.ProblemMarkers) == 0 {
		return nil
	}
	var out []string
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, marker := range entry.ProblemMarkers {
			if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
				out = append(out, strings.TrimSpace(line))
				break
			}
		}
	}
	return out
}
