package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bgricker/vitalboost/internal/classify"
	"github.com/bgricker/vitalboost/internal/filter"
)

// Config captures CLI options sourced from config files or flags.
type Config struct {
	DefaultLanguage string `yaml:"default_language"`

	ReportDir    string `yaml:"report_dir"`
	ReportFormat string `yaml:"report_format"`
	DataDir      string `yaml:"data_dir"`

	OnlySteps []string `yaml:"only_step"`
	SkipSteps []string `yaml:"skip_step"`

	DryRun    bool          `yaml:"dry_run"`
	Verbose   bool          `yaml:"verbose"`
	AssumeYes bool          `yaml:"assume_yes"`
	Format    string        `yaml:"format"`
	LogLevel  string        `yaml:"log_level"`
	Pause     time.Duration `yaml:"pause"`
	NoReport  bool          `yaml:"no_report"`

	Timeouts     map[string]time.Duration       `yaml:"timeouts"`
	Classify     map[string]map[string][]string `yaml:"classify"`
	CustomSteps  []CustomStep                   `yaml:"custom_steps"`
	CleanupPaths []string                       `yaml:"cleanup_paths"`

	PrivilegedCommandPatterns []string `yaml:"privileged_command_patterns"`

	// Settings is the legacy {"settings": {...}} layout.
	Settings *LegacySettings `yaml:"settings,omitempty"`

	// pauseSet records an explicit pause in a file, including zero.
	pauseSet bool
}

// presence captures keys whose zero value is meaningful.
type presence struct {
	Pause *time.Duration `yaml:"pause"`
}

// LegacySettings mirrors the settings block of older config.json files.
type LegacySettings struct {
	DefaultLanguage string `yaml:"default_language"`
}

// CustomStep declares an extra command step.
type CustomStep struct {
	Name           string        `yaml:"name"`
	Pipeline       string        `yaml:"pipeline"`
	Command        []string      `yaml:"command"`
	Input          string        `yaml:"input"`
	Timeout        time.Duration `yaml:"timeout"`
	Weight         float64       `yaml:"weight"`
	Category       string        `yaml:"category"`
	SuccessPhrases []string      `yaml:"success_phrases"`
	Privileged     bool          `yaml:"privileged"`
}

const (
	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"

	// LanguageEnglish is the built-in default language.
	LanguageEnglish = "en"
	// LanguagePortuguese selects Brazilian Portuguese report labels.
	LanguagePortuguese = "pt_BR"

	ReportHTML     = "html"
	ReportMarkdown = "markdown"
	ReportJSON     = "json"

	// FileName is the per-directory config file.
	FileName = ".vitalboost.yml"
)

// Default returns the baseline configuration used when no flags or config file specify values.
func Default() Config {
	return Config{
		DefaultLanguage: LanguageEnglish,
		ReportFormat:    ReportHTML,
		Format:          FormatPretty,
		LogLevel:        "info",
		Pause:           3 * time.Second,
	}
}

// Candidates lists config files in lookup order: the working directory,
// then the per-user config directory (YAML, then legacy config.json).
func Candidates(root string) []string {
	paths := []string{filepath.Join(root, FileName)}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths,
			filepath.Join(dir, "vitalboost", "config.yml"),
			filepath.Join(dir, "vitalboost", "config.json"),
		)
	}
	return paths
}

// Load reads the first candidate that exists. A missing, unreadable or
// malformed file never fails startup: Load still returns usable defaults, and
// the error only explains what was ignored so callers can log it at debug
// level. source is the file the configuration came from, if any.
func Load(candidates []string) (cfg Config, source string, err error) {
	cfg = Default()
	for _, path := range candidates {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			if errors.Is(readErr, os.ErrNotExist) {
				continue
			}
			return cfg, "", fmt.Errorf("read config %q: %w", path, readErr)
		}

		var fileCfg Config
		if parseErr := yaml.Unmarshal(data, &fileCfg); parseErr != nil {
			return cfg, "", fmt.Errorf("parse config %q: %w", path, parseErr)
		}
		var keys presence
		if parseErr := yaml.Unmarshal(data, &keys); parseErr == nil && keys.Pause != nil {
			fileCfg.pauseSet = true
		}
		fileCfg, problems := sanitize(fileCfg)
		cfg = merge(cfg, fileCfg)
		if len(problems) > 0 {
			return cfg, path, fmt.Errorf("config %q: ignored %s", path, strings.Join(problems, "; "))
		}
		return cfg, path, nil
	}
	return cfg, "", nil
}

// sanitize drops file values that would otherwise fail validation later.
// Flags are validated separately and still fail hard.
func sanitize(c Config) (Config, []string) {
	var problems []string
	if c.DefaultLanguage == "" && c.Settings != nil {
		c.DefaultLanguage = c.Settings.DefaultLanguage
	}
	if c.DefaultLanguage != "" {
		lang, ok := NormalizeLanguage(c.DefaultLanguage)
		if !ok {
			problems = append(problems, fmt.Sprintf("default_language %q", c.DefaultLanguage))
		}
		c.DefaultLanguage = lang
	}
	if c.Format != "" && !validFormat(c.Format) {
		problems = append(problems, fmt.Sprintf("format %q", c.Format))
		c.Format = ""
	}
	if c.ReportFormat != "" && !validReportFormat(c.ReportFormat) {
		problems = append(problems, fmt.Sprintf("report_format %q", c.ReportFormat))
		c.ReportFormat = ""
	}
	if c.LogLevel != "" && !ValidLogLevel(c.LogLevel) {
		problems = append(problems, fmt.Sprintf("log_level %q", c.LogLevel))
		c.LogLevel = ""
	}
	if c.Pause < 0 {
		problems = append(problems, fmt.Sprintf("pause %s", c.Pause))
		c.Pause = 0
		c.pauseSet = false
	}

	var dropped []string
	c.OnlySteps, dropped = validPatterns(c.OnlySteps)
	for _, p := range dropped {
		problems = append(problems, fmt.Sprintf("only_step %q", p))
	}
	c.SkipSteps, dropped = validPatterns(c.SkipSteps)
	for _, p := range dropped {
		problems = append(problems, fmt.Sprintf("skip_step %q", p))
	}

	if len(c.PrivilegedCommandPatterns) > 0 {
		kept := make([]string, 0, len(c.PrivilegedCommandPatterns))
		for _, p := range c.PrivilegedCommandPatterns {
			if _, err := regexp.Compile(p); err != nil {
				problems = append(problems, fmt.Sprintf("privileged_command_patterns %q", p))
				continue
			}
			kept = append(kept, p)
		}
		c.PrivilegedCommandPatterns = kept
	}

	if len(c.CleanupPaths) > 0 {
		kept := make([]string, 0, len(c.CleanupPaths))
		for _, p := range c.CleanupPaths {
			p = strings.TrimSpace(p)
			if p == "" || (!filepath.IsAbs(p) && !strings.ContainsAny(p, "$%")) {
				problems = append(problems, fmt.Sprintf("cleanup_paths %q", p))
				continue
			}
			kept = append(kept, p)
		}
		c.CleanupPaths = kept
	}

	if len(c.CustomSteps) > 0 {
		kept := make([]CustomStep, 0, len(c.CustomSteps))
		for i, step := range c.CustomSteps {
			if err := step.validate(i); err != nil {
				problems = append(problems, err.Error())
				continue
			}
			kept = append(kept, step)
		}
		c.CustomSteps = kept
	}

	for tool, outcomes := range c.Classify {
		for outcome := range outcomes {
			if !classify.Outcome(outcome).Valid() {
				problems = append(problems, fmt.Sprintf("classify %s outcome %q", tool, outcome))
				delete(outcomes, outcome)
			}
		}
		if len(outcomes) == 0 {
			delete(c.Classify, tool)
		}
	}
	return c, problems
}

// validPatterns splits step filter patterns into those that compile and
// those that do not.
func validPatterns(patterns []string) (kept, dropped []string) {
	for _, p := range patterns {
		if _, err := filter.Compile([]string{p}); err != nil {
			dropped = append(dropped, p)
			continue
		}
		kept = append(kept, p)
	}
	return kept, dropped
}

func merge(base, override Config) Config {
	out := base

	if override.DefaultLanguage != "" {
		out.DefaultLanguage = override.DefaultLanguage
	}
	if override.ReportDir != "" {
		out.ReportDir = override.ReportDir
	}
	if override.ReportFormat != "" {
		out.ReportFormat = override.ReportFormat
	}
	if override.DataDir != "" {
		out.DataDir = override.DataDir
	}
	if len(override.OnlySteps) > 0 {
		out.OnlySteps = append([]string{}, override.OnlySteps...)
	}
	if len(override.SkipSteps) > 0 {
		out.SkipSteps = append([]string{}, override.SkipSteps...)
	}
	if len(override.PrivilegedCommandPatterns) > 0 {
		out.PrivilegedCommandPatterns = append([]string{}, override.PrivilegedCommandPatterns...)
	}
	if len(override.CleanupPaths) > 0 {
		out.CleanupPaths = append([]string{}, override.CleanupPaths...)
	}
	if len(override.CustomSteps) > 0 {
		out.CustomSteps = append([]CustomStep{}, override.CustomSteps...)
	}
	if len(override.Timeouts) > 0 {
		out.Timeouts = make(map[string]time.Duration, len(base.Timeouts)+len(override.Timeouts))
		for k, v := range base.Timeouts {
			out.Timeouts[k] = v
		}
		for k, v := range override.Timeouts {
			out.Timeouts[strings.ToLower(k)] = v
		}
	}
	if len(override.Classify) > 0 {
		out.Classify = override.Classify
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.LogLevel != "" {
		out.LogLevel = override.LogLevel
	}
	if override.Pause > 0 || override.pauseSet {
		out.Pause = override.Pause
	}
	if override.DryRun {
		out.DryRun = true
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.AssumeYes {
		out.AssumeYes = true
	}
	if override.NoReport {
		out.NoReport = true
	}

	return out
}

// Timeout returns the configured timeout for key, or fallback.
func (c Config) Timeout(key string, fallback time.Duration) time.Duration {
	if d, ok := c.Timeouts[strings.ToLower(key)]; ok && d > 0 {
		return d
	}
	return fallback
}

// Validate checks values that flags may have introduced.
func (c Config) Validate() error {
	if !validFormat(c.Format) {
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	if !validReportFormat(c.ReportFormat) {
		return fmt.Errorf("unsupported report format %q", c.ReportFormat)
	}
	if _, ok := NormalizeLanguage(c.DefaultLanguage); !ok {
		return fmt.Errorf("unsupported language %q", c.DefaultLanguage)
	}
	if !ValidLogLevel(c.LogLevel) {
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}
	for i, step := range c.CustomSteps {
		if err := step.validate(i); err != nil {
			return err
		}
	}
	return nil
}

func (step CustomStep) validate(i int) error {
	if strings.TrimSpace(step.Name) == "" {
		return fmt.Errorf("custom step %d: name is required", i+1)
	}
	if len(step.Command) == 0 || strings.TrimSpace(step.Command[0]) == "" {
		return fmt.Errorf("custom step %q: command is required", step.Name)
	}
	switch strings.ToLower(step.Category) {
	case "", "general", "cleanup", "repair":
	default:
		return fmt.Errorf("custom step %q: unknown category %q", step.Name, step.Category)
	}
	return nil
}

// ValidLogLevel reports whether level is one of debug, info, warn, warning
// or error.
func ValidLogLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// NormalizeLanguage maps spellings such as "pt-BR" or "en_US" onto a
// supported language. Unsupported values yield LanguageEnglish and false.
func NormalizeLanguage(lang string) (string, bool) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(lang), "-", "_"))
	switch {
	case norm == "en" || strings.HasPrefix(norm, "en_"):
		return LanguageEnglish, true
	case norm == "pt" || strings.HasPrefix(norm, "pt_"):
		return LanguagePortuguese, true
	default:
		return LanguageEnglish, false
	}
}

func validFormat(f string) bool {
	switch strings.ToLower(f) {
	case FormatPretty, FormatJSON:
		return true
	}
	return false
}

func validReportFormat(f string) bool {
	switch strings.ToLower(f) {
	case ReportHTML, ReportMarkdown, ReportJSON:
		return true
	}
	return false
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.Language.Set {
		cfg.DefaultLanguage = flags.Language.Value
		if lang, ok := NormalizeLanguage(flags.Language.Value); ok {
			cfg.DefaultLanguage = lang
		}
	}
	if flags.ReportDir.Set {
		cfg.ReportDir = flags.ReportDir.Value
	}
	if flags.ReportFormat.Set {
		cfg.ReportFormat = flags.ReportFormat.Value
	}
	if flags.DataDir.Set {
		cfg.DataDir = flags.DataDir.Value
	}
	if len(flags.OnlySteps.Values) > 0 {
		cfg.OnlySteps = append([]string{}, flags.OnlySteps.Values...)
	}
	if len(flags.SkipSteps.Values) > 0 {
		cfg.SkipSteps = append([]string{}, flags.SkipSteps.Values...)
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.LogLevel.Set {
		cfg.LogLevel = flags.LogLevel.Value
	}
	if flags.Pause.Set {
		cfg.Pause = flags.Pause.Value
	}
	if flags.DryRun.Set {
		cfg.DryRun = flags.DryRun.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
	if flags.AssumeYes.Set {
		cfg.AssumeYes = flags.AssumeYes.Value
	}
	if flags.NoReport.Set {
		cfg.NoReport = flags.NoReport.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	Language     StringFlag
	ReportDir    StringFlag
	ReportFormat StringFlag
	DataDir      StringFlag
	OnlySteps    SliceFlag
	SkipSteps    SliceFlag
	Format       StringFlag
	LogLevel     StringFlag
	Pause        DurationFlag
	DryRun       BoolFlag
	Verbose      BoolFlag
	AssumeYes    BoolFlag
	NoReport     BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}

// DurationFlag represents a duration flag and whether it was set.
type DurationFlag struct {
	Value time.Duration
	Set   bool
}
