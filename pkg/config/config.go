// Package config holds the host configuration shared by the CLIs: feature
// flags, the Math.random seed, log verbosity, job-drain limits and the
// test262 runner settings. Files are YAML; command-line flags override them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"gopkg.in/yaml.v3"
)

// Config is the host configuration.
type Config struct {
	// Features gates optional language features. Features not listed are
	// enabled.
	Features map[string]bool `yaml:"features,omitempty"`

	// RandomSeed fixes the Math.random sequence when set.
	RandomSeed *int64 `yaml:"random_seed,omitempty"`

	// Verbosity is the commonlog verbosity: 0 logs notices and above, each
	// step up adds a level, negative values silence more.
	Verbosity int `yaml:"verbosity"`

	// LogFile redirects log output; empty means stderr.
	LogFile string `yaml:"log_file,omitempty"`

	// JobLimit bounds a single job-queue drain; zero means unbounded.
	JobLimit int `yaml:"job_limit"`

	// MaxCallDepth bounds the execution context stack.
	MaxCallDepth int `yaml:"max_call_depth"`

	Test262 Test262 `yaml:"test262"`
}

// Test262 configures the conformance runner.
type Test262 struct {
	// Root is the checkout of the test262 repository.
	Root string `yaml:"root"`
	// Workers is the size of the worker pool.
	Workers int `yaml:"workers"`
	// Timeout bounds a single test.
	Timeout time.Duration `yaml:"timeout"`
	// Exclude lists path substrings of tests to skip.
	Exclude []string `yaml:"exclude,omitempty"`
	// SkipFeatures lists test262 feature tags whose tests are skipped.
	SkipFeatures []string `yaml:"skip_features,omitempty"`
}

// ValidationError aggregates configuration problems.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Features:     map[string]bool{},
		JobLimit:     1_000_000,
		MaxCallDepth: 2500,
		Test262: Test262{
			Workers: runtime.NumCPU(),
			Timeout: 10 * time.Second,
		},
	}
}

// Load reads a YAML configuration file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes YAML configuration on top of Default. Unknown keys are an
// error. name is only used in error messages.
func Parse(data []byte, name string) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parsing %s: %w", name, err)
	}
	if cfg.Features == nil {
		cfg.Features = map[string]bool{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	var issues []string
	if c.JobLimit < 0 {
		issues = append(issues, fmt.Sprintf("job_limit must be >= 0, got %d", c.JobLimit))
	}
	if c.MaxCallDepth < 0 {
		issues = append(issues, fmt.Sprintf("max_call_depth must be >= 0, got %d", c.MaxCallDepth))
	}
	if c.Test262.Workers < 0 {
		issues = append(issues, fmt.Sprintf("test262.workers must be >= 0, got %d", c.Test262.Workers))
	}
	if c.Test262.Timeout < 0 {
		issues = append(issues, fmt.Sprintf("test262.timeout must be >= 0, got %s", c.Test262.Timeout))
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// HasFeature reports whether a feature is enabled.
func (c *Config) HasFeature(name string) bool {
	enabled, ok := c.Features[name]
	return !ok || enabled
}

// Seed returns the configured random seed, if any.
func (c *Config) Seed() (int64, bool) {
	if c.RandomSeed == nil {
		return 0, false
	}
	return *c.RandomSeed, true
}

// ConfigureLogging applies Verbosity and LogFile to the commonlog backend.
func (c *Config) ConfigureLogging() {
	var path *string
	if c.LogFile != "" {
		path = &c.LogFile
	}
	commonlog.Configure(c.Verbosity, path)
}
