package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one replay test: a literal trace, parser options, and the
// expected outcome. The reconstructed databases are compared against golden
// files by name.
type Scenario struct {
	// Name uniquely identifies this scenario and its golden files.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Cwd is the compilation directory the databases are written against.
	Cwd string `yaml:"cwd"`

	// Compilers is appended to the built-in compiler catalogue, with the
	// same /-prefix convention as the --compiler flag.
	Compilers []string `yaml:"compilers,omitempty"`

	// LinkCommands also collects link commands.
	LinkCommands bool `yaml:"link_commands,omitempty"`

	// SaveDuration records measured durations in the entries.
	SaveDuration bool `yaml:"save_duration,omitempty"`

	// Trace is the literal strace log, one event per line.
	Trace string `yaml:"trace"`

	// Expect describes the expected outcome. Required.
	Expect *ExpectClause `yaml:"expect"`
}

// ExpectClause specifies the expected parse outcome.
type ExpectClause struct {
	// Error is the expected fatal parse error code. Empty means the parse
	// must succeed.
	Error string `yaml:"error,omitempty"`

	// Compiles and Links are the expected command counts on success.
	Compiles int `yaml:"compiles"`
	Links    int `yaml:"links"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expect:" vs "expects:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Cwd == "" {
		return fmt.Errorf("cwd is required")
	}
	if s.Trace == "" {
		return fmt.Errorf("trace is required")
	}
	if s.Expect == nil {
		return fmt.Errorf("expect is required")
	}
	if s.Expect.Error != "" && (s.Expect.Compiles != 0 || s.Expect.Links != 0) {
		return fmt.Errorf("expect: error and command counts are mutually exclusive")
	}
	return nil
}
