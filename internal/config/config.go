// YAML sweep configuration with CUE validation
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var defaultSchema []byte

// Parameter is the swept experiment axis, e.g. publish interval or node count.
type Parameter struct {
	Name   string `yaml:"name" json:"name"`
	Values []int  `yaml:"values" json:"values"`
}

// StatusFiles names the before/after status reports inside a log directory.
type StatusFiles struct {
	StartPrefix string `yaml:"start_prefix" json:"start_prefix"`
	EndPrefix   string `yaml:"end_prefix" json:"end_prefix"`
	Suffix      string `yaml:"suffix" json:"suffix"`
}

// Sweep is the immutable description of one analysis sweep.
type Sweep struct {
	LogRoot            string      `yaml:"log_root" json:"log_root"`
	Prefix             string      `yaml:"prefix" json:"prefix"`
	Parameter          Parameter   `yaml:"parameter" json:"parameter"`
	Runs               []int       `yaml:"runs" json:"runs"`
	Implementations    []string    `yaml:"implementations" json:"implementations,omitempty"`
	NodeCount          int         `yaml:"node_count" json:"node_count"`
	NodeCountFromParam bool        `yaml:"node_count_from_param" json:"node_count_from_param"`
	Counters           []string    `yaml:"counters" json:"counters"`
	Workers            int         `yaml:"workers" json:"workers"`
	PerPublisher       bool        `yaml:"per_publisher" json:"per_publisher"`
	ContinueOnError    bool        `yaml:"continue_on_error" json:"continue_on_error"`
	LogGlob            string      `yaml:"log_glob" json:"log_glob"`
	Status             StatusFiles `yaml:"status" json:"status"`
}

// Defaults used when the YAML leaves a field out.
var (
	DefaultCounters = []string{"nInInterests", "nOutData"}
	DefaultLogGlob  = "*.log"
	DefaultStatus   = StatusFiles{StartPrefix: "report-start", EndPrefix: "report-end", Suffix: ".status"}
)

// Load reads a YAML sweep file, validates it against the CUE schema at
// schemaPath (the embedded schema when empty), applies defaults and
// environment overrides.
func Load(configPath, schemaPath string) (*Sweep, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	schema := defaultSchema
	if schemaPath != "" {
		if schema, err = os.ReadFile(schemaPath); err != nil {
			return nil, fmt.Errorf("cannot read CUE schema: %w", err)
		}
	}
	if err := ValidateWithCue(configPath, data, schema); err != nil {
		return nil, err
	}

	var cfg Sweep
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Sweep) applyDefaults() {
	if c.Parameter.Name == "" {
		c.Parameter.Name = "pub_timing"
	}
	if len(c.Counters) == 0 {
		c.Counters = append([]string(nil), DefaultCounters...)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.LogGlob == "" {
		c.LogGlob = DefaultLogGlob
	}
	if c.Status.StartPrefix == "" {
		c.Status.StartPrefix = DefaultStatus.StartPrefix
	}
	if c.Status.EndPrefix == "" {
		c.Status.EndPrefix = DefaultStatus.EndPrefix
	}
	if c.Status.Suffix == "" {
		c.Status.Suffix = DefaultStatus.Suffix
	}
}

func (c *Sweep) applyEnv() error {
	if root := os.Getenv("SYNCBENCH_LOG_ROOT"); root != "" {
		c.LogRoot = root
	}
	if w := os.Getenv("SYNCBENCH_WORKERS"); w != "" {
		n, err := strconv.Atoi(w)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid SYNCBENCH_WORKERS %q", w)
		}
		c.Workers = n
	}
	return nil
}

// ImplementationRoot returns the directory holding the logs of impl.
func (c *Sweep) ImplementationRoot(impl string) string {
	if impl == "" {
		return c.LogRoot
	}
	return filepath.Join(c.LogRoot, impl)
}
