// CUE schema validation code
package config

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
)

// SchemaDefinition is the CUE definition a sweep file must satisfy.
const SchemaDefinition = "#Sweep"

// ValidateWithCue validates YAML sweep data against a CUE schema.
func ValidateWithCue(name string, yamlBytes, schemaBytes []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaBytes)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath(SchemaDefinition))
	if !def.Exists() {
		return fmt.Errorf("CUE schema has no %s definition", SchemaDefinition)
	}
	if err := yaml.Validate(yamlBytes, def); err != nil {
		return fmt.Errorf("%s: schema validation failed: %w", name, err)
	}
	return nil
}

// Validate checks constraints the schema cannot express.
func (c *Sweep) Validate() error {
	var errs []error
	seen := make(map[int]bool)
	for _, v := range c.Parameter.Values {
		if seen[v] {
			errs = append(errs, fmt.Errorf("duplicate %s value %d", c.Parameter.Name, v))
		}
		seen[v] = true
		if c.NodeCountFromParam && v < 2 {
			errs = append(errs, fmt.Errorf("node count parameter %d is below 2", v))
		}
	}
	seenRun := make(map[int]bool)
	for _, r := range c.Runs {
		if seenRun[r] {
			errs = append(errs, fmt.Errorf("duplicate run %d", r))
		}
		seenRun[r] = true
	}
	if c.NodeCount == 1 {
		errs = append(errs, errors.New("node_count must be 0 (infer) or at least 2"))
	}
	if c.NodeCountFromParam && c.NodeCount != 0 {
		errs = append(errs, errors.New("node_count and node_count_from_param are exclusive"))
	}
	return errors.Join(errs...)
}
