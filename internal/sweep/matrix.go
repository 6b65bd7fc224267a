// Package sweep walks the experiment parameter space and turns every log
// directory into result rows.
package sweep

import (
	"fmt"
	"path/filepath"
	"strconv"

	"syncbench/internal/config"
)

// Condition is one point of the parameter space. Last marks the final run of
// its implementation/parameter group.
type Condition struct {
	Index          int
	Implementation string
	Param          int
	Run            int
	Name           string
	Dir            string
	Last           bool
}

func (c Condition) String() string {
	if c.Implementation == "" {
		return c.Name
	}
	return c.Implementation + "/" + c.Name
}

// DirName is the log directory naming convention {prefix}-{param}-{run}.
func DirName(prefix string, param, run int) string {
	return fmt.Sprintf("%s-%d-%d", prefix, param, run)
}

// Matrix expands cfg into conditions ordered by implementation, parameter
// value and run, the order in which rows are emitted.
func Matrix(cfg *config.Sweep) []Condition {
	impls := cfg.Implementations
	if len(impls) == 0 {
		impls = []string{""}
	}
	var out []Condition
	for _, impl := range impls {
		root := cfg.ImplementationRoot(impl)
		for _, p := range cfg.Parameter.Values {
			for i, r := range cfg.Runs {
				name := DirName(cfg.Prefix, p, r)
				out = append(out, Condition{
					Index:          len(out),
					Implementation: impl,
					Param:          p,
					Run:            r,
					Name:           name,
					Dir:            filepath.Join(root, name),
					Last:           i == len(cfg.Runs)-1,
				})
			}
		}
	}
	return out
}

// NodeCount is the node count to use for c: the parameter value when the
// sweep varies the node count, else the configured count (0 = infer).
func NodeCount(cfg *config.Sweep, c Condition) int {
	if cfg.NodeCountFromParam {
		return c.Param
	}
	return cfg.NodeCount
}

type groupKey struct {
	impl  string
	param int
}

func (c Condition) group() groupKey { return groupKey{c.Implementation, c.Param} }

func runLabel(run int) string { return strconv.Itoa(run) }
