package status

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Layout describes how status report files are named inside a log directory:
// <StartPrefix>-<node><Suffix> and <EndPrefix>-<node><Suffix>.
type Layout struct {
	StartPrefix string
	EndPrefix   string
	Suffix      string
}

// DefaultLayout matches report-start-<node>.status / report-end-<node>.status.
var DefaultLayout = Layout{StartPrefix: "report-start", EndPrefix: "report-end", Suffix: ".status"}

// NodeDelta is the counter delta of one node.
type NodeDelta struct {
	Node  string `json:"node"`
	Delta Delta  `json:"delta"`
}

// DirDelta is the per-node and summed counter delta of a log directory.
type DirDelta struct {
	Total Delta
	Nodes []NodeDelta
}

// ReadDir pairs every start report in dir with its end report and sums the
// deltas of keys across nodes. A directory without reports yields zero deltas.
func ReadDir(dir string, layout Layout, keys []string) (DirDelta, error) {
	starts, err := filepath.Glob(filepath.Join(dir, layout.StartPrefix+"-*"+layout.Suffix))
	if err != nil {
		return DirDelta{}, err
	}
	sort.Strings(starts)

	out := DirDelta{Total: make(Delta, len(keys))}
	for _, k := range keys {
		out.Total[k] = 0
	}
	for _, startPath := range starts {
		base := filepath.Base(startPath)
		node := strings.TrimSuffix(strings.TrimPrefix(base, layout.StartPrefix+"-"), layout.Suffix)
		endPath := filepath.Join(dir, layout.EndPrefix+"-"+node+layout.Suffix)

		start, err := ReadFile(startPath)
		if err != nil {
			return DirDelta{}, err
		}
		end, err := ReadFile(endPath)
		if err != nil {
			if os.IsNotExist(err) {
				return DirDelta{}, fmt.Errorf("no end report for node %s: %w", node, err)
			}
			return DirDelta{}, err
		}
		d, err := Diff(start, end, keys)
		if err != nil {
			return DirDelta{}, err
		}
		out.Total.Add(d)
		out.Nodes = append(out.Nodes, NodeDelta{Node: node, Delta: d})
	}
	return out, nil
}
