package sweep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"syncbench/internal/correlate"
	"syncbench/internal/eventlog"
	"syncbench/internal/logging"
	"syncbench/internal/metrics"
	"syncbench/internal/status"
)

// DirOptions controls how a single log directory is analysed. NodeCount 0
// infers the count from the number of log files.
type DirOptions struct {
	NodeCount int
	LogGlob   string
	Status    status.Layout
	Counters  []string
}

// Analysis is everything derived from one log directory.
type Analysis struct {
	Dir      string             `json:"dir"`
	LogFiles []string           `json:"log_files"`
	Nodes    []string           `json:"nodes,omitempty"`
	Counters []status.NodeDelta `json:"node_counters,omitempty"`
	Metrics  metrics.RunMetrics `json:"metrics"`
	Result   *correlate.Result  `json:"-"`
}

// AnalyzeDir parses every log in dir, correlates the events, reads the
// status reports and computes the run metrics. A directory without logs is
// a degenerate run, not an error; a missing directory is.
func AnalyzeDir(ctx context.Context, dir string, opts DirOptions) (*Analysis, error) {
	logger := logging.FromContext(ctx)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	glob := opts.LogGlob
	if glob == "" {
		glob = "*.log"
	}
	files, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	c := correlate.New()
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for ev, err := range eventlog.Events(f) {
			if err != nil {
				return nil, err
			}
			c.Add(ev)
		}
	}
	res, err := c.Result()
	if err != nil {
		return nil, err
	}

	layout := opts.Status
	if layout.StartPrefix == "" {
		layout = status.DefaultLayout
	}
	delta, err := status.ReadDir(dir, layout, opts.Counters)
	if err != nil {
		return nil, err
	}

	nodeCount := opts.NodeCount
	if nodeCount == 0 {
		nodeCount = len(files)
	}
	m, err := metrics.Compute(res, nodeCount, delta.Total)
	if err != nil {
		return nil, err
	}
	logger.Debug("directory analysed", "dir", dir, "logs", len(files), "published", m.Published,
		"receptions", m.Receptions, "degenerate", m.Degenerate)
	return &Analysis{
		Dir:      dir,
		LogFiles: files,
		Nodes:    res.Nodes,
		Counters: delta.Nodes,
		Metrics:  m,
		Result:   res,
	}, nil
}
