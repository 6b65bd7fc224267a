package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"syncbench/internal/config"
	"syncbench/internal/metrics"
	"syncbench/internal/status"
	"syncbench/internal/sweep"
)

var (
	dirNodeCount int
	dirCounters  string
	dirGlob      string
)

// dirReport is the JSON document printed by the dir command.
type dirReport struct {
	*sweep.Analysis
	Latency        *metrics.Stats          `json:"latency,omitempty"`
	Publishers     []publisherReport       `json:"publishers,omitempty"`
	SyncByNode     map[string]int          `json:"sync_interests_by_node,omitempty"`
	CountersByNode map[string]status.Delta `json:"counters_by_node,omitempty"`
}

type publisherReport struct {
	metrics.PublisherMetrics
	Latency *metrics.Stats `json:"latency,omitempty"`
}

var dirCmd = &cobra.Command{
	Use:   "dir <log-dir>",
	Short: "Analyse a single log directory",
	Long:  "dir runs the full pipeline on one log directory and prints its metrics as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		counters := config.DefaultCounters
		if dirCounters != "" {
			counters = splitList(dirCounters)
		}
		a, err := sweep.AnalyzeDir(cmd.Context(), args[0], sweep.DirOptions{
			NodeCount: dirNodeCount,
			LogGlob:   dirGlob,
			Status:    status.DefaultLayout,
			Counters:  counters,
		})
		if err != nil {
			return err
		}
		rep := dirReport{Analysis: a, SyncByNode: a.Result.SyncInterestsByNode}
		if st, ok := a.Metrics.Latency.Stats(); ok {
			rep.Latency = &st
		}
		for _, p := range a.Metrics.Publishers {
			pr := publisherReport{PublisherMetrics: p}
			if st, ok := p.Latency.Stats(); ok {
				pr.Latency = &st
			}
			rep.Publishers = append(rep.Publishers, pr)
		}
		if len(a.Counters) > 0 {
			rep.CountersByNode = make(map[string]status.Delta, len(a.Counters))
			for _, nd := range a.Counters {
				rep.CountersByNode[nd.Node] = nd.Delta
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	},
}

func init() {
	dirCmd.Flags().IntVar(&dirNodeCount, "node-count", 0, "Number of nodes (0 = number of log files)")
	dirCmd.Flags().StringVar(&dirCounters, "counters", "", "Comma-separated status counters (default nInInterests,nOutData)")
	dirCmd.Flags().StringVar(&dirGlob, "glob", config.DefaultLogGlob, "Log file pattern inside the directory")
}
