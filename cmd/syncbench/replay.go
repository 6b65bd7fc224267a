package main

import (
	"github.com/spf13/cobra"

	"syncbench/internal/config"
	"syncbench/internal/logging"
	"syncbench/internal/sink"
)

var (
	replayInput     string
	replayPrintOnly bool
	replayCSV       string
	replaySQLite    string
	replayCounters  string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a JSONL results file",
	Long:  "replay feeds result rows from a JSONL file written by analyze --jsonl back into GreptimeDB, SQLite, CSV or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.FromContext(cmd.Context())
		counters := config.DefaultCounters
		if replayCounters != "" {
			counters = splitList(replayCounters)
		}
		ws, err := newWriters(writerOptions{
			printOnly:  replayPrintOnly,
			csvPath:    replayCSV,
			sqlitePath: replaySQLite,
			counters:   counters,
		}, logger)
		if err != nil {
			return err
		}
		n, err := sink.ReplayLogFile(replayInput, ws.out)
		if cerr := ws.closer(); err == nil {
			err = cerr
		}
		logger.Info("replay finished", "rows", n)
		return err
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to JSONL results file")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print rows to STDOUT instead of writing to GreptimeDB")
	replayCmd.Flags().StringVar(&replayCSV, "csv", "", "Also write rows to this CSV file")
	replayCmd.Flags().StringVar(&replaySQLite, "sqlite", "", "Also store rows in this SQLite database")
	replayCmd.Flags().StringVar(&replayCounters, "counters", "", "Comma-separated counter columns (default nInInterests,nOutData)")
	replayCmd.MarkFlagRequired("input")
}
