package main

import (
	"os"

	"github.com/spf13/cobra"

	"syncbench/internal/config"
	"syncbench/internal/dashboard"
	"syncbench/internal/logging"
	"syncbench/internal/sink"
)

var (
	dashOut       string
	dashTable     string
	dashParamName string
	dashCounters  string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render Grafana dashboards for the results table",
	Long:  "dashboard renders Grafana dashboards querying the GreptimeDB results table. GREPTIMEDB_DATASOURCE_UID must be set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		table := dashTable
		if table == "" {
			table = os.Getenv("GREPTIMEDB_TABLE")
		}
		if table == "" {
			table = sink.DefaultGreptimeTable
		}
		counters := config.DefaultCounters
		if dashCounters != "" {
			counters = splitList(dashCounters)
		}
		if err := dashboard.Render(dashOut, dashboard.Options{Table: table, ParamName: dashParamName, Counters: counters}); err != nil {
			return err
		}
		logging.FromContext(cmd.Context()).Info("dashboards rendered", "dir", dashOut, "table", table)
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashOut, "out", "dashboards", "Output directory")
	dashboardCmd.Flags().StringVar(&dashTable, "table", "", "GreptimeDB results table (default $GREPTIMEDB_TABLE or sync_results)")
	dashboardCmd.Flags().StringVar(&dashParamName, "param-name", "pub_timing", "Swept parameter name shown in panel titles")
	dashboardCmd.Flags().StringVar(&dashCounters, "counters", "", "Comma-separated counter columns (default nInInterests,nOutData)")
}
