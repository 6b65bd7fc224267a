package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"syncbench/internal/admin"
	"syncbench/internal/config"
	"syncbench/internal/logging"
	"syncbench/internal/sink"
	"syncbench/internal/sweep"
)

var (
	anConfigPath      string
	anSchemaPath      string
	anCSV             string
	anJSONL           string
	anProgressLog     string
	anSQLite          string
	anPrintOnly       bool
	anTUI             bool
	anListen          string
	anWorkers         int
	anContinueOnError bool
	anPerPublisher    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse every condition of a parameter sweep",
	Long:  "analyze walks {prefix}-{param}-{run} log directories under the configured root and writes one row per run, publisher and parameter average.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(anConfigPath, anSchemaPath)
		if err != nil {
			return err
		}
		if anWorkers > 0 {
			cfg.Workers = anWorkers
		}
		if cmd.Flags().Changed("continue-on-error") {
			cfg.ContinueOnError = anContinueOnError
		}
		if cmd.Flags().Changed("per-publisher") {
			cfg.PerPublisher = anPerPublisher
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		logger := logging.FromContext(ctx)

		driver := sweep.NewDriver(cfg)
		ov := &sink.Overview{
			SweepID:         driver.ID(),
			LogRoot:         cfg.LogRoot,
			Prefix:          cfg.Prefix,
			ParamName:       cfg.Parameter.Name,
			Params:          cfg.Parameter.Values,
			Runs:            runLabels(cfg.Runs),
			Implementations: cfg.Implementations,
			Workers:         cfg.Workers,
		}
		ws, err := newWriters(writerOptions{
			printOnly:    anPrintOnly,
			tui:          anTUI,
			csvPath:      anCSV,
			jsonlPath:    anJSONL,
			progressPath: anProgressLog,
			sqlitePath:   anSQLite,
			collect:      anListen != "",
			counters:     cfg.Counters,
			overview:     ov,
		}, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := ws.closer(); err != nil {
				logger.Error("closing writers failed", "err", err)
			}
		}()
		if ws.tui != nil {
			if logger, err = paneLogger(ws.tui); err != nil {
				return err
			}
			ctx = logging.NewContext(ctx, logger)
		}

		var srv *admin.Server
		if anListen != "" {
			srv = admin.NewServer(ws.memory, ov, cfg.Counters)
			go func() {
				logger.Info("admin UI listening", "addr", anListen)
				if err := srv.Start(anListen); err != nil {
					logger.Error("admin server failed", "err", err)
				}
			}()
		}

		runErr := driver.Run(ctx, ws.out)

		if srv != nil {
			if runErr == nil || !errors.Is(runErr, context.Canceled) {
				logger.Info("sweep done; results stay available until interrupted", "addr", anListen)
				<-ctx.Done()
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("admin server shutdown", "err", err)
			}
		}
		return runErr
	},
}

func runLabels(runs []int) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = strconv.Itoa(r)
	}
	return out
}

func init() {
	analyzeCmd.Flags().StringVar(&anConfigPath, "config", "config/sweep.yaml", "Path to sweep configuration YAML")
	analyzeCmd.Flags().StringVar(&anSchemaPath, "schema", "", "Path to CUE schema file (embedded schema when empty)")
	analyzeCmd.Flags().StringVar(&anCSV, "csv", "", "Write rows to this CSV file")
	analyzeCmd.Flags().StringVar(&anJSONL, "jsonl", "", "Write rows to this JSONL file (replayable)")
	analyzeCmd.Flags().StringVar(&anProgressLog, "progress-log", "", "Write progress updates to this JSONL file (requires --jsonl)")
	analyzeCmd.Flags().StringVar(&anSQLite, "sqlite", "", "Store rows in this SQLite database")
	analyzeCmd.Flags().BoolVar(&anPrintOnly, "print-only", false, "Print rows to STDOUT instead of writing to GreptimeDB")
	analyzeCmd.Flags().BoolVar(&anTUI, "tui", false, "Show a live terminal UI")
	analyzeCmd.Flags().StringVar(&anListen, "listen", "", "Serve progress and results over HTTP on this address (e.g. :8080)")
	analyzeCmd.Flags().IntVar(&anWorkers, "workers", 0, "Conditions analysed concurrently (overrides config)")
	analyzeCmd.Flags().BoolVar(&anContinueOnError, "continue-on-error", false, "Skip failing conditions instead of aborting")
	analyzeCmd.Flags().BoolVar(&anPerPublisher, "per-publisher", false, "Emit one row per publisher for every run")
}
