package main

import (
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"syncbench/internal/logging"
	"syncbench/internal/sink"
)

// writerOptions selects the sinks for result rows.
type writerOptions struct {
	printOnly    bool
	tui          bool
	csvPath      string
	jsonlPath    string
	progressPath string
	sqlitePath   string
	collect      bool
	counters     []string
	overview     *sink.Overview
}

// writers is the assembled row pipeline.
type writers struct {
	out    sink.RowWriter
	memory *sink.MemoryWriter
	tui    *sink.TUIWriter
	closer func() error
}

var stdoutIsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

// newWriters sets up the row writers based on flags and env vars. The
// returned closer releases every file and database handle.
func newWriters(opts writerOptions, logger *slog.Logger) (*writers, error) {
	base, tui, err := baseWriter(opts, logger)
	if err != nil {
		return nil, err
	}
	ws := []sink.RowWriter{base}
	out := &writers{tui: tui}
	if opts.csvPath != "" {
		cw, err := sink.NewCSVFile(opts.csvPath, opts.counters)
		if err != nil {
			closeAll(ws)
			return nil, err
		}
		ws = append(ws, cw)
	}
	if opts.jsonlPath != "" {
		fw, err := sink.NewFileWriter(opts.jsonlPath, opts.progressPath)
		if err != nil {
			closeAll(ws)
			return nil, err
		}
		ws = append(ws, fw)
	}
	if opts.sqlitePath != "" {
		sw, err := sink.NewSQLiteWriter(opts.sqlitePath)
		if err != nil {
			closeAll(ws)
			return nil, err
		}
		ws = append(ws, sw)
	}
	if opts.collect {
		out.memory = &sink.MemoryWriter{}
		ws = append(ws, out.memory)
	}
	if len(ws) == 1 {
		out.out = base
		out.closer = func() error { return closeWriter(base) }
		return out, nil
	}
	mw := sink.NewMultiWriter(ws...)
	out.out = mw
	out.closer = mw.Close
	return out, nil
}

// baseWriter chooses the primary writer: the TUI, STDOUT or GreptimeDB.
func baseWriter(opts writerOptions, logger *slog.Logger) (sink.RowWriter, *sink.TUIWriter, error) {
	if opts.tui {
		tw := sink.NewTUIWriter(opts.overview)
		return tw, tw, nil
	}
	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if opts.printOnly || endpoint == "" {
		if stdoutIsTerminal() {
			return sink.NewTableWriter(opts.overview, true), nil, nil
		}
		return sink.NewJSONStdoutWriter(), nil, nil
	}
	db := os.Getenv("GREPTIMEDB_DATABASE")
	if db == "" {
		db = "public"
	}
	w, err := sink.NewGreptimeDBWriter(endpoint, db, os.Getenv("GREPTIMEDB_TABLE"), opts.counters, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("writing results to GreptimeDB", "endpoint", endpoint, "database", db)
	return w, nil, nil
}

func closeWriter(w sink.RowWriter) error {
	if c, ok := w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func closeAll(ws []sink.RowWriter) {
	for _, w := range ws {
		_ = closeWriter(w)
	}
}

type logPane interface{ Log(line string) }

// tuiLogWriter forwards log output into the TUI log pane.
type tuiLogWriter struct{ pane logPane }

func (w tuiLogWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		w.pane.Log(line)
	}
	return len(p), nil
}

// paneLogger builds the --log-level/--log-format logger on top of the TUI log pane.
func paneLogger(pane logPane) (*slog.Logger, error) {
	return logging.New(logging.Options{Level: logLevel, Format: logFormat, Out: tuiLogWriter{pane}})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
