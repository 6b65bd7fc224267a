package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"syncbench/internal/logging"
	"syncbench/internal/sink"
)

func TestNewWritersPrintOnlyPipe(t *testing.T) {
	stdoutIsTerminal = func() bool { return false }
	defer func() { stdoutIsTerminal = func() bool { return false } }()
	ws, err := newWriters(writerOptions{printOnly: true}, logging.Discard())
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer ws.closer()
	if _, ok := ws.out.(*sink.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sink.JSONStdoutWriter, got %T", ws.out)
	}
}

func TestNewWritersTerminalTable(t *testing.T) {
	stdoutIsTerminal = func() bool { return true }
	defer func() { stdoutIsTerminal = func() bool { return false } }()
	ws, err := newWriters(writerOptions{printOnly: true}, logging.Discard())
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if _, ok := ws.out.(*sink.TableWriter); !ok {
		t.Fatalf("expected *sink.TableWriter, got %T", ws.out)
	}
}

func TestNewWritersGreptimeFallback(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	stdoutIsTerminal = func() bool { return false }
	ws, err := newWriters(writerOptions{}, logging.Discard())
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if _, ok := ws.out.(*sink.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sink.JSONStdoutWriter, got %T", ws.out)
	}
}

func TestNewWritersFiles(t *testing.T) {
	stdoutIsTerminal = func() bool { return false }
	dir := t.TempDir()
	opts := writerOptions{
		printOnly:    true,
		csvPath:      filepath.Join(dir, "rows.csv"),
		jsonlPath:    filepath.Join(dir, "rows.jsonl"),
		progressPath: filepath.Join(dir, "progress.jsonl"),
		sqlitePath:   filepath.Join(dir, "rows.db"),
		collect:      true,
		counters:     []string{"nOutData"},
	}
	ws, err := newWriters(opts, logging.Discard())
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	mw, ok := ws.out.(*sink.MultiWriter)
	if !ok {
		t.Fatalf("expected *sink.MultiWriter, got %T", ws.out)
	}
	row := sink.Row{SweepID: "s1", Param: 1, Run: "1", Node: sink.NodeAll, Counters: map[string]float64{"nOutData": 3}}
	if err := sink.WriteAll(mw, []sink.Row{row}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := mw.WriteProgress(sink.Progress{Total: 1, Done: 1}); err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if len(ws.memory.Rows()) != 1 {
		t.Fatalf("memory writer did not receive the row")
	}
	if err := ws.closer(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	for _, name := range []string{"rows.csv", "rows.jsonl", "progress.jsonl", "rows.db"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected %s to be non-empty", name)
		}
	}
	b, _ := os.ReadFile(filepath.Join(dir, "rows.csv"))
	if !strings.Contains(string(b), "nOutData,degenerate") {
		t.Fatalf("csv header missing counter column: %q", b)
	}
}

func TestNewWritersBadCSVPath(t *testing.T) {
	stdoutIsTerminal = func() bool { return false }
	_, err := newWriters(writerOptions{printOnly: true, csvPath: filepath.Join(t.TempDir(), "missing", "rows.csv")}, logging.Discard())
	if err == nil {
		t.Fatalf("expected error for unwritable csv path")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, b,,c ")
	if strings.Join(got, "|") != "a|b|c" {
		t.Fatalf("splitList = %v", got)
	}
	if splitList("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}

type paneLines struct{ lines []string }

func (p *paneLines) Log(line string) { p.lines = append(p.lines, line) }

func TestPaneLoggerHonoursLogFlags(t *testing.T) {
	oldLevel, oldFormat := logLevel, logFormat
	defer func() { logLevel, logFormat = oldLevel, oldFormat }()

	logLevel, logFormat = "debug", "json"
	pane := &paneLines{}
	logger, err := paneLogger(pane)
	if err != nil {
		t.Fatalf("paneLogger: %v", err)
	}
	logger.Debug("condition analysed", "dir", "exp-100-1")
	if len(pane.lines) != 1 {
		t.Fatalf("expected debug line in pane, got %v", pane.lines)
	}
	if !strings.HasPrefix(pane.lines[0], "{") || !strings.Contains(pane.lines[0], `"dir":"exp-100-1"`) {
		t.Fatalf("expected JSON log line, got %q", pane.lines[0])
	}

	logLevel, logFormat = "warn", "text"
	pane = &paneLines{}
	if logger, err = paneLogger(pane); err != nil {
		t.Fatalf("paneLogger: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept")
	if len(pane.lines) != 1 || !strings.Contains(pane.lines[0], "msg=kept") {
		t.Fatalf("expected only the warning, got %v", pane.lines)
	}

	logLevel = "loud"
	if _, err := paneLogger(pane); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

