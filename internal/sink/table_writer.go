// Human-friendly result table printed to STDOUT.
package sink

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorCyan   = "\x1b[36m"
	colorGray   = "\x1b[90m"
)

// Overview describes the sweep being printed.
type Overview struct {
	SweepID         string
	LogRoot         string
	Prefix          string
	ParamName       string
	Params          []int
	Runs            []string
	Implementations []string
	Workers         int
}

// TableWriter prints each row as a fixed-width colored line, after a
// one-off sweep overview.
type TableWriter struct {
	out      io.Writer
	overview *Overview
	once     sync.Once
	mu       sync.Mutex
	color    bool
}

var titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)

// NewTableWriter creates a TableWriter writing to os.Stdout. ov may be nil.
func NewTableWriter(ov *Overview, color bool) *TableWriter {
	return &TableWriter{out: os.Stdout, overview: ov, color: color}
}

func (w *TableWriter) printOverview() {
	if w.overview != nil {
		ov := w.overview
		fmt.Fprintln(w.out, titleStyle.Render("Sweep"))
		tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "ID:\t%s\n", ov.SweepID)
		fmt.Fprintf(tw, "Log root:\t%s\n", ov.LogRoot)
		fmt.Fprintf(tw, "Prefix:\t%s\n", ov.Prefix)
		fmt.Fprintf(tw, "Parameter:\t%s %v\n", ov.ParamName, ov.Params)
		fmt.Fprintf(tw, "Runs:\t%s\n", strings.Join(ov.Runs, ","))
		if len(ov.Implementations) > 0 {
			fmt.Fprintf(tw, "Implementations:\t%s\n", strings.Join(ov.Implementations, ","))
		}
		fmt.Fprintf(tw, "Workers:\t%d\n", ov.Workers)
		tw.Flush()
		fmt.Fprintln(w.out)
	}
	fmt.Fprintf(w.out, "%-10s %-6s %-5s %-10s %5s %6s %6s %7s %7s %8s %8s %8s %6s\n",
		"impl", "param", "run", "node", "nodes", "pub", "succ", "pm_succ", "complete", "avg", "median", "max", "sync")
}

func (w *TableWriter) paint(c, s string) string {
	if !w.color {
		return s
	}
	return c + s + colorReset
}

// Line renders a row without the trailing newline.
func (w *TableWriter) Line(row Row) string {
	impl := row.Implementation
	if impl == "" {
		impl = "-"
	}
	ratio := func(v float64) string {
		if row.Degenerate {
			return "-"
		}
		return fmt.Sprintf("%.3f", v)
	}
	lat := func(v float64) string {
		if !row.HasLatency {
			return "-"
		}
		return fmt.Sprintf("%.1f", v)
	}
	line := fmt.Sprintf("%-10s %-6d %-5s %-10s %5s %6s %6s %7s %7s %8s %8s %8s %6s",
		impl, row.Param, row.Run, row.Node,
		formatFloat(row.Nodes, -1), formatFloat(row.Published, -1), formatFloat(row.Receptions, -1),
		ratio(row.SuccessRatio), ratio(row.CompleteRatio),
		lat(row.LatencyMean), lat(row.LatencyMedian), lat(row.LatencyMax),
		formatFloat(row.SyncInterests, -1))
	switch {
	case row.Degenerate:
		return w.paint(colorRed, line)
	case row.Run == RunAverage:
		return w.paint(colorCyan, line)
	case row.Node != NodeAll:
		return w.paint(colorGray, line)
	case row.SuccessRatio >= 1:
		return w.paint(colorGreen, line)
	default:
		return w.paint(colorYellow, line)
	}
}

// Write prints a single row.
func (w *TableWriter) Write(row Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.once.Do(w.printOverview)
	_, err := fmt.Fprintln(w.out, w.Line(row))
	return err
}

// WriteBatch prints multiple rows.
func (w *TableWriter) WriteBatch(rows []Row) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}
