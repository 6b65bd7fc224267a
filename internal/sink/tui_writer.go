package sink

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

type rowMsg struct{ Row }

type progressMsg struct{ Progress }

// logMsg carries a log line for the viewport.
type logMsg struct{ line string }

const maxTUILogLines = 1000

// TUIWriter renders sweep progress and result rows in a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. Quitting
// the TUI interrupts the process unless Close was called first.
func NewTUIWriter(ov *Overview) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(ov), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements RowWriter.
func (w *TUIWriter) Write(row Row) error {
	w.program.Send(rowMsg{row})
	return nil
}

// WriteBatch outputs multiple rows.
func (w *TUIWriter) WriteBatch(rows []Row) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteProgress implements ProgressWriter.
func (w *TUIWriter) WriteProgress(p Progress) error {
	w.program.Send(progressMsg{p})
	if p.LastErr != "" {
		w.program.Send(logMsg{line: fmt.Sprintf("%sFAILED%s %s: %s", colorRed, colorReset, p.Current, p.LastErr)})
	}
	return nil
}

// Log appends a free-form line to the log pane.
func (w *TUIWriter) Log(line string) {
	w.program.Send(logMsg{line: line})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	overview   *Overview
	table      table.Model
	vp         viewport.Model
	rows       []Row
	logs       []string
	progress   Progress
	wrap       bool
	autoscroll bool
	help       bool
	width      int
	height     int
}

var tuiColumns = []table.Column{
	{Title: "Impl", Width: 10},
	{Title: "Param", Width: 6},
	{Title: "Run", Width: 5},
	{Title: "Node", Width: 10},
	{Title: "Pub", Width: 6},
	{Title: "Succ", Width: 6},
	{Title: "PM Succ", Width: 8},
	{Title: "Avg ms", Width: 8},
	{Title: "Median", Width: 8},
	{Title: "Max", Width: 8},
	{Title: "Sync", Width: 6},
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func newTUIModel(ov *Overview) tuiModel {
	t := table.New(table.WithColumns(tuiColumns), table.WithHeight(10))
	return tuiModel{
		overview:   ov,
		table:      t,
		vp:         viewport.New(0, 0),
		autoscroll: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.layout()
		m.refreshViewport()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
		case "s":
			m.autoscroll = !m.autoscroll
			m.refreshViewport()
		case "?", "h":
			m.help = true
		default:
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
	case rowMsg:
		m.rows = append(m.rows, msg.Row)
		m.table.SetRows(append(m.table.Rows(), tableRow(msg.Row)))
		if m.autoscroll {
			m.table.GotoBottom()
		}
		m.addLog(fmt.Sprintf("%s %s run=%s node=%s pm_succ=%s",
			msg.Implementation, describeParam(msg.Row), msg.Run, msg.Node, ratioCell(msg.Row, msg.SuccessRatio)))
	case progressMsg:
		m.progress = msg.Progress
	case logMsg:
		m.addLog(msg.line)
	}
	return m, nil
}

func (m *tuiModel) addLog(line string) {
	m.logs = append(m.logs, line)
	if len(m.logs) > maxTUILogLines {
		m.logs = m.logs[len(m.logs)-maxTUILogLines:]
	}
	m.refreshViewport()
}

func (m *tuiModel) layout() {
	tableHeight := m.height / 2
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.table.SetHeight(tableHeight)
	h := m.height - tableHeight - lipgloss.Height(m.renderHeader()) - 4
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
}

func (m *tuiModel) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap && m.vp.Width > 0 {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) renderHeader() string {
	var b strings.Builder
	if ov := m.overview; ov != nil {
		b.WriteString(headerStyle.Render("Sweep "+ov.SweepID) + "\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s/%s-* %s=%v runs=%s", ov.LogRoot, ov.Prefix, ov.ParamName, ov.Params, strings.Join(ov.Runs, ","))))
		b.WriteString("\n")
	}
	p := m.progress
	line := fmt.Sprintf("%d/%d conditions", p.Done, p.Total)
	if p.Failed > 0 {
		line += errStyle.Render(fmt.Sprintf(" %d failed", p.Failed))
	}
	if p.Current != "" {
		line += dimStyle.Render("  last: " + p.Current)
	}
	b.WriteString(line)
	return b.String()
}

func (m tuiModel) renderHelp() string {
	return strings.Join([]string{
		headerStyle.Render("Keys"),
		"  w        toggle line wrap",
		"  s        toggle autoscroll",
		"  ↑/↓      move in the results table",
		"  ?/h      toggle this help",
		"  q        quit",
	}, "\n")
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.width)
	footer := dimStyle.Render(fmt.Sprintf("wrap=%v autoscroll=%v  ? for help", m.wrap, m.autoscroll))
	return strings.Join([]string{
		m.renderHeader(),
		divider,
		m.table.View(),
		divider,
		m.vp.View(),
		footer,
	}, "\n")
}

func tableRow(r Row) table.Row {
	lat := func(v float64) string {
		if !r.HasLatency {
			return "-"
		}
		return fmt.Sprintf("%.1f", v)
	}
	return table.Row{
		r.Implementation,
		fmt.Sprintf("%d", r.Param),
		r.Run,
		r.Node,
		formatFloat(r.Published, -1),
		formatFloat(r.Receptions, -1),
		ratioCell(r, r.SuccessRatio),
		lat(r.LatencyMean),
		lat(r.LatencyMedian),
		lat(r.LatencyMax),
		formatFloat(r.SyncInterests, -1),
	}
}

func ratioCell(r Row, v float64) string {
	if r.Degenerate {
		return "-"
	}
	return fmt.Sprintf("%.3f", v)
}

func describeParam(r Row) string {
	return fmt.Sprintf("%s=%d", r.ParamName, r.Param)
}
