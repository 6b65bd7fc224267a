package sweep

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syncbench/internal/config"
	"syncbench/internal/correlate"
	"syncbench/internal/sink"
)

const base = "2021-01-01 00:00:00"

func logLine(ms int, tag, node, name string) string {
	ts := fmt.Sprintf("%s.%06d", base, ms*1000)
	if name == "" {
		return fmt.Sprintf("%s, 1, 1, \"%s::%s\"", ts, tag, node)
	}
	return fmt.Sprintf("%s, 1, 1, \"%s::%s::%s\"", ts, tag, node, name)
}

func msg(pub string, seq int) string {
	return fmt.Sprintf("/ndn/%s-site/%s/chat/%s/%d", pub, pub, pub, seq)
}

func writeFile(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

// writeRun creates a three node run: a publishes two messages that b and c
// both receive, every node sends one sync interest.
func writeRun(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeFile(t, filepath.Join(dir, "a.log"),
		logLine(0, "NODE_INIT", "a", ""),
		logLine(100, "PUBL_MSG", "a", msg("a", 1)),
		logLine(200, "PUBL_MSG", "a", msg("a", 2)),
		logLine(210, "SEND_SYNC_INT", "a", ""),
	)
	writeFile(t, filepath.Join(dir, "b.log"),
		logLine(0, "NODE_INIT", "b", ""),
		logLine(110, "RECV_MSG", "b", msg("a", 1)),
		logLine(230, "RECV_MSG", "b", msg("a", 2)),
		logLine(240, "SEND_SYNC_INT", "b", ""),
	)
	writeFile(t, filepath.Join(dir, "c.log"),
		logLine(0, "NODE_INIT", "c", ""),
		logLine(130, "RECV_MSG", "c", msg("a", 1)),
		logLine(250, "RECV_MSG", "c", msg("a", 2)),
		logLine(260, "SEND_SYNC_INT", "c", ""),
	)
	for _, n := range []string{"a", "b", "c"} {
		writeFile(t, filepath.Join(dir, "report-start-"+n+".status"), "nInInterests=100", "nOutData=50", "Channels", "nInInterests=1")
		writeFile(t, filepath.Join(dir, "report-end-"+n+".status"), "nInInterests=150", "nOutData=80", "Channels")
	}
}

func testConfig(root string) *config.Sweep {
	return &config.Sweep{
		LogRoot:   root,
		Prefix:    "exp",
		Parameter: config.Parameter{Name: "pub_timing", Values: []int{100, 200}},
		Runs:      []int{1, 2},
		Counters:  []string{"nInInterests", "nOutData"},
		Workers:   3,
		LogGlob:   config.DefaultLogGlob,
		Status:    config.DefaultStatus,
	}
}

func TestAnalyzeDir(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir)

	a, err := AnalyzeDir(context.Background(), dir, DirOptions{Counters: []string{"nInInterests", "nOutData"}})
	require.NoError(t, err)
	m := a.Metrics
	assert.Len(t, a.LogFiles, 3)
	assert.Equal(t, []string{"a", "b", "c"}, a.Nodes)
	assert.Equal(t, 3, m.NodeCount)
	assert.Equal(t, 2, m.Published)
	assert.Equal(t, 4, m.Receptions)
	assert.Equal(t, 1.0, m.SuccessRatio)
	assert.Equal(t, 1.0, m.CompleteRatio)
	assert.Equal(t, 1.5, m.SyncInterestRatio)
	assert.ElementsMatch(t, []int64{10, 30, 30, 50}, []int64(m.Latency))
	assert.Equal(t, int64(150), m.Counters["nInInterests"])
	assert.Equal(t, int64(90), m.Counters["nOutData"])
	assert.False(t, m.Degenerate)
}

func TestAnalyzeDirEmptyIsDegenerate(t *testing.T) {
	a, err := AnalyzeDir(context.Background(), t.TempDir(), DirOptions{})
	require.NoError(t, err)
	assert.True(t, a.Metrics.Degenerate)
	assert.Zero(t, a.Metrics.Published)
	assert.Empty(t, a.Metrics.Latency)
}

func TestAnalyzeDirMissing(t *testing.T) {
	_, err := AnalyzeDir(context.Background(), filepath.Join(t.TempDir(), "nope"), DirOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestAnalyzeDirNeverPublished(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.log"), logLine(5, "RECV_MSG", "b", msg("a", 9)))
	_, err := AnalyzeDir(context.Background(), dir, DirOptions{})
	require.ErrorIs(t, err, correlate.ErrNeverPublished)
	assert.Contains(t, err.Error(), msg("a", 9))
}

func TestAnalyzeDirExplicitNodeCount(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir)
	a, err := AnalyzeDir(context.Background(), dir, DirOptions{NodeCount: 5})
	require.NoError(t, err)
	assert.Equal(t, 0.5, a.Metrics.SuccessRatio)
	assert.Zero(t, a.Metrics.CompleteRatio)
}

func TestMatrix(t *testing.T) {
	cfg := testConfig("/logs")
	cfg.Implementations = []string{"svs", "psync"}
	conds := Matrix(cfg)
	require.Len(t, conds, 8)
	assert.Equal(t, "exp-100-1", conds[0].Name)
	assert.Equal(t, filepath.Join("/logs", "svs", "exp-100-1"), conds[0].Dir)
	assert.False(t, conds[0].Last)
	assert.True(t, conds[1].Last)
	assert.Equal(t, "psync", conds[4].Implementation)
	for i, c := range conds {
		assert.Equal(t, i, c.Index)
	}
}

func TestNodeCountFromParam(t *testing.T) {
	cfg := testConfig("/logs")
	cfg.NodeCountFromParam = true
	assert.Equal(t, 200, NodeCount(cfg, Matrix(cfg)[2]))
	cfg.NodeCountFromParam = false
	cfg.NodeCount = 4
	assert.Equal(t, 4, NodeCount(cfg, Matrix(cfg)[2]))
}

func populate(t *testing.T, cfg *config.Sweep) {
	t.Helper()
	for _, c := range Matrix(cfg) {
		writeRun(t, c.Dir)
	}
}

func TestDriverEmitsInSweepOrder(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Workers = 4
	populate(t, cfg)
	mem := &sink.MemoryWriter{}
	d := NewDriver(cfg)
	d.now = func() time.Time { return time.Unix(0, 0).UTC() }

	require.NoError(t, d.Run(context.Background(), mem))
	rows := mem.Rows()
	var got []string
	for _, r := range rows {
		got = append(got, fmt.Sprintf("%d/%s/%s", r.Param, r.Run, r.Node))
		assert.Equal(t, d.ID(), r.SweepID)
	}
	assert.Equal(t, []string{
		"100/1/ALL", "100/2/ALL", "100/AVG/AVG",
		"200/1/ALL", "200/2/ALL", "200/AVG/AVG",
	}, got)
	avg := rows[2]
	assert.Equal(t, 1.0, avg.SuccessRatio)
	assert.Equal(t, 30.0, avg.LatencyMean)
	assert.Equal(t, 150.0, avg.Counters["nInInterests"])
	assert.Equal(t, sink.Progress{SweepID: d.ID(), Total: 4, Done: 4, Current: "exp-200-2"}, mem.Progress())
}

func TestDriverOrderSurvivesSlowFirstCondition(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Workers = 4
	populate(t, cfg)

	// A heavy extra log keeps the first condition busy while the rest finish.
	const extra = 200000
	var b strings.Builder
	for i := 0; i < extra; i++ {
		b.WriteString(logLine(300, "SEND_SYNC_INT", "z", ""))
		b.WriteByte('\n')
	}
	slow := Matrix(cfg)[0]
	require.NoError(t, os.WriteFile(filepath.Join(slow.Dir, "z.log"), []byte(b.String()), 0o644))

	mem := &sink.MemoryWriter{}
	require.NoError(t, NewDriver(cfg).Run(context.Background(), mem))
	rows := mem.Rows()
	var got []string
	for _, r := range rows {
		got = append(got, fmt.Sprintf("%d/%s", r.Param, r.Run))
	}
	assert.Equal(t, []string{"100/1", "100/2", "100/AVG", "200/1", "200/2", "200/AVG"}, got)
	assert.Equal(t, float64(3+extra), rows[0].SyncInterests)
	assert.Equal(t, 4.0, rows[0].Nodes)
	assert.Equal(t, 3.0, rows[1].SyncInterests)
	assert.Equal(t, 3.0, rows[3].SyncInterests)
}

func TestDriverPerPublisherRows(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Parameter.Values = []int{100}
	cfg.Runs = []int{1}
	cfg.PerPublisher = true
	populate(t, cfg)
	mem := &sink.MemoryWriter{}
	require.NoError(t, NewDriver(cfg).Run(context.Background(), mem))
	rows := mem.Rows()
	require.Len(t, rows, 3)
	pub := rows[1]
	assert.Equal(t, "a", pub.Node)
	assert.Equal(t, 2.0, pub.Published)
	assert.Equal(t, 1.0, pub.SuccessRatio)
	assert.Equal(t, 1.0, pub.SyncInterests)
	assert.Equal(t, 0.5, pub.SyncInterestRatio)
}

func TestDriverDegenerateRun(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Parameter.Values = []int{100}
	populate(t, cfg)
	empty := Matrix(cfg)[1].Dir
	require.NoError(t, os.RemoveAll(empty))
	require.NoError(t, os.MkdirAll(empty, 0o755))

	mem := &sink.MemoryWriter{}
	require.NoError(t, NewDriver(cfg).Run(context.Background(), mem))
	rows := mem.Rows()
	require.Len(t, rows, 3)
	assert.True(t, rows[1].Degenerate)
	assert.False(t, rows[1].HasLatency)
	// ratios average only the run that published
	assert.False(t, rows[2].Degenerate)
	assert.Equal(t, 1.0, rows[2].SuccessRatio)
	assert.Equal(t, 1.0, rows[2].Published)
}

func TestDriverMissingDirAborts(t *testing.T) {
	cfg := testConfig(t.TempDir())
	populate(t, cfg)
	require.NoError(t, os.RemoveAll(Matrix(cfg)[2].Dir))
	cfg.Workers = 1

	mem := &sink.MemoryWriter{}
	err := NewDriver(cfg).Run(context.Background(), mem)
	var ce *ConditionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "exp-200-1", ce.Condition.Name)
	assert.Len(t, mem.Rows(), 3)
}

func TestDriverContinueOnError(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.ContinueOnError = true
	populate(t, cfg)
	require.NoError(t, os.RemoveAll(Matrix(cfg)[2].Dir))

	mem := &sink.MemoryWriter{}
	err := NewDriver(cfg).Run(context.Background(), mem)
	var ce *ConditionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "exp-200-1", ce.Condition.Name)

	var got []string
	for _, r := range mem.Rows() {
		got = append(got, fmt.Sprintf("%d/%s", r.Param, r.Run))
	}
	assert.Equal(t, []string{"100/1", "100/2", "100/AVG", "200/2", "200/AVG"}, got)
	p := mem.Progress()
	assert.Equal(t, 3, p.Done)
	assert.Equal(t, 1, p.Failed)
}

func TestDriverIntegrityAlwaysAborts(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.ContinueOnError = true
	populate(t, cfg)
	bad := Matrix(cfg)[1].Dir
	writeFile(t, filepath.Join(bad, "d.log"), logLine(5, "RECV_MSG", "d", msg("x", 1)))

	err := NewDriver(cfg).Run(context.Background(), &sink.MemoryWriter{})
	require.ErrorIs(t, err, correlate.ErrNeverPublished)
}

type failingWriter struct{ calls int }

func (f *failingWriter) Write(sink.Row) error {
	f.calls++
	return errors.New("disk full")
}

func TestDriverWriteFailureAborts(t *testing.T) {
	cfg := testConfig(t.TempDir())
	populate(t, cfg)
	fw := &failingWriter{}
	err := NewDriver(cfg).Run(context.Background(), fw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, fw.calls)
}

func TestDriverCancelled(t *testing.T) {
	cfg := testConfig(t.TempDir())
	populate(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewDriver(cfg).Run(ctx, &sink.MemoryWriter{})
	require.ErrorIs(t, err, context.Canceled)
}
