package sink

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
)

type mockGreptimeClient struct {
	table *table.Table
	err   error
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	if len(tables) > 0 {
		m.table = tables[0]
	}
	return &gpb.GreptimeResponse{}, m.err
}

func TestGreptimeWriterRows(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, table: DefaultGreptimeTable, counters: []string{"nInInterests"}, logger: slog.New(slog.DiscardHandler)}

	if err := w.Write(sampleRow()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if m.table == nil {
		t.Fatalf("expected table to be captured")
	}
	rows := m.table.GetRows()
	// 6 tags, 10 figures, 1 counter, degenerate, ts
	if len(rows.Schema) != 19 {
		t.Fatalf("unexpected schema length: %d", len(rows.Schema))
	}
	if rows.Schema[0].SemanticType != gpb.SemanticType_TAG {
		t.Fatalf("sweep_id should be a tag")
	}
	vals := rows.Rows[0].Values
	if got := vals[3].GetStringValue(); got != "500" {
		t.Fatalf("param = %s, want 500", got)
	}
	if got := vals[5].GetStringValue(); got != NodeAll {
		t.Fatalf("node = %s, want ALL", got)
	}
	if got := vals[8].GetF64Value(); got != 8 {
		t.Fatalf("succ = %v, want 8", got)
	}
	if got := vals[16].GetF64Value(); got != 50 {
		t.Fatalf("counter = %v, want 50", got)
	}
}

func TestGreptimeWriterUndefinedFiguresAreNull(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, table: DefaultGreptimeTable, logger: slog.New(slog.DiscardHandler)}

	noLatency := sampleRow()
	noLatency.HasLatency = false
	noLatency.LatencyMean, noLatency.LatencyMedian, noLatency.LatencyMax = 0, 0, 0
	degenerate := Row{SweepID: "s1", ParamName: "pub_timing", Param: 500, Run: "2", Node: NodeAll, Nodes: 3, Degenerate: true}

	if err := w.WriteBatch([]Row{noLatency, degenerate}); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	rows := m.table.GetRows()
	// columns: 6 tags, nodes, published, succ, pm_succ, complete, avg, median, max, sync_ints, sync_int_ratio
	const (
		pmSucc       = 9
		complete     = 10
		avg          = 11
		median       = 12
		latMax       = 13
		syncInts     = 14
		syncIntRatio = 15
	)

	first := rows.Rows[0].Values
	for _, i := range []int{avg, median, latMax} {
		if first[i].GetValueData() != nil {
			t.Fatalf("column %s: latency without receptions should be null, got %v", rows.Schema[i].ColumnName, first[i])
		}
	}
	if got := first[pmSucc].GetF64Value(); got != 1 {
		t.Fatalf("pm_succ = %v, want 1", got)
	}

	second := rows.Rows[1].Values
	for _, i := range []int{pmSucc, complete, syncIntRatio, avg} {
		if second[i].GetValueData() != nil {
			t.Fatalf("column %s: degenerate row should be null, got %v", rows.Schema[i].ColumnName, second[i])
		}
	}
	if second[syncInts].GetValueData() == nil {
		t.Fatalf("sync_ints is defined on degenerate rows")
	}
}

func TestGreptimeWriterEmptyBatch(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, table: DefaultGreptimeTable, logger: slog.New(slog.DiscardHandler)}
	if err := w.WriteBatch(nil); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if m.table != nil {
		t.Fatalf("no request expected for an empty batch")
	}
}

func TestGreptimeWriterError(t *testing.T) {
	m := &mockGreptimeClient{err: errors.New("unavailable")}
	w := &GreptimeDBWriter{client: m, table: DefaultGreptimeTable, logger: slog.New(slog.DiscardHandler)}
	if err := w.Write(sampleRow()); err == nil {
		t.Fatalf("expected error")
	}
}
