package sink

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// DefaultGreptimeTable receives result rows unless configured otherwise.
const DefaultGreptimeTable = "sync_results"

type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes result rows to GreptimeDB via the ingester client.
// Identifying columns are tags; figures are float fields; the row timestamp
// is the time index.
type GreptimeDBWriter struct {
	client   greptimeClient
	table    string
	counters []string
	logger   *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port").
func NewGreptimeDBWriter(endpoint, database, tableName string, counters []string, logger *slog.Logger) (*GreptimeDBWriter, error) {
	host, port := endpoint, 4001
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("greptime endpoint %q: bad port: %w", endpoint, err)
		}
		host, port = h, n
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if tableName == "" {
		tableName = DefaultGreptimeTable
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GreptimeDBWriter{client: client, table: tableName, counters: counters, logger: logger}, nil
}

// Write inserts a single row.
func (w *GreptimeDBWriter) Write(row Row) error {
	return w.WriteBatch([]Row{row})
}

// WriteBatch inserts multiple rows in one request.
func (w *GreptimeDBWriter) WriteBatch(rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := w.buildTable(rows)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		w.logger.Error("greptime write failed", "table", w.table, "err", err)
		return err
	}
	w.logger.Debug("greptime rows written", "table", w.table, "rows", len(rows))
	return nil
}

func (w *GreptimeDBWriter) buildTable(rows []Row) (*table.Table, error) {
	tbl, err := table.New(w.table)
	if err != nil {
		return nil, err
	}
	for _, tag := range []string{"sweep_id", "implementation", "param_name", "param", "run_number", "node"} {
		if err := tbl.AddTagColumn(tag, types.STRING); err != nil {
			return nil, err
		}
	}
	fields := []string{"nodes", "published", "succ", "pm_succ", "complete", "avg", "median", "max", "sync_ints", "sync_int_ratio"}
	fields = append(fields, w.counters...)
	for _, f := range fields {
		if err := tbl.AddFieldColumn(f, types.FLOAT64); err != nil {
			return nil, err
		}
	}
	if err := tbl.AddFieldColumn("degenerate", types.BOOLEAN); err != nil {
		return nil, err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}

	for _, r := range rows {
		ts := r.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		vals := []any{
			r.SweepID, r.Implementation, r.ParamName, strconv.Itoa(r.Param), r.Run, r.Node,
			r.Nodes, r.Published, r.Receptions,
			nullable(r.Degenerate, r.SuccessRatio), nullable(r.Degenerate, r.CompleteRatio),
			nullable(!r.HasLatency, r.LatencyMean), nullable(!r.HasLatency, r.LatencyMedian),
			nullable(!r.HasLatency, r.LatencyMax),
			r.SyncInterests, nullable(r.Degenerate, r.SyncInterestRatio),
		}
		for _, c := range w.counters {
			vals = append(vals, r.Counters[c])
		}
		vals = append(vals, r.Degenerate, ts)
		if err := tbl.AddRow(vals...); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// nullable yields nil, which the ingester sends as a null cell, for undefined figures.
func nullable(null bool, v float64) any {
	if null {
		return nil
	}
	return v
}
