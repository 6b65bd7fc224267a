package sink

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteWriter stores result rows in a local SQLite database so sweeps can be
// queried after the fact.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter opens (creating if needed) the database at dsn.
func NewSQLiteWriter(dsn string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	w := &SQLiteWriter{db: db}
	if err := w.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return w, nil
}

func (w *SQLiteWriter) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS results (
			sweep_id TEXT NOT NULL,
			implementation TEXT NOT NULL,
			param_name TEXT NOT NULL,
			param INTEGER NOT NULL,
			run_number TEXT NOT NULL,
			node TEXT NOT NULL,
			nodes REAL,
			published REAL,
			succ REAL,
			pm_succ REAL,
			complete REAL,
			avg REAL,
			median REAL,
			max REAL,
			sync_ints REAL,
			sync_int_ratio REAL,
			counters TEXT,
			degenerate INTEGER NOT NULL,
			ts INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_sweep ON results(sweep_id, implementation, param, run_number)`,
	}
	for _, m := range migrations {
		if _, err := w.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Write inserts a single row.
func (w *SQLiteWriter) Write(row Row) error {
	return w.WriteBatch([]Row{row})
}

// WriteBatch inserts rows in one transaction.
func (w *SQLiteWriter) WriteBatch(rows []Row) error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO results (
		sweep_id, implementation, param_name, param, run_number, node, nodes,
		published, succ, pm_succ, complete, avg, median, max, sync_ints,
		sync_int_ratio, counters, degenerate, ts
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		counters, err := json.Marshal(r.Counters)
		if err != nil {
			tx.Rollback()
			return err
		}
		ts := r.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		_, err = stmt.Exec(
			r.SweepID, r.Implementation, r.ParamName, r.Param, r.Run, r.Node, r.Nodes,
			r.Published, r.Receptions, nullIf(r.Degenerate, r.SuccessRatio), nullIf(r.Degenerate, r.CompleteRatio),
			nullIf(!r.HasLatency, r.LatencyMean), nullIf(!r.HasLatency, r.LatencyMedian), nullIf(!r.HasLatency, r.LatencyMax),
			r.SyncInterests, nullIf(r.Degenerate, r.SyncInterestRatio), string(counters), r.Degenerate, ts.UnixMilli(),
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func nullIf(null bool, v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !null}
}

// DB exposes the underlying handle for queries.
func (w *SQLiteWriter) DB() *sql.DB { return w.db }

// Close closes the database.
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}
