package sink

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteWriter(t *testing.T) {
	w, err := NewSQLiteWriter(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer w.Close()

	deg := sampleRow()
	deg.Run = "2"
	deg.Degenerate = true
	deg.HasLatency = false
	require.NoError(t, w.WriteBatch([]Row{sampleRow(), deg}))

	var count int
	require.NoError(t, w.DB().QueryRow(`SELECT COUNT(*) FROM results WHERE sweep_id = ?`, "s1").Scan(&count))
	assert.Equal(t, 2, count)

	var pmSucc, avg *float64
	require.NoError(t, w.DB().QueryRow(`SELECT pm_succ, avg FROM results WHERE run_number = '2'`).Scan(&pmSucc, &avg))
	assert.Nil(t, pmSucc)
	assert.Nil(t, avg)

	var counters string
	require.NoError(t, w.DB().QueryRow(`SELECT counters FROM results WHERE run_number = '1'`).Scan(&counters))
	assert.JSONEq(t, `{"nInInterests":50,"nOutData":30}`, counters)
}

func TestSQLiteWriterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	w, err := NewSQLiteWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleRow()))
	require.NoError(t, w.Close())

	w, err = NewSQLiteWriter(path)
	require.NoError(t, err)
	defer w.Close()
	var count int
	require.NoError(t, w.DB().QueryRow(`SELECT COUNT(*) FROM results`).Scan(&count))
	assert.Equal(t, 1, count)
}
