package sweep

import (
	"time"

	"syncbench/internal/metrics"
	"syncbench/internal/sink"
	"syncbench/internal/status"
)

// RowMeta identifies the rows of one condition or group.
type RowMeta struct {
	SweepID        string
	Implementation string
	ParamName      string
	Param          int
	Run            string
	Timestamp      time.Time
}

func (m RowMeta) row(node string) sink.Row {
	return sink.Row{
		SweepID:        m.SweepID,
		Implementation: m.Implementation,
		ParamName:      m.ParamName,
		Param:          m.Param,
		Run:            m.Run,
		Node:           node,
		Timestamp:      m.Timestamp,
	}
}

func setLatency(r *sink.Row, d metrics.Distribution) {
	st, ok := d.Stats()
	if !ok {
		return
	}
	r.HasLatency = true
	r.LatencyMean = st.Mean
	r.LatencyMedian = st.Median
	r.LatencyMax = st.Max
}

func counterFloats(d status.Delta) map[string]float64 {
	out := make(map[string]float64, len(d))
	for k, v := range d {
		out[k] = float64(v)
	}
	return out
}

// RunRows renders one run: the ALL row, then one row per publisher when
// perPublisher is set.
func RunRows(meta RowMeta, m metrics.RunMetrics, perPublisher bool) []sink.Row {
	all := meta.row(sink.NodeAll)
	all.Nodes = float64(m.NodeCount)
	all.Published = float64(m.Published)
	all.Receptions = float64(m.Receptions)
	all.SyncInterests = float64(m.SyncInterests)
	all.Counters = counterFloats(m.Counters)
	all.Degenerate = m.Degenerate
	if !m.Degenerate {
		all.SuccessRatio = m.SuccessRatio
		all.CompleteRatio = m.CompleteRatio
		all.SyncInterestRatio = m.SyncInterestRatio
	}
	setLatency(&all, m.Latency)
	rows := []sink.Row{all}
	if !perPublisher {
		return rows
	}
	for _, p := range m.Publishers {
		r := meta.row(p.Publisher)
		r.Nodes = float64(m.NodeCount)
		r.Published = float64(p.Published)
		r.Receptions = float64(p.Receptions)
		r.SuccessRatio = p.SuccessRatio
		r.CompleteRatio = p.CompleteRatio
		r.SyncInterests = float64(p.SyncInterests)
		r.SyncInterestRatio = float64(p.SyncInterests) / float64(p.Published)
		setLatency(&r, p.Latency)
		rows = append(rows, r)
	}
	return rows
}

// AverageRow renders the mean of per-run summaries for a parameter value.
func AverageRow(meta RowMeta, s metrics.Summary) sink.Row {
	meta.Run = sink.RunAverage
	r := meta.row(sink.NodeAverage)
	r.Nodes = s.NodeCount
	r.Published = s.Published
	r.Receptions = s.Receptions
	r.SyncInterests = s.SyncInterests
	r.Counters = s.Counters
	r.Degenerate = s.RatioRuns == 0
	r.SuccessRatio = s.SuccessRatio
	r.CompleteRatio = s.CompleteRatio
	r.SyncInterestRatio = s.SyncInterestRatio
	if s.LatencyRuns > 0 {
		r.HasLatency = true
		r.LatencyMean = s.LatencyMean
		r.LatencyMedian = s.LatencyMedian
		r.LatencyMax = s.LatencyMax
	}
	return r
}
