// Result rows emitted by the analysis sweep
package sink

import (
	"math"
	"strconv"
	"time"
)

// Identifiers used in place of a run number or node name on aggregate rows.
const (
	RunAverage  = "AVG"
	NodeAll     = "ALL"
	NodeAverage = "AVG"
)

// Row is one line of the results table: a whole run (Node == NodeAll), one
// publisher within a run, or the average over the runs of a parameter value
// (Run == RunAverage).
type Row struct {
	SweepID           string             `json:"sweep_id"`
	Implementation    string             `json:"implementation,omitempty"`
	ParamName         string             `json:"param_name"`
	Param             int                `json:"param"`
	Run               string             `json:"run_number"`
	Node              string             `json:"node"`
	Nodes             float64            `json:"nodes"`
	Published         float64            `json:"published"`
	Receptions        float64            `json:"succ"`
	SuccessRatio      float64            `json:"pm_succ"`
	CompleteRatio     float64            `json:"complete"`
	HasLatency        bool               `json:"has_latency"`
	LatencyMean       float64            `json:"avg"`
	LatencyMedian     float64            `json:"median"`
	LatencyMax        float64            `json:"max"`
	SyncInterests     float64            `json:"sync_ints"`
	SyncInterestRatio float64            `json:"sync_int_ratio"`
	Counters          map[string]float64 `json:"counters,omitempty"`
	Degenerate        bool               `json:"degenerate"`
	Timestamp         time.Time          `json:"ts"`
}

var baseColumns = []string{
	"sweep_id", "implementation", "param_name", "param", "run_number", "node", "nodes",
	"published", "succ", "pm_succ", "complete", "avg", "median", "max",
	"sync_ints", "sync_int_ratio",
}

// Header returns the tabular column names, counter columns last but one.
func Header(counters []string) []string {
	h := make([]string, 0, len(baseColumns)+len(counters)+1)
	h = append(h, baseColumns...)
	h = append(h, counters...)
	return append(h, "degenerate")
}

// Record renders r in Header order. Undefined figures are empty cells.
func (r Row) Record(counters []string) []string {
	ratio := func(v float64) string {
		if r.Degenerate {
			return ""
		}
		return formatFloat(v, 3)
	}
	latency := func(v float64) string {
		if !r.HasLatency {
			return ""
		}
		return formatFloat(v, 1)
	}
	rec := []string{
		r.SweepID,
		r.Implementation,
		r.ParamName,
		strconv.Itoa(r.Param),
		r.Run,
		r.Node,
		formatFloat(r.Nodes, -1),
		formatFloat(r.Published, -1),
		formatFloat(r.Receptions, -1),
		ratio(r.SuccessRatio),
		ratio(r.CompleteRatio),
		latency(r.LatencyMean),
		latency(r.LatencyMedian),
		latency(r.LatencyMax),
		formatFloat(r.SyncInterests, -1),
		ratio(r.SyncInterestRatio),
	}
	for _, k := range counters {
		rec = append(rec, formatFloat(r.Counters[k], -1))
	}
	return append(rec, strconv.FormatBool(r.Degenerate))
}

// formatFloat prints v with prec decimals; prec < 0 prints the shortest form
// rounded to three decimals, so whole counts stay integers.
func formatFloat(v float64, prec int) string {
	if prec < 0 {
		return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}
