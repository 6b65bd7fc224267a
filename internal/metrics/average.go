package metrics

// Summary averages per-run summaries of repeated trials. Every run carries the
// same weight regardless of how many receptions it produced; raw delays are
// not pooled. Latency figures average only runs with receptions
// (LatencyRuns), ratios only non-degenerate runs (RatioRuns).
type Summary struct {
	Runs              int                `json:"runs"`
	NodeCount         float64            `json:"node_count"`
	Published         float64            `json:"published"`
	Receptions        float64            `json:"receptions"`
	SyncInterests     float64            `json:"sync_interests"`
	LatencyRuns       int                `json:"latency_runs"`
	LatencyMean       float64            `json:"latency_mean_ms"`
	LatencyMedian     float64            `json:"latency_median_ms"`
	LatencyMax        float64            `json:"latency_max_ms"`
	RatioRuns         int                `json:"ratio_runs"`
	SuccessRatio      float64            `json:"success_ratio"`
	CompleteRatio     float64            `json:"complete_ratio"`
	SyncInterestRatio float64            `json:"sync_interest_ratio"`
	Counters          map[string]float64 `json:"counters"`
}

// Average reduces runs into a Summary.
func Average(runs []RunMetrics) Summary {
	s := Summary{Runs: len(runs), Counters: make(map[string]float64)}
	if len(runs) == 0 {
		return s
	}
	for _, r := range runs {
		s.NodeCount += float64(r.NodeCount)
		s.Published += float64(r.Published)
		s.Receptions += float64(r.Receptions)
		s.SyncInterests += float64(r.SyncInterests)
		for k, v := range r.Counters {
			s.Counters[k] += float64(v)
		}
		if st, ok := r.Latency.Stats(); ok {
			s.LatencyRuns++
			s.LatencyMean += st.Mean
			s.LatencyMedian += st.Median
			s.LatencyMax += st.Max
		}
		if !r.Degenerate {
			s.RatioRuns++
			s.SuccessRatio += r.SuccessRatio
			s.CompleteRatio += r.CompleteRatio
			s.SyncInterestRatio += r.SyncInterestRatio
		}
	}

	n := float64(len(runs))
	s.NodeCount /= n
	s.Published /= n
	s.Receptions /= n
	s.SyncInterests /= n
	for k := range s.Counters {
		s.Counters[k] /= n
	}
	if s.LatencyRuns > 0 {
		l := float64(s.LatencyRuns)
		s.LatencyMean /= l
		s.LatencyMedian /= l
		s.LatencyMax /= l
	}
	if s.RatioRuns > 0 {
		r := float64(s.RatioRuns)
		s.SuccessRatio /= r
		s.CompleteRatio /= r
		s.SyncInterestRatio /= r
	}
	return s
}
