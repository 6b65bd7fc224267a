// Package metrics reduces correlated deliveries and counter deltas into
// latency, dissemination and overhead figures.
package metrics

import (
	"errors"
	"fmt"
	"sort"

	"syncbench/internal/correlate"
	"syncbench/internal/status"
)

var (
	// ErrNoPublishes reports a ratio taken over zero published messages.
	ErrNoPublishes = errors.New("no messages published")
	// ErrTooFewNodes reports a success ratio for fewer than two nodes.
	ErrTooFewNodes = errors.New("success ratio needs at least two nodes")
)

// SyncInterestRatio is sync interests sent per published message.
func SyncInterestRatio(syncInterests, published int) (float64, error) {
	if published == 0 {
		return 0, fmt.Errorf("sync interest ratio over %d interests: %w", syncInterests, ErrNoPublishes)
	}
	return float64(syncInterests) / float64(published), nil
}

// SuccessRatio is receptions over the ideal of every other node receiving
// every message. 1.0 means perfect dissemination.
func SuccessRatio(receptions, nodeCount, published int) (float64, error) {
	if published == 0 {
		return 0, fmt.Errorf("success ratio: %w", ErrNoPublishes)
	}
	if nodeCount < 2 {
		return 0, fmt.Errorf("%w: node count %d", ErrTooFewNodes, nodeCount)
	}
	return float64(receptions) / float64((nodeCount-1)*published), nil
}

// CompleteRatio is the fraction of messages received by all other nodes.
func CompleteRatio(records []correlate.DeliveryRecord, nodeCount int) (float64, error) {
	if len(records) == 0 {
		return 0, fmt.Errorf("complete ratio: %w", ErrNoPublishes)
	}
	if nodeCount < 2 {
		return 0, fmt.Errorf("%w: node count %d", ErrTooFewNodes, nodeCount)
	}
	complete := 0
	for _, r := range records {
		if r.ReceiverCount() >= nodeCount-1 {
			complete++
		}
	}
	return float64(complete) / float64(len(records)), nil
}

// PublisherMetrics is the breakdown for messages of one publisher.
type PublisherMetrics struct {
	Publisher     string       `json:"publisher"`
	Published     int          `json:"published"`
	Receptions    int          `json:"receptions"`
	Latency       Distribution `json:"latency_ms"`
	SuccessRatio  float64      `json:"success_ratio"`
	CompleteRatio float64      `json:"complete_ratio"`
	SyncInterests int          `json:"sync_interests"`
}

// RunMetrics is the outcome of one log directory. Degenerate runs published
// nothing; their ratios are undefined and left at zero.
type RunMetrics struct {
	NodeCount         int                `json:"node_count"`
	Published         int                `json:"published"`
	Receptions        int                `json:"receptions"`
	SyncInterests     int                `json:"sync_interests"`
	StateUpdates      int                `json:"state_updates"`
	Latency           Distribution       `json:"latency_ms"`
	Degenerate        bool               `json:"degenerate"`
	SuccessRatio      float64            `json:"success_ratio"`
	CompleteRatio     float64            `json:"complete_ratio"`
	SyncInterestRatio float64            `json:"sync_interest_ratio"`
	Counters          status.Delta       `json:"counters"`
	Publishers        []PublisherMetrics `json:"publishers,omitempty"`
}

// Compute derives the metrics of one run.
func Compute(res *correlate.Result, nodeCount int, counters status.Delta) (RunMetrics, error) {
	m := RunMetrics{
		NodeCount:     nodeCount,
		Published:     len(res.Records),
		Receptions:    res.Receptions(),
		SyncInterests: res.SyncInterests,
		StateUpdates:  res.StateUpdates,
		Latency:       Distribution{},
		Counters:      counters,
	}
	for _, rec := range res.Records {
		m.Latency = append(m.Latency, rec.Delays()...)
	}
	if m.Published == 0 {
		m.Degenerate = true
		return m, nil
	}

	var err error
	if m.SyncInterestRatio, err = SyncInterestRatio(m.SyncInterests, m.Published); err != nil {
		return RunMetrics{}, err
	}
	if m.SuccessRatio, err = SuccessRatio(m.Receptions, nodeCount, m.Published); err != nil {
		return RunMetrics{}, err
	}
	if m.CompleteRatio, err = CompleteRatio(res.Records, nodeCount); err != nil {
		return RunMetrics{}, err
	}
	if m.Publishers, err = byPublisher(res, nodeCount); err != nil {
		return RunMetrics{}, err
	}
	return m, nil
}

func byPublisher(res *correlate.Result, nodeCount int) ([]PublisherMetrics, error) {
	idx := make(map[string]int)
	var out []PublisherMetrics
	var records [][]correlate.DeliveryRecord
	for _, rec := range res.Records {
		if rec.Publisher == "" {
			continue
		}
		i, ok := idx[rec.Publisher]
		if !ok {
			i = len(out)
			idx[rec.Publisher] = i
			out = append(out, PublisherMetrics{
				Publisher:     rec.Publisher,
				Latency:       Distribution{},
				SyncInterests: res.SyncInterestsByNode[rec.Publisher],
			})
			records = append(records, nil)
		}
		out[i].Published++
		out[i].Receptions += len(rec.Receptions)
		out[i].Latency = append(out[i].Latency, rec.Delays()...)
		records[i] = append(records[i], rec)
	}
	for i := range out {
		r, err := SuccessRatio(out[i].Receptions, nodeCount, out[i].Published)
		if err != nil {
			return nil, fmt.Errorf("publisher %s: %w", out[i].Publisher, err)
		}
		out[i].SuccessRatio = r
		if out[i].CompleteRatio, err = CompleteRatio(records[i], nodeCount); err != nil {
			return nil, fmt.Errorf("publisher %s: %w", out[i].Publisher, err)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Publisher < out[j].Publisher })
	return out, nil
}
