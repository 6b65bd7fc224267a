package metrics

import "sort"

// Distribution is a multiset of delays in milliseconds. It may be empty and
// may contain negative values.
type Distribution []int64

// Stats summarises a non-empty Distribution.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Mean returns the arithmetic mean; ok is false for an empty distribution.
func (d Distribution) Mean() (mean float64, ok bool) {
	if len(d) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range d {
		sum += float64(v)
	}
	return sum / float64(len(d)), true
}

// Median returns the middle value, averaging the two middle values of an
// even-sized distribution.
func (d Distribution) Median() (median float64, ok bool) {
	n := len(d)
	if n == 0 {
		return 0, false
	}
	s := d.sorted()
	if n%2 == 1 {
		return float64(s[n/2]), true
	}
	return (float64(s[n/2-1]) + float64(s[n/2])) / 2, true
}

// Max returns the largest delay.
func (d Distribution) Max() (hi int64, ok bool) {
	if len(d) == 0 {
		return 0, false
	}
	hi = d[0]
	for _, v := range d[1:] {
		if v > hi {
			hi = v
		}
	}
	return hi, true
}

// Min returns the smallest delay.
func (d Distribution) Min() (lo int64, ok bool) {
	if len(d) == 0 {
		return 0, false
	}
	lo = d[0]
	for _, v := range d[1:] {
		if v < lo {
			lo = v
		}
	}
	return lo, true
}

// Stats computes all summary statistics at once.
func (d Distribution) Stats() (Stats, bool) {
	if len(d) == 0 {
		return Stats{}, false
	}
	mean, _ := d.Mean()
	median, _ := d.Median()
	lo, _ := d.Min()
	hi, _ := d.Max()
	return Stats{Count: len(d), Mean: mean, Median: median, Min: float64(lo), Max: float64(hi)}, true
}

func (d Distribution) sorted() []int64 {
	s := make([]int64, len(d))
	copy(s, d)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s
}
