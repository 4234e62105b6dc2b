package metrics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// LatencyStats summarizes repeated timings of one call, in seconds.
type LatencyStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"` // population standard deviation
	P50  float64 `json:"p50"`
	P99  float64 `json:"p99"`
	N    int     `json:"n"`
}

// Percentile returns the p-th percentile (0-100) of an ascending slice.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(min(max(p, 0), 100)/100, stat.Empirical, sorted, nil)
}

// LatencyStatsFromDurations computes mean, standard deviation and percentiles.
func LatencyStatsFromDurations(durations []time.Duration) LatencyStats {
	if len(durations) == 0 {
		return LatencyStats{}
	}
	secs := make([]float64, len(durations))
	for i, d := range durations {
		secs[i] = d.Seconds()
	}
	mean, std := stat.PopMeanStdDev(secs, nil)
	sort.Float64s(secs)
	return LatencyStats{
		Mean: mean,
		Std:  std,
		P50:  Percentile(secs, 50),
		P99:  Percentile(secs, 99),
		N:    len(secs),
	}
}
