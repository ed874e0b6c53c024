package efl

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

//ScoreSummary describes a distribution of anomaly scores.
type ScoreSummary struct {
	Count     int
	Mean      float64
	StdDev    float64
	Min       float64
	Median    float64
	Q95       float64
	Max       float64
	Anomalies int // scores not less than the cutoff
}

//Summarize computes ScoreSummary of scores.
func Summarize(scores []float64, cutoff float64) ScoreSummary {
	summary := ScoreSummary{Count: len(scores)}
	if len(scores) == 0 {
		return summary
	}

	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	summary.Mean, summary.StdDev = stat.MeanStdDev(sorted, nil)
	summary.Min = sorted[0]
	summary.Max = sorted[len(sorted)-1]
	summary.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	summary.Q95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	for _, flag := range Threshold(scores, cutoff) {
		if flag {
			summary.Anomalies++
		}
	}
	return summary
}
