// Package scoring adds the statistical outlier flags to the joined
// table and merges them with the model decision into the combined
// classification.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"retail-anomaly-lab/internal/domain"
)

// ZScores computes (value - mean) / stddev over the amount column,
// using the sample standard deviation (n-1 denominator). A degenerate
// column (zero variance, or fewer than two values) yields all zeros
// instead of NaN.
func ZScores(amounts []float64) []float64 {
	out := make([]float64, len(amounts))
	n := len(amounts)
	if n < 2 {
		return out
	}

	mean := 0.0
	for _, v := range amounts {
		mean += v
	}
	mean /= float64(n)

	sumSq := 0.0
	for _, v := range amounts {
		d := v - mean
		sumSq += d * d
	}
	std := math.Sqrt(sumSq / float64(n-1))
	if std == 0 {
		return out
	}

	for i, v := range amounts {
		out[i] = (v - mean) / std
	}
	return out
}

// IQRFlags flags values outside the Tukey fences: below Q1 - 1.5*IQR or
// above Q3 + 1.5*IQR, with strict inequalities. A value exactly on a
// fence is not an outlier.
func IQRFlags(amounts []float64) []bool {
	out := make([]bool, len(amounts))
	if len(amounts) == 0 {
		return out
	}

	sorted := make([]float64, len(amounts))
	copy(sorted, amounts)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 0.25)
	q3 := percentile(sorted, 0.75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	for i, v := range amounts {
		out[i] = v < lower || v > upper
	}
	return out
}

// Apply returns a new record slice with all scoring fields populated:
// the model flag and score, the amount z-score, the IQR flag, and the
// combined classification. The input slice is not modified.
func Apply(orders []domain.OrderRecord, mlFlags []bool, scores []float64) ([]domain.OrderRecord, error) {
	if len(mlFlags) != len(orders) || len(scores) != len(orders) {
		return nil, fmt.Errorf("flag/score length %d/%d does not match %d orders",
			len(mlFlags), len(scores), len(orders))
	}

	amounts := make([]float64, len(orders))
	for i := range orders {
		amounts[i] = orders[i].TotalAmount
	}
	zscores := ZScores(amounts)
	iqrFlags := IQRFlags(amounts)

	out := make([]domain.OrderRecord, len(orders))
	for i, o := range orders {
		o.MLAnomaly = mlFlags[i]
		o.AnomalyScore = scores[i]
		o.AmountZScore = zscores[i]
		o.IQRAnomaly = iqrFlags[i]
		o.AnomalyType = domain.ClassifyAnomaly(o.MLAnomaly, o.IQRAnomaly)
		out[i] = o
	}
	return out, nil
}

// percentile uses linear interpolation between closest ranks.
// sorted must be pre-sorted ASC.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
