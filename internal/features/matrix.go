// Package features derives the model input matrix from order records
// and standardizes it.
package features

import (
	"math"

	"retail-anomaly-lab/internal/domain"
)

// Matrix builds the fixed five-feature matrix, one row per order, in
// the column order defined by domain.Feature constants. NaN values are
// imputed to zero before any scaling, matching the pipeline's
// deliberate zero-imputation policy.
func Matrix(orders []domain.OrderRecord) [][]float64 {
	m := make([][]float64, len(orders))
	for i := range orders {
		vec := orders[i].FeatureVector()
		row := make([]float64, domain.FeatureCount)
		for j, v := range vec {
			if math.IsNaN(v) {
				v = 0
			}
			row[j] = v
		}
		m[i] = row
	}
	return m
}
