package features

import (
	"errors"
	"math"
)

// ErrNotFitted is returned when Transform is called before Fit.
var ErrNotFitted = errors.New("scaler not fitted")

// Scaler standardizes a feature matrix to zero mean and unit variance
// per column. Parameters are fit exactly once, on the complete matrix,
// and reused for every row's transform.
type Scaler struct {
	means  []float64
	scales []float64
	fitted bool
}

// NewScaler creates an unfitted Scaler.
func NewScaler() *Scaler {
	return &Scaler{}
}

// Fit computes per-column mean and population standard deviation over
// the full matrix in one pass. A zero-variance column gets scale 0 and
// its values transform to constant 0 instead of dividing by zero.
func (s *Scaler) Fit(m [][]float64) {
	if len(m) == 0 {
		s.means = nil
		s.scales = nil
		s.fitted = true
		return
	}

	cols := len(m[0])
	n := float64(len(m))
	s.means = make([]float64, cols)
	s.scales = make([]float64, cols)

	for j := 0; j < cols; j++ {
		sum := 0.0
		for _, row := range m {
			sum += row[j]
		}
		s.means[j] = sum / n
	}

	for j := 0; j < cols; j++ {
		sumSq := 0.0
		for _, row := range m {
			d := row[j] - s.means[j]
			sumSq += d * d
		}
		s.scales[j] = math.Sqrt(sumSq / n)
	}

	s.fitted = true
}

// Transform returns a new standardized matrix. The input is not
// modified. Returns ErrNotFitted before Fit.
func (s *Scaler) Transform(m [][]float64) ([][]float64, error) {
	if !s.fitted {
		return nil, ErrNotFitted
	}

	out := make([][]float64, len(m))
	for i, row := range m {
		scaled := make([]float64, len(row))
		for j, v := range row {
			if j < len(s.scales) && s.scales[j] > 0 {
				scaled[j] = (v - s.means[j]) / s.scales[j]
			}
			// zero-variance column: scaled value stays 0
		}
		out[i] = scaled
	}
	return out, nil
}

// FitTransform fits the scaler on m and returns the standardized matrix.
func (s *Scaler) FitTransform(m [][]float64) ([][]float64, error) {
	s.Fit(m)
	return s.Transform(m)
}

// Mean returns the fitted per-column means (nil before Fit).
func (s *Scaler) Mean() []float64 {
	return s.means
}

// Scale returns the fitted per-column standard deviations (nil before Fit).
func (s *Scaler) Scale() []float64 {
	return s.scales
}
